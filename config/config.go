// Package config loads the engine's keyed configuration from a file
// (viper, same as the teacher's cobra-based command tree expects to sit
// alongside) with a HOMERULES_* environment overlay, and exposes it as
// a typed Config rather than the loosely-keyed viper.Viper handle.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Subscription is one entry of mqtt.subscriptions.
type Subscription struct {
	Topic string `mapstructure:"topic"`
	QoS   byte   `mapstructure:"qos"`
}

// Connection holds the broker connection parameters.
type Connection struct {
	ClientID     string `mapstructure:"client_id"`
	Host         string `mapstructure:"host"`
	Port         uint16 `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	KeepAlive    uint16 `mapstructure:"keep_alive"`
	Inflight     uint16 `mapstructure:"inflight"`
	CleanSession bool   `mapstructure:"clean_session"`
	Cap          int    `mapstructure:"cap"`
}

// Config is the engine's full runtime configuration.
type Config struct {
	Application struct {
		Identifier string `mapstructure:"identifier"`
	} `mapstructure:"application"`
	MQTT struct {
		Connection    Connection     `mapstructure:"connection"`
		Subscriptions []Subscription `mapstructure:"subscriptions"`
	} `mapstructure:"mqtt"`
	Timer struct {
		// IntervalSeconds is the period between SYSMR/action/tick
		// actions. Not named by spec.md's configuration table; added
		// so the timer source's period is configurable rather than
		// hardcoded, matching the rest of the ambient config surface.
		IntervalSeconds int `mapstructure:"interval_seconds"`
	} `mapstructure:"timer"`
}

// Load reads configuration from configPath (if non-empty) or the
// default search locations, overlays HOMERULES_* environment
// variables, and validates required fields.
func Load(configPath string) (Config, error) {
	v := viper.New()

	v.SetDefault("application.identifier", "HOMERULES")
	v.SetDefault("mqtt.connection.port", 1883)
	v.SetDefault("mqtt.connection.keep_alive", 5)
	v.SetDefault("mqtt.connection.inflight", 10)
	v.SetDefault("mqtt.connection.clean_session", false)
	v.SetDefault("mqtt.connection.cap", 10)
	v.SetDefault("mqtt.connection.client_id", "")
	v.SetDefault("mqtt.subscriptions", []map[string]any{})
	v.SetDefault("timer.interval_seconds", 30)

	v.SetEnvPrefix("HOMERULES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("myrulesiot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/myrulesiot")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.MQTT.Connection.Host) == "" {
		return fmt.Errorf("mqtt.connection.host is required")
	}
	if strings.TrimSpace(c.MQTT.Connection.Username) == "" {
		return fmt.Errorf("mqtt.connection.username is required")
	}
	if strings.TrimSpace(c.MQTT.Connection.Password) == "" {
		return fmt.Errorf("mqtt.connection.password is required")
	}
	return nil
}

// CommandTopic returns the always-subscribed control wildcard for this
// configuration's prefix_id.
func (c Config) CommandTopic() string {
	return c.Application.Identifier + "/command/#"
}
