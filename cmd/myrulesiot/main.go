package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/myrulesiot/myrulesiot"
	"github.com/myrulesiot/myrulesiot/action"
	"github.com/myrulesiot/myrulesiot/config"
	"github.com/myrulesiot/myrulesiot/engine"
	"github.com/myrulesiot/myrulesiot/logging"
	"github.com/myrulesiot/myrulesiot/messenger"
	"github.com/myrulesiot/myrulesiot/messenger/mqtt"
	"github.com/myrulesiot/myrulesiot/persistence"
	"github.com/myrulesiot/myrulesiot/slicefunc"
	"github.com/myrulesiot/myrulesiot/tasks"
	"github.com/myrulesiot/myrulesiot/timer"
)

var (
	configPath string
	logLevel   string
	logFormat  string
	logOutput  string
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:           "myrulesiot",
	Short:         "MyRulesIoT rules engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the broker and run the rules engine until it reaches a final state",
	RunE:  runRun,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cmd.OutOrStdout().Write(append(myrulesiot.VersionJSON(), '\n'))
		return err
	},
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration file")
	runCmd.Flags().StringVar(&logLevel, "log-level", logging.DefaultLevel, "Log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&logFormat, "log-format", logging.DefaultFormat, "Log format (text, json)")
	runCmd.Flags().StringVar(&logOutput, "log-output", logging.DefaultOutput, "Log output (stdout, stderr, file, string)")
	runCmd.Flags().StringVar(&logFile, "log-file", "", "Log file path (required when log-output=file)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	if strings.EqualFold(logOutput, "file") && strings.TrimSpace(logFile) == "" {
		return errors.New("log-output=file requires --log-file")
	}

	logger, closer, _, err := logging.Build(logging.Config{
		Level:    logLevel,
		Format:   logFormat,
		Output:   logOutput,
		FilePath: logFile,
	})
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	level, _ := logging.ParseLevel(logLevel)
	logging.ApplyGlobal(logger, level)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	registry := engine.NewRegistry()
	slicefunc.RegisterBuiltins(registry)
	master := engine.NewMaster(cfg.Application.Identifier, registry)

	initial := engine.NewState()
	initial.Functions = persistence.LoadFunctions(persistence.DefaultFunctionsPath)

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(signalCtx)
	defer cancel()

	capacity := cfg.MQTT.Connection.Cap
	if capacity <= 0 {
		capacity = 10
	}
	in := make(chan action.Action, capacity)
	results := make(chan engine.Result, capacity)
	messages := make(chan action.Message, capacity)

	client := mqtt.New(mqtt.Config{
		Broker:       fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Connection.Host, cfg.MQTT.Connection.Port),
		ClientID:     cfg.MQTT.Connection.ClientID,
		Username:     cfg.MQTT.Connection.Username,
		Password:     cfg.MQTT.Connection.Password,
		KeepAlive:    time.Duration(cfg.MQTT.Connection.KeepAlive) * time.Second,
		Inflight:     cfg.MQTT.Connection.Inflight,
		CleanSession: cfg.MQTT.Connection.CleanSession,
	})
	bridge := messenger.NewBridge(client)

	if err := bridge.Connect(ctx, in); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	subs := make([]messenger.Subscription, 0, len(cfg.MQTT.Subscriptions))
	for _, s := range cfg.MQTT.Subscriptions {
		subs = append(subs, messenger.Subscription{Topic: s.Topic, QoS: s.QoS})
	}
	if err := bridge.Subscribe(ctx, subs, cfg.CommandTopic(), in); err != nil {
		return fmt.Errorf("mqtt subscribe: %w", err)
	}

	var final engine.State
	runner := tasks.NewRunner()
	runner.Add(timerTask{interval: time.Duration(cfg.Timer.IntervalSeconds) * time.Second, in: in})
	runner.Add(loopTask{
		loop:    engine.NewLoop(master),
		initial: initial,
		in:      in,
		out:     results,
		final:   &final,
		cancel:  cancel,
	})
	runner.Add(fanOutTask{results: results, messages: messages})
	runner.Add(publishTask{bridge: bridge, messages: messages})

	if err := runner.Run(ctx); err != nil {
		return err
	}
	client.Disconnect()

	if saveErr := persistence.SaveFunctions(persistence.DefaultFunctionsPath, final.Functions); saveErr != nil {
		fmt.Fprintln(os.Stderr, "saving functions list:", saveErr)
	}
	if markErr := persistence.WriteExitMarker(persistence.DefaultExitPath, final.Status.Final, final.Status.Message); markErr != nil {
		fmt.Fprintln(os.Stderr, "writing exit marker:", markErr)
	}

	if final.Status.Final == engine.Error {
		return fmt.Errorf("engine terminated with error: %s", final.Status.Message)
	}
	return nil
}

// timerTask adapts timer.Run to the tasks.Task interface.
type timerTask struct {
	interval time.Duration
	in       chan<- action.Action
}

func (t timerTask) Name() string { return "timer" }
func (t timerTask) Run(ctx context.Context) error {
	timer.Run(ctx, t.interval, t.in)
	return nil
}

// loopTask adapts engine.Loop to the tasks.Task interface and cancels
// the shared context once the loop returns, so the timer and publisher
// wind down even when the loop reached Final on its own rather than
// from an external signal.
type loopTask struct {
	loop    *engine.Loop
	initial engine.State
	in      <-chan action.Action
	out     chan<- engine.Result
	final   *engine.State
	cancel  context.CancelFunc
}

func (t loopTask) Name() string { return "runtime-loop" }
func (t loopTask) Run(ctx context.Context) error {
	*t.final = t.loop.Run(ctx, t.initial, t.in, t.out)
	t.cancel()
	return nil
}

// fanOutTask unpacks each Result's Messages onto the outbound message
// channel the publisher drains, closing it once results closes.
type fanOutTask struct {
	results  <-chan engine.Result
	messages chan<- action.Message
}

func (t fanOutTask) Name() string { return "result-fanout" }
func (t fanOutTask) Run(ctx context.Context) error {
	defer close(t.messages)
	for {
		select {
		case result, ok := <-t.results:
			if !ok {
				return nil
			}
			for _, m := range result.Messages {
				select {
				case t.messages <- m:
				case <-ctx.Done():
					return nil
				}
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// publishTask adapts messenger.Bridge.Publish to the tasks.Task interface.
type publishTask struct {
	bridge   *messenger.Bridge
	messages <-chan action.Message
}

func (t publishTask) Name() string { return "mqtt-publisher" }
func (t publishTask) Run(ctx context.Context) error {
	t.bridge.Publish(ctx, t.messages)
	return nil
}
