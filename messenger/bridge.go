// Package messenger implements the MQTT bridge boundary described by
// the spec: it turns inbound broker publishes into Actions, and
// outbound Messages into broker publishes, filtering SYSMR/ internal
// topics at the boundary in both directions so they never reach, or
// escape to, the wire.
package messenger

import (
	"context"
	"log/slog"

	"github.com/myrulesiot/myrulesiot/action"
)

// WireMessage is the raw, decoded-from-the-wire shape an MQTT client
// delivers to a subscription callback.
type WireMessage struct {
	Topic   string
	Payload []byte
	Retain  bool
	QoS     byte
}

// Subscription names one topic filter and the QoS to request it at.
type Subscription struct {
	Topic string
	QoS   byte
}

// Client is the minimal MQTT client surface the bridge depends on;
// messenger/mqtt.Paho implements it. Defining the interface here (not
// in the mqtt package) keeps messenger free of any Paho import.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect()
	Publish(ctx context.Context, topic string, payload []byte, retain bool, qos byte) error
	Subscribe(ctx context.Context, topic string, qos byte, handler func(WireMessage)) (func() error, error)
	SetOnConnectionLost(func(error))
}

// Bridge owns the broker connection and drives the two independent
// tasks described by the spec's concurrency model: the subscriber
// (wire -> inbound actions) and the publisher (outbound messages ->
// wire). Both communicate only through the caller-supplied bounded
// channels; Bridge holds no EngineState of its own.
type Bridge struct {
	Client Client
}

// NewBridge wraps client.
func NewBridge(client Client) *Bridge {
	return &Bridge{Client: client}
}

// Connect dials the broker and arms the connection-lost handler to
// inject a SYSMR/action/error action on in, per the spec's MQTT
// runtime error taxonomy (§7.3).
func (b *Bridge) Connect(ctx context.Context, in chan<- action.Action) error {
	b.Client.SetOnConnectionLost(func(err error) {
		errAction := action.New(action.ErrorTopic, []byte(err.Error()))
		select {
		case in <- errAction:
		case <-ctx.Done():
		}
	})
	return b.Client.Connect(ctx)
}

// Subscribe requests every subscription plus the always-on
// {prefix}/command/# wildcard, and forwards each inbound wire message
// as an Action on in. Messages on internal SYSMR/ topics are dropped
// rather than injected, preventing external spoofing of control
// commands. Subscribe returns once every subscription has been
// registered; delivery continues on the handler goroutines Paho owns
// until ctx is cancelled.
func (b *Bridge) Subscribe(ctx context.Context, subs []Subscription, commandWildcard string, in chan<- action.Action) error {
	all := append(append([]Subscription{}, subs...), Subscription{Topic: commandWildcard, QoS: 0})

	for _, sub := range all {
		_, err := b.Client.Subscribe(ctx, sub.Topic, sub.QoS, func(wire WireMessage) {
			act := action.New(wire.Topic, wire.Payload)
			if act.Internal() {
				slog.Warn("dropping inbound message on internal topic", "topic", wire.Topic)
				return
			}
			select {
			case in <- act:
			case <-ctx.Done():
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Publish drains out, publishing every non-internal Message to the
// broker and skipping internal SYSMR/ messages without sending them.
// Publish returns when out closes or ctx is cancelled, at which point
// the caller is expected to call Client.Disconnect.
func (b *Bridge) Publish(ctx context.Context, out <-chan action.Message) {
	for {
		select {
		case msg, ok := <-out:
			if !ok {
				return
			}
			if msg.Internal() {
				continue
			}
			if err := b.Client.Publish(ctx, msg.Topic, msg.Payload, msg.Retain(), msg.QoS()); err != nil {
				slog.Error("mqtt publish failed", "topic", msg.Topic, "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
