package messenger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrulesiot/myrulesiot/action"
)

type fakeClient struct {
	connectErr       error
	subscribeErr     error
	handlers         map[string]func(WireMessage)
	published        []action.Message
	onConnectionLost func(error)
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[string]func(WireMessage))}
}

func (c *fakeClient) Connect(ctx context.Context) error { return c.connectErr }
func (c *fakeClient) Disconnect()                       {}

func (c *fakeClient) Publish(ctx context.Context, topic string, payload []byte, retain bool, qos byte) error {
	c.published = append(c.published, action.Message{Topic: topic, Payload: payload})
	return nil
}

func (c *fakeClient) Subscribe(ctx context.Context, topic string, qos byte, handler func(WireMessage)) (func() error, error) {
	if c.subscribeErr != nil {
		return nil, c.subscribeErr
	}
	c.handlers[topic] = handler
	return func() error { return nil }, nil
}

func (c *fakeClient) SetOnConnectionLost(fn func(error)) {
	c.onConnectionLost = fn
}

func TestSubscribeAppendsCommandWildcardAndForwardsActions(t *testing.T) {
	client := newFakeClient()
	bridge := NewBridge(client)
	in := make(chan action.Action, 10)

	err := bridge.Subscribe(context.Background(), []Subscription{{Topic: "zigbee2mqtt/Tradfri Remote", QoS: 0}}, "MYRULESTEST/command/#", in)
	require.NoError(t, err)

	require.Contains(t, client.handlers, "zigbee2mqtt/Tradfri Remote")
	require.Contains(t, client.handlers, "MYRULESTEST/command/#")

	client.handlers["zigbee2mqtt/Tradfri Remote"](WireMessage{Topic: "zigbee2mqtt/Tradfri Remote", Payload: []byte(`{"action":"toggle"}`)})

	select {
	case act := <-in:
		assert.Equal(t, "zigbee2mqtt/Tradfri Remote", act.Topic)
	case <-time.After(time.Second):
		t.Fatal("expected action to be forwarded")
	}
}

func TestSubscribeDropsInternalTopics(t *testing.T) {
	client := newFakeClient()
	bridge := NewBridge(client)
	in := make(chan action.Action, 10)

	err := bridge.Subscribe(context.Background(), nil, "MYRULESTEST/command/#", in)
	require.NoError(t, err)

	client.handlers["MYRULESTEST/command/#"](WireMessage{Topic: action.ErrorTopic, Payload: []byte("spoofed")})

	select {
	case <-in:
		t.Fatal("internal topic should have been dropped, not forwarded")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConnectWiresConnectionLostToErrorAction(t *testing.T) {
	client := newFakeClient()
	bridge := NewBridge(client)
	in := make(chan action.Action, 10)

	require.NoError(t, bridge.Connect(context.Background(), in))
	require.NotNil(t, client.onConnectionLost)

	client.onConnectionLost(errors.New("broker down"))

	select {
	case act := <-in:
		assert.Equal(t, action.ErrorTopic, act.Topic)
		assert.Equal(t, "broker down", string(act.Payload))
	case <-time.After(time.Second):
		t.Fatal("expected error action to be injected")
	}
}

func TestPublishSkipsInternalMessagesAndStopsOnClose(t *testing.T) {
	client := newFakeClient()
	bridge := NewBridge(client)
	out := make(chan action.Message, 10)

	out <- action.NewMessage("shellies/relay/1/command", []byte("on"))
	out <- action.NewMessage(action.InternalPrefix+"notify/functions_push", []byte(`{}`))
	close(out)

	done := make(chan struct{})
	go func() {
		bridge.Publish(context.Background(), out)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish did not return after channel close")
	}

	require.Len(t, client.published, 1)
	assert.Equal(t, "shellies/relay/1/command", client.published[0].Topic)
}
