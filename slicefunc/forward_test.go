package slicefunc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrulesiot/myrulesiot/action"
)

func TestForwardUserAction(t *testing.T) {
	info := map[string]any{"_topic": "SYSTIMER/tick", "_forwardtopic": "myhelloiot/timer"}

	result, err := ForwardUserAction(info, action.New("SYSTIMER/tick", []byte("123")))
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "myhelloiot/timer", result.Messages[0].Topic)
	assert.Equal(t, []byte("123"), result.Messages[0].Payload)
}

func TestForwardUserActionIgnoresOtherTopics(t *testing.T) {
	info := map[string]any{"_topic": "SYSTIMER/tick", "_forwardtopic": "myhelloiot/timer"}

	result, err := ForwardUserAction(info, action.New("other", []byte("123")))
	require.NoError(t, err)
	assert.Empty(t, result.Messages)
}

func TestForwardActionTogglesFromUnset(t *testing.T) {
	info := map[string]any{"_topic": "source_topic", "_forwardtopic": "target_topic"}

	result, err := ForwardAction(info, action.New("source_topic", []byte(`{"action":"toggle"}`)))
	require.NoError(t, err)
	assert.Equal(t, true, result.State["target_topic"])
	require.Len(t, result.Messages, 1)
	assert.Equal(t, []byte{0x01}, result.Messages[0].Payload)

	info["target_topic"] = true
	result, err = ForwardAction(info, action.New("source_topic", []byte(`{"action":"toggle"}`)))
	require.NoError(t, err)
	assert.Equal(t, false, result.State["target_topic"])
	assert.Equal(t, []byte{0x00}, result.Messages[0].Payload)
}

func TestForwardActionIgnoresNonToggle(t *testing.T) {
	info := map[string]any{"_topic": "source_topic", "_forwardtopic": "target_topic"}

	result, err := ForwardAction(info, action.New("source_topic", []byte(`{"action":"other"}`)))
	require.NoError(t, err)
	assert.Empty(t, result.Messages)
	assert.Nil(t, result.State)
}
