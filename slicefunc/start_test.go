package slicefunc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrulesiot/myrulesiot/action"
)

func TestStartAction(t *testing.T) {
	info := map[string]any{"_topic": "t", "_command": "go"}

	result, err := StartAction(info, action.New("t", []byte("go")))
	require.NoError(t, err)
	assert.Equal(t, true, result.State["_start"])

	result, err = StartAction(info, action.New("t", []byte("stop")))
	require.NoError(t, err)
	assert.Equal(t, false, result.State["_start"])

	result, err = StartAction(info, action.New("other", []byte("go")))
	require.NoError(t, err)
	assert.Equal(t, false, result.State["_start"])
}

func TestStartJSONAction(t *testing.T) {
	info := map[string]any{
		"_topic":   "zigbee2mqtt/Tradfri Remote",
		"_pointer": "/action",
		"_value":   "toggle",
	}

	result, err := StartJSONAction(info, action.New("zigbee2mqtt/Tradfri Remote", []byte(`{"action":"toggle"}`)))
	require.NoError(t, err)
	assert.Equal(t, true, result.State["_start"])

	result, err = StartJSONAction(info, action.New("zigbee2mqtt/Tradfri Remote", []byte(`{"action":"arrow_left_click"}`)))
	require.NoError(t, err)
	assert.Equal(t, false, result.State["_start"])

	result, err = StartJSONAction(info, action.New("zigbee2mqtt/Tradfri Remote", []byte(`not json`)))
	require.NoError(t, err)
	assert.Equal(t, false, result.State["_start"])
}

func TestStartIkeaRemoteToggle(t *testing.T) {
	fn, ok := ikeaRemoteVariants["start_ikea_remote_toggle"]
	require.True(t, ok)

	toggle := startIkeaRemote(fn)
	info := map[string]any{"_topic": "zigbee2mqtt/Tradfri Remote"}

	result, err := toggle(info, action.New("zigbee2mqtt/Tradfri Remote", []byte(`{"action":"toggle"}`)))
	require.NoError(t, err)
	assert.Equal(t, true, result.State["_start"])
}

func TestStartIkeaRemoteBrightnessClickSuffix(t *testing.T) {
	up, ok := ikeaRemoteVariants["start_ikea_remote_brightness_up"]
	require.True(t, ok)
	assert.Equal(t, "brightness_up_click", up)
}
