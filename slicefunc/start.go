package slicefunc

import (
	"encoding/json"
	"reflect"

	"github.com/myrulesiot/myrulesiot/action"
	"github.com/myrulesiot/myrulesiot/engine"
	"github.com/myrulesiot/myrulesiot/jsonptr"
)

// actionMatches reports whether act was published on topic.
func actionMatches(act action.Action, topic string) bool {
	return act.Topic == topic
}

// StartAction sets _start iff the action arrived on info._topic and its
// raw payload equals the bytes of info._command.
func StartAction(info map[string]any, act action.Action) (engine.SliceResult, error) {
	topic := str(info, "_topic")
	command := str(info, "_command")
	start := actionMatches(act, topic) && string(act.Payload) == command
	return engine.SliceResult{State: map[string]any{"_start": start}}, nil
}

// StartJSONAction sets _start iff the action arrived on info._topic, its
// payload parses as JSON, and the value at info._pointer (RFC 6901)
// equals info._value.
func StartJSONAction(info map[string]any, act action.Action) (engine.SliceResult, error) {
	topic := str(info, "_topic")
	pointer := str(info, "_pointer")
	value := info["_value"]
	return startJSONAction(info, act, topic, pointer, value), nil
}

// startJSONAction is the shared implementation behind start_json_action
// and the fixed-pointer/fixed-value Ikea remote specializations.
func startJSONAction(_ map[string]any, act action.Action, topic, pointer string, value any) engine.SliceResult {
	start := actionMatches(act, topic) && pointerEquals(act.Payload, pointer, value)
	return engine.SliceResult{State: map[string]any{"_start": start}}
}

func pointerEquals(payload []byte, pointer string, want any) bool {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return false
	}
	got, ok := jsonptr.Get(doc, pointer)
	if !ok {
		return false
	}
	return reflect.DeepEqual(got, want)
}

// ikeaRemoteVariants maps each start_ikea_remote_<variant> suffix to the
// fixed "/action" value a Tradfri-style Zigbee2MQTT remote reports for
// that button.
var ikeaRemoteVariants = map[string]string{
	"start_ikea_remote_on":              "on",
	"start_ikea_remote_off":             "off",
	"start_ikea_remote_toggle":          "toggle",
	"start_ikea_remote_brightness_up":   "brightness_up_click",
	"start_ikea_remote_brightness_down": "brightness_down_click",
	"start_ikea_remote_arrow_left":      "arrow_left_click",
	"start_ikea_remote_arrow_right":     "arrow_right_click",
}

// startIkeaRemote returns a start_json_action specialization fixed to
// pointer "/action" and the given value, reading its topic from
// info._topic like every other start function.
func startIkeaRemote(value string) engine.SliceFunc {
	return func(info map[string]any, act action.Action) (engine.SliceResult, error) {
		topic := str(info, "_topic")
		return startJSONAction(info, act, topic, "/action", value), nil
	}
}
