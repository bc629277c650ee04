package slicefunc

import (
	"encoding/json"

	"github.com/myrulesiot/myrulesiot/action"
	"github.com/myrulesiot/myrulesiot/engine"
)

// ForwardUserAction republishes the action payload unchanged on
// info._forwardtopic whenever the action arrived on info._topic.
func ForwardUserAction(info map[string]any, act action.Action) (engine.SliceResult, error) {
	topic := str(info, "_topic")
	forwardTopic := str(info, "_forwardtopic")

	if !actionMatches(act, topic) {
		return engine.SliceResult{}, nil
	}
	msg := action.NewMessage(forwardTopic, act.Payload)
	return engine.SliceResult{Messages: []action.Message{msg}}, nil
}

// ForwardAction toggles a boolean tracked at info[_forwardtopic] every
// time it sees a {"action":"toggle"} JSON payload on info._topic,
// publishing a single byte (0x01/0x00) reflecting the new value on
// _forwardtopic.
func ForwardAction(info map[string]any, act action.Action) (engine.SliceResult, error) {
	topic := str(info, "_topic")
	forwardTopic := str(info, "_forwardtopic")

	if !actionMatches(act, topic) {
		return engine.SliceResult{}, nil
	}

	var payload map[string]any
	_ = json.Unmarshal(act.Payload, &payload)
	if payload["action"] != "toggle" {
		return engine.SliceResult{}, nil
	}

	current, _ := info[forwardTopic].(bool)
	next := !current

	wire := byte(0x00)
	if next {
		wire = 0x01
	}
	msg := action.NewMessage(forwardTopic, []byte{wire})
	return engine.SliceResult{
		State:    map[string]any{forwardTopic: next},
		Messages: []action.Message{msg},
	}, nil
}
