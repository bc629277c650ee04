package slicefunc

import (
	"github.com/myrulesiot/myrulesiot/action"
	"github.com/myrulesiot/myrulesiot/engine"
)

// Relay emits info._value on info._topic when armed by an upstream
// start function.
func Relay(info map[string]any, act action.Action) (engine.SliceResult, error) {
	return relayValue(info, str(info, "_value")), nil
}

// relayConst returns a relay specialization with a fixed payload, used
// for relay_on and relay_off.
func relayConst(value string) engine.SliceFunc {
	return func(info map[string]any, act action.Action) (engine.SliceResult, error) {
		return relayValue(info, value), nil
	}
}

func relayValue(info map[string]any, value string) engine.SliceResult {
	if !boolField(info, "_start") {
		return engine.SliceResult{}
	}
	msg := action.NewMessage(str(info, "_topic"), []byte(value))
	return engine.SliceResult{Messages: []action.Message{msg}}
}
