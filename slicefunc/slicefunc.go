// Package slicefunc implements the built-in vocabulary of slice
// functions: condition evaluators, relay emitters, action forwarders,
// and timers, in the idiom of the teacher's rules package (small,
// independently testable units of behavior over a shared document).
// Unlike the teacher's device-driven rules, these operate purely over
// the JSON info document and the current action, with no direct
// hardware or channel access of their own.
package slicefunc

import (
	"github.com/myrulesiot/myrulesiot/engine"
)

// RegisterBuiltins registers every built-in slice function named by
// the spec, plus the supplemental start_mqtt_range and counter
// functions, into reg. Called once at startup against a fresh
// engine.NewRegistry(); user extensions register into the same
// Registry the same way.
func RegisterBuiltins(reg *engine.Registry) {
	reg.Register("start_action", StartAction)
	reg.Register("start_json_action", StartJSONAction)

	for name, value := range ikeaRemoteVariants {
		reg.Register(name, startIkeaRemote(value))
	}

	reg.Register("relay", Relay)
	reg.Register("relay_on", relayConst("on"))
	reg.Register("relay_off", relayConst("off"))

	reg.Register("forward_user_action", ForwardUserAction)
	reg.Register("forward_action", ForwardAction)

	reg.Register("condition_sleep", ConditionSleep)

	reg.Register("start_mqtt_range", StartMQTTRange)
	reg.Register("counter", Counter)
}

// str reads a string field from info, returning "" if absent or of
// the wrong type.
func str(info map[string]any, key string) string {
	v, _ := info[key].(string)
	return v
}

// boolField reads a bool field from info, returning false if absent
// or of the wrong type.
func boolField(info map[string]any, key string) bool {
	v, _ := info[key].(bool)
	return v
}

// numberField reads a numeric field from info (decoded JSON numbers
// are float64), returning (0, false) if absent or of the wrong type.
func numberField(info map[string]any, key string) (float64, bool) {
	v, ok := info[key].(float64)
	return v, ok
}
