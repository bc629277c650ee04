package slicefunc

import (
	"fmt"

	"github.com/myrulesiot/myrulesiot/action"
	"github.com/myrulesiot/myrulesiot/engine"
)

// ConditionSleep debounces a start signal: the first time it observes
// _start == true it swallows the trigger and records _timestamp under a
// per-position key; on later calls it re-arms _start once _timestamp has
// advanced past the recorded time by more than _millis (default 1000).
func ConditionSleep(info map[string]any, act action.Action) (engine.SliceResult, error) {
	millis := int64(1000)
	if v, ok := intField(info, "_millis"); ok {
		millis = v
	}

	timeKey := fmt.Sprintf("condition_sleep_%v", info["_index"])

	timestamp, _ := intField(info, "_timestamp")

	if boolField(info, "_start") {
		return engine.SliceResult{State: map[string]any{
			timeKey:  timestamp,
			"_start": nil,
		}}, nil
	}

	if activation, ok := intField(info, timeKey); ok {
		if timestamp-activation > millis {
			return engine.SliceResult{State: map[string]any{
				timeKey:  nil,
				"_start": true,
			}}, nil
		}
	}

	return engine.SliceResult{State: map[string]any{"_start": nil}}, nil
}

// intField reads an integer-valued field from info. Within a single
// engine run values set by the master (_timestamp, _index) are native
// int64/int; values round-tripped through JSON (persisted functions,
// slice-function params) decode as float64. Both are accepted.
func intField(info map[string]any, key string) (int64, bool) {
	switch v := info[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
