package slicefunc

import (
	"encoding/json"

	"github.com/myrulesiot/myrulesiot/action"
	"github.com/myrulesiot/myrulesiot/engine"
	"github.com/myrulesiot/myrulesiot/jsonptr"
)

// StartMQTTRange is start_json_action's analog-threshold counterpart: it
// arms _start when the JSON-pointed numeric field of the payload falls
// within [info._min, info._max], rather than testing for equality.
// Covers sensor topics (lux, humidity, temperature) a pure equality test
// can't express.
func StartMQTTRange(info map[string]any, act action.Action) (engine.SliceResult, error) {
	topic := str(info, "_topic")
	pointer := str(info, "_pointer")

	if !actionMatches(act, topic) {
		return engine.SliceResult{State: map[string]any{"_start": false}}, nil
	}

	var doc any
	if err := json.Unmarshal(act.Payload, &doc); err != nil {
		return engine.SliceResult{State: map[string]any{"_start": false}}, nil
	}
	got, ok := jsonptr.Get(doc, pointer)
	if !ok {
		return engine.SliceResult{State: map[string]any{"_start": false}}, nil
	}
	value, ok := got.(float64)
	if !ok {
		return engine.SliceResult{State: map[string]any{"_start": false}}, nil
	}

	min, _ := numberField(info, "_min")
	max, _ := numberField(info, "_max")
	start := value >= min && value <= max
	return engine.SliceResult{State: map[string]any{"_start": start}}, nil
}

// Counter maintains a persistent integer at info[info._counter_key],
// incrementing it by info._step (default 1) each time info._start is
// true. It never emits on its own, and relay does not publish the
// count: relay sends info._value only when that field is a string.
func Counter(info map[string]any, act action.Action) (engine.SliceResult, error) {
	if !boolField(info, "_start") {
		return engine.SliceResult{}, nil
	}

	key := str(info, "_counter_key")
	if key == "" {
		return engine.SliceResult{}, nil
	}

	step := int64(1)
	if v, ok := intField(info, "_step"); ok {
		step = v
	}

	current, _ := intField(info, key)
	return engine.SliceResult{State: map[string]any{key: current + step}}, nil
}
