package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/myrulesiot/myrulesiot/action"
	"github.com/myrulesiot/myrulesiot/jsonptr"
)

// Master interprets the persisted functions list over Info, dispatches
// each invocation to a registered slice function, and handles the
// fixed set of control commands that manage that list at runtime. It
// implements the Reducer interface consumed by Loop.
type Master struct {
	// PrefixID namespaces the command/notify topics (config key
	// application.identifier).
	PrefixID string
	Registry *Registry
	// Clock supplies "now" for the _timestamp scratch key. Defaults to
	// time.Now when nil.
	Clock func() time.Time
}

// NewMaster returns a Master using the real wall clock.
func NewMaster(prefixID string, reg *Registry) *Master {
	return &Master{PrefixID: prefixID, Registry: reg, Clock: time.Now}
}

func (m *Master) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}

func (m *Master) commandTopic(name string) string {
	return m.PrefixID + "/command/" + name
}

func (m *Master) notifyTopic(name string) string {
	return m.PrefixID + "/notify/" + name
}

func notifyMessage(topic string, payload any) action.Message {
	b, err := json.Marshal(payload)
	if err != nil {
		b = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}
	return action.NewMessage(topic, b)
}

// Reduce applies one Action to state and returns the updated state
// along with the messages produced for this step. It satisfies the
// Reducer interface used by Loop.
func (m *Master) Reduce(state State, act action.Action) (State, Result) {
	if state.Status.IsFinal() {
		return state, Result{}
	}
	if state.Status.Phase == Init {
		state.Status.Phase = Running
	}

	switch act.Topic {
	case m.commandTopic("functions_push"):
		return m.handleFunctionsPush(state, act)
	case m.commandTopic("functions_pop"):
		return m.handleFunctionsPop(state)
	case m.commandTopic("functions_clear"):
		return m.handleFunctionsClear(state)
	case m.commandTopic("functions_putall"):
		return m.handleFunctionsPutAll(state, act)
	case m.commandTopic("functions_getall"):
		return m.handleFunctionsGetAll(state)
	case m.commandTopic("exit"):
		return m.handleExit(state, act)
	case action.ErrorTopic:
		return m.handleError(state, act)
	default:
		return m.handlePipeline(state, act)
	}
}

func (m *Master) handleFunctionsPush(state State, act action.Action) (State, Result) {
	var fn ReducerFunction
	if err := json.Unmarshal(act.Payload, &fn); err != nil {
		msg := notifyMessage(m.notifyTopic("system_error"), map[string]any{
			"command": "functions_push",
			"error":   err.Error(),
		})
		return state, Result{Messages: []action.Message{msg}}
	}

	state.Functions = append(cloneFunctions(state.Functions), fn)
	msg := notifyMessage(m.notifyTopic("functions_push"), map[string]any{
		"success":  true,
		"function": fn.Name,
	})
	return state, Result{Messages: []action.Message{msg}}
}

func (m *Master) handleFunctionsPop(state State) (State, Result) {
	popped := "<None>"
	funcs := cloneFunctions(state.Functions)
	if n := len(funcs); n > 0 {
		popped = funcs[n-1].Name
		funcs = funcs[:n-1]
	}
	state.Functions = funcs

	msg := notifyMessage(m.notifyTopic("functions_pop"), map[string]any{
		"success":  true,
		"function": popped,
	})
	return state, Result{Messages: []action.Message{msg}}
}

func (m *Master) handleFunctionsClear(state State) (State, Result) {
	state.Functions = nil
	msg := notifyMessage(m.notifyTopic("functions_clear"), map[string]any{"success": true})
	return state, Result{Messages: []action.Message{msg}}
}

func (m *Master) handleFunctionsPutAll(state State, act action.Action) (State, Result) {
	var funcs []ReducerFunction
	if err := json.Unmarshal(act.Payload, &funcs); err != nil {
		msg := notifyMessage(m.notifyTopic("system_error"), map[string]any{
			"command": "functions_putall",
			"error":   err.Error(),
		})
		return state, Result{Messages: []action.Message{msg}}
	}

	state.Functions = funcs
	msg := notifyMessage(m.notifyTopic("functions_putall"), map[string]any{"success": true})
	return state, Result{Messages: []action.Message{msg}}
}

func (m *Master) handleFunctionsGetAll(state State) (State, Result) {
	msg := notifyMessage(m.notifyTopic("functions_getall"), cloneFunctions(state.Functions))
	return state, Result{Messages: []action.Message{msg}}
}

func (m *Master) handleExit(state State, act action.Action) (State, Result) {
	state.Status = Status{Phase: Final, Final: Normal, Message: string(act.Payload)}
	return state, Result{}
}

func (m *Master) handleError(state State, act action.Action) (State, Result) {
	msg := string(act.Payload)
	slog.Error("engine terminating on error action", "message", msg)
	state.Status = Status{Phase: Final, Final: Error, Message: msg}
	return state, Result{}
}

// handlePipeline runs every invocation in state.Functions in order
// over state.Info, merging each slice function's state patch and
// collecting its messages, then prunes scratch keys.
func (m *Master) handlePipeline(state State, act action.Action) (State, Result) {
	info := cloneInfo(state.Info)
	info["_timestamp"] = m.now().UnixMilli()

	var messages []action.Message
	for i, fn := range state.Functions {
		info["_index"] = i
		info = mergeParams(info, fn.Params)

		slice, ok := m.Registry.Lookup(fn.Name)
		if !ok {
			msg := action.NewMessage(m.notifyTopic("system_error"),
				[]byte(fmt.Sprintf("Function not found: %s", fn.Name)))
			messages = append(messages, msg)
			continue
		}

		result, err := slice(info, act)
		if err != nil {
			msg := action.NewMessage(m.notifyTopic("system_error"),
				[]byte(fmt.Sprintf("Function %s failed: %s", fn.Name, err.Error())))
			messages = append(messages, msg)
			continue
		}
		info = mergeParams(info, result.State)
		messages = append(messages, result.Messages...)
	}

	pruneScratchKeys(info)
	state.Info = info
	return state, Result{Messages: messages}
}

// mergeParams applies fields to info using RFC 7396 JSON Merge Patch
// semantics: object keys are recursively combined, a null value
// deletes the key, and non-object values replace wholesale.
func mergeParams(info map[string]any, fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return info
	}
	return jsonptr.MergeFields(info, fields)
}

// pruneScratchKeys removes every top-level key whose name begins with
// "_": they are per-step scratch and must not leak into persisted
// info between actions.
func pruneScratchKeys(info map[string]any) {
	for k := range info {
		if strings.HasPrefix(k, "_") {
			delete(info, k)
		}
	}
}

func cloneInfo(info map[string]any) map[string]any {
	if info == nil {
		return map[string]any{}
	}
	clone := make(map[string]any, len(info))
	for k, v := range info {
		clone[k] = v
	}
	return clone
}

func cloneFunctions(funcs []ReducerFunction) []ReducerFunction {
	clone := make([]ReducerFunction, len(funcs))
	copy(clone, funcs)
	return clone
}
