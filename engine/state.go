// Package engine implements the master engine and generic runtime
// loop described by the spec: a reduce/publish pipeline that
// interprets a persisted list of reducer function invocations over a
// shared JSON state document.
package engine

import (
	"encoding/json"
	"fmt"

	"github.com/myrulesiot/myrulesiot/action"
)

// Phase is the coarse lifecycle stage of an EngineState.
type Phase int

const (
	Init Phase = iota
	Running
	Final
)

// FinalStatus distinguishes a graceful exit from an error exit. It is
// only meaningful once Phase == Final.
type FinalStatus int

const (
	// Normal means the engine was asked to exit cleanly.
	Normal FinalStatus = iota
	// Error means the engine terminated because of a runtime error
	// (e.g. the MQTT connection was lost).
	Error
)

func (f FinalStatus) String() string {
	if f == Error {
		return "ERROR"
	}
	return "NORMAL"
}

// Status captures the engine's current lifecycle position. Phase
// transitions monotonically: Init -> Running -> Final. Once Final, no
// further actions are processed.
type Status struct {
	Phase   Phase
	Final   FinalStatus
	Message string
}

// IsFinal reports whether the engine has reached a terminal state.
func (s Status) IsFinal() bool { return s.Phase == Final }

// ReducerFunction is a single invocation in the user's program: a
// named slice function plus an open set of additional JSON fields
// that are merged into info before the slice function runs. On the
// wire it is a flat JSON object; Params holds everything except
// "name".
type ReducerFunction struct {
	Name   string
	Params map[string]any
}

// MarshalJSON flattens Name and Params back into a single JSON
// object, so that decode-then-encode round-trips are byte-identical
// (encoding/json always emits map keys in sorted order).
func (r ReducerFunction) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Params)+1)
	for k, v := range r.Params {
		flat[k] = v
	}
	flat["name"] = r.Name
	return json.Marshal(flat)
}

// UnmarshalJSON decodes a flat JSON object into Name (required) and
// Params (everything else).
func (r *ReducerFunction) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	name, ok := flat["name"].(string)
	if !ok || name == "" {
		return fmt.Errorf("reducer function invocation missing required \"name\" field")
	}
	delete(flat, "name")
	r.Name = name
	r.Params = flat
	return nil
}

// State is the durable, per-run state owned exclusively by the
// runtime Loop for the duration of a run and moved into/out of
// Master.Reduce on each step.
type State struct {
	// Info is the shared JSON working document mutated by slice
	// functions.
	Info map[string]any
	// Functions is the current program: an ordered list of reducer
	// function invocations. Only mutated by the functions_* command
	// subset; pipeline execution never mutates it.
	Functions []ReducerFunction
	// Status is the engine's lifecycle position.
	Status Status
}

// NewState returns an initialized, empty State in the Init phase.
func NewState() State {
	return State{
		Info:   map[string]any{},
		Status: Status{Phase: Init},
	}
}

// Result is a master engine step's transient output: the messages to
// publish for that step.
type Result struct {
	Messages []action.Message
}
