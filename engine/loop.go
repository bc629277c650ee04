package engine

import (
	"context"

	"github.com/myrulesiot/myrulesiot/action"
)

// Reducer is the interface the runtime Loop drives: a master engine
// (or anything else event-sourced) that folds one Action into State,
// producing an updated State and a Result.
type Reducer interface {
	Reduce(state State, act action.Action) (State, Result)
}

// Loop is the generic reduce/emit/terminate driver described by the
// spec: it owns State exclusively for the duration of a run, consumes
// Actions from an inbound channel in arrival order, and emits Results
// on an outbound channel in the same order. It never inspects message
// contents, never uses the clock, and never touches the MQTT bridge.
type Loop struct {
	Reducer Reducer
}

// NewLoop returns a Loop driven by the given Reducer.
func NewLoop(reducer Reducer) *Loop {
	return &Loop{Reducer: reducer}
}

// Run drives the loop until the reducer reaches a Final state, the
// inbound channel closes, or ctx is cancelled, and returns the final
// State. The outbound channel is closed before Run returns, signalling
// downstream consumers to drain and finish.
func (l *Loop) Run(ctx context.Context, initial State, in <-chan action.Action, out chan<- Result) State {
	state := initial
	defer safeClose(out)

	for {
		select {
		case act, ok := <-in:
			if !ok {
				return state
			}

			var result Result
			state, result = l.Reducer.Reduce(state, act)

			if !trySend(ctx, out, result) {
				return state
			}
			if state.Status.IsFinal() {
				return state
			}

		case <-ctx.Done():
			return state
		}
	}
}

// trySend delivers result on out, honoring ctx cancellation as a
// second suspension point. If out has already been closed by another
// party, the send panics in Go; trySend recovers from that and
// reports failure instead, so a closed outbound channel terminates the
// loop rather than crashing the process.
func trySend(ctx context.Context, out chan<- Result, result Result) (sent bool) {
	defer func() {
		if recover() != nil {
			sent = false
		}
	}()

	select {
	case out <- result:
		return true
	case <-ctx.Done():
		return false
	}
}

// safeClose closes out, tolerating the case where it was already
// closed (e.g. by a concurrent shutdown path in tests).
func safeClose(out chan<- Result) {
	defer func() { recover() }()
	close(out)
}
