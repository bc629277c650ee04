package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrulesiot/myrulesiot/action"
)

type reducerFunc func(State, action.Action) (State, Result)

func (f reducerFunc) Reduce(state State, act action.Action) (State, Result) {
	return f(state, act)
}

func TestLoopDeliversResultsInOrderAndStopsOnFinal(t *testing.T) {
	t.Parallel()

	reducer := reducerFunc(func(state State, act action.Action) (State, Result) {
		if act.Topic == "exit" {
			state.Status = Status{Phase: Final, Final: Normal}
			return state, Result{}
		}
		return state, Result{Messages: []action.Message{action.NewMessage(act.Topic, act.Payload)}}
	})

	loop := NewLoop(reducer)
	in := make(chan action.Action, 3)
	out := make(chan Result, 3)

	in <- action.New("a", []byte("1"))
	in <- action.New("b", []byte("2"))
	in <- action.New("exit", nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan State, 1)
	go func() { done <- loop.Run(ctx, NewState(), in, out) }()

	first := <-out
	second := <-out
	assert.Equal(t, "a", first.Messages[0].Topic)
	assert.Equal(t, "b", second.Messages[0].Topic)

	select {
	case final := <-done:
		assert.True(t, final.Status.IsFinal())
	case <-ctx.Done():
		require.Fail(t, "loop did not terminate on Final state")
	}

	third := <-out
	assert.Empty(t, third.Messages, "the exit action's result is still delivered")

	_, open := <-out
	assert.False(t, open, "out must be closed once the loop reaches Final")
}

func TestLoopStopsWhenInboundChannelCloses(t *testing.T) {
	t.Parallel()

	reducer := reducerFunc(func(state State, act action.Action) (State, Result) {
		return state, Result{}
	})

	loop := NewLoop(reducer)
	in := make(chan action.Action)
	out := make(chan Result)
	close(in)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	final := loop.Run(ctx, NewState(), in, out)
	assert.False(t, final.Status.IsFinal())
}

func TestLoopStopsWhenContextCancelled(t *testing.T) {
	t.Parallel()

	reducer := reducerFunc(func(state State, act action.Action) (State, Result) {
		return state, Result{}
	})

	loop := NewLoop(reducer)
	in := make(chan action.Action)
	out := make(chan Result)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan State, 1)
	go func() { done <- loop.Run(ctx, NewState(), in, out) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "loop did not terminate on context cancellation")
	}
}

func TestLoopDoesNotPanicWhenOutAlreadyClosed(t *testing.T) {
	t.Parallel()

	reducer := reducerFunc(func(state State, act action.Action) (State, Result) {
		return state, Result{Messages: []action.Message{action.NewMessage("t", nil)}}
	})

	loop := NewLoop(reducer)
	in := make(chan action.Action, 1)
	out := make(chan Result)
	close(out)
	in <- action.New("t", nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NotPanics(t, func() {
		loop.Run(ctx, NewState(), in, out)
	})
}
