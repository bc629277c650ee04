package engine

import (
	"sync"

	"github.com/myrulesiot/myrulesiot/action"
)

// SliceResult is a slice function's return value: a JSON merge patch
// to apply to info, and any messages to emit this step.
type SliceResult struct {
	State    map[string]any
	Messages []action.Message
}

// SliceFunc is a pure computation over the shared info document and
// the current action, forming one step of a pipeline invocation. It
// must be safe to call repeatedly and from a single goroutine; slice
// functions never block.
type SliceFunc func(info map[string]any, act action.Action) (SliceResult, error)

// Registry is a process-wide name -> SliceFunc map. It is built once
// at startup (NewRegistry, then Register calls) and is read-only once
// the runtime loop starts; lookups are O(1) expected.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]SliceFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]SliceFunc)}
}

// Register adds, or replaces, the slice function under name.
func (r *Registry) Register(name string, fn SliceFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Lookup returns the slice function registered under name, and
// whether it was found. A missing name is a non-fatal, per-invocation
// condition handled by the master as a system_error notification.
func (r *Registry) Lookup(name string) (SliceFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}
