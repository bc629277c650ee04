// Package tasks supervises the independent concurrent tasks the
// entrypoint wires together: the MQTT subscriber, the MQTT publisher,
// the timer source, and the runtime loop. Each is wrapped as a Task and
// started together; the first one to fail determines the process's
// fate.
package tasks

import (
	"context"
	"sync"
)

// Task is a named runnable background job.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner starts a set of tasks concurrently and waits for them to
// finish, or for one of them to fail.
type Runner struct {
	tasks []Task
}

// NewRunner creates an empty Runner.
func NewRunner() *Runner { return &Runner{} }

// Add registers a task to run.
func (r *Runner) Add(task Task) { r.tasks = append(r.tasks, task) }

// Run starts every task and returns the first non-nil error any of
// them produces, or nil once ctx is cancelled and all tasks have
// returned.
func (r *Runner) Run(ctx context.Context) error {
	errCh := make(chan error, len(r.tasks))
	var wg sync.WaitGroup

	for _, task := range r.tasks {
		wg.Add(1)
		go func(task Task) {
			defer wg.Done()
			if err := task.Run(ctx); err != nil {
				errCh <- err
			}
		}(task)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	wg.Wait()
	return nil
}
