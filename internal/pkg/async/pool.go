// Package async provides a small fixed-size worker pool for fanning out
// independent units of work, used by the rollup builder to process several
// days concurrently.
package async

import (
	"context"
	"sync"
)

// Task is one named unit of work.
type Task struct {
	Name string
	Run  func() error
}

// Result pairs a task name with its outcome.
type Result struct {
	Name string
	Err  error
}

// Pool runs tasks across a fixed number of workers.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given worker count; counts below one are
// clamped to one.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Run executes all tasks and returns one result per task, keyed by name.
// Cancelling the context stops the dispatch of not-yet-started tasks;
// in-flight tasks run to completion.
func (p *Pool) Run(ctx context.Context, tasks []Task) map[string]Result {
	taskCh := make(chan Task)
	resultCh := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				resultCh <- Result{Name: task.Name, Err: task.Run()}
			}
		}()
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				resultCh <- Result{Name: task.Name, Err: ctx.Err()}
			}
		}
	}()

	results := make(map[string]Result, len(tasks))
	for i := 0; i < len(tasks); i++ {
		r := <-resultCh
		results[r.Name] = r
	}

	wg.Wait()
	return results
}
