// Package taskrun runs a small set of independent named tasks concurrently
// and aggregates their errors. It is NOT used for source scraping — spec
// §4's rotation is deliberately sequential, one source at a time, to keep
// detection risk down — but it fits dispatch fan-out that carries no such
// risk, such as pushing one run-completion alert to every configured
// delivery channel at once.
package taskrun

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Task is one named unit of concurrent work.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Options configures RunAll.
type Options struct {
	// OnError is called for each failed task. If nil, the error is logged
	// via slog.Default().
	OnError func(taskName string, err error)
	// ReturnFirstError makes RunAll return the first task error it sees
	// after every task has finished, instead of swallowing it via OnError.
	ReturnFirstError bool
}

// RunAll starts every task in its own goroutine and waits for all of them
// to finish, regardless of individual failures.
func RunAll(ctx context.Context, tasks []Task, opts Options) error {
	if len(tasks) == 0 {
		return nil
	}

	onError := opts.OnError
	if onError == nil {
		onError = func(name string, err error) {
			slog.Default().Error("task failed", "task", name, "error", err)
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, t := range tasks {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := t.Run(ctx); err != nil {
				onError(t.Name, err)
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", t.Name, err)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if opts.ReturnFirstError {
		return firstErr
	}
	return nil
}
