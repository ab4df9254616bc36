package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes tasks concurrently and waits for all of them.
// At most limit tasks run at once; limit <= 0 means no limit. The returned
// error joins every task failure, each prefixed with the task name.
func RunParallel(ctx context.Context, tasks []Task, limit int) error {
	if len(tasks) == 0 {
		return nil
	}
	if limit <= 0 || limit > len(tasks) {
		limit = len(tasks)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs = make([]error, len(tasks))
		sem  = make(chan struct{}, limit)
	)

	for i, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				mu.Lock()
				errs[i] = fmt.Errorf("%s: %w", task.Name, ctx.Err())
				mu.Unlock()
				return
			}
			defer func() { <-sem }()

			if err := task.Func(ctx); err != nil {
				mu.Lock()
				errs[i] = fmt.Errorf("%s: %w", task.Name, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}
