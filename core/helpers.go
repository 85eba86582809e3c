package orchestration

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

var errWorkerPanicked = errors.New("worker panicked")

type workerRun func(context.Context) error

// panicSafeNamedWorker wraps run so that a panic ends only this run. The
// panic is logged with its stack and returned as an error wrapping
// errWorkerPanicked.
func panicSafeNamedWorker(name string, run workerRun) workerRun {
	return func(ctx context.Context) (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.Error("worker panicked", "worker", name, "panic", fmt.Sprint(recovered), "stack", string(debug.Stack()))
				err = fmt.Errorf("%s: %w: %v", name, errWorkerPanicked, recovered)
			}
		}()

		if err := run(ctx); err != nil {
			return fmt.Errorf("%s worker failed: %w", name, err)
		}
		return nil
	}
}
