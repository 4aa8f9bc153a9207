// Package parallel provides a generic worker pool for parallel task
// execution with order-preserving results. Dump files are analyzed
// independently, but the aggregation fold requires results in a stable
// caller-chosen order, so results always come back indexed by input.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// PoolConfig configures the worker pool behavior.
type PoolConfig struct {
	// MaxWorkers is the maximum number of concurrent workers.
	// Default: min(runtime.NumCPU(), 8)
	MaxWorkers int

	// Timeout is the maximum time for the entire operation.
	// Default: 0 (no timeout)
	Timeout time.Duration
}

// DefaultPoolConfig returns a default pool configuration.
func DefaultPoolConfig() PoolConfig {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8 // cap to avoid excessive overhead
	}
	if workers < 2 {
		workers = 2
	}
	return PoolConfig{
		MaxWorkers: workers,
	}
}

// WithWorkers returns a new config with the specified number of workers.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// WithTimeout returns a new config with the specified timeout.
func (c PoolConfig) WithTimeout(d time.Duration) PoolConfig {
	c.Timeout = d
	return c
}

// TaskResult holds the result of one task execution.
type TaskResult[T any, R any] struct {
	Input  T
	Result R
	Err    error
}

// WorkerPool runs tasks concurrently while reporting results in input
// order.
type WorkerPool[T any, R any] struct {
	config PoolConfig
}

// NewWorkerPool creates a new worker pool with the given configuration.
func NewWorkerPool[T any, R any](config PoolConfig) *WorkerPool[T, R] {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultPoolConfig().MaxWorkers
	}
	return &WorkerPool[T, R]{config: config}
}

// Execute runs fn over all inputs in parallel. The returned slice has one
// entry per input, at the input's index. If the context is cancelled,
// unstarted tasks carry the context error as their result.
func (p *WorkerPool[T, R]) Execute(ctx context.Context, inputs []T, fn func(ctx context.Context, input T) (R, error)) []TaskResult[T, R] {
	if len(inputs) == 0 {
		return nil
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	results := make([]TaskResult[T, R], len(inputs))
	taskCh := make(chan int)

	var wg sync.WaitGroup
	numWorkers := p.config.MaxWorkers
	if numWorkers > len(inputs) {
		numWorkers = len(inputs)
	}

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range taskCh {
				input := inputs[idx]
				result, err := fn(ctx, input)
				results[idx] = TaskResult[T, R]{Input: input, Result: result, Err: err}
			}
		}()
	}

	submitted := make([]bool, len(inputs))
submit:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break submit
		case taskCh <- i:
			submitted[i] = true
		}
	}
	close(taskCh)
	wg.Wait()

	// Mark tasks that never ran with the context error.
	if err := ctx.Err(); err != nil {
		for i := range inputs {
			if !submitted[i] {
				results[i] = TaskResult[T, R]{Input: inputs[i], Err: err}
			}
		}
	}

	return results
}
