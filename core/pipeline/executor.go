// Package pipeline - Concurrent per-product stage execution
// Each per-product stage fans out across a worker pool and joins before
// the next stage, which makes every quote-level stage a barrier.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
)

// DefaultWorkers is used when no worker count is configured
const DefaultWorkers = 4

// ConcurrentExecutor runs one stage for every product in parallel
type ConcurrentExecutor struct {
	// Max concurrent workers
	maxWorkers int

	// Execution stats
	stats *ExecutionStats
}

// ExecutionStats tracks execution statistics
type ExecutionStats struct {
	Stages         int64
	Tasks          int64
	FailedTasks    int64
	MaxConcurrency int
	Elapsed        time.Duration
	mu             sync.Mutex
}

// ProductTask processes one product for one stage
type ProductTask func(ctx context.Context, index int) error

// NewConcurrentExecutor creates a new executor
func NewConcurrentExecutor(maxWorkers int) *ConcurrentExecutor {
	if maxWorkers <= 0 {
		maxWorkers = DefaultWorkers
	}
	return &ConcurrentExecutor{
		maxWorkers: maxWorkers,
		stats:      &ExecutionStats{},
	}
}

// Workers returns the pool size
func (e *ConcurrentExecutor) Workers() int {
	return e.maxWorkers
}

// ExecuteStage runs task for products 0..n-1 and waits for all of them.
// Failures are combined in product order, so the same input always
// reports the same error.
func (e *ConcurrentExecutor) ExecuteStage(ctx context.Context, n int, task ProductTask) error {
	if n == 0 {
		return nil
	}
	start := time.Now()
	atomic.AddInt64(&e.stats.Stages, 1)

	// Create worker pool
	workers := e.maxWorkers
	if n < workers {
		workers = n
	}

	e.stats.mu.Lock()
	if workers > e.stats.MaxConcurrency {
		e.stats.MaxConcurrency = workers
	}
	e.stats.mu.Unlock()

	// Channel for work items
	work := make(chan int, n)
	for i := 0; i < n; i++ {
		work <- i
	}
	close(work)

	// One slot per product keeps error order independent of scheduling
	errs := make([]error, n)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range work {
				if err := ctx.Err(); err != nil {
					errs[index] = err
					continue
				}
				atomic.AddInt64(&e.stats.Tasks, 1)
				if err := task(ctx, index); err != nil {
					atomic.AddInt64(&e.stats.FailedTasks, 1)
					errs[index] = err
				}
			}
		}()
	}
	wg.Wait()

	e.stats.mu.Lock()
	e.stats.Elapsed += time.Since(start)
	e.stats.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return multierr.Combine(errs...)
}

// GetStats returns a snapshot of execution stats
func (e *ConcurrentExecutor) GetStats() ExecutionStats {
	e.stats.mu.Lock()
	defer e.stats.mu.Unlock()
	return ExecutionStats{
		Stages:         atomic.LoadInt64(&e.stats.Stages),
		Tasks:          atomic.LoadInt64(&e.stats.Tasks),
		FailedTasks:    atomic.LoadInt64(&e.stats.FailedTasks),
		MaxConcurrency: e.stats.MaxConcurrency,
		Elapsed:        e.stats.Elapsed,
	}
}
