// Package parallel runs independent training jobs on a bounded pool of
// goroutines.
//
// Cross-validation folds, search candidates and forest trees are all
// independent units of work. Results are always assembled by item index, so
// callers see the same output whatever order the workers finish in.
package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// WorkerPool bounds the number of goroutines used by the Process functions.
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool. A non-positive count means one
// worker per CPU.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// NumWorkers returns the pool size.
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// ProcessIndexedContext runs worker over items and returns results in item
// order. Once any worker fails or ctx is cancelled, remaining items are
// skipped and the error of the lowest failing index is returned.
func ProcessIndexedContext[T, R any](
	ctx context.Context,
	wp *WorkerPool,
	items []T,
	worker func(context.Context, int, T) (R, error),
) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if err := wp.ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(wp.ctx, cancel)
	defer stop()

	itemCh := make(chan indexedItem[T], len(items))
	resultCh := make(chan indexedResult[R], len(items))

	workers := wp.numWorkers
	if workers > len(items) {
		workers = len(items)
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				if ctx.Err() != nil {
					resultCh <- indexedResult[R]{index: item.index, err: ctx.Err()}
					continue
				}
				result, err := worker(ctx, item.index, item.value)
				if err != nil {
					cancel()
				}
				resultCh <- indexedResult[R]{index: item.index, result: result, err: err}
			}
		}()
	}

	for i, item := range items {
		itemCh <- indexedItem[T]{index: i, value: item}
	}
	close(itemCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]R, len(items))
	errs := make([]error, len(items))
	for result := range resultCh {
		results[result.index] = result.result
		errs[result.index] = result.err
	}

	// A real failure outranks the cancellations it caused.
	var cancelled error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, context.Canceled) {
			return nil, err
		}
		if cancelled == nil {
			cancelled = err
		}
	}
	if cancelled != nil {
		return nil, cancelled
	}
	return results, nil
}

// Close shuts down the worker pool. Work already running finishes; later
// items are skipped.
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}

// indexedResult holds a result with its index
type indexedResult[R any] struct {
	index  int
	result R
	err    error
}
