package reader

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/integrations/pkg/result"
)

// maxConcurrentReads bounds the reads one fan-out issues at a time.
const maxConcurrentReads = 8

// task is one read in a fan-out.
type task[T any] func(ctx context.Context) result.Result[T]

// gather runs tasks concurrently and folds their results in task order.
//
// The first failure in task order is returned. A failing task cancels only
// the tasks declared after it, which are skipped if they have not started,
// so an earlier task always runs to completion and its failure wins.
func gather[T any](ctx context.Context, tasks []task[T]) result.Result[[]T] {
	results := make([]result.Result[T], len(tasks))
	ctxs := make([]context.Context, len(tasks))
	cancels := make([]context.CancelFunc, len(tasks))
	for i := range tasks {
		ctxs[i], cancels[i] = context.WithCancel(ctx)
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	var mu sync.Mutex
	firstFailed := len(tasks)
	fail := func(i int) {
		mu.Lock()
		defer mu.Unlock()
		if i >= firstFailed {
			return
		}
		firstFailed = i
		for _, cancel := range cancels[i+1:] {
			cancel()
		}
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentReads)
	for i, run := range tasks {
		g.Go(func() error {
			if err := ctxs[i].Err(); err != nil {
				results[i] = result.Err[T](err)
				return nil
			}
			results[i] = run(ctxs[i])
			if !results[i].IsOk() {
				fail(i)
			}
			return nil
		})
	}
	_ = g.Wait()

	return result.Fold(results)
}
