package dynamo

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelFor runs fn(ctx, i) for i in [0, n) on at most workers
// goroutines. The first error cancels the shared context and is returned.
func ParallelFor(ctx context.Context, n, workers int, fn func(ctx context.Context, i int) error) error {
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		idx := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, idx)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Collect evaluates fn over items in parallel and returns the results in
// input order together with the per-item errors. Item failures do not
// stop the other items; only context cancellation does.
func Collect[T, R any](ctx context.Context, items []T, workers int, fn func(ctx context.Context, item T) (R, error)) ([]R, []error, error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))
	err := ParallelFor(ctx, len(items), workers, func(ctx context.Context, i int) error {
		results[i], errs[i] = fn(ctx, items[i])
		return nil
	})
	return results, errs, err
}
