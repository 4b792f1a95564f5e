package cutout

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// parallelRows 把 [0, rows) 切成若干段并发执行 fn(lo, hi)
func parallelRows(ctx context.Context, rows int, fn func(lo, hi int)) error {
	workers := min(runtime.GOMAXPROCS(0), rows)
	if workers <= 1 {
		fn(0, rows)
		return ctx.Err()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	band := (rows + workers - 1) / workers
	for lo := 0; lo < rows; lo += band {
		lo, hi := lo, min(lo+band, rows)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(lo, hi)
			return nil
		})
	}
	return g.Wait()
}
