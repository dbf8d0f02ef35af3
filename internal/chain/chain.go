// Package chain runs alternative lookups in order until one produces
// something.
package chain

import (
	"context"
)

// Strategy produces a result. ok=false, or a non-nil error, means "try the
// next one".
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, bool, error)
}

// Attempt describes one strategy that did not win.
type Attempt struct {
	Name string
	Err  error
}

// First runs strategies sequentially and returns the first ok result with
// the winning strategy's name. Strategies that fail or come back empty are
// reported through skipped. It stops early only when ctx is done.
func First[T any](ctx context.Context, strategies []Strategy[T], skipped func(Attempt)) (T, string, error) {
	var zero T
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}

		v, ok, err := s.Run(ctx)
		if err == nil && ok {
			return v, s.Name, nil
		}
		if skipped != nil {
			skipped(Attempt{Name: s.Name, Err: err})
		}
	}
	if err := ctx.Err(); err != nil {
		return zero, "", err
	}
	return zero, "", nil
}
