package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Sweep runs cfg once per seed cfg.Seed, cfg.Seed+1, ... with at most
// parallel runs at a time (unbounded when parallel <= 0). Every run stays
// single-threaded. done, if set, is called after each finished run and must
// be safe for concurrent use.
func Sweep(ctx context.Context, cfg Config, runs, parallel int, done func(*Result)) ([]*Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}

	results := make([]*Result, runs)
	for i := 0; i < runs; i++ {
		i := i
		c := cfg
		c.Seed = cfg.Seed + uint64(i)
		g.Go(func() error {
			s, err := New(c)
			if err != nil {
				return err
			}
			r, err := s.Run(ctx)
			if err != nil {
				return err
			}
			results[i] = r
			if done != nil {
				done(r)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
