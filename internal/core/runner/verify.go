package runner

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/physics2d/internal/core/systems/physics"
)

var ErrNonDeterministic = errors.New("replicas diverged")

// BuildFunc creates an independent world for one replica.
type BuildFunc func() (*physics.World, error)

// Verify builds the same world several times, steps every replica
// concurrently for the same number of steps and compares the final
// snapshot hashes. Worlds share no state, so equal inputs must hash equally.
func Verify(ctx context.Context, build BuildFunc, replicas int, steps uint64, dt float64) (uint64, error) {
	if replicas < 1 {
		replicas = 1
	}
	hashes := make([]uint64, replicas)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < replicas; i++ {
		g.Go(func() error {
			w, err := build()
			if err != nil {
				return fmt.Errorf("replica %d: %w", i, err)
			}
			for n := uint64(0); n < steps; n++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := w.Step(dt); err != nil {
					return fmt.Errorf("replica %d step %d: %w", i, n, err)
				}
			}
			hashes[i] = w.Snapshot().Hash()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	for i, h := range hashes[1:] {
		if h != hashes[0] {
			return 0, fmt.Errorf("%w: replica %d hash %x, replica 0 hash %x", ErrNonDeterministic, i+1, h, hashes[0])
		}
	}
	return hashes[0], nil
}
