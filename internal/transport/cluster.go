package transport

// cluster.go provides RunOnAllShards, a small harness that fans a function
// out across T simulated processes and waits for all of them, propagating
// the first error. It stands in for the cluster bootstrap / process launch
// primitives spec.md treats as an external collaborator (§1): real
// deployments would spawn T OS processes under a PGAS runtime, but an
// in-process setup needs *some* way to drive a LocalTransport from T
// logical callers, so this package grounds that in
// golang.org/x/sync/errgroup the way the teacher used x/sync for structured
// concurrency (pkg/loader.go's singleflight.Group) rather than hand-rolling
// a WaitGroup + error channel.
//
// © 2025 ridgeline-systems authors. MIT License.

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunOnAllShards calls fn once per shard id in [0, t), concurrently, and
// returns the first non-nil error (if any), after all goroutines have
// returned. ctx cancellation propagates to every call via errgroup.
func RunOnAllShards(ctx context.Context, t uint64, fn func(ctx context.Context, shard uint64) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for shard := uint64(0); shard < t; shard++ {
		shard := shard
		g.Go(func() error {
			return fn(gctx, shard)
		})
	}
	return g.Wait()
}
