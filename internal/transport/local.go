package transport

// local.go implements LocalTransport, the in-process reference Transport
// used by tests and benchmarks. It models
// the T logical processes as stripes of one big atomic bucket array —
// there is no real network, but the Handle/FetchNB/Wait split is preserved
// faithfully so that code written against Transport exercises the same
// control flow it would against a production PGAS runtime.
//
// Concurrency model: each bucket is a sync/atomic-backed uint64, matching
// the teacher's own choice of sync/atomic for shard-local counters
// (pkg/cache.go). FetchNB optionally emulates network latency so that
// benchmarks can observe the effect of the depth-1 prefetch pipeline; with
// zero latency every fetch "completes" synchronously and Wait is a no-op.
//
// © 2025 ridgeline-systems authors. MIT License.

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ridgeline-systems/dtable/internal/addr"
	"go.uber.org/zap"
)

// localHandle tracks one outstanding fetch. The fetch is always copied
// eagerly by FetchNB. When latency is zero done is already true; otherwise
// a timer flips done once the simulated latency has elapsed.
type localHandle struct {
	done atomic.Bool
}

func (h *localHandle) Done() bool { return h.done.Load() }

// LocalTransport is an in-process Transport over a single contiguous
// []atomic.Uint64 array, logically partitioned into T blocks of B buckets
// per spec.md §3 ("blocked layout ... contiguous blocks of length B").
type LocalTransport struct {
	geom    addr.Geometry
	buckets []atomic.Uint64
	latency time.Duration // simulated round-trip latency per fetch, 0 = synchronous
	logger  *zap.Logger
}

// NewLocalTransport allocates a zero-initialized shared table of geom.Capacity()
// buckets. latency, when non-zero, is applied to every FetchNB to emulate
// remote-memory round trips for benchmarking the prefetch pipeline; pass 0
// for deterministic, synchronous tests.
func NewLocalTransport(geom addr.Geometry, latency time.Duration, logger *zap.Logger) *LocalTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalTransport{
		geom:    geom,
		buckets: make([]atomic.Uint64, geom.Capacity()),
		latency: latency,
		logger:  logger,
	}
}

// FetchNB copies nBuckets buckets starting at src into dst. The copy is
// performed inline (cheap — this is local memory); when latency > 0 the
// Handle only reports Done after the simulated delay elapses, and Wait
// blocks on that timer so that callers experience realistic pipelining.
func (t *LocalTransport) FetchNB(ctx context.Context, dst []uint64, src uint64, nBuckets uint64) (Handle, error) {
	if uint64(len(dst)) < nBuckets {
		return nil, ErrFault
	}
	h := &localHandle{}
	for i := uint64(0); i < nBuckets; i++ {
		dst[i] = t.buckets[(src+i)%t.geom.Capacity()].Load()
	}
	if t.latency <= 0 {
		h.done.Store(true)
		return h, nil
	}
	time.AfterFunc(t.latency, func() { h.done.Store(true) })
	return h, nil
}

// Wait blocks until h reports completion or ctx is done.
func (t *LocalTransport) Wait(ctx context.Context, h Handle) error {
	lh, ok := h.(*localHandle)
	if !ok || lh == nil {
		return nil
	}
	for !lh.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			time.Sleep(time.Microsecond)
		}
	}
	return nil
}

// CAS performs an atomic compare-and-swap on the bucket at addr, always
// returning the word actually present.
func (t *LocalTransport) CAS(ctx context.Context, a uint64, expected, desired uint64) (uint64, error) {
	idx := a % t.geom.Capacity()
	bucket := &t.buckets[idx]
	if bucket.CompareAndSwap(expected, desired) {
		return expected, nil
	}
	return bucket.Load(), nil
}

// OwnerOf returns the owning shard of logical address addr.
func (t *LocalTransport) OwnerOf(a uint64) uint64 { return t.geom.Shard(t.geom.Wrap(a)) }

// OffsetInShard returns the within-shard offset of logical address addr.
func (t *LocalTransport) OffsetInShard(a uint64) uint64 { return t.geom.Offset(t.geom.Wrap(a)) }

// Barrier is a no-op for LocalTransport: there is only one process address
// space, so there is nothing to rendezvous with. Kept as a method (rather
// than omitted) so LocalTransport satisfies Transport unconditionally.
func (t *LocalTransport) Barrier(ctx context.Context) error { return nil }

// RawBucket returns the current value of the bucket at logical address a,
// bypassing the fetch/wait pipeline. Exposed for tests and the debug CLI
// only — never used by internal/probe.
func (t *LocalTransport) RawBucket(a uint64) uint64 {
	return t.buckets[a%t.geom.Capacity()].Load()
}
