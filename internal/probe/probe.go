// Package probe implements the bucket-level probe/CAS engine: linear
// probing over prefetched chunks, in-chunk scan, and CAS-based claim with
// double-check for concurrent inserts. This is the "45% of the core" piece
// per spec.md §2 and the only package that mutates the shared table.
//
// Grounded directly on original_source/htable.c's htable_find_or_put; the
// chunk-scan loop's shape (advance an index, inspect packed state bits,
// continue on certain outcomes) also borrows the hand-advance idiom from
// the teacher's internal/clockpro/clockpro.go:evictIfNeeded, repurposed
// here for probing instead of eviction — the eviction package itself was
// dropped (see DESIGN.md) since replacement policy is a spec non-goal.
//
// © 2025 ridgeline-systems authors. MIT License.
package probe

import (
	"context"
	"fmt"

	"github.com/ridgeline-systems/dtable/internal/addr"
	"github.com/ridgeline-systems/dtable/internal/stage"
	"github.com/ridgeline-systems/dtable/internal/transport"
)

// Result is the outcome of one FindOrPut call.
type Result uint8

const (
	// Full means value was absent and no empty slot was found within the
	// probe budget of Cmax*S buckets.
	Full Result = iota
	// Found means value was already present at call return.
	Found
	// Inserted means value was absent; this call placed it.
	Inserted
)

func (r Result) String() string {
	switch r {
	case Inserted:
		return "INSERTED"
	case Found:
		return "FOUND"
	case Full:
		return "FULL"
	default:
		return "UNKNOWN"
	}
}

// Stats reports how much work a FindOrPut call performed, for metrics.
type Stats struct {
	ChunksScanned uint64
	BucketsProbed uint64
}

// Hasher maps a masked 63-bit payload to a table-wide hash. It must be a
// pure, deterministic function with good avalanche properties; the core
// never inspects its construction (spec.md §6).
type Hasher func(uint64) uint64

// Engine bundles everything FindOrPut needs: the transport, table geometry,
// tuning constants, and the caller's staging pipeline. Engines are
// process-private — the same rules as Pipeline (internal/stage) apply: not
// safe for concurrent use by multiple goroutines within one process.
type Engine struct {
	Transport transport.Transport
	Geom      addr.Geometry
	Hash      Hasher
	S         uint64
	Cmax      uint64
}

// FindOrPut implements spec.md §4.4 exactly: mask, hash, prefetch chunk 0,
// then for each chunk issue the next chunk's prefetch, wait for the
// current chunk, and scan its S buckets for value or an empty slot,
// attempting a CAS on the first empty slot found. The pipeline is always
// drained before returning (the spec's preferred drain-on-return design,
// see DESIGN.md open-question 1), regardless of which branch returns.
func (e *Engine) FindOrPut(ctx context.Context, pipe *stage.Pipeline, value uint64) (Result, Stats, error) {
	var stats Stats

	v := Mask(value)
	h := e.Geom.Wrap(e.Hash(v))

	result, err := e.run(ctx, pipe, h, v, &stats)

	if drainErr := pipe.Drain(ctx); drainErr != nil && err == nil {
		err = drainErr
	}
	return result, stats, err
}

func (e *Engine) run(ctx context.Context, pipe *stage.Pipeline, h, v uint64, stats *Stats) (Result, error) {
	if err := pipe.Issue(ctx, h, 0); err != nil {
		return Full, fmt.Errorf("probe: issue chunk 0: %w", err)
	}

	for i := uint64(0); i < e.Cmax; i++ {
		if i+1 < e.Cmax {
			if err := pipe.Issue(ctx, h, i+1); err != nil {
				return Full, fmt.Errorf("probe: issue chunk %d: %w", i+1, err)
			}
		}

		if err := pipe.Wait(ctx, i); err != nil {
			return Full, fmt.Errorf("probe: wait chunk %d: %w", i, err)
		}
		stats.ChunksScanned++

		chunk := pipe.Chunk(i)
		for j := uint64(0); j < e.S; j++ {
			stats.BucketsProbed++
			slot := chunk[j]
			idx := e.Geom.Wrap(h + i*e.S + j)

			if !IsOccupied(slot) {
				observed, err := e.Transport.CAS(ctx, idx, slot, Encode(v))
				if err != nil {
					return Full, fmt.Errorf("probe: cas at %d: %w", idx, err)
				}
				if observed == slot {
					return Inserted, nil
				}
				if Payload(observed) == v {
					return Found, nil
				}
				continue
			}

			if Payload(slot) == v {
				return Found, nil
			}
		}
	}

	return Full, nil
}
