// Package stage implements the chunk cache and in-flight handle ring used
// by the prefetch pipeline (spec.md §4.3): a process-private staging buffer
// of Cmax*S buckets plus 2*Cmax handle slots, two per chunk index so a
// straddling chunk's pair of sub-fetches can be tracked independently.
//
// The ring-of-N-reusable-slots shape is grounded on the teacher's
// internal/genring package: genring.Ring rotated *generations* (arenas) on
// a fixed-size ring and freed the one falling out of the window before
// reusing its slot. Here the "resource" held per slot is an in-flight fetch
// handle rather than an arena generation, and there is no TTL — rotation
// is simply "used once per FindOrPut call, then drained" per spec.md §4.3.
//
// © 2025 ridgeline-systems authors. MIT License.
package stage

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/ridgeline-systems/dtable/internal/addr"
	"github.com/ridgeline-systems/dtable/internal/arena"
	"github.com/ridgeline-systems/dtable/internal/transport"
)

// Pipeline owns one process's staging buffer and handle slot ring. It is
// not safe for concurrent use by multiple goroutines within a process —
// per spec.md §5, wrapping FindOrPut in a per-process lock would be
// required for that, but is out of scope.
type Pipeline struct {
	tr   transport.Transport
	geom addr.Geometry

	s    uint64 // chunk size
	cmax uint64 // max probe chunks

	ar      *arena.Arena
	staging []uint64 // len == cmax*s, arena-backed, starts on a cache-line boundary

	handles []transport.Handle // len == 2*cmax; nil == idle
}

// New allocates a staging buffer of cmax*s buckets and 2*cmax idle handle
// slots. s must be <= geom.B (enforced by the caller, pkg/dtable/config.go)
// so that every chunk touches at most two shards.
func New(tr transport.Transport, geom addr.Geometry, s, cmax uint64) *Pipeline {
	ar := arena.New()
	// Over-allocate by one cache line and start the staging buffer on the
	// first 64-byte boundary inside the allocation.
	const cacheLine = 64 // bytes
	n := int(cmax * s)
	raw := arena.MakeSlice[uint64](ar, n+cacheLine/8)
	off := int((cacheLine-uintptr(unsafe.Pointer(&raw[0]))%cacheLine)%cacheLine) / 8
	return &Pipeline{
		tr:      tr,
		geom:    geom,
		s:       s,
		cmax:    cmax,
		ar:      ar,
		staging: raw[off : off+n : off+n],
		handles: make([]transport.Handle, 2*cmax),
	}
}

// Close releases the staging buffer. The caller must have drained all
// handles first (Drain), matching spec.md's invariant 5.
func (p *Pipeline) Close() {
	p.ar.Free()
	p.staging = nil
}

// Chunk returns the staging slice for chunk n: S buckets, valid only after
// a successful Wait(n).
func (p *Pipeline) Chunk(n uint64) []uint64 {
	return p.staging[n*p.s : (n+1)*p.s]
}

// Issue starts the fetch(es) for chunk n of the probe sequence starting at
// hash h, splitting the fetch across two shards if the chunk straddles a
// shard boundary (spec.md §4.2/§4.3). Depth-1 lookahead means Issue(n+1) is
// called while chunk n is still being scanned; Issue(0) is called up front.
func (p *Pipeline) Issue(ctx context.Context, h, n uint64) error {
	base := h + n*p.s
	dst := p.Chunk(n)
	slot0, slot1 := 2*n, 2*n+1

	if p.geom.Straddles(p.geom.Wrap(base), p.s) {
		split := p.geom.SplitSizes(p.geom.Wrap(base), p.s)

		hdl0, err := p.tr.FetchNB(ctx, dst[:split.Size1], base, split.Size1)
		if err != nil {
			return fmt.Errorf("stage: issue chunk %d (part 1): %w", n, err)
		}
		p.handles[slot0] = hdl0

		hdl1, err := p.tr.FetchNB(ctx, dst[split.Size1:], base+split.Size1, split.Size2)
		if err != nil {
			return fmt.Errorf("stage: issue chunk %d (part 2): %w", n, err)
		}
		p.handles[slot1] = hdl1
		return nil
	}

	hdl0, err := p.tr.FetchNB(ctx, dst, base, p.s)
	if err != nil {
		return fmt.Errorf("stage: issue chunk %d: %w", n, err)
	}
	p.handles[slot0] = hdl0
	p.handles[slot1] = nil
	return nil
}

// Wait blocks until both of chunk n's handle slots have completed (the
// second may have been idle, e.g. a non-straddling chunk) and clears them,
// making the slots available for their next use.
func (p *Pipeline) Wait(ctx context.Context, n uint64) error {
	for _, slot := range [2]uint64{2 * n, 2*n + 1} {
		h := p.handles[slot]
		if h == nil {
			continue
		}
		if err := p.tr.Wait(ctx, h); err != nil {
			return fmt.Errorf("stage: wait chunk %d slot %d: %w", n, slot%2, err)
		}
		p.handles[slot] = nil
	}
	return nil
}

// Drain waits on every still-outstanding handle across all 2*cmax slots.
// Called once at the end of FindOrPut (the spec's preferred drain-on-return
// design, resolving the "handle-slot defensive drain" open question) and
// again at Close(), so that "between calls, all slots are idle" holds
// unconditionally.
func (p *Pipeline) Drain(ctx context.Context) error {
	for slot, h := range p.handles {
		if h == nil {
			continue
		}
		if err := p.tr.Wait(ctx, h); err != nil {
			return fmt.Errorf("stage: drain slot %d: %w", slot, err)
		}
		p.handles[slot] = nil
	}
	return nil
}
