// Package addr implements the pure arithmetic that maps a logical bucket
// index in the shared table to a (shard, offset) pair and determines whether
// a probe chunk straddles two shards.
//
// The table is partitioned into contiguous blocks of length B (as opposed to
// round-robin striping) so that any chunk of length S <= B touches at most
// two shards. See original_source/htable.h's HTABLE_BLOCK / HTABLE_THREAD /
// HTABLE_ADDR macros, which this package generalizes from a compile-time
// THREADS/HTABLE_BLOCK_SIZE pair to runtime T/B parameters.
//
// © 2025 ridgeline-systems authors. MIT License.
package addr

// Geometry bundles the two runtime constants that determine the shared
// table's layout: T shards of B buckets each. It is immutable once
// constructed and is expected to be validated once at Table construction.
type Geometry struct {
	T uint64 // number of shards (processes)
	B uint64 // buckets per shard (block size)
}

// NewGeometry validates T and B and returns a Geometry. T and B must both be
// positive; the S <= B constraint is checked separately by callers that know
// the chunk size (this package has no opinion on S).
func NewGeometry(t, b uint64) Geometry {
	if t == 0 {
		panic("addr: T must be > 0")
	}
	if b == 0 {
		panic("addr: B must be > 0")
	}
	return Geometry{T: t, B: b}
}

// Capacity returns the total number of buckets T*B in the shared table.
func (g Geometry) Capacity() uint64 {
	return g.T * g.B
}

// Wrap reduces a logical index into [0, T*B) modulo the table capacity. The
// global address space wraps on overflow of h + i*S + j, per spec.
func (g Geometry) Wrap(a uint64) uint64 {
	return a % g.Capacity()
}

// Shard returns the owning shard of logical bucket index a (already wrapped
// by the caller if necessary).
func (g Geometry) Shard(a uint64) uint64 {
	return a / g.B
}

// Offset returns the within-shard offset of logical bucket index a.
func (g Geometry) Offset(a uint64) uint64 {
	return a % g.B
}

// Straddles reports whether a chunk of length s starting at logical index a
// crosses a shard boundary, i.e. whether its first and last bucket have
// different owners. Equivalent to offset(a) > B - s.
func (g Geometry) Straddles(a, s uint64) bool {
	return g.Offset(a) > g.B-s
}

// Split describes how a straddling chunk is divided between its two owning
// shards. Size1 buckets land on Shard(a); Size2 = s - Size1 land on the next
// shard, wrapping around T if necessary.
type Split struct {
	Size1 uint64
	Size2 uint64
}

// SplitSizes computes the two sub-fetch sizes for a chunk of length s
// starting at logical index a that straddles a shard boundary. Callers must
// first check Straddles; calling this on a non-straddling chunk still
// produces a mathematically valid (but meaningless) split.
func (g Geometry) SplitSizes(a, s uint64) Split {
	size1 := g.B - g.Offset(a)
	return Split{Size1: size1, Size2: s - size1}
}
