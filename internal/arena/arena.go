//go:build goexperiment.arenas
// +build goexperiment.arenas

// Package arena wraps Go's experimental arena package behind a tiny, stable
// surface: construct, allocate, free in bulk. It backs one allocation in
// this module: the per-process staging buffer (internal/stage), which is
// "allocated at init, never freed until teardown" per spec.md §3/§4.5, so
// arena's O(1) bulk-free on Close is exactly the right shape: nothing is
// ever freed piecemeal. The allocator itself does not align allocations;
// internal/stage aligns the staging buffer to a cache line.
//
// Concurrency
// -----------
// arena.Arena is *not* thread-safe. In this module each arena is owned by
// exactly one process-private structure (a stage.Pipeline), so no
// additional locking is added here.
//
// ⚠️ DISCLAIMER ----------------------------------------------
// Using arenas bypasses the garbage collector; ensure objects allocated
// inside never escape to the heap after Free() is called. In this module
// that is safe because staging buffers are snapshots only — never written
// back — and are discarded wholesale at Close().
// -------------------------------------------------------------
//
// © 2025 ridgeline-systems authors. MIT License.

package arena

import (
	"arena" // standard library experimental package
)

// Arena is a thin new-type wrapper that prevents external packages from
// directly depending on arena.Arena, giving us the freedom to switch to a
// different allocator if needed.
type Arena struct{ ar arena.Arena }

// New constructs an empty arena ready for allocations.
func New() *Arena {
	return &Arena{ar: *arena.NewArena()}
}

// Free releases all memory allocated in the arena. After the call, any
// pointer or slice previously returned from NewValue/MakeSlice is invalid.
func (a *Arena) Free() {
	a.ar.Free()
}

// NewValue allocates a zero-initialised T inside the arena and returns a
// pointer to it, valid until Free() on the arena.
func NewValue[T any](a *Arena) *T { return arena.New[T](&a.ar) }

// MakeSlice allocates a slice of length==cap==n inside the arena and
// returns it. The backing array is owned by the arena and released on
// Free().
func MakeSlice[T any](a *Arena, n int) []T { return arena.MakeSlice[T](&a.ar, n, n) }
