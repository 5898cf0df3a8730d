// Package transport defines the narrow capability set the probe/CAS engine
// depends on to reach the shared table: non-blocking fetch, blocking wait,
// compare-and-swap, address-ownership queries, and a collective barrier.
//
// This is the *only* coupling surface between the core algorithm
// (internal/probe, internal/stage) and whatever actually moves bytes between
// processes — a production PGAS runtime, an in-process mock for tests
// (LocalTransport, this package), or a network-simulation transport for
// fault injection. The core is polymorphic over this interface and never
// assumes a particular implementation.
//
// © 2025 ridgeline-systems authors. MIT License.
package transport

import (
	"context"
	"errors"
)

// ErrFault is wrapped by any error a Transport implementation returns to
// signal a fatal, unrecoverable fault (lost peer, corrupted wire message,
// torn remote memory access). The core treats every non-nil error from a
// Transport method as fatal — it never attempts to infer which buckets were
// modified before giving up (spec §7.3).
var ErrFault = errors.New("transport: fault")

// Handle identifies an outstanding asynchronous fetch. It is opaque to
// everything except the Transport that issued it; the core only ever calls
// Wait on a Handle it was just given and otherwise treats it as a capability
// token with an unambiguous completion obligation.
type Handle interface {
	// Done reports whether the fetch has observably completed without
	// blocking. Used only for diagnostics; the core always calls Wait
	// before relying on the destination memory.
	Done() bool
}

// Transport is the entire coupling surface between the dedup table's
// algorithm and the remote-memory substrate that backs the shared table.
type Transport interface {
	// FetchNB initiates an asynchronous copy of nBuckets contiguous buckets
	// starting at the logical table index src into dst. It returns
	// immediately with a Handle; the destination must not be read until
	// Wait(handle) returns.
	FetchNB(ctx context.Context, dst []uint64, src uint64, nBuckets uint64) (Handle, error)

	// Wait blocks until the fetch identified by h has observably completed.
	// Subsequent reads of its destination see the fetched values.
	Wait(ctx context.Context, h Handle) error

	// CAS performs a strictly ordered, remote-capable 64-bit compare-and-swap
	// on the bucket at logical table index addr. It always returns the word
	// that was actually present; success is observed == expected.
	CAS(ctx context.Context, addr uint64, expected, desired uint64) (observed uint64, err error)

	// OwnerOf returns the shard that owns logical table index addr.
	OwnerOf(addr uint64) uint64

	// OffsetInShard returns the within-shard offset of logical table index addr.
	OffsetInShard(addr uint64) uint64

	// Barrier performs collective synchronization across all processes
	// participating in this transport. It is blocking but is confined to
	// context construction/teardown — never called from inside FindOrPut.
	Barrier(ctx context.Context) error
}
