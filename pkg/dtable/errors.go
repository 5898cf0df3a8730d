package dtable

// errors.go enumerates the configuration-fault and transport-fault error
// taxonomy of spec.md §7. Capacity exhaustion (FULL) is not an error — it is
// a Result value (see table.go) — because it is caller-observable, expected
// behaviour, not a fault.
//
// © 2025 ridgeline-systems authors. MIT License.

import (
	"errors"
	"fmt"
)

var (
	// ErrChunkTooLarge is returned by New when S > B, violating the static
	// invariant that a chunk touches at most two shards.
	ErrChunkTooLarge = errors.New("dtable: chunk size S must be <= block size B")

	// ErrInvalidShardCount is returned by New when T is zero.
	ErrInvalidShardCount = errors.New("dtable: shard count T must be > 0")

	// ErrInvalidCapacity is returned by New when B, S, or Cmax is zero.
	ErrInvalidCapacity = errors.New("dtable: B, S and Cmax must all be > 0")

	// ErrTransportFault wraps any fatal error surfaced by the Transport
	// during FindOrPut. The core has no recovery discipline for a partial
	// fault (spec.md §7.3); the caller is expected to tear the process down.
	ErrTransportFault = errors.New("dtable: transport fault")
)

// wrapTransportFault adapts an internal/transport error into the package's
// public error taxonomy without leaking the internal package in error
// messages seen by callers who don't import it.
func wrapTransportFault(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrTransportFault, err)
}
