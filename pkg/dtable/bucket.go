package dtable

// bucket.go re-exports the bit-exact bucket encoding (spec.md §3/§6) at the
// public API boundary, since callers inspecting a raw bucket word (e.g. the
// inspector CLI reading via a debug Transport accessor) need it without
// reaching into internal/probe.

import "github.com/ridgeline-systems/dtable/internal/probe"

const (
	// OccupiedBit is set in bit 63 of a bucket word that holds a payload.
	OccupiedBit = probe.OccupiedBit
	// PayloadMask isolates the low 63 payload bits of a bucket word.
	PayloadMask = probe.PayloadMask
)

// Mask strips bit 63 from a caller-supplied value.
func Mask(v uint64) uint64 { return probe.Mask(v) }

// IsOccupied reports whether a bucket word's occupancy flag is set.
func IsOccupied(word uint64) bool { return probe.IsOccupied(word) }

// Payload extracts the 63-bit payload from a bucket word.
func Payload(word uint64) uint64 { return probe.Payload(word) }

// Encode combines a masked payload with the occupancy flag, producing the
// word a successful CAS would write into the table.
func Encode(payload uint64) uint64 { return probe.Encode(payload) }
