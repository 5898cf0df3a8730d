package probe

// bucket.go defines the bit-exact bucket encoding from spec.md §3/§6: bit 63
// is the occupancy flag, bits 0-62 are the payload. An empty bucket is the
// all-zero word. Grounded on original_source/htable.h's HTABLE_MASK_DATA /
// HTABLE_MASK_OCCUPIED constants.

const (
	// OccupiedBit is set in bit 63 of a bucket word that holds a payload.
	OccupiedBit uint64 = 1 << 63
	// PayloadMask isolates the low 63 payload bits of a bucket word.
	PayloadMask uint64 = OccupiedBit - 1
)

// Mask strips bit 63 from a caller-supplied value. Supplying a value with
// bit 63 set is silently masked, not an error, to keep the fast path
// branch-free (spec.md §4.4 step 1).
func Mask(v uint64) uint64 { return v & PayloadMask }

// IsOccupied reports whether a bucket word's occupancy flag is set.
func IsOccupied(word uint64) bool { return word&OccupiedBit != 0 }

// Payload extracts the 63-bit payload from a bucket word.
func Payload(word uint64) uint64 { return word & PayloadMask }

// Encode combines a masked payload with the occupancy flag, producing the
// word a successful CAS writes into the table.
func Encode(payload uint64) uint64 { return Mask(payload) | OccupiedBit }
