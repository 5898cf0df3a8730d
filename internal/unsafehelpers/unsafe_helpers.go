// Package unsafehelpers centralises all unavoidable usage of the `unsafe`
// standard-library package so that the rest of this module stays clean and
// easy to audit. Every helper documents clear pre-/post-conditions.
//
// ⚠️ DISCLAIMER These helpers deliberately break the Go memory-safety model
// for the sake of zero-allocation conversions. Use ONLY inside this
// repository; they are not part of the public API and may change without
// notice.
//
// All functions are go:linkname-free, cgo-free and pure Go.
//
// © 2025 ridgeline-systems authors. MIT License.
package unsafehelpers

import "unsafe"

/* -------------------------------------------------------------------------
   1. Zero-copy uint64 <-> []byte conversions (used by the default Hasher)
   ------------------------------------------------------------------------- */

// Uint64Bytes returns an 8-byte view of v without allocating, laid out
// exactly as the architecture stores it in memory (native byte order,
// little-endian on amd64 and arm64). Used by
// pkg/dtable's default Hasher to feed a payload into xxhash without an
// intermediate encoding/binary allocation on the hot path.
func Uint64Bytes(v *uint64) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), 8)
}

/* -------------------------------------------------------------------------
   2. Power-of-two check (used by pkg/dtable/config.go's validation)
   ------------------------------------------------------------------------- */

// IsPowerOfTwo returns true if x is a power of two (exactly one bit set).
// Used by pkg/dtable/config.go to check the block size B, where a
// non-power-of-two value only triggers a warning. Takes uint64 rather than uintptr so the
// check is exact on 32-bit platforms too, where B can exceed 2^32-1.
func IsPowerOfTwo(x uint64) bool {
	return x != 0 && (x&(x-1)) == 0
}
