package dtable

// hash.go exposes the pluggable Hasher the core consumes as a pure
// u64 -> u64 mapping (spec.md §6). The core never inspects its
// construction; DefaultHasher is provided purely for convenience, the way
// the original UPC program shipped its own hash() alongside, but outside,
// the find-or-put algorithm.
//
// © 2025 ridgeline-systems authors. MIT License.

import (
	"github.com/cespare/xxhash/v2"

	"github.com/ridgeline-systems/dtable/internal/probe"
	"github.com/ridgeline-systems/dtable/internal/unsafehelpers"
)

// Hasher maps a masked 63-bit payload to a table-wide hash. Implementations
// must be pure, deterministic, and exhibit good avalanche behaviour.
type Hasher = probe.Hasher

// DefaultHasher hashes the 8 in-memory (native byte order) bytes of the masked payload with
// xxhash (already present in this module's dependency graph via the
// Prometheus/zap ecosystem's transitive requirements in the teacher repo;
// promoted here to a direct, load-bearing use). xxhash's avalanche
// behaviour over small fixed-size inputs is well studied and far cheaper
// than a cryptographic hash, matching the "pure mapping with avalanche
// properties" requirement of spec.md §6.
func DefaultHasher(v uint64) uint64 {
	return xxhash.Sum64(unsafehelpers.Uint64Bytes(&v))
}
