package dtable

// config.go defines the internal configuration object and the functional
// options passed to New. Mirrors the teacher's pkg/config.go: defaults are
// sensible, options only capture pointers to external objects (registry,
// logger), and the struct itself is never exposed — callers only influence
// behaviour through Option.
//
// © 2025 ridgeline-systems authors. MIT License.

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ridgeline-systems/dtable/internal/unsafehelpers"
)

// Reference tuning constants from spec.md §6.
const (
	DefaultChunkSize uint64 = 32      // S
	DefaultMaxChunks uint64 = 64      // Cmax
	DefaultBlockSize uint64 = 1 << 27 // B
)

// Option configures a Table at construction time. All tuning and knobs are
// frozen for the lifetime of the Table once New returns (spec.md §9,
// "Global configuration").
type Option func(*config)

type config struct {
	s, cmax, b uint64

	hasher   Hasher
	logger   *zap.Logger
	registry *prometheus.Registry
}

func defaultConfig() *config {
	return &config{
		s:      DefaultChunkSize,
		cmax:   DefaultMaxChunks,
		b:      DefaultBlockSize,
		hasher: DefaultHasher,
		logger: zap.NewNop(),
	}
}

// WithChunkSize overrides S, the number of buckets fetched per prefetch
// (reference: 32, one cache line's worth of uint64 entries times four).
func WithChunkSize(s uint64) Option {
	return func(c *config) { c.s = s }
}

// WithMaxChunks overrides Cmax, the probe budget in chunks (reference: 64).
func WithMaxChunks(cmax uint64) Option {
	return func(c *config) { c.cmax = cmax }
}

// WithBlockSize overrides B, the per-shard block length (reference: 2^27).
func WithBlockSize(b uint64) Option {
	return func(c *config) { c.b = b }
}

// WithHasher overrides the default xxhash-based Hasher. fn must be pure,
// deterministic, and have good avalanche properties (spec.md §6).
func WithHasher(fn Hasher) Option {
	return func(c *config) {
		if fn != nil {
			c.hasher = fn
		}
	}
}

// WithLogger plugs an external zap.Logger. The table never logs on the hot
// path (inside FindOrPut's chunk scan); only init, teardown, transport
// faults, and exhausted probe budgets (Full) are logged.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics collection. Passing nil disables
// metrics (the default).
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// applyOptions copies user-supplied options into cfg and validates the
// static invariants from spec.md §4.2/§6: S <= B (at-most-two-shards per
// chunk), and all tuning constants positive.
func applyOptions(cfg *config, opts []Option) error {
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.s == 0 || cfg.cmax == 0 || cfg.b == 0 {
		return ErrInvalidCapacity
	}
	if cfg.s > cfg.b {
		return ErrChunkTooLarge
	}
	// B is a power of two in the reference configuration (2^27). Offset
	// arithmetic (internal/addr) uses modulo for any B, so this is advisory,
	// not a hard requirement of the algorithm: we only log a warning rather
	// than fail construction.
	if !unsafehelpers.IsPowerOfTwo(cfg.b) {
		cfg.logger.Warn("dtable: block size B is not a power of two")
	}
	return nil
}
