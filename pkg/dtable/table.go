// Package dtable implements a distributed, lock-free open-addressing hash
// set: find_or_put(value) tests membership and inserts if absent, atomically,
// across a table sharded over T cooperating processes. See SPEC_FULL.md for
// the full design; this file is the public entry point wiring internal/addr,
// internal/stage, internal/probe and internal/transport together the way the
// teacher's pkg/cache.go wires internal/genring, internal/clockpro, and
// internal/arena into one Cache[K,V].
//
// © 2025 ridgeline-systems authors. MIT License.
package dtable

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ridgeline-systems/dtable/internal/addr"
	"github.com/ridgeline-systems/dtable/internal/probe"
	"github.com/ridgeline-systems/dtable/internal/stage"
	"github.com/ridgeline-systems/dtable/internal/transport"
)

// Result reports the outcome of one FindOrPut call.
type Result = probe.Result

const (
	// Full means value was absent and the probe budget (Cmax*S buckets) was
	// exhausted without finding an empty slot.
	Full = probe.Full
	// Found means value was already present in the table.
	Found = probe.Found
	// Inserted means value was absent and this call placed it.
	Inserted = probe.Inserted
)

// Table is one process's view of the distributed hash set. It owns a
// prefetch pipeline and a probe engine; it is process-private and is not
// safe for concurrent use by multiple goroutines (spec.md §5): serialize
// calls to FindOrPut within a process, e.g. one Table per worker goroutine
// sharing the same Transport.
type Table struct {
	geom addr.Geometry
	tr   transport.Transport

	engine *probe.Engine
	pipe   *stage.Pipeline

	metrics metricsSink
	logger  *zap.Logger

	insertedTotal    atomic.Uint64
	foundTotal       atomic.Uint64
	fullTotal        atomic.Uint64
	chunksScannedSum atomic.Uint64
	bucketsProbedSum atomic.Uint64
}

// Snapshot reports this process's cumulative FindOrPut counters. It is
// observability surface only — it never participates in the FindOrPut
// algorithm — and is exposed for the /debug/dtable/snapshot endpoint and
// cmd/dtable-inspect, mirroring the teacher's ShardInfo/StoreStats pattern.
type Snapshot struct {
	Shards        uint64 `json:"shards"`
	BlockSize     uint64 `json:"block_size"`
	Capacity      uint64 `json:"capacity"`
	Inserted      uint64 `json:"inserted_total"`
	Found         uint64 `json:"found_total"`
	Full          uint64 `json:"full_total"`
	ChunksScanned uint64 `json:"chunks_scanned_total"`
	BucketsProbed uint64 `json:"buckets_probed_total"`
}

// Snapshot returns a point-in-time read of this Table's cumulative counters.
func (t *Table) Snapshot() Snapshot {
	return Snapshot{
		Shards:        t.geom.T,
		BlockSize:     t.geom.B,
		Capacity:      t.geom.Capacity(),
		Inserted:      t.insertedTotal.Load(),
		Found:         t.foundTotal.Load(),
		Full:          t.fullTotal.Load(),
		ChunksScanned: t.chunksScannedSum.Load(),
		BucketsProbed: t.bucketsProbedSum.Load(),
	}
}

// New constructs a Table bound to tr, spanning t shards of b buckets each.
// The caller must have already called tr.Barrier once, collectively across
// all T processes, before any process calls FindOrPut (spec.md §4.5) — New
// itself does not perform the barrier, since it has no way to know the other
// processes are ready to participate in one.
func New(tr transport.Transport, t uint64, opts ...Option) (*Table, error) {
	if t == 0 {
		return nil, ErrInvalidShardCount
	}

	cfg := defaultConfig()
	if err := applyOptions(cfg, opts); err != nil {
		return nil, err
	}

	geom := addr.NewGeometry(t, cfg.b)
	pipe := stage.New(tr, geom, cfg.s, cfg.cmax)

	tbl := &Table{
		geom: geom,
		tr:   tr,
		engine: &probe.Engine{
			Transport: tr,
			Geom:      geom,
			Hash:      cfg.hasher,
			S:         cfg.s,
			Cmax:      cfg.cmax,
		},
		pipe:    pipe,
		metrics: newMetricsSink(cfg.registry),
		logger:  cfg.logger,
	}

	tbl.logger.Info("dtable: table constructed",
		zap.Uint64("shards", t),
		zap.Uint64("block_size", cfg.b),
		zap.Uint64("chunk_size", cfg.s),
		zap.Uint64("max_chunks", cfg.cmax),
	)
	return tbl, nil
}

// FindOrPut atomically tests whether value is present in the distributed
// table and inserts it if absent (spec.md §4.1). value's bit 63 is ignored:
// only the low 63 bits are significant, matching the bucket encoding
// (internal/probe.Encode/Mask).
//
// A non-nil error means a Transport fault occurred mid-probe (spec.md §7.3);
// the Result returned alongside it is meaningless and the caller should treat
// the whole process's view of the table as suspect.
func (t *Table) FindOrPut(ctx context.Context, value uint64) (Result, error) {
	result, stats, err := t.engine.FindOrPut(ctx, t.pipe, value)

	t.metrics.observeChunksScanned(stats.ChunksScanned)
	t.metrics.observeBucketsProbed(stats.BucketsProbed)
	t.chunksScannedSum.Add(stats.ChunksScanned)
	t.bucketsProbedSum.Add(stats.BucketsProbed)

	if err != nil {
		t.logger.Error("dtable: find_or_put fault", zap.Error(err), zap.Uint64("value", value))
		return result, wrapTransportFault(err)
	}

	switch result {
	case Inserted:
		t.metrics.incInserted()
		t.insertedTotal.Add(1)
	case Found:
		t.metrics.incFound()
		t.foundTotal.Add(1)
	case Full:
		t.metrics.incFull()
		t.fullTotal.Add(1)
		t.logger.Warn("dtable: probe budget exhausted", zap.Uint64("value", value))
	}
	return result, nil
}

// Close drains any outstanding fetch handles and releases the table's
// staging buffer. The caller is responsible for a final collective Barrier
// on the Transport afterward if other processes must observe that this
// process is done (spec.md §4.5); Close itself performs no barrier.
func (t *Table) Close(ctx context.Context) error {
	if err := t.pipe.Drain(ctx); err != nil {
		return fmt.Errorf("dtable: close: %w", wrapTransportFault(err))
	}
	t.pipe.Close()
	t.logger.Info("dtable: table closed")
	return nil
}

// Geometry returns the table's shard/block layout, mainly useful for tests
// and the inspector CLI.
func (t *Table) Geometry() addr.Geometry {
	return t.geom
}
