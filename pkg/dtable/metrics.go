package dtable

// metrics.go is a thin Prometheus abstraction mirroring the teacher's own
// pkg/metrics.go: when the caller passes WithMetrics(reg), we register
// labeled counters/histograms; otherwise a no-op sink is used and the hot
// path pays nothing for metric updates.
//
// All metrics are per-Table (a Table corresponds to one process's view of
// the cluster); cluster-wide aggregation happens on the Prometheus side via
// sum()/rate() across one series per process.
//
// © 2025 ridgeline-systems authors. MIT License.

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metricsSink is the internal interface abstracting the concrete backend
// (Prometheus vs. no-op). Not exposed outside the package.
type metricsSink interface {
	incInserted()
	incFound()
	incFull()
	observeChunksScanned(n uint64)
	observeBucketsProbed(n uint64)
}

type noopMetrics struct{}

func (noopMetrics) incInserted()                {}
func (noopMetrics) incFound()                   {}
func (noopMetrics) incFull()                    {}
func (noopMetrics) observeChunksScanned(uint64) {}
func (noopMetrics) observeBucketsProbed(uint64) {}

type promMetrics struct {
	inserted prometheus.Counter
	found    prometheus.Counter
	full     prometheus.Counter
	chunks   prometheus.Histogram
	buckets  prometheus.Histogram
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	pm := &promMetrics{
		inserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dtable",
			Name:      "inserted_total",
			Help:      "Number of FindOrPut calls that inserted a new value.",
		}),
		found: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dtable",
			Name:      "found_total",
			Help:      "Number of FindOrPut calls that found an existing value.",
		}),
		full: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dtable",
			Name:      "full_total",
			Help:      "Number of FindOrPut calls that exhausted the probe budget.",
		}),
		chunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dtable",
			Name:      "chunks_scanned",
			Help:      "Number of chunks scanned per FindOrPut call.",
			Buckets:   prometheus.LinearBuckets(1, 4, 16),
		}),
		buckets: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dtable",
			Name:      "buckets_probed",
			Help:      "Number of buckets inspected per FindOrPut call.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	reg.MustRegister(pm.inserted, pm.found, pm.full, pm.chunks, pm.buckets)
	return pm
}

func (m *promMetrics) incInserted()                  { m.inserted.Inc() }
func (m *promMetrics) incFound()                     { m.found.Inc() }
func (m *promMetrics) incFull()                      { m.full.Inc() }
func (m *promMetrics) observeChunksScanned(n uint64) { m.chunks.Observe(float64(n)) }
func (m *promMetrics) observeBucketsProbed(n uint64) { m.buckets.Observe(float64(n)) }

func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}
