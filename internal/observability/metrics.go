package observability

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// blameDurationBuckets covers 1ms to 60s; blame on a large file with deep
// history can take tens of seconds.
var blameDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Metrics holds the Prometheus instruments for one analysis run.
type Metrics struct {
	registry *prometheus.Registry

	// BlameCalls counts blame invocations, partitioned by outcome.
	BlameCalls *prometheus.CounterVec
	// BlameDuration observes blame call latency in seconds.
	BlameDuration prometheus.Histogram
	// CacheHits counts file histograms served from cache.
	CacheHits prometheus.Counter
	// CacheMisses counts file histograms that had to be recomputed.
	CacheMisses prometheus.Counter
	// CheckpointsProcessed counts processed checkpoints.
	CheckpointsProcessed prometheus.Counter
	// LinesAttributed counts lines attributed across all checkpoints.
	LinesAttributed prometheus.Counter
}

// Metric label values for BlameCalls.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// NewMetrics creates a Metrics set backed by a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		BlameCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "theseus_blame_calls_total",
			Help: "Total blame invocations by outcome.",
		}, []string{"outcome"}),
		BlameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "theseus_blame_duration_seconds",
			Help:    "Blame call latency in seconds.",
			Buckets: blameDurationBuckets,
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "theseus_histogram_cache_hits_total",
			Help: "File histograms served from the per-path cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "theseus_histogram_cache_misses_total",
			Help: "File histograms recomputed because the path changed or was new.",
		}),
		CheckpointsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "theseus_checkpoints_processed_total",
			Help: "Checkpoints processed during the run.",
		}),
		LinesAttributed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "theseus_lines_attributed_total",
			Help: "Lines attributed to introducing commits across all checkpoints.",
		}),
	}

	registry.MustRegister(
		m.BlameCalls,
		m.BlameDuration,
		m.CacheHits,
		m.CacheMisses,
		m.CheckpointsProcessed,
		m.LinesAttributed,
	)

	return m
}

// WriteText dumps the collected metrics in Prometheus text exposition
// format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	encoder := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))

	for _, family := range families {
		if encodeErr := encoder.Encode(family); encodeErr != nil {
			return fmt.Errorf("encode metric family %s: %w", family.GetName(), encodeErr)
		}
	}

	return nil
}
