// Package observe provides observability primitives for termscribe:
// OpenTelemetry metrics, tracing helpers, and span-aware structured logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all termscribe metrics.
const meterName = "github.com/termscribe/termscribe"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// TranscriptionDuration tracks per-file ASR decoding latency. Use with
	// attribute.String("engine", ...).
	TranscriptionDuration metric.Float64Histogram

	// CorrectionDuration tracks per-file terminology correction latency.
	CorrectionDuration metric.Float64Histogram

	// FilesProcessed counts processed files. Use with
	// attribute.String("status", "ok"|"fallback"|"failed").
	FilesProcessed metric.Int64Counter

	// ReplacementsApplied counts rule replacements by context. Use with
	// attribute.String("context", ...).
	ReplacementsApplied metric.Int64Counter

	// CorrectionFallbacks counts runs that fell back to uncorrected text.
	CorrectionFallbacks metric.Int64Counter

	// ActiveWorkers tracks the number of files being processed concurrently.
	ActiveWorkers metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Batch
// transcription of meeting recordings routinely takes tens of seconds.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TranscriptionDuration, err = m.Float64Histogram("termscribe.transcription.duration",
		metric.WithDescription("Per-file ASR decoding latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CorrectionDuration, err = m.Float64Histogram("termscribe.correction.duration",
		metric.WithDescription("Per-file terminology correction latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.FilesProcessed, err = m.Int64Counter("termscribe.files.processed",
		metric.WithDescription("Processed files by status."),
	); err != nil {
		return nil, err
	}
	if met.ReplacementsApplied, err = m.Int64Counter("termscribe.replacements.applied",
		metric.WithDescription("Rule replacements applied by context."),
	); err != nil {
		return nil, err
	}
	if met.CorrectionFallbacks, err = m.Int64Counter("termscribe.correction.fallbacks",
		metric.WithDescription("Correction runs that fell back to uncorrected text."),
	); err != nil {
		return nil, err
	}

	if met.ActiveWorkers, err = m.Int64UpDownCounter("termscribe.active_workers",
		metric.WithDescription("Files currently being processed."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordFile records a processed-file counter increment with its status.
func (m *Metrics) RecordFile(ctx context.Context, status string) {
	m.FilesProcessed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordReplacements records n applied replacements for a context.
func (m *Metrics) RecordReplacements(ctx context.Context, contextName string, n int64) {
	if n <= 0 {
		return
	}
	m.ReplacementsApplied.Add(ctx, n,
		metric.WithAttributes(attribute.String("context", contextName)),
	)
}
