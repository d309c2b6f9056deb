package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestTranscriptionDurationHistogram(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.TranscriptionDuration.Record(ctx, 12.5,
		metric.WithAttributes(attribute.String("engine", "whisper")))

	rm := collect(t, reader)
	data := findMetric(rm, "termscribe.transcription.duration")
	if data == nil {
		t.Fatal("termscribe.transcription.duration not found")
	}
	hist, ok := data.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("unexpected data type %T", data.Data)
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Errorf("unexpected data points: %+v", hist.DataPoints)
	}
}

func TestRecordFile(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordFile(ctx, "ok")
	m.RecordFile(ctx, "ok")
	m.RecordFile(ctx, "failed")

	rm := collect(t, reader)
	data := findMetric(rm, "termscribe.files.processed")
	if data == nil {
		t.Fatal("termscribe.files.processed not found")
	}
	sum, ok := data.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data type %T", data.Data)
	}
	if len(sum.DataPoints) != 2 {
		t.Fatalf("expected 2 status series, got %d", len(sum.DataPoints))
	}
	byStatus := map[string]int64{}
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key("status")); ok {
			byStatus[v.AsString()] = dp.Value
		}
	}
	if byStatus["ok"] != 2 || byStatus["failed"] != 1 {
		t.Errorf("byStatus = %v", byStatus)
	}
}

func TestRecordReplacements(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordReplacements(ctx, "alpha", 3)
	m.RecordReplacements(ctx, "alpha", 0) // no-op
	m.RecordReplacements(ctx, "beta", -1) // no-op

	rm := collect(t, reader)
	data := findMetric(rm, "termscribe.replacements.applied")
	if data == nil {
		t.Fatal("termscribe.replacements.applied not found")
	}
	sum, ok := data.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data type %T", data.Data)
	}
	if len(sum.DataPoints) != 1 {
		t.Fatalf("expected a single context series, got %d", len(sum.DataPoints))
	}
	if sum.DataPoints[0].Value != 3 {
		t.Errorf("Value = %d, want 3", sum.DataPoints[0].Value)
	}
}

func TestActiveWorkersUpDown(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ActiveWorkers.Add(ctx, 1)
	m.ActiveWorkers.Add(ctx, 1)
	m.ActiveWorkers.Add(ctx, -1)

	rm := collect(t, reader)
	data := findMetric(rm, "termscribe.active_workers")
	if data == nil {
		t.Fatal("termscribe.active_workers not found")
	}
	sum, ok := data.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data type %T", data.Data)
	}
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("unexpected data points: %+v", sum.DataPoints)
	}
}
