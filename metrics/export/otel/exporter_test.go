package otel

import (
	"context"
	"sync"
	"testing"

	statelesscsrf "github.com/Ayesh/StatelessCSRF"
	"github.com/Ayesh/StatelessCSRF/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot statelesscsrf.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() statelesscsrf.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := statelesscsrf.MetricsSnapshot{
		Counters:   make(map[statelesscsrf.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[statelesscsrf.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newTestMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, provider
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumByOutcome(t *testing.T, m metricdata.Metrics) map[string]int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64], got %T", m.Name, m.Data)
	}
	out := make(map[string]int64, len(sum.DataPoints))
	for _, dp := range sum.DataPoints {
		outcome, _ := dp.Attributes.Value(attribute.Key(internaldefs.OutcomeAttribute))
		out[outcome.AsString()] = dp.Value
	}
	return out
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newTestMeter(t)

	src := &fakeSource{
		snapshot: statelesscsrf.MetricsSnapshot{
			Counters: map[statelesscsrf.MetricID]uint64{
				statelesscsrf.MetricIssueSuccess:      3,
				statelesscsrf.MetricValidateSuccess:   2,
				statelesscsrf.MetricValidateMalformed: 4,
				statelesscsrf.MetricKeyReload:         1,
			},
			Histograms: map[statelesscsrf.MetricID][]uint64{
				statelesscsrf.MetricValidateLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewOTelExporterFromSource(provider.Meter("statelesscsrf-test"), src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	got := collect(t, reader)

	issue := sumByOutcome(t, got[internaldefs.InstrumentIssue])
	if issue["success"] != 3 || issue["failure"] != 0 {
		t.Fatalf("unexpected issue series: %v", issue)
	}
	validate := sumByOutcome(t, got[internaldefs.InstrumentValidate])
	if validate["accepted"] != 2 || validate["malformed"] != 4 || len(validate) != 5 {
		t.Fatalf("unexpected validate series: %v", validate)
	}
	reload := sumByOutcome(t, got[internaldefs.InstrumentKeyReload])
	if reload[""] != 1 {
		t.Fatalf("unexpected reload series: %v", reload)
	}

	countMetric, ok := got["statelesscsrf_validate_latency_seconds_count"]
	if !ok {
		t.Fatal("expected latency count gauge")
	}
	gauge, ok := countMetric.Data.(metricdata.Gauge[int64])
	if !ok || len(gauge.DataPoints) != 1 || gauge.DataPoints[0].Value != 8 {
		t.Fatalf("unexpected latency count: %+v", countMetric.Data)
	}

	dropped := got[internaldefs.AuditDroppedName].Data.(metricdata.Sum[int64])
	if dropped.DataPoints[0].Value != 1 {
		t.Fatalf("expected 1 dropped event, got %d", dropped.DataPoints[0].Value)
	}
}

func TestExporterAgainstSigner(t *testing.T) {
	reader, provider := newTestMeter(t)

	s, err := statelesscsrf.New().
		WithSecret([]byte("otel-secret")).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer s.Close()

	exp, err := NewOTelExporter(provider.Meter("statelesscsrf-test"), s)
	if err != nil {
		t.Fatalf("NewOTelExporter failed: %v", err)
	}
	defer exp.Close()

	token, err := s.Issue("form", statelesscsrf.NoTimestamp, statelesscsrf.Glue{})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	_, _ = s.Validate("other", token, statelesscsrf.NoTimestamp, statelesscsrf.Glue{})

	validate := sumByOutcome(t, collect(t, reader)[internaldefs.InstrumentValidate])
	if validate["signature_mismatch"] != 1 || validate["accepted"] != 0 {
		t.Fatalf("unexpected validate series: %v", validate)
	}
}

func TestExporterRejectsNilSource(t *testing.T) {
	_, provider := newTestMeter(t)

	if _, err := NewOTelExporterFromSource(provider.Meter("statelesscsrf-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewOTelExporter(provider.Meter("statelesscsrf-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource for nil signer, got %v", err)
	}
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterCloseIdempotent(t *testing.T) {
	_, provider := newTestMeter(t)

	exp, err := NewOTelExporterFromSource(provider.Meter("statelesscsrf-test"), &fakeSource{})
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	if err := exp.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := exp.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestExporterConcurrentClose(t *testing.T) {
	_, provider := newTestMeter(t)

	exp, err := NewOTelExporterFromSource(provider.Meter("statelesscsrf-test"), &fakeSource{})
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := exp.Close(); err != nil {
				t.Errorf("Close failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newTestMeter(t)

	src := &fakeSource{
		snapshot: statelesscsrf.MetricsSnapshot{
			Counters: map[statelesscsrf.MetricID]uint64{
				statelesscsrf.MetricIssueSuccess: 1,
			},
			Histograms: map[statelesscsrf.MetricID][]uint64{
				statelesscsrf.MetricValidateLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(provider.Meter("statelesscsrf-test"), src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[statelesscsrf.MetricIssueSuccess] = v
			src.dropped = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			if err := reader.Collect(context.Background(), &rm); err != nil {
				t.Errorf("Collect failed: %v", err)
			}
		}(uint64(i))
	}
	wg.Wait()
}
