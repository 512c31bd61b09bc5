package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	statelesscsrf "github.com/Ayesh/StatelessCSRF"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot statelesscsrf.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() statelesscsrf.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                           { return f.dropped }

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: statelesscsrf.MetricsSnapshot{
			Counters:   map[statelesscsrf.MetricID]uint64{},
			Histograms: map[statelesscsrf.MetricID][]uint64{},
		},
	})

	if got := testutil.CollectAndCount(exp); got != 0 {
		t.Fatalf("expected no metrics for disabled source, got %d", got)
	}
}

func TestCollectCountersAndDropped(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: statelesscsrf.MetricsSnapshot{
			Counters: map[statelesscsrf.MetricID]uint64{
				statelesscsrf.MetricIssueSuccess:     7,
				statelesscsrf.MetricValidateMismatch: 3,
			},
			Histograms: map[statelesscsrf.MetricID][]uint64{},
		},
		dropped: 2,
	})

	expected := `
# HELP statelesscsrf_issue_success_total Tokens issued.
# TYPE statelesscsrf_issue_success_total counter
statelesscsrf_issue_success_total 7
# HELP statelesscsrf_validate_mismatch_total Tokens whose signature matched no key.
# TYPE statelesscsrf_validate_mismatch_total counter
statelesscsrf_validate_mismatch_total 3
# HELP statelesscsrf_audit_dropped_total Dropped audit events due to dispatcher backpressure.
# TYPE statelesscsrf_audit_dropped_total counter
statelesscsrf_audit_dropped_total 2
`
	err := testutil.CollectAndCompare(exp, strings.NewReader(expected),
		"statelesscsrf_issue_success_total",
		"statelesscsrf_validate_mismatch_total",
		"statelesscsrf_audit_dropped_total",
	)
	if err != nil {
		t.Fatalf("unexpected collection: %v", err)
	}
}

func TestCollectHistogramIsCumulative(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: statelesscsrf.MetricsSnapshot{
			Counters: map[statelesscsrf.MetricID]uint64{statelesscsrf.MetricIssueSuccess: 1},
			Histograms: map[statelesscsrf.MetricID][]uint64{
				statelesscsrf.MetricValidateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
	})

	reg := prometheus.NewPedanticRegistry()
	if err := exp.Register(reg); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != "statelesscsrf_validate_latency_seconds" {
			continue
		}
		h := mf.GetMetric()[0].GetHistogram()
		if h.GetSampleCount() != 36 {
			t.Fatalf("expected sample count 36, got %d", h.GetSampleCount())
		}
		buckets := h.GetBucket()
		if len(buckets) != 7 {
			t.Fatalf("expected 7 finite buckets, got %d", len(buckets))
		}
		if buckets[0].GetCumulativeCount() != 1 || buckets[6].GetCumulativeCount() != 28 {
			t.Fatalf("unexpected cumulative counts %d..%d", buckets[0].GetCumulativeCount(), buckets[6].GetCumulativeCount())
		}
		return
	}
	t.Fatal("latency histogram not gathered")
}

func TestExporterAgainstSigner(t *testing.T) {
	s, err := statelesscsrf.New().
		WithSecret([]byte("prometheus-secret")).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer s.Close()

	token, err := s.Issue("form", statelesscsrf.NoTimestamp, statelesscsrf.Glue{})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	_, _ = s.Validate("form", token, statelesscsrf.NoTimestamp, statelesscsrf.Glue{})
	_, _ = s.Validate("form", "garbage", statelesscsrf.NoTimestamp, statelesscsrf.Glue{})

	exp := NewExporter(s)
	expected := `
# HELP statelesscsrf_validate_malformed_total Tokens rejected as malformed.
# TYPE statelesscsrf_validate_malformed_total counter
statelesscsrf_validate_malformed_total 1
# HELP statelesscsrf_validate_success_total Tokens accepted.
# TYPE statelesscsrf_validate_success_total counter
statelesscsrf_validate_success_total 1
`
	if err := testutil.CollectAndCompare(exp, strings.NewReader(expected),
		"statelesscsrf_validate_success_total",
		"statelesscsrf_validate_malformed_total",
	); err != nil {
		t.Fatalf("unexpected collection: %v", err)
	}
}

func TestHandlerServesTextFormat(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: statelesscsrf.MetricsSnapshot{
			Counters:   map[statelesscsrf.MetricID]uint64{statelesscsrf.MetricIssueSuccess: 1},
			Histograms: map[statelesscsrf.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected text exposition content type, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "statelesscsrf_issue_success_total 1") {
		t.Fatalf("expected issue counter in body:\n%s", rec.Body.String())
	}
}
