package statelesscsrf

import (
	"sync/atomic"
	"time"
)

// MetricID indexes the counter table of Metrics.
type MetricID uint16

const (
	// MetricIssueSuccess counts tokens issued.
	MetricIssueSuccess MetricID = iota
	// MetricIssueFailure counts Issue calls that returned an error.
	MetricIssueFailure
	// MetricValidateSuccess counts tokens accepted by Validate.
	MetricValidateSuccess
	// MetricValidateMalformed counts tokens rejected before any signature check.
	MetricValidateMalformed
	// MetricValidateExpired counts tokens rejected for expiry.
	MetricValidateExpired
	// MetricValidateMismatch counts tokens whose signature matched no key.
	MetricValidateMismatch
	// MetricValidateError counts Validate calls that returned an error.
	MetricValidateError
	// MetricKeyReload counts successful key ring reloads.
	MetricKeyReload
	// MetricValidateLatency is the Validate latency histogram. It has no counter.
	MetricValidateLatency
	metricIDCount
)

// latencyBoundsMicros are the inclusive upper bounds of the finite latency
// buckets. One more bucket catches everything slower. A validation is a
// single HMAC over a short message, so the scale is microseconds.
var latencyBoundsMicros = [...]int64{5, 10, 25, 50, 100, 250, 500}

const latencyBucketCount = len(latencyBoundsMicros) + 1

// counterSlot sits on its own cache line so hot counters do not false-share.
type counterSlot struct {
	n atomic.Uint64
	_ [56]byte
}

// Metrics is a fixed table of lock-free counters plus the Validate latency
// histogram. A disabled Metrics drops every update.
type Metrics struct {
	enabled bool
	latency bool
	slots   [MetricValidateLatency]counterSlot
	buckets [latencyBucketCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func emptySnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
}

// NewMetrics returns a counter table configured by cfg. The latency histogram
// is only recorded when cfg.Enabled is also set.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
		latency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool { return m != nil && m.enabled }

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool { return m != nil && m.latency }

// Inc adds one to counter id. It is safe for concurrent use and ignores ids
// without a counter.
func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= MetricValidateLatency {
		return
	}
	m.slots[id].n.Add(1)
}

// Observe records d in the histogram for id. Only MetricValidateLatency has a
// histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() || id != MetricValidateLatency {
		return
	}
	m.buckets[latencyBucket(d)].Add(1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricValidateLatency {
		return 0
	}
	return m.slots[id].n.Load()
}

// Snapshot copies every counter, and the histogram when it is enabled. A
// disabled Metrics returns empty, non-nil maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	out := emptySnapshot()
	if !m.Enabled() {
		return out
	}

	for id := range m.slots {
		out.Counters[MetricID(id)] = m.slots[id].n.Load()
	}
	if m.latency {
		hist := make([]uint64, latencyBucketCount)
		for i := range m.buckets {
			hist[i] = m.buckets[i].Load()
		}
		out.Histograms[MetricValidateLatency] = hist
	}
	return out
}

func latencyBucket(d time.Duration) int {
	us := d.Microseconds()
	for i, bound := range latencyBoundsMicros {
		if us <= bound {
			return i
		}
	}
	return latencyBucketCount - 1
}
