package internaldefs

import (
	statelesscsrf "github.com/Ayesh/StatelessCSRF"
)

// CounterDef maps one in-process counter to its exported names.
//
// Prometheus gets one series per counter (Name). OpenTelemetry groups related
// counters into one Instrument distinguished by an Outcome attribute; an empty
// Outcome means the instrument carries no attribute.
type CounterDef struct {
	ID         statelesscsrf.MetricID
	Name       string
	Help       string
	Instrument string
	Outcome    string
}

// HistogramDef defines a public type used by StatelessCSRF APIs.
type HistogramDef struct {
	ID   statelesscsrf.MetricID
	Name string
	Help string
}

// InstrumentDef describes one OpenTelemetry instrument.
type InstrumentDef struct {
	Name string
	Help string
	Unit string
}

const (
	InstrumentIssue     = "statelesscsrf.token.issue"
	InstrumentValidate  = "statelesscsrf.token.validate"
	InstrumentKeyReload = "statelesscsrf.key.reload"
)

// OutcomeAttribute is the attribute key carrying CounterDef.Outcome.
const OutcomeAttribute = "outcome"

// CounterDefs lists every exported counter.
var CounterDefs = []CounterDef{
	{ID: statelesscsrf.MetricIssueSuccess, Name: "statelesscsrf_issue_success_total", Help: "Tokens issued.", Instrument: InstrumentIssue, Outcome: "success"},
	{ID: statelesscsrf.MetricIssueFailure, Name: "statelesscsrf_issue_failure_total", Help: "Issue calls that returned an error.", Instrument: InstrumentIssue, Outcome: "failure"},
	{ID: statelesscsrf.MetricValidateSuccess, Name: "statelesscsrf_validate_success_total", Help: "Tokens accepted.", Instrument: InstrumentValidate, Outcome: "accepted"},
	{ID: statelesscsrf.MetricValidateMalformed, Name: "statelesscsrf_validate_malformed_total", Help: "Tokens rejected as malformed.", Instrument: InstrumentValidate, Outcome: "malformed"},
	{ID: statelesscsrf.MetricValidateExpired, Name: "statelesscsrf_validate_expired_total", Help: "Tokens rejected as expired.", Instrument: InstrumentValidate, Outcome: "expired"},
	{ID: statelesscsrf.MetricValidateMismatch, Name: "statelesscsrf_validate_mismatch_total", Help: "Tokens whose signature matched no key.", Instrument: InstrumentValidate, Outcome: "signature_mismatch"},
	{ID: statelesscsrf.MetricValidateError, Name: "statelesscsrf_validate_error_total", Help: "Validate calls that returned an error.", Instrument: InstrumentValidate, Outcome: "error"},
	{ID: statelesscsrf.MetricKeyReload, Name: "statelesscsrf_key_reload_total", Help: "Successful key ring reloads.", Instrument: InstrumentKeyReload},
}

// InstrumentDefs lists the OpenTelemetry instruments referenced by CounterDefs.
var InstrumentDefs = []InstrumentDef{
	{Name: InstrumentIssue, Help: "Token issue attempts by outcome.", Unit: "{token}"},
	{Name: InstrumentValidate, Help: "Token validations by outcome.", Unit: "{token}"},
	{Name: InstrumentKeyReload, Help: "Successful key ring reloads.", Unit: "{reload}"},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: statelesscsrf.MetricValidateLatency, Name: "statelesscsrf_validate_latency_seconds", Help: "Validate latency histogram."},
}

// AuditDroppedName and AuditDroppedHelp describe the audit drop counter.
const (
	AuditDroppedName = "statelesscsrf_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// BucketCount is the number of histogram buckets, +Inf included.
const BucketCount = 8

// HistogramUpperBounds are the finite bucket bounds in seconds. The last
// bucket is +Inf.
var HistogramUpperBounds = []float64{
	0.000005,
	0.00001,
	0.000025,
	0.00005,
	0.0001,
	0.00025,
	0.0005,
}

// HistogramBoundSuffix names each bucket in instrument names, +Inf last.
var HistogramBoundSuffix = []string{
	"5us",
	"10us",
	"25us",
	"50us",
	"100us",
	"250us",
	"500us",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling short input.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
