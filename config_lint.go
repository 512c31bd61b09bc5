package statelesscsrf

import "time"

// LintSeverity ranks a LintWarning.
type LintSeverity uint8

// Severities, lowest first.
const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "info"
	case LintWarn:
		return "warn"
	case LintHigh:
		return "high"
	default:
		return "unknown"
	}
}

// LintWarning is a configuration that is valid but probably not intended.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the list of warnings produced by Config.Lint.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, len(r))
	for i, w := range r {
		out[i] = w.Code
	}
	return out
}

// AtLeast returns the warnings with severity s or higher.
func (r LintResult) AtLeast(s LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= s {
			out = append(out, w)
		}
	}
	return out
}

const (
	lintLongTTL  = 24 * time.Hour
	lintShortTTL = time.Minute
)

// Lint reports settings that pass Validate but weaken or surprise. It never
// fails; callers decide which severities to act on.
func (c *Config) Lint() LintResult {
	var ws LintResult

	switch {
	case c.DefaultTTL == 0:
		ws = append(ws, LintWarning{
			Code:     "no_default_ttl",
			Severity: LintHigh,
			Message:  "IssueFor with a zero ttl issues tokens that never expire",
		})
	case c.DefaultTTL > lintLongTTL:
		ws = append(ws, LintWarning{
			Code:     "default_ttl_long",
			Severity: LintWarn,
			Message:  "DefaultTTL exceeds 24h; a leaked token stays usable for that long",
		})
	case c.DefaultTTL < lintShortTTL:
		ws = append(ws, LintWarning{
			Code:     "default_ttl_short",
			Severity: LintWarn,
			Message:  "DefaultTTL under one minute; forms may expire before they are submitted",
		})
	}

	if !c.Audit.Enabled {
		ws = append(ws, LintWarning{
			Code:     "audit_disabled",
			Severity: LintInfo,
			Message:  "audit events are not recorded",
		})
	} else if c.Audit.DropIfFull {
		ws = append(ws, LintWarning{
			Code:     "audit_drop_if_full",
			Severity: LintInfo,
			Message:  "audit events are dropped when the buffer is full",
		})
	}

	if !c.Metrics.Enabled {
		ws = append(ws, LintWarning{
			Code:     "metrics_disabled",
			Severity: LintInfo,
			Message:  "rejection counters are not recorded",
		})
	}

	return ws
}
