package statelesscsrf

import (
	"errors"
	"fmt"
	"time"
)

// Config defines a public type used by StatelessCSRF APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// DefaultTTL is the lifetime IssueFor applies when called with a zero
	// ttl. Zero means such tokens never expire.
	DefaultTTL time.Duration
	// Clock supplies the current time to IssueFor and ValidateNow.
	// Defaults to time.Now.
	Clock   func() time.Time
	Audit   AuditConfig
	Metrics MetricsConfig
}

// AuditConfig defines a public type used by StatelessCSRF APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by StatelessCSRF APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		DefaultTTL: 2 * time.Hour,
		Clock:      time.Now,
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if out.Clock == nil {
		out.Clock = time.Now
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when a field is out of range.
func (c *Config) Validate() error {
	if c.DefaultTTL < 0 {
		return fmt.Errorf("%w: DefaultTTL must be >= 0", ErrInvalidTTL)
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	return nil
}
