package statelesscsrf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ayesh/StatelessCSRF/keys"
)

// Signer issues and validates anti-forgery tokens. A Signer holds no
// per-token state: everything needed to validate a token is either inside the
// token or supplied again by the caller.
//
// Signer instances are safe for concurrent use after construction. The only
// mutable part is the key ring, which Reload swaps atomically.
type Signer struct {
	config   Config
	ring     atomic.Pointer[keys.Ring]
	source   keys.Source
	audit    *auditDispatcher
	metrics  *Metrics
	logger   *slog.Logger
	entropy  io.Reader
	reloadMu sync.Mutex
}

// NewSigner returns a Signer with the default configuration and a single key
// built from secret. The secret is used as-is: it must already be a
// high-entropy value (see keys.GenerateKey and keys.DeriveKey).
func NewSigner(secret []byte) (*Signer, error) {
	return New().WithSecret(secret).Build()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func (s *Signer) currentRing() (*keys.Ring, error) {
	if s == nil {
		return nil, ErrSignerNotInitialized
	}
	r := s.ring.Load()
	if r == nil || r.Len() == 0 {
		return nil, ErrSignerNotInitialized
	}
	return r, nil
}

// Keys returns the key ring currently in use.
func (s *Signer) Keys() *keys.Ring {
	if s == nil {
		return nil
	}
	return s.ring.Load()
}

// Config returns a copy of the configuration the Signer was built with.
func (s *Signer) Config() Config {
	if s == nil {
		return Config{}
	}
	return cloneConfig(s.config)
}

// Reload describes the reload operation and its observable behavior.
//
// Reload reads a fresh key ring from the configured keys.Source and swaps it
// in atomically. Issue and Validate calls in flight keep using the ring they
// started with. On error the current ring stays in place.
func (s *Signer) Reload(ctx context.Context) error {
	if s == nil || s.ring.Load() == nil {
		return ErrSignerNotInitialized
	}
	if s.source == nil {
		return ErrNoKeySource
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	ring, err := s.source.Load(ctx)
	if err == nil && (ring == nil || ring.Len() == 0) {
		err = keys.ErrNoRing
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "csrf key reload failed", slog.Any("error", err))
		s.emitReload(ctx, nil, err)
		return err
	}

	previous := s.ring.Swap(ring)
	s.metricInc(MetricKeyReload)
	s.logger.InfoContext(ctx, "csrf keys reloaded",
		slog.String("primary", ring.Primary().ID()),
		slog.Int("keys", ring.Len()),
		slog.String("previous_primary", previous.Primary().ID()),
	)
	s.emitReload(ctx, ring, nil)
	return nil
}

// Close stops the audit dispatcher after flushing queued events. Issue and
// Validate keep working after Close; their audit events are discarded.
func (s *Signer) Close() {
	if s == nil {
		return
	}
	if s.audit != nil {
		s.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped because the buffer
// was full.
func (s *Signer) AuditDropped() uint64 {
	if s == nil || s.audit == nil {
		return 0
	}
	return s.audit.Dropped()
}

// MetricsSnapshot returns a copy of the Signer's counters and histograms.
func (s *Signer) MetricsSnapshot() MetricsSnapshot {
	if s == nil {
		return emptySnapshot()
	}
	return s.metrics.Snapshot()
}

func (s *Signer) metricInc(id MetricID) {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.Inc(id)
}

func (s *Signer) metricObserve(id MetricID, start time.Time) {
	if s == nil || !s.metrics.LatencyEnabled() {
		return
	}
	s.metrics.Observe(id, time.Since(start))
}

func (s *Signer) now() time.Time {
	if s.config.Clock == nil {
		return time.Now()
	}
	return s.config.Clock()
}

func (s *Signer) String() string {
	if s == nil {
		return "statelesscsrf.Signer(nil)"
	}
	r := s.ring.Load()
	return fmt.Sprintf("statelesscsrf.Signer{primary:%q keys:%d}", r.Primary().ID(), r.Len())
}

// Format renders the same text as String for every verb, so %#v and %x
// cannot reach key material.
func (s *Signer) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, s.String())
}

// LogValue implements slog.LogValuer.
func (s *Signer) LogValue() slog.Value {
	if s == nil {
		return slog.StringValue("nil")
	}
	return slog.GroupValue(slog.Any("keys", s.ring.Load()))
}

// Binding is a Signer paired with one Glue value, typically built once per
// request from request attributes.
type Binding struct {
	signer *Signer
	glue   Glue
}

// Bind returns a Binding that applies glue to every call.
func (s *Signer) Bind(glue Glue) Binding {
	return Binding{signer: s, glue: glue}
}

// Glue returns the bound glue.
func (b Binding) Glue() Glue { return b.glue }

// Set returns a Binding with key added to its glue.
func (b Binding) Set(key, value string) Binding {
	return Binding{signer: b.signer, glue: b.glue.Set(key, value)}
}

// Reset returns a Binding with empty glue.
func (b Binding) Reset() Binding {
	return Binding{signer: b.signer}
}

// Issue is Signer.Issue with the bound glue.
func (b Binding) Issue(identifier string, expires Timestamp) (string, error) {
	return b.signer.Issue(identifier, expires, b.glue)
}

// IssueFor is Signer.IssueFor with the bound glue.
func (b Binding) IssueFor(identifier string, ttl time.Duration) (string, error) {
	return b.signer.IssueFor(identifier, ttl, b.glue)
}

// Validate is Signer.Validate with the bound glue.
func (b Binding) Validate(identifier, token string, now Timestamp) (bool, error) {
	return b.signer.Validate(identifier, token, now, b.glue)
}

// ValidateNow is Signer.ValidateNow with the bound glue.
func (b Binding) ValidateNow(identifier, token string) (bool, error) {
	return b.signer.ValidateNow(identifier, token, b.glue)
}
