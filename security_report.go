package statelesscsrf

import (
	"time"

	"github.com/Ayesh/StatelessCSRF/internal"
	"github.com/Ayesh/StatelessCSRF/keys"
)

// SigningAlgorithm is the MAC used for every token.
const SigningAlgorithm = "HS256"

// SecurityReport summarises the posture of a Signer without exposing key
// material.
type SecurityReport struct {
	SigningAlgorithm string
	SeedBytes        int
	DefaultTTL       time.Duration
	ExpiryByDefault  bool
	KeyCount         int
	PrimaryKeyID     string
	KeyIDs           []string
	// WeakKeyIDs lists keys whose secret is shorter than keys.SecretSize.
	WeakKeyIDs     []string
	ReloadEnabled  bool
	AuditEnabled   bool
	MetricsEnabled bool
	Lint           LintResult
}

// SecurityReport describes the current key ring and configuration.
func (s *Signer) SecurityReport() SecurityReport {
	if s == nil {
		return SecurityReport{}
	}

	ring := s.ring.Load()
	var weak []string
	for _, k := range ring.Keys() {
		if k.Size() < keys.SecretSize {
			weak = append(weak, k.ID())
		}
	}

	return SecurityReport{
		SigningAlgorithm: SigningAlgorithm,
		SeedBytes:        internal.SeedSize,
		DefaultTTL:       s.config.DefaultTTL,
		ExpiryByDefault:  s.config.DefaultTTL > 0,
		KeyCount:         ring.Len(),
		PrimaryKeyID:     ring.Primary().ID(),
		KeyIDs:           ring.IDs(),
		WeakKeyIDs:       weak,
		ReloadEnabled:    s.source != nil,
		AuditEnabled:     s.audit != nil,
		MetricsEnabled:   s.metrics.Enabled(),
		Lint:             s.config.Lint(),
	}
}
