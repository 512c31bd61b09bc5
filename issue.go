package statelesscsrf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Ayesh/StatelessCSRF/canonical"
	"github.com/Ayesh/StatelessCSRF/codec"
	"github.com/Ayesh/StatelessCSRF/internal"
	"github.com/Ayesh/StatelessCSRF/keys"
)

// Issue describes the issue operation and its observable behavior.
//
// Issue returns a new token bound to identifier, glue and expires, signed with
// the primary key. Two calls with identical arguments return different tokens.
// An absent expires yields a token that never expires.
//
// Issue fails with ErrRandomnessUnavailable when the system CSPRNG fails and
// with ErrSerialization when glue holds invalid UTF-8. An expiration before the
// Unix epoch is rejected with ErrInvalidExpiration.
func (s *Signer) Issue(identifier string, expires Timestamp, glue Glue) (string, error) {
	ring, err := s.currentRing()
	if err != nil {
		return "", err
	}
	if exp, ok := expires.Unix(); ok && exp < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidExpiration, exp)
	}

	primary := ring.Primary()
	token, err := s.issue(primary, identifier, expires, glue)
	if err != nil {
		s.metricInc(MetricIssueFailure)
		level := slog.LevelWarn
		if errors.Is(err, ErrRandomnessUnavailable) {
			level = slog.LevelError
		}
		s.logger.Log(context.Background(), level, "csrf token issue failed",
			slog.String("key_id", primary.ID()),
			slog.Any("error", err),
		)
		s.emitIssue(identifier, primary.ID(), expires, err)
		return "", err
	}

	s.metricInc(MetricIssueSuccess)
	s.emitIssue(identifier, primary.ID(), expires, nil)
	return token, nil
}

// IssueFor issues a token expiring ttl from now according to Config.Clock.
// A zero ttl uses Config.DefaultTTL, and when that is zero too the token never
// expires. A negative ttl is rejected with ErrInvalidTTL.
func (s *Signer) IssueFor(identifier string, ttl time.Duration, glue Glue) (string, error) {
	if _, err := s.currentRing(); err != nil {
		return "", err
	}
	expires, err := s.expiryFor(ttl)
	if err != nil {
		return "", err
	}
	return s.Issue(identifier, expires, glue)
}

func (s *Signer) expiryFor(ttl time.Duration) (Timestamp, error) {
	if ttl < 0 {
		return NoTimestamp, fmt.Errorf("%w: %s", ErrInvalidTTL, ttl)
	}
	if ttl == 0 {
		ttl = s.config.DefaultTTL
	}
	if ttl == 0 {
		return NoTimestamp, nil
	}
	return At(s.now().Add(ttl)), nil
}

func (s *Signer) issue(key keys.Key, identifier string, expires Timestamp, glue Glue) (string, error) {
	seed, err := internal.NewSeed(s.entropy)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRandomnessUnavailable, err)
	}

	exp, hasExpiry := expires.Unix()
	signature, err := key.MAC().Sign(canonical.Input{
		Identifier: identifier,
		Expires:    exp,
		HasExpiry:  hasExpiry,
		Glue:       glue.pairs,
		Seed:       seed,
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(seed) + len(signature) + 22)
	b.WriteString(seed)
	b.WriteString(canonical.Separator)
	if hasExpiry {
		b.WriteString(strconv.FormatInt(exp, 10))
	}
	b.WriteString(canonical.Separator)
	b.WriteString(signature)

	return codec.EncodeString(b.String()), nil
}
