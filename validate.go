package statelesscsrf

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Ayesh/StatelessCSRF/canonical"
	"github.com/Ayesh/StatelessCSRF/codec"
	"github.com/Ayesh/StatelessCSRF/keys"
)

// rejection is the internal reason a token failed. It is never returned to
// callers.
type rejection uint8

const (
	accepted rejection = iota
	rejectMalformed
	rejectExpired
	rejectMismatch
)

func (r rejection) String() string {
	switch r {
	case accepted:
		return "accepted"
	case rejectMalformed:
		return "malformed"
	case rejectExpired:
		return "expired"
	case rejectMismatch:
		return "signature_mismatch"
	default:
		return "unknown"
	}
}

func (r rejection) metric() MetricID {
	switch r {
	case rejectMalformed:
		return MetricValidateMalformed
	case rejectExpired:
		return MetricValidateExpired
	case rejectMismatch:
		return MetricValidateMismatch
	default:
		return MetricValidateSuccess
	}
}

type parsedToken struct {
	seed      string
	expires   int64
	hasExpiry bool
	signature string
}

func parseToken(token string) (parsedToken, bool) {
	raw, err := codec.DecodeString(token)
	if err != nil {
		return parsedToken{}, false
	}
	parts := strings.Split(raw, canonical.Separator)
	if len(parts) != 3 {
		return parsedToken{}, false
	}

	p := parsedToken{seed: parts[0], signature: parts[2]}
	if parts[1] != "" {
		exp, ok := parseExpiry(parts[1])
		if !ok {
			return parsedToken{}, false
		}
		p.expires, p.hasExpiry = exp, true
	}
	return p, true
}

// parseExpiry accepts the canonical decimal form only: ASCII digits without
// a sign or leading zeros. strconv.ParseInt alone would let both through, and
// the signature covers the numeric value, so each would be a second valid
// spelling of the same token.
func parseExpiry(s string) (int64, bool) {
	if len(s) > 1 && s[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Validate describes the validate operation and its observable behavior.
//
// Validate reports whether token was issued by this Signer (under any key in
// its ring) for identifier and glue, and has not expired at now. An absent now
// skips the expiry check entirely; use ValidateNow to check against the
// configured clock.
//
// Malformed, forged and expired tokens all yield false with a nil error. The
// error is reserved for ErrSignerNotInitialized and ErrSerialization.
func (s *Signer) Validate(identifier, token string, now Timestamp, glue Glue) (bool, error) {
	start := time.Now()
	ring, err := s.currentRing()
	if err != nil {
		return false, err
	}
	defer s.metricObserve(MetricValidateLatency, start)

	keyID, reason, err := s.validate(ring, identifier, token, now, glue)
	if err != nil {
		s.metricInc(MetricValidateError)
		s.logger.Warn("csrf token validation error", slog.Any("error", err))
		s.emitValidate(identifier, "", rejectMalformed, err)
		return false, err
	}
	if reason != accepted {
		s.metricInc(reason.metric())
		s.logger.Debug("csrf token rejected",
			slog.String("reason", reason.String()),
			slog.Any("now", now),
		)
		s.emitValidate(identifier, "", reason, nil)
		return false, nil
	}

	s.metricInc(MetricValidateSuccess)
	s.emitValidate(identifier, keyID, accepted, nil)
	return true, nil
}

// ValidateNow is Validate with now taken from Config.Clock.
func (s *Signer) ValidateNow(identifier, token string, glue Glue) (bool, error) {
	if _, err := s.currentRing(); err != nil {
		return false, err
	}
	return s.Validate(identifier, token, At(s.now()), glue)
}

func (s *Signer) validate(ring *keys.Ring, identifier, token string, now Timestamp, glue Glue) (string, rejection, error) {
	p, ok := parseToken(token)
	if !ok {
		return "", rejectMalformed, nil
	}

	msg, err := canonical.Serialize(canonical.Input{
		Identifier: identifier,
		Expires:    p.expires,
		HasExpiry:  p.hasExpiry,
		Glue:       glue.pairs,
		Seed:       p.seed,
	})
	if err != nil {
		return "", accepted, err
	}

	if nowUnix, ok := now.Unix(); ok && p.hasExpiry && nowUnix > p.expires {
		return "", rejectExpired, nil
	}

	for _, k := range ring.Keys() {
		match, err := k.MAC().VerifyMessage(msg, p.signature)
		if err != nil {
			return "", accepted, err
		}
		if match {
			return k.ID(), accepted, nil
		}
	}
	return "", rejectMismatch, nil
}
