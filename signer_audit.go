package statelesscsrf

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Ayesh/StatelessCSRF/internal"
	"github.com/Ayesh/StatelessCSRF/keys"
)

const (
	auditEventTokenIssued      = "token_issued"
	auditEventTokenIssueFailed = "token_issue_failed"
	auditEventTokenValidated   = "token_validated"
	auditEventTokenRejected    = "token_rejected"
	auditEventKeysReloaded     = "keys_reloaded"
)

// AuditErrorCode is the stable reason string recorded for failed operations.
type AuditErrorCode string

const (
	auditErrRandomness    AuditErrorCode = "randomness_unavailable"
	auditErrSerialization AuditErrorCode = "serialization_failed"
	auditErrNoRing        AuditErrorCode = "no_key_ring"
	auditErrStore         AuditErrorCode = "key_store_unavailable"
	auditErrCorruptKey    AuditErrorCode = "corrupt_key"
	auditErrInternal      AuditErrorCode = "internal_error"
)

func (s *Signer) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identifier string,
	keyID string,
	reason string,
	metadataBuilder func() map[string]string,
) {
	if s == nil || s.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: s.now().UTC(),
		EventType: eventType,
		KeyID:     keyID,
		Success:   success,
		Reason:    reason,
		Metadata:  metadata,
	}
	if identifier != "" {
		event.Identifier = internal.Fingerprint(identifier)
	}

	s.audit.Emit(ctx, event)
}

func (s *Signer) emitIssue(identifier, keyID string, expires Timestamp, err error) {
	if s == nil || s.audit == nil {
		return
	}
	meta := func() map[string]string {
		if !expires.Present() {
			return map[string]string{"expires": "never"}
		}
		return map[string]string{"expires": expires.String()}
	}
	if err != nil {
		s.emitAudit(context.Background(), auditEventTokenIssueFailed, false, identifier, keyID, string(auditErrorCode(err)), meta)
		return
	}
	s.emitAudit(context.Background(), auditEventTokenIssued, true, identifier, keyID, "", meta)
}

func (s *Signer) emitValidate(identifier, keyID string, reason rejection, err error) {
	if s == nil || s.audit == nil {
		return
	}
	switch {
	case err != nil:
		s.emitAudit(context.Background(), auditEventTokenRejected, false, identifier, "", string(auditErrorCode(err)), nil)
	case reason != accepted:
		s.emitAudit(context.Background(), auditEventTokenRejected, false, identifier, "", reason.String(), nil)
	default:
		s.emitAudit(context.Background(), auditEventTokenValidated, true, identifier, keyID, "", nil)
	}
}

func (s *Signer) emitReload(ctx context.Context, ring *keys.Ring, err error) {
	if s == nil || s.audit == nil {
		return
	}
	if err != nil {
		s.emitAudit(ctx, auditEventKeysReloaded, false, "", "", string(auditErrorCode(err)), nil)
		return
	}
	s.emitAudit(ctx, auditEventKeysReloaded, true, "", ring.Primary().ID(), "", func() map[string]string {
		return map[string]string{
			"key_count": strconv.Itoa(ring.Len()),
			"key_ids":   strings.Join(ring.IDs(), ","),
		}
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrRandomnessUnavailable):
		return auditErrRandomness
	case errors.Is(err, ErrSerialization):
		return auditErrSerialization
	case errors.Is(err, keys.ErrNoRing),
		errors.Is(err, keys.ErrNoPrimary):
		return auditErrNoRing
	case errors.Is(err, keys.ErrStoreUnavailable):
		return auditErrStore
	case errors.Is(err, keys.ErrCorruptKey):
		return auditErrCorruptKey
	default:
		return auditErrInternal
	}
}
