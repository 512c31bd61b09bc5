package canonical

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Ayesh/StatelessCSRF/codec"
	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptySecret is returned by NewMAC for a zero-length secret.
var ErrEmptySecret = errors.New("empty secret key")

// DigestSize is the length of a raw HMAC-SHA256 digest.
const DigestSize = 32

// MAC computes keyed hashes over serialized inputs. The secret is copied at
// construction and never leaves the value.
//
// MAC is immutable and safe for concurrent use.
type MAC struct {
	secret []byte
}

// NewMAC copies secret into a new MAC.
func NewMAC(secret []byte) (*MAC, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	k := make([]byte, len(secret))
	copy(k, secret)
	return &MAC{secret: k}, nil
}

// Sign returns the encoded signature for in.
func (m *MAC) Sign(in Input) (string, error) {
	msg, err := Serialize(in)
	if err != nil {
		return "", err
	}
	return m.SignMessage(msg)
}

// SignMessage signs an already serialized message.
func (m *MAC) SignMessage(msg string) (string, error) {
	raw, err := jwt.SigningMethodHS256.Sign(msg, m.secret)
	if err != nil {
		return "", fmt.Errorf("hmac sign: %w", err)
	}
	return codec.Encode(raw), nil
}

// Verify reports whether signature is the encoded signature for in.
func (m *MAC) Verify(in Input, signature string) (bool, error) {
	msg, err := Serialize(in)
	if err != nil {
		return false, err
	}
	return m.VerifyMessage(msg, signature)
}

// VerifyMessage checks signature against an already serialized message. The
// digest comparison is constant time. A signature that does not decode, or
// decodes to the wrong length, is simply a mismatch.
func (m *MAC) VerifyMessage(msg, signature string) (bool, error) {
	raw, err := codec.Decode(signature)
	if err != nil || len(raw) != DigestSize {
		return false, nil
	}
	err = jwt.SigningMethodHS256.Verify(msg, raw, m.secret)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return false, nil
	default:
		return false, fmt.Errorf("hmac verify: %w", err)
	}
}

// String implements fmt.Stringer without the secret.
func (m MAC) String() string {
	return "canonical.MAC{alg=HS256 secret=[redacted]}"
}

// Format covers every verb, including %#v and %x, so the secret bytes are
// never printed.
func (m MAC) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(m.String()))
}

// LogValue implements slog.LogValuer.
func (m MAC) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("alg", "HS256"),
		slog.String("secret", "[redacted]"),
	)
}
