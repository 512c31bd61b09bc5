package keys

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Ayesh/StatelessCSRF/canonical"
	"github.com/Ayesh/StatelessCSRF/internal"
	"github.com/google/uuid"
)

// SecretSize is the length of secrets produced by GenerateKey.
const SecretSize = 32

var (
	// ErrInvalidKey is returned for a key with an empty id or secret.
	ErrInvalidKey = errors.New("invalid key")
	// ErrDuplicateKey is returned when two keys share an id.
	ErrDuplicateKey = errors.New("duplicate key id")
	// ErrKeyNotFound is returned when a key id is unknown.
	ErrKeyNotFound = errors.New("key not found")
)

// Key is one secret plus the metadata needed to rotate it. The zero Key is
// invalid.
type Key struct {
	id      string
	secret  []byte
	mac     *canonical.MAC
	created time.Time
}

// NewKey builds a key from caller-supplied secret bytes. The bytes are copied.
// No strength check is performed: secret must already be high entropy.
func NewKey(id string, secret []byte) (Key, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Key{}, fmt.Errorf("%w: empty id", ErrInvalidKey)
	}
	mac, err := canonical.NewMAC(secret)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	owned := make([]byte, len(secret))
	copy(owned, secret)
	return Key{id: id, secret: owned, mac: mac, created: time.Now().UTC()}, nil
}

// GenerateKey returns a key with SecretSize CSPRNG bytes and a random UUID id.
func GenerateKey() (Key, error) {
	secret, err := internal.RandomBytes(nil, SecretSize)
	if err != nil {
		return Key{}, err
	}
	return NewKey(uuid.NewString(), secret)
}

// ID returns the key id.
func (k Key) ID() string { return k.id }

// CreatedAt returns when the key was created.
func (k Key) CreatedAt() time.Time { return k.created }

// IsZero reports whether k was never initialised.
func (k Key) IsZero() bool { return k.mac == nil }

// Size returns the secret length in bytes.
func (k Key) Size() int { return len(k.secret) }

// MAC returns the signer for this key.
func (k Key) MAC() *canonical.MAC { return k.mac }

// WithCreatedAt returns a copy of k with a different creation time.
func (k Key) WithCreatedAt(t time.Time) Key {
	k.created = t.UTC()
	return k
}

func (k Key) String() string {
	return "Key{id=" + k.id + " secret=[redacted]}"
}

// Format covers every verb so %#v cannot print the secret field.
func (k Key) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(k.String()))
}

// LogValue implements slog.LogValuer.
func (k Key) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", k.id),
		slog.Time("created_at", k.created),
		slog.String("secret", "[redacted]"),
	)
}
