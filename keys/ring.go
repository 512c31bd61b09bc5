package keys

import (
	"fmt"
	"log/slog"
	"strings"
)

// Ring is an immutable ordered set of keys. The first key is the primary.
type Ring struct {
	keys []Key
}

// NewRing returns a ring signing with primary and also accepting previous.
func NewRing(primary Key, previous ...Key) (*Ring, error) {
	all := make([]Key, 0, 1+len(previous))
	all = append(all, primary)
	all = append(all, previous...)

	seen := make(map[string]struct{}, len(all))
	for i, k := range all {
		if k.IsZero() {
			return nil, fmt.Errorf("%w: position %d is uninitialised", ErrInvalidKey, i)
		}
		if _, dup := seen[k.id]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, k.id)
		}
		seen[k.id] = struct{}{}
	}
	return &Ring{keys: all}, nil
}

// Primary returns the signing key.
func (r *Ring) Primary() Key {
	if r == nil || len(r.keys) == 0 {
		return Key{}
	}
	return r.keys[0]
}

// Keys returns every key, primary first.
func (r *Ring) Keys() []Key {
	if r == nil {
		return nil
	}
	out := make([]Key, len(r.keys))
	copy(out, r.keys)
	return out
}

// IDs returns the key ids, primary first.
func (r *Ring) IDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, len(r.keys))
	for i, k := range r.keys {
		ids[i] = k.id
	}
	return ids
}

// Len returns the number of keys.
func (r *Ring) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Lookup finds a key by id.
func (r *Ring) Lookup(id string) (Key, bool) {
	if r == nil {
		return Key{}, false
	}
	for _, k := range r.keys {
		if k.id == id {
			return k, true
		}
	}
	return Key{}, false
}

func (r *Ring) String() string {
	return "Ring{" + strings.Join(r.IDs(), ",") + "}"
}

// Format covers every verb so %#v cannot walk into the keys.
func (r *Ring) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(r.String()))
}

// LogValue implements slog.LogValuer.
func (r *Ring) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("primary", r.Primary().id),
		slog.Any("ids", r.IDs()),
	)
}
