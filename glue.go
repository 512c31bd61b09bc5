package statelesscsrf

import (
	"fmt"

	"github.com/Ayesh/StatelessCSRF/canonical"
)

// Glue is contextual data (client IP, user agent, form name ...) mixed into a
// token's signature. The same Glue must be supplied when issuing and when
// validating; it is never embedded in the token text.
//
// Glue is an immutable value ordered by first insertion. Set and Reset return
// new values, so a Glue can be shared between goroutines freely. The zero value
// is empty and ready to use.
type Glue struct {
	pairs []canonical.Pair
}

// NewGlue builds Glue from alternating keys and values.
func NewGlue(kv ...string) (Glue, error) {
	if len(kv)%2 != 0 {
		return Glue{}, fmt.Errorf("%w: got %d arguments", ErrGlueOddPairs, len(kv))
	}
	g := Glue{}
	for i := 0; i < len(kv); i += 2 {
		g = g.Set(kv[i], kv[i+1])
	}
	return g, nil
}

// MustGlue is NewGlue that panics on an odd argument count. Intended for
// package-level values and tests.
func MustGlue(kv ...string) Glue {
	g, err := NewGlue(kv...)
	if err != nil {
		panic(err)
	}
	return g
}

// Set returns a copy of g with key bound to value. A key that is already
// present keeps its position; a new key is appended.
func (g Glue) Set(key, value string) Glue {
	next := make([]canonical.Pair, len(g.pairs), len(g.pairs)+1)
	copy(next, g.pairs)
	for i := range next {
		if next[i].Key == key {
			next[i].Value = value
			return Glue{pairs: next}
		}
	}
	return Glue{pairs: append(next, canonical.Pair{Key: key, Value: value})}
}

// Reset returns empty Glue.
func (g Glue) Reset() Glue {
	return Glue{}
}

// Get returns the value bound to key.
func (g Glue) Get(key string) (string, bool) {
	for _, p := range g.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Len returns the number of entries.
func (g Glue) Len() int { return len(g.pairs) }

// Keys returns the keys in insertion order.
func (g Glue) Keys() []string {
	keys := make([]string, len(g.pairs))
	for i, p := range g.pairs {
		keys[i] = p.Key
	}
	return keys
}

// Pairs returns a copy of the entries in insertion order.
func (g Glue) Pairs() []canonical.Pair {
	out := make([]canonical.Pair, len(g.pairs))
	copy(out, g.pairs)
	return out
}

// Equal reports whether g and other hold the same entries in the same order,
// which is exactly when they produce the same signature.
func (g Glue) Equal(other Glue) bool {
	if len(g.pairs) != len(other.pairs) {
		return false
	}
	for i := range g.pairs {
		if g.pairs[i] != other.pairs[i] {
			return false
		}
	}
	return true
}

// MarshalJSON returns the canonical encoding that is signed.
func (g Glue) MarshalJSON() ([]byte, error) {
	return canonical.EncodeGlue(g.pairs)
}
