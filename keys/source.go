package keys

import (
	"context"
	"errors"
)

// ErrNoRing is returned by a source that has nothing to offer.
var ErrNoRing = errors.New("no key ring available")

// Source yields the current key ring. Implementations may block on I/O and must
// honour ctx.
type Source interface {
	Load(ctx context.Context) (*Ring, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*Ring, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context) (*Ring, error) {
	return f(ctx)
}

type staticSource struct {
	ring *Ring
}

// Static returns a Source that always yields r.
func Static(r *Ring) Source {
	return staticSource{ring: r}
}

func (s staticSource) Load(ctx context.Context) (*Ring, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.ring == nil || s.ring.Len() == 0 {
		return nil, ErrNoRing
	}
	return s.ring, nil
}
