package internal

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/Ayesh/StatelessCSRF/codec"
)

// SeedSize is the number of random bytes behind every token seed.
const SeedSize = 8

// ErrShortRead is returned when the entropy source yields fewer bytes than asked.
var ErrShortRead = errors.New("entropy source returned short read")

// RandomBytes reads n bytes from r, or from crypto/rand when r is nil.
func RandomBytes(r io.Reader, n int) ([]byte, error) {
	if r == nil {
		r = rand.Reader
	}
	buf := make([]byte, n)
	read, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %d of %d bytes", ErrShortRead, read, n)
		}
		return nil, err
	}
	return buf, nil
}

// NewSeed returns SeedSize random bytes as URL-safe base64 text.
func NewSeed(r io.Reader) (string, error) {
	b, err := RandomBytes(r, SeedSize)
	if err != nil {
		return "", err
	}
	return codec.Encode(b), nil
}
