package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned by Decode when the input is not URL-safe base64.
var ErrMalformed = errors.New("malformed url-safe base64")

// Encode returns b as URL-safe base64 without padding.
func Encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// EncodeString is Encode for string input.
func EncodeString(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

// Decode reverses Encode. Input may be unpadded or carry exactly the '='
// padding its length requires; any other padding is malformed, so each value
// has at most two accepted spellings.
func Decode(s string) ([]byte, error) {
	trimmed := strings.TrimRight(s, "=")
	if pad := len(s) - len(trimmed); pad > 0 && pad != (4-len(trimmed)%4)%4 {
		return nil, fmt.Errorf("%w: wrong padding", ErrMalformed)
	}
	// RawURLEncoding silently skips CR/LF, which would let two different
	// strings decode to the same bytes.
	if strings.ContainsAny(trimmed, "\r\n") {
		return nil, fmt.Errorf("%w: line breaks", ErrMalformed)
	}
	out, err := base64.RawURLEncoding.Strict().DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return out, nil
}

// DecodeString is Decode returning a string.
func DecodeString(s string) (string, error) {
	b, err := Decode(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
