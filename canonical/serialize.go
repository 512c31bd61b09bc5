package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Ayesh/StatelessCSRF/codec"
)

// Separator joins the serialized fields and the outer token segments.
const Separator = "|"

// ErrSerialization reports glue data that has no canonical JSON form.
var ErrSerialization = errors.New("glue data serialization failed")

// Pair is one glue entry.
type Pair struct {
	Key   string
	Value string
}

// Input is everything the signature covers besides the secret.
type Input struct {
	Identifier string
	Expires    int64
	HasExpiry  bool
	Glue       []Pair
	Seed       string
}

// Serialize renders in into its canonical, '|'-joined form.
func Serialize(in Input) (string, error) {
	glue, err := EncodeGlue(in.Glue)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(in.Identifier)*4/3 + len(glue) + len(in.Seed) + 24)
	b.WriteString(codec.EncodeString(in.Identifier))
	b.WriteString(Separator)
	if in.HasExpiry {
		b.WriteString(strconv.FormatInt(in.Expires, 10))
	}
	b.WriteString(Separator)
	b.Write(glue)
	b.WriteString(Separator)
	b.WriteString(in.Seed)
	return b.String(), nil
}

// EncodeGlue returns the canonical JSON object for pairs. Later duplicates of a
// key are the caller's concern; pairs are emitted exactly as given.
func EncodeGlue(pairs []Pair) ([]byte, error) {
	if len(pairs) == 0 {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	out := make([]byte, 0, 16*len(pairs))
	out = append(out, '{')
	for i, p := range pairs {
		if !utf8.ValidString(p.Key) {
			return nil, fmt.Errorf("%w: key %d is not valid UTF-8", ErrSerialization, i)
		}
		if !utf8.ValidString(p.Value) {
			return nil, fmt.Errorf("%w: value for key %q is not valid UTF-8", ErrSerialization, p.Key)
		}
		if i > 0 {
			out = append(out, ',')
		}
		for j, s := range [2]string{p.Key, p.Value} {
			buf.Reset()
			if err := enc.Encode(s); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
			}
			// Encode terminates every value with a newline.
			out = append(out, bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})...)
			if j == 0 {
				out = append(out, ':')
			}
		}
	}
	out = append(out, '}')
	return out, nil
}
