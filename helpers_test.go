package statelesscsrf

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Ayesh/StatelessCSRF/codec"
)

func newTestSigner(tb testing.TB, secret string) *Signer {
	tb.Helper()

	s, err := NewSigner([]byte(secret))
	if err != nil {
		tb.Fatalf("NewSigner failed: %v", err)
	}
	tb.Cleanup(s.Close)
	return s
}

// zeroReader is a deterministic entropy source.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

// testClock is a settable Config.Clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(unix int64) *testClock {
	return &testClock{now: time.Unix(unix, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(unix int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.Unix(unix, 0)
}

func decodeParts(tb testing.TB, token string) (seed, exp, sig string) {
	tb.Helper()

	raw, err := codec.DecodeString(token)
	if err != nil {
		tb.Fatalf("token does not decode: %v", err)
	}
	parts := bytes.Split([]byte(raw), []byte("|"))
	if len(parts) != 3 {
		tb.Fatalf("expected 3 parts, got %d in %q", len(parts), raw)
	}
	return string(parts[0]), string(parts[1]), string(parts[2])
}

func encodeParts(seed, exp, sig string) string {
	return codec.EncodeString(seed + "|" + exp + "|" + sig)
}

func newRecordLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h), &buf
}
