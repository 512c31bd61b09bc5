package statelesscsrf

import (
	"context"
	"errors"
	"testing"

	"github.com/Ayesh/StatelessCSRF/keys"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func newRedisSigner(t testing.TB) (*Signer, *keys.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	store := keys.NewRedisStore(rdb, "test")

	first, err := keys.NewKey("k1", []byte("first-secret-0123456789abcdef012"))
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	if err := store.Rotate(context.Background(), first); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	s, err := New().
		WithKeySource(store).
		WithMetricsEnabled(true).
		BuildContext(context.Background())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s, store, mr
}

func TestReloadRotationLifecycle(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newRedisSigner(t)

	oldToken, err := s.Issue("form", NoTimestamp, Glue{})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	next, err := keys.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	if err := store.Rotate(ctx, next); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if err := s.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := s.Keys().Primary().ID(); got != next.ID() {
		t.Fatalf("expected primary %s, got %s", next.ID(), got)
	}

	if ok, _ := s.Validate("form", oldToken, NoTimestamp, Glue{}); !ok {
		t.Fatal("token from previous primary must validate after rotation")
	}

	newToken, err := s.Issue("form", NoTimestamp, Glue{})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if err := store.Retire(ctx, "k1"); err != nil {
		t.Fatalf("retire: %v", err)
	}
	if err := s.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if ok, _ := s.Validate("form", oldToken, NoTimestamp, Glue{}); ok {
		t.Fatal("token from retired key must not validate")
	}
	if ok, _ := s.Validate("form", newToken, NoTimestamp, Glue{}); !ok {
		t.Fatal("token from current primary must validate")
	}

	if got := s.MetricsSnapshot().Counters[MetricKeyReload]; got != 2 {
		t.Fatalf("expected 2 reloads, got %d", got)
	}
}

func TestReloadFailureKeepsCurrentRing(t *testing.T) {
	s, _, mr := newRedisSigner(t)

	token, err := s.Issue("form", NoTimestamp, Glue{})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	mr.Close()
	err = s.Reload(context.Background())
	if !errors.Is(err, keys.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if ok, _ := s.Validate("form", token, NoTimestamp, Glue{}); !ok {
		t.Fatal("failed reload must not drop the current ring")
	}
	if got := s.MetricsSnapshot().Counters[MetricKeyReload]; got != 0 {
		t.Fatalf("failed reload counted, got %d", got)
	}
}
