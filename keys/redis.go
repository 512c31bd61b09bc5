package keys

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Ayesh/StatelessCSRF/codec"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrStoreUnavailable wraps Redis transport and server failures.
	ErrStoreUnavailable = errors.New("key store unavailable")
	// ErrNoPrimary is returned when the store has no primary key set.
	ErrNoPrimary = errors.New("key store has no primary key")
	// ErrCorruptKey is returned when stored key material cannot be decoded.
	ErrCorruptKey = errors.New("stored key is corrupt")
	// ErrRetirePrimary is returned when asked to retire the current primary.
	ErrRetirePrimary = errors.New("cannot retire the primary key")
)

// DefaultRedisPrefix namespaces the store's Redis keys.
const DefaultRedisPrefix = "scsrf"

const (
	putStatusDuplicate int64 = 0
	putStatusStored    int64 = 1

	retireStatusNotFound int64 = 0
	retireStatusRetired  int64 = 1
	retireStatusPrimary  int64 = 2
)

// KEYS: secrets hash, created hash, primary string.
// ARGV: id, encoded secret, created unix, promote ("1" to make primary).
const putKeyScript = `
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
redis.call("HSET", KEYS[2], ARGV[1], ARGV[3])
if ARGV[4] == "1" then
  redis.call("SET", KEYS[3], ARGV[1])
end
return 1
`

// KEYS: secrets hash, created hash, primary string. ARGV: id.
const retireKeyScript = `
if redis.call("GET", KEYS[3]) == ARGV[1] then
  return 2
end
local removed = redis.call("HDEL", KEYS[1], ARGV[1])
redis.call("HDEL", KEYS[2], ARGV[1])
return removed
`

var (
	putKeyLua    = redis.NewScript(putKeyScript)
	retireKeyLua = redis.NewScript(retireKeyScript)
)

// RedisStore keeps key material in Redis so every instance of a service signs
// and verifies with the same ring. It implements Source.
//
// Layout under prefix P:
//
//	P:keys     hash  id -> url-safe base64 secret
//	P:created  hash  id -> unix seconds
//	P:primary  string id of the signing key
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store in the given namespace. An empty prefix uses
// DefaultRedisPrefix.
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{redis: rdb, prefix: prefix}
}

func (s *RedisStore) secretsKey() string { return s.prefix + ":keys" }
func (s *RedisStore) createdKey() string { return s.prefix + ":created" }
func (s *RedisStore) primaryKey() string { return s.prefix + ":primary" }

func (s *RedisStore) scriptKeys() []string {
	return []string{s.secretsKey(), s.createdKey(), s.primaryKey()}
}

// Load reads every stored key and returns them as a ring: primary first, then
// the rest newest first.
func (s *RedisStore) Load(ctx context.Context) (*Ring, error) {
	var (
		secretsCmd *redis.MapStringStringCmd
		createdCmd *redis.MapStringStringCmd
		primaryCmd *redis.StringCmd
	)
	_, err := s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		secretsCmd = pipe.HGetAll(ctx, s.secretsKey())
		createdCmd = pipe.HGetAll(ctx, s.createdKey())
		primaryCmd = pipe.Get(ctx, s.primaryKey())
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	primaryID, err := primaryCmd.Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoPrimary
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	secrets := secretsCmd.Val()
	created := createdCmd.Val()

	var primary Key
	previous := make([]Key, 0, len(secrets))
	for id, encoded := range secrets {
		k, err := decodeStoredKey(id, encoded, created[id])
		if err != nil {
			return nil, err
		}
		if id == primaryID {
			primary = k
			continue
		}
		previous = append(previous, k)
	}
	if primary.IsZero() {
		return nil, fmt.Errorf("%w: primary %q has no secret", ErrNoPrimary, primaryID)
	}

	sort.Slice(previous, func(i, j int) bool {
		if !previous[i].created.Equal(previous[j].created) {
			return previous[i].created.After(previous[j].created)
		}
		return previous[i].id < previous[j].id
	})

	return NewRing(primary, previous...)
}

// Put stores k as a verification-only key. An existing id is never overwritten.
func (s *RedisStore) Put(ctx context.Context, k Key) error {
	return s.put(ctx, k, false)
}

// Rotate stores k and makes it the primary. The previous primary stays in the
// store as a verification key until retired.
func (s *RedisStore) Rotate(ctx context.Context, k Key) error {
	return s.put(ctx, k, true)
}

func (s *RedisStore) put(ctx context.Context, k Key, promote bool) error {
	if k.IsZero() {
		return ErrInvalidKey
	}
	created := k.created
	if created.IsZero() {
		created = time.Now()
	}
	flag := "0"
	if promote {
		flag = "1"
	}

	status, err := putKeyLua.Run(ctx, s.redis, s.scriptKeys(),
		k.id, codec.Encode(k.secret), strconv.FormatInt(created.Unix(), 10), flag,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if status == putStatusDuplicate {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, k.id)
	}
	return nil
}

// Retire removes a verification key. Tokens signed with it stop validating on
// the next Load.
func (s *RedisStore) Retire(ctx context.Context, id string) error {
	status, err := retireKeyLua.Run(ctx, s.redis, s.scriptKeys(), id).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	switch status {
	case retireStatusRetired:
		return nil
	case retireStatusPrimary:
		return fmt.Errorf("%w: %q", ErrRetirePrimary, id)
	default:
		return fmt.Errorf("%w: %q", ErrKeyNotFound, id)
	}
}

func decodeStoredKey(id, encoded, createdUnix string) (Key, error) {
	secret, err := codec.Decode(encoded)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q: %v", ErrCorruptKey, id, err)
	}
	k, err := NewKey(id, secret)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q: %v", ErrCorruptKey, id, err)
	}
	if createdUnix != "" {
		sec, err := strconv.ParseInt(createdUnix, 10, 64)
		if err != nil {
			return Key{}, fmt.Errorf("%w: %q: bad created time", ErrCorruptKey, id)
		}
		k = k.WithCreatedAt(time.Unix(sec, 0))
	}
	return k, nil
}
