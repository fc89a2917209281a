package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	defaultKeyPrefix = "phonebook:session:"
	// lockTTL frees the lock of a process that died while holding it.
	lockTTL  = 10 * time.Second
	lockPoll = 20 * time.Millisecond
)

// releaseLock deletes the lock only if this holder still owns it.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

var lockSeq atomic.Uint64

// RedisStore keeps JSON-encoded entries in Redis so that several bot
// processes can share conversation state. The idle timeout maps to key TTL.
type RedisStore[T any] struct {
	client      *redis.Client
	prefix      string
	idleTimeout time.Duration
}

// NewRedisStore builds a Store on top of an existing client.
func NewRedisStore[T any](client *redis.Client, prefix string, idleTimeout time.Duration) *RedisStore[T] {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore[T]{client: client, prefix: prefix, idleTimeout: idleTimeout}
}

func (r *RedisStore[T]) key(userID int64) string {
	return r.prefix + strconv.FormatInt(userID, 10)
}

// Load fetches and decodes the entry for userID.
func (r *RedisStore[T]) Load(ctx context.Context, userID int64) (T, bool, error) {
	var zero T
	raw, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("state: redis get: %w", err)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return v, true, nil
}

// Save encodes v and writes it with the configured TTL.
func (r *RedisStore[T]) Save(ctx context.Context, userID int64, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: encode: %w", err)
	}
	if err := r.client.Set(ctx, r.key(userID), raw, r.idleTimeout).Err(); err != nil {
		return fmt.Errorf("state: redis set: %w", err)
	}
	return nil
}

// Delete removes the key for userID.
func (r *RedisStore[T]) Delete(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("state: redis del: %w", err)
	}
	return nil
}

// Lock takes the per-user lock key with SET NX, polling until it is free.
func (r *RedisStore[T]) Lock(ctx context.Context, userID int64) (func(), error) {
	key := r.key(userID) + ":lock"
	token := strconv.FormatInt(time.Now().UnixNano(), 36) + "." + strconv.FormatUint(lockSeq.Add(1), 36)
	for {
		ok, err := r.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("state: redis lock: %w", err)
		}
		if ok {
			return func() {
				// The holder's ctx may be done already; release regardless.
				_ = releaseLock.Run(context.WithoutCancel(ctx), r.client, []string{key}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("state: redis lock: %w", ctx.Err())
		case <-time.After(lockPoll):
		}
	}
}

// NewRedisClient opens a client and verifies connectivity.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("state: redis ping %s: %w", addr, err)
	}
	return client, nil
}
