package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Step  string `json:"step"`
	Count int    `json:"count"`
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[sample](0)

	_, ok, err := s.Load(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, 1, sample{Step: "a", Count: 1}))
	got, ok, err := s.Load(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sample{Step: "a", Count: 1}, got)

	require.NoError(t, s.Delete(ctx, 1))
	require.NoError(t, s.Delete(ctx, 1))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreIdleEviction(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore[sample](time.Minute)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, 1, sample{Step: "a"}))
	require.NoError(t, s.Save(ctx, 2, sample{Step: "b"}))

	now = now.Add(30 * time.Second)
	require.NoError(t, s.Save(ctx, 2, sample{Step: "c"}))

	now = now.Add(45 * time.Second)
	_, ok, err := s.Load(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok, "entry idle for 75s should be evicted")

	got, ok, err := s.Load(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "c", got.Step)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreNoTimeoutKeepsEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := NewMemoryStore[sample](0)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, 1, sample{}))
	now = now.Add(1000 * time.Hour)

	_, ok, err := s.Load(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func setupRedisStore(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisStore[sample]) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisStore[sample](client, "test:session:", ttl)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, s := setupRedisStore(t, 0)

	require.NoError(t, s.Save(ctx, 42, sample{Step: "x", Count: 3}))
	assert.True(t, mr.Exists("test:session:42"))

	got, ok, err := s.Load(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sample{Step: "x", Count: 3}, got)

	require.NoError(t, s.Delete(ctx, 42))
	_, ok, err = s.Load(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	mr, s := setupRedisStore(t, time.Minute)

	require.NoError(t, s.Save(ctx, 7, sample{Step: "x"}))
	assert.Equal(t, time.Minute, mr.TTL("test:session:7"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := s.Load(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	ctx := context.Background()
	mr, s := setupRedisStore(t, 0)

	require.NoError(t, mr.Set("test:session:9", "{not json"))
	_, _, err := s.Load(ctx, 9)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestNewRedisClientPing(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client, err := NewRedisClient(context.Background(), addr, "", 0)
	require.NoError(t, err)
	_ = client.Close()

	mr.Close()
	_, err = NewRedisClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}

func TestRedisStoreLock(t *testing.T) {
	ctx := context.Background()
	mr, s := setupRedisStore(t, 0)

	unlock, err := s.Lock(ctx, 7)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:session:7:lock"))

	short, cancel := context.WithTimeout(ctx, 60*time.Millisecond)
	defer cancel()
	_, err = s.Lock(short, 7)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := s.Lock(ctx, 8)
	require.NoError(t, err)
	other()

	acquired := make(chan func(), 1)
	go func() {
		next, err := s.Lock(ctx, 7)
		if err == nil {
			acquired <- next
		}
	}()
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, acquired)

	unlock()
	select {
	case next := <-acquired:
		next()
	case <-time.After(2 * time.Second):
		t.Fatal("lock was not handed over after unlock")
	}
	assert.False(t, mr.Exists("test:session:7:lock"))
}

func TestRedisStoreUnlockKeepsForeignLock(t *testing.T) {
	ctx := context.Background()
	mr, s := setupRedisStore(t, 0)

	unlock, err := s.Lock(ctx, 3)
	require.NoError(t, err)
	// Expired and taken by another process in the meantime.
	require.NoError(t, mr.Set("test:session:3:lock", "someone-else"))

	unlock()
	got, err := mr.Get("test:session:3:lock")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}
