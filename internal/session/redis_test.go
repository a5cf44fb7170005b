package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedisStore(t *testing.T, clock *fakeClock) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := NewRedisStoreFromClient(client, testTTL, testCap, WithRedisClock(clock.Now))
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T, clock *fakeClock) Store {
		store, _ := newMiniRedisStore(t, clock)
		return store
	})
}

func TestRedisStore_KeysCarryTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniRedisStore(t, newFakeClock())

	_, err := store.GetOrCreate(ctx, "s1", false)
	require.NoError(t, err)

	assert.True(t, mr.Exists("alice:session:s1"))
	assert.Equal(t, testTTL, mr.TTL("alice:session:s1"))

	// native expiry removes the value; the session is recreated empty
	mr.FastForward(testTTL + 1)
	assert.False(t, mr.Exists("alice:session:s1"))

	sess, err := store.GetOrCreate(ctx, "s1", false)
	require.NoError(t, err)
	assert.Empty(t, sess.Messages)
}

func TestRedisStore_Prefix(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := NewRedisStoreFromClient(client, testTTL, testCap, WithPrefix("deepseek:"), WithRedisClock(clock.Now))
	defer store.Close()

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Append(ctx, "s1", Message{Role: RoleUser, Content: "hi"}))
	assert.True(t, mr.Exists("deepseek:s1"))
	assert.True(t, mr.Exists("deepseek:index"))
}
