package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTTL = 30 * time.Minute
	testCap = 4
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// runStoreContract checks the behaviour every Store implementation must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T, clock *fakeClock) Store) {
	ctx := context.Background()

	t.Run("creates unknown session", func(t *testing.T) {
		clock := newFakeClock()
		store := newStore(t, clock)

		sess, err := store.GetOrCreate(ctx, "s1", false)
		require.NoError(t, err)
		assert.Equal(t, "s1", sess.ID)
		assert.Empty(t, sess.Messages)
		assert.Equal(t, clock.Now(), sess.LastActivity.UTC())

		n, err := store.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("new flag resets history", func(t *testing.T) {
		clock := newFakeClock()
		store := newStore(t, clock)

		require.NoError(t, store.Append(ctx, "s1",
			NewMessage(RoleUser, "привет", clock.Now()),
			NewMessage(RoleAssistant, "здравствуй", clock.Now()),
		))

		sess, err := store.GetOrCreate(ctx, "s1", false)
		require.NoError(t, err)
		assert.Len(t, sess.Messages, 2)

		sess, err = store.GetOrCreate(ctx, "s1", true)
		require.NoError(t, err)
		assert.Empty(t, sess.Messages)

		sess, err = store.GetOrCreate(ctx, "s1", false)
		require.NoError(t, err)
		assert.Empty(t, sess.Messages)
	})

	t.Run("history never exceeds cap", func(t *testing.T) {
		clock := newFakeClock()
		store := newStore(t, clock)

		for i := 0; i < 25; i++ {
			require.NoError(t, store.Append(ctx, "s1", NewMessage(RoleUser, fmt.Sprintf("m%d", i), clock.Now())))
			sess, err := store.GetOrCreate(ctx, "s1", false)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(sess.Messages), testCap)
		}

		sess, err := store.GetOrCreate(ctx, "s1", false)
		require.NoError(t, err)
		require.Len(t, sess.Messages, testCap)
		assert.Equal(t, "m21", sess.Messages[0].Content)
		assert.Equal(t, "m24", sess.Messages[testCap-1].Content)
	})

	t.Run("cap applies to a single large append", func(t *testing.T) {
		clock := newFakeClock()
		store := newStore(t, clock)

		turns := make([]Message, testCap+3)
		for i := range turns {
			turns[i] = NewMessage(RoleUser, fmt.Sprintf("m%d", i), clock.Now())
		}
		require.NoError(t, store.Append(ctx, "s1", turns...))

		sess, err := store.GetOrCreate(ctx, "s1", false)
		require.NoError(t, err)
		assert.Len(t, sess.Messages, testCap)
	})

	t.Run("sweep removes idle and keeps active", func(t *testing.T) {
		clock := newFakeClock()
		store := newStore(t, clock)

		_, err := store.GetOrCreate(ctx, "idle", false)
		require.NoError(t, err)

		clock.Advance(20 * time.Minute)
		_, err = store.GetOrCreate(ctx, "active", false)
		require.NoError(t, err)

		clock.Advance(11 * time.Minute)
		removed, err := store.Sweep(ctx, clock.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		n, err := store.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		// the idle session comes back empty
		require.NoError(t, store.Append(ctx, "active", NewMessage(RoleUser, "ещё", clock.Now())))
		sess, err := store.GetOrCreate(ctx, "idle", false)
		require.NoError(t, err)
		assert.Empty(t, sess.Messages)

		sess, err = store.GetOrCreate(ctx, "active", false)
		require.NoError(t, err)
		assert.Len(t, sess.Messages, 1)
	})

	t.Run("session exactly at ttl is kept", func(t *testing.T) {
		clock := newFakeClock()
		store := newStore(t, clock)

		_, err := store.GetOrCreate(ctx, "s1", false)
		require.NoError(t, err)

		clock.Advance(testTTL)
		removed, err := store.Sweep(ctx, clock.Now())
		require.NoError(t, err)
		assert.Zero(t, removed)
	})

	t.Run("touch keeps session alive", func(t *testing.T) {
		clock := newFakeClock()
		store := newStore(t, clock)

		_, err := store.GetOrCreate(ctx, "s1", false)
		require.NoError(t, err)

		clock.Advance(25 * time.Minute)
		require.NoError(t, store.Touch(ctx, "s1"))
		require.NoError(t, store.Touch(ctx, "unknown"))

		clock.Advance(25 * time.Minute)
		removed, err := store.Sweep(ctx, clock.Now())
		require.NoError(t, err)
		assert.Zero(t, removed)
	})

	t.Run("append recreates a swept session", func(t *testing.T) {
		clock := newFakeClock()
		store := newStore(t, clock)

		require.NoError(t, store.Append(ctx, "gone", NewMessage(RoleUser, "эй", clock.Now())))
		sess, err := store.GetOrCreate(ctx, "gone", false)
		require.NoError(t, err)
		assert.Len(t, sess.Messages, 1)
	})
}
