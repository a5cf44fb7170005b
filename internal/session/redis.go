package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "alice:session:"

// RedisStore keeps sessions in Redis so several bridge processes can share them.
// Each session key carries the idle TTL, and a sorted set indexed by last
// activity lets Sweep and Len work without scanning the keyspace.
type RedisStore struct {
	client     *backend.Client
	prefix     string
	ttl        time.Duration
	historyCap int
	now        func() time.Time
}

// RedisOption configures a RedisStore
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithRedisClock overrides the time source used for activity stamps.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		s.now = now
	}
}

// NewRedisStore connects to Redis at address.
func NewRedisStore(address, password string, db int, ttl time.Duration, historyCap int, opts ...RedisOption) *RedisStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(rdb, ttl, historyCap, opts...)
}

// NewRedisStoreFromClient creates a store from an existing client.
func NewRedisStoreFromClient(client *backend.Client, ttl time.Duration, historyCap int, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client:     client,
		prefix:     defaultRedisPrefix,
		ttl:        ttl,
		historyCap: historyCap,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "index"
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) load(ctx context.Context, id string) (*Session, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(sess.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score(sess.LastActivity),
		Member: sess.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) fresh(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		StartTime:    now,
		LastActivity: now,
		Messages:     []Message{},
	}
}

// GetOrCreate returns the stored session, or a fresh one when absent or isNew is set
func (s *RedisStore) GetOrCreate(ctx context.Context, id string, isNew bool) (*Session, error) {
	now := s.now()

	var sess *Session
	if !isNew {
		loaded, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		sess = loaded
	}
	if sess == nil {
		sess = s.fresh(id, now)
	}
	sess.LastActivity = now

	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Touch refreshes the activity stamp and key expiry of a known session
func (s *RedisStore) Touch(ctx context.Context, id string) error {
	sess, err := s.load(ctx, id)
	if err != nil || sess == nil {
		return err
	}
	sess.LastActivity = s.now()
	return s.save(ctx, sess)
}

// Append adds turns to the session. Concurrent writers on the same id are
// last-writer-wins.
func (s *RedisStore) Append(ctx context.Context, id string, turns ...Message) error {
	now := s.now()

	sess, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if sess == nil {
		sess = s.fresh(id, now)
	}
	sess.Messages = capHistory(append(sess.Messages, turns...), s.historyCap)
	sess.LastActivity = now
	return s.save(ctx, sess)
}

// Sweep deletes sessions whose last activity is older than now-ttl.
// Keys usually expire on their own; this also keeps the index in step.
func (s *RedisStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	cutoff := strconv.FormatInt(now.Add(-s.ttl).UnixMilli(), 10)

	ids, err := s.client.ZRangeByScore(ctx, s.indexKey(), &backend.ZRangeBy{
		Min: "-inf",
		Max: "(" + cutoff,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list idle sessions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
		members[i] = id
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, keys...)
	pipe.ZRem(ctx, s.indexKey(), members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to remove idle sessions: %w", err)
	}
	return len(ids), nil
}

// Len counts sessions active within the TTL
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	minScore := strconv.FormatInt(s.now().Add(-s.ttl).UnixMilli(), 10)
	n, err := s.client.ZCount(ctx, s.indexKey(), minScore, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return int(n), nil
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
