package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded expiring map of sessions
type MemoryStore struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	ttl        time.Duration
	historyCap int
	now        func() time.Time
	closed     bool
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source, mostly for tests
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an in-process store expiring sessions idle for ttl
// and keeping at most historyCap turns per session
func NewMemoryStore(ttl time.Duration, historyCap int, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		sessions:   make(map[string]*Session),
		ttl:        ttl,
		historyCap: historyCap,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) create(id string, now time.Time) *Session {
	sess := &Session{
		ID:           id,
		StartTime:    now,
		LastActivity: now,
		Messages:     []Message{},
	}
	s.sessions[id] = sess
	return sess
}

// GetOrCreate returns a copy of the session, resetting it when isNew is set
func (s *MemoryStore) GetOrCreate(_ context.Context, id string, isNew bool) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	now := s.now()
	sess, ok := s.sessions[id]
	if isNew || !ok {
		sess = s.create(id, now)
	}
	sess.LastActivity = now
	return sess.Clone(), nil
}

// Touch updates the last activity time of a known session
func (s *MemoryStore) Touch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if sess, ok := s.sessions[id]; ok {
		sess.LastActivity = s.now()
	}
	return nil
}

// Append adds turns to the session, recreating it if it was swept meanwhile
func (s *MemoryStore) Append(_ context.Context, id string, turns ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	now := s.now()
	sess, ok := s.sessions[id]
	if !ok {
		sess = s.create(id, now)
	}
	sess.Messages = capHistory(append(sess.Messages, turns...), s.historyCap)
	sess.LastActivity = now
	return nil
}

// Sweep drops every session idle for longer than the TTL
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	removed := 0
	for id, sess := range s.sessions {
		if sess.Idle(now, s.ttl) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of sessions currently held
func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions), nil
}

// Close drops all sessions; further calls return ErrClosed
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.sessions = map[string]*Session{}
	return nil
}
