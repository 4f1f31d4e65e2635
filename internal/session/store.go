package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultIdleTTL is how long a session survives without requests.
	DefaultIdleTTL = 2 * time.Hour

	sweepInterval = time.Minute
)

// Session is one user's isolated state on a shared server. Lock serializes
// the user's actions so each session handles one request at a time.
type Session struct {
	ID        string
	Ledger    *Ledger
	CreatedAt time.Time

	mu sync.Mutex

	// guarded by Store.mu
	lastSeen time.Time
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Store maps session IDs to sessions. It never shares a Ledger between IDs.
// Sessions idle for longer than the TTL are dropped with their history.
type Store struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type StoreOption func(*Store)

func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      DefaultIdleTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the session for id, creating a fresh one (with a new ID) when
// id is unknown, empty or expired. The boolean is true when a session was
// created. Creating a session also sweeps expired ones, at most once a minute.
func (s *Store) Get(id string) (*Session, bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		if !s.expired(sess, now) {
			sess.lastSeen = now
			return sess, false
		}
		delete(s.sessions, id)
	}

	if now.Sub(s.lastSweep) >= sweepInterval {
		s.evictLocked(now)
	}

	sess := &Session{
		ID:        uuid.NewString(),
		Ledger:    NewLedger(),
		CreatedAt: now,
		lastSeen:  now,
	}
	s.sessions[sess.ID] = sess
	return sess, true
}

// Evict drops every expired session and returns how many went.
func (s *Store) Evict() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictLocked(now)
}

// Run evicts expired sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, every time.Duration, onEvict func(n int)) {
	if every <= 0 {
		every = sweepInterval
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Evict(); n > 0 && onEvict != nil {
				onEvict(n)
			}
		}
	}
}

func (s *Store) evictLocked(now time.Time) int {
	s.lastSweep = now
	n := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return now.Sub(sess.lastSeen) > s.ttl
}

// Delete ends a session and drops its history.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
