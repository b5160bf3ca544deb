package session

import (
	"context"
	"sync"
	"time"

	"github.com/platinummonkey/hrportal/pkg/auth"
)

// Store persists sessions by token
type Store interface {
	// Get returns ErrSessionNotFound for unknown tokens
	Get(ctx context.Context, token string) (*auth.Session, error)
	// Put stores the session for ttl; ttl <= 0 keeps it until deleted
	Put(ctx context.Context, session *auth.Session, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

type memoryEntry struct {
	session  auth.Session
	deadline time.Time
}

// MemoryStore is a process-local Store. Entries past their ttl are invisible to Get and
// removed by Purge.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

// Get implements Store
func (s *MemoryStore) Get(ctx context.Context, token string) (*auth.Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok || entry.expired(s.now()) {
		return nil, ErrSessionNotFound
	}
	session := entry.session
	return &session, nil
}

// Put implements Store
func (s *MemoryStore) Put(ctx context.Context, session *auth.Session, ttl time.Duration) error {
	entry := memoryEntry{session: *session}
	if ttl > 0 {
		entry.deadline = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.sessions[session.Token] = entry
	s.mu.Unlock()
	return nil
}

// Delete implements Store
func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// Purge removes entries whose ttl has passed and returns how many were removed
func (s *MemoryStore) Purge(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, entry := range s.sessions {
		if entry.expired(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, including ones awaiting Purge
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.deadline.IsZero() && now.After(e.deadline)
}
