package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/dkarki/twinfolio/internal/model/conv"
)

var ErrSessionNotFound = errors.New("session not found")

// Store abstracts session persistence so the memory service can run on an
// in-process map today and an external cache or database later.
type Store interface {
	Get(sessionID string) (conv.Session, error)
	Put(session conv.Session) error
}

// MapStore is the default in-memory Store guarded by a RWMutex.
type MapStore struct {
	mu       sync.RWMutex
	sessions map[string]conv.Session
}

// NewMapStore bootstraps the in-memory store suitable for a single process.
func NewMapStore() *MapStore {
	return &MapStore{sessions: make(map[string]conv.Session)}
}

// Get returns a deep-enough copy of the session: the turns slice is copied
// so callers cannot mutate stored history.
func (s *MapStore) Get(sessionID string) (conv.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return conv.Session{}, ErrSessionNotFound
	}

	copied := session
	copied.Turns = make([]conv.Turn, len(session.Turns))
	copy(copied.Turns, session.Turns)
	copied.Topics = make([]string, len(session.Topics))
	copy(copied.Topics, session.Topics)
	return copied, nil
}

// Put stores the session, stamping UpdatedAt.
func (s *MapStore) Put(session conv.Session) error {
	if session.SessionID == "" {
		return ErrSessionNotFound
	}

	session.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	s.sessions[session.SessionID] = session
	s.mu.Unlock()
	return nil
}
