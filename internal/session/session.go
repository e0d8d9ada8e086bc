// Package session keeps per-session conversation history in memory. History
// is append-only and grows by whole exchanges: a user turn and the assistant
// turn that answered it are recorded together, so a failed answer leaves the
// session exactly as it was.
package session

import (
	"sync"
	"time"

	"github.com/hyperjump/kotae/internal/models"
)

// Session is one conversation's history. Safe for concurrent use.
type Session struct {
	ID string

	mu        sync.Mutex
	messages  []models.Message
	createdAt time.Time
	updatedAt time.Time
}

// History returns a copy of the messages in chronological order.
func (s *Session) History() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// AppendExchange records one completed question/answer pair. Callers append
// only after the answer succeeded; there is no way to record a lone user turn.
func (s *Session) AppendExchange(question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages,
		models.Message{Role: models.RoleUser, Content: question},
		models.Message{Role: models.RoleAssistant, Content: answer},
	)
	s.updatedAt = time.Now()
}

// Len returns the number of recorded messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// UpdatedAt returns when the session last recorded an exchange.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Store holds live sessions keyed by id.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: map[string]*Session{}}
}

// GetOrCreate returns the session for id, creating it on first use.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		return s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	now := time.Now()
	s = &Session{ID: id, createdAt: now, updatedAt: now}
	st.sessions[id] = s
	return s
}

// Remove deletes the session with the given id. Removing an unknown id
// returns a NotFoundError.
func (st *Store) Remove(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return &models.NotFoundError{Kind: "session", ID: id}
	}
	delete(st.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
