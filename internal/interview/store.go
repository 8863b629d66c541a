package interview

import (
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound covers both unknown ids and ids already closed by a
// completed evaluation.
var ErrSessionNotFound = errors.New("interview session not found")

const (
	RoleInterviewer = "interviewer"
	RoleCandidate   = "candidate"
)

// Turn is one exchange in an interview transcript.
type Turn struct {
	Role     string `json:"role"`
	Text     string `json:"text"`
	AudioURL string `json:"audio_url,omitempty"`
}

// Session holds the live state of one interview. Turns are only touched under
// the session lock so that concurrent responses to the same session serialize
// while other sessions proceed independently.
type Session struct {
	mu sync.Mutex

	ID             string
	JobDescription string
	Voice          string
	CreatedAt      time.Time

	turns []Turn
}

func (s *Session) appendTurn(t Turn) {
	s.turns = append(s.turns, t)
}

func (s *Session) snapshot() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Store is the in-memory session registry. Sessions live only for the
// duration of the process.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (s *Store) Put(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session
}

func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
