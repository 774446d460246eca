package memory

import (
	"sync"

	contractx "github.com/phurits/ordermind/agent/contract"
)

// DefaultMaxTurns is the conversation window supplied to the model:
// the most recent 20 turns per session.
const DefaultMaxTurns = 20

type window struct {
	mu    sync.Mutex
	turns []contractx.Turn
}

// Store keeps one bounded, ordered turn log per session. Appending beyond the
// maximum evicts the oldest turns first. Sessions are independent: each has
// its own lock, so turn ordering is preserved within a session while
// cross-session traffic stays fully parallel. Windows are created lazily on
// first append.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*window
	maxTurns int
}

func NewStore(maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Store{
		sessions: make(map[string]*window),
		maxTurns: maxTurns,
	}
}

func (s *Store) session(sessionID string) *window {
	s.mu.RLock()
	w, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return w
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok = s.sessions[sessionID]; ok {
		return w
	}
	w = &window{}
	s.sessions[sessionID] = w
	return w
}

func (s *Store) Append(sessionID string, turn contractx.Turn) {
	w := s.session(sessionID)
	w.mu.Lock()
	defer w.mu.Unlock()

	w.turns = append(w.turns, turn)
	if excess := len(w.turns) - s.maxTurns; excess > 0 {
		w.turns = append([]contractx.Turn(nil), w.turns[excess:]...)
	}
}

// Turns returns a snapshot of the session's window, oldest first.
func (s *Store) Turns(sessionID string) []contractx.Turn {
	s.mu.RLock()
	w, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]contractx.Turn(nil), w.turns...)
}
