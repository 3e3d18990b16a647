package session

import (
	"sync"

	"github.com/spec-kit/recovery-portal/internal/domain"
)

// Event describes a session-state change for one browser context. A nil
// Session means the context became unauthenticated.
type Event struct {
	SID     string
	Session *domain.Session
}

// Handler observes session-state changes.
type Handler func(Event)

// Stream is a broadcast channel over a current-value slot per browser
// context. Handlers run synchronously, so a publication completes before
// the publishing operation returns.
type Stream struct {
	mu       sync.RWMutex
	current  map[string]*domain.Session
	handlers []Handler
}

// NewStream creates an empty stream.
func NewStream() *Stream {
	return &Stream{current: make(map[string]*domain.Session)}
}

// Subscribe registers a handler and replays the latest value of every live
// session to it, so late subscribers observe current state.
func (s *Stream) Subscribe(handler Handler) {
	s.mu.Lock()
	s.handlers = append(s.handlers, handler)
	replay := make([]Event, 0, len(s.current))
	for sid, sess := range s.current {
		replay = append(replay, Event{SID: sid, Session: sess})
	}
	s.mu.Unlock()

	for _, event := range replay {
		handler(event)
	}
}

// Publish updates the current-value slot and notifies all handlers.
func (s *Stream) Publish(sid string, sess *domain.Session) {
	s.mu.Lock()
	if sess == nil {
		delete(s.current, sid)
	} else {
		s.current[sid] = sess
	}
	handlers := append([]Handler{}, s.handlers...)
	s.mu.Unlock()

	event := Event{SID: sid, Session: sess}
	for _, handler := range handlers {
		handler(event)
	}
}

// Current returns the latest published value for a browser context.
func (s *Stream) Current(sid string) *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current[sid]
}
