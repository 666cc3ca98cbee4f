// Package sessions keeps per-client practice state in memory. Sessions are
// keyed by UUID, expire after a TTL of inactivity, and are lost on restart.
package sessions

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carelingo/carelingo/pkg/practice"
)

// Event is a frame published to a session's event subscribers.
type Event struct {
	Type  string `json:"type"`
	State string `json:"state,omitempty"`
	Turn  int    `json:"turn,omitempty"`
	Error string `json:"error,omitempty"`
}

// Session is one tracked practice session. The mutex serializes state
// transitions; turn processing holds it only for the final swap, not for
// the provider calls.
type Session struct {
	ID string

	mu       sync.Mutex
	state    practice.SessionState
	lastSeen time.Time

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

// State returns a snapshot of the session state.
func (s *Session) State() practice.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update applies fn to the session state under the lock. fn receives the
// current state and returns the next one.
func (s *Session) Update(fn func(practice.SessionState) practice.SessionState) practice.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	s.lastSeen = time.Now()
	return s.state
}

// Touch refreshes the session's activity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// Subscribe registers an event channel. The returned function removes it.
// Slow subscribers lose events rather than blocking the publisher.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	s.subMu.Lock()
	if s.subs == nil {
		s.subs = make(map[chan Event]struct{})
	}
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.subMu.Unlock()
	}
}

// Publish fans an event out to all subscribers, dropping it for any whose
// buffer is full.
func (s *Session) Publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Session) closeSubscribers() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
}

// Registry tracks all live sessions.
type Registry struct {
	ttl time.Duration
	max int

	mu sync.Mutex
	m  map[string]*Session

	// Hooks for metrics; may be nil.
	OnCreate func()
	OnRemove func()
}

// NewRegistry creates a registry with the given idle TTL and session cap.
func NewRegistry(ttl time.Duration, maxSessions int) *Registry {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if maxSessions <= 0 {
		maxSessions = 500
	}
	return &Registry{
		ttl: ttl,
		max: maxSessions,
		m:   make(map[string]*Session),
	}
}

// Create registers a new session. Returns false when the registry is full.
func (r *Registry) Create(authenticated bool) (*Session, bool) {
	s := &Session{
		ID:       uuid.NewString(),
		lastSeen: time.Now(),
	}
	state := practice.NewSessionState()
	state.Authenticated = authenticated
	s.state = state

	r.mu.Lock()
	if len(r.m) >= r.max {
		r.mu.Unlock()
		return nil, false
	}
	r.m[s.ID] = s
	r.mu.Unlock()

	if r.OnCreate != nil {
		r.OnCreate()
	}
	return s, true
}

// Get looks up a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.m[id]
	r.mu.Unlock()
	if ok {
		s.Touch()
	}
	return s, ok
}

// Remove deletes a session and closes its subscribers.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.m[id]
	if ok {
		delete(r.m, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.closeSubscribers()
	if r.OnRemove != nil {
		r.OnRemove()
	}
	return true
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}

// Sweep removes sessions idle past the TTL and returns how many went.
func (r *Registry) Sweep(now time.Time) int {
	var expired []*Session
	r.mu.Lock()
	for id, s := range r.m {
		s.mu.Lock()
		idle := now.Sub(s.lastSeen)
		s.mu.Unlock()
		if idle > r.ttl {
			delete(r.m, id)
			expired = append(expired, s)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.closeSubscribers()
		if r.OnRemove != nil {
			r.OnRemove()
		}
	}
	return len(expired)
}

// StartSweeper runs Sweep periodically until stop is closed.
func (r *Registry) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				r.Sweep(now)
			}
		}
	}()
}
