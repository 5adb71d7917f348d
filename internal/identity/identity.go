// Package identity tracks who is acting now: an authenticated user, an
// anonymous guest, or nobody. It is the single source of truth for the
// session state and emits edge-triggered transition events; all side
// effects of a transition (cache resets, reloads) belong to the sync
// engine, not here.
package identity

import "sync"

// State is one of the three identity states.
type State int

const (
	// SignedOut means no session: writes are rejected until the user
	// signs in or continues as guest.
	SignedOut State = iota

	// Authenticated means a user session with a user ID.
	Authenticated

	// Guest means an anonymous session whose data is memory-only and
	// never reaches a durable store.
	Guest
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Guest:
		return "guest"
	default:
		return "signed-out"
	}
}

// Session is the current identity snapshot. UserID is set only when State
// is Authenticated.
type Session struct {
	State  State
	UserID string
}

// Event is an identity transition notification.
type Event struct {
	Session Session
}

// Handler receives transition events. Handlers must be idempotent:
// re-delivery of the current state is a safe no-op for subscribers, and
// the manager suppresses it anyway.
type Handler func(Event)

// Manager holds the current session and notifies subscribers on
// transitions. The zero state is SignedOut.
type Manager struct {
	mu       sync.Mutex
	current  Session
	handlers []Handler
}

// NewManager returns a Manager in the SignedOut state.
func NewManager() *Manager {
	return &Manager{current: Session{State: SignedOut}}
}

// Current returns the session snapshot.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Subscribe registers a handler for transition events. Handlers are
// invoked synchronously, in registration order, outside any caller locks
// the subscriber holds.
func (m *Manager) Subscribe(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
}

// SignIn transitions to Authenticated(userID). Signing in as the user who
// is already signed in emits nothing.
func (m *Manager) SignIn(userID string) {
	m.transition(Session{State: Authenticated, UserID: userID})
}

// ContinueAsGuest transitions to Guest.
func (m *Manager) ContinueAsGuest() {
	m.transition(Session{State: Guest})
}

// SignOut transitions to SignedOut.
func (m *Manager) SignOut() {
	m.transition(Session{State: SignedOut})
}

func (m *Manager) transition(next Session) {
	m.mu.Lock()
	if m.current == next {
		m.mu.Unlock()
		return
	}
	m.current = next
	handlers := make([]Handler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	ev := Event{Session: next}
	for _, h := range handlers {
		h(ev)
	}
}
