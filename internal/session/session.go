// internal/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"booknest/internal/result"
)

// State is the lifecycle position of a session.
type State string

const (
	Anonymous      State = "anonymous"
	Authenticating State = "authenticating"
	Authenticated  State = "authenticated"
	Expired        State = "expired"
)

var ErrInvalidTransition = errors.New("invalid session transition")

// Session is the caller identity handed to every workflow call.
type Session struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	State        State     `json:"state"`
}

// Active reports whether the session is authenticated and unexpired at now.
func (s *Session) Active(now time.Time) bool {
	return s != nil && s.State == Authenticated && now.Before(s.ExpiresAt)
}

var transitions = map[State][]State{
	Anonymous:      {Authenticating},
	Authenticating: {Authenticated, Anonymous},
	Authenticated:  {Expired, Anonymous, Authenticated},
	Expired:        {Authenticating, Authenticated, Anonymous},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Machine holds the current session of one client and enforces the lifecycle
// anonymous -> authenticating -> authenticated -> expired. Sign-out returns to
// anonymous from any state; a refresh moves expired back to authenticated.
type Machine struct {
	mu      sync.RWMutex
	state   State
	current *Session
	now     func() time.Time
}

func NewMachine(now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{state: Anonymous, now: now}
}

func (m *Machine) move(to State) error {
	if !CanTransition(m.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	m.state = to
	return nil
}

// Begin marks a sign-in attempt in flight.
func (m *Machine) Begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.move(Authenticating)
}

// Establish installs a freshly issued or refreshed session.
func (m *Machine) Establish(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.move(Authenticated); err != nil {
		return err
	}
	s.State = Authenticated
	m.current = s
	return nil
}

// Fail abandons an in-flight sign-in.
func (m *Machine) Fail() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Authenticating {
		return fmt.Errorf("%w: fail from %s", ErrInvalidTransition, m.state)
	}
	return m.move(Anonymous)
}

// Clear signs out.
func (m *Machine) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Anonymous
	m.current = nil
}

// Current returns the session, moving to expired first if its access token
// has lapsed.
func (m *Machine) Current() (*Session, State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Authenticated && m.current != nil && !m.now().Before(m.current.ExpiresAt) {
		m.state = Expired
		m.current.State = Expired
	}
	return m.current, m.state
}

type contextKey struct{}

// NewContext attaches s to ctx.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by the auth middleware, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}

// Require returns the request's session or writes 401 and reports false.
func Require(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	s, ok := FromContext(r.Context())
	if !ok {
		result.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return s, true
}
