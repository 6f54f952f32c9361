// Package session owns the auth token and the user it belongs to. It
// restores a stored token at start-up, hydrates the profile behind it, and
// drops it again when the service rejects it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/fieldcrm/internal/logbook"
	"github.com/kingrea/fieldcrm/internal/models"
	"github.com/kingrea/fieldcrm/internal/workflow"
)

// Backend is the part of the API client the session needs.
type Backend interface {
	Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error)
	Profile(ctx context.Context) (models.User, error)
}

// State is a snapshot of the session.
type State struct {
	Authenticated bool
	User          models.User
}

// IsAdmin reports whether the user holds the Admin role.
func (s State) IsAdmin() bool { return s.User.HasRole(models.RoleAdmin) }

// IsWorker reports whether the user holds the Worker role.
func (s State) IsWorker() bool { return s.User.HasRole(models.RoleWorker) }

// Roles converts the state into the flags order actions depend on.
func (s State) Roles() workflow.Roles {
	return workflow.Roles{Admin: s.IsAdmin(), Worker: s.IsWorker()}
}

// Event is delivered to subscribers when the session ends involuntarily.
type Event struct {
	Reason string
}

// Session is safe for concurrent use.
type Session struct {
	backend Backend
	store   TokenStore
	log     *logbook.Logbook
	now     func() time.Time

	mu    sync.RWMutex
	token string
	state State
	subs  []chan Event
}

// Option configures a Session.
type Option func(*Session)

// WithLogbook records sign-in activity to lb.
func WithLogbook(lb *logbook.Logbook) Option {
	return func(s *Session) {
		s.log = lb
	}
}

// WithClock overrides the clock used to check token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an unauthenticated session.
func New(backend Backend, store TokenStore, opts ...Option) *Session {
	s := &Session{backend: backend, store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the current bearer token or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.User.Roles = append([]string(nil), s.state.User.Roles...)
	return st
}

// Bootstrap restores the stored token. Without a token, or with one whose
// expiry has passed, no request is made. Otherwise the profile is fetched;
// any failure clears the token and is returned.
func (s *Session) Bootstrap(ctx context.Context) (State, error) {
	token, err := s.store.Load()
	if errors.Is(err, ErrNoToken) {
		return State{}, nil
	}
	if err != nil {
		return State{}, err
	}

	claims, claimsErr := ParseClaims(token)
	if claimsErr == nil && claims.Expired(s.now()) {
		s.log.Info("stored token expired at %s", claims.ExpiresAt.Format(time.RFC3339))
		s.reset()
		return State{}, nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	user, err := s.backend.Profile(ctx)
	if err != nil {
		s.log.Warn("session restore failed: %v", err)
		s.reset()
		return State{}, fmt.Errorf("session: restore: %w", err)
	}
	if len(user.Roles) == 0 && claimsErr == nil {
		user.Roles = claims.Roles
	}
	st := s.set(token, user)
	s.log.Info("session restored for %s", user.UserName)
	return st, nil
}

// Login exchanges credentials for a token and stores it.
func (s *Session) Login(ctx context.Context, userName, password string) (State, error) {
	res, err := s.backend.Login(ctx, models.Credentials{UserName: strings.TrimSpace(userName), Password: password})
	if err != nil {
		s.log.Warn("login failed for %s: %v", strings.TrimSpace(userName), err)
		return State{}, err
	}
	if strings.TrimSpace(res.Token) == "" {
		return State{}, errors.New("session: login returned no token")
	}
	if err := s.store.Save(res.Token); err != nil {
		return State{}, err
	}
	user := res.User()
	if len(user.Roles) == 0 {
		if claims, err := ParseClaims(res.Token); err == nil {
			user.Roles = claims.Roles
		}
	}
	st := s.set(res.Token, user)
	s.log.Info("signed in as %s (%s)", user.UserName, strings.Join(user.Roles, ", "))
	return st, nil
}

// Logout clears the token and state.
func (s *Session) Logout() error {
	name := s.State().User.UserName
	err := s.reset()
	if name != "" {
		s.log.Info("signed out %s", name)
	}
	return err
}

// Invalidate is called when the service rejects the token. It clears the
// session and tells subscribers, once per authenticated session.
func (s *Session) Invalidate() {
	s.mu.RLock()
	had := s.token != ""
	s.mu.RUnlock()
	_ = s.reset()
	if !had {
		return
	}
	s.log.Warn("session rejected by server; signed out")
	s.notify(Event{Reason: "unauthorized"})
}

// Subscribe returns a channel receiving session events. Slow subscribers
// miss events rather than blocking the session.
func (s *Session) Subscribe() <-chan Event {
	ch := make(chan Event, 4)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *Session) notify(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Session) set(token string, user models.User) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.state = State{Authenticated: true, User: user}
	return s.state
}

func (s *Session) reset() error {
	s.mu.Lock()
	s.token = ""
	s.state = State{}
	s.mu.Unlock()
	return s.store.Clear()
}
