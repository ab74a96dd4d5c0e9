// Package session holds the authentication state of one console client: who
// is logged in, with which token, and which navigation tree they may see.
// A Session is an explicit object owned by its creator; nothing here is
// process-global.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/admin-console/internal/menutree"
	"github.com/iliyamo/admin-console/internal/model"
)

// Landing pages chosen after a successful login.
const (
	AdminLanding = "/admin/dashboard"
	UserLanding  = "/dashboard"
)

var (
	// ErrInvalidCredentials is the only error Login reports for a failed
	// attempt, whatever the underlying cause.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSuperseded is returned when a newer operation started before this
	// one resolved; its result was discarded.
	ErrSuperseded = errors.New("session: superseded by a newer operation")
)

// Grant is what the credential backend returns for an authenticated user.
// Menus is the flat list of active menus; the session assembles and filters
// the tree itself.
type Grant struct {
	User         model.User
	Token        string
	RefreshToken string
	ExpiresAt    time.Time
	Menus        []model.Menu
}

// Credentials is the external credential backend.
type Credentials interface {
	// Login exchanges an email and password for a grant.
	Login(ctx context.Context, email, password string) (Grant, error)
	// CurrentUser returns the grant of the session the backend currently
	// recognises, or nil when there is none.
	CurrentUser(ctx context.Context) (*Grant, error)
	// Logout invalidates the current token on the backend.
	Logout(ctx context.Context) error
}

// Option customises a Session.
type Option func(*Session)

// WithPublicLevel sets the access level every user may see.
func WithPublicLevel(id string) Option { return func(s *Session) { s.public = id } }

// WithLogger sets the logger used for swallowed restore failures.
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.logger = l } }

// Session is safe for concurrent use.  Each operation takes a ticket when it
// starts; when it resolves, its result is applied only if no newer operation
// has started since.  The last operation started wins.
type Session struct {
	creds  Credentials
	public string
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	ticket  uint64
	user    *model.User
	token   string
	refresh string
	expires time.Time
	menus   []*model.Menu
}

// New returns a session in the Authenticating state; call Restore to settle
// it.
func New(creds Credentials, opts ...Option) *Session {
	s := &Session{
		creds:  creds,
		public: menutree.DefaultPublicLevel,
		logger: slog.Default(),
		state:  Authenticating,
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With(slog.String("component", "session"))
	return s
}

// saved is the authenticated part of a session, kept aside while a login
// attempt is in flight.
type saved struct {
	state   State
	user    *model.User
	token   string
	refresh string
	expires time.Time
	menus   []*model.Menu
}

// begin moves the session into a transitional state and hands out a ticket
// together with what the session held before.
func (s *Session) begin(st State) (uint64, saved) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := saved{s.state, s.user, s.token, s.refresh, s.expires, s.menus}
	s.ticket++
	s.state = st
	return s.ticket, prev
}

// current reports whether t is still the newest ticket.  Callers hold mu.
func (s *Session) current(t uint64) bool { return s.ticket == t }

func (s *Session) apply(g Grant) {
	u := g.User
	s.user = &u
	s.token = g.Token
	s.refresh = g.RefreshToken
	s.expires = g.ExpiresAt
	s.menus = menutree.Filter(menutree.Build(g.Menus), u, s.public)
	s.state = Authenticated
}

func (s *Session) clear() {
	s.user = nil
	s.token = ""
	s.refresh = ""
	s.expires = time.Time{}
	s.menus = nil
	s.state = Unauthenticated
}

// Restore asks the backend for an existing session.  Failures are logged
// and treated as "no session".
func (s *Session) Restore(ctx context.Context) {
	t, _ := s.begin(Authenticating)
	g, err := s.creds.CurrentUser(ctx)
	if err != nil {
		s.logger.Warn("session restore failed", slog.String("error", err.Error()))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(t) {
		return
	}
	if err != nil || g == nil {
		s.clear()
		return
	}
	s.apply(*g)
}

// Login authenticates with the backend and returns the landing page for the
// user's role.  A failed attempt returns ErrInvalidCredentials and puts the
// session back where it was.
func (s *Session) Login(ctx context.Context, c model.LoginCredentials) (string, error) {
	t, prev := s.begin(Authenticating)
	g, err := s.creds.Login(ctx, c.Email, c.Password)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(t) {
		return "", ErrSuperseded
	}
	if err != nil {
		s.logger.Info("login failed", slog.String("email", c.Email), slog.String("error", err.Error()))
		if prev.state == Authenticated && prev.user != nil {
			s.user, s.token, s.refresh = prev.user, prev.token, prev.refresh
			s.expires, s.menus = prev.expires, prev.menus
			s.state = Authenticated
		} else {
			s.clear()
		}
		return "", ErrInvalidCredentials
	}
	s.apply(g)
	return Landing(g.User), nil
}

// Logout invalidates the token remotely and always clears the local state.
// The remote error, if any, is returned after the local logout happened.
func (s *Session) Logout(ctx context.Context) error {
	t, _ := s.begin(LoggingOut)
	err := s.creds.Logout(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(t) {
		return ErrSuperseded
	}
	s.clear()
	if err != nil {
		s.logger.Warn("remote logout failed", slog.String("error", err.Error()))
	}
	return err
}

// Landing returns the page a freshly logged-in user is sent to.
func Landing(u model.User) string {
	if u.IsAdmin() {
		return AdminLanding
	}
	return UserLanding
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsLoading reports whether an operation is in flight.
func (s *Session) IsLoading() bool { return s.State().Busy() }

// User returns the authenticated user.
func (s *Session) User() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token of the authenticated user.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Menus returns a copy of the filtered navigation tree.
func (s *Session) Menus() []*model.Menu {
	s.mu.Lock()
	defer s.mu.Unlock()
	return menutree.Clone(s.menus)
}

// Snapshot renders the session as an AuthResponse.  ok is false unless the
// session is authenticated.
func (s *Session) Snapshot() (model.AuthResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Authenticated || s.user == nil {
		return model.AuthResponse{}, false
	}
	menus := menutree.Clone(s.menus)
	if menus == nil {
		menus = []*model.Menu{}
	}
	return model.AuthResponse{
		User:         *s.user,
		Token:        s.token,
		RefreshToken: s.refresh,
		ExpiresAt:    s.expires,
		Menus:        menus,
	}, true
}
