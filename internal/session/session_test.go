package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/admin-console/internal/model"
)

func strPtr(s string) *string { return &s }

var testMenus = []model.Menu{
	{ID: "1", Name: "Dashboard", AccessLevelID: strPtr("2"), Order: 1, IsActive: true},
	{ID: "2", Name: "Administration", AccessLevelID: strPtr("1"), Order: 2, IsActive: true},
	{ID: "3", Name: "Users", ParentID: strPtr("2"), AccessLevelID: strPtr("1"), Order: 1, IsActive: true},
}

var users = map[string]struct {
	password string
	user     model.User
}{
	"admin@example.com": {"admin", model.User{ID: "1", Email: "admin@example.com", Role: model.RoleAdmin, AccessLevelID: "1"}},
	"user@example.com":  {"user", model.User{ID: "2", Email: "user@example.com", Role: model.RoleUser, AccessLevelID: "2"}},
}

// fakeCredentials is an in-memory credential backend.
type fakeCredentials struct {
	current    *Grant
	restoreErr error
	logoutErr  error
	loginErr   error
	entered    chan struct{}
	release    chan struct{}
	logouts    int
}

func (f *fakeCredentials) Login(ctx context.Context, email, password string) (Grant, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	if f.loginErr != nil {
		return Grant{}, f.loginErr
	}
	u, ok := users[email]
	if !ok || u.password != password {
		return Grant{}, errors.New("backend: wrong password")
	}
	g := Grant{User: u.user, Token: "tok-" + u.user.ID, Menus: testMenus}
	f.current = &g
	return g, nil
}

func (f *fakeCredentials) CurrentUser(ctx context.Context) (*Grant, error) {
	if f.restoreErr != nil {
		return nil, f.restoreErr
	}
	return f.current, nil
}

func (f *fakeCredentials) Logout(ctx context.Context) error {
	f.logouts++
	f.current = nil
	return f.logoutErr
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newSession(f *fakeCredentials) *Session { return New(f, WithLogger(quietLogger())) }

func TestNew_StartsAuthenticating(t *testing.T) {
	s := newSession(&fakeCredentials{})
	assert.Equal(t, Authenticating, s.State())
	assert.True(t, s.IsLoading())
}

func TestRestore_NoSession(t *testing.T) {
	s := newSession(&fakeCredentials{})
	s.Restore(context.Background())

	assert.Equal(t, Unauthenticated, s.State())
	_, ok := s.User()
	assert.False(t, ok)
}

func TestRestore_ErrorTreatedAsNoSession(t *testing.T) {
	s := newSession(&fakeCredentials{restoreErr: errors.New("network down")})
	s.Restore(context.Background())

	assert.Equal(t, Unauthenticated, s.State())
}

func TestRestore_ExistingSessionFiltersMenus(t *testing.T) {
	g := Grant{User: users["user@example.com"].user, Token: "tok", Menus: testMenus}
	s := newSession(&fakeCredentials{current: &g})
	s.Restore(context.Background())

	require.Equal(t, Authenticated, s.State())
	assert.Equal(t, "tok", s.Token())
	menus := s.Menus()
	require.Len(t, menus, 1)
	assert.Equal(t, "1", menus[0].ID)
}

func TestLogin_Admin(t *testing.T) {
	s := newSession(&fakeCredentials{})
	s.Restore(context.Background())

	redirect, err := s.Login(context.Background(), model.LoginCredentials{Email: "admin@example.com", Password: "admin"})
	require.NoError(t, err)

	assert.Equal(t, AdminLanding, redirect)
	assert.Equal(t, Authenticated, s.State())
	u, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, model.RoleAdmin, u.Role)

	menus := s.Menus()
	require.Len(t, menus, 2)
	assert.Len(t, menus[1].Children, 1)
}

func TestLogin_UserLanding(t *testing.T) {
	s := newSession(&fakeCredentials{})
	redirect, err := s.Login(context.Background(), model.LoginCredentials{Email: "user@example.com", Password: "user"})
	require.NoError(t, err)
	assert.Equal(t, UserLanding, redirect)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newSession(&fakeCredentials{})
	s.Restore(context.Background())

	_, err := s.Login(context.Background(), model.LoginCredentials{Email: "admin@example.com", Password: "nope"})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, Unauthenticated, s.State())
	_, ok := s.Snapshot()
	assert.False(t, ok)
}

func TestLogin_TransportErrorCollapses(t *testing.T) {
	s := newSession(&fakeCredentials{loginErr: errors.New("dial tcp: connection refused")})

	_, err := s.Login(context.Background(), model.LoginCredentials{Email: "admin@example.com", Password: "admin"})

	assert.Equal(t, ErrInvalidCredentials, err)
	assert.Equal(t, Unauthenticated, s.State())
}

func TestLogin_FailureKeepsPreviousSession(t *testing.T) {
	f := &fakeCredentials{}
	s := newSession(f)
	_, err := s.Login(context.Background(), model.LoginCredentials{Email: "user@example.com", Password: "user"})
	require.NoError(t, err)

	_, err = s.Login(context.Background(), model.LoginCredentials{Email: "admin@example.com", Password: "bad"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Equal(t, Authenticated, s.State())
	u, _ := s.User()
	assert.Equal(t, "2", u.ID)
}

func TestLogout_ClearsLocalStateEvenWhenRemoteFails(t *testing.T) {
	f := &fakeCredentials{logoutErr: errors.New("backend unavailable")}
	s := newSession(f)
	_, err := s.Login(context.Background(), model.LoginCredentials{Email: "admin@example.com", Password: "admin"})
	require.NoError(t, err)

	err = s.Logout(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 1, f.logouts)
	assert.Equal(t, Unauthenticated, s.State())
	assert.Empty(t, s.Token())
	assert.Empty(t, s.Menus())
	_, ok := s.User()
	assert.False(t, ok)
}

func TestLogin_SupersededByLaterOperation(t *testing.T) {
	f := &fakeCredentials{entered: make(chan struct{}), release: make(chan struct{})}
	s := newSession(f)

	done := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background(), model.LoginCredentials{Email: "admin@example.com", Password: "admin"})
		done <- err
	}()
	<-f.entered

	// a logout started while the login is still pending wins
	f.entered = nil
	require.NoError(t, s.Logout(context.Background()))
	close(f.release)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, Unauthenticated, s.State())
	_, ok := s.User()
	assert.False(t, ok)
}

func TestSnapshot(t *testing.T) {
	s := newSession(&fakeCredentials{})
	_, err := s.Login(context.Background(), model.LoginCredentials{Email: "user@example.com", Password: "user"})
	require.NoError(t, err)

	resp, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "tok-2", resp.Token)
	assert.Equal(t, "user@example.com", resp.User.Email)
	assert.Len(t, resp.Menus, 1)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "logging_out", LoggingOut.String())
	assert.False(t, Authenticated.Busy())
}
