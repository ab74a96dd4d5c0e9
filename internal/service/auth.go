// Package service holds the console's credential backend: password checks,
// token issuing and revocation on top of a repository.Store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iliyamo/admin-console/internal/config"
	"github.com/iliyamo/admin-console/internal/model"
	"github.com/iliyamo/admin-console/internal/queue"
	"github.com/iliyamo/admin-console/internal/repository"
	"github.com/iliyamo/admin-console/internal/session"
	"github.com/iliyamo/admin-console/internal/utils"
)

var loginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "console_logins_total",
		Help: "Login attempts by result",
	},
	[]string{"result"},
)

// ErrInvalidRefresh is returned for unknown, revoked or expired refresh
// tokens and for tokens whose user is gone or blocked.
var ErrInvalidRefresh = errors.New("invalid refresh token")

// AuthService authenticates users against the Store and issues tokens.
type AuthService struct {
	Store  *repository.Store
	Cfg    config.Config
	Audit  queue.Auditor
	Logger *slog.Logger
}

// NewAuthService wires an AuthService.  A nil auditor discards events.
func NewAuthService(store *repository.Store, cfg config.Config, audit queue.Auditor, logger *slog.Logger) *AuthService {
	if audit == nil {
		audit = queue.Nop{}
	}
	return &AuthService{Store: store, Cfg: cfg, Audit: audit, Logger: logger.With(slog.String("component", "auth"))}
}

// Authenticate checks email and password and issues an access/refresh
// pair.  Unknown emails, wrong passwords and blocked accounts all yield
// session.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (session.Grant, error) {
	u, hash, err := s.Store.Users.GetCredentials(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.BurnPasswordCheck(password)
		return s.reject(ctx, email, "unknown email")
	case err != nil:
		loginsTotal.WithLabelValues("error").Inc()
		return session.Grant{}, fmt.Errorf("load credentials: %w", err)
	}
	if !utils.VerifyPassword(hash, password) {
		return s.reject(ctx, u.Email, "wrong password")
	}
	if u.Status != model.StatusActive {
		return s.reject(ctx, u.Email, "account blocked")
	}

	g, err := s.issue(ctx, u)
	if err != nil {
		loginsTotal.WithLabelValues("error").Inc()
		return session.Grant{}, err
	}
	loginsTotal.WithLabelValues("success").Inc()
	s.Audit.Record(ctx, queue.AuditEvent{Action: queue.ActionLogin, ActorID: u.ID, ActorEmail: u.Email})
	return g, nil
}

func (s *AuthService) reject(ctx context.Context, email, reason string) (session.Grant, error) {
	loginsTotal.WithLabelValues("rejected").Inc()
	s.Logger.Info("login rejected", slog.String("email", email), slog.String("reason", reason))
	s.Audit.Record(ctx, queue.AuditEvent{Action: queue.ActionLoginFailed, ActorEmail: email, Detail: reason})
	return session.Grant{}, session.ErrInvalidCredentials
}

// issue signs a new access token, stores a new refresh token and loads
// the flat list of active menus.
func (s *AuthService) issue(ctx context.Context, u model.User) (session.Grant, error) {
	access, err := utils.NewAccessToken(s.Cfg.JWTSecret, u.ID, u.Role, u.AccessLevelID, s.Cfg.AccessTTLMin)
	if err != nil {
		return session.Grant{}, fmt.Errorf("issue access: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.Cfg.RefreshTTLDays)
	if err != nil {
		return session.Grant{}, fmt.Errorf("issue refresh: %w", err)
	}
	if err := s.Store.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return session.Grant{}, fmt.Errorf("save refresh: %w", err)
	}
	menus, err := s.Store.Menus.ListActive(ctx)
	if err != nil {
		return session.Grant{}, fmt.Errorf("load menus: %w", err)
	}
	return session.Grant{User: u, Token: access.Token, RefreshToken: refresh.Raw, ExpiresAt: access.Exp, Menus: menus}, nil
}

// Resume returns the grant behind a bearer token, or nil when the token is
// malformed, expired, revoked, or belongs to a user who is gone or blocked.
// Only infrastructure failures are returned as errors.
func (s *AuthService) Resume(ctx context.Context, token string) (*session.Grant, error) {
	claims, err := utils.ParseAccessToken(s.Cfg.JWTSecret, token)
	if err != nil {
		return nil, nil
	}
	denied, err := s.Store.Denylist.IsDenied(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check denylist: %w", err)
	}
	if denied {
		return nil, nil
	}
	u, err := s.Store.Users.Get(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u.Status != model.StatusActive {
		return nil, nil
	}
	menus, err := s.Store.Menus.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load menus: %w", err)
	}
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return &session.Grant{User: u, Token: token, ExpiresAt: exp, Menus: menus}, nil
}

// Revoke denies the access token until it expires and revokes every
// refresh token of its user.  Tokens that no longer verify are ignored.
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	claims, err := utils.ParseAccessToken(s.Cfg.JWTSecret, token)
	if err != nil {
		return nil
	}
	var errs []error
	if claims.ExpiresAt != nil {
		if err := s.Store.Denylist.Deny(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			errs = append(errs, fmt.Errorf("deny access token: %w", err))
		}
	}
	if err := s.Store.Tokens.RevokeAllForUser(ctx, claims.Subject); err != nil {
		errs = append(errs, fmt.Errorf("revoke refresh tokens: %w", err))
	}
	s.Audit.Record(ctx, queue.AuditEvent{Action: queue.ActionLogout, ActorID: claims.Subject})
	return errors.Join(errs...)
}

// Refresh exchanges a refresh token for a new access token.  With rotate
// the presented token is revoked and a new one issued; without it only a
// new access token is returned and RefreshToken is empty.
func (s *AuthService) Refresh(ctx context.Context, raw string, rotate bool) (session.Grant, error) {
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.Store.Tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return session.Grant{}, ErrInvalidRefresh
	}
	if err != nil {
		return session.Grant{}, fmt.Errorf("validate refresh: %w", err)
	}
	u, err := s.Store.Users.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && u.Status != model.StatusActive) {
		_ = s.Store.Tokens.RevokeByHash(ctx, hash)
		return session.Grant{}, ErrInvalidRefresh
	}
	if err != nil {
		return session.Grant{}, fmt.Errorf("load user: %w", err)
	}

	if rotate {
		if err := s.Store.Tokens.RevokeByHash(ctx, hash); err != nil {
			return session.Grant{}, fmt.Errorf("revoke refresh: %w", err)
		}
		return s.issue(ctx, u)
	}
	access, err := utils.NewAccessToken(s.Cfg.JWTSecret, u.ID, u.Role, u.AccessLevelID, s.Cfg.AccessTTLMin)
	if err != nil {
		return session.Grant{}, fmt.Errorf("issue access: %w", err)
	}
	menus, err := s.Store.Menus.ListActive(ctx)
	if err != nil {
		return session.Grant{}, fmt.Errorf("load menus: %w", err)
	}
	return session.Grant{User: u, Token: access.Token, ExpiresAt: access.Exp, Menus: menus}, nil
}

// Bind returns the session.Credentials view of this service for one
// bearer token (empty when the caller has none).
func (s *AuthService) Bind(token string) *BoundCredentials {
	return &BoundCredentials{Auth: s, Token: token}
}

// BoundCredentials adapts AuthService to session.Credentials for a single
// request.  A successful Login rebinds it to the new token.
type BoundCredentials struct {
	Auth  *AuthService
	Token string
}

func (b *BoundCredentials) Login(ctx context.Context, email, password string) (session.Grant, error) {
	g, err := b.Auth.Authenticate(ctx, email, password)
	if err == nil {
		b.Token = g.Token
	}
	return g, err
}

func (b *BoundCredentials) CurrentUser(ctx context.Context) (*session.Grant, error) {
	if b.Token == "" {
		return nil, nil
	}
	return b.Auth.Resume(ctx, b.Token)
}

func (b *BoundCredentials) Logout(ctx context.Context) error {
	if b.Token == "" {
		return nil
	}
	err := b.Auth.Revoke(ctx, b.Token)
	b.Token = ""
	return err
}
