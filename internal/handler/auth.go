package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-console/internal/guard"
	"github.com/iliyamo/admin-console/internal/menutree"
	"github.com/iliyamo/admin-console/internal/middleware"
	"github.com/iliyamo/admin-console/internal/model"
	"github.com/iliyamo/admin-console/internal/repository"
	"github.com/iliyamo/admin-console/internal/service"
	"github.com/iliyamo/admin-console/internal/session"
)

// AuthHandler serves login, token refresh, logout and the session views.
type AuthHandler struct {
	Auth        *service.AuthService
	PublicLevel string
	Logger      *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, publicLevel string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, PublicLevel: publicLevel, Logger: logger.With(slog.String("component", "handler.auth"))}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ReturnTo string `json:"returnTo"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

// Login authenticates through a fresh session and answers with the
// session's AuthResponse.  Redirect is the captured returnTo when the user
// may open it, the role's landing page otherwise.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	req.Email = repository.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s := session.New(h.Auth.Bind(""), session.WithPublicLevel(h.PublicLevel), session.WithLogger(h.Logger))
	landing, err := s.Login(ctx, model.LoginCredentials{Email: req.Email, Password: req.Password})
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	resp, _ := s.Snapshot()
	resp.Redirect = guard.AfterLogin(s, strings.TrimSpace(req.ReturnTo), landing)
	return c.JSON(http.StatusOK, resp)
}

// Refresh exchanges a refresh token for a new pair; the presented token is
// revoked.
func (h *AuthHandler) Refresh(c echo.Context) error { return h.refresh(c, true) }

// RefreshAccess issues a new access token and keeps the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error { return h.refresh(c, false) }

func (h *AuthHandler) refresh(c echo.Context, rotate bool) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	g, err := h.Auth.Refresh(ctx, req.RefreshToken, rotate)
	if errors.Is(err, service.ErrInvalidRefresh) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, model.AuthResponse{
		User:         g.User,
		Token:        g.Token,
		RefreshToken: g.RefreshToken,
		ExpiresAt:    g.ExpiresAt,
		Menus:        h.menus(g),
	})
}

func (h *AuthHandler) menus(g session.Grant) []*model.Menu {
	out := menutree.Filter(menutree.Build(g.Menus), g.User, h.PublicLevel)
	if out == nil {
		out = []*model.Menu{}
	}
	return out
}

// Logout revokes the bearer token and every refresh token of its user.
// The local session is cleared even when revocation partly fails.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := middleware.SessionFrom(c).Logout(ctx); err != nil {
		return fail(c, h.Logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Session returns the current AuthResponse (getCurrentUser).
func (h *AuthHandler) Session(c echo.Context) error {
	resp, ok := middleware.SessionFrom(c).Snapshot()
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	u, _ := actor(c)
	return c.JSON(http.StatusOK, u)
}

// Menus returns the navigation tree filtered for the authenticated user.
func (h *AuthHandler) Menus(c echo.Context) error {
	menus := middleware.SessionFrom(c).Menus()
	if menus == nil {
		menus = []*model.Menu{}
	}
	return c.JSON(http.StatusOK, menus)
}

// Navigation answers what the console should do when the caller opens
// ?path=.  Anonymous callers are allowed; they get login redirects.
func (h *AuthHandler) Navigation(c echo.Context) error {
	path := strings.TrimSpace(c.QueryParam("path"))
	if path == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "path required"})
	}
	return c.JSON(http.StatusOK, guard.Navigate(middleware.SessionFrom(c), path))
}
