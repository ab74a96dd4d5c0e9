// Package consoletest starts a complete console API on the in-memory store
// for tests of HTTP consumers.
package consoletest

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/admin-console/internal/analytics"
	"github.com/iliyamo/admin-console/internal/config"
	"github.com/iliyamo/admin-console/internal/handler"
	"github.com/iliyamo/admin-console/internal/middleware"
	"github.com/iliyamo/admin-console/internal/powerbi"
	"github.com/iliyamo/admin-console/internal/queue"
	"github.com/iliyamo/admin-console/internal/repository"
	"github.com/iliyamo/admin-console/internal/repository/memory"
	"github.com/iliyamo/admin-console/internal/router"
	"github.com/iliyamo/admin-console/internal/service"
	"github.com/iliyamo/admin-console/internal/utils"
)

// PublicLevel is the public access level of the test server.
const PublicLevel = "2"

// Executor answers every statement with Result, or Err when set.
type Executor struct {
	Result analytics.Result
	Err    error
}

func (e *Executor) Execute(_ context.Context, sql string) (analytics.Result, error) {
	if e.Err != nil {
		return analytics.Result{}, e.Err
	}
	return e.Result, nil
}

// Server is a running console API seeded with the demo data.
type Server struct {
	*httptest.Server
	Store *repository.Store
	Exec  *Executor
}

// New starts a server that is closed when t finishes.  Embeds come from a
// static provider at https://bi.example.com/{reportId}.
func New(t testing.TB) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	err := repository.SeedDemo(context.Background(), store, func(p string) (string, error) {
		return utils.HashPassword(p, bcrypt.MinCost)
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 1, BcryptCost: bcrypt.MinCost, PublicAccessLevelID: PublicLevel}
	auth := service.NewAuthService(store, cfg, queue.Nop{}, logger)
	exec := &Executor{}
	embed := powerbi.StaticProvider{URLTemplate: "https://bi.example.com/{reportId}"}

	pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	session := middleware.Session(auth, PublicLevel, logger)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, handler.Ready(nil))
	router.RegisterAuth(e, handler.NewAuthHandler(auth, PublicLevel, logger), session, pass)
	router.RegisterAdmin(e, handler.NewAdminHandler(store, queue.Nop{}, cfg.BcryptCost, logger), session)
	router.RegisterConsole(e,
		handler.NewScreenHandler(store.Screens, PublicLevel, logger),
		handler.NewAnalyticsHandler(store.Queries, exec, queue.Nop{}, logger),
		handler.NewPowerBIHandler(store.Reports, embed, queue.Nop{}, logger),
		session, pass, pass,
	)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &Server{Server: srv, Store: store, Exec: exec}
}
