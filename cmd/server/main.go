package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/admin-console/internal/analytics"
	"github.com/iliyamo/admin-console/internal/config"
	"github.com/iliyamo/admin-console/internal/database"
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

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.SetupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient(config.LoadRedisConfig(), logger)
	if rdb != nil {
		defer rdb.Close()
	}

	store, db, err := openStore(ctx, cfg, rdb, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	if cfg.SeedDemo {
		hash := func(p string) (string, error) { return utils.HashPassword(p, cfg.BcryptCost) }
		if err := repository.SeedDemo(ctx, store, hash); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		logger.Info("demo data seeded", slog.String("admin", "admin@example.com"), slog.String("user", "user@example.com"))
	}

	exec, closeExec, err := openExecutor(cfg, db)
	if err != nil {
		return err
	}
	defer closeExec()

	var auditor queue.Auditor = queue.LogAuditor{Logger: logger.With(slog.String("component", "audit"))}
	g, gctx := errgroup.WithContext(ctx)
	if cfg.AMQPURL != "" {
		pub := queue.NewPublisher(cfg.AMQPURL, cfg.AuditQueue, logger)
		defer pub.Close()
		auditor = pub
		consumer := &queue.Consumer{URL: cfg.AMQPURL, Queue: cfg.AuditQueue, LogPath: cfg.AuditLogPath, Logger: logger}
		g.Go(func() error {
			if err := consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	var embed powerbi.EmbedProvider = powerbi.StaticProvider{URLTemplate: cfg.PowerBIURLTemplate}
	if cfg.PowerBIEndpoint != "" {
		embed = powerbi.NewHTTPProvider(cfg.PowerBIEndpoint, cfg.PowerBIAPIKey)
	}

	auth := service.NewAuthService(store, cfg, auditor, logger)
	session := middleware.Session(auth, cfg.PublicAccessLevelID, logger)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger)

	var ping func(context.Context) error
	if db != nil {
		ping = func(ctx context.Context) error { return database.Ready(ctx, db) }
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.Metrics())
	router.RegisterRoutes(e, handler.Ready(ping))
	router.RegisterAuth(e, handler.NewAuthHandler(auth, cfg.PublicAccessLevelID, logger), session, limit)
	router.RegisterAdmin(e, handler.NewAdminHandler(store, auditor, cfg.BcryptCost, logger), session)
	router.RegisterConsole(e,
		handler.NewScreenHandler(store.Screens, cfg.PublicAccessLevelID, logger),
		handler.NewAnalyticsHandler(store.Queries, exec, auditor, logger),
		handler.NewPowerBIHandler(store.Reports, embed, auditor, logger),
		session, limit, cache,
	)

	addr := ":" + cfg.Port
	g.Go(func() error {
		logger.Info("listening", slog.String("addr", addr), slog.String("backend", cfg.DataBackend))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore returns the configured Store.  For MySQL it also returns the
// pool, after applying migrations when enabled.
func openStore(ctx context.Context, cfg config.Config, rdb *redis.Client, logger *slog.Logger) (*repository.Store, *sql.DB, error) {
	if cfg.DataBackend == config.BackendMemory {
		return memory.New(), nil, nil
	}

	db, err := database.Open(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(cfg.MigrateURL(), logger); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	var deny repository.Denylist = memory.NewDenylist()
	if rdb != nil {
		deny = repository.NewRedisDenylist(rdb, "console:deny")
	}
	return repository.NewMySQLStore(db, deny), db, nil
}

// openExecutor builds the SQL runner: on ANALYTICS_DSN when set, else on
// the main pool.  With neither, every execution fails with a QueryError.
func openExecutor(cfg config.Config, db *sql.DB) (analytics.Executor, func(), error) {
	if cfg.AnalyticsDSN == "" {
		return analytics.NewSQLExecutor(db), func() {}, nil
	}
	adb, err := sql.Open("mysql", cfg.AnalyticsDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open analytics db: %w", err)
	}
	return analytics.NewSQLExecutor(adb), func() { _ = adb.Close() }, nil
}
