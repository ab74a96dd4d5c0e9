// Package cli implements adminctl, a command-line console that keeps a
// login session against the admin console API.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/admin-console/internal/menutree"
	"github.com/iliyamo/admin-console/internal/session"
	"github.com/iliyamo/admin-console/pkg/client"
)

// app holds the persistent flags shared by every command.
type app struct {
	server      string
	tokenFile   string
	publicLevel string
	logger      *slog.Logger
}

// NewRootCmd builds the adminctl command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "adminctl",
		Short:         "Command-line client for the admin console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
		},
	}
	root.PersistentFlags().StringVar(&a.server, "server", envOr("ADMINCTL_SERVER", "http://localhost:8080"), "URL of the console API")
	root.PersistentFlags().StringVar(&a.tokenFile, "token-file", envOr("ADMINCTL_TOKEN_FILE", defaultTokenFile()), "where the login is kept")
	root.PersistentFlags().StringVar(&a.publicLevel, "public-level", menutree.DefaultPublicLevel, "access level every user may see")

	root.AddCommand(
		a.loginCmd(), a.logoutCmd(), a.whoamiCmd(), a.refreshCmd(),
		a.menusCmd(), a.checkCmd(),
		a.usersCmd(), a.groupsCmd(), a.queryCmd(), a.reportCmd(),
	)
	return root
}

// Execute runs adminctl and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// client returns an API client carrying the saved tokens, if any.
func (a *app) client() (*client.Client, error) {
	t, err := loadToken(a.tokenFile)
	if err != nil {
		return nil, err
	}
	if t.Server != "" && t.Server != a.server {
		return client.New(a.server), nil
	}
	return client.New(a.server, client.WithToken(t.Token, t.RefreshToken)), nil
}

// session restores the saved login into a console session.
func (a *app) session(ctx context.Context) (*session.Session, *client.Client, error) {
	c, err := a.client()
	if err != nil {
		return nil, nil, err
	}
	s := session.New(c, session.WithPublicLevel(a.publicLevel), session.WithLogger(a.logger))
	s.Restore(ctx)
	return s, c, nil
}

// authenticated is session for commands that need a login.
func (a *app) authenticated(ctx context.Context) (*session.Session, *client.Client, error) {
	s, c, err := a.session(ctx)
	if err != nil {
		return nil, nil, err
	}
	if s.State() != session.Authenticated {
		return nil, nil, errNotLoggedIn
	}
	return s, c, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".adminctl-token.json"
	}
	return filepath.Join(dir, "adminctl", "token.json")
}
