package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/admin-console/internal/guard"
	"github.com/iliyamo/admin-console/internal/model"
	"github.com/iliyamo/admin-console/internal/session"
	"github.com/iliyamo/admin-console/pkg/client"
)

func (a *app) loginCmd() *cobra.Command {
	var email, password, returnTo string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = envOr("ADMINCTL_PASSWORD", "")
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return fmt.Errorf("--email and --password (or ADMINCTL_PASSWORD) are required")
			}
			ctx := cmd.Context()
			c := client.New(a.server)
			s := session.New(c, session.WithPublicLevel(a.publicLevel), session.WithLogger(a.logger))
			landing, err := s.Login(ctx, model.LoginCredentials{Email: email, Password: password})
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			u, _ := s.User()
			if err := saveToken(a.tokenFile, savedToken{Server: a.server, Email: u.Email, Token: c.Token(), RefreshToken: c.RefreshToken()}); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Logged in as %s <%s> (%s)\n", u.Name, u.Email, u.Role)
			fmt.Fprintf(out, "Open: %s\n", guard.AfterLogin(s, strings.TrimSpace(returnTo), landing))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&returnTo, "return-to", "", "page to open after login")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget the login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			var remote error
			if s.State() == session.Authenticated {
				remote = s.Logout(cmd.Context())
			}
			if err := removeToken(a.tokenFile); err != nil {
				return err
			}
			if remote != nil {
				return fmt.Errorf("logged out locally; server said: %w", remote)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.authenticated(cmd.Context())
			if err != nil {
				return err
			}
			snap, _ := s.Snapshot()
			u := snap.User
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", u.Name, u.Email)
			fmt.Fprintf(out, "role: %s  group: %s  access level: %s\n", u.Role, u.GroupID, u.AccessLevelID)
			if !snap.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "token expires: %s\n", snap.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func (a *app) refreshCmd() *cobra.Command {
	var rotate bool
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Renew the access token with the saved refresh token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			if c.RefreshToken() == "" {
				return errNotLoggedIn
			}
			resp, err := c.Refresh(cmd.Context(), rotate)
			if err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}
			if err := saveToken(a.tokenFile, savedToken{Server: a.server, Email: resp.User.Email, Token: c.Token(), RefreshToken: c.RefreshToken()}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token renewed for %s.\n", resp.User.Email)
			return nil
		},
	}
	cmd.Flags().BoolVar(&rotate, "rotate", true, "also replace the refresh token")
	return cmd
}
