package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/admin-console/internal/guard"
	"github.com/iliyamo/admin-console/internal/model"
)

func (a *app) menusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menus",
		Short: "Print the navigation tree of the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.authenticated(cmd.Context())
			if err != nil {
				return err
			}
			printTree(cmd.OutOrStdout(), s.Menus(), 0)
			return nil
		},
	}
}

func printTree(w io.Writer, menus []*model.Menu, depth int) {
	for _, m := range menus {
		line := strings.Repeat("  ", depth) + m.Name
		switch {
		case m.Route != "":
			line += "  " + m.Route
		case m.ExternalURL != "":
			line += "  " + m.ExternalURL + " (external)"
		}
		fmt.Fprintln(w, line)
		printTree(w, m.Children, depth+1)
	}
}

func (a *app) checkCmd() *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "check <path>",
		Short: "Show what opening a console page would do",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			r := guard.Navigate(s, args[0])
			if remote {
				if r, err = c.Navigate(cmd.Context(), args[0]); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), describe(r))
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "ask the server instead of deciding locally")
	return cmd
}

func describe(r guard.Result) string {
	s := r.Decision.String()
	if r.Location != "" {
		s += " -> " + r.Location
	}
	if r.ReturnTo != "" {
		s += " (returnTo " + r.ReturnTo + ")"
	}
	return s
}
