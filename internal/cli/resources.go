package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iliyamo/admin-console/internal/analytics"
	"github.com/iliyamo/admin-console/pkg/client"
)

func table(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cells ...any) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

func (a *app) usersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Manage user accounts (admin)"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			users, err := c.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			tw := table(cmd.OutOrStdout(), "ID", "NAME", "EMAIL", "ROLE", "GROUP", "LEVEL", "STATUS")
			for _, u := range users {
				row(tw, u.ID, u.Name, u.Email, u.Role, u.GroupID, u.AccessLevelID, u.Status)
			}
			return tw.Flush()
		},
	}

	var in client.UserInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			u, err := c.CreateUser(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s).\n", u.ID, u.Email)
			return nil
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "display name")
	create.Flags().StringVar(&in.Email, "email", "", "login email")
	create.Flags().StringVar(&in.Password, "password", "", "initial password")
	create.Flags().StringVar(&in.Role, "role", "user", "admin or user")
	create.Flags().StringVar(&in.GroupID, "group", "", "group id")
	create.Flags().StringVar(&in.AccessLevelID, "access-level", "", "access level id (default: the group's)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.Delete(cmd.Context(), client.Users, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "User deleted.")
			return nil
		},
	}

	cmd.AddCommand(list, create, del)
	return cmd
}

func (a *app) groupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List groups (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			groups, err := c.ListGroups(cmd.Context())
			if err != nil {
				return err
			}
			tw := table(cmd.OutOrStdout(), "ID", "NAME", "LEVEL", "DESCRIPTION")
			for _, g := range groups {
				row(tw, g.ID, g.Name, g.AccessLevelID, g.Description)
			}
			return tw.Flush()
		},
	}
}

func (a *app) queryCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "query", Short: "Run analytics queries"}
	var opts client.PageOptions
	pageFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&opts.Filter, "filter", "", "keep rows with a cell containing this text")
		c.Flags().IntVar(&opts.Page, "page", 1, "page number")
		c.Flags().IntVar(&opts.Size, "size", analytics.DefaultPageSize, "rows per page")
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			qs, err := c.ListQueries(cmd.Context())
			if err != nil {
				return err
			}
			tw := table(cmd.OutOrStdout(), "ID", "NAME", "DESCRIPTION")
			for _, q := range qs {
				row(tw, q.ID, q.Name, q.Description)
			}
			return tw.Flush()
		},
	}

	run := &cobra.Command{
		Use:   "run <id>",
		Short: "Run a saved query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			p, err := c.RunQuery(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), p)
		},
	}
	pageFlags(run)

	exec := &cobra.Command{
		Use:   "exec <sql>",
		Short: "Run an ad-hoc statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			p, err := c.Execute(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), p)
		},
	}
	pageFlags(exec)

	cmd.AddCommand(list, run, exec)
	return cmd
}

// printPage renders rows in column order.  Results without column names
// fall back to the sorted keys of the first row.
func printPage(w io.Writer, p analytics.Page) error {
	cols := p.Columns
	if len(cols) == 0 && len(p.Rows) > 0 {
		for k := range p.Rows[0] {
			cols = append(cols, k)
		}
		sort.Strings(cols)
	}
	tw := table(w, cols...)
	for _, r := range p.Rows {
		cells := make([]any, len(cols))
		for i, c := range cols {
			if v := r[c]; v != nil {
				cells[i] = v
			} else {
				cells[i] = "NULL"
			}
		}
		row(tw, cells...)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "page %d/%d, %d rows\n", p.Page, p.Pages, p.Total)
	return err
}

func (a *app) reportCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "Embedded BI reports"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			rs, err := c.ListReports(cmd.Context())
			if err != nil {
				return err
			}
			tw := table(cmd.OutOrStdout(), "ID", "NAME", "REPORT", "WORKSPACE")
			for _, r := range rs {
				row(tw, r.ID, r.Name, r.ReportID, r.WorkspaceID)
			}
			return tw.Flush()
		},
	}

	embed := &cobra.Command{
		Use:   "embed <id>",
		Short: "Print the embed URL and token of a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			info, err := c.Embed(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "url:   %s\n", info.EmbedURL)
			if info.EmbedToken != "" {
				fmt.Fprintf(out, "token: %s\n", info.EmbedToken)
			}
			return nil
		},
	}

	cmd.AddCommand(list, embed)
	return cmd
}
