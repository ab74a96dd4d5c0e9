package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/admin-console/internal/model"
)

// Demo account passwords.
const (
	DemoAdminPassword = "admin"
	DemoUserPassword  = "user"
)

// SeedDemo loads the demo data set: the "Full Access" and "Basic Access"
// levels, two groups, an admin and a regular user, and the default menu
// tree.  Rows that already exist are left alone, so seeding twice is a
// no-op.  hash turns a plain password into the stored hash.
func SeedDemo(ctx context.Context, s *Store, hash func(string) (string, error)) error {
	str := func(v string) *string { return &v }

	levels := []model.AccessLevel{
		{ID: "1", Name: "Full Access", Description: "Complete system access"},
		{ID: "2", Name: "Basic Access", Description: "Limited system access"},
	}
	for i := range levels {
		if err := skipExisting(s.AccessLevels.Create(ctx, &levels[i])); err != nil {
			return fmt.Errorf("seed access level %s: %w", levels[i].ID, err)
		}
	}

	groups := []model.Group{
		{ID: "1", Name: "Administrators", Description: "System administrators with full access", AccessLevelID: "1"},
		{ID: "2", Name: "Users", Description: "Regular system users", AccessLevelID: "2"},
	}
	for i := range groups {
		if err := skipExisting(s.Groups.Create(ctx, &groups[i])); err != nil {
			return fmt.Errorf("seed group %s: %w", groups[i].ID, err)
		}
	}

	users := []struct {
		user     model.User
		password string
	}{
		{model.User{ID: "1", Name: "Admin User", Email: "admin@example.com", Role: model.RoleAdmin, GroupID: "1", AccessLevelID: "1", Status: model.StatusActive}, DemoAdminPassword},
		{model.User{ID: "2", Name: "Regular User", Email: "user@example.com", Role: model.RoleUser, GroupID: "2", AccessLevelID: "2", Status: model.StatusActive}, DemoUserPassword},
	}
	for i := range users {
		if _, err := s.Users.Get(ctx, users[i].user.ID); err == nil {
			continue
		}
		h, err := hash(users[i].password)
		if err != nil {
			return err
		}
		if err := skipExisting(s.Users.Create(ctx, &users[i].user, h)); err != nil {
			return fmt.Errorf("seed user %s: %w", users[i].user.ID, err)
		}
	}

	menu := func(id, name, icon, route, parent, level string, order int) model.Menu {
		m := model.Menu{ID: id, Name: name, Icon: icon, Route: route, RequiresAuth: true, AccessLevelID: str(level), Order: order, IsActive: true}
		if parent != "" {
			m.ParentID = str(parent)
		}
		return m
	}
	menus := []model.Menu{
		menu("1", "Dashboard", "LayoutDashboard", "/dashboard", "", "2", 1),
		menu("2", "Administration", "Settings", "", "", "1", 2),
		menu("3", "Users", "Users", "/admin/users", "2", "1", 1),
		menu("4", "Groups", "UserCircle", "/admin/groups", "2", "1", 2),
		menu("5", "Access Levels", "Shield", "/admin/access-levels", "2", "1", 3),
		menu("6", "Menus", "Menu", "/admin/menus", "2", "1", 4),
		menu("7", "Screens", "Monitor", "/admin/screens", "2", "1", 5),
		menu("9", "Analytics", "BarChart", "", "", "2", 3),
		menu("10", "SQL Queries", "Database", "/analytics/queries", "9", "2", 1),
		menu("11", "Power BI", "PieChart", "", "", "2", 4),
		menu("12", "Reports", "FileBarChart", "/powerbi/reports", "11", "2", 1),
		menu("8", "External System", "ExternalLink", "", "", "2", 5),
	}
	menus[len(menus)-1].ExternalURL = "https://example.com"
	for i := range menus {
		if err := skipExisting(s.Menus.Create(ctx, &menus[i])); err != nil {
			return fmt.Errorf("seed menu %s: %w", menus[i].ID, err)
		}
	}
	return nil
}

func skipExisting(err error) error {
	if errors.Is(err, ErrConflict) {
		return nil
	}
	return err
}
