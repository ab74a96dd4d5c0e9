package client

import (
	"context"
	"net/url"

	"github.com/iliyamo/admin-console/internal/model"
)

// Resource paths under the admin API.
const (
	Users        = "/v1/admin/users"
	Groups       = "/v1/admin/groups"
	AccessLevels = "/v1/admin/access-levels"
	Menus        = "/v1/admin/menus"
	Screens      = "/v1/admin/screens"
	Permissions  = "/v1/admin/permissions"
	Queries      = "/v1/analytics/queries"
	Reports      = "/v1/powerbi/reports"
)

// List fetches every record under a collection path such as Users.
func List[T any](ctx context.Context, c *Client, collection string) ([]T, error) {
	var out []T
	err := c.get(ctx, collection, nil, &out)
	return out, err
}

// Get fetches one record.
func Get[T any](ctx context.Context, c *Client, collection, id string) (T, error) {
	var out T
	err := c.get(ctx, collection+"/"+url.PathEscape(id), nil, &out)
	return out, err
}

// Create posts body to a collection and decodes the created record.
func Create[T any](ctx context.Context, c *Client, collection string, body any) (T, error) {
	var out T
	err := c.post(ctx, collection, body, &out)
	return out, err
}

// Update replaces one record and decodes the stored result.
func Update[T any](ctx context.Context, c *Client, collection, id string, body any) (T, error) {
	var out T
	err := c.put(ctx, collection+"/"+url.PathEscape(id), body, &out)
	return out, err
}

// Delete removes one record.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return c.delete(ctx, collection+"/"+url.PathEscape(id))
}

// UserInput is the body of a user create or update.  Password is required
// on create and optional on update.
type UserInput struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password,omitempty"`
	Role          string `json:"role,omitempty"`
	GroupID       string `json:"groupId,omitempty"`
	AccessLevelID string `json:"accessLevelId,omitempty"`
	Status        string `json:"status,omitempty"`
}

func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	return List[model.User](ctx, c, Users)
}

func (c *Client) CreateUser(ctx context.Context, in UserInput) (model.User, error) {
	return Create[model.User](ctx, c, Users, in)
}

func (c *Client) ListGroups(ctx context.Context) ([]model.Group, error) {
	return List[model.Group](ctx, c, Groups)
}

func (c *Client) ListAccessLevels(ctx context.Context) ([]model.AccessLevel, error) {
	return List[model.AccessLevel](ctx, c, AccessLevels)
}

// MenuTree returns every menu assembled into a tree, unfiltered.
func (c *Client) MenuTree(ctx context.Context) ([]*model.Menu, error) {
	var out []*model.Menu
	err := c.get(ctx, Menus+"/tree", nil, &out)
	return out, err
}

// ListPermissions returns the permissions, restricted to one access level
// when accessLevelID is set.
func (c *Client) ListPermissions(ctx context.Context, accessLevelID string) ([]model.Permission, error) {
	var q url.Values
	if accessLevelID != "" {
		q = url.Values{"accessLevelId": {accessLevelID}}
	}
	var out []model.Permission
	err := c.get(ctx, Permissions, q, &out)
	return out, err
}

// Screen opens a screen the caller may see.
func (c *Client) Screen(ctx context.Context, id string) (model.Screen, error) {
	var out model.Screen
	err := c.get(ctx, "/v1/screens/"+url.PathEscape(id), nil, &out)
	return out, err
}
