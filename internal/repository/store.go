package repository

import (
	"context"
	"time"

	"github.com/iliyamo/admin-console/internal/model"
)

// CRUD is the common contract of every managed entity.  Get, Update and
// Delete return ErrNotFound for unknown ids; Create assigns ID (when empty)
// and timestamps on the passed value.
type CRUD[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, v *T) error
	Update(ctx context.Context, v *T) error
	Delete(ctx context.Context, id string) error
}

// UserRepository stores console accounts.  Password hashes stay behind this
// interface; only GetCredentials hands one out, for verification.
type UserRepository interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id string) (model.User, error)
	Create(ctx context.Context, u *model.User, passwordHash string) error
	Update(ctx context.Context, u *model.User) error
	SetPassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	// GetCredentials looks a user up by (normalized) email and returns the
	// stored password hash alongside.
	GetCredentials(ctx context.Context, email string) (model.User, string, error)
}

type GroupRepository interface{ CRUD[model.Group] }

type AccessLevelRepository interface{ CRUD[model.AccessLevel] }

// MenuRepository stores navigation entries.  Lists are ordered by Order
// ascending with ties kept in a stable order.
type MenuRepository interface {
	CRUD[model.Menu]
	// ListActive returns only active menus, the input expected by
	// menutree.Build and menutree.Filter.
	ListActive(ctx context.Context) ([]model.Menu, error)
}

type ScreenRepository interface{ CRUD[model.Screen] }

type PermissionRepository interface {
	CRUD[model.Permission]
	ListByAccessLevel(ctx context.Context, accessLevelID string) ([]model.Permission, error)
}

// QueryRepository and ReportRepository list newest first.
type QueryRepository interface{ CRUD[model.AnalyticsQuery] }

type ReportRepository interface{ CRUD[model.PowerBIReport] }

// TokenRepository persists hashed refresh tokens.
type TokenRepository interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	// ValidateRefresh returns the owning user id of a live token, or
	// ErrNotFound for unknown, revoked and expired ones.
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// Denylist remembers revoked access tokens by jti until they expire.
type Denylist interface {
	Deny(ctx context.Context, jti string, until time.Time) error
	IsDenied(ctx context.Context, jti string) (bool, error)
}

// Store bundles every repository the console needs.
type Store struct {
	Users        UserRepository
	Groups       GroupRepository
	AccessLevels AccessLevelRepository
	Menus        MenuRepository
	Screens      ScreenRepository
	Permissions  PermissionRepository
	Queries      QueryRepository
	Reports      ReportRepository
	Tokens       TokenRepository
	Denylist     Denylist
}
