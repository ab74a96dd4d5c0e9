package model

import "time"

// Roles a user may hold.  Admins bypass menu filtering and may open the
// administrative routes; everyone else is a regular user.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Account states.  Blocked users cannot log in.
const (
	StatusActive  = "active"
	StatusBlocked = "blocked"
)

// User represents a console account as stored in the `users` table.  The
// password hash never leaves the repository layer, so it has no field here.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – display name.
//  Email         – unique, lower-cased login name.
//  Role          – admin or user.
//  GroupID       – group the user belongs to.
//  AccessLevelID – access level compared against menus and screens.
//  Status        – active or blocked.
type User struct {
	ID            string    `json:"id"`            // users.id
	Name          string    `json:"name"`          // users.name
	Email         string    `json:"email"`         // users.email
	Role          string    `json:"role"`          // users.role
	GroupID       string    `json:"groupId"`       // users.group_id
	AccessLevelID string    `json:"accessLevelId"` // users.access_level_id
	Status        string    `json:"status"`        // users.status
	CreatedAt     time.Time `json:"createdAt"`     // users.created_at
	UpdatedAt     time.Time `json:"updatedAt"`     // users.updated_at
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// ValidRole reports whether r is a known role.
func ValidRole(r string) bool { return r == RoleAdmin || r == RoleUser }

// ValidStatus reports whether s is a known account status.
func ValidStatus(s string) bool { return s == StatusActive || s == StatusBlocked }
