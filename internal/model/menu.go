package model

import "time"

// Menu is one navigation entry.  Entries form a tree through ParentID; a
// menu with children is a group node and carries no route of its own.  A
// leaf points either at an internal Route or at an ExternalURL, never both.
//
// Children is populated only when the flat list is assembled into a tree
// and is never persisted.  A nil Children marks a leaf; an empty non-nil
// slice marks a group whose children are all hidden from the viewer.
type Menu struct {
	ID            string    `json:"id"`                    // menus.id
	Name          string    `json:"name"`                  // menus.name
	Icon          string    `json:"icon,omitempty"`        // menus.icon
	Route         string    `json:"route,omitempty"`       // menus.route
	ExternalURL   string    `json:"externalUrl,omitempty"` // menus.external_url
	ParentID      *string   `json:"parentId"`              // menus.parent_id (nullable)
	ScreenID      *string   `json:"screenId"`              // menus.screen_id (nullable)
	RequiresAuth  bool      `json:"requiresAuth"`          // menus.requires_auth
	AccessLevelID *string   `json:"accessLevelId"`         // menus.access_level_id (nullable = public)
	Order         int       `json:"order"`                 // menus.sort_order
	IsActive      bool      `json:"isActive"`              // menus.is_active
	CreatedAt     time.Time `json:"createdAt"`             // menus.created_at
	UpdatedAt     time.Time `json:"updatedAt"`             // menus.updated_at
	Children      []*Menu   `json:"children"`
}
