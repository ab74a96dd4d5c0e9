package model

import "time"

// AccessLevel is a node of the self-referential access level tree.  Menu
// filtering only compares ids for equality; ParentID is kept for the
// management screens and must always reference an existing level.
type AccessLevel struct {
	ID          string    `json:"id"`          // access_levels.id
	Name        string    `json:"name"`        // access_levels.name
	Description string    `json:"description"` // access_levels.description
	ParentID    *string   `json:"parentId"`    // access_levels.parent_id (nullable)
	CreatedAt   time.Time `json:"createdAt"`   // access_levels.created_at
	UpdatedAt   time.Time `json:"updatedAt"`   // access_levels.updated_at
}
