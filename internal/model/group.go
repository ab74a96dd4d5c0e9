package model

import "time"

// Group is a named set of users sharing a default access level.  Many users
// reference one group; the group never owns them.
type Group struct {
	ID            string    `json:"id"`            // groups.id
	Name          string    `json:"name"`          // groups.name
	Description   string    `json:"description"`   // groups.description
	AccessLevelID string    `json:"accessLevelId"` // groups.access_level_id
	CreatedAt     time.Time `json:"createdAt"`     // groups.created_at
	UpdatedAt     time.Time `json:"updatedAt"`     // groups.updated_at
}
