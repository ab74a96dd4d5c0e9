package model

// Resource types a permission can target.
const (
	ResourceScreen = "screen"
	ResourceMenu   = "menu"
)

// Actions is the set of operations a permission grants.
type Actions struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
	Admin  bool `json:"admin"`
}

// Permission grants an access level a set of actions on one screen or menu.
// Menu filtering does not consult permissions; they are managed data only.
type Permission struct {
	ID            string  `json:"id"`            // permissions.id
	AccessLevelID string  `json:"accessLevelId"` // permissions.access_level_id
	ResourceType  string  `json:"resourceType"`  // permissions.resource_type
	ResourceID    string  `json:"resourceId"`    // permissions.resource_id
	Actions       Actions `json:"actions"`       // permissions.actions (JSON column)
}

// ValidResourceType reports whether t is a known permission resource type.
func ValidResourceType(t string) bool { return t == ResourceScreen || t == ResourceMenu }
