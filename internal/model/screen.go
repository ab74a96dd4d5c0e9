package model

import "time"

// Screen content types.
const (
	ContentHTML      = "html"
	ContentComponent = "component"
	ContentIframe    = "iframe"
)

// Screen is a piece of content a menu leaf may open.
type Screen struct {
	ID            string    `json:"id"`            // screens.id
	Name          string    `json:"name"`          // screens.name
	Description   string    `json:"description"`   // screens.description
	Content       string    `json:"content"`       // screens.content
	ContentType   string    `json:"contentType"`   // screens.content_type
	AccessLevelID *string   `json:"accessLevelId"` // screens.access_level_id (nullable = public)
	CreatedAt     time.Time `json:"createdAt"`     // screens.created_at
	UpdatedAt     time.Time `json:"updatedAt"`     // screens.updated_at
}

// ValidContentType reports whether t is a supported screen content type.
func ValidContentType(t string) bool {
	switch t {
	case ContentHTML, ContentComponent, ContentIframe:
		return true
	}
	return false
}
