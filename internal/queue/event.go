// Package queue carries console audit events over RabbitMQ.
package queue

import "time"

// Audit actions.
const (
	ActionLogin       = "login"
	ActionLoginFailed = "login_failed"
	ActionLogout      = "logout"
	ActionCreate      = "create"
	ActionUpdate      = "update"
	ActionDelete      = "delete"
	ActionExecute     = "execute"
)

// AuditEvent records one security-relevant action.  It carries enough
// context for the consumer to log it without touching the database.
type AuditEvent struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource,omitempty"`    // users, menus, analytics_queries, ...
	ResourceID string    `json:"resource_id,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	ActorEmail string    `json:"actor_email,omitempty"`
	RemoteIP   string    `json:"remote_ip,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}
