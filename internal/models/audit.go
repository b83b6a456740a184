package models

import "time"

// Audit actions.
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"
)

// Audited entity types.
const (
	EntityProject = "PROJECT"
	EntityPhase   = "PHASE"
	EntityBug     = "BUG"
)

// AuditEntry is one append-only audit log row. A nil UserID denotes a
// system-originated action. Entries survive deletion of the entity they
// reference.
type AuditEntry struct {
	ID         int       `json:"id"`
	UserID     *int      `json:"user_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   int       `json:"entity_id"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
