package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records one status transition or intervention. Appending is
// best effort and never blocks the operation that produced the entry.
type AuditLog struct {
	ID          uuid.UUID  `json:"id"`
	ActorUserID *uuid.UUID `json:"actor_user_id,omitempty"`
	ActorType   string     `json:"actor_type"` // client/freelancer/admin/system
	Action      string     `json:"action"`
	EntityType  string     `json:"entity_type"` // contract/milestone/user
	EntityID    *uuid.UUID `json:"entity_id,omitempty"`
	Meta        any        `json:"meta,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
