package models

import (
	"time"

	"github.com/google/uuid"
)

// Dispute statuses
const (
	DisputeStatusOpen        = "open"
	DisputeStatusUnderReview = "under_review"
	DisputeStatusResolved    = "resolved"
	DisputeStatusCancelled   = "cancelled"
)

type Dispute struct {
	ID          uuid.UUID  `json:"id"`
	ContractID  uuid.UUID  `json:"contract_id"`
	InitiatorID uuid.UUID  `json:"initiator_id"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	MediatorID  *uuid.UUID `json:"mediator_id,omitempty"` // admin assigned via mediate_dispute
	Resolution  *string    `json:"resolution,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}
