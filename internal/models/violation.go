package models

import (
	"time"

	"github.com/google/uuid"
)

// Violation severities
const (
	ViolationSeverityLow    = "low"
	ViolationSeverityMedium = "medium"
	ViolationSeverityHigh   = "high"
)

// ViolationRecord accumulates policy violations against a user and feeds
// the user's trust score.
type ViolationRecord struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	UserType      string     `json:"user_type"` // client / freelancer
	ContractID    *uuid.UUID `json:"contract_id,omitempty"`
	ViolationType string     `json:"violation_type"`
	Severity      string     `json:"severity"`
	PenaltyApplied int       `json:"penalty_applied"`
	Description   string     `json:"description"`
	IssuedBy      uuid.UUID  `json:"issued_by"`
	CreatedAt     time.Time  `json:"created_at"`
}
