package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User types
const (
	UserTypeClient     = "client"
	UserTypeFreelancer = "freelancer"
)

// FreelancerProfile carries the rollup aggregates maintained as a side
// effect of settlement events.
type FreelancerProfile struct {
	UserID           uuid.UUID       `json:"user_id"`
	TotalEarned      decimal.Decimal `json:"total_earned"`
	CompletedJobs    int             `json:"completed_jobs"`
	Rating           float64         `json:"rating"`
	ReviewCount      int             `json:"review_count"`
	TrustScore       int             `json:"trust_score"`
	SuspendedUntil   *time.Time      `json:"suspended_until,omitempty"`
	SuspensionReason *string         `json:"suspension_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type ClientProfile struct {
	UserID           uuid.UUID       `json:"user_id"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	TrustScore       int             `json:"trust_score"`
	SuspendedUntil   *time.Time      `json:"suspended_until,omitempty"`
	SuspensionReason *string         `json:"suspension_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
