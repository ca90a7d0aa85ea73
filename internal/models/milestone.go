package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Milestone statuses
const (
	MilestoneStatusPending   = "pending"
	MilestoneStatusSubmitted = "submitted"
	MilestoneStatusPaid      = "paid"
	MilestoneStatusRejected  = "rejected"
)

// Valid state transitions: from -> []to
var ValidMilestoneTransitions = map[string][]string{
	MilestoneStatusPending:   {MilestoneStatusSubmitted},
	MilestoneStatusSubmitted: {MilestoneStatusPaid, MilestoneStatusRejected},
	MilestoneStatusRejected:  {MilestoneStatusSubmitted},
	MilestoneStatusPaid:      {},
}

func IsValidMilestoneTransition(from, to string) bool {
	allowed, ok := ValidMilestoneTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

type Milestone struct {
	ID             uuid.UUID        `json:"id"`
	ContractID     uuid.UUID        `json:"contract_id"`
	Title          string           `json:"title"`
	Description    *string          `json:"description,omitempty"`
	Amount         decimal.Decimal  `json:"amount"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	Status         string           `json:"status"`
	ApprovalNote   *string          `json:"approval_note,omitempty"`
	RejectionNote  *string          `json:"rejection_note,omitempty"`
	FeeAmount      *decimal.Decimal `json:"fee_amount,omitempty"` // set at settlement
	NetAmount      *decimal.Decimal `json:"net_amount,omitempty"` // set at settlement
	SubmittedAt    *time.Time       `json:"submitted_at,omitempty"`
	PaidAt         *time.Time       `json:"paid_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// MilestoneAmountsMatch checks that milestone amounts sum exactly to the
// contract total. Enforced at creation and on every pre-signature edit.
func MilestoneAmountsMatch(total decimal.Decimal, milestones []Milestone) bool {
	sum := decimal.Zero
	for _, m := range milestones {
		sum = sum.Add(m.Amount)
	}
	return sum.Equal(total)
}
