package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Contract statuses
const (
	ContractStatusPending           = "pending"
	ContractStatusActive            = "active"
	ContractStatusPendingCompletion = "pending_completion"
	ContractStatusCompleted         = "completed"
	ContractStatusCancelled         = "cancelled"
	ContractStatusEscrowFrozen      = "escrow_frozen"
)

// Contract types
const (
	ContractTypeFixedPrice = "fixed_price"
	ContractTypeHourly     = "hourly"
	ContractTypeMilestone  = "milestone"
)

// Valid state transitions: from -> []to
var ValidContractTransitions = map[string][]string{
	ContractStatusPending:           {ContractStatusActive, ContractStatusCancelled},
	ContractStatusActive:            {ContractStatusPendingCompletion, ContractStatusCancelled, ContractStatusEscrowFrozen, ContractStatusCompleted},
	ContractStatusPendingCompletion: {ContractStatusCompleted, ContractStatusActive, ContractStatusCancelled},
	ContractStatusEscrowFrozen:      {ContractStatusActive, ContractStatusCancelled},
	ContractStatusCompleted:         {},
	ContractStatusCancelled:         {},
}

func IsValidContractTransition(from, to string) bool {
	allowed, ok := ValidContractTransitions[from]
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

func IsValidContractType(t string) bool {
	return t == ContractTypeFixedPrice || t == ContractTypeHourly || t == ContractTypeMilestone
}

// IsTerminalContractStatus reports whether a status admits no further transitions.
func IsTerminalContractStatus(status string) bool {
	return len(ValidContractTransitions[status]) == 0
}

type Contract struct {
	ID                 uuid.UUID        `json:"id"`
	ClientUserID       uuid.UUID        `json:"client_user_id"`
	FreelancerUserID   uuid.UUID        `json:"freelancer_user_id"`
	ProposalID         *uuid.UUID       `json:"proposal_id,omitempty"`
	Title              string           `json:"title"`
	Description        *string          `json:"description,omitempty"`
	ContractType       string           `json:"contract_type"` // fixed_price / hourly / milestone
	Status             string           `json:"status"`
	TotalAmount        decimal.Decimal  `json:"total_amount"`
	PlatformFeePercent decimal.Decimal  `json:"platform_fee_percent"`
	FeeAmount          *decimal.Decimal `json:"fee_amount,omitempty"` // set at settlement
	NetAmount          *decimal.Decimal `json:"net_amount,omitempty"` // set at settlement
	ClientSignedAt     *time.Time       `json:"client_signed_at,omitempty"`
	FreelancerSignedAt *time.Time       `json:"freelancer_signed_at,omitempty"`
	StartDate          *time.Time       `json:"start_date,omitempty"`
	EndDate            *time.Time       `json:"end_date,omitempty"`
	SubmittedAt        *time.Time       `json:"submitted_at,omitempty"`
	PaymentReleasedAt  *time.Time       `json:"payment_released_at,omitempty"`
	CancellationReason *string          `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// IsFullySigned reports whether both parties have signed.
func (c *Contract) IsFullySigned() bool {
	return c.ClientSignedAt != nil && c.FreelancerSignedAt != nil
}

// PartyRole resolves the caller's role on this contract, empty if neither party.
func (c *Contract) PartyRole(userID uuid.UUID) string {
	switch userID {
	case c.ClientUserID:
		return "client"
	case c.FreelancerUserID:
		return "freelancer"
	}
	return ""
}
