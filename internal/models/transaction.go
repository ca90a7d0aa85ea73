package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeContractPayment  = "contract_payment"
	TransactionTypeMilestonePayment = "milestone_payment"
)

// PlatformTransaction is an immutable ledger row recording one settlement
// event. Rows are never updated after insertion.
type PlatformTransaction struct {
	ID               uuid.UUID       `json:"id"`
	ContractID       uuid.UUID       `json:"contract_id"`
	MilestoneID      *uuid.UUID      `json:"milestone_id,omitempty"`
	ClientUserID     uuid.UUID       `json:"client_user_id"`
	FreelancerUserID uuid.UUID       `json:"freelancer_user_id"`
	Type             string          `json:"type"` // contract_payment / milestone_payment
	GrossAmount      decimal.Decimal `json:"gross_amount"`
	FeeAmount        decimal.Decimal `json:"fee_amount"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	FeePercent       decimal.Decimal `json:"fee_percent"`
	CreatedAt        time.Time       `json:"created_at"`
}
