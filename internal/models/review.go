package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is written by the client when approving contract completion.
type Review struct {
	ID             uuid.UUID `json:"id"`
	ContractID     uuid.UUID `json:"contract_id"`
	ReviewerUserID uuid.UUID `json:"reviewer_user_id"`
	RevieweeUserID uuid.UUID `json:"reviewee_user_id"`
	Rating         int       `json:"rating"` // 1..5
	Comment        *string   `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
