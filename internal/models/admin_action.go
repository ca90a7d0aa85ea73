package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin action types. The enumeration is fixed; unknown types are
// rejected before anything is logged.
const (
	AdminActionContactUser    = "contact_user"
	AdminActionFreezeEscrow   = "freeze_escrow"
	AdminActionReleasePayment = "release_payment"
	AdminActionSuspendAccount = "suspend_account"
	AdminActionCancelContract = "cancel_contract"
	AdminActionMediateDispute = "mediate_dispute"
	AdminActionIssueWarning   = "issue_warning"
)

// Admin action outcomes
const (
	AdminOutcomeCompleted = "completed"
	AdminOutcomePartial   = "partial"
)

var adminActionTypes = map[string]struct{}{
	AdminActionContactUser:    {},
	AdminActionFreezeEscrow:   {},
	AdminActionReleasePayment: {},
	AdminActionSuspendAccount: {},
	AdminActionCancelContract: {},
	AdminActionMediateDispute: {},
	AdminActionIssueWarning:   {},
}

func IsValidAdminActionType(t string) bool {
	_, ok := adminActionTypes[t]
	return ok
}

// AdminAction is an append-only log row; the sole mechanism for
// administrative accountability.
type AdminAction struct {
	ID           uuid.UUID      `json:"id"`
	AdminUserID  uuid.UUID      `json:"admin_user_id"`
	ContractID   *uuid.UUID     `json:"contract_id,omitempty"`
	TargetUserID *uuid.UUID     `json:"target_user_id,omitempty"`
	ActionType   string         `json:"action_type"`
	Notes        string         `json:"notes"`
	Details      map[string]any `json:"details,omitempty"`
	Outcome      string         `json:"outcome"` // completed / partial
	CreatedAt    time.Time      `json:"created_at"`
}
