package dto

import "time"

type MilestoneInputRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description,omitempty"`
	Amount      string     `json:"amount" validate:"required"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type CreateContractRequest struct {
	FreelancerUserID string                  `json:"freelancer_user_id" validate:"required,uuid4"`
	ProposalID       *string                 `json:"proposal_id,omitempty"`
	Title            string                  `json:"title" validate:"required"`
	Description      *string                 `json:"description,omitempty"`
	ContractType     string                  `json:"contract_type" validate:"required,oneof=fixed_price hourly milestone"`
	TotalAmount      string                  `json:"total_amount" validate:"required"`
	StartDate        *time.Time              `json:"start_date,omitempty"`
	EndDate          *time.Time              `json:"end_date,omitempty"`
	Milestones       []MilestoneInputRequest `json:"milestones,omitempty" validate:"dive"`
}

type EditContractRequest struct {
	Title       *string                 `json:"title,omitempty"`
	Description *string                 `json:"description,omitempty"`
	TotalAmount *string                 `json:"total_amount,omitempty"`
	StartDate   *time.Time              `json:"start_date,omitempty"`
	EndDate     *time.Time              `json:"end_date,omitempty"`
	Milestones  []MilestoneInputRequest `json:"milestones,omitempty" validate:"dive"`
}

type ApproveContractRequest struct {
	ApprovalNote *string `json:"approval_note,omitempty"`
	Rating       *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Review       *string `json:"review,omitempty"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type UpdateContractStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=completed cancelled"`
	Reason *string `json:"reason,omitempty"`
}

type ApproveMilestoneRequest struct {
	ApprovalNote *string `json:"approval_note,omitempty"`
}

type OpenDisputeRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type AdminActionRequest struct {
	ActionType   string         `json:"action_type" validate:"required"`
	ContractID   *string        `json:"contract_id,omitempty" validate:"omitempty,uuid4"`
	TargetUserID *string        `json:"target_user_id,omitempty" validate:"omitempty,uuid4"`
	Notes        string         `json:"notes,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}
