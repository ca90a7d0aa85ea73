package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/work-marketplace/backend/internal/apperrors"
	"github.com/work-marketplace/backend/internal/config"
	"github.com/work-marketplace/backend/internal/events"
	"github.com/work-marketplace/backend/internal/metrics"
	"github.com/work-marketplace/backend/internal/models"
	"github.com/work-marketplace/backend/internal/repositories"
	"github.com/work-marketplace/backend/internal/settlement"
	"go.uber.org/zap"
)

type ContractService struct {
	contracts    ContractStore
	milestones   MilestoneStore
	transactions TransactionStore
	profiles     ProfileStore
	reviews      ReviewStore
	disputes     DisputeStore
	audit        AuditStore
	publisher    events.Publisher
	cfg          *config.Config
	log          *zap.Logger
}

func NewContractService(
	contracts ContractStore,
	milestones MilestoneStore,
	transactions TransactionStore,
	profiles ProfileStore,
	reviews ReviewStore,
	disputes DisputeStore,
	audit AuditStore,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *ContractService {
	return &ContractService{
		contracts:    contracts,
		milestones:   milestones,
		transactions: transactions,
		profiles:     profiles,
		reviews:      reviews,
		disputes:     disputes,
		audit:        audit,
		publisher:    publisher,
		cfg:          cfg,
		log:          log,
	}
}

type MilestoneInput struct {
	Title       string
	Description *string
	Amount      decimal.Decimal
	DueDate     *time.Time
}

type CreateContractInput struct {
	FreelancerUserID uuid.UUID
	ProposalID       *uuid.UUID
	Title            string
	Description      *string
	ContractType     string
	TotalAmount      decimal.Decimal
	StartDate        *time.Time
	EndDate          *time.Time
	Milestones       []MilestoneInput
}

// CreateContract converts an accepted proposal into an unsigned contract.
// For milestone contracts the milestone amounts must sum exactly to the
// contract total.
func (s *ContractService) CreateContract(ctx context.Context, clientID uuid.UUID, input CreateContractInput) (*models.Contract, error) {
	if input.Title == "" {
		return nil, apperrors.Validation("title is required")
	}
	if !models.IsValidContractType(input.ContractType) {
		return nil, apperrors.Validation("invalid contract type %q, must be one of: fixed_price, hourly, milestone", input.ContractType)
	}
	if !validAmount(input.TotalAmount) {
		return nil, apperrors.Validation("total amount must be non-negative with at most 2 decimal places")
	}
	if input.ContractType == models.ContractTypeMilestone {
		if len(input.Milestones) == 0 {
			return nil, apperrors.Validation("milestone contract requires at least one milestone")
		}
		sum := decimal.Zero
		for _, m := range input.Milestones {
			if !validAmount(m.Amount) {
				return nil, apperrors.Validation("milestone amount must be non-negative with at most 2 decimal places")
			}
			sum = sum.Add(m.Amount)
		}
		if !sum.Equal(input.TotalAmount) {
			return nil, apperrors.Validation("milestone amounts sum to %s, contract total is %s", sum, input.TotalAmount)
		}
	}

	contract := &models.Contract{
		ClientUserID:       clientID,
		FreelancerUserID:   input.FreelancerUserID,
		ProposalID:         input.ProposalID,
		Title:              input.Title,
		Description:        input.Description,
		ContractType:       input.ContractType,
		Status:             models.ContractStatusPending,
		TotalAmount:        input.TotalAmount,
		PlatformFeePercent: s.cfg.PlatformFeePercent,
		StartDate:          input.StartDate,
		EndDate:            input.EndDate,
	}
	if err := s.contracts.Create(ctx, contract); err != nil {
		return nil, apperrors.Store(err, "create contract")
	}

	for _, in := range input.Milestones {
		m := &models.Milestone{
			ContractID:  contract.ID,
			Title:       in.Title,
			Description: in.Description,
			Amount:      in.Amount,
			DueDate:     in.DueDate,
			Status:      models.MilestoneStatusPending,
		}
		if err := s.milestones.Create(ctx, m); err != nil {
			return nil, apperrors.Store(err, "create milestone")
		}
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &clientID,
		ActorType:   "user",
		Action:      "contract_created",
		EntityType:  "contract",
		EntityID:    &contract.ID,
		Meta:        map[string]any{"contract_type": contract.ContractType, "total_amount": contract.TotalAmount.String()},
	})

	s.notifyUser(ctx, contract.FreelancerUserID, events.EventContractSigned, map[string]any{
		"contract_id": contract.ID.String(),
		"message":     "new contract awaiting your signature",
	})

	return contract, nil
}

// Sign records the caller's signature. Signing twice by the same party is
// a no-op. Once both signatures are present the contract activates and
// both parties are notified; otherwise only the counter-party is asked to
// countersign.
func (s *ContractService) Sign(ctx context.Context, contractID, actorID uuid.UUID) (*models.Contract, error) {
	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	role, err := requireParty(contract, actorID)
	if err != nil {
		return nil, err
	}
	if contract.Status != models.ContractStatusPending {
		return nil, apperrors.InvalidState("contract is %s, signatures are only accepted while pending", contract.Status)
	}

	var signed bool
	if role == "client" {
		signed, err = s.contracts.SignAsClient(ctx, contractID)
	} else {
		signed, err = s.contracts.SignAsFreelancer(ctx, contractID)
	}
	if err != nil {
		return nil, apperrors.Store(err, "record signature")
	}

	contract, err = s.getContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	if signed {
		_ = s.audit.Log(ctx, models.AuditLog{
			ActorUserID: &actorID,
			ActorType:   "user",
			Action:      "contract_signed_" + role,
			EntityType:  "contract",
			EntityID:    &contract.ID,
		})
	}

	if contract.IsFullySigned() && contract.Status == models.ContractStatusPending {
		if err := s.transition(ctx, contract, models.ContractStatusActive, &actorID, "system"); err != nil {
			// A concurrent countersign can win the pending -> active flip
			// between the re-read and the update. The caller's signature
			// landed either way, so losing that race is still a success.
			if apperrors.IsKind(err, apperrors.KindInvalidState) {
				return s.getContract(ctx, contractID)
			}
			return nil, err
		}
		s.notifyUser(ctx, contract.ClientUserID, events.EventContractActivated, map[string]any{"contract_id": contract.ID.String()})
		s.notifyUser(ctx, contract.FreelancerUserID, events.EventContractActivated, map[string]any{"contract_id": contract.ID.String()})
		return contract, nil
	}

	if signed {
		counterparty := contract.FreelancerUserID
		if role == "freelancer" {
			counterparty = contract.ClientUserID
		}
		s.notifyUser(ctx, counterparty, events.EventContractSigned, map[string]any{
			"contract_id": contract.ID.String(),
			"message":     "the other party signed, please countersign",
		})
	}
	return contract, nil
}

// SubmitForCompletion is the freelancer declaring final work done.
func (s *ContractService) SubmitForCompletion(ctx context.Context, contractID, actorID uuid.UUID) error {
	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return err
	}
	role, err := requireParty(contract, actorID)
	if err != nil {
		return err
	}
	if role != "freelancer" {
		return apperrors.Unauthorized("only the freelancer can submit for completion")
	}

	ok, err := s.contracts.MarkSubmitted(ctx, contractID)
	if err != nil {
		return apperrors.Store(err, "submit for completion")
	}
	if !ok {
		return apperrors.InvalidState("contract is %s, must be active to submit for completion", contract.Status)
	}
	metrics.StatusTransitionsTotal.WithLabelValues(models.ContractStatusActive, models.ContractStatusPendingCompletion).Inc()

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &actorID,
		ActorType:   "user",
		Action:      "contract_submitted_for_completion",
		EntityType:  "contract",
		EntityID:    &contract.ID,
	})
	s.notifyUser(ctx, contract.ClientUserID, events.EventContractSubmitted, map[string]any{"contract_id": contract.ID.String()})
	return nil
}

type ApproveInput struct {
	ApprovalNote *string
	Rating       *int
	Review       *string
}

// ApprovalResult is what the caller gets back from a settlement.
type ApprovalResult struct {
	ContractID  uuid.UUID       `json:"contract_id"`
	MilestoneID *uuid.UUID      `json:"milestone_id,omitempty"`
	Status      string          `json:"status"`
	NetAmount   decimal.Decimal `json:"net_amount"`
}

// Approve settles a whole contract: the client accepts the submitted work,
// the fee split is computed on the contract total, a ledger row is written
// and both parties' aggregates roll up. The status flip is a conditional
// update, so a concurrent approval settles at most once.
func (s *ContractService) Approve(ctx context.Context, contractID, actorID uuid.UUID, input ApproveInput) (*ApprovalResult, error) {
	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	role, err := requireParty(contract, actorID)
	if err != nil {
		return nil, err
	}
	if role != "client" {
		return nil, apperrors.Unauthorized("only the client can approve completion")
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		return nil, apperrors.Validation("rating must be between 1 and 5")
	}

	breakdown, err := settlement.Calculate(contract.TotalAmount, contract.PlatformFeePercent)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}

	ok, err := s.contracts.Settle(ctx, contractID, breakdown.Fee, breakdown.Net)
	if err != nil {
		return nil, apperrors.Store(err, "settle contract")
	}
	if !ok {
		return nil, apperrors.InvalidState("contract is %s, must be pending_completion to approve", contract.Status)
	}
	metrics.StatusTransitionsTotal.WithLabelValues(models.ContractStatusPendingCompletion, models.ContractStatusCompleted).Inc()
	metrics.SettlementsTotal.WithLabelValues(models.TransactionTypeContractPayment).Inc()
	volume, _ := breakdown.Gross.Float64()
	metrics.SettlementVolume.WithLabelValues(models.TransactionTypeContractPayment).Add(volume)

	tx := &models.PlatformTransaction{
		ContractID:       contract.ID,
		ClientUserID:     contract.ClientUserID,
		FreelancerUserID: contract.FreelancerUserID,
		Type:             models.TransactionTypeContractPayment,
		GrossAmount:      breakdown.Gross,
		FeeAmount:        breakdown.Fee,
		NetAmount:        breakdown.Net,
		FeePercent:       breakdown.FeePercent,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		s.log.Error("settlement ledger write failed", zap.String("contract_id", contract.ID.String()), zap.Error(err))
	}

	s.rollupSettlement(ctx, contract, breakdown, true)

	if input.Rating != nil {
		review := &models.Review{
			ContractID:     contract.ID,
			ReviewerUserID: contract.ClientUserID,
			RevieweeUserID: contract.FreelancerUserID,
			Rating:         *input.Rating,
			Comment:        input.Review,
		}
		if err := s.reviews.Create(ctx, review); err != nil {
			s.log.Warn("review write failed", zap.Error(err))
		}
		if err := s.profiles.ApplyRating(ctx, contract.FreelancerUserID, *input.Rating); err != nil {
			s.log.Warn("rating rollup failed", zap.Error(err))
		}
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &actorID,
		ActorType:   "user",
		Action:      "contract_approved",
		EntityType:  "contract",
		EntityID:    &contract.ID,
		Meta: map[string]any{
			"gross": breakdown.Gross.String(), "fee": breakdown.Fee.String(), "net": breakdown.Net.String(),
			"approval_note": input.ApprovalNote,
		},
	})

	s.notifyUser(ctx, contract.FreelancerUserID, events.EventContractCompleted, map[string]any{
		"contract_id": contract.ID.String(),
		"net_amount":  breakdown.Net.String(),
	})

	return &ApprovalResult{
		ContractID: contract.ID,
		Status:     models.ContractStatusCompleted,
		NetAmount:  breakdown.Net,
	}, nil
}

// Reject sends submitted work back for revision. The reason is mandatory.
func (s *ContractService) Reject(ctx context.Context, contractID, actorID uuid.UUID, reason string) error {
	if reason == "" {
		return apperrors.Validation("rejection reason is required")
	}
	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return err
	}
	role, err := requireParty(contract, actorID)
	if err != nil {
		return err
	}
	if role != "client" {
		return apperrors.Unauthorized("only the client can reject completion")
	}

	ok, err := s.contracts.RevertToActive(ctx, contractID)
	if err != nil {
		return apperrors.Store(err, "reject completion")
	}
	if !ok {
		return apperrors.InvalidState("contract is %s, must be pending_completion to reject", contract.Status)
	}
	metrics.StatusTransitionsTotal.WithLabelValues(models.ContractStatusPendingCompletion, models.ContractStatusActive).Inc()

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &actorID,
		ActorType:   "user",
		Action:      "contract_completion_rejected",
		EntityType:  "contract",
		EntityID:    &contract.ID,
		Meta:        map[string]any{"reason": reason},
	})
	s.notifyUser(ctx, contract.FreelancerUserID, events.EventContractRejected, map[string]any{
		"contract_id": contract.ID.String(),
		"reason":      reason,
	})
	return nil
}

// UpdateStatus is the generic transition used for direct cancellation (or
// completion) outside the approval flow.
func (s *ContractService) UpdateStatus(ctx context.Context, contractID, actorID uuid.UUID, target string, reason *string) error {
	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return err
	}
	if _, err := requireParty(contract, actorID); err != nil {
		return err
	}
	if target != models.ContractStatusCompleted && target != models.ContractStatusCancelled {
		return apperrors.Validation("target status must be completed or cancelled")
	}
	if !models.IsValidContractTransition(contract.Status, target) {
		return apperrors.InvalidState("cannot move contract from %s to %s", contract.Status, target)
	}

	var ok bool
	switch target {
	case models.ContractStatusCancelled:
		if reason == nil || *reason == "" {
			return apperrors.Validation("cancellation reason is required")
		}
		ok, err = s.contracts.Cancel(ctx, contractID, contract.Status, reason)
	case models.ContractStatusCompleted:
		ok, err = s.contracts.CompleteFromActive(ctx, contractID)
	}
	if err != nil {
		return apperrors.Store(err, "update contract status")
	}
	if !ok {
		return apperrors.InvalidState("contract status changed concurrently, expected %s", contract.Status)
	}
	metrics.StatusTransitionsTotal.WithLabelValues(contract.Status, target).Inc()

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &actorID,
		ActorType:   "user",
		Action:      "contract_status_" + contract.Status + "_to_" + target,
		EntityType:  "contract",
		EntityID:    &contract.ID,
		Meta:        map[string]any{"reason": reason},
	})

	event := events.EventContractCancelled
	if target == models.ContractStatusCompleted {
		event = events.EventContractCompleted
	}
	s.notifyUser(ctx, contract.ClientUserID, event, map[string]any{"contract_id": contract.ID.String()})
	s.notifyUser(ctx, contract.FreelancerUserID, event, map[string]any{"contract_id": contract.ID.String()})
	return nil
}

type EditContractInput struct {
	Title       *string
	Description *string
	TotalAmount *decimal.Decimal
	StartDate   *time.Time
	EndDate     *time.Time
	Milestones  []MilestoneInput // replaces pending milestones when present
}

// Edit changes negotiable terms. Allowed only before the freelancer signs,
// and the milestone-sum invariant is re-checked on every edit.
func (s *ContractService) Edit(ctx context.Context, contractID, actorID uuid.UUID, input EditContractInput) (*models.Contract, error) {
	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	role, err := requireParty(contract, actorID)
	if err != nil {
		return nil, err
	}
	if role != "client" {
		return nil, apperrors.Unauthorized("only the client can edit contract terms")
	}
	if contract.FreelancerSignedAt != nil {
		return nil, apperrors.InvalidState("contract terms are locked once the freelancer has signed")
	}

	if input.Title != nil {
		contract.Title = *input.Title
	}
	if input.Description != nil {
		contract.Description = input.Description
	}
	if input.TotalAmount != nil {
		if !validAmount(*input.TotalAmount) {
			return nil, apperrors.Validation("total amount must be non-negative with at most 2 decimal places")
		}
		contract.TotalAmount = *input.TotalAmount
	}
	if input.StartDate != nil {
		contract.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		contract.EndDate = input.EndDate
	}

	if contract.ContractType == models.ContractTypeMilestone {
		if input.Milestones != nil {
			sum := decimal.Zero
			for _, m := range input.Milestones {
				if !validAmount(m.Amount) {
					return nil, apperrors.Validation("milestone amount must be non-negative with at most 2 decimal places")
				}
				sum = sum.Add(m.Amount)
			}
			if !sum.Equal(contract.TotalAmount) {
				return nil, apperrors.Validation("milestone amounts sum to %s, contract total is %s", sum, contract.TotalAmount)
			}
		} else if input.TotalAmount != nil {
			existing, err := s.milestones.ListByContract(ctx, contractID)
			if err != nil {
				return nil, apperrors.Store(err, "list milestones")
			}
			if !models.MilestoneAmountsMatch(contract.TotalAmount, existing) {
				return nil, apperrors.Validation("new total does not match existing milestone amounts, update milestones in the same request")
			}
		}
	}

	if err := s.contracts.UpdateTerms(ctx, contract); err != nil {
		return nil, apperrors.Store(err, "update contract terms")
	}

	if input.Milestones != nil {
		if err := s.milestones.DeletePending(ctx, contractID); err != nil {
			return nil, apperrors.Store(err, "replace milestones")
		}
		for _, in := range input.Milestones {
			m := &models.Milestone{
				ContractID:  contract.ID,
				Title:       in.Title,
				Description: in.Description,
				Amount:      in.Amount,
				DueDate:     in.DueDate,
				Status:      models.MilestoneStatusPending,
			}
			if err := s.milestones.Create(ctx, m); err != nil {
				return nil, apperrors.Store(err, "replace milestones")
			}
		}
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &actorID,
		ActorType:   "user",
		Action:      "contract_terms_updated",
		EntityType:  "contract",
		EntityID:    &contract.ID,
		Meta:        map[string]any{"total_amount": contract.TotalAmount.String()},
	})
	return contract, nil
}

// OpenDispute lets either party raise a dispute on the contract.
func (s *ContractService) OpenDispute(ctx context.Context, contractID, actorID uuid.UUID, reason string) (*models.Dispute, error) {
	if reason == "" {
		return nil, apperrors.Validation("dispute reason is required")
	}
	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if _, err := requireParty(contract, actorID); err != nil {
		return nil, err
	}
	if models.IsTerminalContractStatus(contract.Status) {
		return nil, apperrors.InvalidState("contract is %s, disputes can only be opened on live contracts", contract.Status)
	}

	dispute := &models.Dispute{
		ContractID:  contractID,
		InitiatorID: actorID,
		Reason:      reason,
		Status:      models.DisputeStatusOpen,
	}
	if err := s.disputes.Create(ctx, dispute); err != nil {
		return nil, apperrors.Store(err, "open dispute")
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &actorID,
		ActorType:   "user",
		Action:      "dispute_opened",
		EntityType:  "contract",
		EntityID:    &contractID,
		Meta:        map[string]any{"dispute_id": dispute.ID.String()},
	})
	s.notifyUser(ctx, contract.ClientUserID, events.EventDisputeOpened, map[string]any{"contract_id": contractID.String()})
	s.notifyUser(ctx, contract.FreelancerUserID, events.EventDisputeOpened, map[string]any{"contract_id": contractID.String()})
	return dispute, nil
}

// GetContract returns a contract to its parties or an admin. Anyone else
// gets the same NotFound as a missing id.
func (s *ContractService) GetContract(ctx context.Context, id, viewerID uuid.UUID, isAdmin bool) (*models.Contract, error) {
	return s.loadForViewer(ctx, id, viewerID, isAdmin)
}

func (s *ContractService) ListContracts(ctx context.Context, f repositories.ContractFilter) ([]models.Contract, error) {
	return s.contracts.List(ctx, f)
}

func (s *ContractService) ListMilestones(ctx context.Context, contractID, viewerID uuid.UUID, isAdmin bool) ([]models.Milestone, error) {
	if _, err := s.loadForViewer(ctx, contractID, viewerID, isAdmin); err != nil {
		return nil, err
	}
	return s.milestones.ListByContract(ctx, contractID)
}

func (s *ContractService) ListTransactions(ctx context.Context, contractID, viewerID uuid.UUID, isAdmin bool) ([]models.PlatformTransaction, error) {
	if _, err := s.loadForViewer(ctx, contractID, viewerID, isAdmin); err != nil {
		return nil, err
	}
	return s.transactions.ListByContract(ctx, contractID)
}

func (s *ContractService) ListDisputes(ctx context.Context, contractID, viewerID uuid.UUID, isAdmin bool) ([]models.Dispute, error) {
	if _, err := s.loadForViewer(ctx, contractID, viewerID, isAdmin); err != nil {
		return nil, err
	}
	return s.disputes.ListByContract(ctx, contractID)
}

func (s *ContractService) GetContractEvents(ctx context.Context, contractID, viewerID uuid.UUID, isAdmin bool) ([]models.AuditLog, error) {
	if _, err := s.loadForViewer(ctx, contractID, viewerID, isAdmin); err != nil {
		return nil, err
	}
	return s.audit.GetByEntity(ctx, "contract", contractID, 100, 0)
}

// --- helpers ---

func (s *ContractService) getContract(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	contract, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("contract not found")
		}
		return nil, apperrors.Store(err, "load contract")
	}
	return contract, nil
}

func (s *ContractService) loadForViewer(ctx context.Context, id, viewerID uuid.UUID, isAdmin bool) (*models.Contract, error) {
	contract, err := s.getContract(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		if _, err := requireParty(contract, viewerID); err != nil {
			return nil, err
		}
	}
	return contract, nil
}

// requireParty resolves the caller's role on the contract. Callers outside
// the contract get the same NotFound as a missing id, so existing contract
// ids cannot be enumerated.
func requireParty(contract *models.Contract, actorID uuid.UUID) (string, error) {
	role := contract.PartyRole(actorID)
	if role == "" {
		return "", apperrors.NotFound("contract not found")
	}
	return role, nil
}

// validAmount accepts non-negative amounts expressed in whole cents. The
// money columns store 2 decimal places, so finer fractions would round
// after validation and could break the milestone-sum invariant.
func validAmount(a decimal.Decimal) bool {
	return !a.IsNegative() && a.Equal(a.Round(2))
}

// transition validates and performs a status transition with audit logging.
func (s *ContractService) transition(ctx context.Context, contract *models.Contract, newStatus string, actorID *uuid.UUID, actorType string) error {
	if !models.IsValidContractTransition(contract.Status, newStatus) {
		return apperrors.InvalidState("invalid transition from %s to %s", contract.Status, newStatus)
	}

	oldStatus := contract.Status
	ok, err := s.contracts.UpdateStatusIf(ctx, contract.ID, oldStatus, newStatus)
	if err != nil {
		return apperrors.Store(err, "update contract status")
	}
	if !ok {
		return apperrors.InvalidState("contract status changed concurrently, expected %s", oldStatus)
	}
	contract.Status = newStatus
	metrics.StatusTransitionsTotal.WithLabelValues(oldStatus, newStatus).Inc()

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: actorID,
		ActorType:   actorType,
		Action:      "contract_status_" + oldStatus + "_to_" + newStatus,
		EntityType:  "contract",
		EntityID:    &contract.ID,
		Meta:        map[string]any{"old_status": oldStatus, "new_status": newStatus},
	})

	_ = s.publisher.Publish(ctx, "events:contract", events.Event{
		Type: events.EventContractStatusChanged,
		Payload: map[string]any{
			"contract_id": contract.ID.String(),
			"old_status":  oldStatus,
			"new_status":  newStatus,
		},
	})
	return nil
}

// rollupSettlement applies the aggregate side effects of a settlement.
// Failures are logged, never propagated: the status flip is authoritative.
func (s *ContractService) rollupSettlement(ctx context.Context, contract *models.Contract, b settlement.Breakdown, countJob bool) {
	if err := s.profiles.AddEarnings(ctx, contract.FreelancerUserID, b.Net); err != nil {
		s.log.Error("earnings rollup failed", zap.String("contract_id", contract.ID.String()), zap.Error(err))
	}
	if err := s.profiles.AddSpend(ctx, contract.ClientUserID, b.Gross); err != nil {
		s.log.Error("spend rollup failed", zap.String("contract_id", contract.ID.String()), zap.Error(err))
	}
	if countJob {
		if err := s.profiles.IncrementCompletedJobs(ctx, contract.FreelancerUserID); err != nil {
			s.log.Error("completed jobs rollup failed", zap.String("contract_id", contract.ID.String()), zap.Error(err))
		}
	}
}

// notifyUser publishes a fire-and-forget notification request; delivery is
// the dispatcher's problem, never awaited for the monetary transition.
func (s *ContractService) notifyUser(ctx context.Context, userID uuid.UUID, eventType string, payload map[string]any) {
	p := map[string]any{"user_id": userID.String(), "event": eventType}
	for k, v := range payload {
		p[k] = v
	}
	if err := s.publisher.Publish(ctx, "events:notifications", events.Event{Type: events.EventUserNotification, Payload: p}); err != nil {
		s.log.Warn("notification publish failed", zap.String("event", eventType), zap.Error(err))
	}
}
