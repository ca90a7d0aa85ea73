package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/work-marketplace/backend/internal/apperrors"
	"github.com/work-marketplace/backend/internal/config"
	"github.com/work-marketplace/backend/internal/events"
	"github.com/work-marketplace/backend/internal/metrics"
	"github.com/work-marketplace/backend/internal/models"
	"github.com/work-marketplace/backend/internal/settlement"
	"go.uber.org/zap"
)

// MilestoneService governs per-milestone settlement. It shares the fee
// calculator and the rollup updater with whole-contract settlement so that
// paying in milestones and paying once produce identical aggregates for
// equal totals.
type MilestoneService struct {
	contracts    ContractStore
	milestones   MilestoneStore
	transactions TransactionStore
	profiles     ProfileStore
	audit        AuditStore
	publisher    events.Publisher
	cfg          *config.Config
	log          *zap.Logger
}

func NewMilestoneService(
	contracts ContractStore,
	milestones MilestoneStore,
	transactions TransactionStore,
	profiles ProfileStore,
	audit AuditStore,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *MilestoneService {
	return &MilestoneService{
		contracts:    contracts,
		milestones:   milestones,
		transactions: transactions,
		profiles:     profiles,
		audit:        audit,
		publisher:    publisher,
		cfg:          cfg,
		log:          log,
	}
}

// Submit is the freelancer handing in one milestone's work.
func (s *MilestoneService) Submit(ctx context.Context, contractID, milestoneID, actorID uuid.UUID) error {
	contract, milestone, err := s.load(ctx, contractID, milestoneID)
	if err != nil {
		return err
	}
	role, err := requireParty(contract, actorID)
	if err != nil {
		return err
	}
	if role != "freelancer" {
		return apperrors.Unauthorized("only the freelancer can submit a milestone")
	}
	if contract.Status != models.ContractStatusActive {
		return apperrors.InvalidState("contract is %s, milestones can only be submitted while active", contract.Status)
	}

	ok, err := s.milestones.Submit(ctx, milestoneID)
	if err != nil {
		return apperrors.Store(err, "submit milestone")
	}
	if !ok {
		return apperrors.InvalidState("milestone is %s, must be pending or rejected to submit", milestone.Status)
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &actorID,
		ActorType:   "user",
		Action:      "milestone_submitted",
		EntityType:  "contract",
		EntityID:    &contract.ID,
		Meta:        map[string]any{"milestone_id": milestoneID.String()},
	})
	s.notifyUser(ctx, contract.ClientUserID, events.EventContractSubmitted, map[string]any{
		"contract_id":  contract.ID.String(),
		"milestone_id": milestoneID.String(),
	})
	return nil
}

// Approve settles one submitted milestone: the fee split is computed on
// the milestone's own amount, a ledger row is written scoped to the
// milestone, and the aggregates roll up (net to the freelancer, gross to
// the client). When the last unpaid milestone settles, the contract
// completes and the freelancer's completed-job counter increments exactly
// once for the whole contract.
func (s *MilestoneService) Approve(ctx context.Context, contractID, milestoneID, actorID uuid.UUID, approvalNote *string) (*ApprovalResult, error) {
	contract, _, err := s.load(ctx, contractID, milestoneID)
	if err != nil {
		return nil, err
	}
	role, err := requireParty(contract, actorID)
	if err != nil {
		return nil, err
	}
	if role != "client" {
		return nil, apperrors.Unauthorized("only the client can approve a milestone")
	}
	return s.settle(ctx, contract, milestoneID, actorID, "user", approvalNote)
}

// ReleaseByAdmin settles a milestone on behalf of the platform, bypassing
// party checks. Used by the release_payment admin action.
func (s *MilestoneService) ReleaseByAdmin(ctx context.Context, contractID, milestoneID, adminID uuid.UUID, note *string) (*ApprovalResult, error) {
	contract, _, err := s.load(ctx, contractID, milestoneID)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, contract, milestoneID, adminID, "admin", note)
}

func (s *MilestoneService) settle(ctx context.Context, contract *models.Contract, milestoneID, actorID uuid.UUID, actorType string, approvalNote *string) (*ApprovalResult, error) {
	if contract.Status == models.ContractStatusEscrowFrozen {
		return nil, apperrors.InvalidState("contract escrow is frozen, payments are blocked")
	}

	milestone, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, apperrors.Store(err, "load milestone")
	}

	breakdown, err := settlement.Calculate(milestone.Amount, contract.PlatformFeePercent)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}

	// The payment statement re-checks the contract status itself, so a
	// freeze landing after the load above still blocks the payout.
	ok, err := s.milestones.Pay(ctx, milestoneID, breakdown.Fee, breakdown.Net, approvalNote)
	if err != nil {
		return nil, apperrors.Store(err, "settle milestone")
	}
	if !ok {
		if current, cerr := s.contracts.GetByID(ctx, contract.ID); cerr == nil && current.Status == models.ContractStatusEscrowFrozen {
			return nil, apperrors.InvalidState("contract escrow is frozen, payments are blocked")
		}
		return nil, apperrors.InvalidState("milestone is %s, must be submitted to approve", milestone.Status)
	}
	metrics.SettlementsTotal.WithLabelValues(models.TransactionTypeMilestonePayment).Inc()
	volume, _ := breakdown.Gross.Float64()
	metrics.SettlementVolume.WithLabelValues(models.TransactionTypeMilestonePayment).Add(volume)

	tx := &models.PlatformTransaction{
		ContractID:       contract.ID,
		MilestoneID:      &milestoneID,
		ClientUserID:     contract.ClientUserID,
		FreelancerUserID: contract.FreelancerUserID,
		Type:             models.TransactionTypeMilestonePayment,
		GrossAmount:      breakdown.Gross,
		FeeAmount:        breakdown.Fee,
		NetAmount:        breakdown.Net,
		FeePercent:       breakdown.FeePercent,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		s.log.Error("settlement ledger write failed",
			zap.String("contract_id", contract.ID.String()),
			zap.String("milestone_id", milestoneID.String()),
			zap.Error(err))
	}

	if err := s.profiles.AddEarnings(ctx, contract.FreelancerUserID, breakdown.Net); err != nil {
		s.log.Error("earnings rollup failed", zap.String("milestone_id", milestoneID.String()), zap.Error(err))
	}
	if err := s.profiles.AddSpend(ctx, contract.ClientUserID, breakdown.Gross); err != nil {
		s.log.Error("spend rollup failed", zap.String("milestone_id", milestoneID.String()), zap.Error(err))
	}

	// Re-read milestone state after the flip: when the last one is paid the
	// contract completes. The conditional contract update guarantees the
	// completed-job counter moves once even if two final approvals race.
	unpaid, err := s.milestones.CountUnpaid(ctx, contract.ID)
	if err != nil {
		s.log.Error("milestone rollup check failed", zap.String("contract_id", contract.ID.String()), zap.Error(err))
	} else if unpaid == 0 {
		completed, err := s.contracts.CompleteFromActive(ctx, contract.ID)
		if err != nil {
			s.log.Error("contract completion failed", zap.String("contract_id", contract.ID.String()), zap.Error(err))
		} else if completed {
			metrics.StatusTransitionsTotal.WithLabelValues(models.ContractStatusActive, models.ContractStatusCompleted).Inc()
			if err := s.profiles.IncrementCompletedJobs(ctx, contract.FreelancerUserID); err != nil {
				s.log.Error("completed jobs rollup failed", zap.String("contract_id", contract.ID.String()), zap.Error(err))
			}
			_ = s.audit.Log(ctx, models.AuditLog{
				ActorUserID: &actorID,
				ActorType:   "system",
				Action:      "contract_completed_all_milestones_paid",
				EntityType:  "contract",
				EntityID:    &contract.ID,
			})
			s.notifyUser(ctx, contract.ClientUserID, events.EventContractCompleted, map[string]any{"contract_id": contract.ID.String()})
			s.notifyUser(ctx, contract.FreelancerUserID, events.EventContractCompleted, map[string]any{"contract_id": contract.ID.String()})
		}
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &actorID,
		ActorType:   actorType,
		Action:      "milestone_paid",
		EntityType:  "contract",
		EntityID:    &contract.ID,
		Meta: map[string]any{
			"milestone_id": milestoneID.String(),
			"gross":        breakdown.Gross.String(), "fee": breakdown.Fee.String(), "net": breakdown.Net.String(),
		},
	})

	s.notifyUser(ctx, contract.FreelancerUserID, events.EventMilestonePaid, map[string]any{
		"contract_id":  contract.ID.String(),
		"milestone_id": milestoneID.String(),
		"net_amount":   breakdown.Net.String(),
	})

	return &ApprovalResult{
		ContractID:  contract.ID,
		MilestoneID: &milestoneID,
		Status:      models.MilestoneStatusPaid,
		NetAmount:   breakdown.Net,
	}, nil
}

// Reject returns a submitted milestone to the freelancer for rework.
func (s *MilestoneService) Reject(ctx context.Context, contractID, milestoneID, actorID uuid.UUID, reason string) error {
	if reason == "" {
		return apperrors.Validation("rejection reason is required")
	}
	contract, milestone, err := s.load(ctx, contractID, milestoneID)
	if err != nil {
		return err
	}
	role, err := requireParty(contract, actorID)
	if err != nil {
		return err
	}
	if role != "client" {
		return apperrors.Unauthorized("only the client can reject a milestone")
	}

	ok, err := s.milestones.Reject(ctx, milestoneID, reason)
	if err != nil {
		return apperrors.Store(err, "reject milestone")
	}
	if !ok {
		return apperrors.InvalidState("milestone is %s, must be submitted to reject", milestone.Status)
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &actorID,
		ActorType:   "user",
		Action:      "milestone_rejected",
		EntityType:  "contract",
		EntityID:    &contract.ID,
		Meta:        map[string]any{"milestone_id": milestoneID.String(), "reason": reason},
	})
	s.notifyUser(ctx, contract.FreelancerUserID, events.EventMilestoneRejected, map[string]any{
		"contract_id":  contract.ID.String(),
		"milestone_id": milestoneID.String(),
		"reason":       reason,
	})
	return nil
}

// --- helpers ---

func (s *MilestoneService) load(ctx context.Context, contractID, milestoneID uuid.UUID) (*models.Contract, *models.Milestone, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NotFound("contract not found")
		}
		return nil, nil, apperrors.Store(err, "load contract")
	}
	milestone, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NotFound("milestone not found")
		}
		return nil, nil, apperrors.Store(err, "load milestone")
	}
	if milestone.ContractID != contract.ID {
		return nil, nil, apperrors.NotFound("milestone not found")
	}
	return contract, milestone, nil
}

func (s *MilestoneService) notifyUser(ctx context.Context, userID uuid.UUID, eventType string, payload map[string]any) {
	p := map[string]any{"user_id": userID.String(), "event": eventType}
	for k, v := range payload {
		p[k] = v
	}
	if err := s.publisher.Publish(ctx, "events:notifications", events.Event{Type: events.EventUserNotification, Payload: p}); err != nil {
		s.log.Warn("notification publish failed", zap.String("event", eventType), zap.Error(err))
	}
}
