package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/work-marketplace/backend/internal/apperrors"
	"github.com/work-marketplace/backend/internal/config"
	"github.com/work-marketplace/backend/internal/events"
	"github.com/work-marketplace/backend/internal/metrics"
	"github.com/work-marketplace/backend/internal/models"
	"github.com/work-marketplace/backend/internal/repositories"
	"go.uber.org/zap"
)

// AdminService executes privileged interventions. Every executed action,
// fully or partially successful, appends exactly one row to the
// append-only action log.
type AdminService struct {
	contracts    ContractStore
	profiles     ProfileStore
	violations   ViolationStore
	disputes     DisputeStore
	adminActions AdminActionStore
	audit        AuditStore
	milestoneSvc *MilestoneService
	publisher    events.Publisher
	cfg          *config.Config
	log          *zap.Logger
}

func NewAdminService(
	contracts ContractStore,
	profiles ProfileStore,
	violations ViolationStore,
	disputes DisputeStore,
	adminActions AdminActionStore,
	audit AuditStore,
	milestoneSvc *MilestoneService,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *AdminService {
	return &AdminService{
		contracts:    contracts,
		profiles:     profiles,
		violations:   violations,
		disputes:     disputes,
		adminActions: adminActions,
		audit:        audit,
		milestoneSvc: milestoneSvc,
		publisher:    publisher,
		cfg:          cfg,
		log:          log,
	}
}

type AdminActionInput struct {
	ContractID   *uuid.UUID
	TargetUserID *uuid.UUID
	ActionType   string
	Notes        string
	Details      map[string]any
}

// ExecuteAction runs one intervention from the fixed enumeration. The
// primary side effect runs first; the action row is appended afterwards
// regardless of how the side effect went. A failed secondary effect (for
// example notification dispatch) downgrades the outcome to partial but is
// never propagated as a hard failure and never rolls back the primary
// state change.
func (s *AdminService) ExecuteAction(ctx context.Context, adminID uuid.UUID, input AdminActionInput) (*models.AdminAction, error) {
	if !models.IsValidAdminActionType(input.ActionType) {
		return nil, apperrors.Validation("unknown action type %q", input.ActionType)
	}

	outcome := models.AdminOutcomeCompleted
	actionErr := s.execute(ctx, adminID, input)
	if actionErr != nil {
		outcome = models.AdminOutcomePartial
	}

	action := &models.AdminAction{
		AdminUserID:  adminID,
		ContractID:   input.ContractID,
		TargetUserID: input.TargetUserID,
		ActionType:   input.ActionType,
		Notes:        input.Notes,
		Details:      input.Details,
		Outcome:      outcome,
	}
	if err := s.adminActions.Append(ctx, action); err != nil {
		// The log is the accountability mechanism; losing it is a hard error.
		return nil, apperrors.Store(err, "append admin action")
	}
	metrics.AdminActionsTotal.WithLabelValues(input.ActionType, outcome).Inc()

	// Business-rule rejections surface to the caller; secondary-effect
	// failures are already absorbed into the partial outcome.
	if actionErr != nil {
		switch apperrors.KindOf(actionErr) {
		case apperrors.KindPartialFailure:
			s.log.Warn("admin action partially succeeded",
				zap.String("action_type", input.ActionType), zap.Error(actionErr))
			return action, nil
		default:
			return action, actionErr
		}
	}
	return action, nil
}

func (s *AdminService) ListActions(ctx context.Context, f repositories.AdminActionFilter) ([]models.AdminAction, error) {
	return s.adminActions.List(ctx, f)
}

// execute dispatches the primary side effect. A returned error of kind
// PartialFailure means the primary change landed but a secondary effect
// did not.
func (s *AdminService) execute(ctx context.Context, adminID uuid.UUID, input AdminActionInput) error {
	switch input.ActionType {
	case models.AdminActionContactUser:
		return s.contactUser(ctx, input)
	case models.AdminActionFreezeEscrow:
		return s.freezeEscrow(ctx, adminID, input)
	case models.AdminActionReleasePayment:
		return s.releasePayment(ctx, adminID, input)
	case models.AdminActionSuspendAccount:
		return s.suspendAccount(ctx, adminID, input)
	case models.AdminActionCancelContract:
		return s.cancelContract(ctx, adminID, input)
	case models.AdminActionMediateDispute:
		return s.mediateDispute(ctx, adminID, input)
	case models.AdminActionIssueWarning:
		return s.issueWarning(ctx, adminID, input)
	}
	return apperrors.Validation("unknown action type %q", input.ActionType)
}

func (s *AdminService) contactUser(ctx context.Context, input AdminActionInput) error {
	if input.TargetUserID == nil {
		return apperrors.Validation("contact_user requires target_user_id")
	}
	if err := s.notify(ctx, *input.TargetUserID, map[string]any{"message": input.Notes}); err != nil {
		return apperrors.PartialFailure(err, "notification dispatch failed")
	}
	return nil
}

func (s *AdminService) freezeEscrow(ctx context.Context, adminID uuid.UUID, input AdminActionInput) error {
	contract, err := s.loadContract(ctx, input.ContractID)
	if err != nil {
		return err
	}
	ok, err := s.contracts.UpdateStatusIf(ctx, contract.ID, models.ContractStatusActive, models.ContractStatusEscrowFrozen)
	if err != nil {
		return apperrors.Store(err, "freeze escrow")
	}
	if !ok {
		return apperrors.InvalidState("contract is %s, only active contracts can be frozen", contract.Status)
	}
	metrics.StatusTransitionsTotal.WithLabelValues(models.ContractStatusActive, models.ContractStatusEscrowFrozen).Inc()
	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &adminID, ActorType: "admin", Action: "escrow_frozen",
		EntityType: "contract", EntityID: &contract.ID,
	})

	err1 := s.notify(ctx, contract.ClientUserID, map[string]any{"contract_id": contract.ID.String(), "message": "escrow frozen pending review"})
	err2 := s.notify(ctx, contract.FreelancerUserID, map[string]any{"contract_id": contract.ID.String(), "message": "escrow frozen pending review"})
	if err1 != nil || err2 != nil {
		return apperrors.PartialFailure(nil, "escrow frozen, notification dispatch failed")
	}
	return nil
}

func (s *AdminService) releasePayment(ctx context.Context, adminID uuid.UUID, input AdminActionInput) error {
	if input.ContractID == nil {
		return apperrors.Validation("release_payment requires contract_id")
	}
	milestoneID, err := detailUUID(input.Details, "milestone_id")
	if err != nil {
		return err
	}
	_, err = s.milestoneSvc.ReleaseByAdmin(ctx, *input.ContractID, milestoneID, adminID, &input.Notes)
	return err
}

func (s *AdminService) suspendAccount(ctx context.Context, adminID uuid.UUID, input AdminActionInput) error {
	if input.TargetUserID == nil {
		return apperrors.Validation("suspend_account requires target_user_id")
	}
	userType, _ := input.Details["user_type"].(string)
	if userType != models.UserTypeClient && userType != models.UserTypeFreelancer {
		return apperrors.Validation("suspend_account requires details.user_type of client or freelancer")
	}

	until := time.Now().AddDate(0, 0, s.cfg.DefaultSuspensionDays)
	if raw, ok := input.Details["suspension_until"].(string); ok && raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperrors.Validation("details.suspension_until must be RFC3339")
		}
		until = parsed
	}

	if err := s.profiles.Suspend(ctx, *input.TargetUserID, userType, until, input.Notes); err != nil {
		return apperrors.Store(err, "suspend account")
	}
	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &adminID, ActorType: "admin", Action: "account_suspended",
		EntityType: "user", EntityID: input.TargetUserID,
		Meta: map[string]any{"until": until.Format(time.RFC3339)},
	})

	if err := s.notify(ctx, *input.TargetUserID, map[string]any{"message": "account suspended", "until": until.Format(time.RFC3339)}); err != nil {
		return apperrors.PartialFailure(err, "account suspended, notification dispatch failed")
	}
	return nil
}

func (s *AdminService) cancelContract(ctx context.Context, adminID uuid.UUID, input AdminActionInput) error {
	contract, err := s.loadContract(ctx, input.ContractID)
	if err != nil {
		return err
	}
	if models.IsTerminalContractStatus(contract.Status) {
		return apperrors.InvalidState("contract is already %s", contract.Status)
	}
	reason := input.Notes
	if reason == "" {
		return apperrors.Validation("cancel_contract requires a reason in notes")
	}
	ok, err := s.contracts.Cancel(ctx, contract.ID, contract.Status, &reason)
	if err != nil {
		return apperrors.Store(err, "cancel contract")
	}
	if !ok {
		return apperrors.InvalidState("contract status changed concurrently, expected %s", contract.Status)
	}
	metrics.StatusTransitionsTotal.WithLabelValues(contract.Status, models.ContractStatusCancelled).Inc()
	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &adminID, ActorType: "admin", Action: "contract_cancelled_by_admin",
		EntityType: "contract", EntityID: &contract.ID,
		Meta: map[string]any{"reason": reason},
	})

	err1 := s.notify(ctx, contract.ClientUserID, map[string]any{"contract_id": contract.ID.String(), "message": "contract cancelled by platform"})
	err2 := s.notify(ctx, contract.FreelancerUserID, map[string]any{"contract_id": contract.ID.String(), "message": "contract cancelled by platform"})
	if err1 != nil || err2 != nil {
		return apperrors.PartialFailure(nil, "contract cancelled, notification dispatch failed")
	}
	return nil
}

func (s *AdminService) mediateDispute(ctx context.Context, adminID uuid.UUID, input AdminActionInput) error {
	disputeID, err := detailUUID(input.Details, "dispute_id")
	if err != nil {
		return err
	}
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("dispute not found")
		}
		return apperrors.Store(err, "load dispute")
	}
	resolution, _ := input.Details["resolution"].(string)

	if dispute.Status == models.DisputeStatusOpen {
		ok, err := s.disputes.AssignMediator(ctx, disputeID, adminID)
		if err != nil {
			return apperrors.Store(err, "assign mediator")
		}
		if !ok {
			return apperrors.InvalidState("dispute was taken by another mediator")
		}
		_ = s.audit.Log(ctx, models.AuditLog{
			ActorUserID: &adminID, ActorType: "admin", Action: "dispute_mediation_assigned",
			EntityType: "contract", EntityID: &dispute.ContractID,
			Meta: map[string]any{"dispute_id": disputeID.String()},
		})
	} else if resolution == "" {
		return apperrors.InvalidState("dispute is %s, only open disputes can be taken for mediation", dispute.Status)
	}

	// An optional details.resolution closes the dispute in the same action.
	if resolution != "" {
		ok, err := s.disputes.Resolve(ctx, disputeID, resolution)
		if err != nil {
			return apperrors.Store(err, "resolve dispute")
		}
		if !ok {
			return apperrors.InvalidState("dispute is %s and cannot be resolved", dispute.Status)
		}
		_ = s.audit.Log(ctx, models.AuditLog{
			ActorUserID: &adminID, ActorType: "admin", Action: "dispute_resolved",
			EntityType: "contract", EntityID: &dispute.ContractID,
			Meta: map[string]any{"dispute_id": disputeID.String(), "resolution": resolution},
		})
	}
	return nil
}

func (s *AdminService) issueWarning(ctx context.Context, adminID uuid.UUID, input AdminActionInput) error {
	if input.TargetUserID == nil {
		return apperrors.Validation("issue_warning requires target_user_id")
	}
	violationType, _ := input.Details["violation_type"].(string)
	if violationType == "" {
		return apperrors.Validation("issue_warning requires details.violation_type")
	}
	userType, _ := input.Details["user_type"].(string)
	if userType != models.UserTypeClient && userType != models.UserTypeFreelancer {
		return apperrors.Validation("issue_warning requires details.user_type of client or freelancer")
	}
	severity, _ := input.Details["severity"].(string)
	if severity == "" {
		severity = models.ViolationSeverityLow
	}

	violation := &models.ViolationRecord{
		UserID:         *input.TargetUserID,
		UserType:       userType,
		ContractID:     input.ContractID,
		ViolationType:  violationType,
		Severity:       severity,
		PenaltyApplied: s.cfg.TrustScorePenalty,
		Description:    input.Notes,
		IssuedBy:       adminID,
	}
	if err := s.violations.Create(ctx, violation); err != nil {
		return apperrors.Store(err, "record violation")
	}
	if err := s.profiles.DecrementTrustScore(ctx, *input.TargetUserID, userType, s.cfg.TrustScorePenalty, s.cfg.TrustScoreFloor); err != nil {
		return apperrors.Store(err, "decrement trust score")
	}
	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &adminID, ActorType: "admin", Action: "warning_issued",
		EntityType: "user", EntityID: input.TargetUserID,
		Meta: map[string]any{"violation_type": violationType, "penalty": s.cfg.TrustScorePenalty},
	})

	if err := s.notify(ctx, *input.TargetUserID, map[string]any{"message": "policy warning issued", "violation_type": violationType}); err != nil {
		return apperrors.PartialFailure(err, "warning recorded, notification dispatch failed")
	}
	return nil
}

// --- helpers ---

func (s *AdminService) loadContract(ctx context.Context, id *uuid.UUID) (*models.Contract, error) {
	if id == nil {
		return nil, apperrors.Validation("contract_id is required for this action")
	}
	contract, err := s.contracts.GetByID(ctx, *id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("contract not found")
		}
		return nil, apperrors.Store(err, "load contract")
	}
	return contract, nil
}

func (s *AdminService) notify(ctx context.Context, userID uuid.UUID, payload map[string]any) error {
	p := map[string]any{"user_id": userID.String(), "event": events.EventUserNotification}
	for k, v := range payload {
		p[k] = v
	}
	return s.publisher.Publish(ctx, "events:notifications", events.Event{Type: events.EventUserNotification, Payload: p})
}

func detailUUID(details map[string]any, key string) (uuid.UUID, error) {
	raw, _ := details[key].(string)
	if raw == "" {
		return uuid.Nil, apperrors.Validation("details.%s is required", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Validation("details.%s is not a valid id", key)
	}
	return id, nil
}
