package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/work-marketplace/backend/internal/models"
	"github.com/work-marketplace/backend/internal/repositories"
)

// Store interfaces consumed by the services. The pgx repositories satisfy
// them; tests substitute in-memory fakes.

type ContractStore interface {
	Create(ctx context.Context, c *models.Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	List(ctx context.Context, f repositories.ContractFilter) ([]models.Contract, error)
	SignAsClient(ctx context.Context, id uuid.UUID) (bool, error)
	SignAsFreelancer(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	MarkSubmitted(ctx context.Context, id uuid.UUID) (bool, error)
	Settle(ctx context.Context, id uuid.UUID, fee, net decimal.Decimal) (bool, error)
	RevertToActive(ctx context.Context, id uuid.UUID) (bool, error)
	Cancel(ctx context.Context, id uuid.UUID, from string, reason *string) (bool, error)
	CompleteFromActive(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateTerms(ctx context.Context, c *models.Contract) error
}

type MilestoneStore interface {
	Create(ctx context.Context, m *models.Milestone) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error)
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Milestone, error)
	Submit(ctx context.Context, id uuid.UUID) (bool, error)
	Pay(ctx context.Context, id uuid.UUID, fee, net decimal.Decimal, approvalNote *string) (bool, error)
	Reject(ctx context.Context, id uuid.UUID, rejectionNote string) (bool, error)
	CountUnpaid(ctx context.Context, contractID uuid.UUID) (int, error)
	DeletePending(ctx context.Context, contractID uuid.UUID) error
}

type TransactionStore interface {
	Create(ctx context.Context, t *models.PlatformTransaction) error
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.PlatformTransaction, error)
}

type ProfileStore interface {
	GetFreelancer(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error)
	GetClient(ctx context.Context, userID uuid.UUID) (*models.ClientProfile, error)
	AddEarnings(ctx context.Context, userID uuid.UUID, net decimal.Decimal) error
	IncrementCompletedJobs(ctx context.Context, userID uuid.UUID) error
	ApplyRating(ctx context.Context, userID uuid.UUID, rating int) error
	AddSpend(ctx context.Context, userID uuid.UUID, gross decimal.Decimal) error
	DecrementTrustScore(ctx context.Context, userID uuid.UUID, userType string, penalty, floor int) error
	Suspend(ctx context.Context, userID uuid.UUID, userType string, until time.Time, reason string) error
}

type AdminActionStore interface {
	Append(ctx context.Context, a *models.AdminAction) error
	List(ctx context.Context, f repositories.AdminActionFilter) ([]models.AdminAction, error)
}

type ViolationStore interface {
	Create(ctx context.Context, v *models.ViolationRecord) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ViolationRecord, error)
}

type DisputeStore interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	AssignMediator(ctx context.Context, id, adminID uuid.UUID) (bool, error)
	Resolve(ctx context.Context, id uuid.UUID, resolution string) (bool, error)
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Dispute, error)
}

type ReviewStore interface {
	Create(ctx context.Context, rev *models.Review) error
}

type AuditStore interface {
	Log(ctx context.Context, entry models.AuditLog) error
	GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error)
}
