package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/work-marketplace/backend/internal/models"
)

type MilestoneRepo struct {
	pool *pgxpool.Pool
}

func NewMilestoneRepo(pool *pgxpool.Pool) *MilestoneRepo {
	return &MilestoneRepo{pool: pool}
}

const milestoneColumns = `id, contract_id, title, description, amount, due_date, status,
	       approval_note, rejection_note, fee_amount, net_amount,
	       submitted_at, paid_at, created_at, updated_at`

func scanMilestone(row interface{ Scan(...any) error }, m *models.Milestone) error {
	return row.Scan(&m.ID, &m.ContractID, &m.Title, &m.Description, &m.Amount, &m.DueDate, &m.Status,
		&m.ApprovalNote, &m.RejectionNote, &m.FeeAmount, &m.NetAmount,
		&m.SubmittedAt, &m.PaidAt, &m.CreatedAt, &m.UpdatedAt)
}

func (r *MilestoneRepo) Create(ctx context.Context, m *models.Milestone) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO contract_milestones (contract_id, title, description, amount, due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, m.ContractID, m.Title, m.Description, m.Amount, m.DueDate, m.Status).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *MilestoneRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	var m models.Milestone
	err := scanMilestone(r.pool.QueryRow(ctx, `
		SELECT `+milestoneColumns+` FROM contract_milestones WHERE id = $1
	`, id), &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MilestoneRepo) ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Milestone, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+milestoneColumns+` FROM contract_milestones
		WHERE contract_id = $1 ORDER BY due_date NULLS LAST, created_at
	`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var milestones []models.Milestone
	for rows.Next() {
		var m models.Milestone
		if err := scanMilestone(rows, &m); err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, nil
}

// Submit moves a pending or rejected milestone to submitted.
func (r *MilestoneRepo) Submit(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contract_milestones SET status = $1, submitted_at = now(), updated_at = now()
		WHERE id = $2 AND status IN ($3, $4)
	`, models.MilestoneStatusSubmitted, id, models.MilestoneStatusPending, models.MilestoneStatusRejected)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Pay settles a submitted milestone: status, fee split and paid timestamp
// flip in a single conditional statement so concurrent approvals settle at
// most once. The escrow-freeze predicate is part of the same statement,
// which closes the window between the service loading the contract and the
// payment landing.
func (r *MilestoneRepo) Pay(ctx context.Context, id uuid.UUID, fee, net decimal.Decimal, approvalNote *string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contract_milestones
		SET status = $1, fee_amount = $2, net_amount = $3, approval_note = $4, paid_at = now(), updated_at = now()
		WHERE id = $5 AND status = $6
		  AND EXISTS (
			SELECT 1 FROM contracts c
			WHERE c.id = contract_milestones.contract_id AND c.status <> $7
		  )
	`, models.MilestoneStatusPaid, fee, net, approvalNote, id, models.MilestoneStatusSubmitted, models.ContractStatusEscrowFrozen)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Reject returns a submitted milestone to the freelancer for rework.
func (r *MilestoneRepo) Reject(ctx context.Context, id uuid.UUID, rejectionNote string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contract_milestones
		SET status = $1, rejection_note = $2, submitted_at = NULL, updated_at = now()
		WHERE id = $3 AND status = $4
	`, models.MilestoneStatusRejected, rejectionNote, id, models.MilestoneStatusSubmitted)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountUnpaid reports how many milestones of a contract are not yet paid.
func (r *MilestoneRepo) CountUnpaid(ctx context.Context, contractID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM contract_milestones WHERE contract_id = $1 AND status <> $2
	`, contractID, models.MilestoneStatusPaid).Scan(&n)
	return n, err
}

// DeletePending removes the not-yet-started milestones of a contract.
// Used when terms are edited before the freelancer signs.
func (r *MilestoneRepo) DeletePending(ctx context.Context, contractID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM contract_milestones WHERE contract_id = $1 AND status = $2
	`, contractID, models.MilestoneStatusPending)
	return err
}
