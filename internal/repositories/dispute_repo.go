package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/work-marketplace/backend/internal/models"
)

type DisputeRepo struct {
	pool *pgxpool.Pool
}

func NewDisputeRepo(pool *pgxpool.Pool) *DisputeRepo {
	return &DisputeRepo{pool: pool}
}

func (r *DisputeRepo) Create(ctx context.Context, d *models.Dispute) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO disputes (contract_id, initiator_id, reason, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, d.ContractID, d.InitiatorID, d.Reason, d.Status).Scan(&d.ID, &d.CreatedAt)
}

func (r *DisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.pool.QueryRow(ctx, `
		SELECT id, contract_id, initiator_id, reason, status, mediator_id, resolution, created_at, resolved_at
		FROM disputes WHERE id = $1
	`, id).Scan(&d.ID, &d.ContractID, &d.InitiatorID, &d.Reason, &d.Status, &d.MediatorID, &d.Resolution, &d.CreatedAt, &d.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// AssignMediator moves an open dispute under review by the given admin.
func (r *DisputeRepo) AssignMediator(ctx context.Context, id, adminID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE disputes SET status = $1, mediator_id = $2
		WHERE id = $3 AND status = $4
	`, models.DisputeStatusUnderReview, adminID, id, models.DisputeStatusOpen)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *DisputeRepo) Resolve(ctx context.Context, id uuid.UUID, resolution string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE disputes SET status = $1, resolution = $2, resolved_at = now()
		WHERE id = $3 AND status = $4
	`, models.DisputeStatusResolved, resolution, id, models.DisputeStatusUnderReview)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *DisputeRepo) ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Dispute, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, contract_id, initiator_id, reason, status, mediator_id, resolution, created_at, resolved_at
		FROM disputes WHERE contract_id = $1 ORDER BY created_at DESC
	`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var disputes []models.Dispute
	for rows.Next() {
		var d models.Dispute
		if err := rows.Scan(&d.ID, &d.ContractID, &d.InitiatorID, &d.Reason, &d.Status, &d.MediatorID,
			&d.Resolution, &d.CreatedAt, &d.ResolvedAt); err != nil {
			return nil, err
		}
		disputes = append(disputes, d)
	}
	return disputes, nil
}
