package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/work-marketplace/backend/internal/models"
)

type ViolationRepo struct {
	pool *pgxpool.Pool
}

func NewViolationRepo(pool *pgxpool.Pool) *ViolationRepo {
	return &ViolationRepo{pool: pool}
}

func (r *ViolationRepo) Create(ctx context.Context, v *models.ViolationRecord) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO violation_history (user_id, user_type, contract_id, violation_type, severity,
		                               penalty_applied, description, issued_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, v.UserID, v.UserType, v.ContractID, v.ViolationType, v.Severity,
		v.PenaltyApplied, v.Description, v.IssuedBy,
	).Scan(&v.ID, &v.CreatedAt)
}

func (r *ViolationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ViolationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, user_type, contract_id, violation_type, severity,
		       penalty_applied, description, issued_by, created_at
		FROM violation_history WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ViolationRecord
	for rows.Next() {
		var v models.ViolationRecord
		if err := rows.Scan(&v.ID, &v.UserID, &v.UserType, &v.ContractID, &v.ViolationType, &v.Severity,
			&v.PenaltyApplied, &v.Description, &v.IssuedBy, &v.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, v)
	}
	return records, nil
}
