package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/work-marketplace/backend/internal/models"
)

// AdminActionRepo is append-only: an action row is written for every
// executed intervention and never updated.
type AdminActionRepo struct {
	pool *pgxpool.Pool
}

func NewAdminActionRepo(pool *pgxpool.Pool) *AdminActionRepo {
	return &AdminActionRepo{pool: pool}
}

func (r *AdminActionRepo) Append(ctx context.Context, a *models.AdminAction) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO admin_actions (admin_user_id, contract_id, target_user_id, action_type, notes, details, outcome)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, a.AdminUserID, a.ContractID, a.TargetUserID, a.ActionType, a.Notes, a.Details, a.Outcome,
	).Scan(&a.ID, &a.CreatedAt)
}

type AdminActionFilter struct {
	ContractID  *uuid.UUID
	AdminUserID *uuid.UUID
	ActionType  *string
	Limit       int
	Offset      int
}

func (r *AdminActionRepo) List(ctx context.Context, f AdminActionFilter) ([]models.AdminAction, error) {
	query := `
		SELECT id, admin_user_id, contract_id, target_user_id, action_type, notes, details, outcome, created_at
		FROM admin_actions
	`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.ContractID != nil {
		where = append(where, fmt.Sprintf("contract_id = $%d", argIdx))
		args = append(args, *f.ContractID)
		argIdx++
	}
	if f.AdminUserID != nil {
		where = append(where, fmt.Sprintf("admin_user_id = $%d", argIdx))
		args = append(args, *f.AdminUserID)
		argIdx++
	}
	if f.ActionType != nil {
		where = append(where, fmt.Sprintf("action_type = $%d", argIdx))
		args = append(args, *f.ActionType)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, w := range where {
			if i > 0 {
				query += " AND "
			}
			query += w
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []models.AdminAction
	for rows.Next() {
		var a models.AdminAction
		if err := rows.Scan(&a.ID, &a.AdminUserID, &a.ContractID, &a.TargetUserID, &a.ActionType,
			&a.Notes, &a.Details, &a.Outcome, &a.CreatedAt); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}
