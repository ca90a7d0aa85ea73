package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/work-marketplace/backend/internal/models"
)

// TransactionRepo writes the immutable settlement ledger. Rows are only
// ever inserted.
type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

func (r *TransactionRepo) Create(ctx context.Context, t *models.PlatformTransaction) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO platform_transactions (contract_id, milestone_id, client_user_id, freelancer_user_id,
		                                   type, gross_amount, fee_amount, net_amount, fee_percent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, t.ContractID, t.MilestoneID, t.ClientUserID, t.FreelancerUserID,
		t.Type, t.GrossAmount, t.FeeAmount, t.NetAmount, t.FeePercent,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *TransactionRepo) ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.PlatformTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, contract_id, milestone_id, client_user_id, freelancer_user_id,
		       type, gross_amount, fee_amount, net_amount, fee_percent, created_at
		FROM platform_transactions WHERE contract_id = $1 ORDER BY created_at
	`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.PlatformTransaction
	for rows.Next() {
		var t models.PlatformTransaction
		if err := rows.Scan(&t.ID, &t.ContractID, &t.MilestoneID, &t.ClientUserID, &t.FreelancerUserID,
			&t.Type, &t.GrossAmount, &t.FeeAmount, &t.NetAmount, &t.FeePercent, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, nil
}
