package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/work-marketplace/backend/internal/models"
)

type ContractRepo struct {
	pool *pgxpool.Pool
}

func NewContractRepo(pool *pgxpool.Pool) *ContractRepo {
	return &ContractRepo{pool: pool}
}

const contractColumns = `id, client_user_id, freelancer_user_id, proposal_id, title, description,
	       contract_type, status, total_amount, platform_fee_percent, fee_amount, net_amount,
	       client_signed_at, freelancer_signed_at, start_date, end_date,
	       submitted_at, payment_released_at, cancellation_reason, created_at, updated_at`

func scanContract(row interface{ Scan(...any) error }, c *models.Contract) error {
	return row.Scan(&c.ID, &c.ClientUserID, &c.FreelancerUserID, &c.ProposalID, &c.Title, &c.Description,
		&c.ContractType, &c.Status, &c.TotalAmount, &c.PlatformFeePercent, &c.FeeAmount, &c.NetAmount,
		&c.ClientSignedAt, &c.FreelancerSignedAt, &c.StartDate, &c.EndDate,
		&c.SubmittedAt, &c.PaymentReleasedAt, &c.CancellationReason, &c.CreatedAt, &c.UpdatedAt)
}

func (r *ContractRepo) Create(ctx context.Context, c *models.Contract) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO contracts (client_user_id, freelancer_user_id, proposal_id, title, description,
		                       contract_type, status, total_amount, platform_fee_percent, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, c.ClientUserID, c.FreelancerUserID, c.ProposalID, c.Title, c.Description,
		c.ContractType, c.Status, c.TotalAmount, c.PlatformFeePercent, c.StartDate, c.EndDate,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *ContractRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	var c models.Contract
	err := scanContract(r.pool.QueryRow(ctx, `
		SELECT `+contractColumns+` FROM contracts WHERE id = $1
	`, id), &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type ContractFilter struct {
	ClientUserID     *uuid.UUID
	FreelancerUserID *uuid.UUID
	Status           *string
	Limit            int
	Offset           int
}

func (r *ContractRepo) List(ctx context.Context, f ContractFilter) ([]models.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.ClientUserID != nil {
		where = append(where, fmt.Sprintf("client_user_id = $%d", argIdx))
		args = append(args, *f.ClientUserID)
		argIdx++
	}
	if f.FreelancerUserID != nil {
		where = append(where, fmt.Sprintf("freelancer_user_id = $%d", argIdx))
		args = append(args, *f.FreelancerUserID)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *f.Status)
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
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []models.Contract
	for rows.Next() {
		var c models.Contract
		if err := scanContract(rows, &c); err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, nil
}

// SignAsClient stamps the client signature once. Returns false when the
// signature was already present (idempotent no-op).
func (r *ContractRepo) SignAsClient(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contracts SET client_signed_at = now(), updated_at = now()
		WHERE id = $1 AND client_signed_at IS NULL
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SignAsFreelancer stamps the freelancer signature once.
func (r *ContractRepo) SignAsFreelancer(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contracts SET freelancer_signed_at = now(), updated_at = now()
		WHERE id = $1 AND freelancer_signed_at IS NULL
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateStatusIf flips status only when the row is still in the expected
// pre-state. The conditional write is what closes the check-to-use gap on
// concurrent transitions.
func (r *ContractRepo) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contracts SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkSubmitted moves an active contract into pending_completion.
func (r *ContractRepo) MarkSubmitted(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contracts SET status = $1, submitted_at = now(), updated_at = now()
		WHERE id = $2 AND status = $3
	`, models.ContractStatusPendingCompletion, id, models.ContractStatusActive)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Settle completes a contract pending client approval and records the fee
// split, all in one guarded statement so a concurrent approval settles at
// most once.
func (r *ContractRepo) Settle(ctx context.Context, id uuid.UUID, fee, net decimal.Decimal) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contracts
		SET status = $1, fee_amount = $2, net_amount = $3, payment_released_at = now(), updated_at = now()
		WHERE id = $4 AND status = $5
	`, models.ContractStatusCompleted, fee, net, id, models.ContractStatusPendingCompletion)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RevertToActive returns a rejected completion to active and clears the
// completion timestamp.
func (r *ContractRepo) RevertToActive(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contracts SET status = $1, submitted_at = NULL, updated_at = now()
		WHERE id = $2 AND status = $3
	`, models.ContractStatusActive, id, models.ContractStatusPendingCompletion)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Cancel moves a contract into the terminal cancelled state with a reason,
// guarded on the expected pre-state.
func (r *ContractRepo) Cancel(ctx context.Context, id uuid.UUID, from string, reason *string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contracts SET status = $1, cancellation_reason = $2, end_date = now(), updated_at = now()
		WHERE id = $3 AND status = $4
	`, models.ContractStatusCancelled, reason, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CompleteFromActive finishes a milestone contract once its last milestone
// is paid.
func (r *ContractRepo) CompleteFromActive(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contracts SET status = $1, payment_released_at = now(), updated_at = now()
		WHERE id = $2 AND status = $3
	`, models.ContractStatusCompleted, id, models.ContractStatusActive)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateTerms edits the negotiable fields. Callers must have verified the
// freelancer has not signed yet.
func (r *ContractRepo) UpdateTerms(ctx context.Context, c *models.Contract) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE contracts
		SET title = $1, description = $2, total_amount = $3, start_date = $4, end_date = $5, updated_at = now()
		WHERE id = $6
	`, c.Title, c.Description, c.TotalAmount, c.StartDate, c.EndDate, c.ID)
	return err
}
