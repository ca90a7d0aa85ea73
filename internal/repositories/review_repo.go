package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/work-marketplace/backend/internal/models"
)

type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

func (r *ReviewRepo) Create(ctx context.Context, rev *models.Review) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO reviews (contract_id, reviewer_user_id, reviewee_user_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, rev.ContractID, rev.ReviewerUserID, rev.RevieweeUserID, rev.Rating, rev.Comment).Scan(&rev.ID, &rev.CreatedAt)
}

func (r *ReviewRepo) ListByReviewee(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Review, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, contract_id, reviewer_user_id, reviewee_user_id, rating, comment, created_at
		FROM reviews WHERE reviewee_user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var rev models.Review
		if err := rows.Scan(&rev.ID, &rev.ContractID, &rev.ReviewerUserID, &rev.RevieweeUserID,
			&rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rev)
	}
	return reviews, nil
}
