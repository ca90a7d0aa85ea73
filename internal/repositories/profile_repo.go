package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/work-marketplace/backend/internal/models"
)

// ProfileRepo maintains the rollup aggregates embedded in the freelancer
// and client profile records. Every mutation is a single atomic SQL
// statement; there is no read-modify-write anywhere in this file.
type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) GetFreelancer(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error) {
	var p models.FreelancerProfile
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, total_earned, completed_jobs, rating, review_count, trust_score,
		       suspended_until, suspension_reason, created_at, updated_at
		FROM freelancer_profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.TotalEarned, &p.CompletedJobs, &p.Rating, &p.ReviewCount, &p.TrustScore,
		&p.SuspendedUntil, &p.SuspensionReason, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepo) GetClient(ctx context.Context, userID uuid.UUID) (*models.ClientProfile, error) {
	var p models.ClientProfile
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, total_spent, trust_score, suspended_until, suspension_reason, created_at, updated_at
		FROM client_profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.TotalSpent, &p.TrustScore,
		&p.SuspendedUntil, &p.SuspensionReason, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AddEarnings increments the freelancer lifetime-earned aggregate by the
// net amount of a settlement.
func (r *ProfileRepo) AddEarnings(ctx context.Context, userID uuid.UUID, net decimal.Decimal) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE freelancer_profiles SET total_earned = total_earned + $1, updated_at = now()
		WHERE user_id = $2
	`, net, userID)
	return err
}

// IncrementCompletedJobs bumps the completed-job counter once per contract.
func (r *ProfileRepo) IncrementCompletedJobs(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE freelancer_profiles SET completed_jobs = completed_jobs + 1, updated_at = now()
		WHERE user_id = $1
	`, userID)
	return err
}

// ApplyRating folds a new rating into the weighted running average. The
// average is computed in SQL from the stored values in the same statement,
// so concurrent reviews for the same freelancer serialize on the row.
func (r *ProfileRepo) ApplyRating(ctx context.Context, userID uuid.UUID, rating int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE freelancer_profiles
		SET rating = (rating * review_count + $1) / (review_count + 1),
		    review_count = review_count + 1,
		    updated_at = now()
		WHERE user_id = $2
	`, rating, userID)
	return err
}

// AddSpend increments the client lifetime-spend aggregate by the gross
// amount of a settlement.
func (r *ProfileRepo) AddSpend(ctx context.Context, userID uuid.UUID, gross decimal.Decimal) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE client_profiles SET total_spent = total_spent + $1, updated_at = now()
		WHERE user_id = $2
	`, gross, userID)
	return err
}

// DecrementTrustScore lowers the trust score by penalty, clamped at floor.
func (r *ProfileRepo) DecrementTrustScore(ctx context.Context, userID uuid.UUID, userType string, penalty, floor int) error {
	table := "freelancer_profiles"
	if userType == models.UserTypeClient {
		table = "client_profiles"
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE `+table+` SET trust_score = GREATEST(trust_score - $1, $2), updated_at = now()
		WHERE user_id = $3
	`, penalty, floor, userID)
	return err
}

// Suspend records a suspension window and reason on the profile.
func (r *ProfileRepo) Suspend(ctx context.Context, userID uuid.UUID, userType string, until time.Time, reason string) error {
	table := "freelancer_profiles"
	if userType == models.UserTypeClient {
		table = "client_profiles"
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE `+table+` SET suspended_until = $1, suspension_reason = $2, updated_at = now()
		WHERE user_id = $3
	`, until, reason, userID)
	return err
}
