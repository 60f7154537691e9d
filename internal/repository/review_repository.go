package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Noel-Teens/pms-server/internal/models"
)

// ReviewRepository persists review comments.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs the repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now

	const query = `INSERT INTO reviews (id, paperwork_id, reviewer_id, status, comments, created_at, updated_at)
VALUES (:id, :paperwork_id, :reviewer_id, :status, :comments, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// ListByPaperwork returns reviews newest first.
func (r *ReviewRepository) ListByPaperwork(ctx context.Context, paperworkID string) ([]models.Review, error) {
	const query = `SELECT id, paperwork_id, reviewer_id, status, comments, created_at, updated_at
FROM reviews WHERE paperwork_id = $1 ORDER BY created_at DESC`
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, paperworkID); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}
