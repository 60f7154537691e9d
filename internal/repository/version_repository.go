package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Noel-Teens/pms-server/internal/models"
)

const uniqueViolation = "23505"

const versionColumns = `id, paperwork_id, version_no, submitted_at, pdf_file, latex_file, python_file, docx_file, ai_percent_self, ai_percent_verified`

// VersionRepository persists submitted versions.
type VersionRepository struct {
	db *sqlx.DB
}

// NewVersionRepository constructs the repository.
func NewVersionRepository(db *sqlx.DB) *VersionRepository {
	return &VersionRepository{db: db}
}

// MaxVersionNo returns the highest version number of the paperwork, or 0.
func (r *VersionRepository) MaxVersionNo(ctx context.Context, paperworkID string) (int, error) {
	const query = `SELECT COALESCE(MAX(version_no), 0) FROM versions WHERE paperwork_id = $1`
	var max int
	if err := r.db.GetContext(ctx, &max, query, paperworkID); err != nil {
		return 0, fmt.Errorf("max version number: %w", err)
	}
	return max, nil
}

// Create inserts a version. The (paperwork_id, version_no) pair is unique.
func (r *VersionRepository) Create(ctx context.Context, v *models.Version) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.SubmittedAt.IsZero() {
		v.SubmittedAt = time.Now().UTC()
	}
	query := `INSERT INTO versions (` + versionColumns + `)
VALUES (:id, :paperwork_id, :version_no, :submitted_at, :pdf_file, :latex_file, :python_file, :docx_file, :ai_percent_self, :ai_percent_verified)`
	if _, err := r.db.NamedExecContext(ctx, query, v); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("create version %d: %w", v.VersionNo, models.ErrVersionExists)
		}
		return fmt.Errorf("create version: %w", err)
	}
	return nil
}

// ListByPaperwork returns versions ordered by version number, newest first.
func (r *VersionRepository) ListByPaperwork(ctx context.Context, paperworkID string) ([]models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM versions WHERE paperwork_id = $1 ORDER BY version_no DESC`
	var versions []models.Version
	if err := r.db.SelectContext(ctx, &versions, query, paperworkID); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

// FindByNumber loads one version of a paperwork.
func (r *VersionRepository) FindByNumber(ctx context.Context, paperworkID string, versionNo int) (*models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM versions WHERE paperwork_id = $1 AND version_no = $2`
	var v models.Version
	if err := r.db.GetContext(ctx, &v, query, paperworkID, versionNo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find version: %w", err)
	}
	return &v, nil
}

// FindByID loads a version by identifier.
func (r *VersionRepository) FindByID(ctx context.Context, id string) (*models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM versions WHERE id = $1`
	var v models.Version
	if err := r.db.GetContext(ctx, &v, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find version by id: %w", err)
	}
	return &v, nil
}

// UpdateVerifiedAI records the reviewer-verified AI percentage on the latest
// version of the paperwork.
func (r *VersionRepository) UpdateVerifiedAI(ctx context.Context, paperworkID string, percent float64) error {
	const query = `UPDATE versions SET ai_percent_verified = $2
WHERE id = (SELECT id FROM versions WHERE paperwork_id = $1 ORDER BY version_no DESC LIMIT 1)`
	res, err := r.db.ExecContext(ctx, query, paperworkID, percent)
	if err != nil {
		return fmt.Errorf("update verified ai percent: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a version record.
func (r *VersionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM versions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete version: %w", err)
	}
	return nil
}
