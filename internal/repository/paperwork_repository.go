package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Noel-Teens/pms-server/internal/models"
)

const paperworkSelect = `SELECT p.id, p.title, p.researcher_id, u.username AS researcher_username, p.status, p.assigned_at, p.deadline, p.updated_at,
(SELECT MAX(v.version_no) FROM versions v WHERE v.paperwork_id = p.id) AS latest_version
FROM paperworks p JOIN users u ON u.id = p.researcher_id`

// PaperworkRepository persists paperwork rows.
type PaperworkRepository struct {
	db *sqlx.DB
}

// NewPaperworkRepository constructs the repository.
func NewPaperworkRepository(db *sqlx.DB) *PaperworkRepository {
	return &PaperworkRepository{db: db}
}

// Create inserts a paperwork in the ASSIGNED state unless a status is set.
func (r *PaperworkRepository) Create(ctx context.Context, pw *models.Paperwork) error {
	if pw.ID == "" {
		pw.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pw.AssignedAt.IsZero() {
		pw.AssignedAt = now
	}
	pw.UpdatedAt = now
	if pw.Status == "" {
		pw.Status = models.PaperworkAssigned
	}

	const query = `INSERT INTO paperworks (id, title, researcher_id, status, assigned_at, deadline, updated_at)
VALUES (:id, :title, :researcher_id, :status, :assigned_at, :deadline, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pw); err != nil {
		return fmt.Errorf("create paperwork: %w", err)
	}
	return nil
}

// FindByID loads one paperwork with its researcher's username.
func (r *PaperworkRepository) FindByID(ctx context.Context, id string) (*models.Paperwork, error) {
	var pw models.Paperwork
	if err := r.db.GetContext(ctx, &pw, paperworkSelect+` WHERE p.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find paperwork: %w", err)
	}
	return &pw, nil
}

// List returns a page of paperwork, newest assignment first, and the total.
func (r *PaperworkRepository) List(ctx context.Context, filter models.PaperworkFilter) ([]models.Paperwork, int, error) {
	var conditions []string
	var args []interface{}
	if filter.ResearcherID != "" {
		args = append(args, filter.ResearcherID)
		conditions = append(conditions, fmt.Sprintf("p.researcher_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(p.title) LIKE $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	page, pageSize := normalisePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("%s%s ORDER BY p.assigned_at DESC, p.id LIMIT %d OFFSET %d", paperworkSelect, where, pageSize, (page-1)*pageSize)

	var items []models.Paperwork
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list paperworks: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM paperworks p"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count paperworks: %w", err)
	}
	return items, total, nil
}

// UpdateStatus sets the paperwork status.
func (r *PaperworkRepository) UpdateStatus(ctx context.Context, id string, status models.PaperworkStatus, updatedAt time.Time) error {
	const query = `UPDATE paperworks SET status = $2, updated_at = $3 WHERE id = $1`
	return r.execOne(ctx, "update paperwork status", query, id, status, updatedAt)
}

// UpdateDeadline sets or clears the deadline.
func (r *PaperworkRepository) UpdateDeadline(ctx context.Context, id string, deadline *time.Time, updatedAt time.Time) error {
	const query = `UPDATE paperworks SET deadline = $2, updated_at = $3 WHERE id = $1`
	return r.execOne(ctx, "update paperwork deadline", query, id, deadline, updatedAt)
}

// Delete removes the paperwork; versions, reviews and notifications cascade.
func (r *PaperworkRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, "delete paperwork", `DELETE FROM paperworks WHERE id = $1`, id)
}

func (r *PaperworkRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
