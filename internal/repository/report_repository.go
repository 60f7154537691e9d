package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Noel-Teens/pms-server/internal/models"
)

// ReportRepository runs read-only aggregation queries.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CountPaperworks returns the total number of paperworks.
func (r *ReportRepository) CountPaperworks(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM paperworks`); err != nil {
		return 0, fmt.Errorf("count paperworks: %w", err)
	}
	return total, nil
}

// CountByStatus groups paperworks by status.
func (r *ReportRepository) CountByStatus(ctx context.Context) ([]models.GroupCount, error) {
	const query = `SELECT status AS key, COUNT(*) AS count FROM paperworks GROUP BY status ORDER BY status`
	var rows []models.GroupCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	return rows, nil
}

// CountByResearcher groups paperworks by the assigned researcher's username.
func (r *ReportRepository) CountByResearcher(ctx context.Context) ([]models.GroupCount, error) {
	const query = `SELECT u.username AS key, COUNT(*) AS count
FROM paperworks p JOIN users u ON u.id = p.researcher_id
GROUP BY u.username ORDER BY u.username`
	var rows []models.GroupCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count by researcher: %w", err)
	}
	return rows, nil
}

// AverageVerifiedAI is the mean verified AI percentage over all versions.
// Unverified versions count as 0, and no versions at all yields 0.
func (r *ReportRepository) AverageVerifiedAI(ctx context.Context) (float64, error) {
	var avg float64
	if err := r.db.GetContext(ctx, &avg, `SELECT COALESCE(AVG(COALESCE(ai_percent_verified, 0)), 0) FROM versions`); err != nil {
		return 0, fmt.Errorf("average verified ai: %w", err)
	}
	return avg, nil
}

// ExportRows returns one row per paperwork with its latest version.
func (r *ReportRepository) ExportRows(ctx context.Context) ([]models.ReportRow, error) {
	const query = `SELECT p.id, p.title, u.username AS researcher_username, p.status, p.assigned_at,
lv.version_no AS latest_version, lv.ai_percent_verified
FROM paperworks p
JOIN users u ON u.id = p.researcher_id
LEFT JOIN LATERAL (
	SELECT v.version_no, v.ai_percent_verified FROM versions v
	WHERE v.paperwork_id = p.id ORDER BY v.version_no DESC LIMIT 1
) lv ON TRUE
ORDER BY p.assigned_at, p.id`
	var rows []models.ReportRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("export rows: %w", err)
	}
	return rows, nil
}

// ResearcherStats counts one researcher's paperwork by state.
func (r *ReportRepository) ResearcherStats(ctx context.Context, researcherID string) (*models.ResearcherStats, error) {
	const query = `SELECT COUNT(*) AS total,
COUNT(*) FILTER (WHERE status = 'SUBMITTED') AS pending_review,
COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
COUNT(*) FILTER (WHERE status = 'CHANGES_REQUESTED') AS changes_requested
FROM paperworks WHERE researcher_id = $1`
	var stats models.ResearcherStats
	if err := r.db.GetContext(ctx, &stats, query, researcherID); err != nil {
		return nil, fmt.Errorf("researcher stats: %w", err)
	}
	return &stats, nil
}

// AdminStats counts all paperwork by state.
func (r *ReportRepository) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	const query = `SELECT COUNT(*) AS total,
COUNT(*) FILTER (WHERE status = 'SUBMITTED') AS submitted,
COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
COUNT(*) FILTER (WHERE status = 'CHANGES_REQUESTED') AS changes_requested
FROM paperworks`
	var stats models.AdminStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	return &stats, nil
}
