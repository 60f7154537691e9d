package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Noel-Teens/pms-server/internal/models"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
	"github.com/Noel-Teens/pms-server/pkg/export"
)

const notAvailable = "N/A"

type reportRepository interface {
	CountPaperworks(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) ([]models.GroupCount, error)
	CountByResearcher(ctx context.Context) ([]models.GroupCount, error)
	AverageVerifiedAI(ctx context.Context) (float64, error)
	ExportRows(ctx context.Context) ([]models.ReportRow, error)
	ResearcherStats(ctx context.Context, researcherID string) (*models.ResearcherStats, error)
	AdminStats(ctx context.Context) (*models.AdminStats, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

// TableRenderer turns a dataset into a downloadable document.
type TableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

// ReportExport is a rendered report ready to download.
type ReportExport struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService aggregates paperwork for reporting. It never mutates state.
type ReportService struct {
	repo     reportRepository
	cache    reportCache
	csv      TableRenderer
	pdf      TableRenderer
	logger   *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewReportService constructs the service. cache may be nil.
func NewReportService(repo reportRepository, cache reportCache, csv, pdf TableRenderer, logger *zap.Logger, cacheTTL time.Duration) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, cache: cache, csv: csv, pdf: pdf, logger: logger, cacheTTL: cacheTTL, now: time.Now}
}

// Summary returns totals by status and researcher and the mean verified AI
// percentage (0 when no version has one).
func (s *ReportService) Summary(ctx context.Context) (*models.ReportSummary, error) {
	var cached models.ReportSummary
	if s.cache != nil && s.cache.Get(ctx, reportSummaryCacheKey, &cached) {
		return &cached, nil
	}

	total, err := s.repo.CountPaperworks(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count paperwork")
	}
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to group paperwork by status")
	}
	byResearcher, err := s.repo.CountByResearcher(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to group paperwork by researcher")
	}
	avg, err := s.repo.AverageVerifiedAI(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to average ai percentage")
	}

	summary := &models.ReportSummary{
		TotalPapers:         total,
		PapersByStatus:      make(map[string]int, len(models.PaperworkStatuses)),
		PapersByResearcher:  make(map[string]int, len(byResearcher)),
		AverageAIPercentage: avg,
	}
	for _, status := range models.PaperworkStatuses {
		summary.PapersByStatus[string(status)] = 0
	}
	for _, row := range byStatus {
		summary.PapersByStatus[row.Key] = row.Count
	}
	for _, row := range byResearcher {
		summary.PapersByResearcher[row.Key] = row.Count
	}

	if s.cache != nil {
		s.cache.Set(ctx, reportSummaryCacheKey, summary, s.cacheTTL)
	}
	return summary, nil
}

// ExportCSV renders one row per paperwork as CSV.
func (s *ReportService) ExportCSV(ctx context.Context) (*ReportExport, error) {
	return s.render(ctx, s.csv, "csv")
}

// ExportPDF renders the same table as ExportCSV into a PDF document.
func (s *ReportService) ExportPDF(ctx context.Context) (*ReportExport, error) {
	return s.render(ctx, s.pdf, "pdf")
}

func (s *ReportService) render(ctx context.Context, renderer TableRenderer, ext string) (*ReportExport, error) {
	if renderer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, ext+" export unavailable")
	}
	data, err := s.dataset(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(data)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render report")
	}
	return &ReportExport{
		Filename:    "paperworks_report." + ext,
		ContentType: renderer.ContentType(),
		Data:        payload,
	}, nil
}

func (s *ReportService) dataset(ctx context.Context) (export.Dataset, error) {
	rows, err := s.repo.ExportRows(ctx)
	if err != nil {
		return export.Dataset{}, appErrors.Internal(err, "failed to load report rows")
	}
	data := export.Dataset{
		Title:   "Paperwork report " + s.now().UTC().Format("2006-01-02"),
		Headers: []string{"ID", "Title", "Researcher", "Status", "Assigned At", "Latest Version", "AI Percentage"},
	}
	for _, row := range rows {
		latest := notAvailable
		if row.LatestVersion != nil {
			latest = strconv.Itoa(*row.LatestVersion)
		}
		ai := notAvailable
		if row.LatestVersion != nil && row.AIPercentVerified != nil {
			ai = strconv.FormatFloat(*row.AIPercentVerified, 'f', -1, 64)
		}
		data.AddRow(
			row.ID,
			row.Title,
			row.ResearcherUsername,
			string(row.Status),
			row.AssignedAt.Format("2006-01-02"),
			latest,
			ai,
		)
	}
	return data, nil
}

// ResearcherStats summarises the caller's own paperwork.
func (s *ReportService) ResearcherStats(ctx context.Context, actor *models.JWTClaims) (*models.ResearcherStats, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleResearcher {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "researcher role required")
	}
	stats, err := s.repo.ResearcherStats(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load researcher stats")
	}
	return stats, nil
}

// AdminStats summarises all paperwork.
func (s *ReportService) AdminStats(ctx context.Context, actor *models.JWTClaims) (*models.AdminStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	stats, err := s.repo.AdminStats(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load admin stats")
	}
	return stats, nil
}
