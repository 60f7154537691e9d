package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Noel-Teens/pms-server/internal/models"
)

func TestReportRepositoryGroupCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status AS key, COUNT(*) AS count FROM paperworks GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("APPROVED", 2).AddRow("SUBMITTED", 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT u.username AS key, COUNT(*) AS count")).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("ada", 3))

	byStatus, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.GroupCount{{Key: "APPROVED", Count: 2}, {Key: "SUBMITTED", Count: 1}}, byStatus)

	byResearcher, err := repo.CountByResearcher(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ada", byResearcher[0].Key)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryAverageDefaultsToZero(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(AVG(COALESCE(ai_percent_verified, 0)), 0) FROM versions")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0.0))

	avg, err := repo.AverageVerifiedAI(context.Background())
	require.NoError(t, err)
	require.Zero(t, avg)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryAverageCountsUnverifiedAsZero(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	// versions at 30 and NULL
	mock.ExpectQuery(regexp.QuoteMeta("AVG(COALESCE(ai_percent_verified, 0))")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(15.0))

	avg, err := repo.AverageVerifiedAI(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 15, avg, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryExportRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	assigned := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN LATERAL")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "researcher_username", "status", "assigned_at", "latest_version", "ai_percent_verified"}).
			AddRow("pw-1", "Graphs", "ada", "APPROVED", assigned, 3, 12.5).
			AddRow("pw-2", "Trees", "bob", "ASSIGNED", assigned, nil, nil))

	rows, err := repo.ExportRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, 3, *rows[0].LatestVersion)
	require.InDelta(t, 12.5, *rows[0].AIPercentVerified, 0.001)
	require.Nil(t, rows[1].LatestVersion)
	require.Nil(t, rows[1].AIPercentVerified)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryResearcherStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM paperworks WHERE researcher_id = $1")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "pending_review", "approved", "changes_requested"}).AddRow(4, 1, 2, 1))

	stats, err := repo.ResearcherStats(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, models.ResearcherStats{Total: 4, PendingReview: 1, Approved: 2, ChangesRequested: 1}, *stats)
	require.NoError(t, mock.ExpectationsWereMet())
}
