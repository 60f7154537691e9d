package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/Noel-Teens/pms-server/internal/models"
)

var versionRowColumns = []string{"id", "paperwork_id", "version_no", "submitted_at", "pdf_file", "latex_file", "python_file", "docx_file", "ai_percent_self", "ai_percent_verified"}

func TestVersionRepositoryMaxVersionNo(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVersionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version_no), 0) FROM versions WHERE paperwork_id = $1")).
		WithArgs("pw-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7))

	max, err := repo.MaxVersionNo(context.Background(), "pw-1")
	require.NoError(t, err)
	require.Equal(t, 7, max)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepositoryListNewestFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVersionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM versions WHERE paperwork_id = $1 ORDER BY version_no DESC")).
		WithArgs("pw-1").
		WillReturnRows(sqlmock.NewRows(versionRowColumns).
			AddRow("v2", "pw-1", 2, now, "pdfs/pw-1/v2/paper.pdf", "latex/pw-1/v2/latex.tex", "python/pw-1/v2/code.zip", nil, 10.0, nil).
			AddRow("v1", "pw-1", 1, now, "pdfs/pw-1/v1/paper.pdf", "latex/pw-1/v1/latex.tex", "python/pw-1/v1/code.zip", "docx/pw-1/v1/paper.docx", 5.0, 7.5))

	versions, err := repo.ListByPaperwork(context.Background(), "pw-1")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	require.Equal(t, 2, versions[0].VersionNo)
	require.Len(t, versions[0].FileKeys(), 3)
	require.Len(t, versions[1].FileKeys(), 4)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVersionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO versions")).WillReturnResult(sqlmock.NewResult(1, 1))

	v := &models.Version{PaperworkID: "pw-1", VersionNo: 1, AIPercentSelf: 12}
	v.SetFileKey(models.FilePDF, "pdfs/pw-1/v1/paper.pdf")
	require.NoError(t, repo.Create(context.Background(), v))
	require.NotEmpty(t, v.ID)
	require.False(t, v.SubmittedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepositoryUpdateVerifiedAIWithoutVersions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVersionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE versions SET ai_percent_verified = $2")).
		WithArgs("pw-1", 40.0).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateVerifiedAI(context.Background(), "pw-1", 40)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepositoryCreateDuplicateNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVersionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO versions")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &models.Version{PaperworkID: "pw-1", VersionNo: 3})
	require.ErrorIs(t, err, models.ErrVersionExists)
	require.NoError(t, mock.ExpectationsWereMet())
}
