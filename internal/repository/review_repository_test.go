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

func TestReviewRepositoryCreateAndList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	reviewer := "admin-1"
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reviews")).
		WithArgs(sqlmock.AnyArg(), "pw-1", reviewer, "CHANGES_REQUESTED", "fix section 2", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	review := &models.Review{PaperworkID: "pw-1", ReviewerID: &reviewer, Status: models.PaperworkChangesRequested, Comments: "fix section 2"}
	require.NoError(t, repo.Create(context.Background(), review))

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reviews WHERE paperwork_id = $1 ORDER BY created_at DESC")).
		WithArgs("pw-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "paperwork_id", "reviewer_id", "status", "comments", "created_at", "updated_at"}).
			AddRow(review.ID, "pw-1", reviewer, "CHANGES_REQUESTED", "fix section 2", now, now))

	reviews, err := repo.ListByPaperwork(context.Background(), "pw-1")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	require.Equal(t, "fix section 2", reviews[0].Comments)
	require.NoError(t, mock.ExpectationsWereMet())
}
