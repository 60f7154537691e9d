package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noel-Teens/pms-server/internal/dto"
	"github.com/Noel-Teens/pms-server/internal/models"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
)

func submitted(t *testing.T, w *workflow) (*models.Paperwork, *models.JWTClaims) {
	t.Helper()
	owner := researcher(uuid.NewString())
	pw := w.assign(t, owner.UserID)
	_, err := w.versionSvc.Submit(context.Background(), owner, pw.ID, fullSubmission(20, buildZip(t, zipFile{"a.py", ""})))
	require.NoError(t, err)
	return pw, owner
}

func TestReviewApproveWithoutCommentRecordsOnlyNotification(t *testing.T) {
	w := newWorkflow(t, nil, false)
	pw, _ := submitted(t, w)

	updated, err := w.reviewSvc.Review(context.Background(), admin(), pw.ID, dto.ReviewRequest{Status: models.PaperworkApproved})
	require.NoError(t, err)
	assert.Equal(t, models.PaperworkApproved, updated.Status)
	assert.Equal(t, models.PaperworkApproved, w.paperworks.status(pw.ID))
	assert.Empty(t, w.reviews.items)
	assert.Equal(t, []models.NotificationEvent{models.EventSubmitted, models.EventApproved}, w.notifications.events(pw.ID))
}

func TestReviewWithCommentRecordsReview(t *testing.T) {
	w := newWorkflow(t, nil, false)
	pw, _ := submitted(t, w)
	reviewer := admin()

	_, err := w.reviewSvc.Review(context.Background(), reviewer, pw.ID, dto.ReviewRequest{Status: models.PaperworkApproved, Comments: "  looks good  "})
	require.NoError(t, err)
	require.Len(t, w.reviews.items, 1)
	assert.Equal(t, "looks good", w.reviews.items[0].Comments)
	assert.Equal(t, reviewer.UserID, *w.reviews.items[0].ReviewerID)
	assert.Equal(t, models.EventApproved, w.notifications.events(pw.ID)[1])
}

func TestReviewChangesRequestedEvent(t *testing.T) {
	w := newWorkflow(t, nil, false)
	pw, owner := submitted(t, w)

	_, err := w.reviewSvc.Review(context.Background(), admin(), pw.ID, dto.ReviewRequest{Status: models.PaperworkChangesRequested, Comments: "fix refs"})
	require.NoError(t, err)
	assert.Equal(t, models.EventChangesRequested, w.notifications.events(pw.ID)[1])

	reviews, err := w.reviewSvc.ListReviews(context.Background(), owner, pw.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, models.PaperworkChangesRequested, reviews[0].Status)
}

func TestReviewNonApprovalTargetsStillEmitApproved(t *testing.T) {
	w := newWorkflow(t, nil, false)
	pw, _ := submitted(t, w)

	_, err := w.reviewSvc.Review(context.Background(), admin(), pw.ID, dto.ReviewRequest{Status: models.PaperworkAssigned})
	require.NoError(t, err)
	assert.Equal(t, models.PaperworkAssigned, w.paperworks.status(pw.ID))
	assert.Equal(t, models.EventApproved, w.notifications.events(pw.ID)[1])
}

func TestReviewRequiresAdmin(t *testing.T) {
	w := newWorkflow(t, nil, false)
	pw, owner := submitted(t, w)

	_, err := w.reviewSvc.Review(context.Background(), owner, pw.ID, dto.ReviewRequest{Status: models.PaperworkApproved})
	require.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Equal(t, models.PaperworkSubmitted, w.paperworks.status(pw.ID))
}

func TestReviewUnknownPaperworkBeforePermission(t *testing.T) {
	w := newWorkflow(t, nil, false)
	_, err := w.reviewSvc.Review(context.Background(), researcher(uuid.NewString()), uuid.NewString(), dto.ReviewRequest{Status: models.PaperworkApproved})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReviewRejectsUnknownStatus(t *testing.T) {
	w := newWorkflow(t, nil, false)
	pw, _ := submitted(t, w)

	_, err := w.reviewSvc.Review(context.Background(), admin(), pw.ID, dto.ReviewRequest{Status: "ARCHIVED"})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = w.reviewSvc.Review(context.Background(), admin(), pw.ID, dto.ReviewRequest{})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	for _, loose := range []models.PaperworkStatus{"approved", "changes_requested", " APPROVED"} {
		_, err = w.reviewSvc.Review(context.Background(), admin(), pw.ID, dto.ReviewRequest{Status: loose})
		require.ErrorIs(t, err, appErrors.ErrValidation, string(loose))
	}
	assert.Equal(t, models.PaperworkSubmitted, w.paperworks.status(pw.ID))
}

func TestReviewStrictTransitions(t *testing.T) {
	w := newWorkflow(t, nil, true)
	pw, _ := submitted(t, w)
	ctx := context.Background()

	_, err := w.reviewSvc.Review(ctx, admin(), pw.ID, dto.ReviewRequest{Status: models.PaperworkAssigned})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = w.reviewSvc.Review(ctx, admin(), pw.ID, dto.ReviewRequest{Status: models.PaperworkApproved})
	require.NoError(t, err)

	_, err = w.reviewSvc.Review(ctx, admin(), pw.ID, dto.ReviewRequest{Status: models.PaperworkChangesRequested})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, models.PaperworkApproved, w.paperworks.status(pw.ID))
}

func TestReviewRecordsVerifiedAIOnLatestVersion(t *testing.T) {
	w := newWorkflow(t, nil, false)
	pw, owner := submitted(t, w)
	_, err := w.versionSvc.Submit(context.Background(), owner, pw.ID, fullSubmission(30, buildZip(t, zipFile{"a.py", ""})))
	require.NoError(t, err)

	verified := 42.0
	_, err = w.reviewSvc.Review(context.Background(), admin(), pw.ID, dto.ReviewRequest{Status: models.PaperworkApproved, AIPercentVerified: &verified})
	require.NoError(t, err)

	latest, err := w.versions.FindByNumber(context.Background(), pw.ID, 2)
	require.NoError(t, err)
	require.NotNil(t, latest.AIPercentVerified)
	assert.InDelta(t, 42.0, *latest.AIPercentVerified, 0.001)
	first, err := w.versions.FindByNumber(context.Background(), pw.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, first.AIPercentVerified)
}

func TestReviewVerifiedAIWithoutVersions(t *testing.T) {
	w := newWorkflow(t, nil, false)
	pw := w.assign(t, uuid.NewString())
	verified := 10.0

	_, err := w.reviewSvc.Review(context.Background(), admin(), pw.ID, dto.ReviewRequest{Status: models.PaperworkApproved, AIPercentVerified: &verified})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, models.PaperworkAssigned, w.paperworks.status(pw.ID))
}
