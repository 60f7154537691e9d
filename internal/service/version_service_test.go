package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noel-Teens/pms-server/internal/models"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
	"github.com/Noel-Teens/pms-server/pkg/storage"
)

var requiredKinds = []models.FileKind{models.FilePDF, models.FileLatex, models.FileCode}

func TestSubmitKeepsNewestFiveAfterTenSubmissions(t *testing.T) {
	w := newWorkflow(t, nil, false)
	owner := researcher(uuid.NewString())
	pw := w.assign(t, owner.UserID)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		v, err := w.versionSvc.Submit(ctx, owner, pw.ID, fullSubmission(float64(i), buildZip(t, zipFile{"main.py", "print(1)"})))
		require.NoError(t, err)
		require.Equal(t, i, v.VersionNo)
	}

	require.Equal(t, []int{10, 9, 8, 7, 6}, w.versions.numbers(pw.ID))
	for n := 1; n <= 10; n++ {
		for _, kind := range requiredKinds {
			key := w.layout.Key(kind, pw.ID, n)
			assert.Equal(t, n > 5, w.exists(t, key), key)
		}
	}
	assert.Equal(t, models.PaperworkSubmitted, w.paperworks.status(pw.ID))
	assert.Len(t, w.notifications.events(pw.ID), 10)
}

func TestSubmitStoresFilesUnderVersionSegment(t *testing.T) {
	w := newWorkflow(t, nil, false)
	owner := researcher(uuid.NewString())
	pw := w.assign(t, owner.UserID)

	req := fullSubmission(12.5, buildZip(t, zipFile{"main.py", "x = 1"}))
	req.Files[models.FileDocx] = upload("docx-bytes")
	v, err := w.versionSvc.Submit(context.Background(), owner, pw.ID, req)
	require.NoError(t, err)

	key, ok := v.FileKey(models.FileDocx)
	require.True(t, ok)
	assert.Equal(t, "docx/"+pw.ID+"/v1/paper.docx", key)
	pdfKey, _ := v.FileKey(models.FilePDF)
	assert.Equal(t, "pdfs/"+pw.ID+"/v1/paper.pdf", pdfKey)
	assert.InDelta(t, 12.5, v.AIPercentSelf, 0.001)
	assert.Equal(t, []models.NotificationEvent{models.EventSubmitted}, w.notifications.events(pw.ID))
}

func TestSubmitForcesSubmittedFromApproved(t *testing.T) {
	w := newWorkflow(t, nil, false)
	owner := researcher(uuid.NewString())
	pw := w.assign(t, owner.UserID)
	require.NoError(t, w.paperworks.UpdateStatus(context.Background(), pw.ID, models.PaperworkApproved, pw.AssignedAt))

	_, err := w.versionSvc.Submit(context.Background(), owner, pw.ID, fullSubmission(0, buildZip(t, zipFile{"a.py", ""})))
	require.NoError(t, err)
	assert.Equal(t, models.PaperworkSubmitted, w.paperworks.status(pw.ID))
}

func TestSubmitWithoutArchiveIsRejected(t *testing.T) {
	w := newWorkflow(t, nil, false)
	owner := researcher(uuid.NewString())
	pw := w.assign(t, owner.UserID)

	req := fullSubmission(10, nil)
	delete(req.Files, models.FileCode)
	_, err := w.versionSvc.Submit(context.Background(), owner, pw.ID, req)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "python_zip")
	assert.Empty(t, w.versions.numbers(pw.ID))
	assert.False(t, w.exists(t, w.layout.Key(models.FilePDF, pw.ID, 1)))
	assert.Equal(t, models.PaperworkAssigned, w.paperworks.status(pw.ID))
	assert.Empty(t, w.notifications.events(pw.ID))
}

func TestSubmitRejectsOutOfRangeAIPercentage(t *testing.T) {
	w := newWorkflow(t, nil, false)
	owner := researcher(uuid.NewString())
	pw := w.assign(t, owner.UserID)

	_, err := w.versionSvc.Submit(context.Background(), owner, pw.ID, fullSubmission(140, buildZip(t, zipFile{"a.py", ""})))
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details, "ai_percent_self")
}

func TestSubmitByNonOwnerIsForbidden(t *testing.T) {
	w := newWorkflow(t, nil, false)
	owner := researcher(uuid.NewString())
	pw := w.assign(t, owner.UserID)

	for _, caller := range []*models.JWTClaims{researcher(uuid.NewString()), admin()} {
		_, err := w.versionSvc.Submit(context.Background(), caller, pw.ID, fullSubmission(1, buildZip(t, zipFile{"a.py", ""})))
		require.ErrorIs(t, err, appErrors.ErrForbidden)
	}
	assert.Empty(t, w.versions.numbers(pw.ID))
	assert.False(t, w.exists(t, w.layout.Key(models.FilePDF, pw.ID, 1)))
	assert.Equal(t, models.PaperworkAssigned, w.paperworks.status(pw.ID))
}

func TestSubmitUnknownPaperwork(t *testing.T) {
	w := newWorkflow(t, nil, false)
	_, err := w.versionSvc.Submit(context.Background(), researcher(uuid.NewString()), uuid.NewString(), fullSubmission(1, nil))
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = w.versionSvc.Submit(context.Background(), researcher(uuid.NewString()), "not-a-uuid", fullSubmission(1, nil))
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSubmitWriteFailureLeavesNoVersion(t *testing.T) {
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	w := newWorkflow(t, &failingBlob{Blob: local, failSuffix: "code.zip"}, false)
	owner := researcher(uuid.NewString())
	pw := w.assign(t, owner.UserID)

	_, err = w.versionSvc.Submit(context.Background(), owner, pw.ID, fullSubmission(1, buildZip(t, zipFile{"a.py", ""})))
	require.ErrorIs(t, err, appErrors.ErrInternal)
	require.ErrorIs(t, err, errDiskFull)

	assert.Empty(t, w.versions.numbers(pw.ID))
	for _, kind := range requiredKinds {
		assert.False(t, w.exists(t, w.layout.Key(kind, pw.ID, 1)))
	}
	assert.Equal(t, models.PaperworkAssigned, w.paperworks.status(pw.ID))
}

func TestVersionDetailLinksResolveThroughFileService(t *testing.T) {
	w := newWorkflow(t, nil, false)
	owner := researcher(uuid.NewString())
	pw := w.assign(t, owner.UserID)
	ctx := context.Background()

	_, err := w.versionSvc.Submit(ctx, owner, pw.ID, fullSubmission(1, buildZip(t, zipFile{"a.py", ""})))
	require.NoError(t, err)

	detail, err := w.versionSvc.Get(ctx, admin(), pw.ID, 1)
	require.NoError(t, err)
	require.Len(t, detail.Files, 3)
	require.Equal(t, models.FilePDF, detail.Files[0].Kind)
	require.True(t, strings.HasPrefix(detail.Files[0].ViewURL, "/api/v1/files/"))

	files := NewFileService(w.signer, w.versions, w.blobs)
	token := strings.TrimPrefix(detail.Files[0].ViewURL, "/api/v1/files/")
	download, err := files.Open(ctx, token)
	require.NoError(t, err)
	defer download.Object.Close()
	body, err := io.ReadAll(download.Object)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))
	assert.True(t, download.Inline)
	assert.Equal(t, "application/pdf", download.ContentType)

	attachment, err := files.Open(ctx, strings.TrimPrefix(detail.Files[0].DownloadURL, "/api/v1/files/"))
	require.NoError(t, err)
	attachment.Object.Close()
	assert.False(t, attachment.Inline)

	_, err = files.Open(ctx, token+"0")
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	for i := 0; i < DefaultMaxVersions; i++ {
		_, err := w.versionSvc.Submit(ctx, owner, pw.ID, fullSubmission(1, buildZip(t, zipFile{"a.py", ""})))
		require.NoError(t, err)
	}
	_, err = files.Open(ctx, token)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestOpenFileChecksOwnershipAndSlot(t *testing.T) {
	w := newWorkflow(t, nil, false)
	owner := researcher(uuid.NewString())
	pw := w.assign(t, owner.UserID)
	ctx := context.Background()
	_, err := w.versionSvc.Submit(ctx, owner, pw.ID, fullSubmission(1, buildZip(t, zipFile{"a.py", ""})))
	require.NoError(t, err)

	_, err = w.versionSvc.OpenFile(ctx, researcher(uuid.NewString()), pw.ID, 1, models.FilePDF, true)
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = w.versionSvc.OpenFile(ctx, owner, pw.ID, 1, models.FileDocx, true)
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = w.versionSvc.OpenFile(ctx, owner, pw.ID, 1, models.FileKind("exe"), true)
	require.ErrorIs(t, err, appErrors.ErrValidation)

	download, err := w.versionSvc.OpenFile(ctx, owner, pw.ID, 1, models.FileLatex, false)
	require.NoError(t, err)
	defer download.Object.Close()
	assert.Equal(t, "latex.tex", download.Filename)
}

var errNotificationsDown = errors.New("notifications table unavailable")

type failingNotifications struct {
	memNotifications
}

func (f *failingNotifications) Create(context.Context, *models.Notification) error {
	return errNotificationsDown
}

func TestSubmitSurfacesNotificationFailure(t *testing.T) {
	w := newWorkflow(t, nil, false)
	metrics := NewMetricsService()
	notifier := NewNotificationService(&failingNotifications{}, nil, metrics, nil, NotificationConfig{})
	svc := NewVersionService(w.paperworks, w.versions, w.blobs, w.retention, notifier,
		NewCacheService(nil, metrics, 0, nil, false), w.signer, metrics, nil, VersionServiceConfig{Layout: w.layout})
	owner := researcher(uuid.NewString())
	pw := w.assign(t, owner.UserID)

	v, err := svc.Submit(context.Background(), owner, pw.ID, fullSubmission(1, buildZip(t, zipFile{"a.py", ""})))
	require.Nil(t, v)
	require.ErrorIs(t, err, appErrors.ErrInternal)
	require.ErrorIs(t, err, errNotificationsDown)
}
