package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Noel-Teens/pms-server/internal/dto"
	"github.com/Noel-Teens/pms-server/internal/models"
	"github.com/Noel-Teens/pms-server/pkg/jobs"
	"github.com/Noel-Teens/pms-server/pkg/storage"
)

type memPaperworks struct {
	mu    sync.Mutex
	items map[string]models.Paperwork
}

func newMemPaperworks() *memPaperworks {
	return &memPaperworks{items: map[string]models.Paperwork{}}
}

func (m *memPaperworks) Create(_ context.Context, pw *models.Paperwork) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pw.ID == "" {
		pw.ID = uuid.NewString()
	}
	if pw.Status == "" {
		pw.Status = models.PaperworkAssigned
	}
	pw.AssignedAt = time.Now().UTC()
	m.items[pw.ID] = *pw
	return nil
}

func (m *memPaperworks) FindByID(_ context.Context, id string) (*models.Paperwork, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pw, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &pw, nil
}

func (m *memPaperworks) List(_ context.Context, filter models.PaperworkFilter) ([]models.Paperwork, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Paperwork
	for _, pw := range m.items {
		if filter.ResearcherID != "" && pw.ResearcherID != filter.ResearcherID {
			continue
		}
		if filter.Status != nil && pw.Status != *filter.Status {
			continue
		}
		out = append(out, pw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, len(out), nil
}

func (m *memPaperworks) UpdateStatus(_ context.Context, id string, status models.PaperworkStatus, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pw, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	pw.Status = status
	pw.UpdatedAt = ts
	m.items[id] = pw
	return nil
}

func (m *memPaperworks) UpdateDeadline(_ context.Context, id string, deadline *time.Time, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pw, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	pw.Deadline = deadline
	pw.UpdatedAt = ts
	m.items[id] = pw
	return nil
}

func (m *memPaperworks) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *memPaperworks) status(id string) models.PaperworkStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].Status
}

type memVersions struct {
	mu    sync.Mutex
	items []models.Version
}

func (m *memVersions) MaxVersionNo(_ context.Context, paperworkID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, v := range m.items {
		if v.PaperworkID == paperworkID && v.VersionNo > max {
			max = v.VersionNo
		}
	}
	return max, nil
}

func (m *memVersions) Create(_ context.Context, v *models.Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.PaperworkID == v.PaperworkID && existing.VersionNo == v.VersionNo {
			return models.ErrVersionExists
		}
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.SubmittedAt = time.Now().UTC()
	m.items = append(m.items, *v)
	return nil
}

func (m *memVersions) ListByPaperwork(_ context.Context, paperworkID string) ([]models.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Version
	for _, v := range m.items {
		if v.PaperworkID == paperworkID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNo > out[j].VersionNo })
	return out, nil
}

func (m *memVersions) FindByNumber(_ context.Context, paperworkID string, versionNo int) (*models.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.items {
		if v.PaperworkID == paperworkID && v.VersionNo == versionNo {
			out := v
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memVersions) FindByID(_ context.Context, id string) (*models.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.items {
		if v.ID == id {
			out := v
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memVersions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, v := range m.items {
		if v.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memVersions) UpdateVerifiedAI(_ context.Context, paperworkID string, percent float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := -1
	for i, v := range m.items {
		if v.PaperworkID == paperworkID && (latest < 0 || v.VersionNo > m.items[latest].VersionNo) {
			latest = i
		}
	}
	if latest < 0 {
		return sql.ErrNoRows
	}
	p := percent
	m.items[latest].AIPercentVerified = &p
	return nil
}

func (m *memVersions) numbers(paperworkID string) []int {
	versions, _ := m.ListByPaperwork(context.Background(), paperworkID)
	out := make([]int, 0, len(versions))
	for _, v := range versions {
		out = append(out, v.VersionNo)
	}
	return out
}

type memReviews struct {
	items []models.Review
}

func (m *memReviews) Create(_ context.Context, r *models.Review) error {
	r.ID = uuid.NewString()
	m.items = append(m.items, *r)
	return nil
}

func (m *memReviews) ListByPaperwork(_ context.Context, paperworkID string) ([]models.Review, error) {
	var out []models.Review
	for _, r := range m.items {
		if r.PaperworkID == paperworkID {
			out = append(out, r)
		}
	}
	return out, nil
}

type memNotifications struct {
	mu    sync.Mutex
	items []models.Notification
}

func (m *memNotifications) Create(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now().UTC()
	m.items = append(m.items, *n)
	return nil
}

func (m *memNotifications) List(_ context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.items {
		if filter.PaperworkID != "" && n.PaperworkID != filter.PaperworkID {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *memNotifications) events(paperworkID string) []models.NotificationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.NotificationEvent
	for _, n := range m.items {
		if n.PaperworkID == paperworkID {
			out = append(out, n.Event)
		}
	}
	return out
}

type memUsers struct {
	items map[string]*models.User
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *u
	return &out, nil
}

type recordingQueue struct {
	jobs []jobs.Job[NotificationMailJob]
	err  error
}

func (q *recordingQueue) TryEnqueue(job jobs.Job[NotificationMailJob]) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

// failingBlob fails Save for keys ending in failSuffix.
type failingBlob struct {
	storage.Blob
	failSuffix string
}

func (f *failingBlob) Save(ctx context.Context, key string, r io.Reader, size int64) error {
	if strings.HasSuffix(key, f.failSuffix) {
		return errDiskFull
	}
	return f.Blob.Save(ctx, key, r, size)
}

// workflow wires the services the way main does, over in-memory repositories
// and a temporary LocalStorage.
type workflow struct {
	paperworks    *memPaperworks
	versions      *memVersions
	reviews       *memReviews
	notifications *memNotifications
	blobs         storage.Blob
	layout        StorageLayout
	retention     *RetentionManager
	notifier      *NotificationService
	versionSvc    *VersionService
	reviewSvc     *ReviewService
	signer        *storage.SignedURLSigner
}

func newWorkflow(t *testing.T, blobs storage.Blob, strict bool) *workflow {
	t.Helper()
	if blobs == nil {
		local, err := storage.NewLocalStorage(t.TempDir())
		require.NoError(t, err)
		blobs = local
	}
	w := &workflow{
		paperworks:    newMemPaperworks(),
		versions:      &memVersions{},
		reviews:       &memReviews{},
		notifications: &memNotifications{},
		blobs:         blobs,
		layout:        StorageLayout{}.withDefaults(),
		signer:        storage.NewSignedURLSigner("test-secret", time.Minute),
	}
	metrics := NewMetricsService()
	cache := NewCacheService(nil, metrics, 0, nil, false)
	w.retention = NewRetentionManager(w.versions, blobs, metrics, nil, DefaultMaxVersions)
	w.notifier = NewNotificationService(w.notifications, nil, metrics, nil, NotificationConfig{})
	w.versionSvc = NewVersionService(w.paperworks, w.versions, blobs, w.retention, w.notifier, cache, w.signer, metrics, nil, VersionServiceConfig{Layout: w.layout})
	w.reviewSvc = NewReviewService(w.paperworks, w.reviews, w.versions, w.notifier, cache, nil, metrics, nil, ReviewConfig{Strict: strict})
	return w
}

func (w *workflow) assign(t *testing.T, researcherID string) *models.Paperwork {
	t.Helper()
	pw := &models.Paperwork{Title: "Graph colouring", ResearcherID: researcherID}
	require.NoError(t, w.paperworks.Create(context.Background(), pw))
	return pw
}

func (w *workflow) exists(t *testing.T, key string) bool {
	t.Helper()
	ok, err := w.blobs.Exists(context.Background(), key)
	require.NoError(t, err)
	return ok
}

func researcher(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Username: "r-" + id[:4], Role: models.RoleResearcher, Status: models.AccountActive}
}

func admin() *models.JWTClaims {
	return &models.JWTClaims{UserID: uuid.NewString(), Username: "admin", Role: models.RoleAdmin, Status: models.AccountActive}
}

func upload(content string) dto.ArtifactUpload {
	return dto.ArtifactUpload{Filename: "f", Size: int64(len(content)), Content: bytes.NewReader([]byte(content))}
}

func fullSubmission(ai float64, zipBytes []byte) dto.SubmitVersionRequest {
	return dto.SubmitVersionRequest{
		AIPercentSelf: ai,
		Files: map[models.FileKind]dto.ArtifactUpload{
			models.FilePDF:   upload("%PDF-1.4"),
			models.FileLatex: upload(`\documentclass{article}`),
			models.FileCode:  {Filename: "code.zip", Size: int64(len(zipBytes)), Content: bytes.NewReader(zipBytes)},
		},
	}
}

var errDiskFull = errors.New("disk full")
