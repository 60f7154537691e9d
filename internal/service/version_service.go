package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Noel-Teens/pms-server/internal/dto"
	"github.com/Noel-Teens/pms-server/internal/models"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
	"github.com/Noel-Teens/pms-server/pkg/storage"
)

type versionPaperworkRepository interface {
	FindByID(ctx context.Context, id string) (*models.Paperwork, error)
	UpdateStatus(ctx context.Context, id string, status models.PaperworkStatus, updatedAt time.Time) error
}

type versionRepository interface {
	MaxVersionNo(ctx context.Context, paperworkID string) (int, error)
	Create(ctx context.Context, v *models.Version) error
	ListByPaperwork(ctx context.Context, paperworkID string) ([]models.Version, error)
	FindByNumber(ctx context.Context, paperworkID string, versionNo int) (*models.Version, error)
}

type blobOpener interface {
	Open(ctx context.Context, key string) (*storage.Object, error)
}

type versionBlobStore interface {
	Save(ctx context.Context, key string, r io.Reader, size int64) error
	Open(ctx context.Context, key string) (*storage.Object, error)
	Delete(ctx context.Context, key string) error
}

type versionRetention interface {
	Enforce(ctx context.Context, paperworkID string) ([]int, error)
}

type paperworkNotifier interface {
	Emit(ctx context.Context, pw *models.Paperwork, event models.NotificationEvent) (*models.Notification, error)
}

type reportInvalidator interface {
	InvalidateReports(ctx context.Context)
}

type viewerLinkSigner interface {
	Generate(versionID, key string, inline bool) (string, time.Time, error)
}

// requiredArtifacts are rejected when absent, keyed by their multipart field.
var requiredArtifacts = []struct {
	kind  models.FileKind
	field string
}{
	{models.FilePDF, "paper_pdf"},
	{models.FileLatex, "latex_tex"},
	{models.FileCode, "python_zip"},
}

// VersionServiceConfig carries storage layout and upload limits.
type VersionServiceConfig struct {
	Layout      StorageLayout
	MaxFileSize int64
	APIPrefix   string
}

// FileDownload is an opened artifact ready to stream.
type FileDownload struct {
	Object      *storage.Object
	Filename    string
	ContentType string
	Inline      bool
}

// VersionService runs the submission workflow and serves version artifacts.
type VersionService struct {
	paperworks versionPaperworkRepository
	versions   versionRepository
	blobs      versionBlobStore
	retention  versionRetention
	notifier   paperworkNotifier
	cache      reportInvalidator
	signer     viewerLinkSigner
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        VersionServiceConfig
}

// NewVersionService constructs the service.
func NewVersionService(
	paperworks versionPaperworkRepository,
	versions versionRepository,
	blobs versionBlobStore,
	retention versionRetention,
	notifier paperworkNotifier,
	cache reportInvalidator,
	signer viewerLinkSigner,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg VersionServiceConfig,
) *VersionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Layout = cfg.Layout.withDefaults()
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &VersionService{
		paperworks: paperworks,
		versions:   versions,
		blobs:      blobs,
		retention:  retention,
		notifier:   notifier,
		cache:      cache,
		signer:     signer,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// Submit stores a new version of the paperwork. Only the assigned researcher
// may submit. Files are written before the record is created; if any write
// fails the files already written are removed and no version is recorded.
func (s *VersionService) Submit(ctx context.Context, actor *models.JWTClaims, paperworkID string, req dto.SubmitVersionRequest) (*models.Version, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	pw, err := loadPaperwork(ctx, s.paperworks, paperworkID)
	if err != nil {
		return nil, err
	}
	if !IsOwner(actor, pw) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned researcher can submit versions")
	}

	maxNo, err := s.versions.MaxVersionNo(ctx, pw.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to determine next version")
	}
	next := maxNo + 1

	if err := s.validateSubmission(req); err != nil {
		return nil, err
	}

	version := &models.Version{
		PaperworkID:   pw.ID,
		VersionNo:     next,
		AIPercentSelf: req.AIPercentSelf,
	}
	written := make([]string, 0, len(req.Files))
	for _, kind := range models.FileKinds {
		upload, ok := req.Files[kind]
		if !ok || upload.Content == nil {
			continue
		}
		key := s.cfg.Layout.Key(kind, pw.ID, next)
		if err := s.blobs.Save(ctx, key, upload.Content, upload.Size); err != nil {
			s.discard(ctx, written)
			return nil, appErrors.Internal(err, fmt.Sprintf("failed to store %s artifact", kind))
		}
		written = append(written, key)
		version.SetFileKey(kind, key)
	}

	if err := s.versions.Create(ctx, version); err != nil {
		s.discard(ctx, written)
		if errors.Is(err, models.ErrVersionExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "another submission took this version number, retry")
		}
		return nil, appErrors.Internal(err, "failed to create version")
	}
	s.metrics.VersionSubmitted()

	now := time.Now().UTC()
	if err := s.paperworks.UpdateStatus(ctx, pw.ID, models.PaperworkSubmitted, now); err != nil {
		return nil, appErrors.Internal(err, "failed to mark paperwork submitted")
	}
	pw.Status = models.PaperworkSubmitted
	pw.UpdatedAt = now

	if _, err := s.retention.Enforce(ctx, pw.ID); err != nil {
		s.logger.Warn("retention failed after submission", zap.String("paperwork_id", pw.ID), zap.Error(err))
	}
	if _, err := s.notifier.Emit(ctx, pw, models.EventSubmitted); err != nil {
		return nil, err
	}
	s.cache.InvalidateReports(ctx)

	s.logger.Info("version submitted",
		zap.String("paperwork_id", pw.ID),
		zap.Int("version", next),
		zap.Int("files", len(written)),
	)
	return version, nil
}

// List returns the stored versions of a paperwork, newest first.
func (s *VersionService) List(ctx context.Context, actor *models.JWTClaims, paperworkID string) ([]models.Version, error) {
	pw, err := s.authorize(ctx, actor, paperworkID)
	if err != nil {
		return nil, err
	}
	versions, err := s.versions.ListByPaperwork(ctx, pw.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list versions")
	}
	return versions, nil
}

// Get returns one version with signed viewer links for each stored file.
func (s *VersionService) Get(ctx context.Context, actor *models.JWTClaims, paperworkID string, versionNo int) (*dto.VersionDetailResponse, error) {
	pw, err := s.authorize(ctx, actor, paperworkID)
	if err != nil {
		return nil, err
	}
	version, err := s.loadVersion(ctx, pw.ID, versionNo)
	if err != nil {
		return nil, err
	}

	resp := &dto.VersionDetailResponse{Version: *version, Files: []dto.FileLink{}}
	if s.signer == nil {
		return resp, nil
	}
	for _, kind := range models.FileKinds {
		key, ok := version.FileKey(kind)
		if !ok {
			continue
		}
		viewToken, expiresAt, err := s.signer.Generate(version.ID, key, true)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to sign viewer link")
		}
		downloadToken, _, err := s.signer.Generate(version.ID, key, false)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to sign download link")
		}
		resp.Files = append(resp.Files, dto.FileLink{
			Kind:        kind,
			ViewURL:     s.fileURL(viewToken),
			DownloadURL: s.fileURL(downloadToken),
			ExpiresAt:   expiresAt,
		})
	}
	return resp, nil
}

// OpenFile opens one artifact of a version for the viewer endpoint.
func (s *VersionService) OpenFile(ctx context.Context, actor *models.JWTClaims, paperworkID string, versionNo int, kind models.FileKind, inline bool) (*FileDownload, error) {
	if !kind.Valid() {
		return nil, appErrors.Validation("unknown file type", map[string]string{"fileType": "oneof pdf tex zip docx"})
	}
	pw, err := s.authorize(ctx, actor, paperworkID)
	if err != nil {
		return nil, err
	}
	version, err := s.loadVersion(ctx, pw.ID, versionNo)
	if err != nil {
		return nil, err
	}
	key, ok := version.FileKey(kind)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("version has no %s file", kind))
	}
	return openArtifact(ctx, s.blobs, key, kind, inline)
}

func openArtifact(ctx context.Context, blobs blobOpener, key string, kind models.FileKind, inline bool) (*FileDownload, error) {
	obj, err := blobs.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, appErrors.Internal(err, "failed to open file")
	}
	return &FileDownload{
		Object:      obj,
		Filename:    artifactFilenames[kind],
		ContentType: artifactContentTypes[kind],
		Inline:      inline,
	}, nil
}

func (s *VersionService) validateSubmission(req dto.SubmitVersionRequest) error {
	fields := map[string]string{}
	for _, required := range requiredArtifacts {
		upload, ok := req.Files[required.kind]
		if !ok || upload.Content == nil {
			fields[required.field] = "required"
		}
	}
	if s.cfg.MaxFileSize > 0 {
		for kind, upload := range req.Files {
			if upload.Size > s.cfg.MaxFileSize {
				fields[fieldForKind(kind)] = fmt.Sprintf("exceeds %d bytes", s.cfg.MaxFileSize)
			}
		}
	}
	if req.AIPercentSelf < 0 || req.AIPercentSelf > 100 {
		fields["ai_percent_self"] = "must be between 0 and 100"
	}
	if len(fields) > 0 {
		return appErrors.Validation("invalid submission", fields)
	}
	return nil
}

func fieldForKind(kind models.FileKind) string {
	if kind == models.FileDocx {
		return "docx_file"
	}
	for _, required := range requiredArtifacts {
		if required.kind == kind {
			return required.field
		}
	}
	return string(kind)
}

func (s *VersionService) discard(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to remove partial upload", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *VersionService) fileURL(token string) string {
	return strings.TrimRight(s.cfg.APIPrefix, "/") + "/files/" + url.PathEscape(token)
}

func (s *VersionService) authorize(ctx context.Context, actor *models.JWTClaims, paperworkID string) (*models.Paperwork, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	pw, err := loadPaperwork(ctx, s.paperworks, paperworkID)
	if err != nil {
		return nil, err
	}
	if !CanAccessPaperwork(actor, pw) {
		return nil, appErrors.ErrForbidden
	}
	return pw, nil
}

func (s *VersionService) loadVersion(ctx context.Context, paperworkID string, versionNo int) (*models.Version, error) {
	v, err := s.versions.FindByNumber(ctx, paperworkID, versionNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "version not found")
		}
		return nil, appErrors.Internal(err, "failed to load version")
	}
	return v, nil
}
