package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Noel-Teens/pms-server/internal/models"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
)

// DefaultMaxVersions is the number of versions kept per paperwork.
const DefaultMaxVersions = 5

type retentionVersionRepository interface {
	ListByPaperwork(ctx context.Context, paperworkID string) ([]models.Version, error)
	Delete(ctx context.Context, id string) error
}

type blobRemover interface {
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// RetentionManager keeps only the newest versions of each paperwork.
type RetentionManager struct {
	versions    retentionVersionRepository
	blobs       blobRemover
	metrics     *MetricsService
	logger      *zap.Logger
	maxVersions int
}

// NewRetentionManager constructs the manager; maxVersions <= 0 keeps 5.
func NewRetentionManager(versions retentionVersionRepository, blobs blobRemover, metrics *MetricsService, logger *zap.Logger, maxVersions int) *RetentionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxVersions <= 0 {
		maxVersions = DefaultMaxVersions
	}
	return &RetentionManager{versions: versions, blobs: blobs, metrics: metrics, logger: logger, maxVersions: maxVersions}
}

// MaxVersions returns the configured cap.
func (m *RetentionManager) MaxVersions() int {
	return m.maxVersions
}

// Enforce deletes every version of the paperwork past the newest maxVersions,
// files first and then the record, and returns the pruned version numbers.
// Missing or undeletable files are logged and skipped.
func (m *RetentionManager) Enforce(ctx context.Context, paperworkID string) ([]int, error) {
	versions, err := m.versions.ListByPaperwork(ctx, paperworkID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list versions for retention")
	}
	if len(versions) <= m.maxVersions {
		return nil, nil
	}

	pruned := make([]int, 0, len(versions)-m.maxVersions)
	for _, v := range versions[m.maxVersions:] {
		m.RemoveFiles(ctx, v)
		if err := m.versions.Delete(ctx, v.ID); err != nil {
			m.metrics.VersionsPruned(len(pruned))
			return pruned, appErrors.Internal(err, "failed to delete pruned version")
		}
		pruned = append(pruned, v.VersionNo)
	}
	m.metrics.VersionsPruned(len(pruned))
	m.logger.Info("versions pruned", zap.String("paperwork_id", paperworkID), zap.Ints("versions", pruned))
	return pruned, nil
}

// RemoveFiles deletes every stored artifact of v that still exists.
func (m *RetentionManager) RemoveFiles(ctx context.Context, v models.Version) {
	for _, key := range v.FileKeys() {
		exists, err := m.blobs.Exists(ctx, key)
		if err != nil {
			m.logger.Warn("retention existence check failed", zap.String("key", key), zap.Error(err))
			continue
		}
		if !exists {
			continue
		}
		if err := m.blobs.Delete(ctx, key); err != nil {
			m.logger.Warn("retention file delete failed", zap.String("key", key), zap.Error(err))
		}
	}
}
