package service

import (
	"archive/zip"
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/Noel-Teens/pms-server/internal/models"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
	"github.com/Noel-Teens/pms-server/pkg/storage"
)

const defaultMaxEntrySize = 50 << 20

type entryKind struct {
	contentType string
	binary      bool
}

var entryKinds = map[string]entryKind{
	".py":    {contentType: "text/x-python"},
	".ipynb": {contentType: "application/json"},
	".png":   {contentType: "image/png", binary: true},
	".jpg":   {contentType: "image/jpeg", binary: true},
	".jpeg":  {contentType: "image/jpeg", binary: true},
}

type versionFinder interface {
	FindByNumber(ctx context.Context, paperworkID string, versionNo int) (*models.Version, error)
}

func classifyEntry(name string) entryKind {
	if kind, ok := entryKinds[strings.ToLower(path.Ext(name))]; ok {
		return kind
	}
	return entryKind{contentType: "text/plain"}
}

// ArchiveInspector reads the code archive stored with a version.
type ArchiveInspector struct {
	paperworks   paperworkFinder
	versions     versionFinder
	blobs        blobOpener
	logger       *zap.Logger
	maxEntrySize uint64
}

// NewArchiveInspector constructs the inspector. maxEntrySize <= 0 uses 50 MiB.
func NewArchiveInspector(paperworks paperworkFinder, versions versionFinder, blobs blobOpener, logger *zap.Logger, maxEntrySize int64) *ArchiveInspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxEntrySize <= 0 {
		maxEntrySize = defaultMaxEntrySize
	}
	return &ArchiveInspector{
		paperworks:   paperworks,
		versions:     versions,
		blobs:        blobs,
		logger:       logger,
		maxEntrySize: uint64(maxEntrySize),
	}
}

// ListEntries returns entry names in archive order.
func (a *ArchiveInspector) ListEntries(ctx context.Context, actor *models.JWTClaims, paperworkID string, versionNo int) ([]string, error) {
	reader, closeFn, err := a.open(ctx, actor, paperworkID, versionNo)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	return names, nil
}

// ReadEntry decodes one entry. Images come back base64 encoded with
// IsBinary set; everything else is text with invalid UTF-8 replaced.
func (a *ArchiveInspector) ReadEntry(ctx context.Context, actor *models.JWTClaims, paperworkID string, versionNo int, name string) (*models.ArchiveEntry, error) {
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return nil, appErrors.Validation("entry name required", map[string]string{"path": "required"})
	}
	reader, closeFn, err := a.open(ctx, actor, paperworkID, versionNo)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var file *zip.File
	for _, f := range reader.File {
		if f.Name == name {
			file = f
			break
		}
	}
	if file == nil || file.FileInfo().IsDir() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "entry not found in archive")
	}
	if file.UncompressedSize64 > a.maxEntrySize {
		return nil, appErrors.Validation("entry too large to display", map[string]string{"path": "too large"})
	}

	rc, err := file.Open()
	if err != nil {
		return nil, a.corrupt(err, name)
	}
	defer rc.Close()
	raw, err := io.ReadAll(io.LimitReader(rc, int64(a.maxEntrySize)+1))
	if err != nil {
		return nil, a.corrupt(err, name)
	}

	kind := classifyEntry(name)
	entry := &models.ArchiveEntry{
		Name:        name,
		ContentType: kind.contentType,
		IsBinary:    kind.binary,
		Size:        uint64(len(raw)),
	}
	if kind.binary {
		entry.Content = base64.StdEncoding.EncodeToString(raw)
	} else {
		entry.Content = strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	return entry, nil
}

func (a *ArchiveInspector) open(ctx context.Context, actor *models.JWTClaims, paperworkID string, versionNo int) (*zip.Reader, func(), error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	pw, err := loadPaperwork(ctx, a.paperworks, paperworkID)
	if err != nil {
		return nil, nil, err
	}
	if !CanAccessPaperwork(actor, pw) {
		return nil, nil, appErrors.ErrForbidden
	}

	version, err := a.versions.FindByNumber(ctx, pw.ID, versionNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "version not found")
		}
		return nil, nil, appErrors.Internal(err, "failed to load version")
	}
	key, ok := version.FileKey(models.FileCode)
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "code archive not found")
	}
	obj, err := a.blobs.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "code archive not found")
		}
		return nil, nil, appErrors.Internal(err, "failed to open code archive")
	}
	reader, err := zip.NewReader(obj, obj.Size)
	if err != nil {
		_ = obj.Close()
		return nil, nil, a.corrupt(err, key)
	}
	return reader, func() { _ = obj.Close() }, nil
}

func (a *ArchiveInspector) corrupt(err error, name string) error {
	a.logger.Warn("archive read failed", zap.String("name", name), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrArchiveCorrupt.Code, appErrors.ErrArchiveCorrupt.Status, fmt.Sprintf("cannot read %s", path.Base(name)))
}
