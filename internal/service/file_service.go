package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Noel-Teens/pms-server/internal/models"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
	"github.com/Noel-Teens/pms-server/pkg/storage"
)

type viewerLinkParser interface {
	Parse(token string) (*storage.ViewerLink, error)
}

type fileVersionLookup interface {
	FindByID(ctx context.Context, id string) (*models.Version, error)
}

// FileService resolves signed viewer links to stored artifacts. The token is
// the only credential, so iframes can load files without headers.
type FileService struct {
	signer   viewerLinkParser
	versions fileVersionLookup
	blobs    blobOpener
}

// NewFileService constructs the service.
func NewFileService(signer viewerLinkParser, versions fileVersionLookup, blobs blobOpener) *FileService {
	return &FileService{signer: signer, versions: versions, blobs: blobs}
}

// Open validates token and opens the referenced file. The file must still
// belong to the version named in the token, so pruned versions stop resolving.
func (s *FileService) Open(ctx context.Context, token string) (*FileDownload, error) {
	link, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "viewer link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid viewer link")
	}

	version, err := s.versions.FindByID(ctx, link.VersionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "version no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to load version")
	}
	for _, kind := range models.FileKinds {
		if key, ok := version.FileKey(kind); ok && key == link.Key {
			return openArtifact(ctx, s.blobs, key, kind, link.Inline)
		}
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "link does not match version files")
}
