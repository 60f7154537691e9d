package dto

import (
	"io"
	"time"

	"github.com/Noel-Teens/pms-server/internal/models"
)

// ArtifactUpload is one uploaded file of a submission.
type ArtifactUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// SubmitVersionRequest groups the multipart fields of POST /paperworks/:id/versions.
type SubmitVersionRequest struct {
	AIPercentSelf float64
	Files         map[models.FileKind]ArtifactUpload
}

// FileLink is a signed viewer URL for one artifact of a version.
type FileLink struct {
	Kind        models.FileKind `json:"kind"`
	ViewURL     string          `json:"view_url"`
	DownloadURL string          `json:"download_url"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

// VersionDetailResponse is returned by GET /paperworks/:id/versions/:ver.
type VersionDetailResponse struct {
	models.Version
	Files []FileLink `json:"files"`
}
