package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/Noel-Teens/pms-server/internal/service"
	"github.com/Noel-Teens/pms-server/pkg/response"
)

type signedFileService interface {
	Open(ctx context.Context, token string) (*service.FileDownload, error)
}

// FileHandler serves artifacts behind signed viewer links.
type FileHandler struct {
	service signedFileService
}

// NewFileHandler constructs the handler.
func NewFileHandler(svc signedFileService) *FileHandler {
	return &FileHandler{service: svc}
}

// Serve godoc
// @Summary Stream a file through a signed viewer link
// @Tags Versions
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *FileHandler) Serve(c *gin.Context) {
	file, err := h.service.Open(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}
