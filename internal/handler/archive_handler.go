package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Noel-Teens/pms-server/internal/dto"
	"github.com/Noel-Teens/pms-server/internal/models"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
	"github.com/Noel-Teens/pms-server/pkg/response"
)

type archiveInspector interface {
	ListEntries(ctx context.Context, actor *models.JWTClaims, paperworkID string, versionNo int) ([]string, error)
	ReadEntry(ctx context.Context, actor *models.JWTClaims, paperworkID string, versionNo int, name string) (*models.ArchiveEntry, error)
}

// ArchiveHandler exposes the contents of submitted code archives.
type ArchiveHandler struct {
	inspector archiveInspector
}

// NewArchiveHandler constructs the handler.
func NewArchiveHandler(inspector archiveInspector) *ArchiveHandler {
	return &ArchiveHandler{inspector: inspector}
}

// Contents godoc
// @Summary List entries of the code archive
// @Tags Archives
// @Produce json
// @Param id path string true "Paperwork ID"
// @Param ver path int true "Version number"
// @Param token query string false "Access token"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /paperworks/{id}/versions/{ver}/zip-contents [get]
func (h *ArchiveHandler) Contents(c *gin.Context) {
	ver, err := versionParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.inspector.ListEntries(c.Request.Context(), claimsFromContext(c), c.Param("id"), ver)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ArchiveContentsResponse{Version: ver, Entries: entries}, nil)
}

// Entry godoc
// @Summary Read one entry of the code archive
// @Description Text is returned as UTF-8, images as base64 with is_binary set.
// @Tags Archives
// @Produce json
// @Param id path string true "Paperwork ID"
// @Param ver path int true "Version number"
// @Param path path string true "Entry name"
// @Param token query string false "Access token"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /paperworks/{id}/versions/{ver}/zip-file/{path} [get]
func (h *ArchiveHandler) Entry(c *gin.Context) {
	ver, err := versionParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	name := strings.TrimPrefix(c.Param("path"), "/")
	if name == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "entry not found"))
		return
	}
	entry, err := h.inspector.ReadEntry(c.Request.Context(), claimsFromContext(c), c.Param("id"), ver, name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}
