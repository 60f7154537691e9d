package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Noel-Teens/pms-server/internal/dto"
	"github.com/Noel-Teens/pms-server/internal/models"
	"github.com/Noel-Teens/pms-server/pkg/response"
)

type paperworkService interface {
	Assign(ctx context.Context, actor *models.JWTClaims, req dto.AssignPaperworkRequest) (*models.Paperwork, error)
	List(ctx context.Context, actor *models.JWTClaims, query dto.PaperworkListQuery) ([]models.Paperwork, *models.Pagination, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Paperwork, error)
	UpdateDeadline(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateDeadlineRequest) (*models.Paperwork, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

// PaperworkHandler serves paperwork assignment and lookup.
type PaperworkHandler struct {
	service paperworkService
}

// NewPaperworkHandler constructs the handler.
func NewPaperworkHandler(svc paperworkService) *PaperworkHandler {
	return &PaperworkHandler{service: svc}
}

// Assign godoc
// @Summary Assign paperwork to a researcher
// @Tags Paperworks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AssignPaperworkRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/paperworks [post]
func (h *PaperworkHandler) Assign(c *gin.Context) {
	var req dto.AssignPaperworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid assignment payload"))
		return
	}
	pw, err := h.service.Assign(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pw)
}

// UpdateDeadline godoc
// @Summary Set or clear the deadline
// @Tags Paperworks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Paperwork ID"
// @Param payload body dto.UpdateDeadlineRequest true "Deadline"
// @Success 200 {object} response.Envelope
// @Router /admin/paperworks/{id}/deadline [patch]
func (h *PaperworkHandler) UpdateDeadline(c *gin.Context) {
	var req dto.UpdateDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid deadline payload"))
		return
	}
	pw, err := h.service.UpdateDeadline(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pw, nil)
}

// List godoc
// @Summary List paperwork
// @Description Researchers only see paperwork assigned to them.
// @Tags Paperworks
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param search query string false "Title fragment"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /paperworks [get]
func (h *PaperworkHandler) List(c *gin.Context) {
	var query dto.PaperworkListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get paperwork
// @Tags Paperworks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Paperwork ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /paperworks/{id} [get]
func (h *PaperworkHandler) Get(c *gin.Context) {
	pw, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pw, nil)
}

// Delete godoc
// @Summary Delete paperwork with all versions and files
// @Tags Paperworks
// @Security BearerAuth
// @Param id path string true "Paperwork ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /paperworks/{id} [delete]
func (h *PaperworkHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
