package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Noel-Teens/pms-server/internal/dto"
	"github.com/Noel-Teens/pms-server/internal/models"
	"github.com/Noel-Teens/pms-server/pkg/response"
)

type reviewService interface {
	Review(ctx context.Context, actor *models.JWTClaims, paperworkID string, req dto.ReviewRequest) (*models.Paperwork, error)
	ListReviews(ctx context.Context, actor *models.JWTClaims, paperworkID string) ([]models.Review, error)
}

// ReviewHandler serves review decisions.
type ReviewHandler struct {
	service reviewService
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(svc reviewService) *ReviewHandler {
	return &ReviewHandler{service: svc}
}

// Review godoc
// @Summary Record a review decision
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Paperwork ID"
// @Param payload body dto.ReviewRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /paperworks/{id}/review [post]
func (h *ReviewHandler) Review(c *gin.Context) {
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid review payload"))
		return
	}
	pw, err := h.service.Review(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pw, nil)
}

// List godoc
// @Summary List reviews of a paperwork
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Paperwork ID"
// @Success 200 {object} response.Envelope
// @Router /paperworks/{id}/reviews [get]
func (h *ReviewHandler) List(c *gin.Context) {
	reviews, err := h.service.ListReviews(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}
