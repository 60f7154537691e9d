package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Noel-Teens/pms-server/internal/dto"
	"github.com/Noel-Teens/pms-server/internal/models"
	"github.com/Noel-Teens/pms-server/pkg/response"
)

type notificationService interface {
	List(ctx context.Context, actor *models.JWTClaims, query dto.NotificationListQuery) ([]models.Notification, error)
}

// NotificationHandler lists lifecycle notifications.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(svc notificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// List godoc
// @Summary Recent notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param paperwork_id query string false "Paperwork filter"
// @Param limit query int false "Maximum rows (default 50)"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	var query dto.NotificationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	items, err := h.service.List(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
