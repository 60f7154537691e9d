package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Noel-Teens/pms-server/internal/middleware"
	"github.com/Noel-Teens/pms-server/internal/models"
	"github.com/Noel-Teens/pms-server/internal/service"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// versionParam parses :ver. Anything but a positive integer cannot name a
// version, so it is reported as not found.
func versionParam(c *gin.Context) (int, error) {
	n, err := strconv.Atoi(c.Param("ver"))
	if err != nil || n < 1 {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "version not found")
	}
	return n, nil
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}

// sendFile streams an opened artifact with an inline or attachment disposition.
func sendFile(c *gin.Context, file *service.FileDownload) {
	defer file.Object.Close()
	disposition := "attachment"
	if file.Inline {
		disposition = "inline"
	}
	c.Header("Cache-Control", "private, max-age=0, no-store")
	c.Header("X-Content-Type-Options", "nosniff")
	c.DataFromReader(http.StatusOK, file.Object.Size, file.ContentType, io.Reader(file.Object), map[string]string{
		"Content-Disposition": fmt.Sprintf("%s; filename=%q", disposition, file.Filename),
	})
}
