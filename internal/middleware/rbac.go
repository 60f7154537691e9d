package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Noel-Teens/pms-server/internal/models"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
	"github.com/Noel-Teens/pms-server/pkg/response"
)

func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok && claims != nil
}

// RequireRoles allows the request only when the caller holds one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireActive denies FROZEN accounts. INACTIVE accounts never get this far
// because authentication rejects them.
func RequireActive() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.Status == models.AccountFrozen {
			response.Error(c, appErrors.ErrFrozenAccount)
			c.Abort()
			return
		}
		c.Next()
	}
}
