package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Noel-Teens/pms-server/internal/models"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
	"github.com/Noel-Teens/pms-server/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// Authenticator resolves an access token to the caller's current claims.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid bearer access token.
func JWT(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		authenticate(c, auth, token)
	}
}

// QueryTokenJWT behaves like JWT but also accepts ?token=, so file viewers
// embedded in iframes can authenticate without headers.
func QueryTokenJWT(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			token, err := bearerToken(header)
			if err != nil {
				response.Error(c, err)
				c.Abort()
				return
			}
			authenticate(c, auth, token)
			return
		}
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		authenticate(c, auth, token)
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

func authenticate(c *gin.Context, auth Authenticator, token string) {
	claims, err := auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		c.Abort()
		return
	}
	c.Set(ContextUserKey, claims)
	c.Next()
}
