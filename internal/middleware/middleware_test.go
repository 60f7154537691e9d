package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Noel-Teens/pms-server/internal/models"
	"github.com/Noel-Teens/pms-server/internal/service"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
)

type authStub map[string]*models.JWTClaims

func (s authStub) Authenticate(_ context.Context, token string) (*models.JWTClaims, error) {
	claims, ok := s[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

var testAuth = authStub{
	"admin-token":  {UserID: "a-1", Username: "admin", Role: models.RoleAdmin, Status: models.AccountActive},
	"ada-token":    {UserID: "r-1", Username: "ada", Role: models.RoleResearcher, Status: models.AccountActive},
	"frozen-token": {UserID: "r-2", Username: "grace", Role: models.RoleResearcher, Status: models.AccountFrozen},
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		claims, _ := currentClaims(c)
		c.JSON(http.StatusOK, gin.H{"user": claims.Username})
	})
	r.GET("/protected", handlers...)
	return r
}

func call(r http.Handler, target, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestJWTRequiresBearer(t *testing.T) {
	r := newRouter(JWT(testAuth))

	require.Equal(t, http.StatusOK, call(r, "/protected", "Bearer ada-token").Code)
	require.Equal(t, http.StatusOK, call(r, "/protected", "bearer ada-token").Code)
	require.Equal(t, http.StatusUnauthorized, call(r, "/protected", "").Code)
	require.Equal(t, http.StatusUnauthorized, call(r, "/protected", "Token ada-token").Code)
	require.Equal(t, http.StatusUnauthorized, call(r, "/protected", "Bearer nope").Code)
	require.Equal(t, http.StatusUnauthorized, call(r, "/protected?token=ada-token", "").Code)
}

func TestQueryTokenJWT(t *testing.T) {
	r := newRouter(QueryTokenJWT(testAuth))

	require.Equal(t, http.StatusOK, call(r, "/protected?token=ada-token", "").Code)
	require.Equal(t, http.StatusOK, call(r, "/protected", "Bearer admin-token").Code)
	require.Equal(t, http.StatusUnauthorized, call(r, "/protected?token=nope", "").Code)
	require.Equal(t, http.StatusUnauthorized, call(r, "/protected", "").Code)
	require.Equal(t, http.StatusUnauthorized, call(r, "/protected?token=ada-token", "Basic abc").Code)
}

func TestRequireRoles(t *testing.T) {
	r := newRouter(JWT(testAuth), RequireRoles(models.RoleAdmin))

	require.Equal(t, http.StatusOK, call(r, "/protected", "Bearer admin-token").Code)
	w := call(r, "/protected", "Bearer ada-token")
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, appErrors.ErrForbidden.Code, errorCode(t, w))

	require.Equal(t, http.StatusUnauthorized, call(newRouter(RequireRoles(models.RoleAdmin)), "/protected", "").Code)
}

func TestRequireActiveBlocksFrozen(t *testing.T) {
	r := newRouter(JWT(testAuth), RequireActive())

	require.Equal(t, http.StatusOK, call(r, "/protected", "Bearer ada-token").Code)
	w := call(r, "/protected", "Bearer frozen-token")
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, appErrors.ErrFrozenAccount.Code, errorCode(t, w))
}

func TestMetricsLabelsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/paperworks/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	call(r, "/paperworks/abc", "")
	call(r, "/paperworks/def", "")
	call(r, "/nowhere", "")

	count, err := testutil.GatherAndCount(metrics.Registry(), "http_requests_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestAuditLogsSuccessfulRequestsOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWT(testAuth))
	r.DELETE("/paperworks/:id", Audit(zap.New(core), "PAPERWORK_DELETE"), func(c *gin.Context) {
		if c.Param("id") == "missing" {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusNoContent)
	})

	for _, id := range []string{"p-1", "missing"} {
		req := httptest.NewRequest(http.MethodDelete, "/paperworks/"+id, nil)
		req.Header.Set("Authorization", "Bearer admin-token")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "PAPERWORK_DELETE", fields["action"])
	require.Equal(t, "a-1", fields["actor_id"])
	require.Equal(t, "p-1", fields["param_id"])
	require.Equal(t, "/paperworks/:id", fields["path"])
}
