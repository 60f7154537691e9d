package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noel-Teens/pms-server/internal/models"
)

func TestMetricsHandlerExposesWorkflowCounters(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/paperworks", http.StatusOK, 20*time.Millisecond)
	m.VersionSubmitted()
	m.VersionsPruned(2)
	m.ReviewRecorded(models.PaperworkApproved)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.versionsSubmitted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.versionsPruned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reviews.WithLabelValues("APPROVED")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, "versions_pruned_total 2")
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *MetricsService
	m.VersionSubmitted()
	m.VersionsPruned(1)
	m.ReviewRecorded(models.PaperworkApproved)
	m.NotificationEmitted(models.EventSubmitted)
	m.MailDelivery("sent")
	m.RecordCacheOperation(true, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
