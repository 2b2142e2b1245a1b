package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	m := New()
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/api/projects/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/projects/"+id, nil)
		router.ServeHTTP(w, req)
	}

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/api/projects/:id", "GET", "404"))
	assert.Equal(t, float64(2), got)
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	m := New()
	router := gin.New()
	router.Use(m.Middleware())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/nope", nil)
	router.ServeHTTP(w, req)

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("unmatched", "GET", "404"))
	assert.Equal(t, float64(1), got)
}

func TestRecordAuthEvent(t *testing.T) {
	m := New()
	m.RecordAuthEvent(AuthLoginFailure)
	m.RecordAuthEvent(AuthLoginFailure)
	m.RecordAuthEvent(AuthLoginSuccess)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.AuthEvents.WithLabelValues(AuthLoginFailure)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AuthEvents.WithLabelValues(AuthLoginSuccess)))

	var nilMetrics *Metrics
	nilMetrics.RecordAuthEvent(AuthRegistered)
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.RecordAuthEvent(AuthRegistered)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `taskline_auth_events_total{event="registered"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordAuthEvent(AuthRejected)

	assert.Equal(t, float64(0), testutil.ToFloat64(b.AuthEvents.WithLabelValues(AuthRejected)))
}
