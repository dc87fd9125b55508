package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"kanban-sync/internal/metrics"
)

func newTestMetrics() *metrics.Metrics {
	return metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop())
}

func setupTestRouter(m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Recovery(zap.NewNop()))
	router.Use(Metrics(m))
	return router
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

// For any status code, one request increments the counter of its status class by one
func TestProperty_HTTPRequestMetricsIncrement(t *testing.T) {
	m := newTestMetrics()
	router := setupTestRouter(m)
	router.GET("/api/board/tasks/:id", func(c *gin.Context) {
		var code int
		if err := bindStatus(c, &code); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(code)
	})

	properties := gopter.NewProperties(nil)
	properties.Property("counter increments per request", prop.ForAll(
		func(code int) bool {
			class := statusClass(code)
			counter := m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/board/tasks/:id", class)
			before := testutil.ToFloat64(counter)

			w := serve(router, http.MethodGet, "/api/board/tasks/"+strconv.Itoa(code))
			if w.Code != code {
				return false
			}
			return testutil.ToFloat64(counter) == before+1
		},
		gen.IntRange(200, 599),
	))
	properties.TestingRun(t)
}

func TestMetrics_SkipsHealthAndMetrics(t *testing.T) {
	m := newTestMetrics()
	router := setupTestRouter(m)
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, http.MethodGet, "/health")
	serve(router, http.MethodGet, "/metrics")

	assert.Equal(t, 0, testutil.CollectAndCount(m.HTTPRequestsTotal))
}

func TestMetrics_UnmatchedRoute(t *testing.T) {
	m := newTestMetrics()
	router := setupTestRouter(m)

	w := serve(router, http.MethodGet, "/nowhere")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "4xx")))
}

func TestRecovery(t *testing.T) {
	router := setupTestRouter(newTestMetrics())
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := serve(router, http.MethodGet, "/panic")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":{"code":"INTERNAL_ERROR","message":"Internal server error"}}`, w.Body.String())
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantHeader string
		wantStatus int
	}{
		{"allowed origin", []string{"http://localhost:5173"}, "http://localhost:5173", http.MethodGet, "http://localhost:5173", http.StatusOK},
		{"other origin", []string{"http://localhost:5173"}, "https://evil.example", http.MethodGet, "", http.StatusOK},
		{"wildcard", []string{"*"}, "https://any.example", http.MethodGet, "https://any.example", http.StatusOK},
		{"preflight", []string{"*"}, "https://any.example", http.MethodOptions, "https://any.example", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORS(tt.allowed))
			router.GET("/state", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/state", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantHeader, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func bindStatus(c *gin.Context, code *int) error {
	var uri struct {
		ID int `uri:"id" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		return err
	}
	*code = uri.ID
	return nil
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
