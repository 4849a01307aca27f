package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	Setup(r, DefaultConfig("test", logging.NewNop(), m))
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIErrorResponse {
	t.Helper()
	var body APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	r := newRouter(nil)
	var seenCorrelation string
	r.GET("/ping", func(c *gin.Context) {
		seenCorrelation = logging.CorrelationIDFromContext(c.Request.Context())
		source, _ := logging.TriggerFromContext(c.Request.Context())
		c.String(http.StatusOK, source)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, TriggerSourceAPI, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.Equal(t, w.Header().Get(HeaderRequestID), seenCorrelation)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderCorrelationID, "corr-42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "corr-42", w.Header().Get(HeaderCorrelationID))
	assert.Equal(t, "corr-42", seenCorrelation)
}

func TestErrorHandler_MapsErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"not found", apperrors.NewNotFoundError("order", "ORD-1"), http.StatusNotFound, apperrors.CodeNotFound},
		{"validation", apperrors.NewValidationError("sku", "required"), http.StatusBadRequest, apperrors.CodeValidationError},
		{"state", apperrors.NewStateTransitionError("order", "cancel", "COMPLETED"), http.StatusConflict, apperrors.CodeInvalidState},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, apperrors.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(nil)
			r.GET("/fail", func(c *gin.Context) { _ = c.Error(tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

			assert.Equal(t, tt.wantCode, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.wantBody, body.Code)
			assert.Equal(t, "/fail", body.Path)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestRecovery_ReturnsInternalError(t *testing.T) {
	r := newRouter(nil)
	r.GET("/panic", func(c *gin.Context) { panic("unexpected") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperrors.CodeInternalError, decodeError(t, w).Code)
}

func TestNoRouteAndNoMethod(t *testing.T) {
	r := newRouter(nil)
	r.GET("/only-get", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", decodeError(t, w).Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/only-get", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, w).Code)
}

func TestMetrics_RecordsByRoute(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("test"))
	r := newRouter(m)
	r.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))
	}

	count := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("test", http.MethodGet, "/orders/:id", "204"))
	assert.Equal(t, 2.0, count)
}

func TestReadinessCheck(t *testing.T) {
	healthy := true
	r := newRouter(nil)
	r.GET("/ready", ReadinessCheck("test", map[string]func(*gin.Context) error{
		"mongodb": func(*gin.Context) error {
			if healthy {
				return nil
			}
			return errors.New("ping failed")
		},
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	healthy = false
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "ping failed")
}

type lineRequest struct {
	SKU      string `json:"sku" binding:"required,sku"`
	Quantity int    `json:"quantity" binding:"gt=0"`
}

func TestBindAndValidate(t *testing.T) {
	r := newRouter(nil)
	r.POST("/lines", func(c *gin.Context) {
		var req lineRequest
		if appErr := BindAndValidate(c, &req); appErr != nil {
			AbortWithError(c, appErr)
			return
		}
		c.Status(http.StatusCreated)
	})

	tests := []struct {
		name        string
		body        string
		wantCode    int
		wantDetails map[string]string
	}{
		{name: "valid", body: `{"sku":"SKU-1","quantity":2}`, wantCode: http.StatusCreated},
		{
			name:        "bad sku and quantity",
			body:        `{"sku":"bad sku!","quantity":0}`,
			wantCode:    http.StatusBadRequest,
			wantDetails: map[string]string{"sku": "must be a valid SKU", "quantity": "must be greater than 0"},
		},
		{name: "malformed", body: `{"sku":`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/lines", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantDetails != nil {
				assert.Equal(t, tt.wantDetails, decodeError(t, w).Details)
			}
		})
	}
}
