package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/resilience"
)

func newClient(url string) *Client {
	return New(Config{System: "test", BaseURL: url + "/", Headers: map[string]string{"X-Api-Key": "k"}},
		logging.NewNop(), metrics.New(metrics.DefaultConfig("test")))
}

func TestDo_SendsJSONAndDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/echo", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "k", r.Header.Get("X-Api-Key"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["value"]})
	}))
	defer server.Close()

	var out struct {
		Echo string `json:"echo"`
	}
	err := newClient(server.URL).Do(context.Background(), "echo", http.MethodPost, "/api/echo", map[string]string{"value": "hi"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "hi", out.Echo)
}

func TestDo_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"error":"conflict"}`))
	}))
	defer server.Close()

	err := newClient(server.URL).Do(context.Background(), "conflict", http.MethodGet, "/x", nil, nil)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.StatusCode)
	assert.Contains(t, se.Body, "conflict")
	assert.Equal(t, http.StatusConflict, StatusCode(err))
}

func TestDo_ClientErrorsDoNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newClient(server.URL)
	for i := 0; i < 10; i++ {
		err := c.Do(context.Background(), "missing", http.MethodGet, "/x", nil, nil)
		assert.Equal(t, http.StatusNotFound, StatusCode(err))
	}
}

func TestDo_ServerErrorsTripBreaker(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newClient(server.URL)
	var err error
	for i := 0; i < int(resilience.DefaultFailureThreshold)+1; i++ {
		err = c.Do(context.Background(), "broken", http.MethodGet, "/x", nil, nil)
	}

	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.Equal(t, int(resilience.DefaultFailureThreshold), calls)
}

func TestDo_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := New(Config{System: "slow", BaseURL: server.URL, Timeout: 20 * time.Millisecond}, logging.NewNop(), nil)
	err := c.Do(context.Background(), "slow", http.MethodGet, "/", nil, nil)

	assert.True(t, IsTimeout(err))
}

func TestDo_PropagatesTraceContext(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	ctx, span := tp.Tracer("test").Start(context.Background(), "test-span")
	defer span.End()

	var captured http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Header.Clone()
	}))
	defer server.Close()

	require.NoError(t, newClient(server.URL).Do(ctx, "trace", http.MethodGet, "/", nil, nil))
	assert.Contains(t, captured.Get("traceparent"), span.SpanContext().TraceID().String())
}
