package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/propagation"

	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/resilience"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/tracing"
)

// DefaultTimeout bounds every request made by a Client
const DefaultTimeout = 10 * time.Second

// Config holds the settings of one downstream system
type Config struct {
	System  string
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
}

// StatusError is returned for responses with a 4xx or 5xx status
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// TimeoutError is returned when the downstream system does not answer in time
type TimeoutError struct {
	URL string
	Err error
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("request to %s timed out: %v", e.URL, e.Err) }
func (e *TimeoutError) Unwrap() error { return e.Err }

// StatusCode returns the response status carried by err, or 0
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsTimeout reports whether err is a request timeout
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Client performs JSON requests against one downstream system. Transport
// failures and 5xx responses count against the circuit breaker, 4xx do not.
type Client struct {
	config  Config
	http    *http.Client
	breaker *resilience.CircuitBreaker
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// New creates a Client. m may be nil.
func New(config Config, logger *logging.Logger, m *metrics.Metrics) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	logger = logger.WithComponent(config.System + "-client")

	return &Client{
		config:  config,
		http:    &http.Client{Timeout: config.Timeout},
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig(config.System), logger.Logger, m),
		logger:  logger,
		metrics: m,
	}
}

// System returns the name of the downstream system
func (c *Client) System() string { return c.config.System }

type response struct {
	status int
	body   []byte
}

// Do sends body as JSON to path and decodes a successful response into out.
// operation names the call in logs and metrics.
func (c *Client) Do(ctx context.Context, operation, method, path string, body, out any) error {
	start := time.Now()
	url := c.config.BaseURL + path

	result, err := resilience.Call(ctx, c.breaker, func() (*response, error) {
		return c.send(ctx, method, url, body)
	})
	status := StatusCode(err)
	if result != nil {
		status = result.status
	}
	if err == nil && status >= 400 {
		err = &StatusError{Method: method, URL: url, StatusCode: status, Body: string(result.body)}
	}

	elapsed := time.Since(start)
	c.logger.ExternalCall(ctx, c.config.System, operation, status, elapsed, err)
	if c.metrics != nil {
		c.metrics.RecordExternalCall(c.config.System, operation, err == nil, elapsed)
	}
	if err != nil {
		return err
	}

	if out != nil && len(result.body) > 0 {
		if err := json.Unmarshal(result.body, out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", operation, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, url string, body any) (*response, error) {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	tracing.InjectTraceContext(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, &TimeoutError{URL: url, Err: err}
		}
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	result := &response{status: resp.StatusCode, body: raw}
	if resp.StatusCode >= 500 {
		return result, &StatusError{Method: method, URL: url, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return result, nil
}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

// ParseTimestamp reads the timestamp formats the downstream systems emit and
// returns the zero time for anything else
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
