package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
)

// MinPollingInterval is the shortest interval an observer may poll at
const MinPollingInterval = 10 * time.Second

// PollingInterval is how long an observer waits between polls
type PollingInterval struct {
	d time.Duration
}

// NewPollingInterval validates and creates a PollingInterval
func NewPollingInterval(d time.Duration) (PollingInterval, error) {
	if d < MinPollingInterval {
		return PollingInterval{}, apperrors.NewValidationError("pollingInterval", "must be at least 10 seconds")
	}
	return PollingInterval{d: d}, nil
}

func (p PollingInterval) Duration() time.Duration { return p.d }

// ObservationRule tunes how inventory observations are evaluated
type ObservationRule struct {
	ThresholdPercent float64 `json:"thresholdPercent"`
	CheckFrequency   int     `json:"checkFrequency"`
}

// NewObservationRule validates and creates an ObservationRule
func NewObservationRule(thresholdPercent float64, checkFrequency int) (ObservationRule, error) {
	if thresholdPercent < 0 || thresholdPercent > 100 {
		return ObservationRule{}, apperrors.NewValidationError("thresholdPercent", "must be between 0 and 100")
	}
	if checkFrequency <= 0 {
		return ObservationRule{}, apperrors.NewValidationError("checkFrequency", "must be positive")
	}
	return ObservationRule{ThresholdPercent: thresholdPercent, CheckFrequency: checkFrequency}, nil
}

// SourceEndpoint locates the order-intake database
type SourceEndpoint struct {
	DSN      string `json:"dsn"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// NewSourceEndpoint validates and creates a SourceEndpoint. An empty password is allowed.
func NewSourceEndpoint(dsn, username, password string) (SourceEndpoint, error) {
	if strings.TrimSpace(dsn) == "" {
		return SourceEndpoint{}, apperrors.NewValidationError("dsn", "cannot be blank")
	}
	if strings.TrimSpace(username) == "" {
		return SourceEndpoint{}, apperrors.NewValidationError("username", "cannot be blank")
	}
	return SourceEndpoint{DSN: strings.TrimSpace(dsn), Username: strings.TrimSpace(username), Password: password}, nil
}

// TaskEndpoint locates the WES task API
type TaskEndpoint struct {
	URL       string `json:"url"`
	AuthToken string `json:"-"`
}

// NewTaskEndpoint validates and creates a TaskEndpoint
func NewTaskEndpoint(url, authToken string) (TaskEndpoint, error) {
	if strings.TrimSpace(url) == "" {
		return TaskEndpoint{}, apperrors.NewValidationError("url", "cannot be blank")
	}
	if strings.TrimSpace(authToken) == "" {
		return TaskEndpoint{}, apperrors.NewValidationError("authToken", "cannot be blank")
	}
	return TaskEndpoint{URL: strings.TrimSpace(url), AuthToken: authToken}, nil
}

// ObservedOrderItem is one line of an order read from the order source
type ObservedOrderItem struct {
	SKU         string          `json:"sku"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// NewObservedOrderItem validates and creates an ObservedOrderItem
func NewObservedOrderItem(sku, productName string, quantity int, price decimal.Decimal) (ObservedOrderItem, error) {
	if strings.TrimSpace(sku) == "" {
		return ObservedOrderItem{}, apperrors.NewValidationError("sku", "cannot be blank")
	}
	if quantity <= 0 {
		return ObservedOrderItem{}, apperrors.NewValidationError("quantity", "must be positive")
	}
	if price.IsNegative() {
		return ObservedOrderItem{}, apperrors.NewValidationError("price", "cannot be negative")
	}
	return ObservedOrderItem{SKU: strings.TrimSpace(sku), ProductName: productName, Quantity: quantity, Price: price}, nil
}

// ObservationResult is a new order read from the order source
type ObservationResult struct {
	OrderID             string              `json:"orderId"`
	CustomerName        string              `json:"customerName"`
	CustomerEmail       string              `json:"customerEmail"`
	ShippingAddress     string              `json:"shippingAddress"`
	OrderType           string              `json:"orderType"`
	WarehouseID         string              `json:"warehouseId"`
	Status              string              `json:"status"`
	ScheduledPickupTime *time.Time          `json:"scheduledPickupTime,omitempty"`
	Items               []ObservedOrderItem `json:"items"`
	ObservedAt          time.Time           `json:"observedAt"`
}

// Validate checks the fields every observed order must carry
func (r ObservationResult) Validate() error {
	required := []struct{ field, value string }{
		{"orderId", r.OrderID},
		{"customerName", r.CustomerName},
		{"customerEmail", r.CustomerEmail},
		{"shippingAddress", r.ShippingAddress},
		{"orderType", r.OrderType},
		{"warehouseId", r.WarehouseID},
		{"status", r.Status},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return apperrors.NewValidationError(f.field, "cannot be blank")
		}
	}
	if len(r.Items) == 0 {
		return apperrors.NewValidationError("items", "at least one item is required")
	}
	if r.ObservedAt.IsZero() {
		return apperrors.NewValidationError("observedAt", "is required")
	}
	return nil
}
