package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/wms-platform/fulfillment-orchestrator/internal/observation/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
)

// BatchSize caps the number of orders read per poll
const BatchSize = 50

const (
	statusNew        = "NEW"
	statusInProgress = "IN_PROGRESS"
)

const selectOrders = `
SELECT order_id, customer_name, customer_email, shipping_address,
       order_type, warehouse_id, status, scheduled_pickup_time, created_at
FROM orders
WHERE status = $1 AND ($2::timestamptz IS NULL OR created_at > $2::timestamptz)
ORDER BY created_at ASC
LIMIT $3`

const selectItems = `
SELECT sku, product_name, quantity, price
FROM order_items
WHERE order_id = $1
ORDER BY created_at`

const markProcessed = `
UPDATE orders
SET status = $1, updated_at = now()
WHERE order_id = $2`

// OrderSource reads new orders from an order-intake PostgreSQL database.
// One connection pool is kept per endpoint.
type OrderSource struct {
	mu      sync.Mutex
	pools   map[string]*sql.DB
	logger  *logging.Logger
	metrics *metrics.Metrics
}

var _ domain.OrderSourcePort = (*OrderSource)(nil)

// NewOrderSource creates an OrderSource. m may be nil.
func NewOrderSource(logger *logging.Logger, m *metrics.Metrics) *OrderSource {
	return &OrderSource{
		pools:   make(map[string]*sql.DB),
		logger:  logger.WithComponent("order-source"),
		metrics: m,
	}
}

// FetchNewOrders returns up to BatchSize NEW orders created after since, oldest
// first. Orders without items are skipped.
func (s *OrderSource) FetchNewOrders(ctx context.Context, endpoint domain.SourceEndpoint, since *time.Time) ([]domain.ObservationResult, error) {
	start := time.Now()
	results, err := s.fetch(ctx, endpoint, since)
	s.observe(ctx, "fetch-new-orders", start, err)
	if err != nil {
		return nil, &domain.OrderSourceError{Operation: "fetch new orders", Err: err}
	}
	s.logger.WithContext(ctx).Info("Fetched new orders from order source", "count", len(results))
	return results, nil
}

func (s *OrderSource) fetch(ctx context.Context, endpoint domain.SourceEndpoint, since *time.Time) ([]domain.ObservationResult, error) {
	db, err := s.pool(endpoint)
	if err != nil {
		return nil, err
	}

	var after sql.NullTime
	if since != nil {
		after = sql.NullTime{Time: since.UTC(), Valid: true}
	}

	rows, err := db.QueryContext(ctx, selectOrders, statusNew, after, BatchSize)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var results []domain.ObservationResult
	for rows.Next() {
		var (
			r                     domain.ObservationResult
			email, address, oType sql.NullString
			warehouse             sql.NullString
			pickup                sql.NullTime
		)
		if err := rows.Scan(&r.OrderID, &r.CustomerName, &email, &address, &oType, &warehouse, &r.Status, &pickup, &r.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		r.CustomerEmail = email.String
		r.ShippingAddress = address.String
		r.OrderType = oType.String
		r.WarehouseID = warehouse.String
		r.ObservedAt = r.ObservedAt.UTC()
		if pickup.Valid {
			at := pickup.Time.UTC()
			r.ScheduledPickupTime = &at
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	withItems := results[:0]
	for _, r := range results {
		items, err := fetchItems(ctx, db, r.OrderID)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			continue
		}
		r.Items = items
		withItems = append(withItems, r)
	}
	return withItems, nil
}

func fetchItems(ctx context.Context, db *sql.DB, orderID string) ([]domain.ObservedOrderItem, error) {
	rows, err := db.QueryContext(ctx, selectItems, orderID)
	if err != nil {
		return nil, fmt.Errorf("query items of %s: %w", orderID, err)
	}
	defer rows.Close()

	var items []domain.ObservedOrderItem
	for rows.Next() {
		var (
			item        domain.ObservedOrderItem
			productName sql.NullString
			price       decimal.NullDecimal
		)
		if err := rows.Scan(&item.SKU, &productName, &item.Quantity, &price); err != nil {
			return nil, fmt.Errorf("scan item of %s: %w", orderID, err)
		}
		item.ProductName = productName.String
		item.Price = price.Decimal
		items = append(items, item)
	}
	return items, rows.Err()
}

// MarkOrderAsProcessed moves the order to IN_PROGRESS so later polls skip it
func (s *OrderSource) MarkOrderAsProcessed(ctx context.Context, endpoint domain.SourceEndpoint, orderID string) error {
	start := time.Now()
	err := s.mark(ctx, endpoint, orderID)
	s.observe(ctx, "mark-order-processed", start, err)

	if apperrors.IsNotFound(err) {
		return err
	}
	if err != nil {
		return &domain.OrderSourceError{Operation: "mark order as processed", Err: err}
	}
	s.logger.WithContext(ctx).Info("Marked order as in progress in order source", "orderId", orderID)
	return nil
}

func (s *OrderSource) mark(ctx context.Context, endpoint domain.SourceEndpoint, orderID string) error {
	db, err := s.pool(endpoint)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, markProcessed, statusInProgress, orderID)
	if err != nil {
		return fmt.Errorf("update order %s: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order %s: %w", orderID, err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError("source order", orderID)
	}
	return nil
}

// Close closes every pool
func (s *OrderSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for key, db := range s.pools {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.pools, key)
	}
	return firstErr
}

func (s *OrderSource) pool(endpoint domain.SourceEndpoint) (*sql.DB, error) {
	dsn, err := ConnectionString(endpoint)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.pools[dsn]; ok {
		return db, nil
	}
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid order source dsn: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	s.pools[dsn] = db
	return db, nil
}

func (s *OrderSource) observe(ctx context.Context, operation string, start time.Time, err error) {
	elapsed := time.Since(start)
	s.logger.ExternalCall(ctx, "order-source", operation, 0, elapsed, err)
	if s.metrics != nil {
		s.metrics.RecordExternalCall("order-source", operation, err == nil, elapsed)
	}
}

// ConnectionString merges the endpoint credentials into its DSN. URL and
// key/value DSNs are both accepted.
func ConnectionString(endpoint domain.SourceEndpoint) (string, error) {
	dsn := strings.TrimSpace(endpoint.DSN)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", apperrors.NewValidationError("dsn", err.Error())
		}
		if endpoint.Password != "" {
			u.User = url.UserPassword(endpoint.Username, endpoint.Password)
		} else {
			u.User = url.User(endpoint.Username)
		}
		return u.String(), nil
	}

	parts := []string{dsn, "user=" + quote(endpoint.Username)}
	if endpoint.Password != "" {
		parts = append(parts, "password="+quote(endpoint.Password))
	}
	return strings.Join(parts, " "), nil
}

func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
