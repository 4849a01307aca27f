package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-orchestrator/internal/order/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	testutil "github.com/wms-platform/fulfillment-orchestrator/pkg/testing"
)

func newOrder(t *testing.T, id string, skus ...string) *domain.Order {
	t.Helper()
	lines := make([]domain.OrderLineItem, 0, len(skus))
	for _, sku := range skus {
		line, err := domain.NewOrderLineItem(sku, 2, decimal.RequireFromString("19.95"))
		require.NoError(t, err)
		lines = append(lines, line)
	}
	order, err := domain.NewOrder(id, lines)
	require.NoError(t, err)
	return order
}

func scheduled(t *testing.T, order *domain.Order, pickup time.Time) *domain.Order {
	t.Helper()
	at, err := domain.NewScheduledPickupTime(pickup)
	require.NoError(t, err)
	require.NoError(t, order.ScheduleForLaterFulfillment(at, domain.DefaultFulfillmentLeadTime()))
	return order
}

func TestOrderDocument_Mapping(t *testing.T) {
	pickup := time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC)
	order := scheduled(t, newOrder(t, "ORD-1", "SKU-1"), pickup)

	doc, err := toOrderDocument(order)
	require.NoError(t, err)
	assert.Equal(t, "19.95", doc.Lines[0].Price.String())
	assert.Equal(t, int64(2*time.Hour/time.Millisecond), doc.LeadTimeMillis)
	require.NotNil(t, doc.FulfillmentStartAt)
	assert.Equal(t, pickup.Add(-2*time.Hour), *doc.FulfillmentStartAt)

	restored, err := doc.toDomain()
	require.NoError(t, err)
	assert.Equal(t, domain.OrderScheduled, restored.Status())
	assert.True(t, restored.Lines()[0].Price.Equal(decimal.RequireFromString("19.95")))
	assert.Equal(t, order.FulfillmentLeadTime(), restored.FulfillmentLeadTime())
	assert.True(t, restored.IsReadyForFulfillment(pickup.Add(-time.Hour)))
}

func TestOrderRepository_Integration(t *testing.T) {
	db := testutil.MongoDatabase(t)
	ctx := context.Background()

	repo, err := NewOrderRepository(ctx, db, nil)
	require.NoError(t, err)

	now := time.Now().UTC()
	due := scheduled(t, newOrder(t, "ORD-DUE", "SKU-1"), now.Add(time.Hour))
	later := scheduled(t, newOrder(t, "ORD-LATER", "SKU-1"), now.Add(6*time.Hour))
	immediate := newOrder(t, "ORD-NOW", "SKU-1", "SKU-2")
	require.NoError(t, immediate.MarkReadyForFulfillment())

	for _, o := range []*domain.Order{due, later, immediate} {
		require.NoError(t, repo.Save(ctx, o))
	}

	ready, err := repo.FindScheduledReadyForFulfillment(ctx, now)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, "ORD-DUE", ready[0].ID())

	line, ok := immediate.LineBySKU("SKU-1")
	require.True(t, ok)
	require.NoError(t, immediate.ReserveLineItem(line.LineID, "TX-1", "E1", "WH001"))
	require.NoError(t, repo.Save(ctx, immediate))

	found, err := repo.FindByID(ctx, "ORD-NOW")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPartiallyReserved, found.Status())
	reserved := found.ReservedLines()
	require.Len(t, reserved, 1)
	assert.Equal(t, "WH001", reserved[0].Reservation.WarehouseID)
	assert.True(t, reserved[0].Price.Equal(decimal.RequireFromString("19.95")))

	byStatus, err := repo.FindByStatus(ctx, domain.OrderScheduled)
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	_, err = repo.FindByID(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}
