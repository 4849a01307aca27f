package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	testutil "github.com/wms-platform/fulfillment-orchestrator/pkg/testing"
)

func TestTransactionDocument_PreservesState(t *testing.T) {
	reservation, err := domain.NewReservation("ORD-1", "SKU-1", "WH1", 3)
	require.NoError(t, err)
	require.NoError(t, reservation.MarkAsReserved("E1"))
	consumption, err := domain.NewConsumption("ORD-1", reservation)
	require.NoError(t, err)

	for _, tx := range []*domain.InventoryTransaction{reservation, consumption} {
		assert.Equal(t, tx.State(), toTransactionDocument(tx).toDomain().State())
	}
}

func TestAdjustmentDocument_PreservesState(t *testing.T) {
	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	adjustment, err := domain.DetectDiscrepancy(
		[]domain.StockSnapshot{{SKU: "SKU-1", Quantity: 2, WarehouseID: "WH1", Timestamp: at}},
		[]domain.StockSnapshot{{SKU: "SKU-1", Quantity: 5, WarehouseID: "WH1", Timestamp: at}},
		at,
	)
	require.NoError(t, err)

	assert.Equal(t, adjustment.State(), toAdjustmentDocument(adjustment).toDomain().State())
}

func TestTransactionRepository_Integration(t *testing.T) {
	db := testutil.MongoDatabase(t)
	ctx := context.Background()

	repo, err := NewTransactionRepository(ctx, db, nil)
	require.NoError(t, err)

	tx, err := domain.NewReservation("ORD-1", "SKU-1", "WH1", 3)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, tx))

	other, err := domain.NewReservation("ORD-2", "SKU-2", "WH1", 1)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, other))

	require.NoError(t, tx.MarkAsReserved("E1"))
	require.NoError(t, repo.Save(ctx, tx))

	found, err := repo.FindByID(ctx, tx.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionCompleted, found.Status())
	assert.Equal(t, domain.ExternalReservationID("E1"), found.ExternalReservationID())
	assert.Equal(t, tx.Lines(), found.Lines())

	byOrder, err := repo.FindBySourceReferenceID(ctx, "ORD-1")
	require.NoError(t, err)
	require.Len(t, byOrder, 1)
	assert.Equal(t, tx.ID(), byOrder[0].ID())

	pending, err := repo.FindByStatus(ctx, domain.TransactionPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, other.ID(), pending[0].ID())

	_, err = repo.FindByID(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAdjustmentRepository_Integration(t *testing.T) {
	db := testutil.MongoDatabase(t)
	ctx := context.Background()

	repo, err := NewAdjustmentRepository(ctx, db, nil)
	require.NoError(t, err)

	at := time.Now().UTC()
	adjustment, err := domain.DetectDiscrepancy(
		[]domain.StockSnapshot{{SKU: "SKU-1", Quantity: 2, WarehouseID: "WH1", Timestamp: at}},
		[]domain.StockSnapshot{{SKU: "SKU-1", Quantity: 5, WarehouseID: "WH1", Timestamp: at}},
		at,
	)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, adjustment))

	found, err := repo.FindByID(ctx, adjustment.ID())
	require.NoError(t, err)
	require.Len(t, found.Discrepancies(), 1)
	assert.Equal(t, -3, found.Discrepancies()[0].Difference)

	byStatus, err := repo.FindByStatus(ctx, adjustment.Status())
	require.NoError(t, err)
	assert.Len(t, byStatus, 1)

	_, err = repo.FindByID(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}
