package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
)

func eventTypes[E interface{ EventType() string }](events []E) []string {
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType())
	}
	return types
}

func TestNewReservation(t *testing.T) {
	tx, err := NewReservation("ORD-1", " SKU-1 ", "WH1", 10)
	require.NoError(t, err)

	assert.NotEmpty(t, tx.ID())
	assert.Equal(t, TransactionOutbound, tx.Type())
	assert.Equal(t, TransactionPending, tx.Status())
	assert.Equal(t, SourceOrderReservation, tx.Source())
	assert.Equal(t, "ORD-1", tx.SourceReferenceID())
	assert.Equal(t, "WH1", tx.Location().WarehouseID)
	assert.Equal(t, []TransactionLine{{SKU: "SKU-1", Quantity: 10}}, tx.Lines())

	events := tx.PullEvents()
	require.Len(t, events, 1)
	requested, ok := events[0].(*InventoryReservationRequestedEvent)
	require.True(t, ok)
	assert.Equal(t, tx.ID(), requested.AggregateID())
	assert.Equal(t, 10, requested.Quantity)
	assert.Empty(t, tx.PullEvents())
}

func TestNewReservation_Validation(t *testing.T) {
	_, err := NewReservation(" ", "SKU-1", "WH1", 1)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = NewReservation("ORD-1", "SKU-1", "WH1", 0)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = NewReservation("ORD-1", "SKU-1", "", 1)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestFactories_LineSignRules(t *testing.T) {
	negative := []TransactionLine{{SKU: "SKU-1", Quantity: -2}}

	_, err := NewInboundTransaction("PUT-1", SourcePutawayTaskCompleted, "WH1", negative)
	assert.Error(t, err)

	_, err = NewOutboundTransaction("ORD-1", SourcePickingTaskCompleted, "WH1", negative, "")
	assert.Error(t, err)

	tx, err := NewAdjustmentTransaction("ADJ-1", SourceCycleCountAdjustment, "WH1", negative)
	require.NoError(t, err)
	assert.Equal(t, TransactionAdjustment, tx.Type())

	_, err = NewAdjustmentTransaction("ADJ-1", SourceCycleCountAdjustment, "WH1", nil)
	assert.Error(t, err)

	_, err = NewAdjustmentTransaction("ADJ-1", SourceCycleCountAdjustment, "WH1", []TransactionLine{{SKU: "SKU-1"}})
	assert.Error(t, err)
}

func TestMarkAsReserved(t *testing.T) {
	tx, err := NewReservation("ORD-1", "SKU-1", "WH1", 10)
	require.NoError(t, err)
	tx.PullEvents()

	require.NoError(t, tx.MarkAsReserved("E1"))
	assert.Equal(t, TransactionCompleted, tx.Status())
	assert.Equal(t, ExternalReservationID("E1"), tx.ExternalReservationID())
	_, done := tx.CompletedAt()
	assert.True(t, done)

	events := tx.PullEvents()
	require.Len(t, events, 1)
	reserved := events[0].(*InventoryReservedEvent)
	assert.Equal(t, "ORD-1", reserved.OrderID)
	assert.Equal(t, "E1", reserved.ExternalReservationID)

	err = tx.MarkAsReserved("E2")
	assert.True(t, apperrors.IsKind(err, apperrors.KindState))
}

func TestMarkAsReserved_RequiresReservationSource(t *testing.T) {
	tx, err := NewInboundTransaction("PUT-1", SourcePutawayTaskCompleted, "WH1", []TransactionLine{{SKU: "SKU-1", Quantity: 1}})
	require.NoError(t, err)

	err = tx.MarkAsReserved("E1")
	assert.True(t, apperrors.IsKind(err, apperrors.KindState))
	assert.Equal(t, TransactionPending, tx.Status())
}

func TestComplete_OnPendingIsRejected(t *testing.T) {
	tx, err := NewInboundTransaction("PUT-1", SourcePutawayTaskCompleted, "WH1", []TransactionLine{{SKU: "SKU-1", Quantity: 3}})
	require.NoError(t, err)
	tx.PullEvents()

	err = tx.Complete()

	var stateErr *apperrors.StateTransitionError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "PENDING", stateErr.From)
	assert.Equal(t, TransactionPending, tx.Status())
	assert.Empty(t, tx.PullEvents())
}

func TestComplete_EventsPerType(t *testing.T) {
	lines := []TransactionLine{{SKU: "SKU-1", Quantity: 3}}

	inbound, err := NewInboundTransaction("PUT-1", SourcePutawayTaskCompleted, "WH1", lines)
	require.NoError(t, err)
	require.NoError(t, inbound.MarkAsProcessing())
	require.NoError(t, inbound.Complete())
	assert.Equal(t, []string{EventTransactionCreated, EventInventoryIncreased, EventTransactionCompleted}, eventTypes(inbound.PullEvents()))

	adjustment, err := NewAdjustmentTransaction("MAN-1", SourceManualAdjustment, "WH1", lines)
	require.NoError(t, err)
	adjustment.PullEvents()
	require.NoError(t, adjustment.MarkAsProcessing())
	require.NoError(t, adjustment.Complete())
	assert.Equal(t, []string{EventInventoryAdjusted, EventTransactionCompleted}, eventTypes(adjustment.PullEvents()))
}

func TestConsumption_RaisesConsumedBeforeDecreased(t *testing.T) {
	reservation, err := NewReservation("ORD-1", "SKU-1", "WH1", 4)
	require.NoError(t, err)
	require.NoError(t, reservation.MarkAsReserved("E1"))

	consumption, err := NewConsumption("ORD-1", reservation)
	require.NoError(t, err)
	assert.Equal(t, SourceReservationConsumed, consumption.Source())
	assert.Equal(t, reservation.ID(), consumption.RelatedTransactionID())
	assert.Equal(t, ExternalReservationID("E1"), consumption.ExternalReservationID())
	assert.Equal(t, reservation.Lines(), consumption.Lines())
	consumption.PullEvents()

	require.NoError(t, consumption.MarkAsProcessing())
	require.NoError(t, consumption.Complete())

	events := consumption.PullEvents()
	assert.Equal(t, []string{EventReservationConsumed, EventInventoryDecreased, EventTransactionCompleted}, eventTypes(events))
	consumed := events[0].(*ReservationConsumedEvent)
	assert.Equal(t, reservation.ID(), consumed.RelatedTransactionID)
}

func TestConsumption_RequiresCompletedReservation(t *testing.T) {
	reservation, err := NewReservation("ORD-1", "SKU-1", "WH1", 4)
	require.NoError(t, err)

	_, err = NewConsumption("ORD-1", reservation)
	assert.True(t, apperrors.IsKind(err, apperrors.KindState))
}

func TestFail_ReservationRaisesReservationFailed(t *testing.T) {
	tx, err := NewReservation("ORD-1", "SKU-1", "WH1", 4)
	require.NoError(t, err)
	tx.PullEvents()

	require.NoError(t, tx.Fail("out of stock"))
	assert.Equal(t, TransactionFailed, tx.Status())
	assert.Equal(t, "out of stock", tx.FailureReason())

	events := tx.PullEvents()
	assert.Equal(t, []string{EventReservationFailed, EventTransactionFailed}, eventTypes(events))
	assert.Equal(t, "ORD-1", events[0].(*ReservationFailedEvent).OrderID)

	assert.Error(t, tx.Fail("again"))
}

func TestMarkAsProcessing_PermissiveFromCompleted(t *testing.T) {
	tx, err := NewReservation("ORD-1", "SKU-1", "WH1", 4)
	require.NoError(t, err)
	require.NoError(t, tx.MarkAsReserved("E1"))

	require.NoError(t, tx.MarkAsProcessing())
	assert.Equal(t, TransactionProcessing, tx.Status())

	failed, err := NewReservation("ORD-2", "SKU-1", "WH1", 4)
	require.NoError(t, err)
	require.NoError(t, failed.Fail("boom"))
	assert.Error(t, failed.MarkAsProcessing())
}

func TestReleaseReservation(t *testing.T) {
	tx, err := NewReservation("ORD-1", "SKU-1", "WH1", 4)
	require.NoError(t, err)
	require.NoError(t, tx.MarkAsReserved("E1"))
	tx.PullEvents()

	err = tx.ReleaseReservation()
	assert.True(t, apperrors.IsKind(err, apperrors.KindState), "completed is terminal")

	require.NoError(t, tx.MarkAsProcessing())
	require.NoError(t, tx.ReleaseReservation())
	assert.Equal(t, TransactionCompleted, tx.Status())

	events := tx.PullEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventReservationReleased, events[0].EventType())
	completed := events[1].(*InventoryTransactionCompletedEvent)
	assert.Equal(t, SourceReservationReleased, completed.Source)
	assert.Equal(t, SourceOrderReservation, tx.Source())
	assert.Equal(t, ReservationReleased, tx.Settlement())

	// a released reservation stays closed even after reprocessing
	require.NoError(t, tx.MarkAsProcessing())
	assert.True(t, apperrors.IsKind(tx.ReleaseReservation(), apperrors.KindState))
}

func TestReservationSettlement(t *testing.T) {
	reservation, err := NewReservation("ORD-1", "SKU-1", "WH1", 4)
	require.NoError(t, err)
	require.NoError(t, reservation.MarkAsReserved("E1"))
	assert.True(t, reservation.IsReservationOpen())

	require.NoError(t, reservation.MarkReservationConsumed())
	assert.False(t, reservation.IsReservationOpen())
	assert.True(t, apperrors.IsKind(reservation.MarkReservationConsumed(), apperrors.KindState))

	_, err = NewConsumption("ORD-1", reservation)
	assert.True(t, apperrors.IsKind(err, apperrors.KindState))

	restored := ReconstituteTransaction(reservation.State())
	assert.Equal(t, ReservationConsumed, restored.Settlement())
}

func TestReleaseReservation_RequiresExternalID(t *testing.T) {
	tx, err := NewReservation("ORD-1", "SKU-1", "WH1", 4)
	require.NoError(t, err)

	err = tx.ReleaseReservation()
	assert.True(t, apperrors.IsKind(err, apperrors.KindState))
	assert.Equal(t, TransactionPending, tx.Status())
}

func TestTransactionState_RoundTrip(t *testing.T) {
	tx, err := NewReservation("ORD-1", "SKU-1", "WH1", 4)
	require.NoError(t, err)
	require.NoError(t, tx.MarkAsReserved("E1"))

	state := tx.State()
	restored := ReconstituteTransaction(state)

	assert.Equal(t, state, restored.State())
	assert.Empty(t, restored.PullEvents())

	state.Lines[0].Quantity = 99
	assert.Equal(t, 4, tx.Lines()[0].Quantity, "state must not alias the aggregate")
}
