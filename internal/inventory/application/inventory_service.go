package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wms-platform/fulfillment-orchestrator/internal/events"
	"github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
)

// Saga names used for logging and metrics
const (
	SagaReserve  = "reserve-inventory"
	SagaConsume  = "consume-reservation"
	SagaRelease  = "release-reservation"
	SagaIncrease = "increase-inventory"
	SagaAdjust   = "adjust-inventory"
)

// InventoryService runs the inventory sagas. Every call persists the
// transaction before talking to the inventory system and persists the
// outcome, success or failure, before returning.
type InventoryService struct {
	repo    domain.TransactionRepository
	port    domain.InventoryPort
	sink    events.Sink
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	repo domain.TransactionRepository,
	port domain.InventoryPort,
	sink events.Sink,
	logger *logging.Logger,
	m *metrics.Metrics,
) *InventoryService {
	return &InventoryService{
		repo:    repo,
		port:    port,
		sink:    sink,
		logger:  logger.WithComponent("inventory-service"),
		metrics: m,
	}
}

// ReserveInventory reserves stock in the inventory system and returns the
// local transaction id
func (s *InventoryService) ReserveInventory(ctx context.Context, cmd ReserveInventoryCommand) (string, error) {
	start := time.Now()

	tx, err := domain.NewReservation(cmd.OrderID, cmd.SKU, cmd.WarehouseID, cmd.Quantity)
	if err != nil {
		return "", err
	}
	if err := s.repo.Save(ctx, tx); err != nil {
		return "", fmt.Errorf("failed to save reservation: %w", err)
	}

	externalID, err := s.port.CreateReservation(ctx, cmd.SKU, cmd.WarehouseID, cmd.OrderID, cmd.Quantity)
	if err == nil {
		err = tx.MarkAsReserved(externalID)
	}
	if err != nil {
		return "", s.fail(ctx, SagaReserve, tx, start, err)
	}

	if err := s.persist(ctx, tx); err != nil {
		return "", err
	}
	s.finish(ctx, SagaReserve, tx, start)
	return tx.ID(), nil
}

// ConsumeReservation books the outbound movement for a completed reservation
// and returns the id of the new consumption transaction
func (s *InventoryService) ConsumeReservation(ctx context.Context, cmd ConsumeReservationCommand) (string, error) {
	start := time.Now()

	reservation, err := s.repo.FindByID(ctx, cmd.TransactionID)
	if err != nil {
		return "", err
	}
	consumption, err := domain.NewConsumption(cmd.SourceReferenceID, reservation)
	if err != nil {
		return "", err
	}

	err = s.runMovement(ctx, consumption, func() error {
		return s.port.ConsumeReservation(ctx, consumption.ExternalReservationID())
	})
	if err != nil {
		return "", s.fail(ctx, SagaConsume, consumption, start, err)
	}

	if err := reservation.MarkReservationConsumed(); err != nil {
		return "", err
	}
	if err := s.repo.Save(ctx, reservation); err != nil {
		return "", fmt.Errorf("failed to save reservation %s: %w", reservation.ID(), err)
	}
	s.finish(ctx, SagaConsume, consumption, start)
	return consumption.ID(), nil
}

// ReleaseReservation hands a reservation back to the inventory system
func (s *InventoryService) ReleaseReservation(ctx context.Context, transactionID string) error {
	start := time.Now()

	tx, err := s.repo.FindByID(ctx, transactionID)
	if err != nil {
		return err
	}
	if !tx.HasExternalReservation() {
		return apperrors.NewStateTransitionError(domain.AggregateTypeTransaction, "release reservation without external id of", string(tx.Status()))
	}
	if err := tx.EnsureReservationOpen("release"); err != nil {
		return err
	}

	if tx.Status() == domain.TransactionCompleted {
		if err := tx.MarkAsProcessing(); err != nil {
			return err
		}
		if err := s.repo.Save(ctx, tx); err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", tx.ID(), err)
		}
	}

	err = s.port.ReleaseReservation(ctx, tx.ExternalReservationID())
	if err == nil {
		err = tx.ReleaseReservation()
	}
	if err != nil {
		return s.fail(ctx, SagaRelease, tx, start, err)
	}

	if err := s.persist(ctx, tx); err != nil {
		return err
	}
	s.finish(ctx, SagaRelease, tx, start)
	return nil
}

// ConsumeReservationForOrder consumes every completed reservation of an order.
// A failure on one reservation does not stop the others.
func (s *InventoryService) ConsumeReservationForOrder(ctx context.Context, orderID string) ([]string, error) {
	reservations, err := s.activeReservations(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var ids []string
	var errs []error
	for _, r := range reservations {
		id, err := s.ConsumeReservation(ctx, ConsumeReservationCommand{TransactionID: r.ID(), SourceReferenceID: orderID})
		if err != nil {
			errs = append(errs, fmt.Errorf("consume %s: %w", r.ID(), err))
			continue
		}
		ids = append(ids, id)
	}
	return ids, errors.Join(errs...)
}

// ReleaseReservationForOrder releases every completed reservation of an order
func (s *InventoryService) ReleaseReservationForOrder(ctx context.Context, orderID string) error {
	reservations, err := s.activeReservations(ctx, orderID)
	if err != nil {
		return err
	}

	var errs []error
	for _, r := range reservations {
		if err := s.ReleaseReservation(ctx, r.ID()); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", r.ID(), err))
		}
	}
	return errors.Join(errs...)
}

// IncreaseInventory books inbound stock
func (s *InventoryService) IncreaseInventory(ctx context.Context, cmd IncreaseInventoryCommand) (string, error) {
	start := time.Now()

	line, err := domain.NewTransactionLine(cmd.SKU, cmd.Quantity)
	if err != nil {
		return "", err
	}
	tx, err := domain.NewInboundTransaction(cmd.SourceReferenceID, domain.SourcePutawayTaskCompleted, cmd.WarehouseID, []domain.TransactionLine{line})
	if err != nil {
		return "", err
	}

	reason := cmd.Reason
	if reason == "" {
		reason = "Putaway completed: " + cmd.SourceReferenceID
	}
	err = s.runMovement(ctx, tx, func() error {
		return s.port.IncreaseInventory(ctx, line.SKU, cmd.WarehouseID, cmd.Quantity, reason)
	})
	if err != nil {
		return "", s.fail(ctx, SagaIncrease, tx, start, err)
	}
	s.finish(ctx, SagaIncrease, tx, start)
	return tx.ID(), nil
}

// AdjustInventory applies a signed manual correction
func (s *InventoryService) AdjustInventory(ctx context.Context, cmd AdjustInventoryCommand) (string, error) {
	start := time.Now()

	line, err := domain.NewTransactionLine(cmd.SKU, cmd.QuantityChange)
	if err != nil {
		return "", err
	}
	tx, err := domain.NewAdjustmentTransaction(cmd.SourceReferenceID, domain.SourceManualAdjustment, cmd.WarehouseID, []domain.TransactionLine{line})
	if err != nil {
		return "", err
	}

	reason := cmd.Reason
	if reason == "" {
		reason = "Manual adjustment: " + cmd.SourceReferenceID
	}
	err = s.runMovement(ctx, tx, func() error {
		return s.port.AdjustInventory(ctx, line.SKU, cmd.WarehouseID, cmd.QuantityChange, reason)
	})
	if err != nil {
		return "", s.fail(ctx, SagaAdjust, tx, start, err)
	}
	s.finish(ctx, SagaAdjust, tx, start)
	return tx.ID(), nil
}

// GetTransaction returns a transaction by id
func (s *InventoryService) GetTransaction(ctx context.Context, id string) (*domain.InventoryTransaction, error) {
	return s.repo.FindByID(ctx, id)
}

// ListTransactionsForReference returns every transaction created for a source reference
func (s *InventoryService) ListTransactionsForReference(ctx context.Context, sourceReferenceID string) ([]*domain.InventoryTransaction, error) {
	return s.repo.FindBySourceReferenceID(ctx, sourceReferenceID)
}

func (s *InventoryService) activeReservations(ctx context.Context, orderID string) ([]*domain.InventoryTransaction, error) {
	txs, err := s.repo.FindBySourceReferenceID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for order %s: %w", orderID, err)
	}

	var reservations []*domain.InventoryTransaction
	for _, tx := range txs {
		if tx.Source() == domain.SourceOrderReservation &&
			tx.Status() == domain.TransactionCompleted &&
			tx.HasExternalReservation() &&
			tx.IsReservationOpen() {
			reservations = append(reservations, tx)
		}
	}
	if len(reservations) == 0 {
		return nil, apperrors.NewNotFoundError("active reservation for order", orderID)
	}
	return reservations, nil
}

// runMovement drives a freshly built transaction through
// save, PROCESSING, save, call, COMPLETED, save and flush
func (s *InventoryService) runMovement(ctx context.Context, tx *domain.InventoryTransaction, call func() error) error {
	if err := s.repo.Save(ctx, tx); err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", tx.ID(), err)
	}
	if err := tx.MarkAsProcessing(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, tx); err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", tx.ID(), err)
	}
	if err := call(); err != nil {
		return err
	}
	if err := tx.Complete(); err != nil {
		return err
	}
	return s.persist(ctx, tx)
}

func (s *InventoryService) persist(ctx context.Context, tx *domain.InventoryTransaction) error {
	if err := s.repo.Save(ctx, tx); err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", tx.ID(), err)
	}
	if err := events.Flush(ctx, s.sink, tx.PullEvents()); err != nil {
		return fmt.Errorf("failed to publish events of transaction %s: %w", tx.ID(), err)
	}
	return nil
}

// fail records cause on the transaction and returns it unchanged
func (s *InventoryService) fail(ctx context.Context, saga string, tx *domain.InventoryTransaction, start time.Time, cause error) error {
	return failTransaction(ctx, s.repo, s.sink, s.logger, s.metrics, saga, tx, start, cause)
}

func (s *InventoryService) finish(ctx context.Context, saga string, tx *domain.InventoryTransaction, start time.Time) {
	elapsed := time.Since(start)
	s.logger.Saga(ctx, saga, tx.ID(), "success", elapsed)
	if s.metrics != nil {
		s.metrics.RecordSaga(saga, "success", elapsed)
		s.metrics.RecordInventoryTransaction(string(tx.Type()), string(tx.Status()))
	}
}

func failTransaction(
	ctx context.Context,
	repo domain.TransactionRepository,
	sink events.Sink,
	logger *logging.Logger,
	m *metrics.Metrics,
	saga string,
	tx *domain.InventoryTransaction,
	start time.Time,
	cause error,
) error {
	log := logger.WithContext(ctx).With("transactionId", tx.ID(), "saga", saga)

	if err := tx.Fail(cause.Error()); err != nil {
		log.Error("Failed to mark transaction as failed", "error", err, "cause", cause.Error())
		return cause
	}
	if err := repo.Save(ctx, tx); err != nil {
		log.Error("Failed to save failed transaction", "error", err)
	}
	if err := events.Flush(ctx, sink, tx.PullEvents()); err != nil {
		log.Error("Failed to publish events of failed transaction", "error", err)
	}

	elapsed := time.Since(start)
	logger.Saga(ctx, saga, tx.ID(), "failed", elapsed)
	if m != nil {
		m.RecordSaga(saga, "failed", elapsed)
		m.RecordInventoryTransaction(string(tx.Type()), string(tx.Status()))
	}
	return cause
}
