package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wms-platform/fulfillment-orchestrator/internal/events"
	"github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
)

const SagaApplyAdjustment = "apply-adjustment"

// AdjustmentService reconciles internal stock against the external view and
// applies the resulting corrections
type AdjustmentService struct {
	adjustments  domain.AdjustmentRepository
	transactions domain.TransactionRepository
	port         domain.InventoryPort
	reference    domain.StockSource
	sink         events.Sink
	logger       *logging.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewAdjustmentService creates a new AdjustmentService. reference supplies the
// expected side of reconciliation.
func NewAdjustmentService(
	adjustments domain.AdjustmentRepository,
	transactions domain.TransactionRepository,
	port domain.InventoryPort,
	reference domain.StockSource,
	sink events.Sink,
	logger *logging.Logger,
	m *metrics.Metrics,
) *AdjustmentService {
	return &AdjustmentService{
		adjustments:  adjustments,
		transactions: transactions,
		port:         port,
		reference:    reference,
		sink:         sink,
		logger:       logger.WithComponent("adjustment-service"),
		metrics:      m,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// DetectDiscrepancy reads the internal snapshot from the inventory system and
// reconciles it. It returns the id of the new adjustment, or "" when nothing differs.
func (s *AdjustmentService) DetectDiscrepancy(ctx context.Context) (string, error) {
	rows, err := s.port.GetInventorySnapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch inventory snapshot: %w", err)
	}

	internal := make([]domain.StockSnapshot, 0, len(rows))
	for _, row := range rows {
		snapshot, err := row.ToStockSnapshot()
		if err != nil {
			s.logger.WithContext(ctx).Warn("Skipping invalid inventory row", "sku", row.SKU, "warehouseId", row.WarehouseID, "error", err)
			continue
		}
		internal = append(internal, snapshot)
	}
	return s.DetectDiscrepancyFromSnapshots(ctx, internal)
}

// DetectDiscrepancyFromSnapshots reconciles the given internal snapshot
// against the reference source
func (s *AdjustmentService) DetectDiscrepancyFromSnapshots(ctx context.Context, internal []domain.StockSnapshot) (string, error) {
	external, err := s.reference.GetInventorySnapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch reference inventory snapshot: %w", err)
	}

	adjustment, err := domain.DetectDiscrepancy(internal, external, s.now())
	if err != nil {
		return "", err
	}
	if err := s.persist(ctx, adjustment); err != nil {
		return "", err
	}

	log := s.logger.WithContext(ctx)
	if !adjustment.HasDiscrepancies() {
		log.Info("No discrepancies found", "internal", len(internal), "external", len(external))
		return "", nil
	}

	order, groups := adjustment.DiscrepanciesByWarehouse()
	for _, wh := range order {
		if s.metrics != nil {
			s.metrics.RecordDiscrepancies(wh, len(groups[wh]))
		}
	}
	log.Info("Detected inventory discrepancies",
		"adjustmentId", adjustment.ID(),
		"count", len(adjustment.Discrepancies()),
		"warehouses", len(order),
	)
	return adjustment.ID(), nil
}

// ApplyAdjustment books one ADJUSTMENT transaction per warehouse. The first
// failing warehouse fails both its transaction and the adjustment; later
// warehouses are not attempted and earlier ones are not rolled back.
func (s *AdjustmentService) ApplyAdjustment(ctx context.Context, adjustmentID string) error {
	start := time.Now()

	adjustment, err := s.adjustments.FindByID(ctx, adjustmentID)
	if err != nil {
		return err
	}
	// Nothing may reach the inventory system for a finished adjustment
	if err := adjustment.EnsureApplicable(); err != nil {
		return err
	}
	if !adjustment.HasDiscrepancies() {
		s.logger.WithContext(ctx).Info("No discrepancies to apply", "adjustmentId", adjustmentID)
		return nil
	}

	warehouses, groups := adjustment.DiscrepanciesByWarehouse()
	for _, wh := range warehouses {
		txID, err := s.applyWarehouse(ctx, adjustment, wh, groups[wh], start)
		if err == nil {
			err = adjustment.ApplyAdjustment(txID)
		}
		if err != nil {
			return s.failAdjustment(ctx, adjustment, start, err)
		}
	}

	if err := adjustment.Complete(); err != nil {
		return s.failAdjustment(ctx, adjustment, start, err)
	}
	if err := s.persist(ctx, adjustment); err != nil {
		return err
	}

	elapsed := time.Since(start)
	s.logger.Saga(ctx, SagaApplyAdjustment, adjustment.ID(), "success", elapsed)
	if s.metrics != nil {
		s.metrics.RecordSaga(SagaApplyAdjustment, "success", elapsed)
	}
	return nil
}

// GetAdjustment returns an adjustment by id
func (s *AdjustmentService) GetAdjustment(ctx context.Context, id string) (*domain.InventoryAdjustment, error) {
	return s.adjustments.FindByID(ctx, id)
}

func (s *AdjustmentService) applyWarehouse(
	ctx context.Context,
	adjustment *domain.InventoryAdjustment,
	warehouseID string,
	logs []domain.DiscrepancyLog,
	start time.Time,
) (string, error) {
	lines := make([]domain.TransactionLine, 0, len(logs))
	for _, d := range logs {
		line, err := domain.NewTransactionLine(d.SKU, d.Difference)
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
	}

	tx, err := domain.NewAdjustmentTransaction(adjustment.ID(), domain.SourceCycleCountAdjustment, warehouseID, lines)
	if err != nil {
		return "", err
	}
	if err := s.transactions.Save(ctx, tx); err != nil {
		return "", fmt.Errorf("failed to save transaction %s: %w", tx.ID(), err)
	}

	reason := "Inventory discrepancy adjustment: " + adjustment.ID()
	err = tx.MarkAsProcessing()
	if err == nil {
		err = s.transactions.Save(ctx, tx)
	}
	for _, line := range lines {
		if err != nil {
			break
		}
		err = s.port.AdjustInventory(ctx, line.SKU, warehouseID, line.Quantity, reason)
	}
	if err == nil {
		err = tx.Complete()
	}
	if err != nil {
		return "", failTransaction(ctx, s.transactions, s.sink, s.logger, s.metrics, SagaApplyAdjustment, tx, start, err)
	}

	if err := s.transactions.Save(ctx, tx); err != nil {
		return "", fmt.Errorf("failed to save transaction %s: %w", tx.ID(), err)
	}
	if err := events.Flush(ctx, s.sink, tx.PullEvents()); err != nil {
		return "", fmt.Errorf("failed to publish events of transaction %s: %w", tx.ID(), err)
	}
	if s.metrics != nil {
		s.metrics.RecordInventoryTransaction(string(tx.Type()), string(tx.Status()))
	}
	return tx.ID(), nil
}

func (s *AdjustmentService) failAdjustment(ctx context.Context, adjustment *domain.InventoryAdjustment, start time.Time, cause error) error {
	log := s.logger.WithContext(ctx).With("adjustmentId", adjustment.ID())

	if err := adjustment.Fail(cause.Error()); err != nil {
		log.Error("Failed to mark adjustment as failed", "error", err, "cause", cause.Error())
		return cause
	}
	if err := s.persist(ctx, adjustment); err != nil {
		log.Error("Failed to persist failed adjustment", "error", err)
	}

	elapsed := time.Since(start)
	s.logger.Saga(ctx, SagaApplyAdjustment, adjustment.ID(), "failed", elapsed)
	if s.metrics != nil {
		s.metrics.RecordSaga(SagaApplyAdjustment, "failed", elapsed)
	}
	return fmt.Errorf("failed to apply adjustment %s: %w", adjustment.ID(), cause)
}

func (s *AdjustmentService) persist(ctx context.Context, adjustment *domain.InventoryAdjustment) error {
	if err := s.adjustments.Save(ctx, adjustment); err != nil {
		return fmt.Errorf("failed to save adjustment %s: %w", adjustment.ID(), err)
	}
	if err := events.Flush(ctx, s.sink, adjustment.PullEvents()); err != nil {
		return fmt.Errorf("failed to publish events of adjustment %s: %w", adjustment.ID(), err)
	}
	return nil
}
