package mongodb

import (
	"time"

	"github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
)

type transactionLineDocument struct {
	SKU      string `bson:"sku"`
	Quantity int    `bson:"quantity"`
}

type transactionDocument struct {
	TransactionID         string                    `bson:"transactionId"`
	Type                  string                    `bson:"type"`
	Status                string                    `bson:"status"`
	Source                string                    `bson:"source"`
	SourceReferenceID     string                    `bson:"sourceReferenceId"`
	WarehouseID           string                    `bson:"warehouseId"`
	Zone                  string                    `bson:"zone,omitempty"`
	Lines                 []transactionLineDocument `bson:"lines"`
	ExternalReservationID string                    `bson:"externalReservationId,omitempty"`
	RelatedTransactionID  string                    `bson:"relatedTransactionId,omitempty"`
	Settlement            string                    `bson:"settlement,omitempty"`
	FailureReason         string                    `bson:"failureReason,omitempty"`
	CreatedAt             time.Time                 `bson:"createdAt"`
	CompletedAt           *time.Time                `bson:"completedAt,omitempty"`
}

func toTransactionDocument(tx *domain.InventoryTransaction) transactionDocument {
	s := tx.State()
	lines := make([]transactionLineDocument, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, transactionLineDocument{SKU: l.SKU, Quantity: l.Quantity})
	}
	return transactionDocument{
		TransactionID:         s.ID,
		Type:                  string(s.Type),
		Status:                string(s.Status),
		Source:                string(s.Source),
		SourceReferenceID:     s.SourceReferenceID,
		WarehouseID:           s.Location.WarehouseID,
		Zone:                  s.Location.Zone,
		Lines:                 lines,
		ExternalReservationID: string(s.ExternalReservationID),
		RelatedTransactionID:  s.RelatedTransactionID,
		Settlement:            string(s.Settlement),
		FailureReason:         s.FailureReason,
		CreatedAt:             s.CreatedAt,
		CompletedAt:           s.CompletedAt,
	}
}

func (d transactionDocument) toDomain() *domain.InventoryTransaction {
	lines := make([]domain.TransactionLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, domain.TransactionLine{SKU: l.SKU, Quantity: l.Quantity})
	}
	return domain.ReconstituteTransaction(domain.TransactionState{
		ID:                    d.TransactionID,
		Type:                  domain.TransactionType(d.Type),
		Status:                domain.TransactionStatus(d.Status),
		Source:                domain.TransactionSource(d.Source),
		SourceReferenceID:     d.SourceReferenceID,
		Location:              domain.WarehouseLocation{WarehouseID: d.WarehouseID, Zone: d.Zone},
		Lines:                 lines,
		ExternalReservationID: domain.ExternalReservationID(d.ExternalReservationID),
		RelatedTransactionID:  d.RelatedTransactionID,
		Settlement:            domain.ReservationSettlement(d.Settlement),
		FailureReason:         d.FailureReason,
		CreatedAt:             d.CreatedAt,
		CompletedAt:           d.CompletedAt,
	})
}

type discrepancyDocument struct {
	SKU              string    `bson:"sku"`
	WarehouseID      string    `bson:"warehouseId"`
	ExpectedQuantity int       `bson:"expectedQuantity"`
	ActualQuantity   int       `bson:"actualQuantity"`
	Difference       int       `bson:"difference"`
	DetectedAt       time.Time `bson:"detectedAt"`
}

type adjustmentDocument struct {
	AdjustmentID          string                `bson:"adjustmentId"`
	Status                string                `bson:"status"`
	Discrepancies         []discrepancyDocument `bson:"discrepancies"`
	AppliedTransactionIDs []string              `bson:"appliedTransactionIds"`
	FailureReason         string                `bson:"failureReason,omitempty"`
	CreatedAt             time.Time             `bson:"createdAt"`
	ProcessedAt           *time.Time            `bson:"processedAt,omitempty"`
}

func toAdjustmentDocument(a *domain.InventoryAdjustment) adjustmentDocument {
	s := a.State()
	logs := make([]discrepancyDocument, 0, len(s.Discrepancies))
	for _, l := range s.Discrepancies {
		logs = append(logs, discrepancyDocument(l))
	}
	return adjustmentDocument{
		AdjustmentID:          s.ID,
		Status:                string(s.Status),
		Discrepancies:         logs,
		AppliedTransactionIDs: s.AppliedTransactionIDs,
		FailureReason:         s.FailureReason,
		CreatedAt:             s.CreatedAt,
		ProcessedAt:           s.ProcessedAt,
	}
}

func (d adjustmentDocument) toDomain() *domain.InventoryAdjustment {
	logs := make([]domain.DiscrepancyLog, 0, len(d.Discrepancies))
	for _, l := range d.Discrepancies {
		logs = append(logs, domain.DiscrepancyLog(l))
	}
	return domain.ReconstituteAdjustment(domain.AdjustmentState{
		ID:                    d.AdjustmentID,
		Status:                domain.AdjustmentStatus(d.Status),
		Discrepancies:         logs,
		AppliedTransactionIDs: d.AppliedTransactionIDs,
		FailureReason:         d.FailureReason,
		CreatedAt:             d.CreatedAt,
		ProcessedAt:           d.ProcessedAt,
	})
}
