package dto

import (
	"time"

	"github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
)

// IncreaseInventoryRequest books inbound stock
type IncreaseInventoryRequest struct {
	SKU               string `json:"sku" binding:"required,sku"`
	WarehouseID       string `json:"warehouseId"`
	Quantity          int    `json:"quantity" binding:"required,gt=0"`
	SourceReferenceID string `json:"sourceReferenceId" binding:"required,notblank"`
	Reason            string `json:"reason"`
}

// AdjustInventoryRequest applies a signed manual correction
type AdjustInventoryRequest struct {
	SKU               string `json:"sku" binding:"required,sku"`
	WarehouseID       string `json:"warehouseId"`
	QuantityChange    int    `json:"quantityChange" binding:"required,ne=0"`
	SourceReferenceID string `json:"sourceReferenceId" binding:"required,notblank"`
	Reason            string `json:"reason" binding:"required,notblank"`
}

// TransactionResponse represents an inventory transaction
type TransactionResponse struct {
	TransactionID         string                   `json:"transactionId"`
	Type                  string                   `json:"type"`
	Status                string                   `json:"status"`
	Source                string                   `json:"source"`
	SourceReferenceID     string                   `json:"sourceReferenceId"`
	WarehouseID           string                   `json:"warehouseId"`
	Lines                 []domain.TransactionLine `json:"lines"`
	ExternalReservationID string                   `json:"externalReservationId,omitempty"`
	RelatedTransactionID  string                   `json:"relatedTransactionId,omitempty"`
	Settlement            string                   `json:"settlement,omitempty"`
	FailureReason         string                   `json:"failureReason,omitempty"`
	CreatedAt             time.Time                `json:"createdAt"`
	CompletedAt           *time.Time               `json:"completedAt,omitempty"`
}

// ToTransactionResponse converts a domain InventoryTransaction
func ToTransactionResponse(tx *domain.InventoryTransaction) TransactionResponse {
	s := tx.State()
	return TransactionResponse{
		TransactionID:         s.ID,
		Type:                  string(s.Type),
		Status:                string(s.Status),
		Source:                string(s.Source),
		SourceReferenceID:     s.SourceReferenceID,
		WarehouseID:           s.Location.WarehouseID,
		Lines:                 s.Lines,
		ExternalReservationID: string(s.ExternalReservationID),
		RelatedTransactionID:  s.RelatedTransactionID,
		Settlement:            string(s.Settlement),
		FailureReason:         s.FailureReason,
		CreatedAt:             s.CreatedAt,
		CompletedAt:           s.CompletedAt,
	}
}

// ToTransactionResponses converts a list of transactions
func ToTransactionResponses(txs []*domain.InventoryTransaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, ToTransactionResponse(tx))
	}
	return out
}

// AdjustmentResponse represents an inventory adjustment
type AdjustmentResponse struct {
	AdjustmentID          string                  `json:"adjustmentId"`
	Status                string                  `json:"status"`
	Discrepancies         []domain.DiscrepancyLog `json:"discrepancies"`
	AppliedTransactionIDs []string                `json:"appliedTransactionIds,omitempty"`
	FailureReason         string                  `json:"failureReason,omitempty"`
	CreatedAt             time.Time               `json:"createdAt"`
	ProcessedAt           *time.Time              `json:"processedAt,omitempty"`
}

// ToAdjustmentResponse converts a domain InventoryAdjustment
func ToAdjustmentResponse(a *domain.InventoryAdjustment) AdjustmentResponse {
	s := a.State()
	return AdjustmentResponse{
		AdjustmentID:          s.ID,
		Status:                string(s.Status),
		Discrepancies:         s.Discrepancies,
		AppliedTransactionIDs: s.AppliedTransactionIDs,
		FailureReason:         s.FailureReason,
		CreatedAt:             s.CreatedAt,
		ProcessedAt:           s.ProcessedAt,
	}
}
