package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wms-platform/fulfillment-orchestrator/internal/inventory/application"
	"github.com/wms-platform/fulfillment-orchestrator/internal/inventory/domain"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/kafka"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
)

// InboundInventory is the part of the inventory service the consumer drives
type InboundInventory interface {
	IncreaseInventory(ctx context.Context, cmd application.IncreaseInventoryCommand) (string, error)
	ListTransactionsForReference(ctx context.Context, sourceReferenceID string) ([]*domain.InventoryTransaction, error)
}

// PayloadValidator checks an inbound event against its contract
type PayloadValidator interface {
	Validate(event *cloudevents.WMSCloudEvent) error
}

// Subscriber registers handlers on a Kafka consumer
type Subscriber interface {
	Subscribe(topic string, eventType string, handler kafka.EventHandler)
}

// PutawayConsumer books inbound stock when the putaway service reports a
// completed task
type PutawayConsumer struct {
	inventory InboundInventory
	validator PayloadValidator
	logger    *logging.Logger
}

// NewPutawayConsumer creates a PutawayConsumer. validator may be nil.
func NewPutawayConsumer(inventory InboundInventory, validator PayloadValidator, logger *logging.Logger) *PutawayConsumer {
	return &PutawayConsumer{
		inventory: inventory,
		validator: validator,
		logger:    logger.WithComponent("putaway-consumer"),
	}
}

// Register subscribes the consumer to the putaway topic
func (c *PutawayConsumer) Register(s Subscriber) {
	s.Subscribe(kafka.Topics.PutawayEvents, cloudevents.PutawayTaskCompleted, c.Handle)
}

// Handle processes one putaway completion. Invalid payloads are logged and
// dropped so the partition keeps moving; a task that already produced a
// completed inbound transaction is skipped.
func (c *PutawayConsumer) Handle(ctx context.Context, event *cloudevents.WMSCloudEvent) error {
	log := c.logger.WithContext(ctx).With("eventId", event.ID, "eventType", event.Type)

	if c.validator != nil {
		if err := c.validator.Validate(event); err != nil {
			log.Warn("Dropping putaway event that violates its contract", "error", err)
			return nil
		}
	}

	data, err := decodePutaway(event.Data)
	if err != nil {
		log.Warn("Dropping undecodable putaway event", "error", err)
		return nil
	}

	done, err := c.alreadyBooked(ctx, data.TaskID)
	if err != nil {
		return err
	}
	if done {
		log.Info("Putaway task already booked, skipping", "taskId", data.TaskID)
		return nil
	}

	txID, err := c.inventory.IncreaseInventory(ctx, application.IncreaseInventoryCommand{
		SKU:               data.SKU,
		WarehouseID:       data.WarehouseID,
		Quantity:          data.Quantity,
		SourceReferenceID: data.TaskID,
		Reason:            data.Reason,
	})
	if err != nil {
		return fmt.Errorf("increase inventory for putaway task %s: %w", data.TaskID, err)
	}

	log.Info("Booked putaway into inventory", "taskId", data.TaskID, "transactionId", txID, "sku", data.SKU, "quantity", data.Quantity)
	return nil
}

func (c *PutawayConsumer) alreadyBooked(ctx context.Context, taskID string) (bool, error) {
	txs, err := c.inventory.ListTransactionsForReference(ctx, taskID)
	if err != nil {
		return false, fmt.Errorf("load transactions for putaway task %s: %w", taskID, err)
	}
	for _, tx := range txs {
		if tx.Source() == domain.SourcePutawayTaskCompleted && tx.Status() == domain.TransactionCompleted {
			return true, nil
		}
	}
	return false, nil
}

func decodePutaway(raw any) (cloudevents.PutawayTaskCompletedData, error) {
	var data cloudevents.PutawayTaskCompletedData
	if typed, ok := raw.(cloudevents.PutawayTaskCompletedData); ok {
		return typed, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return data, err
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return data, err
	}
	if data.TaskID == "" || data.SKU == "" {
		return data, fmt.Errorf("putaway payload is missing taskId or sku")
	}
	return data, nil
}
