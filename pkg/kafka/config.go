package kafka

import (
	"time"
)

// Config holds Kafka configuration
type Config struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string

	// Producer settings
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack

	// Consumer settings
	MinBytes      int
	MaxBytes      int
	MaxWait       time.Duration
	CommitTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:       []string{"localhost:9092"},
		ConsumerGroup: "fulfillment-orchestrator",
		ClientID:      "fulfillment-orchestrator",

		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1,

		MinBytes:      1,
		MaxBytes:      10e6, // 10MB
		MaxWait:       500 * time.Millisecond,
		CommitTimeout: 5 * time.Second,
	}
}

// Topics contains the Kafka topic names used by the orchestrator
var Topics = struct {
	OrdersEvents       string
	InventoryEvents    string
	PickingEvents      string
	ObservationEvents  string
	PutawayEvents      string
	OrchestratorEvents string
}{
	OrdersEvents:       "wms.orders.events",
	InventoryEvents:    "wms.inventory.events",
	PickingEvents:      "wms.picking.events",
	ObservationEvents:  "wms.observation.events",
	PutawayEvents:      "wms.putaway.events",
	OrchestratorEvents: "wms.orchestrator.events",
}
