package cloudevents

import (
	"time"
)

// Inbound event types consumed from other WMS services
const (
	PutawayTaskCompleted = "wms.putaway.task-completed"
)

// Source constants for event sources
const (
	SourceOrchestrator = "/wms/fulfillment-orchestrator"
	SourcePutaway      = "/wms/putaway-service"
)

// CloudEvents extension attribute names
const (
	ExtCorrelationID = "wmscorrelationid"
	ExtTriggerSource = "wmstriggersource"
	ExtTriggeredBy   = "wmstriggeredby"
	ExtWarehouseID   = "wmswarehouseid"
	ExtAggregateType = "wmsaggregatetype"
)

// WMSCloudEvent represents a CloudEvents v1.0 compliant event for WMS
type WMSCloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	// WMS-specific extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	TriggerSource string `json:"wmstriggersource,omitempty"`
	TriggeredBy   string `json:"wmstriggeredby,omitempty"`
	WarehouseID   string `json:"wmswarehouseid,omitempty"`
	AggregateType string `json:"wmsaggregatetype,omitempty"`

	// W3C trace context
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// PutawayTaskCompletedData is the payload of a putaway completion published by
// the putaway service. It drives inbound inventory increases.
type PutawayTaskCompletedData struct {
	TaskID      string    `json:"taskId"`
	SKU         string    `json:"sku"`
	WarehouseID string    `json:"warehouseId"`
	Quantity    int       `json:"quantity"`
	Reason      string    `json:"reason,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}
