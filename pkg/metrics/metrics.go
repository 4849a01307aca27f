package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all orchestrator metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaEventsConsumed  *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// MongoDB metrics
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec

	// Saga metrics
	SagasCompleted *prometheus.CounterVec
	SagaDuration   *prometheus.HistogramVec

	// External system metrics
	ExternalCalls        *prometheus.CounterVec
	ExternalCallDuration *prometheus.HistogramVec

	// Observer and scheduler metrics
	ObserverPolls      *prometheus.CounterVec
	SchedulerRuns      *prometheus.CounterVec
	SchedulerLockSkips *prometheus.CounterVec

	// Outbox metrics
	OutboxPending   prometheus.Gauge
	OutboxPublished *prometheus.CounterVec

	// Business metrics
	OrdersCreated         *prometheus.CounterVec
	FulfillmentsInitiated *prometheus.CounterVec
	DiscrepanciesDetected *prometheus.CounterVec
	InventoryTransactions *prometheus.CounterVec
	PickingTasksSubmitted *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "wms",
	}
}

// New creates a new Metrics instance backed by its own registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()

	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	ns := config.Namespace

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total", Help: "Total number of HTTP requests"},
		[]string{"service", "method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)
	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.KafkaEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "kafka_events_published_total", Help: "Total number of Kafka events published"},
		[]string{"service", "topic", "event_type", "status"},
	)
	m.KafkaEventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "kafka_events_consumed_total", Help: "Total number of Kafka events consumed"},
		[]string{"service", "topic", "event_type", "status"},
	)
	m.KafkaPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "kafka_publish_duration_seconds",
			Help:      "Kafka publish duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "topic"},
	)

	m.MongoDBOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "mongodb_operations_total", Help: "Total number of MongoDB operations"},
		[]string{"service", "collection", "operation", "status"},
	)
	m.MongoDBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "mongodb_operation_duration_seconds",
			Help:      "MongoDB operation duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"service", "collection", "operation"},
	)

	m.SagasCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "sagas_completed_total", Help: "Total number of sagas run to an outcome"},
		[]string{"service", "saga", "outcome"},
	)
	m.SagaDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "saga_duration_seconds",
			Help:      "Saga duration in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service", "saga"},
	)

	m.ExternalCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "external_calls_total", Help: "Total number of calls to external systems"},
		[]string{"service", "system", "operation", "status"},
	)
	m.ExternalCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "external_call_duration_seconds",
			Help:      "External system call duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "system", "operation"},
	)

	m.ObserverPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "observer_polls_total", Help: "Total number of observer polls"},
		[]string{"service", "observer_type", "status"},
	)
	m.SchedulerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "scheduler_runs_total", Help: "Total number of scheduled job runs"},
		[]string{"service", "job", "status"},
	)
	m.SchedulerLockSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "scheduler_lock_skips_total", Help: "Scheduled runs skipped because the lock was held elsewhere"},
		[]string{"service", "job"},
	)

	m.OutboxPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "outbox_pending_events",
			Help:        "Number of unpublished outbox events seen by the last poll",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)
	m.OutboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "outbox_events_published_total", Help: "Total number of outbox events relayed"},
		[]string{"service", "status"},
	)

	m.OrdersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "orders_created_total", Help: "Total number of orders created"},
		[]string{"service", "fulfillment_mode"},
	)
	m.FulfillmentsInitiated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "fulfillments_initiated_total", Help: "Total number of order fulfillments initiated"},
		[]string{"service", "status"},
	)
	m.DiscrepanciesDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "inventory_discrepancies_detected_total", Help: "Total number of inventory discrepancies detected"},
		[]string{"service", "warehouse"},
	)
	m.InventoryTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "inventory_transactions_total", Help: "Total number of inventory transactions by final status"},
		[]string{"service", "type", "status"},
	)
	m.PickingTasksSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "picking_tasks_submitted_total", Help: "Total number of picking tasks submitted to WES"},
		[]string{"service", "status"},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: ns, Name: "circuit_breaker_state", Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)"},
		[]string{"service", "name"},
	)
	m.CircuitBreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "circuit_breaker_trips_total", Help: "Total number of circuit breaker trips"},
		[]string{"service", "name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.KafkaEventsPublished,
		m.KafkaEventsConsumed,
		m.KafkaPublishDuration,
		m.MongoDBOperations,
		m.MongoDBOperationDuration,
		m.SagasCompleted,
		m.SagaDuration,
		m.ExternalCalls,
		m.ExternalCallDuration,
		m.ObserverPolls,
		m.SchedulerRuns,
		m.SchedulerLockSkips,
		m.OutboxPending,
		m.OutboxPublished,
		m.OrdersCreated,
		m.FulfillmentsInitiated,
		m.DiscrepanciesDetected,
		m.InventoryTransactions,
		m.PickingTasksSubmitted,
		m.CircuitBreakerState,
		m.CircuitBreakerTrips,
	)

	return m
}

// Handler returns an HTTP handler for metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordKafkaPublish records a Kafka publish event
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, statusLabel(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// RecordKafkaConsume records a Kafka consume event
func (m *Metrics) RecordKafkaConsume(topic, eventType string, success bool) {
	m.KafkaEventsConsumed.WithLabelValues(m.serviceName, topic, eventType, statusLabel(success)).Inc()
}

// RecordMongoDBOperation records a MongoDB operation
func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	m.MongoDBOperations.WithLabelValues(m.serviceName, collection, operation, statusLabel(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(m.serviceName, collection, operation).Observe(duration.Seconds())
}

// RecordSaga records the outcome of a saga run
func (m *Metrics) RecordSaga(saga, outcome string, duration time.Duration) {
	m.SagasCompleted.WithLabelValues(m.serviceName, saga, outcome).Inc()
	m.SagaDuration.WithLabelValues(m.serviceName, saga).Observe(duration.Seconds())
}

// RecordExternalCall records a call to an external system
func (m *Metrics) RecordExternalCall(system, operation string, success bool, duration time.Duration) {
	m.ExternalCalls.WithLabelValues(m.serviceName, system, operation, statusLabel(success)).Inc()
	m.ExternalCallDuration.WithLabelValues(m.serviceName, system, operation).Observe(duration.Seconds())
}

// RecordObserverPoll records an observer poll
func (m *Metrics) RecordObserverPoll(observerType string, success bool) {
	m.ObserverPolls.WithLabelValues(m.serviceName, observerType, statusLabel(success)).Inc()
}

// RecordSchedulerRun records a scheduled job run
func (m *Metrics) RecordSchedulerRun(job string, success bool) {
	m.SchedulerRuns.WithLabelValues(m.serviceName, job, statusLabel(success)).Inc()
}

// RecordSchedulerLockSkip records a run skipped for lack of the lock
func (m *Metrics) RecordSchedulerLockSkip(job string) {
	m.SchedulerLockSkips.WithLabelValues(m.serviceName, job).Inc()
}

// SetOutboxPending sets the pending outbox gauge
func (m *Metrics) SetOutboxPending(count int) {
	m.OutboxPending.Set(float64(count))
}

// RecordOutboxPublish records an outbox relay attempt
func (m *Metrics) RecordOutboxPublish(success bool) {
	m.OutboxPublished.WithLabelValues(m.serviceName, statusLabel(success)).Inc()
}

// RecordOrderCreated records an order creation
func (m *Metrics) RecordOrderCreated(fulfillmentMode string) {
	m.OrdersCreated.WithLabelValues(m.serviceName, fulfillmentMode).Inc()
}

// RecordFulfillmentInitiated records a fulfillment initiation attempt
func (m *Metrics) RecordFulfillmentInitiated(success bool) {
	m.FulfillmentsInitiated.WithLabelValues(m.serviceName, statusLabel(success)).Inc()
}

// RecordDiscrepancies records discrepancies detected in a warehouse
func (m *Metrics) RecordDiscrepancies(warehouseID string, count int) {
	m.DiscrepanciesDetected.WithLabelValues(m.serviceName, warehouseID).Add(float64(count))
}

// RecordInventoryTransaction records an inventory transaction reaching a status
func (m *Metrics) RecordInventoryTransaction(txType, status string) {
	m.InventoryTransactions.WithLabelValues(m.serviceName, txType, status).Inc()
}

// RecordPickingTaskSubmitted records a picking task submission
func (m *Metrics) RecordPickingTaskSubmitted(success bool) {
	m.PickingTasksSubmitted.WithLabelValues(m.serviceName, statusLabel(success)).Inc()
}

// SetCircuitBreakerState sets the circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}
