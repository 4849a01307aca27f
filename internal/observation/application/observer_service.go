package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/fulfillment-orchestrator/internal/events"
	"github.com/wms-platform/fulfillment-orchestrator/internal/observation/domain"
	wesdomain "github.com/wms-platform/fulfillment-orchestrator/internal/wes/domain"
	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
)

// PickingTaskFinder lists the local picking tasks the WES diff runs against
type PickingTaskFinder interface {
	FindAll(ctx context.Context) ([]*wesdomain.PickingTask, error)
}

// Repositories groups the observer repositories
type Repositories struct {
	Inventory domain.InventoryObserverRepository
	Order     domain.OrderObserverRepository
	Wes       domain.WesObserverRepository
}

// Sources groups the external systems the observers poll
type Sources struct {
	Inventory domain.InventorySource
	Orders    domain.OrderSourcePort
	Wes       domain.WesTaskSource
	Tasks     PickingTaskFinder
}

// ObserverSummary describes one observer for listings
type ObserverSummary struct {
	ID              string              `json:"observerId"`
	Kind            domain.ObserverKind `json:"observerType"`
	Active          bool                `json:"active"`
	PollingInterval time.Duration       `json:"pollingInterval"`
	LastPolledAt    *time.Time          `json:"lastPolledAt,omitempty"`
}

// ObserverService registers observers and runs their polls
type ObserverService struct {
	repos   Repositories
	sources Sources
	sink    events.Sink
	logger  *logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewObserverService creates a new ObserverService
func NewObserverService(
	repos Repositories,
	sources Sources,
	sink events.Sink,
	logger *logging.Logger,
	m *metrics.Metrics,
) *ObserverService {
	return &ObserverService{
		repos:   repos,
		sources: sources,
		sink:    sink,
		logger:  logger.WithComponent("observer-service"),
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateInventoryObserver registers an active inventory observer and returns its id
func (s *ObserverService) CreateInventoryObserver(ctx context.Context, cmd CreateInventoryObserverCommand) (string, error) {
	rule, err := domain.NewObservationRule(cmd.ThresholdPercent, cmd.CheckFrequency)
	if err != nil {
		return "", err
	}
	interval, err := domain.NewPollingInterval(cmd.PollingInterval)
	if err != nil {
		return "", err
	}
	o, err := domain.NewInventoryObserver(observerID(cmd.ObserverID), rule, interval)
	if err != nil {
		return "", err
	}
	if err := s.repos.Inventory.Save(ctx, o); err != nil {
		return "", fmt.Errorf("failed to save inventory observer: %w", err)
	}
	s.logCreated(ctx, domain.KindInventory, o.ID())
	return o.ID(), nil
}

// CreateOrderObserver registers an active order observer and returns its id
func (s *ObserverService) CreateOrderObserver(ctx context.Context, cmd CreateOrderObserverCommand) (string, error) {
	endpoint, err := domain.NewSourceEndpoint(cmd.DSN, cmd.Username, cmd.Password)
	if err != nil {
		return "", err
	}
	interval, err := domain.NewPollingInterval(cmd.PollingInterval)
	if err != nil {
		return "", err
	}
	o, err := domain.NewOrderObserver(observerID(cmd.ObserverID), endpoint, interval)
	if err != nil {
		return "", err
	}
	if err := s.repos.Order.Save(ctx, o); err != nil {
		return "", fmt.Errorf("failed to save order observer: %w", err)
	}
	s.logCreated(ctx, domain.KindOrder, o.ID())
	return o.ID(), nil
}

// CreateWesObserver registers an active WES observer and returns its id
func (s *ObserverService) CreateWesObserver(ctx context.Context, cmd CreateWesObserverCommand) (string, error) {
	endpoint, err := domain.NewTaskEndpoint(cmd.URL, cmd.AuthToken)
	if err != nil {
		return "", err
	}
	interval, err := domain.NewPollingInterval(cmd.PollingInterval)
	if err != nil {
		return "", err
	}
	o, err := domain.NewWesObserver(observerID(cmd.ObserverID), endpoint, interval)
	if err != nil {
		return "", err
	}
	if err := s.repos.Wes.Save(ctx, o); err != nil {
		return "", fmt.Errorf("failed to save WES observer: %w", err)
	}
	s.logCreated(ctx, domain.KindWes, o.ID())
	return o.ID(), nil
}

// PollObserver polls one observer if it is due
func (s *ObserverService) PollObserver(ctx context.Context, kind domain.ObserverKind, id string) error {
	switch kind {
	case domain.KindInventory:
		o, err := s.repos.Inventory.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return s.pollInventory(ctx, o)
	case domain.KindOrder:
		o, err := s.repos.Order.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return s.pollOrders(ctx, o)
	case domain.KindWes:
		o, err := s.repos.Wes.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return s.pollWes(ctx, o)
	default:
		return unknownKind(kind)
	}
}

// PollAllActive polls every active observer of kind. One observer failing
// does not stop the others; their errors are joined.
func (s *ObserverService) PollAllActive(ctx context.Context, kind domain.ObserverKind) error {
	var errs []error
	switch kind {
	case domain.KindInventory:
		observers, err := s.repos.Inventory.FindAllActive(ctx)
		if err != nil {
			return err
		}
		for _, o := range observers {
			errs = append(errs, s.pollInventory(ctx, o))
		}
	case domain.KindOrder:
		observers, err := s.repos.Order.FindAllActive(ctx)
		if err != nil {
			return err
		}
		for _, o := range observers {
			errs = append(errs, s.pollOrders(ctx, o))
		}
	case domain.KindWes:
		observers, err := s.repos.Wes.FindAllActive(ctx)
		if err != nil {
			return err
		}
		for _, o := range observers {
			errs = append(errs, s.pollWes(ctx, o))
		}
	default:
		return unknownKind(kind)
	}
	return errors.Join(errs...)
}

func (s *ObserverService) pollInventory(ctx context.Context, o *domain.InventoryObserver) error {
	now := s.now()
	if !o.ShouldPoll(now) {
		return nil
	}
	skipped, err := o.Poll(ctx, now, s.sources.Inventory)
	if err == nil && skipped > 0 {
		s.logger.WithContext(ctx).Warn("Skipped invalid inventory rows", "observerId", o.ID(), "skipped", skipped)
	}
	return s.finishPoll(ctx, domain.KindInventory, o.ID(), err, func() error {
		return s.repos.Inventory.Save(ctx, o)
	}, o.PullEvents)
}

func (s *ObserverService) pollOrders(ctx context.Context, o *domain.OrderObserver) error {
	now := s.now()
	if !o.ShouldPoll(now) {
		return nil
	}
	err := o.Poll(ctx, now, s.sources.Orders)
	return s.finishPoll(ctx, domain.KindOrder, o.ID(), err, func() error {
		return s.repos.Order.Save(ctx, o)
	}, o.PullEvents)
}

func (s *ObserverService) pollWes(ctx context.Context, o *domain.WesObserver) error {
	now := s.now()
	if !o.ShouldPoll(now) {
		return nil
	}
	known, err := s.sources.Tasks.FindAll(ctx)
	if err == nil {
		err = o.Poll(ctx, now, s.sources.Wes, known)
	}
	return s.finishPoll(ctx, domain.KindWes, o.ID(), err, func() error {
		return s.repos.Wes.Save(ctx, o)
	}, o.PullEvents)
}

// finishPoll persists the observer and publishes its events. The observer is
// saved even when the poll failed after fetching, so lastPolledAt advances.
func (s *ObserverService) finishPoll(
	ctx context.Context,
	kind domain.ObserverKind,
	id string,
	pollErr error,
	save func() error,
	pull func() []domain.ObserverEvent,
) error {
	log := s.logger.WithContext(ctx).With("observerId", id, "observerType", kind)

	if err := save(); err != nil {
		pollErr = errors.Join(pollErr, fmt.Errorf("failed to save observer %s: %w", id, err))
	}
	drained := pull()
	if pollErr == nil {
		if err := events.Flush(ctx, s.sink, drained); err != nil {
			pollErr = fmt.Errorf("failed to publish events of observer %s: %w", id, err)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordObserverPoll(string(kind), pollErr == nil)
	}
	if pollErr != nil {
		log.Error("Observer poll failed", "error", pollErr)
		return pollErr
	}
	log.Info("Observer polled", "events", len(drained))
	return nil
}

// Activate resumes polling for an observer
func (s *ObserverService) Activate(ctx context.Context, kind domain.ObserverKind, id string) error {
	return s.setActive(ctx, kind, id, true)
}

// Deactivate stops polling for an observer
func (s *ObserverService) Deactivate(ctx context.Context, kind domain.ObserverKind, id string) error {
	return s.setActive(ctx, kind, id, false)
}

func (s *ObserverService) setActive(ctx context.Context, kind domain.ObserverKind, id string, active bool) error {
	toggle := func(o interface{ Activate(); Deactivate() }) {
		if active {
			o.Activate()
		} else {
			o.Deactivate()
		}
	}

	switch kind {
	case domain.KindInventory:
		o, err := s.repos.Inventory.FindByID(ctx, id)
		if err != nil {
			return err
		}
		toggle(o)
		return s.repos.Inventory.Save(ctx, o)
	case domain.KindOrder:
		o, err := s.repos.Order.FindByID(ctx, id)
		if err != nil {
			return err
		}
		toggle(o)
		return s.repos.Order.Save(ctx, o)
	case domain.KindWes:
		o, err := s.repos.Wes.FindByID(ctx, id)
		if err != nil {
			return err
		}
		toggle(o)
		return s.repos.Wes.Save(ctx, o)
	default:
		return unknownKind(kind)
	}
}

// AcknowledgeOrder marks an observed order as processed in the source the
// observer reads from, so it is not fetched again
func (s *ObserverService) AcknowledgeOrder(ctx context.Context, observerID, orderID string) error {
	o, err := s.repos.Order.FindByID(ctx, observerID)
	if err != nil {
		return err
	}
	if err := s.sources.Orders.MarkOrderAsProcessed(ctx, o.Endpoint(), orderID); err != nil {
		return fmt.Errorf("failed to mark order %s as processed: %w", orderID, err)
	}
	return nil
}

// ListObservers summarises every observer of kind
func (s *ObserverService) ListObservers(ctx context.Context, kind domain.ObserverKind) ([]ObserverSummary, error) {
	var out []ObserverSummary
	switch kind {
	case domain.KindInventory:
		observers, err := s.repos.Inventory.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, o := range observers {
			out = append(out, summarise(kind, o.State().ScheduleState))
		}
	case domain.KindOrder:
		observers, err := s.repos.Order.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, o := range observers {
			out = append(out, summarise(kind, o.State().ScheduleState))
		}
	case domain.KindWes:
		observers, err := s.repos.Wes.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, o := range observers {
			out = append(out, summarise(kind, o.State().ScheduleState))
		}
	default:
		return nil, unknownKind(kind)
	}
	return out, nil
}

func summarise(kind domain.ObserverKind, st domain.ScheduleState) ObserverSummary {
	return ObserverSummary{
		ID:              st.ID,
		Kind:            kind,
		Active:          st.Active,
		PollingInterval: st.PollingInterval,
		LastPolledAt:    st.LastPolledAt,
	}
}

func (s *ObserverService) logCreated(ctx context.Context, kind domain.ObserverKind, id string) {
	s.logger.WithContext(ctx).Info("Observer created", "observerId", id, "observerType", kind)
}

func observerID(requested string) string {
	if id := strings.TrimSpace(requested); id != "" {
		return id
	}
	return "OBS-" + uuid.New().String()
}

func unknownKind(kind domain.ObserverKind) error {
	return apperrors.NewValidationError("observerType", "unknown observer type "+string(kind))
}
