package domain

import (
	"strings"
	"time"

	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
)

// ObserverKind names the external system an observer polls
type ObserverKind string

const (
	KindInventory ObserverKind = "INVENTORY"
	KindOrder     ObserverKind = "ORDER"
	KindWes       ObserverKind = "WES"
)

func (k ObserverKind) IsValid() bool {
	return k == KindInventory || k == KindOrder || k == KindWes
}

// AggregateType is the aggregate name used on events and in the outbox
func (k ObserverKind) AggregateType() string {
	switch k {
	case KindInventory:
		return "InventoryObserver"
	case KindOrder:
		return "OrderObserver"
	case KindWes:
		return "WesObserver"
	default:
		return "Observer"
	}
}

// schedule is the polling state every observer shares
type schedule struct {
	id           string
	kind         ObserverKind
	interval     PollingInterval
	lastPolledAt *time.Time
	active       bool
	events       []ObserverEvent
}

func newSchedule(id string, kind ObserverKind, interval PollingInterval) (schedule, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return schedule{}, apperrors.NewValidationError("observerId", "cannot be blank")
	}
	if interval.Duration() == 0 {
		return schedule{}, apperrors.NewValidationError("pollingInterval", "is required")
	}
	return schedule{id: id, kind: kind, interval: interval, active: true}, nil
}

// ShouldPoll reports whether the observer is active and its interval has
// elapsed. A never-polled observer is always due.
func (s *schedule) ShouldPoll(now time.Time) bool {
	if !s.active {
		return false
	}
	if s.lastPolledAt == nil {
		return true
	}
	return now.After(s.lastPolledAt.Add(s.interval.Duration()))
}

func (s *schedule) Activate()   { s.active = true }
func (s *schedule) Deactivate() { s.active = false }

func (s *schedule) ID() string                       { return s.id }
func (s *schedule) Kind() ObserverKind               { return s.kind }
func (s *schedule) PollingInterval() PollingInterval { return s.interval }
func (s *schedule) IsActive() bool                   { return s.active }

// LastPolledAt returns the time of the last successful fetch, if any
func (s *schedule) LastPolledAt() (time.Time, bool) {
	if s.lastPolledAt == nil {
		return time.Time{}, false
	}
	return *s.lastPolledAt, true
}

// PullEvents returns the buffered events in emission order and clears the buffer
func (s *schedule) PullEvents() []ObserverEvent {
	events := s.events
	s.events = nil
	return events
}

func (s *schedule) markPolled(now time.Time) {
	at := now.UTC()
	s.lastPolledAt = &at
}

func (s *schedule) raise(event ObserverEvent) {
	s.events = append(s.events, event)
}

func (s *schedule) eventBase(at time.Time) ObserverEventBase {
	return ObserverEventBase{ObserverID: s.id, Kind: s.kind, Timestamp: at.UTC()}
}

// ScheduleState is the polling state shared by every observer's stored form
type ScheduleState struct {
	ID              string
	PollingInterval time.Duration
	LastPolledAt    *time.Time
	Active          bool
}

func (s *schedule) state() ScheduleState {
	st := ScheduleState{ID: s.id, PollingInterval: s.interval.Duration(), Active: s.active}
	if s.lastPolledAt != nil {
		at := *s.lastPolledAt
		st.LastPolledAt = &at
	}
	return st
}

func reconstituteSchedule(kind ObserverKind, st ScheduleState) schedule {
	s := schedule{id: st.ID, kind: kind, interval: PollingInterval{d: st.PollingInterval}, active: st.Active}
	if st.LastPolledAt != nil {
		at := *st.LastPolledAt
		s.lastPolledAt = &at
	}
	return s
}
