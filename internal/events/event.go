// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"funnel_crm_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// LeadCreated is published when a new lead enters the funnel.
type LeadCreated struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	Name    string    `json:"name"`
	Company string    `json:"company"`
	Email   string    `json:"email,omitempty"`
	Stage   string    `json:"stage"`
	Status  string    `json:"status"`
	Source  string    `json:"source,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadMoved is published after a successful stage transition.
type LeadMoved struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	FromStage string    `json:"fromStage"`
	ToStage   string    `json:"toStage"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	MovedAt   time.Time `json:"movedAt"`
}

func (e LeadMoved) EventName() string { return "leads.lead.moved" }

// DealClosed is published when a BOFU deal reaches a terminal outcome.
type DealClosed struct {
	BaseEvent
	LeadID      uuid.UUID  `json:"leadId"`
	Outcome     string     `json:"outcome"`
	FinalValue  float64    `json:"finalValue"`
	CloseDate   time.Time  `json:"closeDate"`
	RenewalDate *time.Time `json:"renewalDate,omitempty"`
}

func (e DealClosed) EventName() string { return "leads.deal.closed" }

// LeadActionRecorded is published when an outreach action lands on a lead.
// The scoring worker listens to this to schedule a recompute.
type LeadActionRecorded struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	ActionType string    `json:"actionType"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recordedAt"`
}

func (e LeadActionRecorded) EventName() string { return "leads.action.recorded" }

// LeadScoreChanged is published after a score recompute persists a new
// snapshot. The hot list keeps itself current from these.
type LeadScoreChanged struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	Overall  int       `json:"overall"`
	Tier     string    `json:"tier"`
	Trend    string    `json:"trend"`
	Previous *int      `json:"previous,omitempty"`
}

func (e LeadScoreChanged) EventName() string { return "leads.score.changed" }
