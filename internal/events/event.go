// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadcrm_backend/platform/events"
	"leadcrm_backend/platform/logger"

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

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *events.InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created (manually or by import).
type LeadCreated struct {
	BaseEvent
	LeadID          string     `json:"leadId"`
	Source          string     `json:"source"`
	ContactNumber   string     `json:"contactNumber"`
	PresalesAgentID *uuid.UUID `json:"presalesAgentId,omitempty"`
	ImportID        *uuid.UUID `json:"importId,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// ActivityRecorded is published for every accepted mutation on a lead.
type ActivityRecorded struct {
	BaseEvent
	LeadID    string    `json:"leadId"`
	Seq       int       `json:"seq"`
	ActorID   uuid.UUID `json:"actorId"`
	Status    string    `json:"status"`
	SubStatus string    `json:"subStatus,omitempty"`
}

func (e ActivityRecorded) EventName() string { return "leads.activity.recorded" }

// LeadAssigned is published when lead ownership changes hands.
type LeadAssigned struct {
	BaseEvent
	LeadID        string     `json:"leadId"`
	AgentRole     string     `json:"agentRole"` // "presales" or "sales"
	PreviousAgent *uuid.UUID `json:"previousAgent,omitempty"`
	NewAgent      *uuid.UUID `json:"newAgent,omitempty"`
}

func (e LeadAssigned) EventName() string { return "leads.assigned" }

// FollowUpDue is published by the scheduler worker when a CIF (call-in-future)
// follow-up reminder fires.
type FollowUpDue struct {
	BaseEvent
	LeadID  string    `json:"leadId"`
	AgentID uuid.UUID `json:"agentId"`
}

func (e FollowUpDue) EventName() string { return "leads.followup.due" }

// LeadImportCompleted is published when a bulk CSV import finishes
// (including cancelled runs; counts reflect whatever was processed).
type LeadImportCompleted struct {
	BaseEvent
	ImportID  uuid.UUID `json:"importId"`
	TotalRows int       `json:"totalRows"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
}

func (e LeadImportCompleted) EventName() string { return "leads.import.completed" }
