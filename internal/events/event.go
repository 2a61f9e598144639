// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"crm_backend/platform/events"

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

// =============================================================================
// Auth Domain Events
// =============================================================================

// UserSignedUp is published when a new user successfully registers.
type UserSignedUp struct {
	BaseEvent
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
}

func (e UserSignedUp) EventName() string { return "auth.user.signed_up" }

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created, directly or via import.
type LeadCreated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	LeadType string    `json:"leadType"`
	Source   string    `json:"source"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadCampaignChanged is published when a lead is moved to another campaign.
type LeadCampaignChanged struct {
	BaseEvent
	LeadID         uuid.UUID  `json:"leadId"`
	FromCampaignID *uuid.UUID `json:"fromCampaignId,omitempty"`
	ToCampaignID   *uuid.UUID `json:"toCampaignId,omitempty"`
}

func (e LeadCampaignChanged) EventName() string { return "leads.lead.campaign_changed" }

// =============================================================================
// Campaign Domain Events
// =============================================================================

// CampaignStarted is published when a campaign transitions to active calling.
type CampaignStarted struct {
	BaseEvent
	CampaignID uuid.UUID `json:"campaignId"`
	LeadCount  int       `json:"leadCount"`
}

func (e CampaignStarted) EventName() string { return "campaigns.campaign.started" }

// CallRecorded is published after a call outcome has been persisted.
type CallRecorded struct {
	BaseEvent
	CampaignID   uuid.UUID  `json:"campaignId"`
	LeadID       uuid.UUID  `json:"leadId"`
	AgentID      *uuid.UUID `json:"agentId,omitempty"`
	Outcome      string     `json:"outcome"`
	LedgerStatus string     `json:"ledgerStatus"`
	Attempts     int        `json:"attempts"`
	Orphan       bool       `json:"orphan"`
}

func (e CallRecorded) EventName() string { return "campaigns.call.recorded" }

// ImportCompleted is published after a CSV import run has finished.
type ImportCompleted struct {
	BaseEvent
	Kind       string        `json:"kind"`
	Filename   string        `json:"filename"`
	CampaignID *uuid.UUID    `json:"campaignId,omitempty"`
	Created    int           `json:"created"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
}

func (e ImportCompleted) EventName() string { return "imports.run.completed" }
