package transport

import "time"

type CreateCampaignRequest struct {
	Name            string  `json:"name" validate:"required,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=2000"`
	ClientID        *string `json:"clientId" validate:"omitempty,max=20"`
	AssignedAgentID *string `json:"assignedAgentId" validate:"omitempty,uuid"`
	Timezone        string  `json:"timezone" validate:"omitempty,max=64"`
	MaxAttempts     int     `json:"maxAttempts" validate:"omitempty,min=1,max=20"`
}

type UpdateCampaignRequest struct {
	Name            *string `json:"name" validate:"omitempty,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=2000"`
	ClientID        *string `json:"clientId" validate:"omitempty,max=20"`
	AssignedAgentID *string `json:"assignedAgentId" validate:"omitempty,uuid"`
	Timezone        *string `json:"timezone" validate:"omitempty,max=64"`
	MaxAttempts     *int    `json:"maxAttempts" validate:"omitempty,min=1,max=20"`
}

type RecordCallRequest struct {
	LeadID          string  `json:"leadId" validate:"required,uuid"`
	AgentID         *string `json:"agentId" validate:"omitempty,uuid"`
	Outcome         string  `json:"outcome" validate:"required,max=40"`
	Notes           *string `json:"notes" validate:"omitempty,max=2000"`
	DurationSeconds *int    `json:"durationSeconds" validate:"omitempty,min=0"`
}

type CampaignResponse struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	Status          string    `json:"status"`
	ClientID        *string   `json:"clientId,omitempty"`
	AssignedAgentID *string   `json:"assignedAgentId,omitempty"`
	Timezone        string    `json:"timezone"`
	MaxAttempts     int       `json:"maxAttempts"`
	TotalLeads      int       `json:"totalLeads"`
	CompletedLeads  int       `json:"completedLeads"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type CampaignListResponse struct {
	Items []CampaignResponse `json:"items"`
	Total int                `json:"total"`
}

type StartCampaignResponse struct {
	Campaign CampaignResponse `json:"campaign"`
	Enrolled int              `json:"enrolled"`
}

type LedgerEntryResponse struct {
	ID              string     `json:"id"`
	CampaignID      string     `json:"campaignId"`
	LeadID          string     `json:"leadId"`
	Status          string     `json:"status"`
	AttemptsMade    int        `json:"attemptsMade"`
	MaxAttempts     int        `json:"maxAttempts"`
	NextAttemptAt   *time.Time `json:"nextAttemptAt,omitempty"`
	LastCallOutcome *string    `json:"lastCallOutcome,omitempty"`
	LastAttemptAt   *time.Time `json:"lastAttemptAt,omitempty"`
}

type CallLogResponse struct {
	ID              string    `json:"id"`
	CampaignID      string    `json:"campaignId"`
	LeadID          string    `json:"leadId"`
	AgentID         *string   `json:"agentId,omitempty"`
	Outcome         string    `json:"outcome"`
	Notes           *string   `json:"notes,omitempty"`
	DurationSeconds *int      `json:"durationSeconds,omitempty"`
	Orphan          bool      `json:"orphan"`
	CreatedAt       time.Time `json:"createdAt"`
}

type CallLogListResponse struct {
	Items []CallLogResponse `json:"items"`
	Total int               `json:"total"`
}

type RecordCallResponse struct {
	CallLog       CallLogResponse      `json:"callLog"`
	Ledger        *LedgerEntryResponse `json:"ledger,omitempty"`
	LeadStatus    string               `json:"leadStatus,omitempty"`
	Orphan        bool                 `json:"orphan"`
	JustCompleted bool                 `json:"justCompleted"`
	Exhausted     bool                 `json:"exhausted"`
}

type CampaignStatsResponse struct {
	CampaignID     string         `json:"campaignId"`
	TotalLeads     int            `json:"totalLeads"`
	CompletedLeads int            `json:"completedLeads"`
	Pending        int            `json:"pending"`
	InProgress     int            `json:"inProgress"`
	Completed      int            `json:"completed"`
	Failed         int            `json:"failed"`
	TotalCalls     int            `json:"totalCalls"`
	CallsByOutcome map[string]int `json:"callsByOutcome"`
}
