package transport

import "time"

type CreateLeadRequest struct {
	LeadType        string  `json:"leadType" validate:"required,oneof=individual organization business"`
	FirstName       *string `json:"firstName" validate:"omitempty,max=120"`
	LastName        *string `json:"lastName" validate:"omitempty,max=120"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Phone           *string `json:"phone" validate:"omitempty,phone"`
	BusinessName    *string `json:"businessName" validate:"omitempty,max=200"`
	BusinessPhone   *string `json:"businessPhone" validate:"omitempty,phone"`
	BusinessAddress *string `json:"businessAddress" validate:"omitempty,max=300"`
	Status          string  `json:"status" validate:"omitempty,max=40"`
	Source          *string `json:"source" validate:"omitempty,max=80"`
	ClientID        *string `json:"clientId" validate:"omitempty,max=20"`
	AssignedAgentID *string `json:"assignedAgentId" validate:"omitempty,uuid"`
	CampaignID      *string `json:"campaignId" validate:"omitempty,uuid"`
	Notes           *string `json:"notes" validate:"omitempty,max=2000"`
}

type UpdateLeadRequest struct {
	FirstName       *string `json:"firstName" validate:"omitempty,max=120"`
	LastName        *string `json:"lastName" validate:"omitempty,max=120"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Phone           *string `json:"phone" validate:"omitempty,phone"`
	BusinessName    *string `json:"businessName" validate:"omitempty,max=200"`
	BusinessPhone   *string `json:"businessPhone" validate:"omitempty,phone"`
	BusinessAddress *string `json:"businessAddress" validate:"omitempty,max=300"`
	Source          *string `json:"source" validate:"omitempty,max=80"`
	ClientID        *string `json:"clientId" validate:"omitempty,max=20"`
	AssignedAgentID *string `json:"assignedAgentId" validate:"omitempty,uuid"`
	Notes           *string `json:"notes" validate:"omitempty,max=2000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,max=40"`
}

type AssignCampaignRequest struct {
	CampaignID *string `json:"campaignId" validate:"omitempty,uuid"`
}

type LeadResponse struct {
	ID              string    `json:"id"`
	LeadType        string    `json:"leadType"`
	FirstName       *string   `json:"firstName,omitempty"`
	LastName        *string   `json:"lastName,omitempty"`
	Email           *string   `json:"email,omitempty"`
	Phone           *string   `json:"phone,omitempty"`
	BusinessName    *string   `json:"businessName,omitempty"`
	BusinessPhone   *string   `json:"businessPhone,omitempty"`
	BusinessAddress *string   `json:"businessAddress,omitempty"`
	Status          string    `json:"status"`
	Source          *string   `json:"source,omitempty"`
	ClientID        *string   `json:"clientId,omitempty"`
	AssignedAgentID *string   `json:"assignedAgentId,omitempty"`
	CampaignID      *string   `json:"campaignId,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedBy       *string   `json:"createdBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
}

type CampaignHistoryResponse struct {
	FromCampaignID *string   `json:"fromCampaignId"`
	ToCampaignID   *string   `json:"toCampaignId"`
	ChangedBy      *string   `json:"changedBy"`
	ChangedAt      time.Time `json:"changedAt"`
}
