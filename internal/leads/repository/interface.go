package repository

import (
	"context"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
}

// LeadWriter provides write operations for lead management.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DuplicateChecker finds existing leads by contact details.
type DuplicateChecker interface {
	FindByEmailOrPhone(ctx context.Context, email, phone *string) (*Lead, error)
}

// CampaignAssigner moves leads between campaigns and keeps a history trail.
type CampaignAssigner interface {
	AssignCampaign(ctx context.Context, leadID uuid.UUID, campaignID, changedBy *uuid.UUID) (Lead, error)
	GetCampaignHistory(ctx context.Context, leadID uuid.UUID) ([]CampaignHistoryEntry, error)
}

// Store combines all repository capabilities. Services depend on the
// narrow interfaces; the concrete Repository satisfies all of them.
type Store interface {
	LeadReader
	LeadWriter
	DuplicateChecker
	CampaignAssigner
}
