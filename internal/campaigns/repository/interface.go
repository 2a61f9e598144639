package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// CampaignReader provides read-only access to campaigns.
type CampaignReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Campaign, error)
	GetByCode(ctx context.Context, code string) (Campaign, error)
	GetByName(ctx context.Context, name string) (Campaign, error)
	List(ctx context.Context, params ListParams) ([]Campaign, int, error)
}

// CampaignWriter provides write operations for campaigns.
type CampaignWriter interface {
	Create(ctx context.Context, params CreateCampaignParams) (Campaign, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateCampaignParams) (Campaign, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Campaign, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// LedgerStore manages campaign lead ledger entries.
type LedgerStore interface {
	// EnrollLeads creates pending ledger entries for every lead attached
	// to the campaign that has no entry yet, and refreshes the campaign's
	// total counter. Returns the number of entries created.
	EnrollLeads(ctx context.Context, campaignID uuid.UUID, maxAttempts int) (int, error)

	// GetEntry returns the ledger entry for a (campaign, lead) pair.
	GetEntry(ctx context.Context, campaignID, leadID uuid.UUID) (LedgerEntry, error)

	// NextPending returns the next dispatchable entry for an agent in a
	// campaign, or ErrNotFound when the queue is exhausted. Ordering is
	// deterministic: next_attempt_at ascending with unset times first,
	// then enrollment time.
	NextPending(ctx context.Context, campaignID uuid.UUID, agentID *uuid.UUID, now time.Time) (LedgerEntry, error)

	// ApplyOutcome persists a computed ledger transition and bumps the
	// campaign's completed counter atomically when the transition
	// completes the entry.
	ApplyOutcome(ctx context.Context, params ApplyOutcomeParams) (LedgerEntry, error)

	// MarkInProgress flags a dispatched entry as being worked.
	MarkInProgress(ctx context.Context, entryID uuid.UUID) error
}

// CallLogWriter appends call log records.
type CallLogWriter interface {
	InsertCallLog(ctx context.Context, params InsertCallLogParams) (CallLog, error)
}

// CallLogReader reads back call history.
type CallLogReader interface {
	ListCallLogs(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]CallLog, int, error)
}

// StatsReader aggregates campaign progress.
type StatsReader interface {
	GetStats(ctx context.Context, campaignID uuid.UUID) (CampaignStats, error)
}

// Store combines all campaign repository capabilities.
type Store interface {
	CampaignReader
	CampaignWriter
	LedgerStore
	CallLogWriter
	CallLogReader
	StatsReader
}
