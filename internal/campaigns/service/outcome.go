package service

import (
	"context"
	"errors"
	"time"

	"crm_backend/internal/campaigns/domain"
	"crm_backend/internal/campaigns/repository"
	"crm_backend/internal/events"
	"crm_backend/platform/apperr"

	"github.com/google/uuid"
)

// RecordOutcomeInput carries a single call result reported by an agent.
type RecordOutcomeInput struct {
	CampaignID      uuid.UUID
	LeadID          uuid.UUID
	AgentID         *uuid.UUID
	Outcome         string
	Notes           *string
	DurationSeconds *int
}

// OutcomeRecord is what a recorded call produced: the appended log line,
// the ledger entry after the transition (nil for orphan calls), and the
// transition flags.
type OutcomeRecord struct {
	CallLog       repository.CallLog
	Entry         *repository.LedgerEntry
	LeadStatus    string
	Orphan        bool
	JustCompleted bool
	Exhausted     bool
}

// RecordOutcome runs the call ledger state machine for one reported call.
//
// The call log is always appended, even when the lead was never enrolled
// in the campaign's ledger; such orphan calls are flagged and never touch
// counters. For enrolled leads the ledger transition is computed in the
// domain layer and persisted atomically together with the campaign's
// completed counter, so replays of a terminal entry cannot double-count.
func (s *Service) RecordOutcome(ctx context.Context, input RecordOutcomeInput) (OutcomeRecord, error) {
	outcome := domain.NormalizeOutcome(input.Outcome)
	if !domain.IsValidOutcome(outcome) {
		return OutcomeRecord{}, apperr.Validation("invalid call outcome: " + input.Outcome)
	}
	if input.DurationSeconds != nil && *input.DurationSeconds < 0 {
		return OutcomeRecord{}, apperr.Validation("call duration cannot be negative")
	}

	if _, err := s.Get(ctx, input.CampaignID); err != nil {
		return OutcomeRecord{}, err
	}

	exists, err := s.leads.Exists(ctx, input.LeadID)
	if err != nil {
		return OutcomeRecord{}, apperr.Wrap(apperr.KindInternal, "failed to look up lead", err)
	}
	if !exists {
		return OutcomeRecord{}, apperr.NotFound("lead not found")
	}

	entry, err := s.repo.GetEntry(ctx, input.CampaignID, input.LeadID)
	if errors.Is(err, repository.ErrNotFound) {
		return s.recordOrphan(ctx, input, outcome)
	}
	if err != nil {
		return OutcomeRecord{}, apperr.Wrap(apperr.KindInternal, "failed to load ledger entry", err)
	}

	// The call log is appended before the ledger moves: even if the
	// ledger update fails, the call itself stays recorded.
	callLog, err := s.repo.InsertCallLog(ctx, repository.InsertCallLogParams{
		CampaignID:      input.CampaignID,
		LeadID:          input.LeadID,
		AgentID:         input.AgentID,
		Outcome:         outcome,
		Notes:           input.Notes,
		DurationSeconds: input.DurationSeconds,
	})
	if err != nil {
		return OutcomeRecord{}, apperr.Wrap(apperr.KindInternal, "failed to record call log", err)
	}

	now := time.Now().UTC()
	decision := domain.Apply(domain.LedgerEntry{
		Status:       entry.Status,
		AttemptsMade: entry.AttemptsMade,
		MaxAttempts:  entry.MaxAttempts,
	}, outcome, now, s.cfg.GetRetryDelay())

	updated, err := s.repo.ApplyOutcome(ctx, repository.ApplyOutcomeParams{
		EntryID:       entry.ID,
		CampaignID:    input.CampaignID,
		Status:        decision.Status,
		AttemptsMade:  decision.AttemptsMade,
		NextAttemptAt: decision.NextAttemptAt,
		LastOutcome:   outcome,
		LastAttemptAt: now,
		JustCompleted: decision.JustCompleted,
	})
	if err != nil {
		return OutcomeRecord{}, apperr.Wrap(apperr.KindInternal, "failed to apply call outcome", err)
	}

	leadStatus := domain.LeadStatusFor(outcome)
	if leadStatus != "" {
		if err := s.leads.SetStatus(ctx, input.LeadID, leadStatus); err != nil {
			s.log.Error("failed to update lead status after call",
				"leadId", input.LeadID, "status", leadStatus, "error", err)
		}
	}

	s.bus.Publish(ctx, events.CallRecorded{
		BaseEvent:    events.NewBaseEvent(),
		CampaignID:   input.CampaignID,
		LeadID:       input.LeadID,
		AgentID:      input.AgentID,
		Outcome:      outcome,
		LedgerStatus: updated.Status,
		Attempts:     updated.AttemptsMade,
	})
	s.log.CallLogged(input.CampaignID.String(), input.LeadID.String(), outcome, updated.Status, updated.AttemptsMade)

	return OutcomeRecord{
		CallLog:       callLog,
		Entry:         &updated,
		LeadStatus:    leadStatus,
		JustCompleted: decision.JustCompleted,
		Exhausted:     decision.Exhausted,
	}, nil
}

// recordOrphan appends a call log for a lead that has no ledger entry in
// the campaign. No ledger state or counters change.
func (s *Service) recordOrphan(ctx context.Context, input RecordOutcomeInput, outcome string) (OutcomeRecord, error) {
	callLog, err := s.repo.InsertCallLog(ctx, repository.InsertCallLogParams{
		CampaignID:      input.CampaignID,
		LeadID:          input.LeadID,
		AgentID:         input.AgentID,
		Outcome:         outcome,
		Notes:           input.Notes,
		DurationSeconds: input.DurationSeconds,
		Orphan:          true,
	})
	if err != nil {
		return OutcomeRecord{}, apperr.Wrap(apperr.KindInternal, "failed to record orphan call log", err)
	}

	s.bus.Publish(ctx, events.CallRecorded{
		BaseEvent:  events.NewBaseEvent(),
		CampaignID: input.CampaignID,
		LeadID:     input.LeadID,
		AgentID:    input.AgentID,
		Outcome:    outcome,
		Orphan:     true,
	})
	s.log.Warn("call recorded for lead without ledger entry",
		"campaignId", input.CampaignID, "leadId", input.LeadID, "outcome", outcome)

	return OutcomeRecord{CallLog: callLog, Orphan: true}, nil
}
