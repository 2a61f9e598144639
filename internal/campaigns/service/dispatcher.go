package service

import (
	"context"
	"errors"
	"time"

	"crm_backend/internal/campaigns/domain"
	"crm_backend/internal/campaigns/repository"
	"crm_backend/platform/apperr"

	"github.com/google/uuid"
)

// NextLead returns the next lead an agent should call for a campaign.
//
// Entries are eligible when they are pending, have attempts left and
// their retry time (if any) has passed. When agentID is set, only
// entries assigned to that agent are considered.
// An exhausted queue yields (nil, nil) so callers can distinguish
// "nothing to do" from an error. With claim set, the returned entry is
// flagged in_progress so a second dispatcher skips it; an entry claimed
// but never logged becomes eligible again once its outcome is recorded.
func (s *Service) NextLead(ctx context.Context, campaignID uuid.UUID, agentID *uuid.UUID, claim bool) (*repository.LedgerEntry, error) {
	campaign, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != domain.CampaignActive {
		return nil, apperr.Conflict("campaign is not active")
	}

	entry, err := s.repo.NextPending(ctx, campaignID, agentID, time.Now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to fetch next pending lead", err)
	}

	if claim {
		if err := s.repo.MarkInProgress(ctx, entry.ID); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to claim ledger entry", err)
		}
		entry.Status = domain.LedgerInProgress
	}

	return &entry, nil
}
