package service

import (
	"context"
	"testing"
	"time"

	"crm_backend/internal/campaigns/domain"
	"crm_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestNextLead_OrdersByRetryTimeWithUnsetFirst(t *testing.T) {
	store := newFakeStore()
	campaign := seedCampaign(store, 3)
	svc := newTestService(store, newFakeLeads())

	soon := time.Now().Add(-time.Minute)
	later := time.Now().Add(-time.Second)

	scheduled := seedEntry(store, campaign.ID, uuid.New(), 3)
	scheduled.NextAttemptAt = &later
	store.entries[scheduled.ID] = scheduled

	earlier := seedEntry(store, campaign.ID, uuid.New(), 3)
	earlier.NextAttemptAt = &soon
	store.entries[earlier.ID] = earlier

	fresh := seedEntry(store, campaign.ID, uuid.New(), 3)

	entry, err := svc.NextLead(context.Background(), campaign.ID, nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry == nil {
		t.Fatal("expected an entry")
	}
	if entry.ID != fresh.ID {
		t.Fatalf("expected never-attempted entry first, got %s", entry.ID)
	}
}

func TestNextLead_SkipsThrottledAndExhaustedEntries(t *testing.T) {
	store := newFakeStore()
	campaign := seedCampaign(store, 3)
	svc := newTestService(store, newFakeLeads())

	future := time.Now().Add(time.Hour)
	throttled := seedEntry(store, campaign.ID, uuid.New(), 3)
	throttled.NextAttemptAt = &future
	throttled.AttemptsMade = 1
	store.entries[throttled.ID] = throttled

	exhausted := seedEntry(store, campaign.ID, uuid.New(), 3)
	exhausted.AttemptsMade = 3
	store.entries[exhausted.ID] = exhausted

	entry, err := svc.NextLead(context.Background(), campaign.ID, nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected an empty queue, got entry %s", entry.ID)
	}
}

func TestNextLead_EmptyQueueYieldsNilWithoutError(t *testing.T) {
	store := newFakeStore()
	campaign := seedCampaign(store, 3)
	svc := newTestService(store, newFakeLeads())

	entry, err := svc.NextLead(context.Background(), campaign.ID, nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil entry, got %+v", entry)
	}
}

func TestNextLead_RequiresActiveCampaign(t *testing.T) {
	store := newFakeStore()
	campaign := seedCampaign(store, 3)
	campaign.Status = domain.CampaignDraft
	store.campaigns[campaign.ID] = campaign
	svc := newTestService(store, newFakeLeads())

	_, err := svc.NextLead(context.Background(), campaign.ID, nil, false)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for draft campaign, got %v", err)
	}
}

func TestNextLead_ClaimMarksEntryInProgress(t *testing.T) {
	store := newFakeStore()
	campaign := seedCampaign(store, 3)
	seeded := seedEntry(store, campaign.ID, uuid.New(), 3)
	svc := newTestService(store, newFakeLeads())

	entry, err := svc.NextLead(context.Background(), campaign.ID, nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Status != domain.LedgerInProgress {
		t.Fatalf("expected claimed entry to be in_progress, got %s", entry.Status)
	}
	if store.entries[seeded.ID].Status != domain.LedgerInProgress {
		t.Fatal("claim was not persisted")
	}

	// A second dispatcher must not receive the claimed entry.
	next, err := svc.NextLead(context.Background(), campaign.ID, nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Fatalf("claimed entry was dispatched twice: %s", next.ID)
	}
}
