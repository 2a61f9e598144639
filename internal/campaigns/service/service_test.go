package service

import (
	"context"
	"testing"
	"time"

	"crm_backend/internal/campaigns/domain"
	"crm_backend/internal/events"
	"crm_backend/platform/apperr"
	"crm_backend/platform/logger"

	"github.com/google/uuid"
)

func TestCreate_DefaultsAndValidation(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, newFakeLeads())

	campaign, err := svc.Create(context.Background(), CreateCampaignInput{Name: "  Fall push  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if campaign.Name != "Fall push" {
		t.Fatalf("expected trimmed name, got %q", campaign.Name)
	}
	if campaign.Status != domain.CampaignDraft {
		t.Fatalf("expected draft status, got %s", campaign.Status)
	}
	if campaign.MaxAttempts != 3 {
		t.Fatalf("expected configured default of 3 attempts, got %d", campaign.MaxAttempts)
	}
	if campaign.Timezone != "America/New_York" {
		t.Fatalf("expected default timezone, got %s", campaign.Timezone)
	}

	_, err = svc.Create(context.Background(), CreateCampaignInput{Name: ""})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}

	_, err = svc.Create(context.Background(), CreateCampaignInput{Name: "x", Timezone: "Mars/Olympus"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for bad timezone, got %v", err)
	}
}

func TestCreate_RejectsNonNorthAmericanTimezone(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, newFakeLeads())

	// A real IANA zone outside the supported calling windows.
	_, err := svc.Create(context.Background(), CreateCampaignInput{Name: "eu", Timezone: "Europe/Berlin"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unsupported timezone, got %v", err)
	}

	if _, err := svc.Create(context.Background(), CreateCampaignInput{Name: "ca", Timezone: "America/Vancouver"}); err != nil {
		t.Fatalf("supported Canadian zone rejected: %v", err)
	}
}

func TestCreate_AgentAllowListHoldsUserIDs(t *testing.T) {
	store := newFakeStore()
	log := logger.New("test")
	agentID := uuid.New()
	svc := New(store, newFakeLeads(), testCfg{
		maxAttempts: 3,
		retryDelay:  time.Hour,
		agentIDs:    []string{agentID.String()},
	}, events.NewInMemoryBus(log), log)

	if _, err := svc.Create(context.Background(), CreateCampaignInput{Name: "ok", AssignedAgentID: &agentID}); err != nil {
		t.Fatalf("allow-listed agent rejected: %v", err)
	}

	other := uuid.New()
	_, err := svc.Create(context.Background(), CreateCampaignInput{Name: "bad", AssignedAgentID: &other})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown agent, got %v", err)
	}

	// No configured list means any agent is accepted.
	open := newTestService(store, newFakeLeads())
	if _, err := open.Create(context.Background(), CreateCampaignInput{Name: "any", AssignedAgentID: &other}); err != nil {
		t.Fatalf("agent rejected with allow-list disabled: %v", err)
	}
}

func TestCreate_ClientAllowList(t *testing.T) {
	store := newFakeStore()
	log := logger.New("test")
	svc := New(store, newFakeLeads(), testCfg{
		maxAttempts: 3,
		retryDelay:  time.Hour,
		clientIDs:   []string{"ACME"},
	}, events.NewInMemoryBus(log), log)

	if _, err := svc.Create(context.Background(), CreateCampaignInput{Name: "ok", ClientID: strPtr("ACME")}); err != nil {
		t.Fatalf("allow-listed client rejected: %v", err)
	}

	_, err := svc.Create(context.Background(), CreateCampaignInput{Name: "bad", ClientID: strPtr("NOPE")})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown client, got %v", err)
	}
}

func TestStart_EnrollsAndActivates(t *testing.T) {
	store := newFakeStore()
	campaign := seedCampaign(store, 3)
	campaign.Status = domain.CampaignDraft
	store.campaigns[campaign.ID] = campaign
	seedEntry(store, campaign.ID, uuid.New(), 3)
	svc := newTestService(store, newFakeLeads())

	started, _, err := svc.Start(context.Background(), campaign.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if started.Status != domain.CampaignActive {
		t.Fatalf("expected active campaign, got %s", started.Status)
	}

	_, _, err = svc.Start(context.Background(), campaign.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict restarting an active campaign, got %v", err)
	}
}

func TestPause_OnlyActiveCampaigns(t *testing.T) {
	store := newFakeStore()
	campaign := seedCampaign(store, 3)
	svc := newTestService(store, newFakeLeads())

	paused, err := svc.Pause(context.Background(), campaign.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paused.Status != domain.CampaignPaused {
		t.Fatalf("expected paused status, got %s", paused.Status)
	}

	_, err = svc.Pause(context.Background(), campaign.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict pausing a paused campaign, got %v", err)
	}
}

func strPtr(s string) *string { return &s }
