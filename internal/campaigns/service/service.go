package service

import (
	"context"
	"errors"
	"strings"

	"crm_backend/internal/campaigns/domain"
	"crm_backend/internal/campaigns/repository"
	"crm_backend/internal/events"
	"crm_backend/platform/apperr"
	"crm_backend/platform/config"
	"crm_backend/platform/logger"

	"github.com/google/uuid"
)

// LeadGateway is the campaigns module's view of the leads module. It is
// satisfied by an adapter so the two bounded contexts stay decoupled.
type LeadGateway interface {
	// Exists reports whether a lead with the given ID exists.
	Exists(ctx context.Context, leadID uuid.UUID) (bool, error)
	// SetStatus updates a lead's status using the canonical vocabulary.
	SetStatus(ctx context.Context, leadID uuid.UUID, status string) error
}

type Service struct {
	repo  repository.Store
	leads LeadGateway
	cfg   config.CampaignConfig
	bus   events.Bus
	log   *logger.Logger
}

func New(repo repository.Store, leads LeadGateway, cfg config.CampaignConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, leads: leads, cfg: cfg, bus: bus, log: log}
}

// CreateCampaignInput carries the fields accepted when creating a campaign.
type CreateCampaignInput struct {
	Name            string
	Description     *string
	ClientID        *string
	AssignedAgentID *uuid.UUID
	Timezone        string
	MaxAttempts     int
}

func (s *Service) Create(ctx context.Context, input CreateCampaignInput) (repository.Campaign, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return repository.Campaign{}, apperr.Validation("campaign name is required")
	}

	timezone := strings.TrimSpace(input.Timezone)
	if timezone == "" {
		timezone = domain.DefaultTimezone
	}
	if !domain.IsValidTimezone(timezone) {
		return repository.Campaign{}, apperr.Validation("unsupported timezone: " + timezone)
	}

	if err := s.validateClientID(input.ClientID); err != nil {
		return repository.Campaign{}, err
	}
	if err := s.validateAgentID(input.AssignedAgentID); err != nil {
		return repository.Campaign{}, err
	}

	maxAttempts := input.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = s.cfg.GetMaxCampaignAttempts()
	}

	campaign, err := s.repo.Create(ctx, repository.CreateCampaignParams{
		Name:            name,
		Description:     input.Description,
		Status:          domain.CampaignDraft,
		ClientID:        input.ClientID,
		AssignedAgentID: input.AssignedAgentID,
		Timezone:        timezone,
		MaxAttempts:     maxAttempts,
	})
	if err != nil {
		return repository.Campaign{}, apperr.Wrap(apperr.KindInternal, "failed to create campaign", err)
	}

	return campaign, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Campaign, error) {
	campaign, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Campaign{}, apperr.NotFound("campaign not found")
	}
	if err != nil {
		return repository.Campaign{}, apperr.Wrap(apperr.KindInternal, "failed to load campaign", err)
	}
	return campaign, nil
}

func (s *Service) List(ctx context.Context, params repository.ListParams) ([]repository.Campaign, int, error) {
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	campaigns, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to list campaigns", err)
	}
	return campaigns, total, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params repository.UpdateCampaignParams) (repository.Campaign, error) {
	if params.Timezone != nil {
		if !domain.IsValidTimezone(*params.Timezone) {
			return repository.Campaign{}, apperr.Validation("unsupported timezone: " + *params.Timezone)
		}
	}
	if err := s.validateClientID(params.ClientID); err != nil {
		return repository.Campaign{}, err
	}
	if err := s.validateAgentID(params.AssignedAgentID); err != nil {
		return repository.Campaign{}, err
	}
	if params.MaxAttempts != nil && *params.MaxAttempts < 1 {
		return repository.Campaign{}, apperr.Validation("max attempts must be at least 1")
	}

	campaign, err := s.repo.Update(ctx, id, params)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Campaign{}, apperr.NotFound("campaign not found")
	}
	if err != nil {
		return repository.Campaign{}, apperr.Wrap(apperr.KindInternal, "failed to update campaign", err)
	}
	return campaign, nil
}

// Start enrolls the campaign's attached leads into the call ledger and
// activates the campaign. Restarting an active campaign is rejected;
// starting a paused one picks up newly attached leads.
func (s *Service) Start(ctx context.Context, id uuid.UUID) (repository.Campaign, int, error) {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return repository.Campaign{}, 0, err
	}

	if campaign.Status == domain.CampaignActive {
		return repository.Campaign{}, 0, apperr.Conflict("campaign is already active")
	}
	if campaign.Status == domain.CampaignCompleted {
		return repository.Campaign{}, 0, apperr.Conflict("campaign is already completed")
	}

	enrolled, err := s.repo.EnrollLeads(ctx, id, campaign.MaxAttempts)
	if err != nil {
		return repository.Campaign{}, 0, apperr.Wrap(apperr.KindInternal, "failed to enroll leads", err)
	}

	campaign, err = s.repo.UpdateStatus(ctx, id, domain.CampaignActive)
	if err != nil {
		return repository.Campaign{}, 0, apperr.Wrap(apperr.KindInternal, "failed to activate campaign", err)
	}

	s.bus.Publish(ctx, events.CampaignStarted{
		BaseEvent:  events.NewBaseEvent(),
		CampaignID: id,
		LeadCount:  campaign.TotalLeads,
	})

	return campaign, enrolled, nil
}

func (s *Service) Pause(ctx context.Context, id uuid.UUID) (repository.Campaign, error) {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return repository.Campaign{}, err
	}
	if campaign.Status != domain.CampaignActive {
		return repository.Campaign{}, apperr.Conflict("only active campaigns can be paused")
	}

	campaign, err = s.repo.UpdateStatus(ctx, id, domain.CampaignPaused)
	if err != nil {
		return repository.Campaign{}, apperr.Wrap(apperr.KindInternal, "failed to pause campaign", err)
	}
	return campaign, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("campaign not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete campaign", err)
	}
	return nil
}

func (s *Service) GetStats(ctx context.Context, id uuid.UUID) (repository.CampaignStats, error) {
	stats, err := s.repo.GetStats(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.CampaignStats{}, apperr.NotFound("campaign not found")
	}
	if err != nil {
		return repository.CampaignStats{}, apperr.Wrap(apperr.KindInternal, "failed to load campaign stats", err)
	}
	return stats, nil
}

func (s *Service) ListCalls(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]repository.CallLog, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	if _, err := s.Get(ctx, campaignID); err != nil {
		return nil, 0, err
	}

	logs, total, err := s.repo.ListCallLogs(ctx, campaignID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to list call logs", err)
	}
	return logs, total, nil
}

func (s *Service) validateClientID(clientID *string) error {
	if clientID == nil || strings.TrimSpace(*clientID) == "" {
		return nil
	}
	for _, allowed := range s.cfg.GetClientIDs() {
		if allowed == strings.TrimSpace(*clientID) {
			return nil
		}
	}
	return apperr.Validation("unknown client id: " + *clientID)
}

// validateAgentID enforces the configured agent allow-list. An empty
// allow-list disables the check.
func (s *Service) validateAgentID(agentID *uuid.UUID) error {
	if agentID == nil {
		return nil
	}
	allowed := s.cfg.GetAgentIDs()
	if len(allowed) == 0 {
		return nil
	}
	for _, id := range allowed {
		if id == agentID.String() {
			return nil
		}
	}
	return apperr.Validation("unknown agent id: " + agentID.String())
}
