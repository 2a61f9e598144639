package service

import (
	"context"
	"errors"
	"strings"

	"crm_backend/internal/events"
	"crm_backend/internal/leads/domain"
	"crm_backend/internal/leads/repository"
	"crm_backend/platform/apperr"
	"crm_backend/platform/config"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"

	"github.com/google/uuid"
)

type Service struct {
	repo repository.Store
	cfg  config.CampaignConfig
	bus  events.Bus
	log  *logger.Logger
}

func New(repo repository.Store, cfg config.CampaignConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, bus: bus, log: log}
}

// Roles recognized by the lead visibility rules.
const (
	RoleAdmin  = "admin"
	RoleAgent  = "agent"
	RoleClient = "client"

	roleSystem = "system"
)

// Viewer identifies the caller for role-scoped access: admins see
// everything, agents see leads assigned to them or unassigned, clients
// see only leads they created.
type Viewer struct {
	UserID uuid.UUID
	Role   string
}

// SystemViewer bypasses role scoping for internal cross-module calls.
var SystemViewer = Viewer{Role: roleSystem}

// creator returns the viewer's user ID for created_by tracking, or nil
// for system callers.
func (v Viewer) creator() *uuid.UUID {
	if v.UserID == uuid.Nil {
		return nil
	}
	id := v.UserID
	return &id
}

func (s *Service) authorizeLead(viewer Viewer, lead repository.Lead) error {
	switch viewer.Role {
	case RoleAdmin, roleSystem:
		return nil
	case RoleAgent:
		if lead.AssignedAgentID == nil || *lead.AssignedAgentID == viewer.UserID {
			return nil
		}
	case RoleClient:
		if lead.CreatedBy != nil && *lead.CreatedBy == viewer.UserID {
			return nil
		}
	}
	return apperr.Forbidden("not allowed to access this lead")
}

// CreateLeadInput carries the fields accepted when creating a lead.
type CreateLeadInput struct {
	LeadType        string
	FirstName       *string
	LastName        *string
	Email           *string
	Phone           *string
	BusinessName    *string
	BusinessPhone   *string
	BusinessAddress *string
	Status          string
	Source          *string
	ClientID        *string
	AssignedAgentID *uuid.UUID
	CampaignID      *uuid.UUID
	Notes           *string
}

func (s *Service) Create(ctx context.Context, viewer Viewer, input CreateLeadInput) (repository.Lead, error) {
	leadType := domain.NormalizeType(input.LeadType)
	if !domain.IsValidType(leadType) {
		return repository.Lead{}, apperr.Validation("invalid lead type: " + input.LeadType)
	}

	status := domain.NormalizeStatus(input.Status)
	if status == "" {
		status = domain.StatusNew
	}
	if !domain.IsValidStatus(status) {
		return repository.Lead{}, apperr.Validation("invalid status: " + input.Status)
	}

	if err := s.validateContactFields(leadType, input); err != nil {
		return repository.Lead{}, err
	}
	if err := s.validateClientID(input.ClientID); err != nil {
		return repository.Lead{}, err
	}

	email := normalizeEmail(input.Email)
	primaryPhone := normalizePhonePtr(input.Phone)
	businessPhone := normalizePhonePtr(input.BusinessPhone)

	dupPhone := primaryPhone
	if dupPhone == nil {
		dupPhone = businessPhone
	}
	existing, err := s.FindDuplicate(ctx, email, dupPhone)
	if err != nil {
		return repository.Lead{}, err
	}
	if existing != nil {
		return repository.Lead{}, apperr.Conflict("a lead with this email or phone already exists").
			WithDetails(map[string]string{"existingLeadId": existing.ID.String()})
	}

	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		LeadType:        leadType,
		FirstName:       trimPtr(input.FirstName),
		LastName:        trimPtr(input.LastName),
		Email:           email,
		Phone:           primaryPhone,
		BusinessName:    trimPtr(input.BusinessName),
		BusinessPhone:   businessPhone,
		BusinessAddress: trimPtr(input.BusinessAddress),
		Status:          status,
		Source:          trimPtr(input.Source),
		ClientID:        trimPtr(input.ClientID),
		AssignedAgentID: input.AssignedAgentID,
		CampaignID:      input.CampaignID,
		Notes:           input.Notes,
		CreatedBy:       viewer.creator(),
	})
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to create lead", err)
	}

	source := "manual"
	if lead.Source != nil {
		source = *lead.Source
	}
	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		LeadType:  lead.LeadType,
		Source:    source,
	})

	return lead, nil
}

// FindDuplicate looks for an existing lead sharing the given email or
// phone. When both are nil or empty there is nothing to match and the
// store is not consulted.
func (s *Service) FindDuplicate(ctx context.Context, email, phoneNumber *string) (*repository.Lead, error) {
	hasEmail := email != nil && strings.TrimSpace(*email) != ""
	hasPhone := phoneNumber != nil && strings.TrimSpace(*phoneNumber) != ""
	if !hasEmail && !hasPhone {
		return nil, nil
	}

	lead, err := s.repo.FindByEmailOrPhone(ctx, email, phoneNumber)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "duplicate lookup failed", err)
	}
	return lead, nil
}

func (s *Service) Get(ctx context.Context, viewer Viewer, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}
	if err := s.authorizeLead(viewer, lead); err != nil {
		return repository.Lead{}, err
	}
	return lead, nil
}

func (s *Service) List(ctx context.Context, viewer Viewer, params repository.ListParams) ([]repository.Lead, int, error) {
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	if params.Status != nil {
		normalized := domain.NormalizeStatus(*params.Status)
		params.Status = &normalized
	}

	switch viewer.Role {
	case RoleAgent:
		id := viewer.UserID
		params.VisibleToAgentID = &id
	case RoleClient:
		id := viewer.UserID
		params.CreatedBy = &id
	}

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}
	return leads, total, nil
}

func (s *Service) Update(ctx context.Context, viewer Viewer, id uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error) {
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return repository.Lead{}, err
	}
	if err := s.validateClientID(params.ClientID); err != nil {
		return repository.Lead{}, err
	}
	params.Email = normalizeEmail(params.Email)
	params.Phone = normalizePhonePtr(params.Phone)
	params.BusinessPhone = normalizePhonePtr(params.BusinessPhone)

	lead, err := s.repo.Update(ctx, id, params)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to update lead", err)
	}
	return lead, nil
}

func (s *Service) UpdateStatus(ctx context.Context, viewer Viewer, id uuid.UUID, rawStatus string) (repository.Lead, error) {
	status := domain.NormalizeStatus(rawStatus)
	if !domain.IsValidStatus(status) {
		return repository.Lead{}, apperr.Validation("invalid status: " + rawStatus)
	}
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return repository.Lead{}, err
	}

	lead, err := s.repo.UpdateStatus(ctx, id, status)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to update lead status", err)
	}
	return lead, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete lead", err)
	}
	return nil
}

// AssignCampaign moves the lead to another campaign and records the change
// in the lead's campaign history, including who made it.
func (s *Service) AssignCampaign(ctx context.Context, viewer Viewer, leadID uuid.UUID, campaignID *uuid.UUID) (repository.Lead, error) {
	current, err := s.Get(ctx, viewer, leadID)
	if err != nil {
		return repository.Lead{}, err
	}

	lead, err := s.repo.AssignCampaign(ctx, leadID, campaignID, viewer.creator())
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to assign campaign", err)
	}

	s.bus.Publish(ctx, events.LeadCampaignChanged{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         leadID,
		FromCampaignID: current.CampaignID,
		ToCampaignID:   campaignID,
	})

	return lead, nil
}

func (s *Service) GetCampaignHistory(ctx context.Context, viewer Viewer, leadID uuid.UUID) ([]repository.CampaignHistoryEntry, error) {
	if _, err := s.Get(ctx, viewer, leadID); err != nil {
		return nil, err
	}

	entries, err := s.repo.GetCampaignHistory(ctx, leadID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load campaign history", err)
	}
	return entries, nil
}

func (s *Service) validateContactFields(leadType string, input CreateLeadInput) error {
	switch leadType {
	case domain.TypeIndividual:
		if isBlank(input.FirstName) || isBlank(input.LastName) || isBlank(input.Phone) {
			return apperr.Validation("individual leads require first_name, last_name and phone")
		}
	case domain.TypeOrganization:
		if isBlank(input.BusinessName) || isBlank(input.BusinessPhone) || isBlank(input.BusinessAddress) {
			return apperr.Validation("organization leads require business_name, business_phone and business_address")
		}
	}
	return nil
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

func isBlank(value *string) bool {
	return value == nil || strings.TrimSpace(*value) == ""
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeEmail(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.ToLower(strings.TrimSpace(*value))
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizePhonePtr(value *string) *string {
	if value == nil {
		return nil
	}
	normalized := phone.NormalizeE164(*value)
	if normalized == "" {
		return nil
	}
	return &normalized
}
