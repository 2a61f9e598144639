package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm_backend/internal/events"
	"crm_backend/internal/leads/domain"
	"crm_backend/internal/leads/repository"
	"crm_backend/platform/apperr"
	"crm_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore is an in-memory repository.Store for service tests.
type fakeStore struct {
	leads   map[uuid.UUID]repository.Lead
	history []repository.CampaignHistoryEntry

	duplicateLookups int
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: make(map[uuid.UUID]repository.Lead)}
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeStore) List(_ context.Context, params repository.ListParams) ([]repository.Lead, int, error) {
	items := make([]repository.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		if params.VisibleToAgentID != nil &&
			lead.AssignedAgentID != nil && *lead.AssignedAgentID != *params.VisibleToAgentID {
			continue
		}
		if params.CreatedBy != nil &&
			(lead.CreatedBy == nil || *lead.CreatedBy != *params.CreatedBy) {
			continue
		}
		items = append(items, lead)
	}
	return items, len(items), nil
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	lead := repository.Lead{
		ID:              uuid.New(),
		LeadType:        params.LeadType,
		FirstName:       params.FirstName,
		LastName:        params.LastName,
		Email:           params.Email,
		Phone:           params.Phone,
		BusinessName:    params.BusinessName,
		BusinessPhone:   params.BusinessPhone,
		BusinessAddress: params.BusinessAddress,
		Status:          params.Status,
		Source:          params.Source,
		ClientID:        params.ClientID,
		AssignedAgentID: params.AssignedAgentID,
		CampaignID:      params.CampaignID,
		Notes:           params.Notes,
		CreatedBy:       params.CreatedBy,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeStore) Update(_ context.Context, id uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	if params.Notes != nil {
		lead.Notes = params.Notes
	}
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, status string) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	lead.Status = status
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.leads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.leads, id)
	return nil
}

func (f *fakeStore) FindByEmailOrPhone(_ context.Context, email, phone *string) (*repository.Lead, error) {
	f.duplicateLookups++
	for id := range f.leads {
		lead := f.leads[id]
		if email != nil && lead.Email != nil && *lead.Email == *email {
			return &lead, nil
		}
		if phone != nil {
			if lead.Phone != nil && *lead.Phone == *phone {
				return &lead, nil
			}
			if lead.BusinessPhone != nil && *lead.BusinessPhone == *phone {
				return &lead, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeStore) AssignCampaign(_ context.Context, leadID uuid.UUID, campaignID, changedBy *uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[leadID]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	from := lead.CampaignID
	lead.CampaignID = campaignID
	f.leads[leadID] = lead
	f.history = append(f.history, repository.CampaignHistoryEntry{
		ID:             uuid.New(),
		LeadID:         leadID,
		FromCampaignID: from,
		ToCampaignID:   campaignID,
		ChangedBy:      changedBy,
		ChangedAt:      time.Now(),
	})
	return lead, nil
}

func (f *fakeStore) GetCampaignHistory(_ context.Context, leadID uuid.UUID) ([]repository.CampaignHistoryEntry, error) {
	var entries []repository.CampaignHistoryEntry
	for _, entry := range f.history {
		if entry.LeadID == leadID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

type testCfg struct {
	clientIDs []string
}

func (c testCfg) GetMaxCampaignAttempts() int  { return 3 }
func (c testCfg) GetRetryDelay() time.Duration { return time.Hour }
func (c testCfg) GetClientIDs() []string       { return c.clientIDs }
func (c testCfg) GetAgentIDs() []string        { return nil }

func newTestService(store *fakeStore) *Service {
	log := logger.New("test")
	return New(store, testCfg{}, events.NewInMemoryBus(log), log)
}

func adminViewer() Viewer {
	return Viewer{UserID: uuid.New(), Role: RoleAdmin}
}

func strPtr(s string) *string { return &s }

func individualInput() CreateLeadInput {
	return CreateLeadInput{
		LeadType:  "individual",
		FirstName: strPtr("Dana"),
		LastName:  strPtr("Reyes"),
		Phone:     strPtr("(212) 555-0142"),
	}
}

func TestCreate_NormalizesContactDetails(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	admin := adminViewer()

	input := individualInput()
	input.Email = strPtr("  Dana.Reyes@Example.COM ")

	lead, err := svc.Create(context.Background(), admin, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lead.Email == nil || *lead.Email != "dana.reyes@example.com" {
		t.Fatalf("expected lowercased email, got %v", lead.Email)
	}
	if lead.Phone == nil || *lead.Phone != "+12125550142" {
		t.Fatalf("expected E.164 phone, got %v", lead.Phone)
	}
	if lead.Status != domain.StatusNew {
		t.Fatalf("expected default status new, got %s", lead.Status)
	}
	if lead.CreatedBy == nil || *lead.CreatedBy != admin.UserID {
		t.Fatalf("expected creator %s, got %v", admin.UserID, lead.CreatedBy)
	}
}

func TestCreate_OrganizationTypeAndBusinessAlias(t *testing.T) {
	svc := newTestService(newFakeStore())
	admin := adminViewer()

	lead, err := svc.Create(context.Background(), admin, CreateLeadInput{
		LeadType:        "Organization",
		BusinessName:    strPtr("Acme Co"),
		BusinessPhone:   strPtr("212-555-0142"),
		BusinessAddress: strPtr("1 Main St"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.LeadType != domain.TypeOrganization {
		t.Fatalf("expected lead type organization, got %s", lead.LeadType)
	}

	// Legacy payloads still send "business"; it maps onto organization.
	lead, err = svc.Create(context.Background(), admin, CreateLeadInput{
		LeadType:        "business",
		BusinessName:    strPtr("Beta LLC"),
		BusinessPhone:   strPtr("212-555-0188"),
		BusinessAddress: strPtr("2 Main St"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.LeadType != domain.TypeOrganization {
		t.Fatalf("expected business alias to store organization, got %s", lead.LeadType)
	}
}

func TestCreate_RejectsInvalidTypeAndMissingContactGroup(t *testing.T) {
	svc := newTestService(newFakeStore())
	admin := adminViewer()

	_, err := svc.Create(context.Background(), admin, CreateLeadInput{LeadType: "robot"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for bad type, got %v", err)
	}

	_, err = svc.Create(context.Background(), admin, CreateLeadInput{
		LeadType:  "individual",
		FirstName: strPtr("Dana"),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for missing contact fields, got %v", err)
	}

	_, err = svc.Create(context.Background(), admin, CreateLeadInput{
		LeadType:     "organization",
		BusinessName: strPtr("Acme Co"),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for missing business fields, got %v", err)
	}
}

func TestCreate_DuplicateByPhoneConflicts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	admin := adminViewer()

	first, err := svc.Create(context.Background(), admin, individualInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	input := individualInput()
	input.FirstName = strPtr("Other")
	_, err = svc.Create(context.Background(), admin, input)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for duplicate phone, got %v", err)
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	details, ok := appErr.Details.(map[string]string)
	if !ok || details["existingLeadId"] != first.ID.String() {
		t.Fatalf("conflict must reference the existing lead, got %v", appErr.Details)
	}
}

func TestCreate_BusinessPhoneMatchesDuplicateCheck(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	admin := adminViewer()

	_, err := svc.Create(context.Background(), admin, CreateLeadInput{
		LeadType:        "organization",
		BusinessName:    strPtr("Acme Co"),
		BusinessPhone:   strPtr("212-555-0142"),
		BusinessAddress: strPtr("1 Main St"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// An individual sharing the business number is a duplicate.
	_, err = svc.Create(context.Background(), admin, individualInput())
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict across phone fields, got %v", err)
	}
}

func TestFindDuplicate_BothBlankSkipsStore(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	lead, err := svc.FindDuplicate(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead != nil {
		t.Fatalf("expected no match, got %+v", lead)
	}

	lead, err = svc.FindDuplicate(context.Background(), strPtr("  "), strPtr(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead != nil {
		t.Fatalf("expected no match for blank values, got %+v", lead)
	}

	if store.duplicateLookups != 0 {
		t.Fatalf("store must not be consulted without contact details, got %d lookups", store.duplicateLookups)
	}
}

func TestUpdateStatus_NormalizesAndValidates(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	admin := adminViewer()

	lead, err := svc.Create(context.Background(), admin, individualInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), admin, lead.ID, "No-Answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != "no_answer" {
		t.Fatalf("expected normalized status no_answer, got %s", updated.Status)
	}

	_, err = svc.UpdateStatus(context.Background(), admin, lead.ID, "vaporized")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestGet_AgentSeesAssignedOrUnassignedOnly(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	admin := adminViewer()
	agent := Viewer{UserID: uuid.New(), Role: RoleAgent}
	otherAgent := uuid.New()

	mine := individualInput()
	mine.AssignedAgentID = &agent.UserID
	assigned, err := svc.Create(context.Background(), admin, mine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	unassigned, err := svc.Create(context.Background(), admin, CreateLeadInput{
		LeadType:  "individual",
		FirstName: strPtr("Lee"),
		LastName:  strPtr("Park"),
		Phone:     strPtr("212-555-0199"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	foreign := individualInput()
	foreign.Phone = strPtr("212-555-0177")
	foreign.AssignedAgentID = &otherAgent
	theirs, err := svc.Create(context.Background(), admin, foreign)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Get(context.Background(), agent, assigned.ID); err != nil {
		t.Fatalf("agent must see own lead: %v", err)
	}
	if _, err := svc.Get(context.Background(), agent, unassigned.ID); err != nil {
		t.Fatalf("agent must see unassigned lead: %v", err)
	}
	if _, err := svc.Get(context.Background(), agent, theirs.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for another agent's lead, got %v", err)
	}
	if _, err := svc.Get(context.Background(), admin, theirs.ID); err != nil {
		t.Fatalf("admin must see every lead: %v", err)
	}
}

func TestList_ClientScopedToOwnLeads(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	client := Viewer{UserID: uuid.New(), Role: RoleClient}
	otherClient := Viewer{UserID: uuid.New(), Role: RoleClient}

	own, err := svc.Create(context.Background(), client, individualInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	foreign := individualInput()
	foreign.Phone = strPtr("212-555-0177")
	if _, err := svc.Create(context.Background(), otherClient, foreign); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	leads, total, err := svc.List(context.Background(), client, repository.ListParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(leads) != 1 || leads[0].ID != own.ID {
		t.Fatalf("client list must contain only own leads, got %d items", len(leads))
	}

	if _, err := svc.Get(context.Background(), client, own.ID); err != nil {
		t.Fatalf("client must see own lead: %v", err)
	}
}

func TestGet_ClientCannotViewForeignLead(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	client := Viewer{UserID: uuid.New(), Role: RoleClient}

	lead, err := svc.Create(context.Background(), adminViewer(), individualInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Get(context.Background(), client, lead.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for a lead the client did not create, got %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), client, lead.ID, "contacted"); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden on status update, got %v", err)
	}
}

func TestAssignCampaign_RecordsTransitionAndActor(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	admin := adminViewer()

	lead, err := svc.Create(context.Background(), admin, individualInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := uuid.New()
	if _, err := svc.AssignCampaign(context.Background(), admin, lead.ID, &first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := uuid.New()
	assigned, err := svc.AssignCampaign(context.Background(), admin, lead.ID, &second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assigned.CampaignID == nil || *assigned.CampaignID != second {
		t.Fatalf("expected campaign %s, got %v", second, assigned.CampaignID)
	}

	history, err := svc.GetCampaignHistory(context.Background(), admin, lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}

	move := history[1]
	if move.FromCampaignID == nil || *move.FromCampaignID != first {
		t.Fatalf("expected from-campaign %s, got %v", first, move.FromCampaignID)
	}
	if move.ToCampaignID == nil || *move.ToCampaignID != second {
		t.Fatalf("expected to-campaign %s, got %v", second, move.ToCampaignID)
	}
	if move.ChangedBy == nil || *move.ChangedBy != admin.UserID {
		t.Fatalf("expected actor %s, got %v", admin.UserID, move.ChangedBy)
	}
	if move.ChangedAt.IsZero() {
		t.Fatalf("expected a change timestamp")
	}
}
