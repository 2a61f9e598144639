package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID              uuid.UUID
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
	CreatedBy       *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CampaignHistoryEntry records one campaign reassignment for a lead:
// where it moved from, where it moved to, and who moved it.
type CampaignHistoryEntry struct {
	ID             uuid.UUID
	LeadID         uuid.UUID
	FromCampaignID *uuid.UUID
	ToCampaignID   *uuid.UUID
	ChangedBy      *uuid.UUID
	ChangedAt      time.Time
}

type CreateLeadParams struct {
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
	CreatedBy       *uuid.UUID
}

type UpdateLeadParams struct {
	FirstName       *string
	LastName        *string
	Email           *string
	Phone           *string
	BusinessName    *string
	BusinessPhone   *string
	BusinessAddress *string
	Source          *string
	ClientID        *string
	AssignedAgentID *uuid.UUID
	Notes           *string
}

type ListParams struct {
	Status          *string
	LeadType        *string
	CampaignID      *uuid.UUID
	AssignedAgentID *uuid.UUID
	ClientID        *string
	Search          string
	Offset          int
	Limit           int

	// Role scoping, set by the service from the caller's identity.
	// VisibleToAgentID matches leads assigned to that agent or unassigned;
	// CreatedBy matches leads the caller created.
	VisibleToAgentID *uuid.UUID
	CreatedBy        *uuid.UUID
}

const leadColumns = `id, lead_type, first_name, last_name, email, phone,
	business_name, business_phone, business_address, status, source,
	client_id, assigned_agent_id, campaign_id, notes, created_by, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO leads (lead_type, first_name, last_name, email, phone,
			business_name, business_phone, business_address, status, source,
			client_id, assigned_agent_id, campaign_id, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING %s
	`, leadColumns),
		params.LeadType, params.FirstName, params.LastName, params.Email, params.Phone,
		params.BusinessName, params.BusinessPhone, params.BusinessAddress, params.Status, params.Source,
		params.ClientID, params.AssignedAgentID, params.CampaignID, params.Notes, params.CreatedBy,
	)

	lead, err := scanLead(row)
	if err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}

	if lead.CampaignID != nil {
		if err := r.appendCampaignHistory(ctx, lead.ID, nil, lead.CampaignID, params.CreatedBy); err != nil {
			return Lead{}, fmt.Errorf("create lead: %w", err)
		}
	}

	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM leads WHERE id = $1`, leadColumns), id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// FindByEmailOrPhone returns the first lead matching either contact field.
// Nil fields are not matched; callers must pass at least one non-nil value.
func (r *Repository) FindByEmailOrPhone(ctx context.Context, email, phone *string) (*Lead, error) {
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)

	if email != nil && *email != "" {
		args = append(args, *email)
		conditions = append(conditions, fmt.Sprintf("email = $%d", len(args)))
	}
	if phone != nil && *phone != "" {
		args = append(args, *phone)
		conditions = append(conditions, fmt.Sprintf("(phone = $%d OR business_phone = $%d)", len(args), len(args)))
	}
	if len(conditions) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM leads WHERE %s LIMIT 1`,
		leadColumns, strings.Join(conditions, " OR "))

	row := r.pool.QueryRow(ctx, query, args...)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find duplicate lead: %w", err)
	}
	return &lead, nil
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	whereClause, args := buildLeadListWhere(params)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leads WHERE %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return leads, total, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE leads SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			email = COALESCE($4, email),
			phone = COALESCE($5, phone),
			business_name = COALESCE($6, business_name),
			business_phone = COALESCE($7, business_phone),
			business_address = COALESCE($8, business_address),
			source = COALESCE($9, source),
			client_id = COALESCE($10, client_id),
			assigned_agent_id = COALESCE($11, assigned_agent_id),
			notes = COALESCE($12, notes),
			updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, leadColumns),
		id, params.FirstName, params.LastName, params.Email, params.Phone,
		params.BusinessName, params.BusinessPhone, params.BusinessAddress,
		params.Source, params.ClientID, params.AssignedAgentID, params.Notes,
	)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Lead, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE leads SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, leadColumns), id, status)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignCampaign moves the lead to another campaign (or detaches it when
// campaignID is nil) and appends an entry to the assignment history
// recording the previous campaign and the acting user.
func (r *Repository) AssignCampaign(ctx context.Context, leadID uuid.UUID, campaignID, changedBy *uuid.UUID) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var fromCampaignID *uuid.UUID
	err = tx.QueryRow(ctx, `SELECT campaign_id FROM leads WHERE id = $1 FOR UPDATE`, leadID).Scan(&fromCampaignID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}

	row := tx.QueryRow(ctx, fmt.Sprintf(`
		UPDATE leads SET campaign_id = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, leadColumns), leadID, campaignID)

	lead, err := scanLead(row)
	if err != nil {
		return Lead{}, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_campaign_history (lead_id, from_campaign_id, to_campaign_id, changed_by)
		VALUES ($1, $2, $3, $4)
	`, leadID, fromCampaignID, campaignID, changedBy); err != nil {
		return Lead{}, fmt.Errorf("append campaign history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}

	return lead, nil
}

func (r *Repository) GetCampaignHistory(ctx context.Context, leadID uuid.UUID) ([]CampaignHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, from_campaign_id, to_campaign_id, changed_by, changed_at
		FROM lead_campaign_history
		WHERE lead_id = $1
		ORDER BY changed_at ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]CampaignHistoryEntry, 0)
	for rows.Next() {
		var entry CampaignHistoryEntry
		if err := rows.Scan(&entry.ID, &entry.LeadID, &entry.FromCampaignID, &entry.ToCampaignID, &entry.ChangedBy, &entry.ChangedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return entries, nil
}

func (r *Repository) appendCampaignHistory(ctx context.Context, leadID uuid.UUID, fromCampaignID, toCampaignID, changedBy *uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_campaign_history (lead_id, from_campaign_id, to_campaign_id, changed_by)
		VALUES ($1, $2, $3, $4)
	`, leadID, fromCampaignID, toCampaignID, changedBy)
	return err
}

func buildLeadListWhere(params ListParams) (string, []interface{}) {
	conditions := []string{"TRUE"}
	args := make([]interface{}, 0, 6)

	if params.Status != nil {
		args = append(args, *params.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.LeadType != nil {
		args = append(args, *params.LeadType)
		conditions = append(conditions, fmt.Sprintf("lead_type = $%d", len(args)))
	}
	if params.CampaignID != nil {
		args = append(args, *params.CampaignID)
		conditions = append(conditions, fmt.Sprintf("campaign_id = $%d", len(args)))
	}
	if params.AssignedAgentID != nil {
		args = append(args, *params.AssignedAgentID)
		conditions = append(conditions, fmt.Sprintf("assigned_agent_id = $%d", len(args)))
	}
	if params.ClientID != nil {
		args = append(args, *params.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if params.VisibleToAgentID != nil {
		args = append(args, *params.VisibleToAgentID)
		conditions = append(conditions, fmt.Sprintf("(assigned_agent_id = $%d OR assigned_agent_id IS NULL)", len(args)))
	}
	if params.CreatedBy != nil {
		args = append(args, *params.CreatedBy)
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		idx := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR business_name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)",
			idx, idx, idx, idx, idx))
	}

	return strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID,
		&lead.LeadType,
		&lead.FirstName,
		&lead.LastName,
		&lead.Email,
		&lead.Phone,
		&lead.BusinessName,
		&lead.BusinessPhone,
		&lead.BusinessAddress,
		&lead.Status,
		&lead.Source,
		&lead.ClientID,
		&lead.AssignedAgentID,
		&lead.CampaignID,
		&lead.Notes,
		&lead.CreatedBy,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	return lead, err
}
