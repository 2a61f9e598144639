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

type Campaign struct {
	ID              uuid.UUID
	Code            string
	Name            string
	Description     *string
	Status          string
	ClientID        *string
	AssignedAgentID *uuid.UUID
	Timezone        string
	MaxAttempts     int
	TotalLeads      int
	CompletedLeads  int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type LedgerEntry struct {
	ID              uuid.UUID
	CampaignID      uuid.UUID
	LeadID          uuid.UUID
	Status          string
	AttemptsMade    int
	MaxAttempts     int
	NextAttemptAt   *time.Time
	LastCallOutcome *string
	LastAttemptAt   *time.Time
	AssignedAgentID *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CallLog struct {
	ID              uuid.UUID
	CampaignID      uuid.UUID
	LeadID          uuid.UUID
	AgentID         *uuid.UUID
	Outcome         string
	Notes           *string
	DurationSeconds *int
	Orphan          bool
	CreatedAt       time.Time
}

// CampaignStats aggregates ledger and call counts for one campaign.
type CampaignStats struct {
	TotalLeads     int
	CompletedLeads int
	Pending        int
	InProgress     int
	Completed      int
	Failed         int
	CallsByOutcome map[string]int
	TotalCalls     int
}

type CreateCampaignParams struct {
	Name            string
	Description     *string
	Status          string
	ClientID        *string
	AssignedAgentID *uuid.UUID
	Timezone        string
	MaxAttempts     int
}

type UpdateCampaignParams struct {
	Name            *string
	Description     *string
	ClientID        *string
	AssignedAgentID *uuid.UUID
	Timezone        *string
	MaxAttempts     *int
}

type ListParams struct {
	Status          *string
	ClientID        *string
	AssignedAgentID *uuid.UUID
	Search          string
	Offset          int
	Limit           int
}

type ApplyOutcomeParams struct {
	EntryID       uuid.UUID
	CampaignID    uuid.UUID
	Status        string
	AttemptsMade  int
	NextAttemptAt *time.Time
	LastOutcome   string
	LastAttemptAt time.Time
	JustCompleted bool
}

type InsertCallLogParams struct {
	CampaignID      uuid.UUID
	LeadID          uuid.UUID
	AgentID         *uuid.UUID
	Outcome         string
	Notes           *string
	DurationSeconds *int
	Orphan          bool
}

const campaignColumns = `id, code, name, description, status, client_id,
	assigned_agent_id, timezone, max_attempts, total_leads, completed_leads,
	created_at, updated_at`

const ledgerColumns = `id, campaign_id, lead_id, status, attempts_made,
	max_attempts, next_attempt_at, last_call_outcome, last_attempt_at,
	assigned_agent_id, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, params CreateCampaignParams) (Campaign, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO campaigns (name, description, status, client_id, assigned_agent_id, timezone, max_attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s
	`, campaignColumns),
		params.Name, params.Description, params.Status, params.ClientID,
		params.AssignedAgentID, params.Timezone, params.MaxAttempts,
	)

	campaign, err := scanCampaign(row)
	if err != nil {
		return Campaign{}, fmt.Errorf("create campaign: %w", err)
	}
	return campaign, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Campaign, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM campaigns WHERE id = $1`, campaignColumns), id)
	campaign, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	return campaign, err
}

func (r *Repository) GetByCode(ctx context.Context, code string) (Campaign, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM campaigns WHERE code = $1`, campaignColumns), code)
	campaign, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	return campaign, err
}

func (r *Repository) GetByName(ctx context.Context, name string) (Campaign, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM campaigns WHERE LOWER(name) = LOWER($1)`, campaignColumns), name)
	campaign, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	return campaign, err
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Campaign, int, error) {
	conditions := []string{"TRUE"}
	args := make([]interface{}, 0, 4)

	if params.Status != nil {
		args = append(args, *params.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.ClientID != nil {
		args = append(args, *params.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if params.AssignedAgentID != nil {
		args = append(args, *params.AssignedAgentID)
		conditions = append(conditions, fmt.Sprintf("assigned_agent_id = $%d", len(args)))
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		idx := len(args)
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", idx, idx))
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM campaigns WHERE %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s FROM campaigns
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, campaignColumns, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := make([]Campaign, 0)
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, campaign)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return campaigns, total, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateCampaignParams) (Campaign, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE campaigns SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			client_id = COALESCE($4, client_id),
			assigned_agent_id = COALESCE($5, assigned_agent_id),
			timezone = COALESCE($6, timezone),
			max_attempts = COALESCE($7, max_attempts),
			updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, campaignColumns),
		id, params.Name, params.Description, params.ClientID,
		params.AssignedAgentID, params.Timezone, params.MaxAttempts,
	)

	campaign, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	return campaign, err
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Campaign, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE campaigns SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, campaignColumns), id, status)

	campaign, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	return campaign, err
}

// Delete removes a campaign. Ledger entries and call logs go with it via
// foreign keys; attached leads are detached, not deleted.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EnrollLeads creates pending ledger entries for every lead currently
// attached to the campaign that has no entry yet, then refreshes the
// campaign's total counter from the ledger.
func (r *Repository) EnrollLeads(ctx context.Context, campaignID uuid.UUID, maxAttempts int) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO campaign_leads (campaign_id, lead_id, status, attempts_made, max_attempts, assigned_agent_id)
		SELECT l.campaign_id, l.id, 'pending', 0, $2, l.assigned_agent_id
		FROM leads l
		WHERE l.campaign_id = $1
		ON CONFLICT (campaign_id, lead_id) DO NOTHING
	`, campaignID, maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("enroll leads: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE campaigns SET
			total_leads = (SELECT COUNT(*) FROM campaign_leads WHERE campaign_id = $1),
			updated_at = now()
		WHERE id = $1
	`, campaignID); err != nil {
		return 0, fmt.Errorf("refresh total leads: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}

func (r *Repository) GetEntry(ctx context.Context, campaignID, leadID uuid.UUID) (LedgerEntry, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM campaign_leads
		WHERE campaign_id = $1 AND lead_id = $2
	`, ledgerColumns), campaignID, leadID)

	entry, err := scanLedgerEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return LedgerEntry{}, ErrNotFound
	}
	return entry, err
}

// NextPending picks the next dispatchable ledger entry. Entries with no
// next_attempt_at sort first (never tried), then the oldest scheduled
// retry; enrollment order breaks ties. Entries whose retry time is still
// in the future are excluded.
func (r *Repository) NextPending(ctx context.Context, campaignID uuid.UUID, agentID *uuid.UUID, now time.Time) (LedgerEntry, error) {
	args := []interface{}{campaignID, now}
	agentClause := ""
	if agentID != nil {
		args = append(args, *agentID)
		agentClause = fmt.Sprintf("AND assigned_agent_id = $%d", len(args))
	}

	query := fmt.Sprintf(`
		SELECT %s FROM campaign_leads
		WHERE campaign_id = $1
		  AND status = 'pending'
		  AND attempts_made < max_attempts
		  AND (next_attempt_at IS NULL OR next_attempt_at <= $2)
		  %s
		ORDER BY next_attempt_at ASC NULLS FIRST, created_at ASC
		LIMIT 1
	`, ledgerColumns, agentClause)

	row := r.pool.QueryRow(ctx, query, args...)
	entry, err := scanLedgerEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return LedgerEntry{}, ErrNotFound
	}
	return entry, err
}

func (r *Repository) MarkInProgress(ctx context.Context, entryID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaign_leads SET status = 'in_progress', updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, entryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyOutcome persists a computed ledger transition. The completed
// counter uses an in-database increment so concurrent recorders can
// never double-count, and it moves only when this transition is the one
// that completed the entry.
func (r *Repository) ApplyOutcome(ctx context.Context, params ApplyOutcomeParams) (LedgerEntry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return LedgerEntry{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, fmt.Sprintf(`
		UPDATE campaign_leads SET
			status = $2,
			attempts_made = $3,
			next_attempt_at = $4,
			last_call_outcome = $5,
			last_attempt_at = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, ledgerColumns), params.EntryID, params.Status, params.AttemptsMade, params.NextAttemptAt,
		params.LastOutcome, params.LastAttemptAt)

	entry, err := scanLedgerEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return LedgerEntry{}, ErrNotFound
	}
	if err != nil {
		return LedgerEntry{}, err
	}

	if params.JustCompleted {
		if _, err := tx.Exec(ctx, `
			UPDATE campaigns SET completed_leads = completed_leads + 1, updated_at = now()
			WHERE id = $1
		`, params.CampaignID); err != nil {
			return LedgerEntry{}, fmt.Errorf("increment completed leads: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return LedgerEntry{}, err
	}

	return entry, nil
}

func (r *Repository) InsertCallLog(ctx context.Context, params InsertCallLogParams) (CallLog, error) {
	var log CallLog
	err := r.pool.QueryRow(ctx, `
		INSERT INTO call_logs (campaign_id, lead_id, agent_id, outcome, notes, duration_seconds, orphan)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, campaign_id, lead_id, agent_id, outcome, notes, duration_seconds, orphan, created_at
	`,
		params.CampaignID, params.LeadID, params.AgentID, params.Outcome,
		params.Notes, params.DurationSeconds, params.Orphan,
	).Scan(
		&log.ID,
		&log.CampaignID,
		&log.LeadID,
		&log.AgentID,
		&log.Outcome,
		&log.Notes,
		&log.DurationSeconds,
		&log.Orphan,
		&log.CreatedAt,
	)
	if err != nil {
		return CallLog{}, fmt.Errorf("insert call log: %w", err)
	}
	return log, nil
}

func (r *Repository) ListCallLogs(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]CallLog, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM call_logs WHERE campaign_id = $1`, campaignID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, campaign_id, lead_id, agent_id, outcome, notes, duration_seconds, orphan, created_at
		FROM call_logs
		WHERE campaign_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, campaignID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := make([]CallLog, 0)
	for rows.Next() {
		var log CallLog
		if err := rows.Scan(
			&log.ID,
			&log.CampaignID,
			&log.LeadID,
			&log.AgentID,
			&log.Outcome,
			&log.Notes,
			&log.DurationSeconds,
			&log.Orphan,
			&log.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		logs = append(logs, log)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return logs, total, nil
}

func (r *Repository) GetStats(ctx context.Context, campaignID uuid.UUID) (CampaignStats, error) {
	stats := CampaignStats{CallsByOutcome: make(map[string]int)}

	err := r.pool.QueryRow(ctx, `
		SELECT total_leads, completed_leads FROM campaigns WHERE id = $1
	`, campaignID).Scan(&stats.TotalLeads, &stats.CompletedLeads)
	if errors.Is(err, pgx.ErrNoRows) {
		return CampaignStats{}, ErrNotFound
	}
	if err != nil {
		return CampaignStats{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM campaign_leads
		WHERE campaign_id = $1
		GROUP BY status
	`, campaignID)
	if err != nil {
		return CampaignStats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return CampaignStats{}, err
		}
		switch status {
		case "pending":
			stats.Pending = count
		case "in_progress":
			stats.InProgress = count
		case "completed":
			stats.Completed = count
		case "failed":
			stats.Failed = count
		}
	}
	if rows.Err() != nil {
		return CampaignStats{}, rows.Err()
	}

	outcomeRows, err := r.pool.Query(ctx, `
		SELECT outcome, COUNT(*) FROM call_logs
		WHERE campaign_id = $1
		GROUP BY outcome
	`, campaignID)
	if err != nil {
		return CampaignStats{}, err
	}
	defer outcomeRows.Close()

	for outcomeRows.Next() {
		var outcome string
		var count int
		if err := outcomeRows.Scan(&outcome, &count); err != nil {
			return CampaignStats{}, err
		}
		stats.CallsByOutcome[outcome] = count
		stats.TotalCalls += count
	}
	if outcomeRows.Err() != nil {
		return CampaignStats{}, outcomeRows.Err()
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (Campaign, error) {
	var campaign Campaign
	err := row.Scan(
		&campaign.ID,
		&campaign.Code,
		&campaign.Name,
		&campaign.Description,
		&campaign.Status,
		&campaign.ClientID,
		&campaign.AssignedAgentID,
		&campaign.Timezone,
		&campaign.MaxAttempts,
		&campaign.TotalLeads,
		&campaign.CompletedLeads,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	return campaign, err
}

func scanLedgerEntry(row rowScanner) (LedgerEntry, error) {
	var entry LedgerEntry
	err := row.Scan(
		&entry.ID,
		&entry.CampaignID,
		&entry.LeadID,
		&entry.Status,
		&entry.AttemptsMade,
		&entry.MaxAttempts,
		&entry.NextAttemptAt,
		&entry.LastCallOutcome,
		&entry.LastAttemptAt,
		&entry.AssignedAgentID,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	return entry, err
}
