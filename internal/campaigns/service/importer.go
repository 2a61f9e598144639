package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"crm_backend/internal/adapters/storage"
	"crm_backend/internal/campaigns/repository"
	"crm_backend/internal/events"
	"crm_backend/platform/apperr"
	"crm_backend/platform/csvkit"

	"github.com/google/uuid"
)

// maxDetailEntries caps the per-row detail lists in the import report.
// The integer counters always carry the true totals.
const maxDetailEntries = 10

// ImportResult summarizes one campaign CSV import run.
type ImportResult struct {
	TotalRows   int      `json:"totalRows"`
	Created     int      `json:"created"`
	Skipped     int      `json:"skipped"`
	Failed      int      `json:"failed"`
	CreatedIDs  []string `json:"createdIds"`
	SkippedRows []string `json:"skippedRows"`
	Errors      []string `json:"errors"`
	ArchiveKey  string   `json:"archiveKey,omitempty"`
}

// Importer runs the campaign CSV ingestion pipeline: decode, validate
// and create, row by row in file order.
type Importer struct {
	svc           *Service
	archive       storage.StorageService
	archiveBucket string
}

// NewImporter creates an Importer. The archive service may be nil, in
// which case raw files are not retained.
func NewImporter(svc *Service, archive storage.StorageService, archiveBucket string) *Importer {
	return &Importer{svc: svc, archive: archive, archiveBucket: archiveBucket}
}

// ImportCampaigns processes an uploaded CSV of campaign definitions.
// Rows are handled strictly sequentially; a failing row never aborts
// the run. Rows whose name matches an existing campaign are skipped.
func (im *Importer) ImportCampaigns(ctx context.Context, filename string, raw []byte) (*ImportResult, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, apperr.Validation("file must be a CSV")
	}

	rows, err := csvkit.Parse(raw)
	if err != nil {
		return nil, apperr.Validation("could not parse CSV: " + err.Error())
	}

	if missing := rows.HasColumns("campaign_name", "campaign_description"); len(missing) > 0 {
		return nil, apperr.Validation("missing required columns: " + strings.Join(missing, ", "))
	}

	started := time.Now()
	result := &ImportResult{
		TotalRows:   len(rows.Records),
		CreatedIDs:  make([]string, 0, maxDetailEntries),
		SkippedRows: make([]string, 0, maxDetailEntries),
		Errors:      make([]string, 0, maxDetailEntries),
	}

	// Header is line 1, so data rows are numbered from 2.
	for i, record := range rows.Records {
		rowNum := i + 2
		im.importRow(ctx, rows, record, rowNum, result)
	}

	result.ArchiveKey = im.archiveFile(ctx, filename, raw)

	im.svc.log.ImportCompleted("campaigns", filename, result.Created, result.Skipped, result.Failed)
	im.svc.bus.Publish(ctx, events.ImportCompleted{
		BaseEvent: events.NewBaseEvent(),
		Kind:      "campaigns",
		Filename:  filename,
		Created:   result.Created,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
		Duration:  time.Since(started),
	})

	return result, nil
}

func (im *Importer) importRow(ctx context.Context, rows *csvkit.Rows, record []string, rowNum int, result *ImportResult) {
	input, err := im.rowToInput(rows, record)
	if err != nil {
		result.Failed++
		appendCapped(&result.Errors, fmt.Sprintf("row %d: %s", rowNum, errMessage(err)))
		return
	}

	if _, err := im.svc.repo.GetByName(ctx, input.Name); err == nil {
		result.Skipped++
		appendCapped(&result.SkippedRows, fmt.Sprintf("row %d: campaign %q already exists", rowNum, input.Name))
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		result.Failed++
		appendCapped(&result.Errors, fmt.Sprintf("row %d: %s", rowNum, err.Error()))
		return
	}

	campaign, err := im.svc.Create(ctx, input)
	if err != nil {
		result.Failed++
		appendCapped(&result.Errors, fmt.Sprintf("row %d: %s", rowNum, errMessage(err)))
		return
	}

	result.Created++
	appendCapped(&result.CreatedIDs, campaign.ID.String())
}

func (im *Importer) rowToInput(rows *csvkit.Rows, record []string) (CreateCampaignInput, error) {
	name := rows.Get(record, "campaign_name")
	if name == "" {
		return CreateCampaignInput{}, fmt.Errorf("campaign_name is required")
	}

	input := CreateCampaignInput{
		Name:        name,
		Description: optional(rows.Get(record, "campaign_description")),
		ClientID:    optional(rows.Get(record, "client_id")),
		Timezone:    rows.Get(record, "timezone"),
	}

	if raw := rows.Get(record, "max_attempts"); raw != "" {
		attempts, err := strconv.Atoi(raw)
		if err != nil || attempts < 1 {
			return CreateCampaignInput{}, fmt.Errorf("invalid max_attempts %q", raw)
		}
		input.MaxAttempts = attempts
	}

	if raw := rows.Get(record, "assigned_agent_id"); raw != "" {
		agentID, err := uuid.Parse(raw)
		if err != nil {
			return CreateCampaignInput{}, fmt.Errorf("invalid assigned_agent_id %q", raw)
		}
		input.AssignedAgentID = &agentID
	}

	return input, nil
}

// archiveFile stores the raw upload for later audit. Archive failures are
// logged and do not fail the import.
func (im *Importer) archiveFile(ctx context.Context, filename string, raw []byte) string {
	if im.archive == nil || im.archiveBucket == "" {
		return ""
	}

	const contentType = "text/csv"
	if err := im.archive.ValidateContentType(contentType); err != nil {
		im.svc.log.Warn("import file not archived", "filename", filename, "error", err.Error())
		return ""
	}
	if err := im.archive.ValidateFileSize(int64(len(raw))); err != nil {
		im.svc.log.Warn("import file not archived", "filename", filename, "error", err.Error())
		return ""
	}

	folder := time.Now().UTC().Format("2006/01/02")
	key, err := im.archive.UploadFile(ctx, im.archiveBucket, folder, filename, contentType,
		bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		im.svc.log.Warn("failed to archive import file", "filename", filename, "error", err.Error())
		return ""
	}
	return key
}

func appendCapped(list *[]string, entry string) {
	if len(*list) < maxDetailEntries {
		*list = append(*list, entry)
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func errMessage(err error) string {
	if appErr, ok := err.(*apperr.Error); ok {
		return appErr.Message
	}
	return err.Error()
}
