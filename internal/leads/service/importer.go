package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"crm_backend/internal/adapters/storage"
	"crm_backend/internal/events"
	"crm_backend/internal/leads/domain"
	"crm_backend/platform/apperr"
	"crm_backend/platform/csvkit"

	"github.com/google/uuid"
)

// maxDetailEntries caps the per-row detail lists in the import report.
// The integer counters always carry the true totals.
const maxDetailEntries = 10

// ImportResult summarizes one CSV import run.
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

// Importer runs the lead CSV ingestion pipeline: decode, validate,
// deduplicate and create, row by row in file order.
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

// ImportLeads processes an uploaded CSV file. Rows are handled strictly
// sequentially; a failing row never aborts the run. The returned result
// carries true totals with detail lists capped at ten entries each.
func (im *Importer) ImportLeads(ctx context.Context, viewer Viewer, filename string, raw []byte, campaignID *uuid.UUID) (*ImportResult, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, apperr.Validation("file must be a CSV")
	}

	rows, err := csvkit.Parse(raw)
	if err != nil {
		return nil, apperr.Validation("could not parse CSV: " + err.Error())
	}

	if missing := rows.HasColumns("lead_type", "status"); len(missing) > 0 {
		return nil, apperr.Validation("missing required columns: " + strings.Join(missing, ", "))
	}
	// The header must carry at least one complete contact-field set.
	individualMissing := rows.HasColumns("first_name", "last_name", "phone")
	businessMissing := rows.HasColumns("business_name", "business_phone", "business_address")
	if len(individualMissing) > 0 && len(businessMissing) > 0 {
		return nil, apperr.Validation(
			"missing required columns: need first_name, last_name, phone or business_name, business_phone, business_address")
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
		im.importRow(ctx, viewer, rows, record, rowNum, campaignID, result)
	}

	result.ArchiveKey = im.archiveFile(ctx, filename, raw)

	im.svc.log.ImportCompleted("leads", filename, result.Created, result.Skipped, result.Failed)
	im.svc.bus.Publish(ctx, events.ImportCompleted{
		BaseEvent:  events.NewBaseEvent(),
		Kind:       "leads",
		Filename:   filename,
		CampaignID: campaignID,
		Created:    result.Created,
		Skipped:    result.Skipped,
		Failed:     result.Failed,
		Duration:   time.Since(started),
	})

	return result, nil
}

func (im *Importer) importRow(ctx context.Context, viewer Viewer, rows *csvkit.Rows, record []string, rowNum int, campaignID *uuid.UUID, result *ImportResult) {
	input, err := im.rowToInput(rows, record, campaignID)
	if err != nil {
		result.Failed++
		appendCapped(&result.Errors, fmt.Sprintf("row %d: %s", rowNum, errMessage(err)))
		return
	}

	lead, err := im.svc.Create(ctx, viewer, input)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindConflict {
			result.Skipped++
			appendCapped(&result.SkippedRows, fmt.Sprintf("row %d: duplicate lead", rowNum))
			return
		}
		result.Failed++
		appendCapped(&result.Errors, fmt.Sprintf("row %d: %s", rowNum, errMessage(err)))
		return
	}

	result.Created++
	appendCapped(&result.CreatedIDs, lead.ID.String())
}

func (im *Importer) rowToInput(rows *csvkit.Rows, record []string, campaignID *uuid.UUID) (CreateLeadInput, error) {
	leadType := domain.NormalizeType(rows.Get(record, "lead_type"))
	if !domain.IsValidType(leadType) {
		return CreateLeadInput{}, fmt.Errorf("invalid lead_type %q", rows.Get(record, "lead_type"))
	}

	status := domain.NormalizeStatus(rows.Get(record, "status"))
	if status == "" {
		status = domain.StatusNew
	}
	if !domain.IsValidStatus(status) {
		return CreateLeadInput{}, fmt.Errorf("invalid status %q", rows.Get(record, "status"))
	}

	input := CreateLeadInput{
		LeadType:        leadType,
		Status:          status,
		FirstName:       optional(rows.Get(record, "first_name")),
		LastName:        optional(rows.Get(record, "last_name")),
		Email:           optional(rows.Get(record, "email")),
		Phone:           optional(rows.Get(record, "phone")),
		BusinessName:    optional(rows.Get(record, "business_name")),
		BusinessPhone:   optional(rows.Get(record, "business_phone")),
		BusinessAddress: optional(rows.Get(record, "business_address")),
		Source:          optional(rows.Get(record, "source")),
		ClientID:        optional(rows.Get(record, "client_id")),
		Notes:           optional(rows.Get(record, "notes")),
		CampaignID:      campaignID,
	}

	switch leadType {
	case domain.TypeIndividual:
		if input.FirstName == nil || input.LastName == nil || input.Phone == nil {
			return CreateLeadInput{}, fmt.Errorf("individual rows require first_name, last_name and phone")
		}
	case domain.TypeOrganization:
		if input.BusinessName == nil || input.BusinessPhone == nil || input.BusinessAddress == nil {
			return CreateLeadInput{}, fmt.Errorf("organization rows require business_name, business_phone and business_address")
		}
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
