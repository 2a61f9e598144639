package service

import (
	"context"
	"strings"
	"testing"

	"crm_backend/platform/apperr"
)

func newTestImporter(store *fakeStore) *Importer {
	return NewImporter(newTestService(store, newFakeLeads()), nil, "")
}

func TestImportCampaigns_CreatesRowsInOrder(t *testing.T) {
	store := newFakeStore()
	importer := newTestImporter(store)

	csv := "campaign_name,campaign_description,max_attempts\n" +
		"Winter wave,First touch,5\n" +
		"Renewals,Second touch,\n"

	result, err := importer.ImportCampaigns(context.Background(), "campaigns.csv", []byte(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalRows != 2 {
		t.Fatalf("expected 2 rows, got %d", result.TotalRows)
	}
	if result.Created != 2 || result.Skipped != 0 || result.Failed != 0 {
		t.Fatalf("expected 2 created, got %+v", result)
	}
	if len(store.campaigns) != 2 {
		t.Fatalf("expected 2 stored campaigns, got %d", len(store.campaigns))
	}
	if _, err := store.GetByName(context.Background(), "Winter wave"); err != nil {
		t.Fatalf("Winter wave not created: %v", err)
	}
}

func TestImportCampaigns_RejectsMissingColumns(t *testing.T) {
	importer := newTestImporter(newFakeStore())

	_, err := importer.ImportCampaigns(context.Background(), "campaigns.csv",
		[]byte("campaign_name\nOnly names\n"))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "campaign_description") {
		t.Fatalf("error should name the missing column, got %v", err)
	}
}

func TestImportCampaigns_RejectsNonCSVAndEmptyFiles(t *testing.T) {
	importer := newTestImporter(newFakeStore())

	if _, err := importer.ImportCampaigns(context.Background(), "campaigns.xlsx", []byte("x")); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for non-CSV, got %v", err)
	}
	if _, err := importer.ImportCampaigns(context.Background(), "campaigns.csv", nil); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for empty file, got %v", err)
	}
}

func TestImportCampaigns_SkipsDuplicateNamesAndNumbersRowsFromTwo(t *testing.T) {
	store := newFakeStore()
	importer := newTestImporter(store)

	csv := "campaign_name,campaign_description\n" +
		"Outreach,desc\n" +
		"Outreach,desc again\n" +
		",missing name\n"

	result, err := importer.ImportCampaigns(context.Background(), "campaigns.csv", []byte(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Created != 1 || result.Skipped != 1 || result.Failed != 1 {
		t.Fatalf("expected 1/1/1, got created=%d skipped=%d failed=%d", result.Created, result.Skipped, result.Failed)
	}
	if len(result.SkippedRows) != 1 || !strings.HasPrefix(result.SkippedRows[0], "row 3:") {
		t.Fatalf("duplicate should be reported as row 3, got %v", result.SkippedRows)
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "row 4:") {
		t.Fatalf("missing name should be reported as row 4, got %v", result.Errors)
	}
}

func TestImportCampaigns_DetailListsAreCapped(t *testing.T) {
	store := newFakeStore()
	importer := newTestImporter(store)

	var sb strings.Builder
	sb.WriteString("campaign_name,campaign_description\n")
	for i := 0; i < 15; i++ {
		sb.WriteString(",no name\n")
	}

	result, err := importer.ImportCampaigns(context.Background(), "campaigns.csv", []byte(sb.String()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Failed != 15 {
		t.Fatalf("counter must carry the true total, got %d", result.Failed)
	}
	if len(result.Errors) != maxDetailEntries {
		t.Fatalf("expected error list capped at %d, got %d", maxDetailEntries, len(result.Errors))
	}
}
