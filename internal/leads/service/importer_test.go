package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"crm_backend/platform/apperr"

	"github.com/google/uuid"
)

func newTestImporter(store *fakeStore) *Importer {
	return NewImporter(newTestService(store), nil, "")
}

// fakeArchive is an in-memory StorageService for archive tests.
type fakeArchive struct {
	maxFileSize int64
	uploads     int
	lastKey     string
}

func (f *fakeArchive) UploadFile(_ context.Context, _, folder, fileName, _ string, _ io.Reader, _ int64) (string, error) {
	f.uploads++
	f.lastKey = folder + "/" + fileName
	return f.lastKey, nil
}

func (f *fakeArchive) EnsureBucketExists(_ context.Context, _ string) error { return nil }

func (f *fakeArchive) ValidateContentType(contentType string) error {
	if contentType != "text/csv" {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

func (f *fakeArchive) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 || sizeBytes > f.maxFileSize {
		return fmt.Errorf("file size %d outside limits", sizeBytes)
	}
	return nil
}

func (f *fakeArchive) GetMaxFileSize() int64 { return f.maxFileSize }

func TestImportLeads_CreatesValidRows(t *testing.T) {
	store := newFakeStore()
	importer := newTestImporter(store)

	csv := "lead_type,status,first_name,last_name,phone,email\n" +
		"individual,new,Dana,Reyes,212-555-0142,dana@example.com\n" +
		"individual,ready,Lee,Park,212-555-0199,\n"

	result, err := importer.ImportLeads(context.Background(), adminViewer(), "leads.csv", []byte(csv), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalRows != 2 || result.Created != 2 || result.Skipped != 0 || result.Failed != 0 {
		t.Fatalf("expected 2 clean creates, got %+v", result)
	}
	if len(store.leads) != 2 {
		t.Fatalf("expected 2 stored leads, got %d", len(store.leads))
	}
	if len(result.CreatedIDs) != 2 {
		t.Fatalf("expected 2 created IDs, got %d", len(result.CreatedIDs))
	}
}

func TestImportLeads_MissingRequiredColumnCreatesNothing(t *testing.T) {
	store := newFakeStore()
	importer := newTestImporter(store)

	csv := "first_name,last_name,phone\nDana,Reyes,212-555-0142\n"

	_, err := importer.ImportLeads(context.Background(), adminViewer(), "leads.csv", []byte(csv), nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "lead_type") || !strings.Contains(err.Error(), "status") {
		t.Fatalf("error should name both missing columns, got %v", err)
	}
	if len(store.leads) != 0 {
		t.Fatalf("no rows may be created when the header is invalid, got %d", len(store.leads))
	}
}

func TestImportLeads_DuplicatesSkippedBadRowsFailed(t *testing.T) {
	store := newFakeStore()
	importer := newTestImporter(store)

	csv := "lead_type,status,first_name,last_name,phone\n" +
		"individual,new,Dana,Reyes,212-555-0142\n" +
		"individual,new,Dana,Again,212-555-0142\n" +
		"martian,new,X,Y,212-555-0100\n" +
		"individual,new,,,\n"

	result, err := importer.ImportLeads(context.Background(), adminViewer(), "leads.csv", []byte(csv), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Created != 1 || result.Skipped != 1 || result.Failed != 2 {
		t.Fatalf("expected created=1 skipped=1 failed=2, got %+v", result)
	}
	if len(result.SkippedRows) != 1 || !strings.HasPrefix(result.SkippedRows[0], "row 3:") {
		t.Fatalf("duplicate must be reported as row 3, got %v", result.SkippedRows)
	}
	if !strings.HasPrefix(result.Errors[0], "row 4:") {
		t.Fatalf("invalid type must be reported as row 4, got %v", result.Errors)
	}
	if !strings.HasPrefix(result.Errors[1], "row 5:") {
		t.Fatalf("missing fields must be reported as row 5, got %v", result.Errors)
	}
}

func TestImportLeads_RowsInheritCampaign(t *testing.T) {
	store := newFakeStore()
	importer := newTestImporter(store)
	campaignID := uuid.New()

	csv := "lead_type,status,first_name,last_name,phone\n" +
		"individual,new,Dana,Reyes,212-555-0142\n"

	result, err := importer.ImportLeads(context.Background(), adminViewer(), "leads.csv", []byte(csv), &campaignID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("expected 1 created, got %d", result.Created)
	}

	for _, lead := range store.leads {
		if lead.CampaignID == nil || *lead.CampaignID != campaignID {
			t.Fatalf("imported lead must carry the campaign, got %v", lead.CampaignID)
		}
	}
}

func TestImportLeads_RejectsNonCSV(t *testing.T) {
	importer := newTestImporter(newFakeStore())

	_, err := importer.ImportLeads(context.Background(), adminViewer(), "leads.txt", []byte("lead_type,status\n"), nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for non-CSV filename, got %v", err)
	}
}

func TestImportLeads_ArchivesUploadWithinLimits(t *testing.T) {
	store := newFakeStore()
	archive := &fakeArchive{maxFileSize: 1 << 20}
	importer := NewImporter(newTestService(store), archive, "imports")

	csv := "lead_type,status,first_name,last_name,phone\n" +
		"individual,new,Dana,Reyes,212-555-0142\n"

	result, err := importer.ImportLeads(context.Background(), adminViewer(), "leads.csv", []byte(csv), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if archive.uploads != 1 {
		t.Fatalf("expected 1 archive upload, got %d", archive.uploads)
	}
	if result.ArchiveKey != archive.lastKey || result.ArchiveKey == "" {
		t.Fatalf("result must carry the archive key, got %q", result.ArchiveKey)
	}
}

func TestImportLeads_OversizeFileSkipsArchiveOnly(t *testing.T) {
	store := newFakeStore()
	archive := &fakeArchive{maxFileSize: 16}
	importer := NewImporter(newTestService(store), archive, "imports")

	csv := "lead_type,status,first_name,last_name,phone\n" +
		"individual,new,Dana,Reyes,212-555-0142\n"

	result, err := importer.ImportLeads(context.Background(), adminViewer(), "leads.csv", []byte(csv), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("oversize archive must not block the import, got %+v", result)
	}
	if archive.uploads != 0 {
		t.Fatalf("expected no archive upload for oversize file, got %d", archive.uploads)
	}
	if result.ArchiveKey != "" {
		t.Fatalf("expected empty archive key, got %q", result.ArchiveKey)
	}
}

func TestImportLeads_DetailListsAreCapped(t *testing.T) {
	store := newFakeStore()
	importer := newTestImporter(store)

	var sb strings.Builder
	sb.WriteString("lead_type,status,first_name,last_name,phone\n")
	for i := 0; i < 14; i++ {
		sb.WriteString("martian,new,X,Y,212-555-0100\n")
	}

	result, err := importer.ImportLeads(context.Background(), adminViewer(), "leads.csv", []byte(sb.String()), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Failed != 14 {
		t.Fatalf("counter must carry the true total, got %d", result.Failed)
	}
	if len(result.Errors) != maxDetailEntries {
		t.Fatalf("expected error list capped at %d, got %d", maxDetailEntries, len(result.Errors))
	}
}
