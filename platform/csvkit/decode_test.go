package csvkit

import "testing"

func TestDecodeToUTF8_StripsBOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name\nvalue")...)

	text, err := DecodeToUTF8(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "name\nvalue" {
		t.Fatalf("expected BOM stripped, got %q", text)
	}
}

func TestDecodeToUTF8_FallsBackToWindows1252(t *testing.T) {
	// 0xE9 is e-acute in Windows-1252 and invalid as standalone UTF-8.
	raw := []byte{'c', 'a', 'f', 0xE9}

	text, err := DecodeToUTF8(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "caf\u00e9" {
		t.Fatalf("expected caf\u00e9, got %q", text)
	}
}

func TestParse_NormalizesHeader(t *testing.T) {
	rows, err := Parse([]byte(" Lead_Type , STATUS\nindividual,new\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if missing := rows.HasColumns("lead_type", "status"); len(missing) != 0 {
		t.Fatalf("expected normalized columns to match, missing %v", missing)
	}
	if len(rows.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(rows.Records))
	}
	if got := rows.Get(rows.Records[0], "lead_type"); got != "individual" {
		t.Fatalf("expected individual, got %q", got)
	}
}

func TestParse_EmptyFile(t *testing.T) {
	if _, err := Parse(nil); err == nil {
		t.Fatal("expected an error for an empty file")
	}
}

func TestParse_RaggedRows(t *testing.T) {
	rows, err := Parse([]byte("a,b,c\n1,2\n"))
	if err != nil {
		t.Fatalf("short rows must parse: %v", err)
	}
	if got := rows.Get(rows.Records[0], "c"); got != "" {
		t.Fatalf("missing cell must read as empty, got %q", got)
	}
}

func TestHasColumns_ReportsMissing(t *testing.T) {
	rows, err := Parse([]byte("alpha\nx\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missing := rows.HasColumns("alpha", "beta", "gamma")
	if len(missing) != 2 || missing[0] != "beta" || missing[1] != "gamma" {
		t.Fatalf("expected [beta gamma], got %v", missing)
	}
}
