package domain

import "testing"

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"New", "new"},
		{" No-Answer ", "no_answer"},
		{"No Answer", "no_answer"},
		{"Pending Preview", "pending_preview"},
		{"NO-RESPONSE", "no_response"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := NormalizeStatus(tc.raw); got != tc.want {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, status := range []string{StatusNew, "ready", "no_answer", "busy", "completed", "no_response", "converted"} {
		if !IsValidStatus(status) {
			t.Fatalf("expected %q to be a valid status", status)
		}
	}
	if IsValidStatus("vaporized") {
		t.Fatal("unknown status must not validate")
	}
}

func TestNormalizeType(t *testing.T) {
	if got := NormalizeType(" Individual "); got != TypeIndividual {
		t.Fatalf("expected individual, got %q", got)
	}
	if got := NormalizeType("Organization"); got != TypeOrganization {
		t.Fatalf("expected organization, got %q", got)
	}
	// The legacy alias folds to the canonical value.
	if got := NormalizeType("BUSINESS"); got != TypeOrganization {
		t.Fatalf("expected organization for business alias, got %q", got)
	}
	if IsValidType(NormalizeType("charity")) {
		t.Fatal("unknown type must not validate")
	}
}
