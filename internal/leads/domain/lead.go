// Package domain holds the lead domain types and pure rules that do not
// depend on storage or transport.
package domain

import "strings"

// Lead types. "business" is accepted on input as an alias for
// organization.
const (
	TypeIndividual   = "individual"
	TypeOrganization = "organization"
)

// Lead statuses. A lead moves from new toward completed or converted as
// calling campaigns progress.
const (
	StatusNew            = "new"
	StatusReady          = "ready"
	StatusPendingPreview = "pending_preview"
	StatusPreviewed      = "previewed"
	StatusLost           = "lost"
	StatusNoResponse     = "no_response"
	StatusBusy           = "busy"
	StatusNoAnswer       = "no_answer"
	StatusCompleted      = "completed"
	StatusConverted      = "converted"
)

var validStatuses = map[string]bool{
	StatusNew:            true,
	StatusReady:          true,
	StatusPendingPreview: true,
	StatusPreviewed:      true,
	StatusLost:           true,
	StatusNoResponse:     true,
	StatusBusy:           true,
	StatusNoAnswer:       true,
	StatusCompleted:      true,
	StatusConverted:      true,
}

var validTypes = map[string]bool{
	TypeIndividual:   true,
	TypeOrganization: true,
}

// NormalizeStatus maps free-form status text to the canonical form:
// lowercased with spaces and hyphens folded to underscores. "No-Answer",
// "no answer" and "NO_ANSWER" all normalize to "no_answer".
func NormalizeStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// IsValidStatus reports whether the (already normalized) status is known.
func IsValidStatus(status string) bool {
	return validStatuses[status]
}

// NormalizeType maps free-form lead type text to its canonical form.
func NormalizeType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "business" {
		return TypeOrganization
	}
	return t
}

// IsValidType reports whether the (already normalized) lead type is known.
func IsValidType(leadType string) bool {
	return validTypes[leadType]
}
