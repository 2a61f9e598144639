package domain

// DefaultTimezone is used when a campaign does not set one.
const DefaultTimezone = "America/New_York"

// Campaigns dial US and Canadian numbers only, so the timezone is
// restricted to the zones the calling windows are defined for.
var validTimezones = map[string]bool{
	"America/New_York":    true,
	"America/Chicago":     true,
	"America/Denver":      true,
	"America/Los_Angeles": true,
	"America/Anchorage":   true,
	"Pacific/Honolulu":    true,
	"America/Toronto":     true,
	"America/Winnipeg":    true,
	"America/Edmonton":    true,
	"America/Vancouver":   true,
}

// IsValidTimezone reports whether tz is one of the supported zones.
func IsValidTimezone(tz string) bool {
	return validTimezones[tz]
}
