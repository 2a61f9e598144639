// Package domain holds the campaign calling rules: the per-lead ledger
// state machine and the call outcome vocabulary. It has no dependencies
// on storage or transport.
package domain

import (
	"strings"
	"time"
)

// Campaign statuses.
const (
	CampaignDraft     = "draft"
	CampaignActive    = "active"
	CampaignPaused    = "paused"
	CampaignCompleted = "completed"
)

// Ledger entry statuses. Each enrolled lead carries exactly one ledger
// entry per campaign tracking its progress through the call sequence.
const (
	LedgerPending    = "pending"
	LedgerInProgress = "in_progress"
	LedgerCompleted  = "completed"
	LedgerFailed     = "failed"
)

// Call outcomes.
const (
	OutcomeAnswered  = "answered"
	OutcomeNoAnswer  = "no_answer"
	OutcomeBusy      = "busy"
	OutcomeVoicemail = "voicemail"
)

var validOutcomes = map[string]bool{
	OutcomeAnswered:  true,
	OutcomeNoAnswer:  true,
	OutcomeBusy:      true,
	OutcomeVoicemail: true,
}

// NormalizeOutcome maps free-form outcome text to its canonical form:
// lowercased with spaces and hyphens folded to underscores.
func NormalizeOutcome(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// IsValidOutcome reports whether the (already normalized) outcome is known.
func IsValidOutcome(outcome string) bool {
	return validOutcomes[outcome]
}

// LedgerEntry is the state the decision operates on.
type LedgerEntry struct {
	Status       string
	AttemptsMade int
	MaxAttempts  int
}

// Decision is the computed next state for a ledger entry after a call.
type Decision struct {
	// Status is the entry's next status.
	Status string
	// AttemptsMade is the new attempt count, incremented by one.
	AttemptsMade int
	// NextAttemptAt is set only when the entry stays pending for retry.
	NextAttemptAt *time.Time
	// JustCompleted is true when this call moved the entry into the
	// completed status. The campaign's completed counter must be
	// incremented exactly when this is true.
	JustCompleted bool
	// Exhausted is true when the entry failed because the attempt
	// ceiling was reached.
	Exhausted bool
}

// Apply runs the outcome decision table against a ledger entry:
//
//	answered                  -> completed
//	attempts reached ceiling  -> failed
//	anything else             -> pending, retry after the delay
//
// Entries already completed or failed are terminal; Apply returns the
// unchanged state with JustCompleted false so repeated calls cannot
// double-count.
func Apply(entry LedgerEntry, outcome string, now time.Time, retryDelay time.Duration) Decision {
	if entry.Status == LedgerCompleted || entry.Status == LedgerFailed {
		return Decision{
			Status:       entry.Status,
			AttemptsMade: entry.AttemptsMade,
		}
	}

	attempts := entry.AttemptsMade + 1

	if outcome == OutcomeAnswered {
		return Decision{
			Status:        LedgerCompleted,
			AttemptsMade:  attempts,
			JustCompleted: true,
		}
	}

	if attempts >= entry.MaxAttempts {
		return Decision{
			Status:       LedgerFailed,
			AttemptsMade: attempts,
			Exhausted:    true,
		}
	}

	next := now.Add(retryDelay)
	return Decision{
		Status:        LedgerPending,
		AttemptsMade:  attempts,
		NextAttemptAt: &next,
	}
}

// LeadStatusFor maps a call outcome to the lead status it implies.
func LeadStatusFor(outcome string) string {
	switch outcome {
	case OutcomeAnswered:
		return "completed"
	case OutcomeBusy:
		return "busy"
	case OutcomeNoAnswer:
		return "no_answer"
	case OutcomeVoicemail:
		return "no_response"
	default:
		return ""
	}
}
