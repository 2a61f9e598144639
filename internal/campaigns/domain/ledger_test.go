package domain

import (
	"testing"
	"time"
)

func TestApply_AnsweredCompletesEntry(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	entry := LedgerEntry{Status: LedgerPending, AttemptsMade: 1, MaxAttempts: 3}

	decision := Apply(entry, OutcomeAnswered, now, time.Hour)

	if decision.Status != LedgerCompleted {
		t.Fatalf("expected status completed, got %s", decision.Status)
	}
	if decision.AttemptsMade != 2 {
		t.Fatalf("expected 2 attempts, got %d", decision.AttemptsMade)
	}
	if !decision.JustCompleted {
		t.Fatal("expected JustCompleted to be true")
	}
	if decision.NextAttemptAt != nil {
		t.Fatal("completed entries must not schedule a retry")
	}
}

func TestApply_RetrySchedulesNextAttempt(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	entry := LedgerEntry{Status: LedgerPending, AttemptsMade: 0, MaxAttempts: 3}

	decision := Apply(entry, OutcomeNoAnswer, now, 2*time.Hour)

	if decision.Status != LedgerPending {
		t.Fatalf("expected status pending, got %s", decision.Status)
	}
	if decision.AttemptsMade != 1 {
		t.Fatalf("expected 1 attempt, got %d", decision.AttemptsMade)
	}
	if decision.NextAttemptAt == nil {
		t.Fatal("expected a scheduled retry time")
	}
	if !decision.NextAttemptAt.After(now) {
		t.Fatalf("retry time %v must be strictly after %v", decision.NextAttemptAt, now)
	}
	if got, want := *decision.NextAttemptAt, now.Add(2*time.Hour); !got.Equal(want) {
		t.Fatalf("expected retry at %v, got %v", want, got)
	}
}

func TestApply_ExhaustionFailsEntry(t *testing.T) {
	now := time.Now().UTC()

	// Third busy outcome on a three-attempt ledger exhausts it.
	entry := LedgerEntry{Status: LedgerPending, AttemptsMade: 2, MaxAttempts: 3}
	decision := Apply(entry, OutcomeBusy, now, time.Hour)

	if decision.Status != LedgerFailed {
		t.Fatalf("expected status failed, got %s", decision.Status)
	}
	if decision.AttemptsMade != 3 {
		t.Fatalf("expected 3 attempts, got %d", decision.AttemptsMade)
	}
	if !decision.Exhausted {
		t.Fatal("expected Exhausted to be true")
	}
	if decision.JustCompleted {
		t.Fatal("a failed entry must not report JustCompleted")
	}
	if decision.NextAttemptAt != nil {
		t.Fatal("failed entries must not schedule a retry")
	}
}

func TestApply_AnsweredOnLastAttemptWinsOverExhaustion(t *testing.T) {
	now := time.Now().UTC()
	entry := LedgerEntry{Status: LedgerPending, AttemptsMade: 2, MaxAttempts: 3}

	decision := Apply(entry, OutcomeAnswered, now, time.Hour)

	if decision.Status != LedgerCompleted {
		t.Fatalf("expected answered on the last attempt to complete, got %s", decision.Status)
	}
	if !decision.JustCompleted {
		t.Fatal("expected JustCompleted to be true")
	}
}

func TestApply_TerminalStatusesAreIdempotent(t *testing.T) {
	now := time.Now().UTC()

	for _, status := range []string{LedgerCompleted, LedgerFailed} {
		entry := LedgerEntry{Status: status, AttemptsMade: 3, MaxAttempts: 3}
		decision := Apply(entry, OutcomeAnswered, now, time.Hour)

		if decision.Status != status {
			t.Fatalf("terminal status %s changed to %s", status, decision.Status)
		}
		if decision.AttemptsMade != 3 {
			t.Fatalf("terminal status %s changed attempts to %d", status, decision.AttemptsMade)
		}
		if decision.JustCompleted {
			t.Fatalf("replay against %s entry must not report JustCompleted", status)
		}
	}
}

func TestApply_InProgressEntriesTransition(t *testing.T) {
	now := time.Now().UTC()
	entry := LedgerEntry{Status: LedgerInProgress, AttemptsMade: 0, MaxAttempts: 3}

	decision := Apply(entry, OutcomeVoicemail, now, time.Hour)

	if decision.Status != LedgerPending {
		t.Fatalf("expected claimed entry to return to pending, got %s", decision.Status)
	}
	if decision.AttemptsMade != 1 {
		t.Fatalf("expected 1 attempt, got %d", decision.AttemptsMade)
	}
}

func TestNormalizeOutcome(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"Answered", "answered"},
		{"  no-answer ", "no_answer"},
		{"No Answer", "no_answer"},
		{"BUSY", "busy"},
		{"voicemail", "voicemail"},
	}

	for _, tc := range cases {
		if got := NormalizeOutcome(tc.raw); got != tc.want {
			t.Fatalf("NormalizeOutcome(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}

	if IsValidOutcome(NormalizeOutcome("hung up")) {
		t.Fatal("unknown outcome must not validate")
	}
}

func TestLeadStatusFor(t *testing.T) {
	cases := []struct {
		outcome string
		want    string
	}{
		{OutcomeAnswered, "completed"},
		{OutcomeBusy, "busy"},
		{OutcomeNoAnswer, "no_answer"},
		{OutcomeVoicemail, "no_response"},
		{"bogus", ""},
	}

	for _, tc := range cases {
		if got := LeadStatusFor(tc.outcome); got != tc.want {
			t.Fatalf("LeadStatusFor(%q) = %q, want %q", tc.outcome, got, tc.want)
		}
	}
}
