package server

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/oncomatch/trialmatch/internal/extract"
	"github.com/oncomatch/trialmatch/internal/registry"
	"github.com/oncomatch/trialmatch/internal/staging"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := OpenHistory(filepath.Join(t.TempDir(), "attempts.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestHistoryRecordSuccess(t *testing.T) {
	h := openTestHistory(t)

	res := extract.Result{
		Extraction: staging.Extraction{
			TStaging:   "T2",
			NStaging:   "pN1",
			ERStatus:   "Positive",
			HER2:       "Negative",
			Metastasis: "Not present",
			Phase:      staging.PhaseAdjuvant,
		},
		Trials: []registry.Trial{{TrialID: "NCT1"}, {TrialID: "NCT2"}},
	}
	if err := h.RecordSuccess(res); err != nil {
		t.Fatalf("record success: %v", err)
	}

	attempts, err := h.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(attempts))
	}
	a := attempts[0]
	if a.Outcome != "success" {
		t.Errorf("outcome = %q", a.Outcome)
	}
	if a.Phase != "Adjuvant" || a.TStaging != "T2" || a.HER2 != "Negative" {
		t.Errorf("extraction columns not persisted: %+v", a)
	}
	if a.MatchCount != 2 {
		t.Errorf("match_count = %d, want 2", a.MatchCount)
	}
	if a.CreatedAt == "" {
		t.Error("created_at empty")
	}
}

func TestHistoryRecordFailure(t *testing.T) {
	h := openTestHistory(t)

	if err := h.RecordFailure("parse_failure", errors.New("unexpected token")); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	attempts, err := h.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("attempts = %d", len(attempts))
	}
	if attempts[0].Outcome != "parse_failure" {
		t.Errorf("outcome = %q", attempts[0].Outcome)
	}
	if attempts[0].Failure != "unexpected token" {
		t.Errorf("failure = %q", attempts[0].Failure)
	}
}

func TestHistoryRecentOrderAndLimit(t *testing.T) {
	h := openTestHistory(t)

	for i := 0; i < 5; i++ {
		if err := h.RecordFailure("empty_response", nil); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	res := extract.Result{Extraction: staging.Extraction{Phase: staging.PhaseMetastatic}}
	if err := h.RecordSuccess(res); err != nil {
		t.Fatalf("record success: %v", err)
	}

	attempts, err := h.Recent(3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(attempts) != 3 {
		t.Fatalf("attempts = %d, want 3", len(attempts))
	}
	if attempts[0].Outcome != "success" {
		t.Errorf("newest first: got %q", attempts[0].Outcome)
	}
}
