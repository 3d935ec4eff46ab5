package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestTrackerSummary(t *testing.T) {
	tr := NewTracker()
	if got := tr.Summary(); got != nil {
		t.Fatalf("empty tracker summary = %v, want nil", got)
	}

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tr.Record("readings", nil, base)
	tr.Record("readings", errors.New("http 500"), base.Add(3*time.Second))
	tr.Record("readings", nil, base.Add(6*time.Second))
	tr.Record("alerts", errors.New("timeout"), base)

	want := []PanelHealth{
		{
			Panel:          "alerts",
			SuccessPercent: 0,
			TotalFetches:   1,
			Failed:         1,
			LastError:      "timeout",
			LastUpdated:    "2025-03-01T10:00:00Z",
		},
		{
			Panel:          "readings",
			SuccessPercent: 66.67,
			TotalFetches:   3,
			Succeeded:      2,
			Failed:         1,
			LastError:      "http 500",
			LastOK:         true,
			LastUpdated:    "2025-03-01T10:00:06Z",
		},
	}
	if diff := cmp.Diff(want, tr.Summary()); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}
}

func TestTrackerKeepsLatestTimestamp(t *testing.T) {
	tr := NewTracker()
	late := time.Date(2025, 3, 1, 10, 0, 9, 0, time.UTC)
	tr.Record("statistics", nil, late)
	tr.Record("statistics", nil, late.Add(-6*time.Second))

	got := tr.Summary()
	if len(got) != 1 || got[0].LastUpdated != "2025-03-01T10:00:09Z" {
		t.Fatalf("unexpected summary %+v", got)
	}
}
