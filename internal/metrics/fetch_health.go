package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// PanelHealth summarises fetch outcomes for one dashboard panel.
type PanelHealth struct {
	Panel          string  `json:"panel"`
	SuccessPercent float64 `json:"success_percent"`
	TotalFetches   int     `json:"total_fetches"`
	Succeeded      int     `json:"succeeded"`
	Failed         int     `json:"failed"`
	LastError      string  `json:"last_error,omitempty"`
	LastOK         bool    `json:"last_ok"`
	LastUpdated    string  `json:"last_updated,omitempty"`
}

type panelAcc struct {
	succeeded int
	failed    int
	lastErr   string
	lastOK    bool
	lastTime  time.Time
}

// Tracker accumulates fetch outcomes per panel. Safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	state map[string]*panelAcc
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{state: make(map[string]*panelAcc)}
}

// Record stores the outcome of one fetch. A nil err counts as success.
func (t *Tracker) Record(panel string, err error, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	acc := t.state[panel]
	if acc == nil {
		acc = &panelAcc{}
		t.state[panel] = acc
	}
	if err == nil {
		acc.succeeded++
		acc.lastOK = true
	} else {
		acc.failed++
		acc.lastOK = false
		acc.lastErr = err.Error()
	}
	if at.After(acc.lastTime) {
		acc.lastTime = at
	}
}

// Summary returns per-panel statistics sorted by panel name.
func (t *Tracker) Summary() []PanelHealth {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.state) == 0 {
		return nil
	}

	keys := make([]string, 0, len(t.state))
	for k := range t.state {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	results := make([]PanelHealth, 0, len(keys))
	for _, panel := range keys {
		data := t.state[panel]
		total := data.succeeded + data.failed
		rate := 0.0
		if total > 0 {
			rate = float64(data.succeeded) / float64(total) * 100
		}

		result := PanelHealth{
			Panel:          panel,
			SuccessPercent: round2(rate),
			TotalFetches:   total,
			Succeeded:      data.succeeded,
			Failed:         data.failed,
			LastError:      data.lastErr,
			LastOK:         data.lastOK,
		}
		if !data.lastTime.IsZero() {
			result.LastUpdated = data.lastTime.UTC().Format(time.RFC3339)
		}
		results = append(results, result)
	}
	return results
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
