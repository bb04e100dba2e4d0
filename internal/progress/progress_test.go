package progress

import (
	"testing"
	"time"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		current, total int
		want           int
	}{
		{0, 0, 0},
		{0, 10, 0},
		{5, 10, 50},
		{1, 3, 33},
		{10, 10, 100},
	}

	for _, tt := range tests {
		p := Progress{Current: tt.current, Total: tt.total}
		if got := p.Percentage(); got != tt.want {
			t.Errorf("Percentage(%d/%d) = %d, want %d", tt.current, tt.total, got, tt.want)
		}
	}
}

func TestETA(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	p := Progress{Current: 10, Total: 40, StartedAt: start}
	if got := p.etaAt(start.Add(10 * time.Second)); got != 30*time.Second {
		t.Errorf("etaAt() = %v, want 30s", got)
	}

	if got := (Progress{Total: 40, StartedAt: start}).etaAt(start.Add(time.Second)); got != 0 {
		t.Errorf("etaAt() with no progress = %v, want 0", got)
	}
	if got := (Progress{Current: 1, Total: 40}).ETA(); got != 0 {
		t.Errorf("ETA() without start = %v, want 0", got)
	}
}

func TestCallback(t *testing.T) {
	var got []Progress
	cb := Callback(func(p Progress) { got = append(got, p) })

	cb.Report(PhaseStoring, 1, 2, "storing")
	counter := cb.Counter(PhaseApplying, "applying")
	counter(2, 2)

	if len(got) != 2 {
		t.Fatalf("got %d reports, want 2", len(got))
	}
	if got[0].Phase != PhaseStoring || got[0].Current != 1 || got[0].Description != "storing" {
		t.Errorf("first report = %+v", got[0])
	}
	if got[1].Phase != PhaseApplying || got[1].Current != 2 || got[1].Total != 2 {
		t.Errorf("second report = %+v", got[1])
	}
}

func TestCallback_Nil(t *testing.T) {
	var cb Callback
	cb.Report(PhaseReading, 0, 0, "")

	if cb.Counter(PhaseApplying, "") != nil {
		t.Error("Counter() on nil callback should be nil")
	}
}
