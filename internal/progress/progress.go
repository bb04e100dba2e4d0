// Package progress reports the advancement of long batch operations
package progress

import "time"

// Phase names a stage of a batch operation
type Phase string

const (
	PhaseReading     Phase = "reading"
	PhaseConverting  Phase = "converting"
	PhaseClassifying Phase = "classifying"
	PhaseStoring     Phase = "storing"
	PhaseScanning    Phase = "scanning"
	PhaseApplying    Phase = "applying"
)

// Progress represents the current batch progress
type Progress struct {
	Phase       Phase
	Current     int       // Current item being processed
	Total       int       // Total items in this phase
	Description string    // Human-readable description
	StartedAt   time.Time // When this phase started (for ETA calculation)
}

// Callback is called with progress updates during a batch operation
type Callback func(Progress)

// Report invokes cb when it is set
func (cb Callback) Report(phase Phase, current, total int, desc string) {
	if cb == nil {
		return
	}
	cb(Progress{
		Phase:       phase,
		Current:     current,
		Total:       total,
		Description: desc,
	})
}

// Counter adapts cb to the (current, total) callbacks of the store and classifier
func (cb Callback) Counter(phase Phase, desc string) func(current, total int) {
	if cb == nil {
		return nil
	}
	return func(current, total int) {
		cb.Report(phase, current, total, desc)
	}
}

// ETA returns the estimated time remaining based on current progress
func (p Progress) ETA() time.Duration {
	return p.etaAt(time.Now())
}

func (p Progress) etaAt(now time.Time) time.Duration {
	if p.Current == 0 || p.Total == 0 || p.StartedAt.IsZero() {
		return 0
	}
	elapsed := now.Sub(p.StartedAt)
	rate := float64(p.Current) / elapsed.Seconds()
	if rate <= 0 {
		return 0
	}
	remaining := p.Total - p.Current
	return time.Duration(float64(remaining)/rate) * time.Second
}

// Percentage returns the completion percentage (0-100)
func (p Progress) Percentage() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Current * 100) / p.Total
}
