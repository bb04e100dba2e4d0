package cli

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/uosnotice/programrank/internal/progress"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
	ColorGray   = "\033[90m"
)

// Spinner frames for animated progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Terminal provides terminal-aware output utilities
type Terminal struct {
	IsTerminal   bool
	UseColor     bool
	spinnerIndex int
}

// NewTerminal creates a new Terminal instance
func NewTerminal() *Terminal {
	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	return &Terminal{
		IsTerminal: isTerminal,
		UseColor:   isTerminal, // Only use color in terminal
	}
}

// ClearLine clears the current line (terminal only)
func (t *Terminal) ClearLine() {
	if t.IsTerminal {
		fmt.Print("\r\033[K")
	}
}

// Flush ensures output is written immediately
func (t *Terminal) Flush() {
	os.Stdout.Sync()
}

// Spinner returns the next spinner frame
func (t *Terminal) Spinner() string {
	if !t.IsTerminal {
		return ""
	}
	frame := spinnerFrames[t.spinnerIndex]
	t.spinnerIndex = (t.spinnerIndex + 1) % len(spinnerFrames)
	return frame
}

// Color wraps text in ANSI color codes (terminal only)
func (t *Terminal) Color(color, text string) string {
	if !t.UseColor {
		return text
	}
	return color + text + ColorReset
}

// FormatETA formats a duration as a human-readable ETA string
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s > 0 {
			return fmt.Sprintf("%dm%ds", m, s)
		}
		return fmt.Sprintf("%dm", m)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

// PhaseColor returns the appropriate color for a progress phase
func PhaseColor(phase progress.Phase) string {
	switch phase {
	case progress.PhaseReading:
		return ColorCyan
	case progress.PhaseConverting:
		return ColorBlue
	case progress.PhaseClassifying:
		return ColorPurple
	case progress.PhaseStoring:
		return ColorGreen
	case progress.PhaseScanning:
		return ColorYellow
	case progress.PhaseApplying:
		return ColorRed
	default:
		return ColorWhite
	}
}

// ProgressPrinter returns a progress callback that redraws a single status
// line on a terminal and prints one line per phase (plus every 10 items)
// otherwise. The callback may be invoked from several goroutines.
func (t *Terminal) ProgressPrinter() progress.Callback {
	var mu sync.Mutex
	var lastPhase progress.Phase
	var phaseStartTime time.Time

	return func(p progress.Progress) {
		mu.Lock()
		defer mu.Unlock()

		// Track phase start time for ETA
		if p.Phase != lastPhase {
			phaseStartTime = time.Now()
		}
		p.StartedAt = phaseStartTime

		t.ClearLine()

		var msg string
		if p.Total > 0 {
			var eta string
			if etaDur := p.ETA(); etaDur > 0 {
				eta = fmt.Sprintf(" (ETA: %s)", FormatETA(etaDur))
			}
			msg = fmt.Sprintf("%s: %d/%d (%d%%)%s", p.Description, p.Current, p.Total, p.Percentage(), eta)
		} else {
			msg = fmt.Sprintf("%s %s...", t.Spinner(), p.Description)
		}

		if t.UseColor {
			msg = t.Color(PhaseColor(p.Phase), msg)
		}

		if t.IsTerminal {
			fmt.Print(msg)
			t.Flush()
		} else if p.Phase != lastPhase || p.Current%10 == 0 || p.Current == p.Total {
			fmt.Println(msg)
		}
		lastPhase = p.Phase
	}
}
