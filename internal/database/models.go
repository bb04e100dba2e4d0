package database

import (
	"database/sql"
	"fmt"
	"time"
)

// ListOptions filters a program listing
type ListOptions struct {
	Department    string    // Matches the department or the unrestricted sentinel
	Grade         *int      // Matches the grade or 0
	Categories    []string  // Matches any
	Source        string    // Exact source
	Query         string    // Case-insensitive title substring
	IncludeClosed bool      // Include programs whose end date is before Today
	Today         time.Time // Zero means time.Now()
	OrderBy       string    // "id" (default), "deadline" or "recent"
	Limit         int
	Offset        int
}

// Order options
const (
	OrderByID       = "id"
	OrderByDeadline = "deadline"
	OrderByRecent   = "recent"
)

// Stats holds aggregate program counts
type Stats struct {
	TotalPrograms  int            `json:"total_programs"`
	OpenPrograms   int            `json:"open_programs"`
	ClosedPrograms int            `json:"closed_programs"`
	NoDeadline     int            `json:"no_deadline"`
	BySource       map[string]int `json:"by_source"`
	ByCategory     map[string]int `json:"by_category"`
	DedupRuns      int            `json:"dedup_runs"`
}

// DedupRun records one applied deduplication
type DedupRun struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Threshold  float64   `json:"threshold"`
	Keeper     string    `json:"keeper"`
	Groups     int       `json:"groups"`
	Kept       int       `json:"kept"`
	Deleted    int       `json:"deleted"`
	Failed     int       `json:"failed"` // groups rolled back
}

// NullDate converts an optional date to a nullable YYYY-MM-DD column value
func NullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.DateOnly), Valid: true}
}

// DatePtr parses a nullable YYYY-MM-DD column value
func DatePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, ns.String)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", ns.String, err)
	}
	return &t, nil
}
