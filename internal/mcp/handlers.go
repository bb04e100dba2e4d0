package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/uosnotice/programrank/internal/database"
	"github.com/uosnotice/programrank/internal/program"
	"github.com/uosnotice/programrank/internal/service"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

func (s *Server) registerHandlers() {
	s.handlers["recommend_programs"] = s.handleRecommendPrograms
	s.handlers["explain_score"] = s.handleExplainScore
	s.handlers["list_programs"] = s.handleListPrograms
	s.handlers["get_program"] = s.handleGetProgram
	s.handlers["find_duplicates"] = s.handleFindDuplicates
	s.handlers["get_stats"] = s.handleGetStats
}

func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

type recommendParams struct {
	program.UserProfile
	Limit         int      `json:"limit"`
	MinScore      *float64 `json:"min_score"`
	IncludeClosed bool     `json:"include_closed"`
}

func (s *Server) handleRecommendPrograms(ctx context.Context, params json.RawMessage) (any, error) {
	var p recommendParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	return s.svc.Recommend(ctx, service.RecommendRequest{
		User:          p.UserProfile,
		Limit:         p.Limit,
		MinScore:      p.MinScore,
		IncludeClosed: p.IncludeClosed,
	})
}

type explainParams struct {
	program.UserProfile
	ProgramID     int64 `json:"program_id"`
	IncludeClosed bool  `json:"include_closed"`
}

func (s *Server) handleExplainScore(ctx context.Context, params json.RawMessage) (any, error) {
	var p explainParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.ProgramID <= 0 {
		return nil, fmt.Errorf("program_id is required")
	}

	return s.svc.Explain(ctx, p.ProgramID, p.UserProfile, p.IncludeClosed)
}

type listProgramsParams struct {
	Department    string   `json:"department"`
	Grade         *int     `json:"grade"`
	Categories    []string `json:"categories"`
	Source        string   `json:"source"`
	Query         string   `json:"query"`
	IncludeClosed bool     `json:"include_closed"`
	Limit         int      `json:"limit"`
}

type listProgramsResult struct {
	Items      []program.Program `json:"items"`
	TotalCount int               `json:"total_count"`
}

func (s *Server) handleListPrograms(ctx context.Context, params json.RawMessage) (any, error) {
	var p listProgramsParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	opts := database.ListOptions{
		Department:    strings.TrimSpace(p.Department),
		Grade:         p.Grade,
		Categories:    p.Categories,
		Query:         strings.TrimSpace(p.Query),
		IncludeClosed: p.IncludeClosed,
		Limit:         p.Limit,
	}

	if p.Grade != nil && (*p.Grade < program.MinGrade || *p.Grade > program.MaxGrade) {
		return nil, fmt.Errorf("grade must be between %d and %d", program.MinGrade, program.MaxGrade)
	}
	for _, c := range p.Categories {
		if !program.IsCategory(c) {
			return nil, fmt.Errorf("unknown category: %s", c)
		}
	}
	if p.Source != "" {
		src, err := program.ParseSource(p.Source)
		if err != nil {
			return nil, err
		}
		opts.Source = string(src)
	}

	switch {
	case opts.Limit <= 0:
		opts.Limit = defaultListLimit
	case opts.Limit > maxListLimit:
		opts.Limit = maxListLimit
	}

	programs, err := s.svc.ListPrograms(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	total, err := s.svc.CountPrograms(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return listProgramsResult{Items: programs, TotalCount: total}, nil
}

type getProgramParams struct {
	ProgramID int64 `json:"program_id"`
}

func (s *Server) handleGetProgram(ctx context.Context, params json.RawMessage) (any, error) {
	var p getProgramParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.ProgramID <= 0 {
		return nil, fmt.Errorf("program_id is required")
	}

	return s.svc.GetProgram(ctx, p.ProgramID)
}

func (s *Server) handleFindDuplicates(ctx context.Context, _ json.RawMessage) (any, error) {
	return s.svc.FindDuplicates(ctx)
}

func (s *Server) handleGetStats(ctx context.Context, _ json.RawMessage) (any, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return stats, nil
}

// Resource handlers

func (s *Server) handleReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case ResourceCategories:
		return marshalResource(program.Categories)
	case ResourceGrades:
		return marshalResource(program.Grades())
	case ResourceSummary:
		return s.getResourceSummary(ctx)
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

func marshalResource(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Server) getResourceSummary(ctx context.Context) (string, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Program Summary\n===============\n")
	fmt.Fprintf(&b, "Total Programs: %d\n", stats.TotalPrograms)
	fmt.Fprintf(&b, "  - Open:        %d\n", stats.OpenPrograms)
	fmt.Fprintf(&b, "  - Closed:      %d\n", stats.ClosedPrograms)
	fmt.Fprintf(&b, "  - No deadline: %d\n", stats.NoDeadline)

	if stats.TotalPrograms == 0 {
		b.WriteString("\nNo programs yet. Run 'programrank import' to load crawled announcements.\n")
		return b.String(), nil
	}

	b.WriteString("\nBy category:\n")
	for _, c := range program.Categories {
		if n := stats.ByCategory[c]; n > 0 {
			fmt.Fprintf(&b, "  - %s: %d\n", c, n)
		}
	}
	fmt.Fprintf(&b, "\nDedup runs: %d\n", stats.DedupRuns)

	return b.String(), nil
}
