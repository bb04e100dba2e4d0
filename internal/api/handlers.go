package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/uosnotice/programrank/internal/database"
	"github.com/uosnotice/programrank/internal/dedup"
	"github.com/uosnotice/programrank/internal/program"
	"github.com/uosnotice/programrank/internal/service"
)

// Listing bounds for GET /programs
const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// ExplainRequest is the body of POST /explain/{programID}
type ExplainRequest struct {
	User          program.UserProfile `json:"user"`
	IncludeClosed bool                `json:"include_closed"`
}

// ProgramsResponse is returned by GET /programs
type ProgramsResponse struct {
	Items      []program.Program `json:"items"`
	TotalCount int               `json:"total_count"`
}

// CategoriesResponse is returned by GET /categories
type CategoriesResponse struct {
	Categories []string        `json:"categories"`
	Grades     []program.Grade `json:"grades"`
}

// DedupRequest is the body of POST /dedup
type DedupRequest struct {
	DryRun *bool `json:"dry_run"` // nil means true
}

// DedupResponse is returned by POST /dedup
type DedupResponse struct {
	DryRun      bool               `json:"dry_run"`
	Scanned     int                `json:"scanned"`
	Comparisons int                `json:"comparisons"`
	Groups      []dedup.Group      `json:"groups"`
	Run         *database.DedupRun `json:"run,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Version:   s.version,
		Timestamp: time.Now().UTC(),
	}

	status := http.StatusOK
	if err := s.svc.Health(r.Context()); err != nil {
		s.logger.Warn().Err(err).Msg("health check failed")
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, r, status, resp)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req service.RecommendRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_JSON", err.Error(), nil)
		return
	}

	result, err := s.svc.Recommend(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	id, ok := programID(w, r)
	if !ok {
		return
	}

	var req ExplainRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_JSON", err.Error(), nil)
		return
	}

	exp, err := s.svc.Explain(r.Context(), id, req.User, req.IncludeClosed)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, exp)
}

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_QUERY", err.Error(), nil)
		return
	}

	programs, err := s.svc.ListPrograms(r.Context(), opts)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	total, err := s.svc.CountPrograms(r.Context(), opts)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	if programs == nil {
		programs = []program.Program{}
	}
	respondJSON(w, r, http.StatusOK, ProgramsResponse{Items: programs, TotalCount: total})
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := programID(w, r)
	if !ok {
		return
	}

	p, err := s.svc.GetProgram(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, p)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, CategoriesResponse{
		Categories: program.Categories,
		Grades:     program.Grades(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, stats)
}

func (s *Server) handleDedup(w http.ResponseWriter, r *http.Request) {
	var req DedupRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_JSON", err.Error(), nil)
		return
	}

	if req.DryRun == nil || *req.DryRun {
		report, err := s.svc.FindDuplicates(r.Context())
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusOK, dedupResponse(report, nil))
		return
	}

	report, run, err := s.svc.ApplyDuplicates(r.Context(), nil)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, dedupResponse(report, run))
}

func dedupResponse(report *dedup.Report, run *database.DedupRun) DedupResponse {
	return DedupResponse{
		DryRun:      report.DryRun,
		Scanned:     report.Scanned,
		Comparisons: report.Comparisons,
		Groups:      report.Groups,
		Run:         run,
	}
}

// programID parses the programID path parameter, responding 400 when it is
// not a positive integer
func programID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "programID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, "INVALID_ID", "program id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

// listOptions parses the GET /programs query
func listOptions(r *http.Request) (database.ListOptions, error) {
	q := r.URL.Query()
	opts := database.ListOptions{
		Department: strings.TrimSpace(q.Get("department")),
		Source:     q.Get("source"),
		Query:      q.Get("q"),
		OrderBy:    q.Get("order"),
		Limit:      defaultListLimit,
	}

	if v := q.Get("grade"); v != "" {
		g, err := strconv.Atoi(v)
		if err != nil || g < program.MinGrade || g > program.MaxGrade {
			return opts, errInvalidParam("grade", "an integer between 0 and 7")
		}
		opts.Grade = &g
	}

	for _, v := range q["category"] {
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				opts.Categories = append(opts.Categories, c)
			}
		}
	}

	if v := q.Get("include_closed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errInvalidParam("include_closed", "a boolean")
		}
		opts.IncludeClosed = b
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			return opts, errInvalidParam("limit", "an integer between 1 and 200")
		}
		opts.Limit = n
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, errInvalidParam("offset", "a non-negative integer")
		}
		opts.Offset = n
	}

	switch opts.OrderBy {
	case "", database.OrderByID, database.OrderByDeadline, database.OrderByRecent:
	default:
		return opts, errInvalidParam("order", "id, deadline or recent")
	}

	return opts, nil
}

type paramError struct {
	name, want string
}

func (e paramError) Error() string {
	return e.name + " must be " + e.want
}

func errInvalidParam(name, want string) error {
	return paramError{name: name, want: want}
}
