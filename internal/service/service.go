// Package service loads candidate pools from the store and runs the
// ranking and duplicate detection core over them. The HTTP, MCP and CLI
// surfaces share it.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/uosnotice/programrank/internal/config"
	"github.com/uosnotice/programrank/internal/database"
	"github.com/uosnotice/programrank/internal/dedup"
	"github.com/uosnotice/programrank/internal/metrics"
	"github.com/uosnotice/programrank/internal/program"
	"github.com/uosnotice/programrank/internal/progress"
	"github.com/uosnotice/programrank/internal/recommend"
)

// ErrNotFound is returned when a program id does not exist
var ErrNotFound = errors.New("program not found")

// RecommendRequest is a ranking request
type RecommendRequest struct {
	User          program.UserProfile `json:"user"`
	Limit         int                 `json:"limit"`
	IncludeClosed bool                `json:"include_closed"`
	MinScore      *float64            `json:"min_score"`
}

// Service runs the ranking and dedup core against the program store
type Service struct {
	db          *database.DB
	ranker      *recommend.Ranker
	dedup       *dedup.Deduplicator
	dedupConfig dedup.Config
	prefilter   bool
	logger      zerolog.Logger
	now         func() time.Time
}

// New creates a Service from the application configuration
func New(db *database.DB, cfg *config.Config, logger zerolog.Logger) (*Service, error) {
	ranker, err := recommend.NewRanker(cfg.RecommendConfig(), recommend.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	dedupConfig := cfg.DeduplicatorConfig()
	dd, err := dedup.New(dedupConfig, logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		db:          db,
		ranker:      ranker,
		dedup:       dd,
		dedupConfig: dedupConfig,
		prefilter:   cfg.Ranking.Prefilter,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Recommend ranks the stored programs for a user
func (s *Service) Recommend(ctx context.Context, req RecommendRequest) (*recommend.Result, error) {
	if err := recommend.ValidateUser(req.User); err != nil {
		return nil, err
	}

	now := s.now()
	pool, err := s.candidates(ctx, req.User, req.IncludeClosed, now)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := s.ranker.Rank(req.User, pool, recommend.RankOptions{
		Limit:         req.Limit,
		MinScore:      req.MinScore,
		IncludeClosed: req.IncludeClosed,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordRank(len(pool), time.Since(start), result.FieldDegraded)

	s.logger.Debug().
		Str("department", req.User.Department).
		Int("grade", req.User.Grade).
		Int("pool", len(pool)).
		Int("matches", result.TotalCount).
		Msg("ranked programs")

	return result, nil
}

// Explain breaks down one program's score for a user over the pool a
// ranking would use
func (s *Service) Explain(ctx context.Context, id int64, user program.UserProfile, includeClosed bool) (*recommend.Explanation, error) {
	if err := recommend.ValidateUser(user); err != nil {
		return nil, err
	}

	target, err := s.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pool, err := s.candidates(ctx, user, includeClosed, now)
	if err != nil {
		return nil, err
	}

	return s.ranker.Explain(user, *target, pool, now)
}

// candidates loads the pool a ranking for user runs over
func (s *Service) candidates(ctx context.Context, user program.UserProfile, includeClosed bool, today time.Time) ([]program.Program, error) {
	opts := database.ListOptions{
		IncludeClosed: includeClosed,
		Today:         today,
	}
	if s.prefilter {
		grade := user.Grade
		opts.Department = user.Department
		opts.Grade = &grade
	}

	pool, err := s.db.ListPrograms(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate programs: %w", err)
	}
	return pool, nil
}

// GetProgram returns one program or ErrNotFound
func (s *Service) GetProgram(ctx context.Context, id int64) (*program.Program, error) {
	p, err := s.db.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return p, nil
}

// ListPrograms lists stored programs
func (s *Service) ListPrograms(ctx context.Context, opts database.ListOptions) ([]program.Program, error) {
	if opts.Today.IsZero() {
		opts.Today = s.now()
	}
	return s.db.ListPrograms(ctx, opts)
}

// Stats returns aggregate counts for the store
func (s *Service) Stats(ctx context.Context) (*database.Stats, error) {
	return s.db.GetStats(ctx, s.now())
}

// FindDuplicates scans every stored program, open or closed, without
// changing the store
func (s *Service) FindDuplicates(ctx context.Context) (*dedup.Report, error) {
	pool, err := s.db.ListPrograms(ctx, database.ListOptions{IncludeClosed: true})
	if err != nil {
		return nil, fmt.Errorf("failed to load programs: %w", err)
	}

	report := s.dedup.Find(pool, true)
	metrics.RecordDedup(len(report.Groups), 0)
	return report, nil
}

// ApplyDuplicates scans every stored program and deletes the non-keepers of
// each duplicate group, one transaction per group
func (s *Service) ApplyDuplicates(ctx context.Context, cb progress.Callback) (*dedup.Report, *database.DedupRun, error) {
	cb.Report(progress.PhaseScanning, 0, 0, "Scanning for duplicates")

	pool, err := s.db.ListPrograms(ctx, database.ListOptions{IncludeClosed: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load programs: %w", err)
	}

	report := s.dedup.Find(pool, false)
	run, err := s.db.ApplyDedup(ctx, report.Groups, s.dedupConfig, cb.Counter(progress.PhaseApplying, "Removing duplicates"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to apply dedup: %w", err)
	}
	metrics.RecordDedup(len(report.Groups), run.Deleted)

	s.logger.Info().
		Str("run_id", run.ID).
		Int("groups", run.Groups).
		Int("deleted", run.Deleted).
		Int("failed", run.Failed).
		Msg("dedup applied")

	return report, run, nil
}

// CountPrograms counts the programs a listing with opts would match
func (s *Service) CountPrograms(ctx context.Context, opts database.ListOptions) (int, error) {
	if opts.Today.IsZero() {
		opts.Today = s.now()
	}
	return s.db.CountPrograms(ctx, opts)
}

// Health pings the store
func (s *Service) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}
