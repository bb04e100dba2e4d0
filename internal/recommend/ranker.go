package recommend

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/uosnotice/programrank/internal/program"
)

// RankOptions are the per-request ranking parameters
type RankOptions struct {
	Limit         int       `json:"limit" validate:"gte=0"`                     // 0 uses the configured default
	MinScore      *float64  `json:"min_score" validate:"omitnil,gte=0,lte=100"` // nil uses the configured default
	IncludeClosed bool      `json:"include_closed"`
	Now           time.Time `json:"-"` // evaluation time; zero means time.Now()
}

// ScoredProgram is one ranked program with its explanation
type ScoredProgram struct {
	Program    program.Program `json:"program"`
	Score      float64         `json:"score"`
	RuleScore  float64         `json:"rule_score"`
	FieldScore float64         `json:"field_score"`
	Reasons    []string        `json:"reasons"`
}

// Result is the ordered ranking output
type Result struct {
	Items         []ScoredProgram `json:"items"`
	TotalCount    int             `json:"total_count"` // matches before truncation to the limit
	FieldDegraded bool            `json:"-"`
}

// Ranker blends rule and field relevance scores into an ordered result
type Ranker struct {
	config Config
	rules  *RuleScorer
	fields *FieldScorer
	logger zerolog.Logger
}

// Option configures a Ranker
type Option func(*Ranker)

// WithLogger sets the logger used for degraded scoring warnings
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Ranker) {
		r.logger = logger
	}
}

// NewRanker creates a Ranker from a validated configuration
func NewRanker(cfg Config, opts ...Option) (*Ranker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranking config: %w", err)
	}

	r := &Ranker{
		config: cfg,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.rules = NewRuleScorer(cfg.Rule)
	r.fields = NewFieldScorer(cfg.Field, r.logger)
	return r, nil
}

// Config returns the ranker's configuration
func (r *Ranker) Config() Config {
	return r.config
}

// Rank scores every open program in pool for user and returns the best
// matches. The result depends only on its arguments.
func (r *Ranker) Rank(user program.UserProfile, pool []program.Program, opts RankOptions) (*Result, error) {
	if err := ValidateUser(user); err != nil {
		return nil, err
	}
	if err := ValidateOptions(opts, r.config); err != nil {
		return nil, err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	limit := opts.Limit
	if limit == 0 {
		limit = r.config.DefaultLimit
	}
	minScore := r.config.DefaultMinScore
	if opts.MinScore != nil {
		minScore = *opts.MinScore
	}

	candidates := make([]program.Program, 0, len(pool))
	for _, p := range pool {
		if !opts.IncludeClosed && p.IsClosed(now) {
			continue
		}
		candidates = append(candidates, p)
	}

	result := &Result{Items: []ScoredProgram{}}
	if len(candidates) == 0 {
		return result, nil
	}

	fields := r.fields.Score(user, candidates)
	result.FieldDegraded = fields.Degraded

	for i := range candidates {
		p := &candidates[i]
		rule := r.rules.Score(user, p, now)
		field := fields.Scores[i]

		score := r.config.Blend(rule.Total(), field)
		if score < minScore {
			continue
		}

		reasons := rule.Reasons()
		if reason := fieldReason(user, field); reason != "" {
			reasons = append(reasons, reason)
		}

		result.Items = append(result.Items, ScoredProgram{
			Program:    *p,
			Score:      score,
			RuleScore:  rule.Total(),
			FieldScore: field,
			Reasons:    reasons,
		})
	}

	sort.Slice(result.Items, func(i, j int) bool {
		return less(&result.Items[i], &result.Items[j])
	})

	result.TotalCount = len(result.Items)
	if len(result.Items) > limit {
		result.Items = result.Items[:limit]
	}
	return result, nil
}

// less orders by score descending, then soonest deadline (programs without
// one last), then id ascending
func less(a, b *ScoredProgram) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}

	ae, be := a.Program.AppEnd, b.Program.AppEnd
	switch {
	case ae != nil && be == nil:
		return true
	case ae == nil && be != nil:
		return false
	case ae != nil && be != nil && !ae.Equal(*be):
		return ae.Before(*be)
	}

	return a.Program.ID < b.Program.ID
}

func fieldReason(user program.UserProfile, field float64) string {
	if field <= 0 {
		return ""
	}
	var fields []string
	for _, f := range user.InterestFields {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fmt.Sprintf("관심분야 유사도 %.1f점: %s", field, strings.Join(fields, ", "))
}
