package config

import (
	"fmt"
	"time"

	"github.com/uosnotice/programrank/internal/dedup"
	"github.com/uosnotice/programrank/internal/recommend"
	"github.com/uosnotice/programrank/internal/similarity"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Ranking  RankingConfig  `toml:"ranking"`
	Dedup    DedupConfig    `toml:"dedup"`
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
	MCP      MCPConfig      `toml:"mcp"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// RankingConfig contains recommendation defaults and weights
type RankingConfig struct {
	Limit         int               `toml:"limit"`
	MaxLimit      int               `toml:"max_limit"`
	MinScore      float64           `toml:"min_score"`
	IncludeClosed bool              `toml:"include_closed"`
	RuleWeight    float64           `toml:"rule_weight"`
	FieldWeight   float64           `toml:"field_weight"`
	Prefilter     bool              `toml:"prefilter"` // load only department/grade candidates from the store
	Rule          RuleWeightsConfig `toml:"rule"`
	Field         FieldConfig       `toml:"field"`
}

// RuleWeightsConfig contains the structured match points
type RuleWeightsConfig struct {
	DepartmentMatch        float64 `toml:"department_match"`
	DepartmentUnrestricted float64 `toml:"department_unrestricted"`
	GradeMatch             float64 `toml:"grade_match"`
	GradeUnrestricted      float64 `toml:"grade_unrestricted"`
	InterestPerMatch       float64 `toml:"interest_per_match"`
	InterestCap            float64 `toml:"interest_cap"`
	DeadlineBonus          float64 `toml:"deadline_bonus"`
	DeadlineWindowDays     int     `toml:"deadline_window_days"`
	Ceiling                float64 `toml:"ceiling"`
}

// FieldConfig contains free-text relevance settings
type FieldConfig struct {
	MaxScore     float64 `toml:"max_score"`
	MaxFeatures  int     `toml:"max_features"`
	MaxNGram     int     `toml:"max_ngram"`
	ContentLimit int     `toml:"content_limit"`
}

// DedupConfig contains duplicate detection settings
type DedupConfig struct {
	Threshold float64 `toml:"threshold"`
	Keeper    string  `toml:"keeper"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                   string   `toml:"host"`
	Port                   int      `toml:"port"`
	CORSOrigins            []string `toml:"cors_origins"`
	RateLimitRequests      int      `toml:"rate_limit_requests"`
	RateLimitWindowSeconds int      `toml:"rate_limit_window_seconds"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RateLimitWindow returns the rate limit window as a duration
func (s ServerConfig) RateLimitWindow() time.Duration {
	return time.Duration(s.RateLimitWindowSeconds) * time.Second
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MCPConfig contains MCP server settings
type MCPConfig struct {
	Enabled   bool   `toml:"enabled"`
	Transport string `toml:"transport"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	rec := recommend.DefaultConfig()
	dd := dedup.DefaultConfig()

	return &Config{
		Database: DatabaseConfig{
			Path: "~/.local/share/programrank/programrank.db",
		},
		Ranking: RankingConfig{
			Limit:         rec.DefaultLimit,
			MaxLimit:      rec.MaxLimit,
			MinScore:      rec.DefaultMinScore,
			IncludeClosed: false,
			RuleWeight:    rec.RuleWeight,
			FieldWeight:   rec.FieldWeight,
			Prefilter:     true,
			Rule: RuleWeightsConfig{
				DepartmentMatch:        rec.Rule.DepartmentMatch,
				DepartmentUnrestricted: rec.Rule.DepartmentUnrestricted,
				GradeMatch:             rec.Rule.GradeMatch,
				GradeUnrestricted:      rec.Rule.GradeUnrestricted,
				InterestPerMatch:       rec.Rule.InterestPerMatch,
				InterestCap:            rec.Rule.InterestCap,
				DeadlineBonus:          rec.Rule.DeadlineBonus,
				DeadlineWindowDays:     rec.Rule.DeadlineWindowDays,
				Ceiling:                rec.Rule.Ceiling,
			},
			Field: FieldConfig{
				MaxScore:     rec.Field.MaxScore,
				MaxFeatures:  rec.Field.Vectorizer.MaxFeatures,
				MaxNGram:     rec.Field.Vectorizer.MaxNGram,
				ContentLimit: rec.Field.ContentLimit,
			},
		},
		Dedup: DedupConfig{
			Threshold: dd.Threshold,
			Keeper:    dd.Keeper,
		},
		Server: ServerConfig{
			Host:                   "127.0.0.1",
			Port:                   8080,
			CORSOrigins:            []string{"http://localhost:3000"},
			RateLimitRequests:      100,
			RateLimitWindowSeconds: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		MCP: MCPConfig{
			Enabled:   true,
			Transport: "stdio",
		},
	}
}

// RecommendConfig converts the ranking section into the ranker's configuration
func (c *Config) RecommendConfig() recommend.Config {
	vec := similarity.DefaultVectorizerConfig()
	vec.MaxFeatures = c.Ranking.Field.MaxFeatures
	vec.MaxNGram = c.Ranking.Field.MaxNGram

	r := c.Ranking.Rule
	return recommend.Config{
		Rule: recommend.RuleWeights{
			DepartmentMatch:        r.DepartmentMatch,
			DepartmentUnrestricted: r.DepartmentUnrestricted,
			GradeMatch:             r.GradeMatch,
			GradeUnrestricted:      r.GradeUnrestricted,
			InterestPerMatch:       r.InterestPerMatch,
			InterestCap:            r.InterestCap,
			DeadlineBonus:          r.DeadlineBonus,
			DeadlineWindowDays:     r.DeadlineWindowDays,
			Ceiling:                r.Ceiling,
		},
		Field: recommend.FieldConfig{
			MaxScore:     c.Ranking.Field.MaxScore,
			ContentLimit: c.Ranking.Field.ContentLimit,
			Vectorizer:   vec,
		},
		RuleWeight:      c.Ranking.RuleWeight,
		FieldWeight:     c.Ranking.FieldWeight,
		DefaultLimit:    c.Ranking.Limit,
		MaxLimit:        c.Ranking.MaxLimit,
		DefaultMinScore: c.Ranking.MinScore,
	}
}

// DeduplicatorConfig converts the dedup section into the deduplicator's configuration
func (c *Config) DeduplicatorConfig() dedup.Config {
	return dedup.Config{
		Threshold: c.Dedup.Threshold,
		Keeper:    c.Dedup.Keeper,
	}
}
