package recommend

import (
	"errors"
	"fmt"

	"github.com/uosnotice/programrank/internal/similarity"
)

// RuleWeights configures the structured match scoring
type RuleWeights struct {
	DepartmentMatch        float64 // User's department is targeted
	DepartmentUnrestricted float64 // Program is open to every department
	GradeMatch             float64 // User's grade is targeted
	GradeUnrestricted      float64 // Program is open to every grade
	InterestPerMatch       float64 // Per category shared with the user's interests
	InterestCap            float64 // Ceiling on the summed interest points
	DeadlineBonus          float64 // Added when the deadline is within the window
	DeadlineWindowDays     int     // Days before the deadline that earn the bonus
	Ceiling                float64 // Subtotal that maps to 100 when blending
}

// FieldConfig configures the free-text relevance scoring
type FieldConfig struct {
	MaxScore     float64 // Points awarded for cosine similarity 1.0
	ContentLimit int     // Characters of content indexed per program (0 = all)
	Vectorizer   similarity.VectorizerConfig
}

// Config is the full set of ranking weights and thresholds
type Config struct {
	Rule  RuleWeights
	Field FieldConfig

	RuleWeight  float64 // Share of the blended score taken from the rule subtotal
	FieldWeight float64 // Share of the blended score taken from field relevance

	DefaultLimit    int     // Results returned when the request sets no limit
	MaxLimit        int     // Largest limit a request may ask for (0 = unbounded)
	DefaultMinScore float64 // Cutoff applied when the request sets none
}

// DefaultConfig returns the production weights
func DefaultConfig() Config {
	return Config{
		Rule: RuleWeights{
			DepartmentMatch:        40,
			DepartmentUnrestricted: 20,
			GradeMatch:             30,
			GradeUnrestricted:      15,
			InterestPerMatch:       10,
			InterestCap:            30,
			DeadlineBonus:          10,
			DeadlineWindowDays:     7,
			Ceiling:                80,
		},
		Field: FieldConfig{
			MaxScore:   40,
			Vectorizer: similarity.DefaultVectorizerConfig(),
		},
		RuleWeight:      0.6,
		FieldWeight:     0.4,
		DefaultLimit:    5,
		MaxLimit:        50,
		DefaultMinScore: 20,
	}
}

// Validate checks that the weights describe a usable blend
func (c Config) Validate() error {
	var errs []error

	if c.Rule.Ceiling <= 0 {
		errs = append(errs, errors.New("rule ceiling must be positive"))
	}
	if c.Rule.InterestPerMatch < 0 || c.Rule.InterestCap < 0 || c.Rule.DeadlineBonus < 0 {
		errs = append(errs, errors.New("rule weights must not be negative"))
	}
	if c.Rule.DeadlineWindowDays < 0 {
		errs = append(errs, errors.New("deadline window must not be negative"))
	}
	if c.Field.MaxScore <= 0 {
		errs = append(errs, errors.New("field max score must be positive"))
	}
	if c.RuleWeight < 0 || c.FieldWeight < 0 {
		errs = append(errs, errors.New("blend weights must not be negative"))
	}
	if sum := c.RuleWeight + c.FieldWeight; sum < 0.999 || sum > 1.001 {
		errs = append(errs, fmt.Errorf("blend weights must sum to 1, got %.3f", sum))
	}
	if c.DefaultLimit < 1 {
		errs = append(errs, errors.New("default limit must be at least 1"))
	}
	if c.MaxLimit != 0 && c.MaxLimit < c.DefaultLimit {
		errs = append(errs, errors.New("max limit must not be below the default limit"))
	}
	if c.DefaultMinScore < 0 || c.DefaultMinScore > 100 {
		errs = append(errs, errors.New("default min score must be between 0 and 100"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Blend normalizes both components onto 0..100 using their ceilings and
// combines them with the configured weights. A rule subtotal above the
// ceiling counts as 100.
func (c Config) Blend(ruleSubtotal, fieldScore float64) float64 {
	var rulePct, fieldPct float64
	if c.Rule.Ceiling > 0 {
		rulePct = clamp(ruleSubtotal/c.Rule.Ceiling*100, 0, 100)
	}
	if c.Field.MaxScore > 0 {
		fieldPct = clamp(fieldScore/c.Field.MaxScore*100, 0, 100)
	}
	return clamp(c.RuleWeight*rulePct+c.FieldWeight*fieldPct, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
