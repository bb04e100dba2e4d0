package recommend

import (
	"time"

	"github.com/uosnotice/programrank/internal/program"
)

// Explanation is the per-dimension breakdown of one program's score
type Explanation struct {
	ProgramID    int64     `json:"program_id"`
	Department   Component `json:"department"`
	Grade        Component `json:"grade"`
	Interests    Component `json:"interests"`
	Deadline     Component `json:"deadline"`
	Field        Component `json:"field"`
	RuleSubtotal float64   `json:"rule_subtotal"`
	FieldScore   float64   `json:"field_score"`
	TotalScore   float64   `json:"total_score"`
}

// Explain breaks down the score target would receive when ranked against
// pool. target joins the pool if it is not already part of it, so field
// relevance is computed over the same corpus a ranking would use.
func (r *Ranker) Explain(user program.UserProfile, target program.Program, pool []program.Program, now time.Time) (*Explanation, error) {
	if err := ValidateUser(user); err != nil {
		return nil, err
	}
	if now.IsZero() {
		now = time.Now()
	}

	idx := -1
	for i := range pool {
		if pool[i].ID == target.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		pool = append(pool[:len(pool):len(pool)], target)
		idx = len(pool) - 1
	}

	rule := r.rules.Score(user, &target, now)
	fields := r.fields.Score(user, pool)
	field := fields.Scores[idx]

	return &Explanation{
		ProgramID:    target.ID,
		Department:   rule.Department,
		Grade:        rule.Grade,
		Interests:    rule.Interests,
		Deadline:     rule.Deadline,
		Field:        Component{Score: field, Reason: fieldReason(user, field)},
		RuleSubtotal: rule.Total(),
		FieldScore:   field,
		TotalScore:   r.config.Blend(rule.Total(), field),
	}, nil
}
