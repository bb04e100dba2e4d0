package recommend

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/uosnotice/programrank/internal/program"
)

// Component is one scored dimension with its explanation. Reason is empty
// when Score is zero.
type Component struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// RuleScore is the itemized structured match for one program
type RuleScore struct {
	Department Component
	Grade      Component
	Interests  Component
	Deadline   Component
}

// Total returns the rule subtotal including the deadline bonus
func (r RuleScore) Total() float64 {
	return r.Department.Score + r.Grade.Score + r.Interests.Score + r.Deadline.Score
}

// Reasons returns one reason per non-zero dimension, in fixed order
func (r RuleScore) Reasons() []string {
	var reasons []string
	for _, c := range []Component{r.Department, r.Grade, r.Interests, r.Deadline} {
		if c.Score > 0 && c.Reason != "" {
			reasons = append(reasons, c.Reason)
		}
	}
	return reasons
}

// RuleScorer computes the structured match between a user and a program
type RuleScorer struct {
	weights RuleWeights
}

// NewRuleScorer creates a RuleScorer with the given weights
func NewRuleScorer(weights RuleWeights) *RuleScorer {
	return &RuleScorer{weights: weights}
}

// Score evaluates one program for one user at time now
func (s *RuleScorer) Score(user program.UserProfile, p *program.Program, now time.Time) RuleScore {
	return RuleScore{
		Department: s.department(user, p),
		Grade:      s.grade(user, p),
		Interests:  s.interests(user, p),
		Deadline:   s.deadline(p, now),
	}
}

func (s *RuleScorer) department(user program.UserProfile, p *program.Program) Component {
	switch {
	case p.HasDepartment(user.Department):
		return Component{Score: s.weights.DepartmentMatch, Reason: fmt.Sprintf("학과 일치: %s", user.Department)}
	case p.IsDepartmentUnrestricted():
		return Component{Score: s.weights.DepartmentUnrestricted, Reason: "학과 제한 없음"}
	default:
		return Component{}
	}
}

func (s *RuleScorer) grade(user program.UserProfile, p *program.Program) Component {
	switch {
	case p.HasGrade(user.Grade):
		return Component{Score: s.weights.GradeMatch, Reason: fmt.Sprintf("학년 일치: %s", program.GradeName(user.Grade))}
	case p.IsGradeUnrestricted():
		return Component{Score: s.weights.GradeUnrestricted, Reason: "학년 제한 없음"}
	default:
		return Component{}
	}
}

func (s *RuleScorer) interests(user program.UserProfile, p *program.Program) Component {
	offered := make(map[string]bool, len(p.Categories))
	for _, c := range p.Categories {
		offered[c] = true
	}

	seen := make(map[string]bool, len(user.Interests))
	var matched []string
	for _, c := range user.Interests {
		if offered[c] && !seen[c] {
			seen[c] = true
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return Component{}
	}

	sort.Slice(matched, func(i, j int) bool {
		ii, jj := program.CategoryIndex(matched[i]), program.CategoryIndex(matched[j])
		if ii != jj {
			return ii < jj
		}
		return matched[i] < matched[j]
	})

	score := min(float64(len(matched))*s.weights.InterestPerMatch, s.weights.InterestCap)
	return Component{Score: score, Reason: fmt.Sprintf("관심사 일치: %s", strings.Join(matched, ", "))}
}

func (s *RuleScorer) deadline(p *program.Program, now time.Time) Component {
	days, ok := p.DaysUntilDeadline(now)
	if !ok || days < 0 || days > s.weights.DeadlineWindowDays {
		return Component{}
	}
	return Component{Score: s.weights.DeadlineBonus, Reason: fmt.Sprintf("마감 임박 (%d일 남음)", days)}
}
