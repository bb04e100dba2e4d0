// Package classifier assigns program categories from announcement text
package classifier

import (
	"context"
	"regexp"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/uosnotice/programrank/internal/program"
)

// ProgressCallback is called with progress updates during batch classification
type ProgressCallback func(current, total int)

// concurrentClassifications is the number of programs classified in parallel
const concurrentClassifications = 5

// DefaultCategory is assigned when no keyword matches
const DefaultCategory = "비교과"

// Rule maps a keyword pattern to a category
type Rule struct {
	Category string
	Pattern  *regexp.Regexp
}

// DefaultRules returns the keyword rules in priority order
func DefaultRules() []Rule {
	return []Rule{
		{Category: "비교과", Pattern: regexp.MustCompile(`비교과`)},
		{Category: "공모전", Pattern: regexp.MustCompile(`공모전|경진대회|콘테스트|contest|competition`)},
		{Category: "멘토링", Pattern: regexp.MustCompile(`멘토링`)},
		{Category: "봉사", Pattern: regexp.MustCompile(`봉사|자원봉사|사회공헌|volunteer`)},
		{Category: "취업", Pattern: regexp.MustCompile(`취업`)},
		{Category: "탐방", Pattern: regexp.MustCompile(`탐방|견학|답사|field.?trip`)},
		{Category: "특강", Pattern: regexp.MustCompile(`특강|강연|세미나|워크샵|lecture|seminar|workshop`)},
	}
}

// Classifier matches announcement text against keyword rules
type Classifier struct {
	rules []Rule
}

// New creates a classifier with the default rules
func New() *Classifier {
	return &Classifier{rules: DefaultRules()}
}

// NewWithRules creates a classifier with custom rules
func NewWithRules(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the categories whose keywords appear in the title. The
// content is consulted only when the title matches nothing, and
// DefaultCategory is returned when neither does. The result is never empty.
func (c *Classifier) Classify(title, content string) []string {
	if cats := c.match(strings.ToLower(title)); len(cats) > 0 {
		return cats
	}
	if cats := c.match(strings.ToLower(content)); len(cats) > 0 {
		return cats
	}
	return []string{DefaultCategory}
}

func (c *Classifier) match(text string) []string {
	if text == "" {
		return nil
	}
	var cats []string
	for _, r := range c.rules {
		if r.Pattern.MatchString(text) && !slices.Contains(cats, r.Category) {
			cats = append(cats, r.Category)
		}
	}
	return cats
}

// BatchResult holds the categories for a single program in a batch
type BatchResult struct {
	Index      int
	ProgramID  int64
	Categories []string
	Changed    bool // differs from the program's current categories as a set
	Error      error
}

// ClassifyBatch classifies programs in parallel with progress reporting.
// Results are index-aligned with programs.
func (c *Classifier) ClassifyBatch(ctx context.Context, programs []program.Program, progress ProgressCallback) []BatchResult {
	results := make([]BatchResult, len(programs))
	resultChan := make(chan BatchResult, len(programs))
	var classifiedCount int64

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrentClassifications)

	total := len(programs)
	if progress != nil {
		progress(0, total)
	}

	for i := range programs {
		wg.Add(1)
		go func(index int, p *program.Program) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				resultChan <- BatchResult{Index: index, ProgramID: p.ID, Error: ctx.Err()}
				return
			}

			cats := c.Classify(p.Title, p.Content)

			if progress != nil {
				current := int(atomic.AddInt64(&classifiedCount, 1))
				progress(current, total)
			}

			resultChan <- BatchResult{
				Index:      index,
				ProgramID:  p.ID,
				Categories: cats,
				Changed:    !sameSet(cats, p.Categories),
			}
		}(i, &programs[i])
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for r := range resultChan {
		results[r.Index] = r
	}

	return results
}

func sameSet(a, b []string) bool {
	for _, v := range a {
		if !slices.Contains(b, v) {
			return false
		}
	}
	for _, v := range b {
		if !slices.Contains(a, v) {
			return false
		}
	}
	return true
}
