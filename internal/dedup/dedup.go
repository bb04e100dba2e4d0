// Package dedup finds programs that describe the same announcement
package dedup

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/uosnotice/programrank/internal/program"
	"github.com/uosnotice/programrank/internal/similarity"
)

// Keeper policies
const (
	KeepLowestID     = "lowest_id"
	KeepCompleteness = "completeness"
)

// Config controls duplicate detection
type Config struct {
	Threshold float64 // Cross-source title similarity at or above which programs merge
	Keeper    string  // Which member of a group survives
}

// DefaultConfig returns the production thresholds
func DefaultConfig() Config {
	return Config{
		Threshold: 0.80,
		Keeper:    KeepLowestID,
	}
}

// Validate checks the threshold range and keeper policy
func (c Config) Validate() error {
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("dedup threshold must be in (0, 1], got %v", c.Threshold)
	}
	switch c.Keeper {
	case KeepLowestID, KeepCompleteness:
		return nil
	default:
		return fmt.Errorf("unknown keeper policy %q (want %s or %s)", c.Keeper, KeepLowestID, KeepCompleteness)
	}
}

// Group is a set of programs considered the same announcement
type Group struct {
	KeeperID   int64   `json:"keeper_id"`
	RemovedIDs []int64 `json:"removed_ids"`
	Title      string  `json:"title"` // keeper's title
}

// Size returns the number of programs in the group
func (g Group) Size() int {
	return 1 + len(g.RemovedIDs)
}

// Report is the outcome of one duplicate scan
type Report struct {
	DryRun      bool    `json:"dry_run"`
	Scanned     int     `json:"scanned"`
	Comparisons int     `json:"comparisons"` // cross-source pairs that reached the full similarity check
	Groups      []Group `json:"groups"`
}

// RemovedIDs returns every id marked for removal, ascending
func (r *Report) RemovedIDs() []int64 {
	var ids []int64
	for _, g := range r.Groups {
		ids = append(ids, g.RemovedIDs...)
	}
	slices.Sort(ids)
	return ids
}

// Deduplicator classifies duplicate programs. It performs no I/O.
type Deduplicator struct {
	config Config
	logger zerolog.Logger
}

// New creates a Deduplicator
func New(cfg Config, logger zerolog.Logger) (*Deduplicator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Deduplicator{config: cfg, logger: logger}, nil
}

// Find groups duplicates in pool. Programs from the same source are
// duplicates only when their strictly normalized titles are equal; programs
// from different sources are duplicates when their loosely normalized titles
// are at least Threshold similar. Pairs are merged transitively.
//
// dryRun is recorded on the report; Find never mutates anything either way.
func (d *Deduplicator) Find(pool []program.Program, dryRun bool) *Report {
	report := &Report{DryRun: dryRun, Groups: []Group{}}

	items := make([]item, 0, len(pool))
	seen := make(map[int64]bool, len(pool))
	for i := range pool {
		p := &pool[i]
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true

		src := p.Source
		if src == "" {
			src = program.SourceFromLink(p.Link)
		}
		items = append(items, item{
			program: p,
			source:  src,
			strict:  similarity.NormalizeStrict(p.Title),
			loose:   similarity.NormalizeLoose(p.Title),
		})
	}
	report.Scanned = len(items)
	if len(items) < 2 {
		return report
	}

	uf := newUnionFind(len(items))

	// Same source: exact strict-title buckets
	buckets := make(map[bucketKey][]int)
	for i, it := range items {
		if it.strict == "" {
			continue
		}
		k := bucketKey{source: it.source, title: it.strict}
		buckets[k] = append(buckets[k], i)
	}
	for _, members := range buckets {
		for _, m := range members[1:] {
			uf.union(members[0], m)
		}
	}

	// Different sources: fuzzy title similarity
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			a, b := &items[i], &items[j]
			if a.source == b.source {
				continue
			}
			if uf.find(i) == uf.find(j) {
				continue
			}
			if similarity.UpperBound(a.loose, b.loose) < d.config.Threshold {
				continue
			}
			report.Comparisons++
			if similarity.Ratio(a.loose, b.loose) >= d.config.Threshold {
				uf.union(i, j)
			}
		}
	}

	members := make(map[int][]int)
	for i := range items {
		root := uf.find(i)
		members[root] = append(members[root], i)
	}
	for _, idx := range members {
		if len(idx) < 2 {
			continue
		}
		report.Groups = append(report.Groups, d.group(items, idx))
	}
	slices.SortFunc(report.Groups, func(a, b Group) int {
		return cmp.Compare(a.KeeperID, b.KeeperID)
	})

	d.logger.Debug().
		Int("scanned", report.Scanned).
		Int("comparisons", report.Comparisons).
		Int("groups", len(report.Groups)).
		Msg("duplicate scan complete")

	return report
}

func (d *Deduplicator) group(items []item, idx []int) Group {
	keeper := idx[0]
	for _, i := range idx[1:] {
		if d.better(items[i].program, items[keeper].program) {
			keeper = i
		}
	}

	g := Group{
		KeeperID: items[keeper].program.ID,
		Title:    items[keeper].program.Title,
	}
	for _, i := range idx {
		if i != keeper {
			g.RemovedIDs = append(g.RemovedIDs, items[i].program.ID)
		}
	}
	slices.Sort(g.RemovedIDs)
	return g
}

// better reports whether a should be kept over b
func (d *Deduplicator) better(a, b *program.Program) bool {
	if d.config.Keeper == KeepCompleteness {
		sa, sb := Completeness(a), Completeness(b)
		if sa != sb {
			return sa > sb
		}
	}
	return a.ID < b.ID
}

// Completeness scores how much detail a record carries: title length up to
// 50, a tenth of the content length up to 200, 10 per application date and
// 20 for UOStory records
func Completeness(p *program.Program) int {
	score := min(len([]rune(p.Title)), 50)
	score += min(len([]rune(p.Content))/10, 200)
	if p.AppStart != nil {
		score += 10
	}
	if p.AppEnd != nil {
		score += 10
	}
	src := p.Source
	if src == "" {
		src = program.SourceFromLink(p.Link)
	}
	if src == program.SourceUOStory {
		score += 20
	}
	return score
}

type item struct {
	program *program.Program
	source  program.Source
	strict  string
	loose   string
}

type bucketKey struct {
	source program.Source
	title  string
}
