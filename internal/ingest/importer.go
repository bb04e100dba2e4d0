package ingest

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/uosnotice/programrank/internal/classifier"
	"github.com/uosnotice/programrank/internal/program"
	"github.com/uosnotice/programrank/internal/progress"
)

// Store is the part of the program store an import writes to
type Store interface {
	GetProgramByLink(ctx context.Context, link string) (*program.Program, error)
	CreateProgram(ctx context.Context, p *program.Program) error
	SetCategories(ctx context.Context, id int64, categories []string) error
}

// Options configures an import
type Options struct {
	DryRun   bool              // Convert and check links without writing
	Progress progress.Callback // Optional progress callback
}

// Result contains the results of an import
type Result struct {
	Read    int     `json:"read"`
	Created int     `json:"created"`
	Merged  int     `json:"merged"`  // existing links that gained categories
	Skipped int     `json:"skipped"` // existing links with nothing new
	Invalid int     `json:"invalid"`
	IDs     []int64 `json:"ids"` // created program ids
	Errors  []error `json:"-"`
}

// Importer converts crawler records and stores them, skipping links that
// are already known
type Importer struct {
	store      Store
	classifier *classifier.Classifier
	logger     zerolog.Logger
}

// New creates an Importer. A nil classifier leaves records without
// categories to be rejected by the store.
func New(store Store, cls *classifier.Classifier, logger zerolog.Logger) *Importer {
	return &Importer{
		store:      store,
		classifier: cls,
		logger:     logger,
	}
}

// Import converts and stores records
func (im *Importer) Import(ctx context.Context, records []Record, opts Options) (*Result, error) {
	result := &Result{Read: len(records), IDs: []int64{}}
	report := opts.Progress.Report

	converted := make([]program.Program, 0, len(records))
	for i, rec := range records {
		report(progress.PhaseConverting, i+1, len(records), "Converting records")

		p, err := Convert(rec, im.classifier)
		if err != nil {
			result.Invalid++
			result.Errors = append(result.Errors, fmt.Errorf("record %d (%q): %w", i+1, rec.Title, err))
			continue
		}
		converted = append(converted, p)
	}

	seen := make(map[string]bool)
	for i := range converted {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		report(progress.PhaseStoring, i+1, len(converted), "Storing programs")

		p := &converted[i]
		if p.Link != "" && seen[p.Link] && opts.DryRun {
			result.Skipped++
			continue
		}
		seen[p.Link] = true

		if err := im.save(ctx, p, opts.DryRun, result); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to store %q: %w", p.Title, err))
		}
	}

	im.logger.Info().
		Int("read", result.Read).
		Int("created", result.Created).
		Int("merged", result.Merged).
		Int("skipped", result.Skipped).
		Int("invalid", result.Invalid).
		Bool("dry_run", opts.DryRun).
		Msg("import finished")

	return result, nil
}

func (im *Importer) save(ctx context.Context, p *program.Program, dryRun bool, result *Result) error {
	if p.Link != "" {
		existing, err := im.store.GetProgramByLink(ctx, p.Link)
		if err != nil {
			return err
		}
		if existing != nil {
			return im.merge(ctx, existing, p.Categories, dryRun, result)
		}
	}

	if dryRun {
		result.Created++
		return nil
	}

	if err := im.store.CreateProgram(ctx, p); err != nil {
		return err
	}
	result.Created++
	result.IDs = append(result.IDs, p.ID)
	return nil
}

// merge adds categories a re-crawled announcement gained since it was stored
func (im *Importer) merge(ctx context.Context, existing *program.Program, categories []string, dryRun bool, result *Result) error {
	merged := slices.Clone(existing.Categories)
	for _, c := range categories {
		if !slices.Contains(merged, c) {
			merged = append(merged, c)
		}
	}

	if len(merged) == len(existing.Categories) {
		result.Skipped++
		return nil
	}

	if !dryRun {
		if err := im.store.SetCategories(ctx, existing.ID, merged); err != nil {
			return err
		}
	}

	im.logger.Debug().
		Int64("program_id", existing.ID).
		Strs("categories", merged).
		Msg("merged categories into existing program")
	result.Merged++
	return nil
}
