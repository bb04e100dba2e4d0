package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uosnotice/programrank/internal/classifier"
	"github.com/uosnotice/programrank/internal/database"
	"github.com/uosnotice/programrank/internal/output"
	"github.com/uosnotice/programrank/internal/progress"
)

var classifyApply bool

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Re-classify stored programs by keyword",
	Long: `Run the keyword classifier over every stored program and report the
programs whose categories would change.

Categories are only replaced when --apply is given.

Examples:
  programrank classify           # Report changes
  programrank classify --apply   # Replace categories`,
	Args: cobra.NoArgs,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().BoolVar(&classifyApply, "apply", false, "Replace the categories of changed programs")
}

type classifyChange struct {
	ProgramID int64    `json:"program_id"`
	Title     string   `json:"title"`
	Before    []string `json:"before"`
	After     []string `json:"after"`
}

type classifyOutput struct {
	Scanned int              `json:"scanned"`
	Applied bool             `json:"applied"`
	Changes []classifyChange `json:"changes"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	programs, err := db.ListPrograms(ctx, database.ListOptions{IncludeClosed: true})
	if err != nil {
		return fmt.Errorf("failed to list programs: %w", err)
	}

	terminal := NewTerminal()
	var onProgress progress.Callback
	if outputFmt != "json" {
		onProgress = terminal.ProgressPrinter()
	}

	results := classifier.New().ClassifyBatch(ctx, programs,
		onProgress.Counter(progress.PhaseClassifying, "Classifying programs"))

	terminal.ClearLine()

	out := classifyOutput{Scanned: len(programs), Applied: classifyApply, Changes: []classifyChange{}}
	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("classification interrupted: %w", r.Error)
		}
		if !r.Changed {
			continue
		}

		p := programs[r.Index]
		if classifyApply {
			if err := db.SetCategories(ctx, p.ID, r.Categories); err != nil {
				return fmt.Errorf("failed to update program %d: %w", p.ID, err)
			}
		}
		out.Changes = append(out.Changes, classifyChange{
			ProgramID: p.ID,
			Title:     p.Title,
			Before:    p.Categories,
			After:     r.Categories,
		})
	}

	if outputFmt == "json" {
		return output.JSON(out)
	}

	if len(out.Changes) == 0 {
		fmt.Printf("Classified %d programs, no category changes.\n", out.Scanned)
		return nil
	}

	for _, c := range out.Changes {
		fmt.Printf("  #%d %s\n", c.ProgramID, c.Title)
		fmt.Printf("      %s -> %s\n", strings.Join(c.Before, ", "), strings.Join(c.After, ", "))
	}
	fmt.Println()
	if classifyApply {
		fmt.Printf("Updated %d of %d programs.\n", len(out.Changes), out.Scanned)
	} else {
		fmt.Printf("%d of %d programs would change. Run 'programrank classify --apply' to update them.\n", len(out.Changes), out.Scanned)
	}
	return nil
}
