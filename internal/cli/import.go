package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uosnotice/programrank/internal/classifier"
	"github.com/uosnotice/programrank/internal/ingest"
	"github.com/uosnotice/programrank/internal/logging"
	"github.com/uosnotice/programrank/internal/output"
	"github.com/uosnotice/programrank/internal/progress"
)

var (
	importFormat     string
	importDryRun     bool
	importNoClassify bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import crawled program announcements",
	Long: `Import reads a JSON or YAML array of crawler records, converts HTML
content to text, fills missing eligibility with the unrestricted sentinels
and stores each program. Records whose link is already stored only add
categories they gained.

Records without categories are classified by keyword unless --no-classify
is given, in which case they are rejected.

Examples:
  programrank import programs.json
  programrank import programs.yaml --dry-run
  cat programs.json | programrank import - --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importFormat, "format", "", "Input format (json, yaml); inferred from the file extension by default")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Convert and check records without writing")
	importCmd.Flags().BoolVar(&importNoClassify, "no-classify", false, "Reject records without categories instead of classifying them")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	terminal := NewTerminal()
	onProgress := terminal.ProgressPrinter()
	if outputFmt == "json" {
		onProgress = nil
	}

	onProgress.Report(progress.PhaseReading, 0, 0, fmt.Sprintf("Reading %s", path))
	records, err := readRecords(path)
	terminal.ClearLine()
	if err != nil {
		return err
	}

	var cls *classifier.Classifier
	if !importNoClassify {
		cls = classifier.New()
	}

	importer := ingest.New(db, cls, logging.With("ingest"))
	result, err := importer.Import(ctx, records, ingest.Options{
		DryRun:   importDryRun,
		Progress: onProgress,
	})

	// Clear progress line
	terminal.ClearLine()

	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if outputFmt == "json" {
		return output.JSON(result)
	}

	fmt.Println()
	if importDryRun {
		fmt.Println("Import dry run (nothing written):")
	} else {
		fmt.Println("Import complete:")
	}
	fmt.Printf("  Records read:     %d\n", result.Read)
	fmt.Printf("  New programs:     %d\n", result.Created)
	fmt.Printf("  Merged (new cat): %d\n", result.Merged)
	fmt.Printf("  Already stored:   %d\n", result.Skipped)
	fmt.Printf("  Invalid records:  %d\n", result.Invalid)

	if len(result.Errors) > 0 {
		fmt.Println()
		fmt.Printf("Warnings: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  - %v\n", e)
		}
	}

	if result.Created > 0 && !importDryRun {
		fmt.Println()
		fmt.Println("Run 'programrank dedup' to check for cross-source duplicates.")
	}

	return nil
}

// readRecords reads path, or stdin when path is "-"
func readRecords(path string) ([]ingest.Record, error) {
	if path != "-" && importFormat == "" {
		return ingest.ReadFile(path)
	}

	name := importFormat
	if name == "" {
		name = string(ingest.FormatJSON)
	}
	format, err := ingest.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	if path == "-" {
		return ingest.Decode(os.Stdin, format)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	return ingest.Decode(f, format)
}
