package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/uosnotice/programrank/internal/output"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show program statistics",
	Long: `Display aggregate statistics about the stored programs.

Examples:
  programrank stats          # Counts by deadline state, source and category
  programrank stats --runs 5 # Also list the last 5 applied dedup runs`,
	RunE: runStats,
}

var statsRuns int

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&statsRuns, "runs", 0, "Number of recent dedup runs to list")
}

func runStats(cmd *cobra.Command, args []string) error {
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

	stats, err := db.GetStats(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if err := output.Output(outputFmt, stats); err != nil {
		return err
	}

	if statsRuns <= 0 {
		return nil
	}

	runs, err := db.ListDedupRuns(ctx, statsRuns)
	if err != nil {
		return fmt.Errorf("failed to list dedup runs: %w", err)
	}

	if outputFmt != "json" {
		fmt.Println()
	}
	return output.Output(outputFmt, runs)
}
