package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uosnotice/programrank/internal/database"
	"github.com/uosnotice/programrank/internal/dedup"
	"github.com/uosnotice/programrank/internal/output"
)

var dedupApply bool

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Find and remove duplicate programs",
	Long: `Find programs that describe the same announcement, across sources
and within one source, and report which program of each group is kept.

Nothing is deleted unless --apply is given. Each group is removed in its
own transaction and the run is recorded.

Examples:
  programrank dedup           # Report duplicate groups
  programrank dedup --apply   # Delete the non-kept programs`,
	Args: cobra.NoArgs,
	RunE: runDedup,
}

func init() {
	rootCmd.AddCommand(dedupCmd)
	dedupCmd.Flags().BoolVar(&dedupApply, "apply", false, "Delete duplicates instead of only reporting them")
}

type dedupOutput struct {
	*dedup.Report
	Run *database.DedupRun `json:"run,omitempty"`
}

func runDedup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, _, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	if !dedupApply {
		report, err := svc.FindDuplicates(ctx)
		if err != nil {
			return fmt.Errorf("dedup failed: %w", err)
		}
		if err := output.Output(outputFmt, report); err != nil {
			return err
		}
		if outputFmt != "json" && len(report.Groups) > 0 {
			fmt.Println()
			fmt.Println("Run 'programrank dedup --apply' to delete them.")
		}
		return nil
	}

	terminal := NewTerminal()
	onProgress := terminal.ProgressPrinter()
	if outputFmt == "json" {
		onProgress = nil
	}

	found, run, err := svc.ApplyDuplicates(ctx, onProgress)

	// Clear progress line
	terminal.ClearLine()

	if err != nil {
		return fmt.Errorf("dedup failed: %w", err)
	}

	if outputFmt == "json" {
		return output.JSON(dedupOutput{Report: found, Run: run})
	}

	if err := output.Table(found); err != nil {
		return err
	}
	fmt.Println()
	return output.Table(run)
}
