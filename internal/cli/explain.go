package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uosnotice/programrank/internal/output"
)

var explainCmd = &cobra.Command{
	Use:   "explain <id>",
	Short: "Explain how a program scores for a student",
	Long: `Break down one program's score into department, grade, interests,
deadline and field relevance components.

Examples:
  programrank explain 42 --department 컴퓨터과학부 --grade 2 --interest 공모전`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

var explainUser userFlags

func init() {
	rootCmd.AddCommand(explainCmd)
	explainUser.bind(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := parseProgramID(args[0])
	if err != nil {
		return err
	}

	svc, _, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	explanation, err := svc.Explain(ctx, id, explainUser.profile(), explainUser.includeClosed)
	if err != nil {
		return fmt.Errorf("explain failed: %w", err)
	}

	return output.Output(outputFmt, explanation)
}
