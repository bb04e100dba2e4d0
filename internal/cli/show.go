package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/uosnotice/programrank/internal/output"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show program details",
	Long: `Show one program with its categories, eligibility and application window.

Examples:
  programrank show 42
  programrank show 42 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := parseProgramID(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := db.GetProgram(ctx, id)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if p == nil {
		return fmt.Errorf("program not found: %d", id)
	}

	return output.Output(outputFmt, p)
}

func parseProgramID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid program id: %s", s)
	}
	return id, nil
}
