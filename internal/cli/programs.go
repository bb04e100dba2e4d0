package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uosnotice/programrank/internal/database"
	"github.com/uosnotice/programrank/internal/output"
	"github.com/uosnotice/programrank/internal/program"
)

var programsCmd = &cobra.Command{
	Use:     "programs",
	Aliases: []string{"list"},
	Short:   "List stored programs",
	Long: `List stored programs with optional eligibility filters.

Closed programs (application deadline before today) are hidden unless
--all is given.

Examples:
  programrank programs                              # Open programs
  programrank programs --department 컴퓨터과학부 --grade 2
  programrank programs --category 공모전 --category 특강
  programrank programs --order deadline --limit 10
  programrank programs -o json                      # Output as JSON`,
	RunE: runPrograms,
}

var (
	programsDepartment string
	programsGrade      int
	programsCategories []string
	programsSource     string
	programsQuery      string
	programsAll        bool
	programsOrder      string
	programsLimit      int
	programsOffset     int
)

func init() {
	rootCmd.AddCommand(programsCmd)

	programsCmd.Flags().StringVar(&programsDepartment, "department", "", "Only programs open to this department")
	programsCmd.Flags().IntVar(&programsGrade, "grade", -1, "Only programs open to this grade (0-7)")
	programsCmd.Flags().StringSliceVar(&programsCategories, "category", nil, "Only programs in any of these categories")
	programsCmd.Flags().StringVar(&programsSource, "source", "", "Only programs from this source (portal, uostory, unknown)")
	programsCmd.Flags().StringVarP(&programsQuery, "query", "q", "", "Case-insensitive title search")
	programsCmd.Flags().BoolVar(&programsAll, "all", false, "Include closed programs")
	programsCmd.Flags().StringVar(&programsOrder, "order", database.OrderByID, "Sort order (id, deadline, recent)")
	programsCmd.Flags().IntVar(&programsLimit, "limit", 0, "Maximum number of results")
	programsCmd.Flags().IntVar(&programsOffset, "offset", 0, "Number of results to skip")
}

func runPrograms(cmd *cobra.Command, args []string) error {
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

	opts, err := programListOptions()
	if err != nil {
		return err
	}

	programs, err := db.ListPrograms(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to list programs: %w", err)
	}

	return output.Output(outputFmt, programs)
}

// programListOptions builds list options from the programs command flags
func programListOptions() (database.ListOptions, error) {
	opts := database.ListOptions{
		Department:    strings.TrimSpace(programsDepartment),
		Query:         strings.TrimSpace(programsQuery),
		IncludeClosed: programsAll,
		OrderBy:       programsOrder,
		Limit:         programsLimit,
		Offset:        programsOffset,
	}

	if programsGrade >= 0 {
		if programsGrade > program.MaxGrade {
			return opts, fmt.Errorf("grade must be between %d and %d", program.MinGrade, program.MaxGrade)
		}
		grade := programsGrade
		opts.Grade = &grade
	}

	for _, c := range programsCategories {
		if !program.IsCategory(c) {
			return opts, fmt.Errorf("unknown category: %s (want one of %s)", c, strings.Join(program.Categories, ", "))
		}
	}
	opts.Categories = programsCategories

	if programsSource != "" {
		src, err := program.ParseSource(programsSource)
		if err != nil {
			return opts, err
		}
		opts.Source = string(src)
	}

	switch opts.OrderBy {
	case database.OrderByID, database.OrderByDeadline, database.OrderByRecent:
	default:
		return opts, fmt.Errorf("unknown order: %s (want id, deadline or recent)", opts.OrderBy)
	}

	if opts.Limit < 0 || opts.Offset < 0 {
		return opts, fmt.Errorf("limit and offset must not be negative")
	}

	return opts, nil
}
