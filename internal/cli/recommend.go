package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uosnotice/programrank/internal/output"
	"github.com/uosnotice/programrank/internal/program"
	"github.com/uosnotice/programrank/internal/service"
)

// userFlags holds the student profile flags shared by recommend and explain
type userFlags struct {
	department     string
	grade          int
	interests      []string
	interestFields []string
	includeClosed  bool
}

func (f *userFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.department, "department", "", "Student's department (required)")
	cmd.Flags().IntVar(&f.grade, "grade", 0, "Grade code: 1-5 years, 6 graduate, 7 graduate student, 0 unspecified")
	cmd.Flags().StringSliceVar(&f.interests, "interest", nil, "Interested category (repeatable)")
	cmd.Flags().StringSliceVar(&f.interestFields, "field", nil, "Free-text interest keyword (repeatable)")
	cmd.Flags().BoolVar(&f.includeClosed, "all", false, "Include closed programs")
	cmd.MarkFlagRequired("department")
}

func (f *userFlags) profile() program.UserProfile {
	return program.UserProfile{
		Department:     strings.TrimSpace(f.department),
		Grade:          f.grade,
		Interests:      f.interests,
		InterestFields: f.interestFields,
	}
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend programs for a student",
	Long: `Rank stored programs for a student by department, grade, interests,
deadline proximity and free-text relevance.

Examples:
  programrank recommend --department 컴퓨터과학부 --grade 2
  programrank recommend --department 경영학부 --grade 3 --interest 취업 --field 마케팅
  programrank recommend --department 컴퓨터과학부 --grade 2 --limit 10 --min-score 0`,
	RunE: runRecommend,
}

var (
	recommendUser     userFlags
	recommendLimit    int
	recommendMinScore float64
)

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendUser.bind(recommendCmd)
	recommendCmd.Flags().IntVar(&recommendLimit, "limit", 0, "Maximum number of results (default from config)")
	recommendCmd.Flags().Float64Var(&recommendMinScore, "min-score", 0, "Minimum score 0-100 (default from config)")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, _, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	req := service.RecommendRequest{
		User:          recommendUser.profile(),
		Limit:         recommendLimit,
		IncludeClosed: recommendUser.includeClosed,
	}
	if cmd.Flags().Changed("min-score") {
		minScore := recommendMinScore
		req.MinScore = &minScore
	}

	result, err := svc.Recommend(ctx, req)
	if err != nil {
		return fmt.Errorf("recommend failed: %w", err)
	}

	return output.Output(outputFmt, result)
}
