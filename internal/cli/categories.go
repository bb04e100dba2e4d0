package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uosnotice/programrank/internal/output"
	"github.com/uosnotice/programrank/internal/program"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List program categories and grade codes",
	RunE:  runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

type categoriesOutput struct {
	Categories []string        `json:"categories"`
	Grades     []program.Grade `json:"grades"`
}

func runCategories(cmd *cobra.Command, args []string) error {
	if outputFmt == "json" {
		return output.JSON(categoriesOutput{
			Categories: program.Categories,
			Grades:     program.Grades(),
		})
	}

	fmt.Println("Categories:")
	if err := output.Table(program.Categories); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("Grades:")
	return output.Table(program.Grades())
}
