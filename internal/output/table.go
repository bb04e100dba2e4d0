package output

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/uosnotice/programrank/internal/database"
	"github.com/uosnotice/programrank/internal/dedup"
	"github.com/uosnotice/programrank/internal/program"
	"github.com/uosnotice/programrank/internal/recommend"
)

// Table writes data as a formatted table to stdout
func Table(data any) error {
	return TableTo(os.Stdout, data)
}

// TableTo writes data as a formatted table to the given writer
func TableTo(w io.Writer, data any) error {
	switch v := data.(type) {
	case []program.Program:
		return programsTable(w, v)
	case *program.Program:
		return programDetail(w, v)
	case *recommend.Result:
		return resultTable(w, v)
	case *recommend.Explanation:
		return explanationTable(w, v)
	case *dedup.Report:
		return dedupTable(w, v)
	case *database.DedupRun:
		return dedupRunDetail(w, v)
	case []database.DedupRun:
		return dedupRunsTable(w, v)
	case *database.Stats:
		return statsTable(w, v)
	case []program.Grade:
		return gradesTable(w, v)
	case []string:
		for _, s := range v {
			fmt.Fprintln(w, s)
		}
		return nil
	default:
		return fmt.Errorf("unsupported data type for table output: %T", data)
	}
}

func programsTable(w io.Writer, programs []program.Program) error {
	if len(programs) == 0 {
		fmt.Fprintln(w, "No programs found.")
		return nil
	}

	now := time.Now()
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Title", "Categories", "Source", "Deadline")
	for _, p := range programs {
		if err := table.Append(
			strconv.FormatInt(p.ID, 10),
			truncate(p.Title, 40),
			strings.Join(p.Categories, ","),
			string(p.Source),
			formatDeadline(&p, now),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

func programDetail(w io.Writer, p *program.Program) error {
	fmt.Fprintf(w, "ID:          %d\n", p.ID)
	fmt.Fprintf(w, "Title:       %s\n", p.Title)
	if p.Link != "" {
		fmt.Fprintf(w, "Link:        %s\n", p.Link)
	}
	fmt.Fprintf(w, "Source:      %s\n", p.Source)
	fmt.Fprintf(w, "Categories:  %s\n", strings.Join(p.Categories, ", "))
	fmt.Fprintf(w, "Departments: %s\n", strings.Join(p.Departments, ", "))
	fmt.Fprintf(w, "Grades:      %s\n", formatGrades(p.Grades))
	fmt.Fprintf(w, "Applies:     %s ~ %s\n", formatDate(p.AppStart), formatDate(p.AppEnd))
	fmt.Fprintf(w, "Deadline:    %s\n", formatDeadline(p, time.Now()))

	if p.Content != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, wordWrap(p.Content, 78))
	}

	return nil
}

func resultTable(w io.Writer, r *recommend.Result) error {
	if len(r.Items) == 0 {
		fmt.Fprintln(w, "No matching programs.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "ID", "Title", "Score", "Rule", "Field", "Reasons")
	for i, item := range r.Items {
		if err := table.Append(
			strconv.Itoa(i+1),
			strconv.FormatInt(item.Program.ID, 10),
			truncate(item.Program.Title, 36),
			formatScore(item.Score),
			formatScore(item.RuleScore),
			formatScore(item.FieldScore),
			strings.Join(item.Reasons, "; "),
		); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "Showing %d of %d matching programs\n", len(r.Items), r.TotalCount)
	return nil
}

func explanationTable(w io.Writer, e *recommend.Explanation) error {
	fmt.Fprintf(w, "Program %d\n", e.ProgramID)

	table := tablewriter.NewWriter(w)
	table.Header("Dimension", "Score", "Reason")
	rows := []struct {
		name string
		c    recommend.Component
	}{
		{"department", e.Department},
		{"grade", e.Grade},
		{"interests", e.Interests},
		{"deadline", e.Deadline},
		{"field", e.Field},
	}
	for _, row := range rows {
		if err := table.Append(row.name, formatScore(row.c.Score), row.c.Reason); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "Rule subtotal: %s\n", formatScore(e.RuleSubtotal))
	fmt.Fprintf(w, "Field score:   %s\n", formatScore(e.FieldScore))
	fmt.Fprintf(w, "Total score:   %s\n", formatScore(e.TotalScore))
	return nil
}

func dedupTable(w io.Writer, r *dedup.Report) error {
	mode := "applied"
	if r.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(w, "Scanned %d programs (%s), %d cross-source comparisons\n", r.Scanned, mode, r.Comparisons)

	if len(r.Groups) == 0 {
		fmt.Fprintln(w, "No duplicates found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Keep", "Remove", "Title")
	for _, g := range r.Groups {
		if err := table.Append(
			strconv.FormatInt(g.KeeperID, 10),
			joinIDs(g.RemovedIDs),
			truncate(g.Title, 50),
		); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%d groups, %d programs to remove\n", len(r.Groups), len(r.RemovedIDs()))
	return nil
}

func dedupRunDetail(w io.Writer, run *database.DedupRun) error {
	fmt.Fprintf(w, "Run:       %s\n", run.ID)
	fmt.Fprintf(w, "Threshold: %.2f (%s)\n", run.Threshold, run.Keeper)
	fmt.Fprintf(w, "Groups:    %d\n", run.Groups)
	fmt.Fprintf(w, "Kept:      %d\n", run.Kept)
	fmt.Fprintf(w, "Deleted:   %d\n", run.Deleted)
	if run.Failed > 0 {
		fmt.Fprintf(w, "Failed:    %d\n", run.Failed)
	}
	fmt.Fprintf(w, "Took:      %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	return nil
}

func dedupRunsTable(w io.Writer, runs []database.DedupRun) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No dedup runs recorded.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Started", "Threshold", "Keeper", "Groups", "Deleted", "Failed")
	for _, run := range runs {
		if err := table.Append(
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f", run.Threshold),
			run.Keeper,
			strconv.Itoa(run.Groups),
			strconv.Itoa(run.Deleted),
			strconv.Itoa(run.Failed),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

func statsTable(w io.Writer, s *database.Stats) error {
	fmt.Fprintln(w, "Program Statistics")
	fmt.Fprintln(w, strings.Repeat("-", 30))
	fmt.Fprintf(w, "Total programs:         %d\n", s.TotalPrograms)
	fmt.Fprintf(w, "Open:                   %d\n", s.OpenPrograms)
	fmt.Fprintf(w, "Closed:                 %d\n", s.ClosedPrograms)
	fmt.Fprintf(w, "No deadline:            %d\n", s.NoDeadline)
	fmt.Fprintf(w, "Dedup runs:             %d\n", s.DedupRuns)

	if len(s.BySource) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "By source:")
		for _, k := range sortedKeys(s.BySource) {
			fmt.Fprintf(w, "  %-20s %d\n", k, s.BySource[k])
		}
	}

	if len(s.ByCategory) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "By category:")
		for _, c := range program.Categories {
			if n, ok := s.ByCategory[c]; ok {
				fmt.Fprintf(w, "  %-20s %d\n", c, n)
			}
		}
	}

	return nil
}

func gradesTable(w io.Writer, grades []program.Grade) error {
	table := tablewriter.NewWriter(w)
	table.Header("Code", "Name")
	for _, g := range grades {
		if err := table.Append(strconv.Itoa(g.Code), g.Name); err != nil {
			return err
		}
	}
	return table.Render()
}

func formatDeadline(p *program.Program, now time.Time) string {
	days, ok := p.DaysUntilDeadline(now)
	switch {
	case !ok:
		return "-"
	case days < 0:
		return "closed"
	case days == 0:
		return "today"
	default:
		return fmt.Sprintf("D-%d", days)
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "?"
	}
	return t.Format(time.DateOnly)
}

func formatGrades(grades []int) string {
	names := make([]string, len(grades))
	for i, g := range grades {
		names[i] = program.GradeName(g)
	}
	return strings.Join(names, ", ")
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// truncate shortens s to max runes
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// wordWrap wraps text at the specified width
func wordWrap(text string, width int) string {
	var result strings.Builder
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		if len([]rune(line)) <= width {
			result.WriteString(line)
			result.WriteString("\n")
			continue
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}

		currentLine := words[0]
		for _, word := range words[1:] {
			if len([]rune(currentLine))+1+len([]rune(word)) <= width {
				currentLine += " " + word
			} else {
				result.WriteString(currentLine)
				result.WriteString("\n")
				currentLine = word
			}
		}
		result.WriteString(currentLine)
		result.WriteString("\n")
	}

	return strings.TrimSuffix(result.String(), "\n")
}
