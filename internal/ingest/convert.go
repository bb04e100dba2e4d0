package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/uosnotice/programrank/internal/classifier"
	"github.com/uosnotice/programrank/internal/program"
)

// ErrEmptyTitle rejects records without a title
var ErrEmptyTitle = errors.New("record has no title")

var (
	horizontalSpace = regexp.MustCompile(`[ \t\x{00a0}]+`)
	paragraphBreak  = regexp.MustCompile(`\n\s*\n`)
	gradeNumber     = regexp.MustCompile(`(\d+)\s*학년`)
	graduate        = regexp.MustCompile(`졸업생?`)
	graduateSchool  = regexp.MustCompile(`대학원생?`)
	allGrades       = regexp.MustCompile(`제한\s*없음|전체`)
	departmentSplit = regexp.MustCompile(`[,/]`)
	dateValue       = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// Convert turns a crawler record into a program ready to store. Records
// without categories are classified from their title and content.
func Convert(rec Record, cls *classifier.Classifier) (program.Program, error) {
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		return program.Program{}, ErrEmptyTitle
	}

	content, err := HTMLToText(rec.Content)
	if err != nil {
		return program.Program{}, fmt.Errorf("failed to extract content text: %w", err)
	}

	p := program.Program{
		Title:   title,
		Link:    strings.TrimSpace(rec.Link),
		Content: content,
	}

	if rec.Source != "" {
		src, err := program.ParseSource(rec.Source)
		if err != nil {
			return program.Program{}, err
		}
		p.Source = src
	}

	p.Categories = knownCategories(rec.Categories)
	if len(p.Categories) == 0 && cls != nil {
		p.Categories = cls.Classify(p.Title, p.Content)
	}

	if len(rec.Departments) > 0 {
		p.Departments = uniqueStrings(rec.Departments)
	} else {
		p.Departments = ParseDepartments(rec.TargetDepartment)
	}

	if len(rec.Grades) > 0 {
		for _, g := range rec.Grades {
			if g < program.MinGrade || g > program.MaxGrade {
				return program.Program{}, fmt.Errorf("grade %d out of range %d..%d", g, program.MinGrade, program.MaxGrade)
			}
		}
		p.Grades = uniqueInts(rec.Grades)
	} else {
		p.Grades = ParseGrades(rec.TargetGrade)
	}

	if p.AppStart, p.AppEnd, err = applicationWindow(rec); err != nil {
		return program.Program{}, err
	}

	p.Normalize()
	return p, nil
}

func applicationWindow(rec Record) (start, end *time.Time, err error) {
	startText := rec.ApplicationStart
	endText := rec.ApplicationEnd
	if startText == "" && endText == "" && rec.ApplicationPeriod != "" {
		startText, endText = ParseDateRange(rec.ApplicationPeriod)
	}
	if startText == "" {
		startText = rec.PostedDate
	}

	if start, err = parseDate("application_start", startText); err != nil {
		return nil, nil, err
	}
	if end, err = parseDate("application_end", endText); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

func parseDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	// Crawlers sometimes append a time of day
	if len(s) > len(time.DateOnly) {
		s = s[:len(time.DateOnly)]
	}
	t, err := program.Date(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: want YYYY-MM-DD", field, s)
	}
	return &t, nil
}

// HTMLToText reduces an HTML fragment to its visible text. Plain text is
// only cleaned.
func HTMLToText(content string) (string, error) {
	if !strings.Contains(content, "<") {
		return CleanContent(content), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, tr, h1, h2, h3, h4, h5, h6, table").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n\n")
	})

	return CleanContent(doc.Text()), nil
}

// CleanContent collapses runs of spaces, joins single line breaks and keeps
// one blank line between paragraphs
func CleanContent(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = horizontalSpace.ReplaceAllString(text, " ")

	paragraphs := paragraphBreak.Split(text, -1)
	kept := paragraphs[:0]
	for _, para := range paragraphs {
		lines := strings.Split(para, "\n")
		for i := range lines {
			lines[i] = strings.TrimSpace(lines[i])
		}
		joined := strings.TrimSpace(strings.Join(lines, " "))
		joined = horizontalSpace.ReplaceAllString(joined, " ")
		if joined != "" {
			kept = append(kept, joined)
		}
	}

	return strings.Join(kept, "\n\n")
}

// ParseDepartments splits a free-text department target into department
// names. Text after a grade marker is ignored, and an empty or unrestricted
// target yields the unrestricted sentinel.
func ParseDepartments(text string) []string {
	deptOnly, _, _ := strings.Cut(text, "학년")

	var depts []string
	for _, d := range departmentSplit.Split(deptOnly, -1) {
		d = strings.TrimRight(strings.TrimSpace(d), ":： ")
		if d == "" || d == program.Unrestricted {
			continue
		}
		depts = append(depts, d)
	}

	if len(depts) == 0 {
		return []string{program.Unrestricted}
	}
	return uniqueStrings(depts)
}

// ParseGrades maps a free-text grade target to grade codes: 1 to 5 for
// numbered years, 6 for graduates and 7 for graduate students. Any mention
// of no restriction yields the unrestricted code alone.
func ParseGrades(text string) []int {
	if allGrades.MatchString(text) {
		return []int{program.GradeUnrestricted}
	}

	var grades []int
	for _, m := range gradeNumber.FindAllStringSubmatch(text, -1) {
		g, err := strconv.Atoi(m[1])
		if err == nil && g >= 1 && g <= 5 {
			grades = append(grades, g)
		}
	}
	if graduate.MatchString(text) {
		grades = append(grades, 6)
	}
	if graduateSchool.MatchString(text) {
		grades = append(grades, 7)
	}

	if len(grades) == 0 {
		return []int{program.GradeUnrestricted}
	}
	return uniqueInts(grades)
}

// ParseDateRange extracts the first and last YYYY-MM-DD dates of a period
// such as "2025-11-07 10:00:00 ~ 2025-11-14 23:59:00". A single date is
// both start and end.
func ParseDateRange(text string) (start, end string) {
	dates := dateValue.FindAllString(text, -1)
	switch len(dates) {
	case 0:
		return "", ""
	case 1:
		return dates[0], dates[0]
	default:
		return dates[0], dates[len(dates)-1]
	}
}

func knownCategories(cats []string) []string {
	var known []string
	for _, c := range cats {
		c = strings.TrimSpace(c)
		if program.IsCategory(c) && !slices.Contains(known, c) {
			known = append(known, c)
		}
	}
	return known
}

func uniqueStrings(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func uniqueInts(values []int) []int {
	var out []int
	for _, v := range values {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
