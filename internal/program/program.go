package program

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Unrestricted is the department sentinel meaning every department is eligible
const Unrestricted = "제한없음"

// GradeUnrestricted is the grade sentinel meaning every grade is eligible
const GradeUnrestricted = 0

// Grade bounds
const (
	MinGrade = 0
	MaxGrade = 7
)

// Source identifies where a program record was crawled from
type Source string

const (
	SourcePortal  Source = "portal"
	SourceUOStory Source = "uostory"
	SourceUnknown Source = "unknown"
)

// SourceFromLink derives the crawl source from a program link
func SourceFromLink(link string) Source {
	switch {
	case link == "":
		return SourceUnknown
	case strings.Contains(link, "uostory.uos.ac.kr"):
		return SourceUOStory
	case strings.Contains(link, "uos.ac.kr/korNotice"):
		return SourcePortal
	default:
		return SourceUnknown
	}
}

// ParseSource parses a source name, case-insensitively
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourcePortal:
		return SourcePortal, nil
	case SourceUOStory:
		return SourceUOStory, nil
	case SourceUnknown, "":
		return SourceUnknown, nil
	default:
		return "", fmt.Errorf("unknown source: %s", s)
	}
}

// Categories is the fixed set of program categories, in display order
var Categories = []string{"공모전", "멘토링", "봉사", "취업", "탐방", "특강", "비교과"}

// IsCategory reports whether c is one of the fixed categories
func IsCategory(c string) bool {
	return slices.Contains(Categories, c)
}

// CategoryIndex returns the display position of c, or len(Categories) for unknown values
func CategoryIndex(c string) int {
	if i := slices.Index(Categories, c); i >= 0 {
		return i
	}
	return len(Categories)
}

// GradeName returns the display name of a grade code
func GradeName(grade int) string {
	switch grade {
	case 0:
		return "제한없음"
	case 6:
		return "졸업생"
	case 7:
		return "대학원생"
	default:
		return fmt.Sprintf("%d학년", grade)
	}
}

// Grade is a grade code with its display name
type Grade struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// Grades returns the full grade enumeration
func Grades() []Grade {
	grades := make([]Grade, 0, MaxGrade-MinGrade+1)
	for g := MinGrade; g <= MaxGrade; g++ {
		grades = append(grades, Grade{Code: g, Name: GradeName(g)})
	}
	return grades
}

// Program is one crawled announcement with its eligibility metadata
type Program struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Content     string     `json:"content"`
	AppStart    *time.Time `json:"app_start_date,omitempty"`
	AppEnd      *time.Time `json:"app_end_date,omitempty"`
	Source      Source     `json:"source"`
	Categories  []string   `json:"categories"`
	Departments []string   `json:"departments"`
	Grades      []int      `json:"grades"`
	CreatedAt   time.Time  `json:"created_at,omitzero"`
}

// HasDepartment reports whether dept is explicitly targeted
func (p *Program) HasDepartment(dept string) bool {
	return slices.Contains(p.Departments, dept)
}

// IsDepartmentUnrestricted reports whether the program targets every department
func (p *Program) IsDepartmentUnrestricted() bool {
	return slices.Contains(p.Departments, Unrestricted)
}

// HasGrade reports whether grade is explicitly targeted
func (p *Program) HasGrade(grade int) bool {
	return slices.Contains(p.Grades, grade)
}

// IsGradeUnrestricted reports whether the program targets every grade
func (p *Program) IsGradeUnrestricted() bool {
	return slices.Contains(p.Grades, GradeUnrestricted)
}

// DaysUntilDeadline returns the number of calendar days from now until the
// application end date. ok is false when the program has no deadline.
func (p *Program) DaysUntilDeadline(now time.Time) (days int, ok bool) {
	if p.AppEnd == nil {
		return 0, false
	}
	return CivilDaysBetween(now, *p.AppEnd), true
}

// IsClosed reports whether the application window ended before now's calendar day
func (p *Program) IsClosed(now time.Time) bool {
	days, ok := p.DaysUntilDeadline(now)
	return ok && days < 0
}

// IsOpen reports whether applications are accepted on now's calendar day
func (p *Program) IsOpen(now time.Time) bool {
	if p.IsClosed(now) {
		return false
	}
	if p.AppStart != nil && CivilDaysBetween(now, *p.AppStart) > 0 {
		return false
	}
	return true
}

// Text returns the title and content joined for text scoring
func (p *Program) Text(contentLimit int) string {
	content := p.Content
	if contentLimit > 0 {
		if r := []rune(content); len(r) > contentLimit {
			content = string(r[:contentLimit])
		}
	}
	return strings.TrimSpace(p.Title + " " + content)
}

// Normalize fills empty eligibility sets with their unrestricted sentinels
// and derives the source from the link when it is unset
func (p *Program) Normalize() {
	if len(p.Departments) == 0 {
		p.Departments = []string{Unrestricted}
	}
	if len(p.Grades) == 0 {
		p.Grades = []int{GradeUnrestricted}
	}
	if p.Source == "" {
		p.Source = SourceFromLink(p.Link)
	}
}

// CivilDaysBetween returns the number of calendar days from a to b, each
// taken as a date in its own location
func CivilDaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

// Date parses a YYYY-MM-DD date
func Date(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

// UserProfile is the student a ranking request is evaluated for
type UserProfile struct {
	Department     string   `json:"department" validate:"required"`
	Grade          int      `json:"grade" validate:"gte=0,lte=7"`
	Interests      []string `json:"interests"`
	InterestFields []string `json:"interest_fields"`
}
