package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/uosnotice/programrank/internal/database"
	"github.com/uosnotice/programrank/internal/dedup"
	"github.com/uosnotice/programrank/internal/program"
	"github.com/uosnotice/programrank/internal/recommend"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is a long title", 10, "this is..."},
		{"소프트웨어 공모전 안내", 8, "소프트웨어..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("one two three four", 9)
	want := "one two\nthree\nfour"
	if got != want {
		t.Errorf("wordWrap() = %q, want %q", got, want)
	}
}

func TestFormatDeadline(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	at := func(s string) *time.Time {
		d, _ := program.Date(s)
		return &d
	}

	tests := []struct {
		name string
		end  *time.Time
		want string
	}{
		{"no deadline", nil, "-"},
		{"yesterday", at("2025-03-09"), "closed"},
		{"today", at("2025-03-10"), "today"},
		{"next week", at("2025-03-17"), "D-7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &program.Program{AppEnd: tt.end}
			if got := formatDeadline(p, now); got != tt.want {
				t.Errorf("formatDeadline() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutputTo_JSON(t *testing.T) {
	var buf bytes.Buffer
	report := &dedup.Report{
		DryRun:  true,
		Scanned: 3,
		Groups:  []dedup.Group{{KeeperID: 1, RemovedIDs: []int64{2}, Title: "특강"}},
	}

	if err := OutputTo(&buf, "json", report); err != nil {
		t.Fatalf("OutputTo() error = %v", err)
	}

	var decoded dedup.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if decoded.Scanned != 3 || len(decoded.Groups) != 1 || decoded.Groups[0].KeeperID != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestOutputTo_UnknownFormat(t *testing.T) {
	if err := OutputTo(&bytes.Buffer{}, "xml", []string{}); err == nil {
		t.Error("OutputTo() expected error for unknown format")
	}
}

func TestTableTo_Unsupported(t *testing.T) {
	if err := TableTo(&bytes.Buffer{}, 42); err == nil {
		t.Error("TableTo() expected error for unsupported type")
	}
}

func TestTableTo(t *testing.T) {
	end := time.Now().AddDate(0, 0, 30)

	tests := []struct {
		name     string
		data     any
		contains []string
	}{
		{
			name:     "empty programs",
			data:     []program.Program{},
			contains: []string{"No programs found."},
		},
		{
			name: "programs",
			data: []program.Program{
				{ID: 7, Title: "AI 특강", Categories: []string{"특강"}, Source: program.SourcePortal, AppEnd: &end},
			},
			contains: []string{"7", "AI 특강", "portal", "D-"},
		},
		{
			name: "program detail",
			data: &program.Program{
				ID: 3, Title: "봉사단 모집", Departments: []string{program.Unrestricted},
				Grades: []int{0, 6}, Categories: []string{"봉사"},
			},
			contains: []string{"봉사단 모집", "제한없음", "졸업생", "? ~ ?"},
		},
		{
			name: "ranking",
			data: &recommend.Result{
				Items: []recommend.ScoredProgram{
					{Program: program.Program{ID: 1, Title: "멘토링"}, Score: 72.5, RuleScore: 80, FieldScore: 50, Reasons: []string{"학과 일치"}},
				},
				TotalCount: 4,
			},
			contains: []string{"72.50", "학과 일치", "Showing 1 of 4"},
		},
		{
			name: "explanation",
			data: &recommend.Explanation{
				ProgramID:  9,
				Department: recommend.Component{Score: 40, Reason: "학과 일치"},
				TotalScore: 30,
			},
			contains: []string{"Program 9", "department", "40.00", "Total score:   30.00"},
		},
		{
			name:     "empty dedup",
			data:     &dedup.Report{DryRun: true, Scanned: 2, Groups: []dedup.Group{}},
			contains: []string{"dry run", "No duplicates found."},
		},
		{
			name: "dedup groups",
			data: &dedup.Report{
				Scanned: 4,
				Groups:  []dedup.Group{{KeeperID: 1, RemovedIDs: []int64{3, 4}, Title: "공모전"}},
			},
			contains: []string{"applied", "3,4", "1 groups, 2 programs to remove"},
		},
		{
			name: "stats",
			data: &database.Stats{
				TotalPrograms: 5,
				OpenPrograms:  4,
				BySource:      map[string]int{"portal": 3, "uostory": 2},
				ByCategory:    map[string]int{"특강": 2},
			},
			contains: []string{"Total programs:         5", "portal", "uostory", "특강"},
		},
		{
			name:     "grades",
			data:     program.Grades(),
			contains: []string{"대학원생", "3학년"},
		},
		{
			name:     "categories",
			data:     program.Categories,
			contains: []string{"공모전\n", "비교과\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := TableTo(&buf, tt.data); err != nil {
				t.Fatalf("TableTo() error = %v", err)
			}
			out := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}
