package classifier

import (
	"context"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/uosnotice/programrank/internal/program"
)

func TestClassify(t *testing.T) {
	c := New()

	tests := []struct {
		name    string
		title   string
		content string
		want    []string
	}{
		{name: "contest in title", title: "2024 SW 경진대회 참가자 모집", want: []string{"공모전"}},
		{name: "english keyword", title: "Global Startup Contest", want: []string{"공모전"}},
		{name: "several categories in priority order", title: "취업 특강 및 멘토링", want: []string{"멘토링", "취업", "특강"}},
		{name: "field trip pattern", title: "Field-Trip to 판교", want: []string{"탐방"}},
		{name: "title wins over content", title: "해외 봉사단 모집", content: "취업 특강도 함께 진행합니다", want: []string{"봉사"}},
		{name: "content fallback", title: "2학기 프로그램 안내", content: "기업 견학 일정 안내", want: []string{"탐방"}},
		{name: "default category", title: "학생증 재발급 안내", content: "신청 방법", want: []string{"비교과"}},
		{name: "empty text", want: []string{"비교과"}},
		{name: "explicit extracurricular", title: "비교과 세미나", want: []string{"비교과", "특강"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.title, tt.content)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.title, tt.content, got, tt.want)
			}
		})
	}
}

func TestClassify_OnlyKnownCategories(t *testing.T) {
	c := New()
	for _, r := range DefaultRules() {
		if !program.IsCategory(r.Category) {
			t.Errorf("rule category %q is not a program category", r.Category)
		}
	}
	for _, cat := range c.Classify("봉사 공모전 탐방 특강 취업 멘토링", "") {
		if !program.IsCategory(cat) {
			t.Errorf("Classify returned unknown category %q", cat)
		}
	}
}

func TestClassifyBatch(t *testing.T) {
	c := New()
	programs := []program.Program{
		{ID: 1, Title: "창업 경진대회", Categories: []string{"공모전"}},
		{ID: 2, Title: "취업 특강", Categories: []string{"비교과"}},
		{ID: 3, Title: "공지사항"},
	}

	var calls int64
	results := c.ClassifyBatch(context.Background(), programs, func(current, total int) {
		atomic.AddInt64(&calls, 1)
		if total != 3 {
			t.Errorf("progress total = %d, want 3", total)
		}
	})

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	wantChanged := []bool{false, true, true}
	for i, r := range results {
		if r.Error != nil {
			t.Errorf("results[%d].Error = %v", i, r.Error)
		}
		if r.ProgramID != programs[i].ID {
			t.Errorf("results[%d].ProgramID = %d, want %d", i, r.ProgramID, programs[i].ID)
		}
		if r.Changed != wantChanged[i] {
			t.Errorf("results[%d].Changed = %v, want %v", i, r.Changed, wantChanged[i])
		}
	}
	if !slices.Equal(results[1].Categories, []string{"취업", "특강"}) {
		t.Errorf("results[1].Categories = %v", results[1].Categories)
	}
	if got := atomic.LoadInt64(&calls); got != 4 {
		t.Errorf("progress calls = %d, want 4", got)
	}
}

func TestClassifyBatch_Cancelled(t *testing.T) {
	c := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	programs := make([]program.Program, 20)
	results := c.ClassifyBatch(ctx, programs, nil)

	if len(results) != 20 {
		t.Fatalf("len(results) = %d, want 20", len(results))
	}
	for i, r := range results {
		if r.Error == nil && r.Categories == nil {
			t.Errorf("results[%d] has neither categories nor error", i)
		}
	}
}
