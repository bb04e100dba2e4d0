package recommend

import (
	"errors"
	"math"
	"reflect"
	"slices"
	"testing"

	"github.com/uosnotice/programrank/internal/program"
)

func newTestRanker(t *testing.T) *Ranker {
	t.Helper()
	r, err := NewRanker(DefaultConfig())
	if err != nil {
		t.Fatalf("NewRanker() error = %v", err)
	}
	return r
}

func openProgram(id int64, title string) program.Program {
	return program.Program{
		ID:          id,
		Title:       title,
		Source:      program.SourcePortal,
		Departments: []string{program.Unrestricted},
		Grades:      []int{0},
		Categories:  []string{"비교과"},
	}
}

func ids(items []ScoredProgram) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.Program.ID
	}
	return out
}

func floatPtr(f float64) *float64 {
	return &f
}

func TestRank_EndToEnd(t *testing.T) {
	r := newTestRanker(t)

	target := program.Program{
		ID:          1,
		Title:       "SW 공모전 참가자 모집",
		Departments: []string{"컴퓨터과학부"},
		Grades:      []int{1, 2, 3, 4},
		Categories:  []string{"공모전", "비교과"},
	}
	other := program.Program{
		ID:          2,
		Title:       "경영학부 취업 특강",
		Departments: []string{"경영학부"},
		Grades:      []int{3, 4},
		Categories:  []string{"특강"},
	}

	res, err := r.Rank(csStudent(), []program.Program{target, other}, RankOptions{Now: testNow})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if res.TotalCount != 1 {
		t.Fatalf("TotalCount = %d, want 1", res.TotalCount)
	}
	got := res.Items[0]
	if got.Program.ID != 1 {
		t.Errorf("Program.ID = %d, want 1", got.Program.ID)
	}
	if got.RuleScore != 80 {
		t.Errorf("RuleScore = %v, want 80", got.RuleScore)
	}
	if got.FieldScore != 0 {
		t.Errorf("FieldScore = %v, want 0", got.FieldScore)
	}
	if math.Abs(got.Score-60) > 1e-9 {
		t.Errorf("Score = %v, want 60", got.Score)
	}
	wantReasons := []string{"학과 일치: 컴퓨터과학부", "학년 일치: 2학년", "관심사 일치: 공모전"}
	if !slices.Equal(got.Reasons, wantReasons) {
		t.Errorf("Reasons = %v, want %v", got.Reasons, wantReasons)
	}
}

func TestRank_FieldRelevance(t *testing.T) {
	r := newTestRanker(t)
	user := csStudent()
	user.InterestFields = []string{"머신러닝", "딥러닝"}

	pool := []program.Program{
		openProgram(1, "머신러닝 딥러닝 스터디 모집"),
		openProgram(2, "해외 봉사단 모집"),
		openProgram(3, "취업 특강 이력서 작성법"),
	}

	res, err := r.Rank(user, pool, RankOptions{Now: testNow})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("len(Items) = %d, want 3", len(res.Items))
	}

	first := res.Items[0]
	if first.Program.ID != 1 {
		t.Errorf("first Program.ID = %d, want 1", first.Program.ID)
	}
	if first.FieldScore <= 0 || first.FieldScore > 40 {
		t.Errorf("FieldScore = %v, want in (0, 40]", first.FieldScore)
	}
	if first.Score <= res.Items[1].Score {
		t.Errorf("Score = %v, want above runner-up %v", first.Score, res.Items[1].Score)
	}
	if n := len(first.Reasons); n != 3 {
		t.Errorf("len(Reasons) = %d, want 3 (department, grade, field)", n)
	}
	for _, it := range res.Items[1:] {
		if it.FieldScore != 0 {
			t.Errorf("FieldScore for %d = %v, want 0", it.Program.ID, it.FieldScore)
		}
	}
}

func TestRank_EmptyDocumentsDegrade(t *testing.T) {
	r := newTestRanker(t)
	user := csStudent()
	user.InterestFields = []string{"머신러닝"}

	pool := []program.Program{openProgram(1, ""), openProgram(2, "!!")}

	res, err := r.Rank(user, pool, RankOptions{Now: testNow})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if !res.FieldDegraded {
		t.Error("expected FieldDegraded to be set")
	}
	if res.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", res.TotalCount)
	}
	for _, it := range res.Items {
		if it.FieldScore != 0 {
			t.Errorf("FieldScore = %v, want 0", it.FieldScore)
		}
	}
}

func TestRank_EmptyPool(t *testing.T) {
	r := newTestRanker(t)

	res, err := r.Rank(csStudent(), nil, RankOptions{Now: testNow})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if res.TotalCount != 0 || len(res.Items) != 0 {
		t.Errorf("got %d items, total %d; want empty", len(res.Items), res.TotalCount)
	}
	if res.Items == nil {
		t.Error("expected non-nil Items")
	}
}

func TestRank_ClosedPrograms(t *testing.T) {
	r := newTestRanker(t)

	closed := openProgram(1, "지난 공모전")
	closed.AppEnd = daysFromNow(-1)
	endsToday := openProgram(2, "오늘 마감")
	endsToday.AppEnd = daysFromNow(0)
	noDeadline := openProgram(3, "상시 모집")

	pool := []program.Program{closed, endsToday, noDeadline}

	res, err := r.Rank(csStudent(), pool, RankOptions{Now: testNow})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if got := ids(res.Items); !slices.Equal(got, []int64{2, 3}) {
		t.Errorf("ids = %v, want [2 3]", got)
	}

	res, err = r.Rank(csStudent(), pool, RankOptions{Now: testNow, IncludeClosed: true})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if res.TotalCount != 3 {
		t.Errorf("TotalCount with closed = %d, want 3", res.TotalCount)
	}
}

func TestRank_MinScoreIsInclusive(t *testing.T) {
	r := newTestRanker(t)
	pool := []program.Program{openProgram(1, "봉사 모집")}

	res, err := r.Rank(csStudent(), pool, RankOptions{Now: testNow, MinScore: floatPtr(0)})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	score := res.Items[0].Score

	res, err = r.Rank(csStudent(), pool, RankOptions{Now: testNow, MinScore: floatPtr(score)})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if res.TotalCount != 1 {
		t.Errorf("min_score equal to score: TotalCount = %d, want 1", res.TotalCount)
	}

	res, err = r.Rank(csStudent(), pool, RankOptions{Now: testNow, MinScore: floatPtr(score + 0.001)})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if res.TotalCount != 0 {
		t.Errorf("min_score above score: TotalCount = %d, want 0", res.TotalCount)
	}
}

func TestRank_DefaultMinScore(t *testing.T) {
	r := newTestRanker(t)

	restricted := program.Program{
		ID:          1,
		Title:       "경영학부 4학년 특강",
		Departments: []string{"경영학부"},
		Grades:      []int{4},
		Categories:  []string{"특강"},
	}

	res, err := r.Rank(csStudent(), []program.Program{restricted, openProgram(2, "봉사")}, RankOptions{Now: testNow})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if got := ids(res.Items); !slices.Equal(got, []int64{2}) {
		t.Errorf("ids = %v, want [2]", got)
	}
}

func TestRank_TieBreak(t *testing.T) {
	r := newTestRanker(t)

	late := openProgram(3, "봉사 A")
	late.AppEnd = daysFromNow(20)
	none := openProgram(1, "봉사 B")
	soon := openProgram(2, "봉사 C")
	soon.AppEnd = daysFromNow(15)
	noneHigherID := openProgram(4, "봉사 D")

	res, err := r.Rank(csStudent(), []program.Program{none, late, noneHigherID, soon}, RankOptions{Now: testNow})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if got := ids(res.Items); !slices.Equal(got, []int64{2, 3, 1, 4}) {
		t.Errorf("ids = %v, want [2 3 1 4]", got)
	}
}

func TestRank_LimitAndTotalCount(t *testing.T) {
	r := newTestRanker(t)

	var pool []program.Program
	for i := int64(1); i <= 7; i++ {
		pool = append(pool, openProgram(i, "봉사 모집"))
	}

	res, err := r.Rank(csStudent(), pool, RankOptions{Now: testNow, Limit: 3})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(res.Items) != 3 {
		t.Errorf("len(Items) = %d, want 3", len(res.Items))
	}
	if res.TotalCount != 7 {
		t.Errorf("TotalCount = %d, want 7", res.TotalCount)
	}

	res, err = r.Rank(csStudent(), pool, RankOptions{Now: testNow})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(res.Items) != 5 {
		t.Errorf("default limit: len(Items) = %d, want 5", len(res.Items))
	}
}

func TestRank_Deterministic(t *testing.T) {
	r := newTestRanker(t)
	user := csStudent()
	user.InterestFields = []string{"AI", "공모전"}

	pool := []program.Program{
		openProgram(5, "AI 공모전 참가자 모집"),
		openProgram(2, "AI 해커톤"),
		openProgram(9, "봉사 모집"),
		openProgram(1, "공모전 설명회"),
		openProgram(7, "AI 특강"),
	}
	pool[1].AppEnd = daysFromNow(4)

	first, err := r.Rank(user, pool, RankOptions{Now: testNow, Limit: 10})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	second, err := r.Rank(user, pool, RankOptions{Now: testNow, Limit: 10})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different results")
	}

	reversed := slices.Clone(pool)
	slices.Reverse(reversed)
	third, err := r.Rank(user, reversed, RankOptions{Now: testNow, Limit: 10})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if !slices.Equal(ids(first.Items), ids(third.Items)) {
		t.Errorf("pool order changed ranking: %v vs %v", ids(first.Items), ids(third.Items))
	}
}

func TestRank_InvalidInput(t *testing.T) {
	r := newTestRanker(t)
	pool := []program.Program{openProgram(1, "봉사")}

	tests := []struct {
		name string
		user program.UserProfile
		opts RankOptions
	}{
		{name: "grade above range", user: program.UserProfile{Department: "컴퓨터과학부", Grade: 8}},
		{name: "negative grade", user: program.UserProfile{Department: "컴퓨터과학부", Grade: -1}},
		{name: "empty department", user: program.UserProfile{Grade: 2}},
		{name: "blank department", user: program.UserProfile{Department: "   ", Grade: 2}},
		{name: "negative limit", user: csStudent(), opts: RankOptions{Limit: -1}},
		{name: "limit above max", user: csStudent(), opts: RankOptions{Limit: 51}},
		{name: "min score above 100", user: csStudent(), opts: RankOptions{MinScore: floatPtr(101)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Rank(tt.user, pool, tt.opts)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Rank() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestExplain(t *testing.T) {
	r := newTestRanker(t)

	target := program.Program{
		ID:          1,
		Title:       "SW 공모전 참가자 모집",
		Departments: []string{"컴퓨터과학부"},
		Grades:      []int{1, 2, 3, 4},
		Categories:  []string{"공모전", "비교과"},
		AppEnd:      daysFromNow(5),
	}

	exp, err := r.Explain(csStudent(), target, nil, testNow)
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}

	if exp.Department.Score != 40 || exp.Department.Reason != "학과 일치: 컴퓨터과학부" {
		t.Errorf("Department = %+v", exp.Department)
	}
	if exp.Grade.Score != 30 || exp.Grade.Reason != "학년 일치: 2학년" {
		t.Errorf("Grade = %+v", exp.Grade)
	}
	if exp.Interests.Score != 10 {
		t.Errorf("Interests.Score = %v, want 10", exp.Interests.Score)
	}
	if exp.Deadline.Score != 10 || exp.Deadline.Reason != "마감 임박 (5일 남음)" {
		t.Errorf("Deadline = %+v", exp.Deadline)
	}
	if exp.RuleSubtotal != 90 {
		t.Errorf("RuleSubtotal = %v, want 90", exp.RuleSubtotal)
	}
	if math.Abs(exp.TotalScore-60) > 1e-9 {
		t.Errorf("TotalScore = %v, want 60 (rule share saturates at the ceiling)", exp.TotalScore)
	}

	if _, err := r.Explain(program.UserProfile{Grade: 2}, target, nil, testNow); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Explain() with empty department error = %v, want ErrInvalidInput", err)
	}
}

func TestExplain_MatchesRank(t *testing.T) {
	r := newTestRanker(t)
	user := csStudent()
	user.InterestFields = []string{"해커톤"}

	pool := []program.Program{
		openProgram(1, "AI 해커톤 참가자 모집"),
		openProgram(2, "해외 봉사단 모집"),
	}

	res, err := r.Rank(user, pool, RankOptions{Now: testNow})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	exp, err := r.Explain(user, pool[0], pool, testNow)
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}

	if res.Items[0].Program.ID != 1 {
		t.Fatalf("top Program.ID = %d, want 1", res.Items[0].Program.ID)
	}
	if exp.TotalScore != res.Items[0].Score {
		t.Errorf("Explain TotalScore = %v, Rank Score = %v", exp.TotalScore, res.Items[0].Score)
	}
}
