package service

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/uosnotice/programrank/internal/config"
	"github.com/uosnotice/programrank/internal/database"
	"github.com/uosnotice/programrank/internal/program"
	"github.com/uosnotice/programrank/internal/progress"
	"github.com/uosnotice/programrank/internal/recommend"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func setupTestService(t *testing.T) (*Service, *database.DB) {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc, err := New(db, config.Default(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	svc.now = func() time.Time { return testNow }

	closed := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	programs := []program.Program{
		{
			Title: "SW 공모전", Link: "https://www.uos.ac.kr/korNotice/view.do?seq=1",
			Departments: []string{"컴퓨터과학부"}, Grades: []int{1, 2, 3, 4},
			Categories: []string{"공모전", "비교과"},
		},
		{
			Title: "경영 특강", Link: "https://www.uos.ac.kr/korNotice/view.do?seq=2",
			Departments: []string{"경영학부"}, Categories: []string{"특강"},
		},
		{
			Title: "봉사 모집", Link: "https://www.uos.ac.kr/korNotice/view.do?seq=3",
			Categories: []string{"봉사"}, AppEnd: &closed,
		},
		{
			Title: "[공지] SW 공모전", Link: "https://uostory.uos.ac.kr/site/program/view?id=4",
			Categories: []string{"공모전"},
		},
	}
	for i := range programs {
		if err := db.CreateProgram(context.Background(), &programs[i]); err != nil {
			t.Fatalf("CreateProgram() error = %v", err)
		}
	}

	return svc, db
}

func csStudent() program.UserProfile {
	return program.UserProfile{
		Department: "컴퓨터과학부",
		Grade:      2,
		Interests:  []string{"공모전", "취업"},
	}
}

func itemIDs(res *recommend.Result) []int64 {
	ids := make([]int64, len(res.Items))
	for i, item := range res.Items {
		ids[i] = item.Program.ID
	}
	return ids
}

func TestRecommend(t *testing.T) {
	svc, _ := setupTestService(t)

	res, err := svc.Recommend(context.Background(), RecommendRequest{User: csStudent()})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if got := itemIDs(res); !reflect.DeepEqual(got, []int64{1, 4}) {
		t.Errorf("Recommend() ids = %v, want [1 4]", got)
	}
	if res.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", res.TotalCount)
	}
	if res.Items[0].Score != 60 {
		t.Errorf("Items[0].Score = %v, want 60", res.Items[0].Score)
	}
	if res.Items[1].Score != 33.75 {
		t.Errorf("Items[1].Score = %v, want 33.75", res.Items[1].Score)
	}
}

func TestRecommend_IncludeClosed(t *testing.T) {
	svc, _ := setupTestService(t)
	zero := 0.0

	res, err := svc.Recommend(context.Background(), RecommendRequest{
		User:          csStudent(),
		IncludeClosed: true,
		MinScore:      &zero,
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if got := itemIDs(res); !reflect.DeepEqual(got, []int64{1, 4, 3}) {
		t.Errorf("Recommend() ids = %v, want [1 4 3]", got)
	}
}

func TestRecommend_WithoutPrefilter(t *testing.T) {
	svc, _ := setupTestService(t)
	svc.prefilter = false
	zero := 0.0

	res, err := svc.Recommend(context.Background(), RecommendRequest{User: csStudent(), MinScore: &zero})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if got := itemIDs(res); !reflect.DeepEqual(got, []int64{1, 4, 2}) {
		t.Errorf("Recommend() ids = %v, want [1 4 2]", got)
	}
}

func TestRecommend_InvalidInput(t *testing.T) {
	svc, _ := setupTestService(t)

	user := csStudent()
	user.Grade = 9
	if _, err := svc.Recommend(context.Background(), RecommendRequest{User: user}); !errors.Is(err, recommend.ErrInvalidInput) {
		t.Errorf("Recommend() error = %v, want ErrInvalidInput", err)
	}

	if _, err := svc.Recommend(context.Background(), RecommendRequest{User: csStudent(), Limit: -1}); !errors.Is(err, recommend.ErrInvalidInput) {
		t.Errorf("Recommend() with negative limit error = %v, want ErrInvalidInput", err)
	}
}

func TestExplain(t *testing.T) {
	svc, _ := setupTestService(t)

	exp, err := svc.Explain(context.Background(), 2, csStudent(), false)
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}

	if exp.Department.Score != 0 || exp.Grade.Score != 15 || exp.Interests.Score != 0 {
		t.Errorf("Explain() = %+v", exp)
	}
	if exp.RuleSubtotal != 15 {
		t.Errorf("RuleSubtotal = %v, want 15", exp.RuleSubtotal)
	}
	if exp.TotalScore != 11.25 {
		t.Errorf("TotalScore = %v, want 11.25", exp.TotalScore)
	}

	if _, err := svc.Explain(context.Background(), 999, csStudent(), false); !errors.Is(err, ErrNotFound) {
		t.Errorf("Explain(999) error = %v, want ErrNotFound", err)
	}
}

func TestGetProgram_NotFound(t *testing.T) {
	svc, _ := setupTestService(t)

	if _, err := svc.GetProgram(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProgram(42) error = %v, want ErrNotFound", err)
	}
}

func TestListPrograms(t *testing.T) {
	svc, _ := setupTestService(t)

	open, err := svc.ListPrograms(context.Background(), database.ListOptions{})
	if err != nil {
		t.Fatalf("ListPrograms() error = %v", err)
	}
	if len(open) != 3 {
		t.Errorf("ListPrograms() returned %d programs, want 3 open", len(open))
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalPrograms != 4 || stats.ClosedPrograms != 1 {
		t.Errorf("Stats() = %+v, want total 4 closed 1", stats)
	}
}

func TestDuplicates(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	report, err := svc.FindDuplicates(ctx)
	if err != nil {
		t.Fatalf("FindDuplicates() error = %v", err)
	}
	if !report.DryRun || report.Scanned != 4 {
		t.Errorf("FindDuplicates() = %+v", report)
	}
	if len(report.Groups) != 1 || report.Groups[0].KeeperID != 1 || !reflect.DeepEqual(report.Groups[0].RemovedIDs, []int64{4}) {
		t.Fatalf("Groups = %+v, want keeper 1 removing [4]", report.Groups)
	}

	if _, err := svc.GetProgram(ctx, 4); err != nil {
		t.Errorf("dry run removed program 4: %v", err)
	}

	var phases []progress.Phase
	applied, run, err := svc.ApplyDuplicates(ctx, func(p progress.Progress) {
		phases = append(phases, p.Phase)
	})
	if err != nil {
		t.Fatalf("ApplyDuplicates() error = %v", err)
	}
	if applied.DryRun {
		t.Error("ApplyDuplicates() report marked as dry run")
	}
	if run.Deleted != 1 || run.Kept != 1 || run.Failed != 0 {
		t.Errorf("run = %+v, want kept 1 deleted 1", run)
	}
	if !reflect.DeepEqual(phases, []progress.Phase{progress.PhaseScanning, progress.PhaseApplying}) {
		t.Errorf("phases = %v", phases)
	}

	if _, err := svc.GetProgram(ctx, 4); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProgram(4) after apply error = %v, want ErrNotFound", err)
	}
}
