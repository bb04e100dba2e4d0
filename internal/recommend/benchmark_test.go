package recommend

import (
	"fmt"
	"testing"

	"github.com/uosnotice/programrank/internal/program"
)

func benchmarkPool(n int) []program.Program {
	titles := []string{"AI 해커톤 참가자 모집", "취업 특강 안내", "해외 봉사단 모집", "멘토링 프로그램 신청", "기업 탐방"}
	pool := make([]program.Program, n)
	for i := range pool {
		pool[i] = program.Program{
			ID:          int64(i + 1),
			Title:       fmt.Sprintf("%s %d", titles[i%len(titles)], i),
			Content:     "머신러닝 데이터 분석 프로젝트 경험을 쌓을 수 있는 기회",
			Departments: []string{program.Unrestricted},
			Grades:      []int{program.GradeUnrestricted},
			Categories:  []string{program.Categories[i%len(program.Categories)]},
		}
	}
	return pool
}

func BenchmarkRank(b *testing.B) {
	r, err := NewRanker(DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	user := csStudent()
	user.InterestFields = []string{"머신러닝", "해커톤"}

	for _, n := range []int{10, 100, 1000} {
		pool := benchmarkPool(n)
		b.Run(fmt.Sprintf("pool=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := r.Rank(user, pool, RankOptions{Now: testNow}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
