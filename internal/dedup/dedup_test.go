package dedup

import (
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/uosnotice/programrank/internal/program"
)

func newTestDeduplicator(t *testing.T, keeper string) *Deduplicator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Keeper = keeper
	d, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d
}

func portal(id int64, title string) program.Program {
	return program.Program{ID: id, Title: title, Source: program.SourcePortal}
}

func uostory(id int64, title string) program.Program {
	return program.Program{ID: id, Title: title, Source: program.SourceUOStory}
}

func TestFind(t *testing.T) {
	tests := []struct {
		name string
		pool []program.Program
		want []Group
	}{
		{
			name: "same source trailing space",
			pool: []program.Program{portal(1, "AI 해커톤"), portal(2, "AI 해커톤 ")},
			want: []Group{{KeeperID: 1, RemovedIDs: []int64{2}, Title: "AI 해커톤"}},
		},
		{
			name: "same source case and inner whitespace",
			pool: []program.Program{uostory(4, "SW  Camp 모집"), uostory(2, "sw camp 모집")},
			want: []Group{{KeeperID: 2, RemovedIDs: []int64{4}, Title: "sw camp 모집"}},
		},
		{
			name: "same source is strict",
			pool: []program.Program{portal(1, "AI 해커톤"), portal(2, "AI 해커톤대회")},
			want: []Group{},
		},
		{
			name: "same source ignores brackets",
			pool: []program.Program{portal(1, "[창업지원단] AI 해커톤"), portal(2, "AI 해커톤")},
			want: []Group{},
		},
		{
			name: "cross source bracketed prefix",
			pool: []program.Program{portal(1, "[창업지원단] AI 해커톤 참가자 모집"), uostory(2, "AI 해커톤 참가자 모집")},
			want: []Group{{KeeperID: 1, RemovedIDs: []int64{2}, Title: "[창업지원단] AI 해커톤 참가자 모집"}},
		},
		{
			name: "cross source one shared word",
			pool: []program.Program{portal(1, "AI 해커톤 참가자 모집"), uostory(2, "해외 봉사단 모집")},
			want: []Group{},
		},
		{
			name: "cross source near match",
			pool: []program.Program{uostory(3, "AI 해커톤"), portal(8, "AI 해커톤대회")},
			want: []Group{{KeeperID: 3, RemovedIDs: []int64{8}, Title: "AI 해커톤"}},
		},
		{
			name: "merges transitively",
			pool: []program.Program{
				portal(1, "abcdefghij"),
				uostory(2, "abcdefghijkl"),
				{ID: 3, Title: "cdefghijklmn", Link: "https://example.com/notice/3"},
			},
			want: []Group{{KeeperID: 1, RemovedIDs: []int64{2, 3}, Title: "abcdefghij"}},
		},
		{
			name: "source derived from link",
			pool: []program.Program{
				{ID: 5, Title: "진로 특강", Link: "https://www.uos.ac.kr/korNotice/view.do?seq=5"},
				{ID: 6, Title: "[학생처] 진로 특강", Link: "https://uostory.uos.ac.kr/site/program/6"},
			},
			want: []Group{{KeeperID: 5, RemovedIDs: []int64{6}, Title: "진로 특강"}},
		},
		{
			name: "empty titles never match",
			pool: []program.Program{portal(1, ""), portal(2, "  "), uostory(3, "")},
			want: []Group{},
		},
		{
			name: "repeated ids count once",
			pool: []program.Program{portal(1, "AI 해커톤"), portal(1, "AI 해커톤")},
			want: []Group{},
		},
		{
			name: "groups sorted by keeper",
			pool: []program.Program{
				portal(9, "봉사단 모집"), portal(7, "봉사단 모집"),
				portal(4, "취업 특강"), portal(2, "취업 특강"), portal(6, "취업 특강"),
			},
			want: []Group{
				{KeeperID: 2, RemovedIDs: []int64{4, 6}, Title: "취업 특강"},
				{KeeperID: 7, RemovedIDs: []int64{9}, Title: "봉사단 모집"},
			},
		},
	}

	d := newTestDeduplicator(t, KeepLowestID)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Find(tt.pool, true).Groups
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Find() groups = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFind_EmptyPool(t *testing.T) {
	d := newTestDeduplicator(t, KeepLowestID)

	report := d.Find(nil, true)
	if report.Groups == nil || len(report.Groups) != 0 {
		t.Errorf("Groups = %v, want empty", report.Groups)
	}
	if report.Scanned != 0 {
		t.Errorf("Scanned = %d, want 0", report.Scanned)
	}
}

func TestFind_DoesNotMutatePool(t *testing.T) {
	d := newTestDeduplicator(t, KeepLowestID)
	pool := []program.Program{
		{ID: 2, Title: "AI 해커톤", Link: "https://uostory.uos.ac.kr/2"},
		portal(1, "AI 해커톤"),
	}
	before := slices.Clone(pool)

	report := d.Find(pool, false)
	if report.DryRun {
		t.Error("DryRun = true, want false")
	}
	if !reflect.DeepEqual(pool, before) {
		t.Errorf("pool mutated: %+v", pool)
	}
}

func TestFind_Completeness(t *testing.T) {
	d := newTestDeduplicator(t, KeepCompleteness)
	end := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	pool := []program.Program{
		portal(1, "[학생처] 해외 봉사단 모집"),
		{
			ID:      2,
			Title:   "해외 봉사단 모집",
			Content: "여름방학 해외 봉사단 단원을 모집합니다. 지원 자격과 일정은 첨부 파일을 확인하세요.",
			Source:  program.SourceUOStory,
			AppEnd:  &end,
		},
	}

	got := d.Find(pool, true).Groups
	want := []Group{{KeeperID: 2, RemovedIDs: []int64{1}, Title: "해외 봉사단 모집"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Find() groups = %+v, want %+v", got, want)
	}
}

func TestCompleteness(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	long := string(make([]rune, 3000))

	tests := []struct {
		name string
		p    program.Program
		want int
	}{
		{name: "empty", p: program.Program{}, want: 0},
		{name: "title only", p: program.Program{Title: "취업 특강"}, want: 5},
		{name: "content", p: program.Program{Content: "0123456789012345678901"}, want: 2},
		{name: "capped", p: program.Program{Title: string(make([]rune, 80)), Content: long}, want: 250},
		{name: "dates and source", p: program.Program{AppStart: &start, AppEnd: &end, Link: "https://uostory.uos.ac.kr/p/1"}, want: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Completeness(&tt.p); got != tt.want {
				t.Errorf("Completeness() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReport_RemovedIDs(t *testing.T) {
	r := &Report{Groups: []Group{
		{KeeperID: 1, RemovedIDs: []int64{8, 9}},
		{KeeperID: 2, RemovedIDs: []int64{3}},
	}}
	if got := r.RemovedIDs(); !slices.Equal(got, []int64{3, 8, 9}) {
		t.Errorf("RemovedIDs() = %v, want [3 8 9]", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "default", cfg: DefaultConfig(), wantErr: false},
		{name: "completeness", cfg: Config{Threshold: 0.9, Keeper: KeepCompleteness}, wantErr: false},
		{name: "zero threshold", cfg: Config{Threshold: 0, Keeper: KeepLowestID}, wantErr: true},
		{name: "threshold above one", cfg: Config{Threshold: 1.5, Keeper: KeepLowestID}, wantErr: true},
		{name: "unknown keeper", cfg: Config{Threshold: 0.8, Keeper: "newest"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
