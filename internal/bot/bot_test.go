package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/msto63/robbot/internal/interpreter"
	"github.com/msto63/robbot/pkg/core/config"
	"github.com/msto63/robbot/pkg/core/health"
	"github.com/msto63/robbot/pkg/core/logging"
)

const timetable = `lessons:
  - name: Programmering
    location: Sal 204
    begin: 2026-10-14T09:00:00Z
    end: 2026-10-14T10:30:00Z
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "timetable.yaml")
	if err := os.WriteFile(path, []byte(timetable), 0644); err != nil {
		t.Fatal(err)
	}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(upstream.Close)

	cfg := config.Default()
	cfg.General.DataDir = dir
	cfg.Features.RedditJoke.BaseURL = upstream.URL
	cfg.Features.Ranking.DatabasePath = filepath.Join(dir, "data", "ranking.db")
	cfg.Features.Schedule.TimetablePath = path
	return cfg
}

func newTestBot(t *testing.T, cfg *config.Config) *Bot {
	t.Helper()
	b, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func categories(b *Bot) []string {
	var out []string
	for _, f := range b.Processor.Features() {
		out = append(out, f.Category().String())
	}
	return out
}

func jobIDs(b *Bot) []string {
	var out []string
	for _, j := range b.Scheduler.Jobs() {
		out = append(out, j.ID)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name           string
		modify         func(cfg *config.Config)
		wantCategories []string
		wantJobs       []string
	}{
		{
			name:           "defaults without lunch url",
			modify:         func(cfg *config.Config) {},
			wantCategories: []string{"SCHEDULE", "REDDIT_JOKE", "RANKING", "HELP_QUEUE"},
			wantJobs:       []string{JobCurriculum, JobJoke, JobLessons},
		},
		{
			name: "with lunch url",
			modify: func(cfg *config.Config) {
				cfg.Features.LunchMenu.URL = "http://localhost/meny"
			},
			wantCategories: []string{"LUNCH_MENU", "SCHEDULE", "REDDIT_JOKE", "RANKING", "HELP_QUEUE"},
			wantJobs:       []string{JobCurriculum, JobJoke, JobLessons},
		},
		{
			name: "disabled features",
			modify: func(cfg *config.Config) {
				cfg.Features.Disabled = []string{"Ranking", "redditjoke"}
			},
			wantCategories: []string{"SCHEDULE", "HELP_QUEUE"},
			wantJobs:       []string{JobCurriculum, JobLessons},
		},
		{
			name: "missing timetable",
			modify: func(cfg *config.Config) {
				cfg.Features.Schedule.TimetablePath = filepath.Join(cfg.General.DataDir, "saknas.yaml")
			},
			wantCategories: []string{"REDDIT_JOKE", "RANKING", "HELP_QUEUE"},
			wantJobs:       []string{JobJoke},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.modify(cfg)
			b := newTestBot(t, cfg)

			if diff := cmp.Diff(tt.wantCategories, categories(b)); diff != "" {
				t.Errorf("features mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantJobs, jobIDs(b)); diff != "" {
				t.Errorf("jobs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNew_InvalidJobTime(t *testing.T) {
	cfg := testConfig(t)
	cfg.Features.Schedule.LessonsAt = "25:99"
	if _, err := New(cfg, logging.NewNop()); err == nil {
		t.Error("New() expected error for invalid lessons time")
	}

	cfg = testConfig(t)
	cfg.Features.Schedule.CurriculumDay = "blursday"
	if _, err := New(cfg, logging.NewNop()); err == nil {
		t.Error("New() expected error for invalid curriculum day")
	}
}

func checkNames(report *health.Report) []string {
	var names []string
	for _, c := range report.Checks {
		names = append(names, c.Name)
	}
	return names
}

func TestBot_Health(t *testing.T) {
	b := newTestBot(t, testConfig(t))
	report := b.Health.Check(context.Background())
	if report.Status != health.StatusHealthy {
		t.Fatalf("report = %+v, want healthy", report)
	}
	if diff := cmp.Diff([]string{CheckFeatures, CheckRankingStore, CheckRedditJoke}, checkNames(report)); diff != "" {
		t.Errorf("checks mismatch (-want +got):\n%s", diff)
	}

	b.Close()
	if report := b.Health.Check(context.Background()); report.Serving() {
		t.Error("report still serving after the store was closed")
	}
}

func TestBot_UpstreamChecks(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []string
	)
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.URL.Path)
		mu.Unlock()
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer down.Close()

	tests := []struct {
		name       string
		modify     func(cfg *config.Config)
		wantChecks []string
		wantStatus health.Status
	}{
		{
			name: "lunch menu and jokes up",
			modify: func(cfg *config.Config) {
				cfg.Features.LunchMenu.URL = cfg.Features.RedditJoke.BaseURL + "/meny"
			},
			wantChecks: []string{CheckFeatures, CheckLunchMenu, CheckRankingStore, CheckRedditJoke},
			wantStatus: health.StatusHealthy,
		},
		{
			name: "upstreams down degrade",
			modify: func(cfg *config.Config) {
				cfg.Features.LunchMenu.URL = down.URL + "/meny"
				cfg.Features.RedditJoke.BaseURL = down.URL
			},
			wantChecks: []string{CheckFeatures, CheckLunchMenu, CheckRankingStore, CheckRedditJoke},
			wantStatus: health.StatusDegraded,
		},
		{
			name: "upstream checks disabled",
			modify: func(cfg *config.Config) {
				cfg.Features.RedditJoke.BaseURL = down.URL
				cfg.Health.UpstreamInterval.Duration = -1
			},
			wantChecks: []string{CheckFeatures, CheckRankingStore},
			wantStatus: health.StatusHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.modify(cfg)
			b := newTestBot(t, cfg)

			report := b.Health.Check(context.Background())
			if report.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", report.Status, tt.wantStatus)
			}
			if !report.Serving() {
				t.Error("upstream state must not stop the bot from serving")
			}
			if diff := cmp.Diff(tt.wantChecks, checkNames(report)); diff != "" {
				t.Errorf("checks mismatch (-want +got):\n%s", diff)
			}
		})
	}

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"/meny", "/r/dadjokes/about.json"}, sortedCopy(requests)); diff != "" {
		t.Errorf("upstream requests mismatch (-want +got):\n%s", diff)
	}
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func TestBot_Process(t *testing.T) {
	b := newTestBot(t, testConfig(t))
	anna := interpreter.Member{ID: "u1", Name: "Anna"}
	bo := interpreter.Member{ID: "u2", Name: "Bo"}

	steps := []struct {
		content  string
		mentions []interpreter.Member
		want     string
	}{
		{"!hjälp mig", nil, "<@u1> har plats 1"},
		{"!rank upp", []interpreter.Member{bo}, "<@u2> ökade till 1"},
		{"!rank för", []interpreter.Member{bo}, "<@u2> rankar 1"},
	}
	for _, step := range steps {
		msg := interpreter.NewMessage(step.content, anna)
		msg.Mentions = step.mentions
		text, err := b.Processor.Process(msg).Respond()
		if err != nil {
			t.Fatalf("%s: Respond() error = %v", step.content, err)
		}
		if text != step.want {
			t.Errorf("%s: Respond() = %q, want %q", step.content, text, step.want)
		}
	}

	score, ok, err := b.store.Score(context.Background(), "u2")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || score != 1 {
		t.Errorf("Score(u2) = %d, %v, want 1, true", score, ok)
	}
}
