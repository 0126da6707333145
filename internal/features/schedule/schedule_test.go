package schedule

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/msto63/robbot/internal/interpreter"
	"github.com/msto63/robbot/pkg/core/logging"
)

const timetableYAML = `
lessons:
  - name: Matematik
    location: Sal 12
    begin: 2026-10-15T13:00:00Z
    end: 2026-10-15T14:30:00Z
  - name: Programmering
    location: Sal 204
    begin: 2026-10-14T09:00:00Z
    end: 2026-10-14T10:30:00Z
  - name: Svenska
    location: Biblioteket
    begin: 2026-10-14T13:00:00Z
    end: 2026-10-14T14:00:00Z
  - name: Historia
    location: Sal 3
    begin: 2026-10-13T09:00:00Z
    end: 2026-10-13T10:00:00Z
  - name: Idrott
    location: Hallen
    begin: 2026-10-30T09:00:00Z
    end: 2026-10-30T10:00:00Z
`

// Wednesday morning
var now = time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)

func writeTimetable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timetable.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestFeature(t *testing.T, content string, at time.Time) *Feature {
	t.Helper()
	tt, err := NewTimetable(writeTimetable(t, content))
	if err != nil {
		t.Fatalf("NewTimetable() error = %v", err)
	}
	f, err := New(&Config{Timetable: tt, Now: func() time.Time { return at }, Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f
}

func TestParseTimetable(t *testing.T) {
	lessons, err := ParseTimetable([]byte(timetableYAML))
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, l := range lessons {
		names = append(names, l.Name)
	}
	want := []string{"Historia", "Programmering", "Svenska", "Matematik", "Idrott"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("lesson order mismatch:\n%s", diff)
	}
}

func TestParseTimetable_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "lessons: [\n"},
		{"missing end", "lessons:\n  - name: X\n    begin: 2026-10-14T09:00:00Z\n"},
		{"reversed", "lessons:\n  - name: X\n    begin: 2026-10-14T09:00:00Z\n    end: 2026-10-14T08:00:00Z\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTimetable([]byte(tt.content)); err == nil {
				t.Error("ParseTimetable() expected error")
			}
		})
	}
}

func TestTimetable_Reload(t *testing.T) {
	path := writeTimetable(t, "lessons: []\n")
	tt, err := NewTimetable(path)
	if err != nil {
		t.Fatal(err)
	}
	if lessons, _ := tt.Lessons(); len(lessons) != 0 {
		t.Fatalf("Lessons() = %v, want none", lessons)
	}

	if err := os.WriteFile(path, []byte(timetableYAML), 0644); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Minute)
	os.Chtimes(path, later, later)

	if lessons, _ := tt.Lessons(); len(lessons) != 5 {
		t.Errorf("Lessons() after change = %d lessons, want 5", len(lessons))
	}
}

func TestFeature_TodaysLessons(t *testing.T) {
	f := newTestFeature(t, timetableYAML, now)

	got, err := f.TodaysLessons(false)
	if err != nil {
		t.Fatal(err)
	}
	want := "Schemat för dagen:\nProgrammering i Sal 204, kl. 09:00 - 10:30\nSvenska i Biblioteket, kl. 13:00 - 14:00"
	if got != want {
		t.Errorf("TodaysLessons() = %q, want %q", got, want)
	}

	saturday := newTestFeature(t, timetableYAML, now.AddDate(0, 0, 3))
	if got, _ := saturday.TodaysLessons(false); got != "Det finns inga lektioner på schemat idag :sunglasses:" {
		t.Errorf("TodaysLessons() empty = %q", got)
	}
	if got, _ := saturday.TodaysLessons(true); got != "" {
		t.Errorf("TodaysLessons(quiet) empty = %q", got)
	}
}

func TestFeature_NextLesson(t *testing.T) {
	f := newTestFeature(t, timetableYAML, now.Add(2*time.Hour))

	got, err := f.NextLesson()
	if err != nil {
		t.Fatal(err)
	}
	if got != "Nästa lektion är i Biblioteket, 2026-10-14, kl 13:00 :slight_smile:" {
		t.Errorf("NextLesson() = %q", got)
	}

	late := newTestFeature(t, timetableYAML, now.AddDate(1, 0, 0))
	if got, _ := late.NextLesson(); got != "Det finns inga kommande lektioner på schemat" {
		t.Errorf("NextLesson() none = %q", got)
	}
}

func TestFeature_Curriculum(t *testing.T) {
	f := newTestFeature(t, timetableYAML, now)

	got, err := f.Curriculum(false)
	if err != nil {
		t.Fatal(err)
	}
	want := "Här är schemat 7 veckodagar framåt :slight_smile:\n" +
		"\n**Onsdag 2026-10-14**\nProgrammering i Sal 204, kl. 09:00 - 10:30\n" +
		"Svenska i Biblioteket, kl. 13:00 - 14:00\n" +
		"\n**Torsdag 2026-10-15**\nMatematik i Sal 12, kl. 13:00 - 14:30"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Curriculum() mismatch (-want +got):\n%s", diff)
	}

	empty := newTestFeature(t, "lessons: []\n", now)
	if got, _ := empty.Curriculum(false); got != "Just nu ser det tomt ut på schemat..." {
		t.Errorf("Curriculum() empty = %q", got)
	}
	if got, _ := empty.Curriculum(true); got != "" {
		t.Errorf("Curriculum(quiet) empty = %q", got)
	}
}

func TestFeature_CurriculumFitsInOneMessage(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("lessons:\n")
	for i := 0; i < 100; i++ {
		sb.WriteString("  - name: Programmering och webbutveckling\n    location: Sal 204\n")
		sb.WriteString("    begin: 2026-10-14T09:00:00Z\n    end: 2026-10-14T10:00:00Z\n")
	}
	f := newTestFeature(t, sb.String(), now)

	got, err := f.Curriculum(false)
	if err != nil {
		t.Fatal(err)
	}
	body := strings.TrimPrefix(got, "Här är schemat 7 veckodagar framåt :slight_smile:\n")
	if n := len([]rune(body)); n > messageLimit {
		t.Errorf("curriculum body is %d characters, want at most %d", n, messageLimit)
	}
}

func TestFeature_ThroughProcessor(t *testing.T) {
	f := newTestFeature(t, timetableYAML, now)
	p := interpreter.NewProcessor(&interpreter.Config{Logger: logging.NewNop()})
	if err := p.SetFeatures(f); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		content string
		want    interpreter.CommandSubcategory
	}{
		{"vilket klassrum har vi?", interpreter.SubcategoryNextLesson},
		{"vad har vi för lektioner idag", interpreter.SubcategoryTodaysLessons},
		{"hur ser schemat ut?", interpreter.SubcategoryCurriculum},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			interp := p.Process(interpreter.NewMessage(tt.content, interpreter.Member{}))
			if interp.Subcategory() != tt.want {
				t.Errorf("Subcategory() = %s, want %s", interp.Subcategory(), tt.want)
			}
		})
	}
}

func TestTimetable_Watch(t *testing.T) {
	path := writeTimetable(t, timetableYAML)
	tt, err := NewTimetable(path)
	if err != nil {
		t.Fatal(err)
	}
	loaded := tt.loadCount()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tt.Watch(ctx, logging.NewNop()) }()

	updated := `
lessons:
  - name: Fysik
    location: Labbet
    begin: 2026-10-16T09:00:00Z
    end: 2026-10-16T10:00:00Z
`
	deadline := time.Now().Add(5 * time.Second)
	for tt.loadCount() == loaded {
		if time.Now().After(deadline) {
			t.Fatal("timetable was not reloaded after write")
		}
		if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	// A reload can observe the file mid-write; wait for the final content.
	for {
		lessons, err := tt.Lessons()
		if err == nil && len(lessons) == 1 && lessons[0].Name == "Fysik" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Lessons() after reload = %+v, %v", lessons, err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch() did not stop on cancel")
	}
}
