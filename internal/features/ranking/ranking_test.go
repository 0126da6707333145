package ranking

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/msto63/robbot/internal/interpreter"
	"github.com/msto63/robbot/pkg/core/logging"
)

var (
	anna    = interpreter.Member{ID: "1", Name: "anna"}
	bertil  = interpreter.Member{ID: "2", Name: "bertil"}
	cecilia = interpreter.Member{ID: "3", Name: "cecilia"}
	david   = interpreter.Member{ID: "4", Name: "david"}
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(t.TempDir(), "ranking.db")})
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestFeature(t *testing.T) *Feature {
	t.Helper()
	f, err := New(&Config{Store: newTestStore(t), Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f
}

func mention(author interpreter.Member, mentions ...interpreter.Member) *interpreter.Message {
	return &interpreter.Message{Author: author, Mentions: mentions}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if score, err := store.Adjust(ctx, "1", "anna", 1); err != nil || score != 1 {
		t.Fatalf("Adjust() = %d, %v; want 1", score, err)
	}
	if score, _ := store.Adjust(ctx, "1", "anna", 1); score != 2 {
		t.Errorf("Adjust() = %d, want 2", score)
	}
	if score, _ := store.Adjust(ctx, "2", "bertil", -1); score != -1 {
		t.Errorf("Adjust() new member down = %d, want -1", score)
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []Score{{MemberID: "1", Name: "anna", Score: 2}, {MemberID: "2", Name: "bertil", Score: -1}}
	if diff := cmp.Diff(want, all, cmpopts.IgnoreFields(Score{}, "UpdatedAt")); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}

	if err := store.OptOut(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	if out, _ := store.OptedOut(ctx, "1"); !out {
		t.Error("OptedOut() = false after OptOut")
	}
	if _, ok, _ := store.Score(ctx, "1"); ok {
		t.Error("score should be removed on opt out")
	}
	if err := store.OptIn(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	if out, _ := store.OptedOut(ctx, "1"); out {
		t.Error("OptedOut() = true after OptIn")
	}
}

func TestFeature_RankUpDown(t *testing.T) {
	f := newTestFeature(t)

	got, err := f.RankUp(mention(anna, bertil, anna))
	if err != nil {
		t.Fatal(err)
	}
	if got != "<@2> ökade till 1" {
		t.Errorf("RankUp() = %q", got)
	}

	got, _ = f.RankDown(mention(anna, cecilia))
	if got != "<@3> minskade till -1" {
		t.Errorf("RankDown() = %q", got)
	}

	if got, _ := f.RankUp(mention(anna, anna)); got != "" {
		t.Errorf("self ranking should produce no reply, got %q", got)
	}
}

func TestFeature_OptOut(t *testing.T) {
	f := newTestFeature(t)
	f.RankUp(mention(anna, bertil))

	if got, _ := f.OptOut(mention(bertil)); got != "Ranking för <@2> har spärrats" {
		t.Errorf("OptOut() = %q", got)
	}
	if got, _ := f.RankUp(mention(anna, bertil)); got != optedOutReply {
		t.Errorf("RankUp() opted out = %q", got)
	}
	if got, _ := f.RankFor(mention(anna, bertil)); got != "<@2> har inte rankats" {
		t.Errorf("RankFor() = %q", got)
	}
	if got, _ := f.OptIn(mention(bertil)); got != "Ranking för <@2> har återaktiverats" {
		t.Errorf("OptIn() = %q", got)
	}
	if got, _ := f.RankUp(mention(anna, bertil)); got != "<@2> ökade till 1" {
		t.Errorf("RankUp() after opt in = %q", got)
	}
}

func TestFeature_HighScore(t *testing.T) {
	f := newTestFeature(t)

	if got, _ := f.HighScore(); got != "" {
		t.Errorf("HighScore() empty = %q", got)
	}

	for i := 0; i < 4; i++ {
		f.RankUp(mention(anna, david))
	}
	for i := 0; i < 3; i++ {
		f.RankUp(mention(anna, cecilia))
	}
	f.RankUp(mention(anna, bertil))
	f.RankUp(mention(bertil, anna))
	f.RankDown(mention(bertil, anna))
	f.RankDown(mention(bertil, anna))

	got, err := f.HighScore()
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		diamonds,
		"** H  I  G  H    S  C  O  R  E **",
		":first_place: **david**: **4**",
		":second_place: **cecilia**: **3**",
		":third_place: **bertil**: **1**",
		diamonds,
		"",
		":star: **anna**: **-1**",
	}, "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("HighScore() mismatch (-want +got):\n%s", diff)
	}
}

func TestFeature_ThroughProcessor(t *testing.T) {
	f := newTestFeature(t)
	p := interpreter.NewProcessor(&interpreter.Config{Logger: logging.NewNop()})
	if err := p.SetFeatures(f); err != nil {
		t.Fatal(err)
	}

	msg := interpreter.NewMessage("!rank upp <@2>", anna)
	msg.Mentions = []interpreter.Member{bertil}
	interp := p.Process(msg)
	if interp.Subcategory() != interpreter.SubcategoryRankUp {
		t.Fatalf("Subcategory() = %s, want RANK_UP", interp.Subcategory())
	}
	if got, err := interp.Respond(); err != nil || got != "<@2> ökade till 1" {
		t.Errorf("Respond() = %q, %v", got, err)
	}

	// Personal pronouns are not mapped for ranking
	if got := p.Process(interpreter.NewMessage("jag vill se rank alla", anna)).Category(); got != interpreter.CategoryUnidentified {
		t.Errorf("Category() = %s, want UNIDENTIFIED", got)
	}
}

func TestNew_RequiresStore(t *testing.T) {
	if _, err := New(&Config{}); err == nil {
		t.Error("New() expected error without store")
	}
}
