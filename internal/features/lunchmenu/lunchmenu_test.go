package lunchmenu

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/msto63/robbot/internal/interpreter"
	"github.com/msto63/robbot/pkg/core/logging"
	"golang.org/x/net/html"
)

const menuPage = `<html><body>
<div class="menu-day"><h2>Måndag</h2><ul><li>Köttbullar med potatismos</li><li>Vegetarisk  lasagne</li></ul></div>
<div class="menu-day"><ul><li>Fiskgratäng</li></ul></div>
<div class="menu-day highlight"><ul><li>Pannkakor <em>med sylt</em></li></ul></div>
<div class="menu-day"></div>
<div class="menu-day"><ul><li>Tacos</li></ul></div>
</body></html>`

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

// Wednesday
var wednesday = time.Date(2026, 10, 14, 11, 0, 0, 0, time.Local)

func newTestServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Write([]byte(menuPage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestFeature(t *testing.T, url string, c *clock) *Feature {
	t.Helper()
	f, err := New(&Config{URL: url, Timeout: time.Second, Now: c.Now, Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f
}

func TestParseWeek(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(menuPage))
	if err != nil {
		t.Fatal(err)
	}

	want := Week{
		{"Köttbullar med potatismos", "Vegetarisk lasagne"},
		{"Fiskgratäng"},
		{"Pannkakor med sylt"},
		nil,
		{"Tacos"},
	}
	if diff := cmp.Diff(want, ParseWeek(doc)); diff != "" {
		t.Errorf("ParseWeek() mismatch (-want +got):\n%s", diff)
	}
}

func TestFeature_MenuFor(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	f := newTestFeature(t, srv.URL, &clock{now: wednesday})

	tests := []struct {
		name   string
		offset int
		when   string
		want   string
	}{
		{"yesterday", -1, "igår", "Detta serverades igår!\n\nFiskgratäng"},
		{"today", 0, "idag", "Detta serveras idag!\n\nPannkakor med sylt"},
		{"empty day", 1, "imorgon", "Jag ser inget på menyn för imorgon."},
		{"weekend", 3, "på lördag", "Jag ser inget på menyn för på lördag."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.MenuFor(tt.offset, tt.when)
			if err != nil {
				t.Fatalf("MenuFor() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("MenuFor() = %q, want %q", got, tt.want)
			}
		})
	}

	if hits != 1 {
		t.Errorf("page fetched %d times, want 1", hits)
	}
}

func TestFeature_CacheExpires(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	c := &clock{now: wednesday}
	f := newTestFeature(t, srv.URL, c)

	f.MenuForWeek()
	c.now = c.now.AddDate(0, 0, 4)
	f.MenuForWeek()
	if hits != 1 {
		t.Errorf("fetched %d times within four days, want 1", hits)
	}

	c.now = c.now.AddDate(0, 0, 1)
	f.MenuForWeek()
	if hits != 2 {
		t.Errorf("fetched %d times after five days, want 2", hits)
	}
}

func TestFeature_MenuForWeek(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	f := newTestFeature(t, srv.URL, &clock{now: wednesday})

	got, err := f.MenuForWeek()
	if err != nil {
		t.Fatal(err)
	}
	want := "Här är veckans meny :slight_smile:\n\n" +
		"**Måndag**\nKöttbullar med potatismos\nVegetarisk lasagne\n\n" +
		"**Tisdag**\nFiskgratäng\n\n" +
		"**Onsdag**\nPannkakor med sylt\n\n" +
		"**Torsdag**\nMeny inte tillgänglig.\n\n" +
		"**Fredag**\nTacos"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MenuForWeek() mismatch (-want +got):\n%s", diff)
	}
}

func TestFeature_FetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := newTestFeature(t, srv.URL, &clock{now: wednesday})
	if _, err := f.MenuFor(0, "idag"); err == nil {
		t.Error("MenuFor() expected error on HTTP 502")
	}
}

func TestFeature_ThroughProcessor(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	f := newTestFeature(t, srv.URL, &clock{now: wednesday})

	p := interpreter.NewProcessor(&interpreter.Config{Logger: logging.NewNop()})
	if err := p.SetFeatures(f); err != nil {
		t.Fatal(err)
	}

	interp := p.Process(interpreter.NewMessage("Vad blir det för lunch idag?", interpreter.Member{}))
	if interp.Subcategory() != interpreter.SubcategoryMenuToday {
		t.Fatalf("Subcategory() = %s, want MENU_TODAY", interp.Subcategory())
	}
	if hits != 0 {
		t.Error("menu fetched before responding")
	}
	got, err := interp.Respond()
	if err != nil || got != "Detta serveras idag!\n\nPannkakor med sylt" {
		t.Errorf("Respond() = %q, %v", got, err)
	}
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := New(&Config{}); err == nil {
		t.Error("New() expected error without url")
	}
}
