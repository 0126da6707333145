package cache

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(t *testing.T, maxItems int) (*Cache[string], *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)}
	c := New[string](Config{MaxItems: maxItems, TTL: time.Minute, Now: clock.Now})
	t.Cleanup(c.Close)
	return c, clock
}

func TestCache_GetSet(t *testing.T) {
	c, clock := newTestCache(t, 10)

	if _, ok := c.Get("a"); ok {
		t.Fatal("Get() on empty cache returned ok")
	}

	c.Set("a", "1")
	c.SetWithTTL("b", "2", 0)
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}

	clock.Advance(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) returned expired entry")
	}
	if v, ok := c.Get("b"); !ok || v != "2" {
		t.Errorf("Get(b) = %q, %v; want entry without expiry", v, ok)
	}

	hits, misses, rate := c.Stats()
	if hits != 2 || misses != 2 || rate != 50 {
		t.Errorf("Stats() = %d, %d, %v", hits, misses, rate)
	}
}

func TestCache_DeleteClear(t *testing.T) {
	c, _ := newTestCache(t, 10)
	c.Set("a", "1")
	c.Set("b", "2")

	c.Delete("a")
	if c.Size() != 1 {
		t.Errorf("Size() after Delete = %d, want 1", c.Size())
	}
	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size() after Clear = %d, want 0", c.Size())
	}
}

func TestCache_EvictsOldest(t *testing.T) {
	c, clock := newTestCache(t, 2)

	c.Set("first", "1")
	clock.Advance(time.Second)
	c.Set("second", "2")
	c.Set("second", "2b")
	if c.Size() != 2 {
		t.Fatalf("overwrite evicted an entry, Size() = %d", c.Size())
	}

	c.Set("third", "3")
	if _, ok := c.Get("first"); ok {
		t.Error("oldest entry was not evicted")
	}
	for _, key := range []string{"second", "third"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("Get(%s) missing", key)
		}
	}
}

func TestCache_GetOrSet(t *testing.T) {
	c, clock := newTestCache(t, 10)

	calls := 0
	load := func() (string, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		if v, err := c.GetOrSet("k", load); err != nil || v != "value" {
			t.Fatalf("GetOrSet() = %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}

	clock.Advance(2 * time.Minute)
	c.GetOrSet("k", load)
	if calls != 2 {
		t.Errorf("loader called %d times after expiry, want 2", calls)
	}

	errBoom := errors.New("boom")
	_, err := c.GetOrSet("fail", func() (string, error) { return "", errBoom })
	if !errors.Is(err, errBoom) {
		t.Errorf("GetOrSet() error = %v", err)
	}
	if _, ok := c.Get("fail"); ok {
		t.Error("failed load was cached")
	}
}

func TestCache_Cleanup(t *testing.T) {
	c, clock := newTestCache(t, 10)
	c.Set("a", "1")
	c.SetWithTTL("b", "2", time.Hour)

	clock.Advance(2 * time.Minute)
	c.cleanup()
	if c.Size() != 1 {
		t.Errorf("Size() after cleanup = %d, want 1", c.Size())
	}
}

func TestCache_CloseStopsLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := New[int](Config{CleanupInterval: time.Millisecond})
	c.Set("a", 1)
	time.Sleep(5 * time.Millisecond)
	c.Close()
	c.Close()
}
