package pollcache

import (
	"errors"
	"testing"
)

func seq(values ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v, nil
	}
}

func TestCache_Call(t *testing.T) {
	tests := []struct {
		name   string
		silent bool
		values []string
		want   []bool
	}{
		{"silent first", true, []string{"a", "a", "b", "b", "a"}, []bool{false, false, true, false, true}},
		{"loud first", false, []string{"a", "a", "b"}, []bool{true, false, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Config{SilentFirstCall: tt.silent})
			fn := seq(tt.values...)

			for i, want := range tt.want {
				value, changed, err := c.Call("queue", fn)
				if err != nil {
					t.Fatalf("Call() error = %v", err)
				}
				if changed != want {
					t.Errorf("call %d: changed = %v, want %v", i, changed, want)
				}
				if changed && value != tt.values[i] {
					t.Errorf("call %d: value = %q, want %q", i, value, tt.values[i])
				}
				if !changed && value != "" {
					t.Errorf("call %d: unchanged call returned %q", i, value)
				}
			}
		})
	}
}

func TestCache_KeysAreIndependent(t *testing.T) {
	c := New(Config{})

	if _, changed, _ := c.Call("a", seq("x")); !changed {
		t.Error("first call for key a should report a change")
	}
	if _, changed, _ := c.Call("b", seq("x")); !changed {
		t.Error("first call for key b should report a change")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}

	c.Forget("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get() after Forget should miss")
	}
}

func TestCache_ErrorKeepsObservation(t *testing.T) {
	c := New(DefaultConfig())
	c.Call("k", seq("v1"))

	boom := errors.New("boom")
	if _, _, err := c.Call("k", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("Call() error = %v, want boom", err)
	}

	e, ok := c.Get("k")
	if !ok || e.Value != "v1" {
		t.Errorf("Get() = %+v, %v; want v1", e, ok)
	}
}

func TestCache_Stats(t *testing.T) {
	c := New(DefaultConfig())
	fn := seq("a", "a", "a", "b")
	for i := 0; i < 4; i++ {
		c.Call("k", fn)
	}

	hits, misses, rate := c.Stats()
	if hits != 2 || misses != 2 {
		t.Errorf("Stats() = %d hits, %d misses; want 2, 2", hits, misses)
	}
	if rate != 0.5 {
		t.Errorf("hitRate = %v, want 0.5", rate)
	}
}
