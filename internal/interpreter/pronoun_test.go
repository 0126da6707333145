package interpreter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPronounClassifier_Lookup(t *testing.T) {
	c := NewPronounClassifier()

	tests := []struct {
		name   string
		tokens []string
		want   PronounSet
	}{
		{"no table words", []string{"hjälp", "mig"}, PronounSet{PronounUnidentified}},
		{"empty token", []string{""}, PronounSet{PronounUnidentified}},
		{"interrogative and personal", []string{"vem", "är", "du"}, PronounSet{PronounInterrogative, PronounPersonal}},
		{"personal before interrogative", []string{"du", "vem"}, PronounSet{PronounInterrogative, PronounPersonal}},
		{"question mark", []string{"lunch?"}, PronounSet{PronounInterrogative}},
		{"question mark with table word", []string{"vad?"}, PronounSet{PronounInterrogative}},
		{"possessive", []string{"mitt", "schema"}, PronounSet{PronounPossessive}},
		{"all three", []string{"när", "är", "min", "lektion", "för", "mig", "och", "dem"}, PronounSet{PronounInterrogative, PronounPersonal, PronounPossessive}},
		{"duplicates collapse", []string{"vad", "vad", "hur?"}, PronounSet{PronounInterrogative}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Lookup(tt.tokens)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Lookup(%v) mismatch (-want +got):\n%s", tt.tokens, diff)
			}
		})
	}
}

func TestPronounClassifier_UnidentifiedWithoutTableWords(t *testing.T) {
	c := NewPronounClassifier()
	inputs := [][]string{
		{"lunch", "idag"},
		{"rank", "upp", "<@1>"},
		{"!hjälp", "mig"},
		{"a", "b", "c", "d"},
	}

	for _, tokens := range inputs {
		got := c.Lookup(tokens)
		if len(got) != 1 || got[0] != PronounUnidentified {
			t.Errorf("Lookup(%v) = %v, want (UNIDENTIFIED)", tokens, got)
		}
	}
}

func TestPronounSet(t *testing.T) {
	set := NewPronounSet(PronounPersonal, PronounInterrogative, PronounPersonal)

	if diff := cmp.Diff(PronounSet{PronounInterrogative, PronounPersonal}, set); diff != "" {
		t.Errorf("NewPronounSet mismatch (-want +got):\n%s", diff)
	}
	if !set.Contains(PronounPersonal) {
		t.Error("set should contain PERSONAL")
	}
	if set.Contains(PronounPossessive) {
		t.Error("set should not contain POSSESSIVE")
	}
	if !set.Intersects(PronounSet{PronounPossessive, PronounInterrogative}) {
		t.Error("sets should intersect")
	}
	if set.Intersects(PronounSet{PronounUnidentified}) {
		t.Error("sets should not intersect")
	}
	if got := set.String(); got != "(INTERROGATIVE, PERSONAL)" {
		t.Errorf("String() = %q", got)
	}
}
