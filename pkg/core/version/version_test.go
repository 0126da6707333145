package version

import (
	"regexp"
	"strings"
	"testing"
)

var semver = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

func TestVersionConstants(t *testing.T) {
	for name, v := range map[string]string{
		"Platform":    Platform,
		"Gateway":     Gateway,
		"Interpreter": Interpreter,
		"Scheduler":   Scheduler,
		"Admin":       Admin,
	} {
		if !semver.MatchString(v) {
			t.Errorf("%s = %q, want semantic version", name, v)
		}
	}
}

func TestComponentVersion(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"gateway", Gateway},
		{"interpreter", Interpreter},
		{"scheduler", Scheduler},
		{"admin", Admin},
		{"unknown", Platform},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComponentVersion(tt.name); got != tt.want {
				t.Errorf("ComponentVersion(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, Platform) || !strings.Contains(s, Commit) {
		t.Errorf("String() = %q", s)
	}
}
