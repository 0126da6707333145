package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msto63/robbot/internal/pollcache"
	"github.com/msto63/robbot/pkg/core/logging"
)

func TestNotifier_Poll(t *testing.T) {
	h := newTestHub()
	teacher := join(h, "t1", "Lärare", "general", "teacher")
	join(h, "u1", "Anna", "general")

	value := "Kön är tom"
	var sourceErr error
	n := NewNotifier(h, NotifierConfig{
		Key:    "helpqueue",
		Role:   "teacher",
		Source: func() (string, error) { return value, sourceErr },
		Cache:  pollcache.New(pollcache.Config{SilentFirstCall: true}),
		Logger: logging.NewNop(),
	})

	steps := []struct {
		name  string
		value string
		err   error
		want  int
	}{
		{"first observation is silent", "Kön är tom", nil, 0},
		{"unchanged", "Kön är tom", nil, 0},
		{"changed", "Plats **1**: <@u1>", nil, 1},
		{"source error", "Plats **1**: <@u1>", errors.New("nope"), 0},
		{"unchanged after error", "Plats **1**: <@u1>", nil, 0},
		{"back to empty", "Kön är tom", nil, 1},
	}
	for _, step := range steps {
		value, sourceErr = step.value, step.err
		if got := n.Poll(); got != step.want {
			t.Errorf("%s: Poll() = %d, want %d", step.name, got, step.want)
		}
	}

	got := drain(teacher)
	if len(got) != 2 || got[0].Content != "Plats **1**: <@u1>" || !got[0].Direct {
		t.Errorf("teacher received %+v", got)
	}
}

func TestNotifier_RunStops(t *testing.T) {
	n := NewNotifier(newTestHub(), NotifierConfig{
		Role:     "teacher",
		Interval: time.Millisecond,
		Source:   func() (string, error) { return "", nil },
		Logger:   logging.NewNop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}
