// ============================================================================
// robbot - Classroom chat bot
// ============================================================================
//
// Package:     scheduler
// Description: Periodic jobs whose output is posted to chat channels
// License:     MIT
// ============================================================================

package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/msto63/robbot/internal/pollcache"
	"github.com/msto63/robbot/pkg/core/logging"
)

// JobFunc produces the text a job posts. An empty text posts nothing.
type JobFunc func(ctx context.Context) (string, error)

// Result is the output of one job run
type Result struct {
	Channel string
	Text    string
}

// Deliverer posts job results. An empty channel means the default channel.
type Deliverer interface {
	Deliver(ctx context.Context, jobID string, result Result) error
}

// DelivererFunc adapts a function to Deliverer
type DelivererFunc func(ctx context.Context, jobID string, result Result) error

// Deliver calls f
func (f DelivererFunc) Deliver(ctx context.Context, jobID string, result Result) error {
	return f(ctx, jobID, result)
}

type job struct {
	id       string
	channel  string
	schedule Schedule
	fn       JobFunc
	next     time.Time
	lastRun  time.Time
}

// JobInfo describes a registered job
type JobInfo struct {
	ID       string
	Channel  string
	Schedule string
	Next     time.Time
	LastRun  time.Time
}

// Config holds scheduler configuration
type Config struct {
	// QuietFrom and QuietUntil are hours of the day. Results produced in
	// [QuietFrom, 24) or [0, QuietUntil) are not delivered.
	QuietFrom  int
	QuietUntil int
	Now        func() time.Time
	Random     RandomSource
	Logger     *logging.Logger
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		QuietFrom:  22,
		QuietUntil: 8,
		Now:        time.Now,
		Random:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Scheduler runs registered jobs when they are due
type Scheduler struct {
	mu         sync.Mutex
	jobs       map[string]*job
	quietFrom  int
	quietUntil int
	now        func() time.Time
	random     RandomSource
	logger     *logging.Logger
}

// New creates a new scheduler
func New(cfg *Config) *Scheduler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Scheduler{
		jobs:       make(map[string]*job),
		quietFrom:  cfg.QuietFrom,
		quietUntil: cfg.QuietUntil,
		now:        cfg.Now,
		random:     cfg.Random,
		logger:     cfg.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.random == nil {
		s.random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.logger == nil {
		s.logger = logging.New("scheduler")
	}
	return s
}

// Add registers a job. The first run is computed from the current time.
func (s *Scheduler) Add(id, channel string, schedule Schedule, fn JobFunc) error {
	if id == "" {
		return fmt.Errorf("job id is required")
	}
	if schedule == nil || fn == nil {
		return fmt.Errorf("job %s: schedule and function are required", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job %s already registered", id)
	}
	s.jobs[id] = &job{
		id:       id,
		channel:  channel,
		schedule: schedule,
		fn:       fn,
		next:     schedule.Next(s.now(), s.random),
	}
	s.logger.Info("Job registered", "job", id, "schedule", schedule.String())
	return nil
}

// Remove unregisters a job
func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// Jobs returns the registered jobs sorted by id
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, JobInfo{
			ID:       j.id,
			Channel:  j.channel,
			Schedule: j.schedule.String(),
			Next:     j.next,
			LastRun:  j.lastRun,
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// RunPending runs every due job and returns the non-empty results keyed by
// job id. Failing jobs are logged and left out.
func (s *Scheduler) RunPending(ctx context.Context) map[string]Result {
	now := s.now()

	s.mu.Lock()
	var due []*job
	for _, j := range s.jobs {
		if !j.next.After(now) {
			due = append(due, j)
			j.lastRun = now
			j.next = j.schedule.Next(now, s.random)
		}
	}
	s.mu.Unlock()

	results := make(map[string]Result, len(due))
	for _, j := range due {
		text, err := s.runJob(ctx, j)
		if err != nil {
			s.logger.Error("Job failed", "job", j.id, "error", err)
			continue
		}
		if text == "" {
			continue
		}
		results[j.id] = Result{Channel: j.channel, Text: text}
	}
	return results
}

func (s *Scheduler) runJob(ctx context.Context, j *job) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return j.fn(ctx)
}

// Quiet reports whether t falls within quiet hours
func (s *Scheduler) Quiet(t time.Time) bool {
	if s.quietFrom == s.quietUntil {
		return false
	}
	h := t.Hour()
	if s.quietFrom > s.quietUntil {
		return h >= s.quietFrom || h < s.quietUntil
	}
	return h >= s.quietFrom && h < s.quietUntil
}

// Run calls RunPending every tick and hands the results to d until ctx is
// cancelled. Results produced during quiet hours are dropped.
func (s *Scheduler) Run(ctx context.Context, tick time.Duration, d Deliverer) error {
	if tick <= 0 {
		return fmt.Errorf("scheduler: tick must be positive, got %v", tick)
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	s.logger.Info("Scheduler started", "tick", tick, "jobs", len(s.Jobs()))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			s.dispatch(ctx, d)
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, d Deliverer) {
	results := s.RunPending(ctx)
	if len(results) == 0 {
		return
	}
	if s.Quiet(s.now()) {
		s.logger.Debug("Quiet hours, dropping job results", "count", len(results))
		return
	}
	for id, res := range results {
		if err := d.Deliver(ctx, id, res); err != nil {
			s.logger.Warn("Failed to deliver job result", "job", id, "error", err)
		}
	}
}

// Polled wraps fn so that it only produces text when the value changed since
// the previous run.
func Polled(cache *pollcache.Cache, key string, fn JobFunc) JobFunc {
	return func(ctx context.Context) (string, error) {
		value, _, err := cache.Call(key, func() (string, error) { return fn(ctx) })
		return value, err
	}
}
