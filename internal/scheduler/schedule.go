// ============================================================================
// robbot - Classroom chat bot
// ============================================================================
//
// Package:     scheduler
// Description: Job schedules: fixed, randomised, daily and weekly
// License:     MIT
// ============================================================================

package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// RandomSource picks random durations. *rand.Rand satisfies it.
type RandomSource interface {
	Int63n(n int64) int64
}

// Schedule computes the next run time of a job
type Schedule interface {
	Next(after time.Time, rnd RandomSource) time.Time
	String() string
}

type every struct {
	d time.Duration
}

// Every runs a job at a fixed interval
func Every(d time.Duration) Schedule {
	return every{d: d}
}

func (e every) Next(after time.Time, _ RandomSource) time.Time {
	return after.Add(e.d)
}

func (e every) String() string {
	return "every " + e.d.String()
}

type everyBetween struct {
	min, max time.Duration
}

// EveryBetween runs a job at a random interval in [min, max]. The interval
// is drawn again after every run.
func EveryBetween(min, max time.Duration) Schedule {
	if max < min {
		min, max = max, min
	}
	return everyBetween{min: min, max: max}
}

func (e everyBetween) Next(after time.Time, rnd RandomSource) time.Time {
	span := int64(e.max - e.min)
	if span <= 0 {
		return after.Add(e.min)
	}
	return after.Add(e.min + time.Duration(rnd.Int63n(span+1)))
}

func (e everyBetween) String() string {
	return fmt.Sprintf("every %s to %s", e.min, e.max)
}

type clock struct {
	hour, minute int
}

func parseClock(hhmm string) (clock, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return clock{}, fmt.Errorf("invalid time of day %q: %w", hhmm, err)
	}
	return clock{hour: t.Hour(), minute: t.Minute()}, nil
}

func (c clock) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.hour, c.minute, 0, 0, day.Location())
}

type dailyAt struct {
	at clock
}

// DailyAt runs a job every day at hh:mm local time
func DailyAt(hhmm string) (Schedule, error) {
	c, err := parseClock(hhmm)
	if err != nil {
		return nil, err
	}
	return dailyAt{at: c}, nil
}

func (d dailyAt) Next(after time.Time, _ RandomSource) time.Time {
	next := d.at.on(after)
	if !next.After(after) {
		next = d.at.on(after.AddDate(0, 0, 1))
	}
	return next
}

func (d dailyAt) String() string {
	return fmt.Sprintf("daily at %02d:%02d", d.at.hour, d.at.minute)
}

type weeklyAt struct {
	day time.Weekday
	at  clock
}

// WeeklyAt runs a job once a week on day at hh:mm local time
func WeeklyAt(day time.Weekday, hhmm string) (Schedule, error) {
	c, err := parseClock(hhmm)
	if err != nil {
		return nil, err
	}
	return weeklyAt{day: day, at: c}, nil
}

func (w weeklyAt) Next(after time.Time, _ RandomSource) time.Time {
	offset := (int(w.day) - int(after.Weekday()) + 7) % 7
	next := w.at.on(after.AddDate(0, 0, offset))
	if !next.After(after) {
		next = w.at.on(after.AddDate(0, 0, offset+7))
	}
	return next
}

func (w weeklyAt) String() string {
	return fmt.Sprintf("every %s at %02d:%02d", w.day, w.at.hour, w.at.minute)
}

// ParseWeekday parses an English weekday name such as "sunday"
func ParseWeekday(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", name)
}
