// Package schedule answers questions about lessons and posts the day's
// timetable.
package schedule

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/msto63/robbot/internal/interpreter"
	"github.com/msto63/robbot/pkg/core/logging"
)

const (
	// messageLimit is the longest message the chat accepts
	messageLimit = 2000
	horizonDays  = 7
)

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "Måndag",
	time.Tuesday:   "Tisdag",
	time.Wednesday: "Onsdag",
	time.Thursday:  "Torsdag",
	time.Friday:    "Fredag",
	time.Saturday:  "Lördag",
	time.Sunday:    "Söndag",
}

// Keywords that select the schedule
var Keywords = []string{"schema", "schemat", "lektion", "lektioner", "klassrum", "sal"}

// Config holds schedule configuration
type Config struct {
	Timetable *Timetable
	Now       func() time.Time
	Logger    *logging.Logger
}

// Feature is the schedule feature
type Feature struct {
	*interpreter.BaseFeature

	timetable *Timetable
	now       func() time.Time
	logger    *logging.Logger
}

// New creates the schedule feature
func New(cfg *Config) (*Feature, error) {
	if cfg == nil || cfg.Timetable == nil {
		return nil, fmt.Errorf("schedule: timetable is required")
	}
	f := &Feature{
		timetable: cfg.Timetable,
		now:       cfg.Now,
		logger:    cfg.Logger,
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.logger == nil {
		f.logger = logging.New("schedule")
	}

	base, err := interpreter.NewFeature(interpreter.FeatureConfig{
		Matcher: interpreter.MatcherConfig{
			Category: interpreter.CategorySchedule,
			Keywords: Keywords,
			Subcategories: map[string]interpreter.CommandSubcategory{
				"nästa":    interpreter.SubcategoryNextLesson,
				"klassrum": interpreter.SubcategoryNextLesson,
				"idag":     interpreter.SubcategoryTodaysLessons,
				"imorgon":  interpreter.SubcategoryCurriculum,
				"imorn":    interpreter.SubcategoryCurriculum,
				"imorrn":   interpreter.SubcategoryCurriculum,
				"schema":   interpreter.SubcategoryCurriculum,
				"schemat":  interpreter.SubcategoryCurriculum,
			},
		},
		Commands: map[interpreter.CommandSubcategory]interpreter.Action{
			interpreter.SubcategoryNextLesson:    interpreter.Immediate(f.NextLesson),
			interpreter.SubcategoryTodaysLessons: interpreter.Immediate(func() (string, error) { return f.TodaysLessons(false) }),
			interpreter.SubcategoryCurriculum:    interpreter.Immediate(func() (string, error) { return f.Curriculum(false) }),
		},
		MappedPronouns: []interpreter.PronounTag{interpreter.PronounInterrogative},
	})
	if err != nil {
		return nil, err
	}
	f.BaseFeature = base
	return f, nil
}

func sameDay(a, b time.Time) bool {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	return ya == yb && ma == mb && da == db
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func describe(l Lesson, loc *time.Location) string {
	return fmt.Sprintf("%s i %s, kl. %s - %s", l.Name, l.Location,
		l.Begin.In(loc).Format("15:04"), l.End.In(loc).Format("15:04"))
}

// TodaysLessons lists today's lessons. When quiet is set an empty day
// produces no text.
func (f *Feature) TodaysLessons(quiet bool) (string, error) {
	lessons, err := f.timetable.Lessons()
	if err != nil {
		return "", err
	}

	now := f.now()
	var lines []string
	for _, l := range lessons {
		if sameDay(l.Begin.In(now.Location()), now) {
			lines = append(lines, describe(l, now.Location()))
		}
	}

	if len(lines) == 0 {
		if quiet {
			return "", nil
		}
		return "Det finns inga lektioner på schemat idag :sunglasses:", nil
	}
	return "Schemat för dagen:\n" + strings.Join(lines, "\n"), nil
}

// NextLesson names the room and time of the next lesson that has not
// started yet
func (f *Feature) NextLesson() (string, error) {
	lessons, err := f.timetable.Lessons()
	if err != nil {
		return "", err
	}

	now := f.now()
	for _, l := range lessons {
		if l.Begin.After(now) {
			begin := l.Begin.In(now.Location())
			return fmt.Sprintf("Nästa lektion är i %s, %s, kl %s :slight_smile:",
				l.Location, begin.Format("2006-01-02"), begin.Format("15:04")), nil
		}
	}
	return "Det finns inga kommande lektioner på schemat", nil
}

// Curriculum lists the lessons of the coming week grouped by day, cut to
// fit in one chat message. When quiet is set an empty schedule produces no
// text.
func (f *Feature) Curriculum(quiet bool) (string, error) {
	lessons, err := f.timetable.Lessons()
	if err != nil {
		return "", err
	}

	now := f.now()
	loc := now.Location()
	today := midnight(now)
	horizon := today.AddDate(0, 0, horizonDays)
	remaining := messageLimit

	var parts []string
	var lastDay time.Time
	for _, l := range lessons {
		begin := l.Begin.In(loc)
		day := midnight(begin)
		if day.Before(today) {
			continue
		}
		if day.After(horizon) {
			break
		}

		phrase := describe(l, loc)
		if !day.Equal(lastDay) {
			phrase = fmt.Sprintf("\n**%s %s**\n%s", weekdayNames[day.Weekday()], day.Format("2006-01-02"), phrase)
		}
		// one extra for the joining newline
		n := utf8.RuneCountInString(phrase) + 1
		if remaining-n <= 10 {
			break
		}
		parts = append(parts, phrase)
		remaining -= n
		lastDay = day
	}

	if len(parts) == 0 {
		if quiet {
			return "", nil
		}
		return "Just nu ser det tomt ut på schemat...", nil
	}
	return "Här är schemat 7 veckodagar framåt :slight_smile:\n" + strings.Join(parts, "\n"), nil
}
