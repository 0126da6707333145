// Package lunchmenu answers questions about the school restaurant menu.
package lunchmenu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/msto63/robbot/internal/interpreter"
	"github.com/msto63/robbot/pkg/core/logging"
)

var weekdays = [5]string{"**Måndag**", "**Tisdag**", "**Onsdag**", "**Torsdag**", "**Fredag**"}

// Keywords that select the lunch menu
var Keywords = []string{"lunch", "mat", "käk", "krubb", "föda", "tugg", "matsedel", "meny"}

// Config holds lunch menu configuration
type Config struct {
	URL     string
	Timeout time.Duration
	Now     func() time.Time
	Logger  *logging.Logger
}

// Feature is the lunch menu feature
type Feature struct {
	*interpreter.BaseFeature

	scraper *Scraper
	timeout time.Duration
	now     func() time.Time
	logger  *logging.Logger
}

// New creates the lunch menu feature
func New(cfg *Config) (*Feature, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("lunchmenu: url is required")
	}
	f := &Feature{
		timeout: cfg.Timeout,
		now:     cfg.Now,
		logger:  cfg.Logger,
	}
	if f.timeout <= 0 {
		f.timeout = 10 * time.Second
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.logger == nil {
		f.logger = logging.New("lunchmenu")
	}
	f.scraper = NewScraper(cfg.URL, f.timeout)
	f.scraper.now = f.now

	day := func(offset int, when string) interpreter.Action {
		return interpreter.Immediate(func() (string, error) { return f.MenuFor(offset, when) })
	}

	base, err := interpreter.NewFeature(interpreter.FeatureConfig{
		Matcher: interpreter.MatcherConfig{
			Category: interpreter.CategoryLunchMenu,
			Keywords: Keywords,
			Subcategories: map[string]interpreter.CommandSubcategory{
				"igår":       interpreter.SubcategoryMenuYesterday,
				"idag":       interpreter.SubcategoryMenuToday,
				"imorn":      interpreter.SubcategoryMenuTomorrow,
				"imorgon":    interpreter.SubcategoryMenuTomorrow,
				"imorron":    interpreter.SubcategoryMenuTomorrow,
				"imorrn":     interpreter.SubcategoryMenuTomorrow,
				"övermorgon": interpreter.SubcategoryMenuDayAfterTomorrow,
				"övermorn":   interpreter.SubcategoryMenuDayAfterTomorrow,
				"övermorrn":  interpreter.SubcategoryMenuDayAfterTomorrow,
				"vecka":      interpreter.SubcategoryMenuWeek,
				"veckan":     interpreter.SubcategoryMenuWeek,
				"veckans":    interpreter.SubcategoryMenuWeek,
			},
		},
		Commands: map[interpreter.CommandSubcategory]interpreter.Action{
			interpreter.SubcategoryMenuYesterday:        day(-1, "igår"),
			interpreter.SubcategoryMenuToday:            day(0, "idag"),
			interpreter.SubcategoryMenuTomorrow:         day(1, "imorgon"),
			interpreter.SubcategoryMenuDayAfterTomorrow: day(2, "i övermorgon"),
			interpreter.SubcategoryMenuWeek:             interpreter.Immediate(f.MenuForWeek),
		},
		MappedPronouns: []interpreter.PronounTag{interpreter.PronounInterrogative},
	})
	if err != nil {
		return nil, err
	}
	f.BaseFeature = base
	return f, nil
}

// MenuFor returns the menu offset days from today, phrased with when
func (f *Feature) MenuFor(offset int, when string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	day := f.now().AddDate(0, 0, offset).Weekday()
	menu, err := f.scraper.Day(ctx, day)
	if err != nil {
		f.logger.Warn("Failed to get menu", "error", err)
		return "", err
	}
	if len(menu) == 0 {
		return fmt.Sprintf("Jag ser inget på menyn för %s.", when), nil
	}

	tense := "as"
	if offset < 0 {
		tense = "ades"
	}
	return fmt.Sprintf("Detta server%s %s!\n\n%s", tense, when, strings.Join(menu, "\n")), nil
}

// MenuForWeek returns the menu for every weekday
func (f *Feature) MenuForWeek() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	week, err := f.scraper.Week(ctx)
	if err != nil {
		f.logger.Warn("Failed to get menu", "error", err)
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Här är veckans meny :slight_smile:\n\n")
	for i, dishes := range week {
		sb.WriteString(weekdays[i])
		sb.WriteString("\n")
		if len(dishes) == 0 {
			sb.WriteString("Meny inte tillgänglig.\n")
		}
		for _, d := range dishes {
			sb.WriteString(d)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
