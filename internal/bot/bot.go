// ============================================================================
// robbot - Classroom chat bot
// ============================================================================
//
// Package:     bot
// Description: Assembles features, processor, scheduler and health checks
//              from configuration
// License:     MIT
// ============================================================================

package bot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/msto63/robbot/internal/features/helpqueue"
	"github.com/msto63/robbot/internal/features/lunchmenu"
	"github.com/msto63/robbot/internal/features/ranking"
	"github.com/msto63/robbot/internal/features/redditjoke"
	"github.com/msto63/robbot/internal/features/schedule"
	"github.com/msto63/robbot/internal/interpreter"
	"github.com/msto63/robbot/internal/pollcache"
	"github.com/msto63/robbot/internal/scheduler"
	"github.com/msto63/robbot/pkg/core/config"
	"github.com/msto63/robbot/pkg/core/health"
	"github.com/msto63/robbot/pkg/core/logging"
	"github.com/msto63/robbot/pkg/core/version"
)

// Feature names as used in the features.disabled config list
const (
	FeatureHelpQueue  = "helpqueue"
	FeatureRanking    = "ranking"
	FeatureLunchMenu  = "lunchmenu"
	FeatureSchedule   = "schedule"
	FeatureRedditJoke = "redditjoke"
)

// Health check names
const (
	CheckFeatures     = "features"
	CheckRankingStore = "ranking-store"
	CheckLunchMenu    = "lunch-menu"
	CheckRedditJoke   = "reddit"
)

// Job IDs registered on the scheduler
const (
	JobLessons    = "lessons"
	JobCurriculum = "curriculum"
	JobJoke       = "joke"
)

// Bot holds the assembled components
type Bot struct {
	Processor *interpreter.Processor
	Scheduler *scheduler.Scheduler
	Health    *health.Registry
	// Cache backs the role notifier; its first observation is silent
	Cache *pollcache.Cache

	HelpQueue  *helpqueue.Feature
	Ranking    *ranking.Feature
	LunchMenu  *lunchmenu.Feature
	Schedule   *schedule.Feature
	Timetable  *schedule.Timetable
	RedditJoke *redditjoke.Feature

	// jobCache suppresses repeated identical announcements
	jobCache *pollcache.Cache
	store    *ranking.SQLiteStore
	logger   *logging.Logger
}

// New builds every enabled feature, registers them on a processor and
// prepares the scheduled jobs. Registration order is lunch menu, schedule,
// joke, ranking, help queue. Features whose external
// resources are not configured are skipped with a warning.
func New(cfg *config.Config, logger *logging.Logger) (*Bot, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.New("robbot")
	}

	b := &Bot{
		Health:   health.NewRegistry(cfg.General.Name, version.Platform),
		Cache:    pollcache.New(pollcache.DefaultConfig()),
		jobCache: pollcache.New(pollcache.Config{}),
		logger:   logger,
	}

	var features []interpreter.Feature
	var err error

	if cfg.FeatureEnabled(FeatureHelpQueue) {
		b.HelpQueue, err = helpqueue.New(&helpqueue.Config{
			TeacherRole: cfg.Features.HelpQueue.TeacherRole,
			Logger:      logger.With("feature", FeatureHelpQueue),
		})
		if err != nil {
			return nil, fmt.Errorf("help queue: %w", err)
		}
	}

	if cfg.FeatureEnabled(FeatureLunchMenu) {
		if cfg.Features.LunchMenu.URL == "" {
			logger.Warn("Lunch menu disabled, no url configured")
		} else {
			b.LunchMenu, err = lunchmenu.New(&lunchmenu.Config{
				URL:     cfg.Features.LunchMenu.URL,
				Timeout: cfg.Features.LunchMenu.Timeout.Duration,
				Logger:  logger.With("feature", FeatureLunchMenu),
			})
			if err != nil {
				return nil, fmt.Errorf("lunch menu: %w", err)
			}
			features = append(features, b.LunchMenu)
		}
	}

	if cfg.FeatureEnabled(FeatureSchedule) {
		tt, err := schedule.NewTimetable(cfg.Features.Schedule.TimetablePath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("Schedule disabled, timetable not found", "path", cfg.Features.Schedule.TimetablePath)
		case err != nil:
			return nil, fmt.Errorf("schedule: %w", err)
		default:
			b.Schedule, err = schedule.New(&schedule.Config{
				Timetable: tt,
				Logger:    logger.With("feature", FeatureSchedule),
			})
			if err != nil {
				return nil, fmt.Errorf("schedule: %w", err)
			}
			b.Timetable = tt
			features = append(features, b.Schedule)
		}
	}

	if cfg.FeatureEnabled(FeatureRedditJoke) {
		b.RedditJoke, err = redditjoke.New(&redditjoke.Config{
			BaseURL:    cfg.Features.RedditJoke.BaseURL,
			Subreddit:  cfg.Features.RedditJoke.Subreddit,
			UserAgent:  cfg.Features.RedditJoke.UserAgent,
			Timeout:    cfg.Features.RedditJoke.Timeout.Duration,
			ListingTTL: cfg.Features.RedditJoke.ListingTTL.Duration,
			Logger:     logger.With("feature", FeatureRedditJoke),
		})
		if err != nil {
			return nil, fmt.Errorf("reddit joke: %w", err)
		}
		features = append(features, b.RedditJoke)
	}

	if cfg.FeatureEnabled(FeatureRanking) {
		path := cfg.Features.Ranking.DatabasePath
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("ranking: create data dir: %w", err)
		}
		b.store, err = ranking.NewSQLiteStore(ranking.SQLiteConfig{Path: path})
		if err != nil {
			return nil, fmt.Errorf("ranking: %w", err)
		}
		b.Ranking, err = ranking.New(&ranking.Config{
			Store:  b.store,
			Logger: logger.With("feature", FeatureRanking),
		})
		if err != nil {
			b.store.Close()
			return nil, fmt.Errorf("ranking: %w", err)
		}
		b.Health.Register(health.PingCheck(CheckRankingStore, b.store.Ping))
		features = append(features, b.Ranking)
	}

	if b.HelpQueue != nil {
		features = append(features, b.HelpQueue)
	}

	b.Processor = interpreter.NewProcessor(&interpreter.Config{
		Phrases: interpreter.Phrases{
			NoImplementation: cfg.Phrases.NoImplementation,
			NoSubcategory:    cfg.Phrases.NoSubcategory,
			NoResponse:       cfg.Phrases.NoResponse,
			InternalError:    cfg.Phrases.InternalError,
		},
		Logger: logger.With("component", "interpreter"),
	})
	if err := b.Processor.SetFeatures(features...); err != nil {
		b.Close()
		return nil, err
	}
	b.Health.RegisterFunc(CheckFeatures, func(ctx context.Context) health.CheckResult {
		n := len(b.Processor.Features())
		if n == 0 {
			return health.CheckResult{Status: health.StatusDegraded, Message: "no features registered"}
		}
		return health.CheckResult{Status: health.StatusHealthy, Message: fmt.Sprintf("%d features registered", n)}
	})
	b.registerUpstreamChecks(cfg)

	b.Scheduler = scheduler.New(&scheduler.Config{
		QuietFrom:  cfg.Scheduler.QuietFrom,
		QuietUntil: cfg.Scheduler.QuietUntil,
		Logger:     logger.With("component", "scheduler"),
	})
	if err := b.addJobs(cfg); err != nil {
		b.Close()
		return nil, err
	}

	logger.Info("Bot assembled", "features", len(features), "jobs", len(b.Scheduler.Jobs()))
	return b, nil
}

// addJobs registers the periodic announcements of the enabled features
func (b *Bot) addJobs(cfg *config.Config) error {
	if b.Schedule != nil {
		daily, err := scheduler.DailyAt(cfg.Features.Schedule.LessonsAt)
		if err != nil {
			return fmt.Errorf("lessons job: %w", err)
		}
		if err := b.Scheduler.Add(JobLessons, "", daily, func(ctx context.Context) (string, error) {
			return b.Schedule.TodaysLessons(true)
		}); err != nil {
			return err
		}

		day, err := scheduler.ParseWeekday(cfg.Features.Schedule.CurriculumDay)
		if err != nil {
			return fmt.Errorf("curriculum job: %w", err)
		}
		weekly, err := scheduler.WeeklyAt(day, cfg.Features.Schedule.CurriculumAt)
		if err != nil {
			return fmt.Errorf("curriculum job: %w", err)
		}
		curriculum := func(ctx context.Context) (string, error) {
			return b.Schedule.Curriculum(true)
		}
		if err := b.Scheduler.Add(JobCurriculum, "", weekly, scheduler.Polled(b.jobCache, JobCurriculum, curriculum)); err != nil {
			return err
		}
	}

	if b.RedditJoke != nil {
		every := scheduler.EveryBetween(cfg.Features.RedditJoke.MinInterval.Duration, cfg.Features.RedditJoke.MaxInterval.Duration)
		if err := b.Scheduler.Add(JobJoke, "", every, b.RedditJoke.RandomJoke); err != nil {
			return err
		}
	}
	return nil
}

// registerUpstreamChecks checks the lunch menu page and the joke source.
// Results are cached so /health and the gRPC health watcher do not
// hammer sites outside the school.
func (b *Bot) registerUpstreamChecks(cfg *config.Config) {
	interval := cfg.Health.UpstreamInterval.Duration
	if interval < 0 {
		return
	}
	timeout := cfg.Health.UpstreamTimeout.Duration

	if b.LunchMenu != nil {
		b.Health.Register(health.Cached(
			health.UpstreamCheck(CheckLunchMenu, cfg.Features.LunchMenu.URL, "", timeout), interval))
	}
	if b.RedditJoke != nil {
		jokes := cfg.Features.RedditJoke
		about := strings.TrimRight(jokes.BaseURL, "/") + "/r/" + url.PathEscape(jokes.Subreddit) + "/about.json"
		b.Health.Register(health.Cached(
			health.UpstreamCheck(CheckRedditJoke, about, jokes.UserAgent, timeout), interval))
	}
}

// Close releases the resources held by the features
func (b *Bot) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
