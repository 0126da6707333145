package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the complete application configuration
type Config struct {
	General   GeneralConfig   `toml:"general"`
	Gateway   GatewayConfig   `toml:"gateway"`
	GRPC      GRPCConfig      `toml:"grpc"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Health    HealthConfig    `toml:"health"`
	Phrases   PhrasesConfig   `toml:"phrases"`
	Features  FeaturesConfig  `toml:"features"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name"`
	Environment string `toml:"environment"`
	DataDir     string `toml:"data_dir"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
}

// GatewayConfig holds the chat gateway configuration
type GatewayConfig struct {
	Port           int        `toml:"port"`
	Host           string     `toml:"host"`
	ReadTimeout    Duration   `toml:"read_timeout"`
	WriteTimeout   Duration   `toml:"write_timeout"`
	CommandPrefix  string     `toml:"command_prefix"`
	DefaultChannel string     `toml:"default_channel"`
	NotifyRole     string     `toml:"notify_role"`
	NotifyInterval Duration   `toml:"notify_interval"`
	Greeting       string     `toml:"greeting"`
	CORS           CORSConfig `toml:"cors"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	Enabled        bool     `toml:"enabled"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// GRPCConfig holds the admin gRPC server configuration
type GRPCConfig struct {
	Enabled          bool   `toml:"enabled"`
	Port             int    `toml:"port"`
	Host             string `toml:"host"`
	EnableReflection bool   `toml:"enable_reflection"`
}

// SchedulerConfig holds the periodic job settings
type SchedulerConfig struct {
	Tick       Duration `toml:"tick"`
	QuietFrom  int      `toml:"quiet_from"`
	QuietUntil int      `toml:"quiet_until"`
}

// HealthConfig holds the upstream health check settings. The lunch menu
// page and the joke source are requested at most once per UpstreamInterval;
// a negative interval disables the checks.
type HealthConfig struct {
	UpstreamInterval Duration `toml:"upstream_interval"`
	UpstreamTimeout  Duration `toml:"upstream_timeout"`
}

// PhrasesConfig overrides the built-in fallback replies. Empty fields keep
// the defaults.
type PhrasesConfig struct {
	NoImplementation string   `toml:"no_implementation"`
	NoSubcategory    []string `toml:"no_subcategory"`
	NoResponse       []string `toml:"no_response"`
	InternalError    string   `toml:"internal_error"`
}

// FeaturesConfig holds per-feature settings
type FeaturesConfig struct {
	Disabled   []string         `toml:"disabled"`
	HelpQueue  HelpQueueConfig  `toml:"helpqueue"`
	Ranking    RankingConfig    `toml:"ranking"`
	LunchMenu  LunchMenuConfig  `toml:"lunchmenu"`
	Schedule   ScheduleConfig   `toml:"schedule"`
	RedditJoke RedditJokeConfig `toml:"redditjoke"`
}

// HelpQueueConfig holds help queue settings
type HelpQueueConfig struct {
	TeacherRole string `toml:"teacher_role"`
}

// RankingConfig holds ranking settings
type RankingConfig struct {
	DatabasePath string `toml:"database_path"`
}

// LunchMenuConfig holds lunch menu scraper settings
type LunchMenuConfig struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
}

// ScheduleConfig holds timetable settings
type ScheduleConfig struct {
	TimetablePath string `toml:"timetable_path"`
	LessonsAt     string `toml:"lessons_at"`
	CurriculumDay string `toml:"curriculum_day"`
	CurriculumAt  string `toml:"curriculum_at"`
}

// RedditJokeConfig holds joke fetcher settings
type RedditJokeConfig struct {
	BaseURL     string   `toml:"base_url"`
	Subreddit   string   `toml:"subreddit"`
	UserAgent   string   `toml:"user_agent"`
	Timeout     Duration `toml:"timeout"`
	MinInterval Duration `toml:"min_interval"`
	MaxInterval Duration `toml:"max_interval"`
	ListingTTL  Duration `toml:"listing_ttl"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// ErrNotFound is returned when no configuration file exists
var ErrNotFound = errors.New("config file not found")

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from the ROBBOT_CONFIG environment variable
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("ROBBOT_CONFIG")
	if path == "" {
		defaultPaths := []string{
			"./configs/config.toml",
			"./config.toml",
			filepath.Join(os.Getenv("HOME"), ".config/robbot/config.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return nil, fmt.Errorf("%w, set ROBBOT_CONFIG or create configs/config.toml", ErrNotFound)
	}

	return Load(path)
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "robbot"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "console"
	}

	// Gateway
	if c.Gateway.Port == 0 {
		c.Gateway.Port = 8080
	}
	if c.Gateway.Host == "" {
		c.Gateway.Host = "0.0.0.0"
	}
	if c.Gateway.ReadTimeout.Duration == 0 {
		c.Gateway.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Gateway.WriteTimeout.Duration == 0 {
		c.Gateway.WriteTimeout.Duration = 30 * time.Second
	}
	if c.Gateway.CommandPrefix == "" {
		c.Gateway.CommandPrefix = "!"
	}
	if c.Gateway.DefaultChannel == "" {
		c.Gateway.DefaultChannel = "general"
	}
	if c.Gateway.NotifyRole == "" {
		c.Gateway.NotifyRole = "teacher"
	}
	if c.Gateway.NotifyInterval.Duration == 0 {
		c.Gateway.NotifyInterval.Duration = 3 * time.Second
	}
	if c.Gateway.Greeting == "" {
		c.Gateway.Greeting = "Välkommen! Skriv !hjälp mig om du behöver hjälp, eller fråga mig om schemat och lunchen."
	}

	// gRPC
	if c.GRPC.Port == 0 {
		c.GRPC.Port = 9090
	}
	if c.GRPC.Host == "" {
		c.GRPC.Host = "0.0.0.0"
	}

	// Scheduler
	if c.Scheduler.Tick.Duration == 0 {
		c.Scheduler.Tick.Duration = time.Second
	}
	if c.Health.UpstreamInterval.Duration == 0 {
		c.Health.UpstreamInterval.Duration = 5 * time.Minute
	}
	if c.Health.UpstreamTimeout.Duration == 0 {
		c.Health.UpstreamTimeout.Duration = 5 * time.Second
	}
	if c.Scheduler.QuietFrom == 0 {
		c.Scheduler.QuietFrom = 22
	}
	if c.Scheduler.QuietUntil == 0 {
		c.Scheduler.QuietUntil = 8
	}

	// Features
	if c.Features.HelpQueue.TeacherRole == "" {
		c.Features.HelpQueue.TeacherRole = c.Gateway.NotifyRole
	}
	if c.Features.Ranking.DatabasePath == "" {
		c.Features.Ranking.DatabasePath = filepath.Join(c.General.DataDir, "ranking.db")
	}
	if c.Features.LunchMenu.Timeout.Duration == 0 {
		c.Features.LunchMenu.Timeout.Duration = 10 * time.Second
	}
	if c.Features.Schedule.TimetablePath == "" {
		c.Features.Schedule.TimetablePath = "./configs/timetable.yaml"
	}
	if c.Features.Schedule.LessonsAt == "" {
		c.Features.Schedule.LessonsAt = "08:30"
	}
	if c.Features.Schedule.CurriculumDay == "" {
		c.Features.Schedule.CurriculumDay = "sunday"
	}
	if c.Features.Schedule.CurriculumAt == "" {
		c.Features.Schedule.CurriculumAt = "15:00"
	}
	if c.Features.RedditJoke.BaseURL == "" {
		c.Features.RedditJoke.BaseURL = "https://www.reddit.com"
	}
	if c.Features.RedditJoke.Subreddit == "" {
		c.Features.RedditJoke.Subreddit = "dadjokes"
	}
	if c.Features.RedditJoke.UserAgent == "" {
		c.Features.RedditJoke.UserAgent = "robbot/1.0"
	}
	if c.Features.RedditJoke.Timeout.Duration == 0 {
		c.Features.RedditJoke.Timeout.Duration = 10 * time.Second
	}
	if c.Features.RedditJoke.MinInterval.Duration == 0 {
		c.Features.RedditJoke.MinInterval.Duration = 20 * time.Hour
	}
	if c.Features.RedditJoke.MaxInterval.Duration == 0 {
		c.Features.RedditJoke.MaxInterval.Duration = 24 * time.Hour
	}
	if c.Features.RedditJoke.ListingTTL.Duration == 0 {
		c.Features.RedditJoke.ListingTTL.Duration = 10 * time.Minute
	}
}

// Validate rejects values that would fail at runtime. Zero durations are
// replaced by defaults before validation, so only negative ones are errors.
func (c *Config) Validate() error {
	durations := []struct {
		name  string
		value time.Duration
	}{
		{"gateway.read_timeout", c.Gateway.ReadTimeout.Duration},
		{"gateway.write_timeout", c.Gateway.WriteTimeout.Duration},
		{"gateway.notify_interval", c.Gateway.NotifyInterval.Duration},
		{"scheduler.tick", c.Scheduler.Tick.Duration},
		{"health.upstream_timeout", c.Health.UpstreamTimeout.Duration},
		{"features.lunchmenu.timeout", c.Features.LunchMenu.Timeout.Duration},
		{"features.redditjoke.timeout", c.Features.RedditJoke.Timeout.Duration},
		{"features.redditjoke.min_interval", c.Features.RedditJoke.MinInterval.Duration},
		{"features.redditjoke.max_interval", c.Features.RedditJoke.MaxInterval.Duration},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("invalid config: %s must be positive, got %v", d.name, d.value)
		}
	}

	if c.Features.RedditJoke.MaxInterval.Duration < c.Features.RedditJoke.MinInterval.Duration {
		return fmt.Errorf("invalid config: features.redditjoke.max_interval %v is shorter than min_interval %v",
			c.Features.RedditJoke.MaxInterval.Duration, c.Features.RedditJoke.MinInterval.Duration)
	}
	for name, h := range map[string]int{"scheduler.quiet_from": c.Scheduler.QuietFrom, "scheduler.quiet_until": c.Scheduler.QuietUntil} {
		if h < 0 || h > 23 {
			return fmt.Errorf("invalid config: %s must be an hour 0-23, got %d", name, h)
		}
	}
	for name, port := range map[string]int{"gateway.port": c.Gateway.Port, "grpc.port": c.GRPC.Port} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid config: %s out of range: %d", name, port)
		}
	}
	return nil
}

// expandEnvVars expands environment variables in configuration values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.Features.Ranking.DatabasePath = os.ExpandEnv(c.Features.Ranking.DatabasePath)
	c.Features.LunchMenu.URL = os.ExpandEnv(c.Features.LunchMenu.URL)
	c.Features.Schedule.TimetablePath = os.ExpandEnv(c.Features.Schedule.TimetablePath)
	c.Features.RedditJoke.UserAgent = os.ExpandEnv(c.Features.RedditJoke.UserAgent)
}

// FeatureEnabled reports whether the named feature is not listed as disabled
func (c *Config) FeatureEnabled(name string) bool {
	for _, d := range c.Features.Disabled {
		if strings.EqualFold(d, name) {
			return false
		}
	}
	return true
}

// GetServiceAddress returns the address string for a service
func (c *Config) GetServiceAddress(service string) string {
	switch service {
	case "gateway":
		return fmt.Sprintf("%s:%d", c.Gateway.Host, c.Gateway.Port)
	case "grpc":
		return fmt.Sprintf("%s:%d", c.GRPC.Host, c.GRPC.Port)
	default:
		return ""
	}
}
