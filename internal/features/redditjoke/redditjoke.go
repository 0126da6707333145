// Package redditjoke posts a random joke from a subreddit.
package redditjoke

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/msto63/robbot/internal/interpreter"
	"github.com/msto63/robbot/pkg/core/cache"
	"github.com/msto63/robbot/pkg/core/logging"
)

// Keywords that select a joke. Every keyword also selects the joke action.
var Keywords = []string{"skämt", "skämta", "meme", "skoja", "skoj", "humor", "roligt"}

// Post is a subreddit post
type Post struct {
	Title    string `json:"title"`
	SelfText string `json:"selftext"`
	URL      string `json:"url"`
	Stickied bool   `json:"stickied"`
	Over18   bool   `json:"over_18"`
}

type listing struct {
	Data struct {
		Children []struct {
			Data Post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// RandomSource picks a post index. It is called from concurrent requests
// and must be safe for concurrent use.
type RandomSource interface {
	Intn(n int) int
}

// globalRand delegates to the package level generator, which is safe for
// concurrent use
type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

// Config holds joke fetcher configuration
type Config struct {
	BaseURL   string
	Subreddit string
	UserAgent string
	Timeout   time.Duration
	// ListingTTL is how long a fetched listing is reused. Negative disables caching.
	ListingTTL time.Duration
	Random     RandomSource
	Logger     *logging.Logger
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://www.reddit.com",
		Subreddit:  "dadjokes",
		UserAgent:  "robbot/1.0",
		Timeout:    10 * time.Second,
		ListingTTL: 10 * time.Minute,
	}
}

// Feature is the reddit joke feature
type Feature struct {
	*interpreter.BaseFeature

	baseURL    string
	subreddit  string
	userAgent  string
	httpClient *http.Client
	listings   *cache.Cache[[]Post]
	random     RandomSource
	logger     *logging.Logger
}

// New creates the joke feature
func New(cfg *Config) (*Feature, error) {
	d := DefaultConfig()
	if cfg == nil {
		cfg = d
	}
	f := &Feature{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		subreddit: cfg.Subreddit,
		userAgent: cfg.UserAgent,
		random:    cfg.Random,
		logger:    cfg.Logger,
	}
	if f.baseURL == "" {
		f.baseURL = d.BaseURL
	}
	if f.subreddit == "" {
		f.subreddit = d.Subreddit
	}
	if f.userAgent == "" {
		f.userAgent = d.UserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = d.Timeout
	}
	f.httpClient = &http.Client{Timeout: timeout}
	if ttl := cfg.ListingTTL; ttl >= 0 {
		if ttl == 0 {
			ttl = d.ListingTTL
		}
		f.listings = cache.New[[]Post](cache.Config{MaxItems: 16, TTL: ttl})
	}
	if f.random == nil {
		f.random = globalRand{}
	}
	if f.logger == nil {
		f.logger = logging.New("redditjoke")
	}

	subcategories := make(map[string]interpreter.CommandSubcategory, len(Keywords))
	for _, kw := range Keywords {
		subcategories[kw] = interpreter.SubcategoryRandomJoke
	}

	base, err := interpreter.NewFeature(interpreter.FeatureConfig{
		Matcher: interpreter.MatcherConfig{
			Category:      interpreter.CategoryRedditJoke,
			Keywords:      Keywords,
			Subcategories: subcategories,
		},
		Commands: map[interpreter.CommandSubcategory]interpreter.Action{
			interpreter.SubcategoryRandomJoke: interpreter.Immediate(func() (string, error) {
				ctx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()
				return f.RandomJoke(ctx)
			}),
		},
		MappedPronouns: []interpreter.PronounTag{interpreter.PronounInterrogative},
	})
	if err != nil {
		return nil, err
	}
	f.BaseFeature = base
	return f, nil
}

// RandomJoke fetches the hot listing and formats a random post
func (f *Feature) RandomJoke(ctx context.Context) (string, error) {
	posts, err := f.listing(ctx)
	if err != nil {
		f.logger.Warn("Failed to fetch jokes", "subreddit", f.subreddit, "error", err)
		return "", err
	}
	if len(posts) == 0 {
		return "", nil
	}

	p := posts[f.random.Intn(len(posts))]
	if p.SelfText == "" {
		return p.Title, nil
	}
	return p.Title + "\n\n" + p.SelfText, nil
}

// listing returns the hot posts, reusing a cached listing while it is fresh.
// Failed fetches are not cached.
func (f *Feature) listing(ctx context.Context) ([]Post, error) {
	if f.listings == nil {
		return f.hot(ctx)
	}
	return f.listings.GetOrSet(f.subreddit, func() ([]Post, error) {
		return f.hot(ctx)
	})
}

func (f *Feature) hot(ctx context.Context) ([]Post, error) {
	endpoint := fmt.Sprintf("%s/r/%s/hot.json?limit=50", f.baseURL, url.PathEscape(f.subreddit))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var l listing
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&l); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}

	posts := make([]Post, 0, len(l.Data.Children))
	for _, c := range l.Data.Children {
		if c.Data.Stickied || c.Data.Over18 || c.Data.Title == "" {
			continue
		}
		posts = append(posts, c.Data)
	}
	return posts, nil
}
