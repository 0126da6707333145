package lunchmenu

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
)

// Week holds the dishes for monday to friday; a nil day has no menu
type Week [5][]string

// Scraper fetches and caches the weekly menu page
type Scraper struct {
	url        string
	httpClient *http.Client
	now        func() time.Time

	mu        sync.Mutex
	cache     *Week
	fetchedAt time.Time
}

// NewScraper creates a scraper for the menu page at url
func NewScraper(url string, timeout time.Duration) *Scraper {
	return &Scraper{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// Week returns the cached week, fetching it when the cache is empty or five
// days old or older.
func (s *Scraper) Week(ctx context.Context) (Week, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil && daysBetween(s.fetchedAt, s.now()) >= 5 {
		s.cache = nil
	}
	if s.cache != nil {
		return *s.cache, nil
	}

	week, err := s.fetch(ctx)
	if err != nil {
		return Week{}, err
	}
	s.cache = &week
	s.fetchedAt = s.now()
	return week, nil
}

// Day returns the dishes for a weekday, or nil on weekends and days
// without a menu
func (s *Scraper) Day(ctx context.Context, day time.Weekday) ([]string, error) {
	if day == time.Saturday || day == time.Sunday {
		return nil, nil
	}
	week, err := s.Week(ctx)
	if err != nil {
		return nil, err
	}
	return week[int(day)-1], nil
}

// Purge drops the cached week
func (s *Scraper) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
}

func daysBetween(a, b time.Time) int {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	da0 := time.Date(ya, ma, da, 0, 0, 0, 0, time.UTC)
	db0 := time.Date(yb, mb, db, 0, 0, 0, 0, time.UTC)
	return int(db0.Sub(da0).Hours() / 24)
}

func (s *Scraper) fetch(ctx context.Context) (Week, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.url, nil)
	if err != nil {
		return Week{}, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Week{}, fmt.Errorf("failed to fetch menu: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Week{}, fmt.Errorf("failed to fetch menu: HTTP %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Week{}, fmt.Errorf("failed to parse menu: %w", err)
	}
	return ParseWeek(doc), nil
}

// ParseWeek extracts the menu from a document. Every element with class
// "menu-day" is one weekday in order; its li elements are the dishes.
func ParseWeek(doc *html.Node) Week {
	var week Week
	day := 0

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if day >= len(week) {
			return
		}
		if n.Type == html.ElementNode && hasClass(n, "menu-day") {
			week[day] = dishes(n)
			day++
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return week
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func dishes(day *html.Node) []string {
	var out []string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "li" {
			if text := textContent(n); text != "" {
				out = append(out, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(day)
	return out
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
