// ============================================================================
// robbot - Classroom chat bot
// ============================================================================
//
// Package:     gateway
// Description: Role notifications on polled changes
// License:     MIT
// ============================================================================

package gateway

import (
	"context"
	"time"

	"github.com/msto63/robbot/internal/pollcache"
	"github.com/msto63/robbot/pkg/core/logging"
)

// NotifierConfig holds role notifier configuration
type NotifierConfig struct {
	// Key identifies the polled value in the cache
	Key      string
	Role     string
	Interval time.Duration
	// Source produces the current value
	Source func() (string, error)
	Cache  *pollcache.Cache
	Logger *logging.Logger
}

// Notifier direct-messages every member with a role whenever a polled
// value changes
type Notifier struct {
	hub    *Hub
	cfg    NotifierConfig
	cache  *pollcache.Cache
	logger *logging.Logger
}

// NewNotifier creates a notifier sending through hub
func NewNotifier(hub *Hub, cfg NotifierConfig) *Notifier {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	if cfg.Key == "" {
		cfg.Key = cfg.Role
	}
	cache := cfg.Cache
	if cache == nil {
		cache = pollcache.New(pollcache.DefaultConfig())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("gateway-notifier")
	}
	return &Notifier{hub: hub, cfg: cfg, cache: cache, logger: logger}
}

// Poll checks the source once and returns the number of direct messages
// sent
func (n *Notifier) Poll() int {
	value, changed, err := n.cache.Call(n.cfg.Key, n.cfg.Source)
	if err != nil {
		n.logger.Warn("Notifier source failed", "key", n.cfg.Key, "error", err)
		return 0
	}
	if !changed || value == "" {
		return 0
	}
	sent := n.hub.SendToRole(n.cfg.Role, value)
	n.logger.Info("Notified role", "role", n.cfg.Role, "key", n.cfg.Key, "sessions", sent)
	return sent
}

// Run polls every interval until ctx is cancelled
func (n *Notifier) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n.Poll()
		}
	}
}
