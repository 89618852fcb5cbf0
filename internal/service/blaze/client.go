package blaze

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"SpinSignal/internal/domain/models"
	svcmetrics "SpinSignal/internal/service/metrics"
	pkghttp "SpinSignal/pkg/http"
	applogger "SpinSignal/pkg/logger"
	"SpinSignal/pkg/util"
)

const (
	DefaultBaseURL  = "https://api.blaze.bet.br"
	FallbackBaseURL = "https://api.blaze.com"

	currentPath = "/api/singleplayer-originals/originals/roulette_games/current/1"
	recentPath  = "/api/singleplayer-originals/originals/roulette_games/recent/1"
)

// ErrUnexpectedStatus is returned for non-2xx upstream responses.
var ErrUnexpectedStatus = errors.New("blaze: unexpected status")

// Config configures the feed client.
type Config struct {
	BaseURL     string
	FallbackURL string
	Timeout     time.Duration
}

// Client polls the double game over HTTP. It implements repository.Feed.
type Client struct {
	http   *pkghttp.Client
	logger *applogger.Logger

	mu       sync.RWMutex
	baseURL  string
	fallback string
}

// New creates a feed client.
func New(cfg Config, logger *applogger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		http:     pkghttp.NewClient(pkghttp.WithTimeout(cfg.Timeout), pkghttp.WithUserAgent("spinsignal-feed")),
		logger:   logger,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		fallback: strings.TrimRight(cfg.FallbackURL, "/"),
	}
}

type roll struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Color     *int   `json:"color"`
	Roll      *int   `json:"roll"`
	CreatedAt string `json:"created_at"`
}

func (r roll) outcome() models.Outcome {
	o := models.Outcome{ID: r.ID, Color: models.ColorNone, Number: -1}
	if r.Color != nil {
		o.Color = models.ColorFromCode(*r.Color)
	}
	if r.Roll != nil {
		o.Number = *r.Roll
	}
	if t, ok := util.ParseTime(r.CreatedAt); ok {
		o.Timestamp = t.UTC()
	}
	return o
}

// Current returns the status of the round in progress.
func (c *Client) Current(ctx context.Context) (models.FeedEvent, error) {
	var r roll
	if err := c.get(ctx, "current", currentPath, &r); err != nil {
		return models.FeedEvent{}, err
	}
	if r.ID == "" {
		return models.FeedEvent{}, fmt.Errorf("blaze current: empty round id")
	}
	return models.FeedEvent{Status: models.ParseGameStatus(r.Status), Outcome: r.outcome()}, nil
}

// Recent returns the resolved rounds, most recent first.
func (c *Client) Recent(ctx context.Context) ([]models.Outcome, error) {
	var rs []roll
	if err := c.get(ctx, "recent", recentPath, &rs); err != nil {
		return nil, err
	}
	out := make([]models.Outcome, 0, len(rs))
	for _, r := range rs {
		if r.ID == "" {
			continue
		}
		out = append(out, r.outcome())
	}
	return out, nil
}

// BaseURL returns the host currently polled.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

func (c *Client) get(ctx context.Context, endpoint, path string, dest interface{}) (err error) {
	start := time.Now()
	defer func() { svcmetrics.Observe("blaze", endpoint, time.Since(start).Seconds(), err) }()

	resp, err := c.http.SendRequest(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodGet,
		URL:     c.BaseURL() + path,
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return fmt.Errorf("blaze %s: %w", endpoint, err)
	}

	err = pkghttp.DecodeJSON(resp, dest)
	var se *pkghttp.StatusError
	if errors.As(err, &se) {
		c.switchToFallback()
		return fmt.Errorf("blaze %s: %w %d", endpoint, ErrUnexpectedStatus, se.Code)
	}
	if err != nil {
		return fmt.Errorf("blaze %s: %w", endpoint, err)
	}
	return nil
}

// switchToFallback moves polling to the fallback host once.
func (c *Client) switchToFallback() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fallback == "" || c.baseURL == c.fallback {
		return
	}
	c.logger.Warn("switching feed host",
		applogger.String("from", c.baseURL),
		applogger.String("to", c.fallback),
	)
	c.baseURL = c.fallback
}
