package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	svcmetrics "SpinSignal/internal/service/metrics"
	"SpinSignal/internal/service/ratelimit"
	pkghttp "SpinSignal/pkg/http"
	applogger "SpinSignal/pkg/logger"
)

const DefaultBaseURL = "https://api.telegram.org"

var (
	// ErrNotConfigured is returned by every call when token or chat id is missing.
	ErrNotConfigured = errors.New("telegram: not configured")
	// ErrAPI wraps a response with ok=false.
	ErrAPI = errors.New("telegram: api error")
)

// Config configures the Bot API client.
type Config struct {
	Token      string
	ChatID     string
	BaseURL    string
	ButtonText string
	ButtonURL  string
	Timeout    time.Duration
	// RatePerSecond and Burst bound sends per chat.
	RatePerSecond float64
	Burst         float64
}

// Client is a minimal Telegram Bot API client implementing repository.Notifier.
type Client struct {
	cfg     Config
	http    *pkghttp.Client
	limiter *ratelimit.Limiter
	logger  *applogger.Logger
}

// New creates a client. An unconfigured client is valid and every call
// returns ErrNotConfigured.
func New(cfg Config, limiter *ratelimit.Limiter, logger *applogger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	if cfg.Burst < 1 {
		cfg.Burst = 3
	}
	if limiter == nil {
		limiter = ratelimit.New()
	}
	return &Client{
		cfg:     cfg,
		http:    pkghttp.NewClient(pkghttp.WithTimeout(cfg.Timeout)),
		limiter: limiter,
		logger:  logger,
	}
}

// Enabled reports whether credentials are present.
func (c *Client) Enabled() bool {
	return c.cfg.Token != "" && c.cfg.ChatID != ""
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

type inlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type sendMessageRequest struct {
	ChatID                string       `json:"chat_id"`
	Text                  string       `json:"text"`
	ParseMode             string       `json:"parse_mode"`
	DisableWebPagePreview bool         `json:"disable_web_page_preview"`
	ReplyMarkup           *replyMarkup `json:"reply_markup,omitempty"`
}

// SendMessage posts an HTML message and returns its message id.
func (c *Client) SendMessage(ctx context.Context, text string, withButton bool) (int64, error) {
	req := sendMessageRequest{
		ChatID:                c.cfg.ChatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}
	if withButton && c.cfg.ButtonURL != "" {
		req.ReplyMarkup = &replyMarkup{InlineKeyboard: [][]inlineButton{{{Text: c.cfg.ButtonText, URL: c.cfg.ButtonURL}}}}
	}

	var msg struct {
		MessageID int64 `json:"message_id"`
	}
	if err := c.call(ctx, "sendMessage", req, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// SendSticker posts a sticker by file id.
func (c *Client) SendSticker(ctx context.Context, stickerID string) error {
	if stickerID == "" {
		return nil
	}
	return c.call(ctx, "sendSticker", map[string]string{
		"chat_id": c.cfg.ChatID,
		"sticker": stickerID,
	}, nil)
}

// DeleteMessage removes a previously sent message.
func (c *Client) DeleteMessage(ctx context.Context, messageID int64) error {
	if messageID == 0 {
		return nil
	}
	return c.call(ctx, "deleteMessage", map[string]interface{}{
		"chat_id":    c.cfg.ChatID,
		"message_id": messageID,
	}, nil)
}

func (c *Client) call(ctx context.Context, method string, body, dest interface{}) (err error) {
	if !c.Enabled() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx, c.cfg.ChatID, c.cfg.Burst, c.cfg.RatePerSecond); err != nil {
		return fmt.Errorf("telegram %s: rate limit: %w", method, err)
	}

	start := time.Now()
	defer func() { svcmetrics.Observe("telegram", method, time.Since(start).Seconds(), err) }()

	resp, err := c.http.SendRequest(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    fmt.Sprintf("%s/bot%s/%s", c.cfg.BaseURL, c.cfg.Token, method),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("telegram %s: decode (status %d): %w", method, resp.StatusCode, err)
	}
	if !out.OK {
		return fmt.Errorf("%w: %s %d %s", ErrAPI, method, out.ErrorCode, out.Description)
	}
	if dest != nil && len(out.Result) > 0 {
		if err := json.Unmarshal(out.Result, dest); err != nil {
			return fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}
	return nil
}
