package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpinSignal/internal/domain/models"
	applogger "SpinSignal/pkg/logger"
)

type captured struct {
	mu    sync.Mutex
	paths []string
	body  []map[string]interface{}
}

func newBotServer(t *testing.T, reply string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		c.mu.Lock()
		c.paths = append(c.paths, r.URL.Path)
		c.body = append(c.body, body)
		c.mu.Unlock()
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func TestUnconfiguredClientIsNoop(t *testing.T) {
	c := New(Config{}, nil, applogger.Nop())
	assert.False(t, c.Enabled())

	id, err := c.SendMessage(context.Background(), "hi", false)
	assert.Zero(t, id)
	assert.True(t, errors.Is(err, ErrNotConfigured))
	assert.True(t, errors.Is(c.DeleteMessage(context.Background(), 5), ErrNotConfigured))
}

func TestSendMessageReturnsID(t *testing.T) {
	srv, got := newBotServer(t, `{"ok":true,"result":{"message_id":42}}`)
	c := New(Config{Token: "T", ChatID: "-100", BaseURL: srv.URL, ButtonText: "Bet here", ButtonURL: "https://example.com"}, nil, applogger.Nop())

	id, err := c.SendMessage(context.Background(), "hello", true)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	require.Len(t, got.paths, 1)
	assert.Equal(t, "/botT/sendMessage", got.paths[0])
	assert.Equal(t, "HTML", got.body[0]["parse_mode"])
	assert.Equal(t, "-100", got.body[0]["chat_id"])
	assert.Contains(t, got.body[0], "reply_markup")
}

func TestSendMessageWithoutButton(t *testing.T) {
	srv, got := newBotServer(t, `{"ok":true,"result":{"message_id":1}}`)
	c := New(Config{Token: "T", ChatID: "1", BaseURL: srv.URL, ButtonURL: "https://example.com"}, nil, applogger.Nop())

	_, err := c.SendMessage(context.Background(), "hello", false)
	require.NoError(t, err)
	assert.NotContains(t, got.body[0], "reply_markup")
}

func TestAPIErrorSurfaced(t *testing.T) {
	srv, _ := newBotServer(t, `{"ok":false,"error_code":400,"description":"Bad Request: message to delete not found"}`)
	c := New(Config{Token: "T", ChatID: "1", BaseURL: srv.URL}, nil, applogger.Nop())

	err := c.DeleteMessage(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAPI))
}

func TestStickerAndDeleteSkipEmpty(t *testing.T) {
	srv, got := newBotServer(t, `{"ok":true,"result":true}`)
	c := New(Config{Token: "T", ChatID: "1", BaseURL: srv.URL}, nil, applogger.Nop())

	require.NoError(t, c.SendSticker(context.Background(), ""))
	require.NoError(t, c.DeleteMessage(context.Background(), 0))
	assert.Empty(t, got.paths)

	require.NoError(t, c.SendSticker(context.Background(), "CAAC"))
	assert.Equal(t, []string{"/botT/sendSticker"}, got.paths)
}

func TestFormatters(t *testing.T) {
	assert.Contains(t, SignalMessage(models.ColorBlack, 2), "BLACK")
	assert.Contains(t, SignalMessage(models.ColorBlack, 2), "Gale 2")
	assert.Contains(t, GaleMessage(models.Outcome{Number: 4, Color: models.ColorRed}, 1), "| 4 |")
	assert.Contains(t, WinMessage(0), "First entry")
	assert.Contains(t, WinMessage(2), "Gale 2")
	assert.Contains(t, LossMessage(), "LOSS")

	s := models.Stats{Wins: 3, Losses: 1, WinsWithoutGale: 2, WinsWithGale: 1, CurrentWinStreak: 2, TotalSignals: 4}
	msg := StatsMessage(s)
	assert.Contains(t, msg, "✅ 3 X 1 ❌")
	assert.Contains(t, msg, "75.00%")
}
