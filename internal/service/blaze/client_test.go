package blaze

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpinSignal/internal/domain/models"
	applogger "SpinSignal/pkg/logger"
)

func TestCurrentParsesRound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, currentPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"abc","status":"rolling","color":2,"roll":11,"created_at":"2024-05-01T10:00:00.123Z"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, applogger.Nop())
	ev, err := c.Current(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.StatusRolling, ev.Status)
	assert.Equal(t, "abc", ev.Outcome.ID)
	assert.Equal(t, models.ColorBlack, ev.Outcome.Color)
	assert.Equal(t, 11, ev.Outcome.Number)
	assert.Equal(t, 2024, ev.Outcome.Timestamp.Year())
}

func TestCurrentWaitingHasNoColor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"abc","status":"waiting","color":null,"roll":null}`))
	}))
	defer srv.Close()

	ev, err := New(Config{BaseURL: srv.URL}, applogger.Nop()).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, ev.Status)
	assert.Equal(t, models.ColorNone, ev.Outcome.Color)
	assert.Equal(t, -1, ev.Outcome.Number)
}

func TestCurrentUnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"abc","status":"graphing"}`))
	}))
	defer srv.Close()

	ev, err := New(Config{BaseURL: srv.URL}, applogger.Nop()).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnknown, ev.Status)
}

func TestRecentMapsHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, recentPath, r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id":"3","color":0,"roll":0,"created_at":"2024-05-01T10:02:00Z"},
			{"id":"2","color":1,"roll":4,"created_at":"2024-05-01T10:01:30Z"},
			{"id":"","color":1,"roll":4},
			{"id":"1","color":2,"roll":9,"created_at":"2024-05-01T10:01:00Z"}
		]`))
	}))
	defer srv.Close()

	h, err := New(Config{BaseURL: srv.URL}, applogger.Nop()).Recent(context.Background())
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, models.ColorWhite, h[0].Color)
	assert.Equal(t, models.ColorRed, h[1].Color)
	assert.Equal(t, 9, h[2].Number)
}

func TestFallbackHostOnNonOK(t *testing.T) {
	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"r9","status":"complete","color":1,"roll":3}`))
	}))
	defer secondary.Close()
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer primary.Close()

	c := New(Config{BaseURL: primary.URL, FallbackURL: secondary.URL}, applogger.Nop())

	_, err := c.Current(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
	assert.Equal(t, secondary.URL, c.BaseURL())

	ev, err := c.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r9", ev.Outcome.ID)
}

func TestCurrentRejectsEmptyID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"rolling"}`))
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL}, applogger.Nop()).Current(context.Background())
	assert.Error(t, err)
}
