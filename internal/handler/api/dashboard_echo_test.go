package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpinSignal/internal/domain/models"
	"SpinSignal/internal/service/ratelimit"
	"SpinSignal/internal/services/strategy"
	"SpinSignal/internal/usecase"
	xlogger "SpinSignal/pkg/logger"
)

type fakeBot struct {
	snap    models.Snapshot
	cfg     usecase.StrategyConfig
	running bool
}

func (b *fakeBot) Snapshot() models.Snapshot {
	s := b.snap
	s.Running = b.running
	return s
}

func (b *fakeBot) Start() bool {
	changed := !b.running
	b.running = true
	return changed
}

func (b *fakeBot) Stop() bool {
	changed := b.running
	b.running = false
	return changed
}

func (b *fakeBot) Config() usecase.StrategyConfig { return b.cfg }

func (b *fakeBot) UpdateConfig(cfg usecase.StrategyConfig) { b.cfg = cfg }

type fakeJournal struct {
	rows []models.Event
	err  error
}

func (j *fakeJournal) StoreOutcomes(context.Context, []models.Outcome) error { return nil }

func (j *fakeJournal) StoreEvent(context.Context, *models.Event) error { return nil }

func (j *fakeJournal) RecentDecisions(_ context.Context, limit int) ([]models.Event, error) {
	if j.err != nil {
		return nil, j.err
	}
	if len(j.rows) > limit {
		return j.rows[:limit], nil
	}
	return j.rows, nil
}

func (j *fakeJournal) Health(context.Context) error { return j.err }

func (j *fakeJournal) Close() error { return nil }

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newDashboard(t *testing.T, bot *fakeBot, j *fakeJournal) *echo.Echo {
	t.Helper()
	e := echo.New()
	var h *DashboardHandler
	if j == nil {
		h = NewDashboardHandler(xlogger.Nop(), bot, nil, ratelimit.New())
	} else {
		h = NewDashboardHandler(xlogger.Nop(), bot, j, ratelimit.New())
	}
	h.RegisterRoutes(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func sampleBot(t *testing.T) *fakeBot {
	t.Helper()
	table, problems := strategy.Build(strategy.DefaultDefinitions())
	require.Empty(t, problems)
	return &fakeBot{
		running: true,
		cfg:     usecase.StrategyConfig{EscalationCeiling: 2, Patterns: table},
		snap: models.Snapshot{
			State:   models.StateIdle,
			Stats:   models.Stats{Wins: 3, Losses: 1, TotalSignals: 4},
			WinRate: 0.75,
			Streak:  models.Streak{Color: models.ColorRed, Count: 2},
			History: []models.Outcome{
				{ID: "3", Color: models.ColorRed, Number: 1},
				{ID: "2", Color: models.ColorRed, Number: 4},
				{ID: "1", Color: models.ColorBlack, Number: 9},
			},
			Connection: models.ConnConnected,
		},
	}
}

func TestDashboard_State(t *testing.T) {
	e := newDashboard(t, sampleBot(t), nil)

	rec, env := do(t, e, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var s models.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.True(t, s.Running)
	assert.Len(t, s.History, 3)
	assert.Equal(t, "no-store", rec.Header().Get(echo.HeaderCacheControl))
}

func TestDashboard_HistoryLimit(t *testing.T) {
	e := newDashboard(t, sampleBot(t), nil)

	_, env := do(t, e, http.MethodGet, "/api/history?limit=2", "")
	var list struct {
		Rows  []models.Outcome `json:"rows"`
		Total int64            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(2), list.Total)
	assert.Equal(t, "3", list.Rows[0].ID)

	rec, _ := do(t, e, http.MethodGet, "/api/history?limit=500", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboard_Stats(t *testing.T) {
	e := newDashboard(t, sampleBot(t), nil)

	_, env := do(t, e, http.MethodGet, "/api/stats", "")
	var st models.StatsResponse
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, 3, st.Wins)
	assert.InDelta(t, 75.0, st.Accuracy, 1e-9)
	assert.Equal(t, 2, st.Streak.Count)
}

func TestDashboard_StartStop(t *testing.T) {
	bot := sampleBot(t)
	e := newDashboard(t, bot, nil)

	_, env := do(t, e, http.MethodPost, "/api/bot/stop", "")
	var res models.BotStateResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.BotStateResponse{Running: false, Changed: true}, res)

	_, env = do(t, e, http.MethodPost, "/api/bot/stop", "")
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.False(t, res.Changed)

	_, env = do(t, e, http.MethodPost, "/api/bot/start", "")
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Running)
	assert.True(t, bot.running)
}

func TestDashboard_PutConfig(t *testing.T) {
	bot := sampleBot(t)
	e := newDashboard(t, bot, nil)

	body := `{"escalation_ceiling": 1, "patterns": [{"sequence": ["P","P"], "target": "V"}]}`
	rec, env := do(t, e, http.MethodPut, "/api/config", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cfg models.ConfigResponse
	require.NoError(t, json.Unmarshal(env.Data, &cfg))
	assert.Equal(t, 1, cfg.EscalationCeiling)
	require.Len(t, cfg.Patterns, 1)
	assert.Equal(t, models.ColorRed, cfg.Patterns[0].Target)
	assert.Equal(t, 1, bot.cfg.EscalationCeiling)
}

func TestDashboard_PutConfigCeilingOnlyKeepsPatterns(t *testing.T) {
	bot := sampleBot(t)
	n := len(bot.cfg.Patterns)
	e := newDashboard(t, bot, nil)

	rec, _ := do(t, e, http.MethodPut, "/api/config", `{"escalation_ceiling": 0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, bot.cfg.EscalationCeiling)
	assert.Len(t, bot.cfg.Patterns, n)
}

func TestDashboard_PutConfigRejectsInvalid(t *testing.T) {
	bot := sampleBot(t)
	e := newDashboard(t, bot, nil)

	rec, _ := do(t, e, http.MethodPut, "/api/config", `{"escalation_ceiling": 11}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, e, http.MethodPut, "/api/config", `{"patterns": [{"sequence": ["Q"], "target": "V"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_PATTERN_TOKEN")

	rec, _ = do(t, e, http.MethodPut, "/api/config", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 2, bot.cfg.EscalationCeiling)
}

func TestDashboard_PutConfigRateLimited(t *testing.T) {
	e := newDashboard(t, sampleBot(t), nil)

	var last int
	for i := 0; i < configWriteBurst+1; i++ {
		rec, _ := do(t, e, http.MethodPut, "/api/config", `{"escalation_ceiling": 1}`)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestDashboard_Decisions(t *testing.T) {
	j := &fakeJournal{rows: []models.Event{{ID: "a", Kind: models.EventWin}, {ID: "b", Kind: models.EventSignal}}}
	e := newDashboard(t, sampleBot(t), j)

	_, env := do(t, e, http.MethodGet, "/api/decisions?limit=1", "")
	var list struct {
		Rows []models.Event `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Rows, 1)
	assert.Equal(t, "a", list.Rows[0].ID)

	j.err = errors.New("down")
	rec, _ := do(t, e, http.MethodGet, "/api/decisions", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDashboard_DecisionsWithoutJournal(t *testing.T) {
	e := newDashboard(t, sampleBot(t), nil)

	rec, _ := do(t, e, http.MethodGet, "/api/decisions", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDashboard_Health(t *testing.T) {
	j := &fakeJournal{err: errors.New("down")}
	e := newDashboard(t, sampleBot(t), j)

	_, env := do(t, e, http.MethodGet, "/healthz", "")
	var h models.HealthResponse
	require.NoError(t, json.Unmarshal(env.Data, &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "unavailable", h.Journal)
	assert.Equal(t, models.ConnConnected, h.Connection)
}
