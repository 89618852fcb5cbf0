package api

import (
	"context"
	"sync"
	"time"

	"SpinSignal/internal/domain/models"
	domrepo "SpinSignal/internal/domain/repository"
	"SpinSignal/internal/service/ratelimit"
	"SpinSignal/internal/services/strategy"
	"SpinSignal/internal/usecase"
	xhttp "SpinSignal/pkg/http"
	xlogger "SpinSignal/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const (
	configWriteBurst  = 5
	configWriteRefill = 0.5
	healthTimeout     = 2 * time.Second
)

// Bot is the part of the machine the dashboard drives.
type Bot interface {
	Snapshot() models.Snapshot
	Start() bool
	Stop() bool
	Config() usecase.StrategyConfig
	UpdateConfig(cfg usecase.StrategyConfig)
}

// DashboardHandler serves the read model and the bot controls.
type DashboardHandler struct {
	logger  *xlogger.Logger
	bot     Bot
	journal domrepo.Journal
	rl      *ratelimit.Limiter
}

var registerTokenTag sync.Once

// validPatternToken accepts the token letters and roll numbers a pattern can
// match against.
func validPatternToken(fl validator.FieldLevel) bool {
	return models.ParseToken(fl.Field().String()).Kind != models.TokenInvalid
}

// NewDashboardHandler creates the handler. journal may be nil.
func NewDashboardHandler(logger *xlogger.Logger, bot Bot, journal domrepo.Journal, rl *ratelimit.Limiter) *DashboardHandler {
	registerTokenTag.Do(func() {
		if err := xhttp.RegisterValidation("pattern_token", validPatternToken, "%s is not a pattern token"); err != nil {
			logger.Error("validator setup failed", xlogger.Error(err))
		}
	})
	if rl == nil {
		rl = ratelimit.New()
	}
	return &DashboardHandler{logger: logger.With("dashboard"), bot: bot, journal: journal, rl: rl}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/state", h.State)
	g.GET("/history", h.History)
	g.GET("/stats", h.Stats)
	g.GET("/config", h.GetConfig)
	g.PUT("/config", h.PutConfig)
	g.POST("/bot/start", h.StartBot)
	g.POST("/bot/stop", h.StopBot)
	g.GET("/decisions", h.Decisions)
}

func (h *DashboardHandler) Health(c echo.Context) error {
	s := h.bot.Snapshot()
	res := models.HealthResponse{Status: "ok", Running: s.Running, Connection: s.Connection}
	if h.journal != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()
		res.Journal = "ok"
		if err := h.journal.Health(ctx); err != nil {
			res.Journal = "unavailable"
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) State(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, h.bot.Snapshot())
}

func (h *DashboardHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	hist := h.bot.Snapshot().History
	if len(hist) > req.Limit {
		hist = hist[:req.Limit]
	}
	if hist == nil {
		hist = []models.Outcome{}
	}
	return xhttp.ListResponse(c, hist, int64(len(hist)))
}

func (h *DashboardHandler) Stats(c echo.Context) error {
	s := h.bot.Snapshot()
	return xhttp.SuccessResponse(c, models.StatsResponse{
		Stats:    s.Stats,
		WinRate:  s.WinRate,
		Accuracy: s.WinRate * 100,
		Streak:   s.Streak,
	})
}

func (h *DashboardHandler) GetConfig(c echo.Context) error {
	return xhttp.SuccessResponse(c, configResponse(h.bot.Config()))
}

// PutConfig replaces the ceiling and/or the pattern table. The new values
// apply from the next round; an open bet keeps the ceiling it was raised with.
func (h *DashboardHandler) PutConfig(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":config", configWriteBurst, configWriteRefill) {
		h.logger.Warn("config update rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many config updates"))
	}

	req := &models.ConfigRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.EscalationCeiling == nil && req.Patterns == nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("nothing to update"))
	}

	cfg := h.bot.Config()
	if req.EscalationCeiling != nil {
		cfg.EscalationCeiling = *req.EscalationCeiling
	}
	if req.Patterns != nil {
		defs := make([]strategy.Definition, len(req.Patterns))
		for i, p := range req.Patterns {
			defs[i] = strategy.Definition{ID: p.ID, Sequence: p.Sequence, Target: p.Target}
		}
		table, problems := strategy.Build(defs)
		if len(problems) > 0 {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("invalid patterns").
				WithParam("problems", problems))
		}
		cfg.Patterns = table
	}

	h.bot.UpdateConfig(cfg)
	h.logger.Info("strategy config updated",
		xlogger.Int("escalation_ceiling", cfg.EscalationCeiling),
		xlogger.Int("patterns", len(cfg.Patterns)),
	)
	return xhttp.SuccessResponse(c, configResponse(h.bot.Config()))
}

func (h *DashboardHandler) StartBot(c echo.Context) error {
	changed := h.bot.Start()
	return xhttp.SuccessResponse(c, models.BotStateResponse{Running: true, Changed: changed})
}

func (h *DashboardHandler) StopBot(c echo.Context) error {
	changed := h.bot.Stop()
	return xhttp.SuccessResponse(c, models.BotStateResponse{Running: false, Changed: changed})
}

func (h *DashboardHandler) Decisions(c echo.Context) error {
	if h.journal == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("journal is disabled"))
	}
	req := &models.DecisionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.journal.RecentDecisions(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("recent decisions query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("journal query failed").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func configResponse(cfg usecase.StrategyConfig) models.ConfigResponse {
	res := models.ConfigResponse{
		EscalationCeiling: cfg.EscalationCeiling,
		Patterns:          make([]models.PatternResponse, len(cfg.Patterns)),
	}
	for i, p := range cfg.Patterns {
		res.Patterns[i] = models.PatternResponse{
			ID:       p.ID,
			Sequence: p.Sequence(),
			Target:   p.Target,
			Valid:    p.Valid(),
		}
	}
	return res
}
