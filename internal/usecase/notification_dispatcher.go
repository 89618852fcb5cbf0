package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"SpinSignal/internal/domain/models"
	domrepo "SpinSignal/internal/domain/repository"
	"SpinSignal/internal/service/telegram"
	applogger "SpinSignal/pkg/logger"
)

// DispatcherConfig carries the optional notification extras.
type DispatcherConfig struct {
	StickerSignal string
	StickerWin    string
	StickerLoss   string
	// DeleteDelay is how long a gale message stays up once the next round
	// starts waiting.
	DeleteDelay time.Duration
}

// NotificationDispatcher turns decision events into channel messages. It runs
// as a bus subscriber so delivery never gates the machine.
type NotificationDispatcher struct {
	notifier domrepo.Notifier
	cfg      DispatcherConfig
	metrics  domrepo.Metrics
	logger   *applogger.Logger

	// pendingMsg is the transient gale message awaiting deletion. Only the
	// subscriber goroutine touches it.
	pendingMsg int64
	detached   sync.WaitGroup
}

// NewNotificationDispatcher creates a dispatcher.
func NewNotificationDispatcher(notifier domrepo.Notifier, cfg DispatcherConfig, metrics domrepo.Metrics, logger *applogger.Logger) *NotificationDispatcher {
	if cfg.DeleteDelay < 0 {
		cfg.DeleteDelay = 0
	}
	return &NotificationDispatcher{notifier: notifier, cfg: cfg, metrics: metrics, logger: logger}
}

func (d *NotificationDispatcher) Name() string { return "notifier" }

// Handle delivers one event. Delivery errors are returned for observation only.
func (d *NotificationDispatcher) Handle(ctx context.Context, ev *models.Event) error {
	if !d.notifier.Enabled() {
		return nil
	}
	switch ev.Kind {
	case models.EventRoundStatus:
		if ev.Status == models.StatusWaiting {
			d.releasePending(ctx)
		}
		return nil
	case models.EventSignal:
		return errors.Join(
			d.sticker(ctx, ev.Kind, d.cfg.StickerSignal),
			d.message(ctx, ev.Kind, telegram.SignalMessage(ev.Target, ev.Ceiling), true),
		)
	case models.EventGale:
		var o models.Outcome
		if ev.Outcome != nil {
			o = *ev.Outcome
		}
		id, err := d.send(ctx, ev.Kind, telegram.GaleMessage(o, ev.GaleLevel), false)
		if err != nil {
			return err
		}
		if d.pendingMsg != 0 {
			d.scheduleDelete(ctx, d.pendingMsg, 0)
		}
		d.pendingMsg = id
		return nil
	case models.EventWin:
		return errors.Join(
			d.sticker(ctx, ev.Kind, d.cfg.StickerWin),
			d.message(ctx, ev.Kind, telegram.WinMessage(ev.GaleLevel), false),
			d.stats(ctx, ev.Stats),
		)
	case models.EventLoss:
		return errors.Join(
			d.sticker(ctx, ev.Kind, d.cfg.StickerLoss),
			d.message(ctx, ev.Kind, telegram.LossMessage(), false),
			d.stats(ctx, ev.Stats),
		)
	case models.EventStats:
		return d.stats(ctx, ev.Stats)
	}
	return nil
}

func (d *NotificationDispatcher) releasePending(ctx context.Context) {
	if d.pendingMsg == 0 {
		return
	}
	id := d.pendingMsg
	d.pendingMsg = 0
	d.scheduleDelete(ctx, id, d.cfg.DeleteDelay)
}

// scheduleDelete removes a message after delay on a detached goroutine.
// The outcome is discarded.
func (d *NotificationDispatcher) scheduleDelete(ctx context.Context, id int64, delay time.Duration) {
	dctx := context.WithoutCancel(ctx)
	d.detached.Add(1)
	go func() {
		defer d.detached.Done()
		if delay > 0 {
			time.Sleep(delay)
		}
		err := d.notifier.DeleteMessage(dctx, id)
		d.metrics.RecordNotification("delete", err == nil)
		if err != nil {
			d.logger.Debug("transient message not deleted", applogger.Int64("message_id", id), applogger.Error(err))
		}
	}()
}

// Wait blocks until scheduled deletions have finished. Used at shutdown.
func (d *NotificationDispatcher) Wait() { d.detached.Wait() }

func (d *NotificationDispatcher) stats(ctx context.Context, s *models.Stats) error {
	if s == nil {
		return nil
	}
	return d.message(ctx, models.EventStats, telegram.StatsMessage(*s), false)
}

func (d *NotificationDispatcher) sticker(ctx context.Context, kind models.EventKind, id string) error {
	if id == "" {
		return nil
	}
	err := d.notifier.SendSticker(ctx, id)
	d.observe("sticker_"+string(kind), err)
	return err
}

func (d *NotificationDispatcher) message(ctx context.Context, kind models.EventKind, text string, withButton bool) error {
	_, err := d.send(ctx, kind, text, withButton)
	return err
}

func (d *NotificationDispatcher) send(ctx context.Context, kind models.EventKind, text string, withButton bool) (int64, error) {
	id, err := d.notifier.SendMessage(ctx, text, withButton)
	d.observe(string(kind), err)
	return id, err
}

func (d *NotificationDispatcher) observe(kind string, err error) {
	d.metrics.RecordNotification(kind, err == nil)
	if err != nil {
		d.logger.Warn("notification failed", applogger.String("kind", kind), applogger.Error(err))
	}
}
