package usecase

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"SpinSignal/internal/domain/models"
	applogger "SpinSignal/pkg/logger"
)

// SnapshotSource exposes the machine's read model.
type SnapshotSource interface {
	Snapshot() models.Snapshot
}

// StatsBroadcaster publishes a periodic stats event on a cron schedule.
type StatsBroadcaster struct {
	cron     *cron.Cron
	schedule string
	source   SnapshotSource
	sink     EventSink
	logger   *applogger.Logger
}

// NewStatsBroadcaster creates a broadcaster. An empty schedule disables it.
// Schedules accept an optional seconds field ("0 */30 * * * *", "@every 1h").
func NewStatsBroadcaster(schedule string, source SnapshotSource, sink EventSink, logger *applogger.Logger) *StatsBroadcaster {
	return &StatsBroadcaster{
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor))),
		schedule: schedule,
		source:   source,
		sink:     sink,
		logger:   logger,
	}
}

// Start registers the job and starts the scheduler.
func (b *StatsBroadcaster) Start() error {
	if b.schedule == "" {
		return nil
	}
	if _, err := b.cron.AddFunc(b.schedule, b.Broadcast); err != nil {
		return fmt.Errorf("stats schedule %q: %w", b.schedule, err)
	}
	b.cron.Start()
	b.logger.Info("stats broadcast scheduled", applogger.String("schedule", b.schedule))
	return nil
}

// Broadcast publishes the current stats while the bot runs and has signals.
func (b *StatsBroadcaster) Broadcast() {
	snap := b.source.Snapshot()
	if !snap.Running || snap.Stats.TotalSignals == 0 {
		return
	}
	ev := models.NewEvent(models.EventStats)
	st := snap.Stats
	ev.Stats = &st
	ev.Running = snap.Running
	b.sink.Publish(ev)
}

// Stop waits for a running job to finish or ctx to end.
func (b *StatsBroadcaster) Stop(ctx context.Context) error {
	select {
	case <-b.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
