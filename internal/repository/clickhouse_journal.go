package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SpinSignal/internal/domain/models"
	domrepo "SpinSignal/internal/domain/repository"
	pkgch "SpinSignal/pkg/clickhouse"
	applogger "SpinSignal/pkg/logger"
	"SpinSignal/pkg/util"
)

const (
	DefaultOutcomesTable  = "roulette_outcomes"
	DefaultDecisionsTable = "roulette_decisions"

	maxDecisionRows = 500
)

// SchemaStatements returns the idempotent DDL for the journal tables.
func SchemaStatements(outcomes, decisions string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            id          String,
            ts          DateTime64(3, 'UTC'),
            color       LowCardinality(String),
            number      Int32,
            inserted_at DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(inserted_at)
        ORDER BY (ts, id)`, outcomes),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            event_id       String,
            ts             DateTime64(3, 'UTC'),
            kind           LowCardinality(String),
            round_id       String,
            target         LowCardinality(String),
            gale_level     Int32,
            ceiling        Int32,
            pattern_id     String,
            outcome_color  LowCardinality(String),
            outcome_number Int32,
            wins           Int32,
            losses         Int32,
            total_signals  Int32
        ) ENGINE = MergeTree
        ORDER BY (ts, event_id)`, decisions),
	}
}

// ClickHouseJournal implements Journal backed by ClickHouse.
type ClickHouseJournal struct {
	db        *sql.DB
	outcomes  string
	decisions string
	l         *applogger.Logger
}

// NewClickHouseJournal creates a journal over the client's pool.
func NewClickHouseJournal(ch *pkgch.Client, outcomes, decisions string, l *applogger.Logger) *ClickHouseJournal {
	return newClickHouseJournal(ch.DB(), outcomes, decisions, l)
}

func newClickHouseJournal(db *sql.DB, outcomes, decisions string, l *applogger.Logger) *ClickHouseJournal {
	if outcomes == "" {
		outcomes = DefaultOutcomesTable
	}
	if decisions == "" {
		decisions = DefaultDecisionsTable
	}
	return &ClickHouseJournal{db: db, outcomes: outcomes, decisions: decisions, l: l}
}

var _ domrepo.Journal = (*ClickHouseJournal)(nil)

// StoreOutcomes inserts resolved rounds. Rows are deduplicated by the table
// engine, so re-inserting a round is harmless.
func (s *ClickHouseJournal) StoreOutcomes(ctx context.Context, outcomes []models.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	values := make([]string, 0, len(outcomes))
	args := make([]interface{}, 0, len(outcomes)*4)
	for _, o := range outcomes {
		if o.ID == "" || !o.Color.Valid() {
			continue
		}
		ts := o.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		values = append(values, "(?, ?, ?, ?)")
		args = append(args, o.ID, ts, string(o.Color), int32(o.Number))
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (id, ts, color, number) VALUES %s", s.outcomes, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		s.logError("clickhouse store_outcomes error", s.outcomes, err)
		return fmt.Errorf("store outcomes: %w", err)
	}
	return nil
}

// StoreEvent journals a decision event.
func (s *ClickHouseJournal) StoreEvent(ctx context.Context, ev *models.Event) error {
	var (
		outColor  string
		outNumber int32 = -1
		st        models.Stats
	)
	if ev.Outcome != nil {
		outColor = string(ev.Outcome.Color)
		outNumber = int32(ev.Outcome.Number)
	}
	if ev.Stats != nil {
		st = *ev.Stats
	}
	q := fmt.Sprintf(`INSERT INTO %s (event_id, ts, kind, round_id, target, gale_level, ceiling, pattern_id,
        outcome_color, outcome_number, wins, losses, total_signals) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.decisions)
	_, err := s.db.ExecContext(ctx, q,
		ev.ID,
		ev.Timestamp,
		string(ev.Kind),
		ev.RoundID,
		string(ev.Target),
		int32(ev.GaleLevel),
		int32(ev.Ceiling),
		ev.PatternID,
		outColor,
		outNumber,
		int32(st.Wins),
		int32(st.Losses),
		int32(st.TotalSignals),
	)
	if err != nil {
		s.logError("clickhouse store_event error", s.decisions, err)
		return fmt.Errorf("store event: %w", err)
	}
	return nil
}

// RecentDecisions returns the latest journaled decisions, newest first.
func (s *ClickHouseJournal) RecentDecisions(ctx context.Context, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	limit = util.ClampInt(limit, 1, maxDecisionRows)
	q := fmt.Sprintf(`SELECT event_id, ts, kind, round_id, target, gale_level, ceiling, pattern_id,
        outcome_color, outcome_number, wins, losses, total_signals
        FROM %s ORDER BY ts DESC LIMIT ?`, s.decisions)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		s.logError("clickhouse recent_decisions query error", s.decisions, err)
		return nil, fmt.Errorf("recent decisions: %w", err)
	}
	defer rows.Close()

	out := make([]models.Event, 0, limit)
	for rows.Next() {
		var (
			ev                      models.Event
			kind, target, outColor  string
			gale, ceiling, outNum   int32
			wins, losses, totalSigs int32
		)
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &kind, &ev.RoundID, &target, &gale, &ceiling, &ev.PatternID,
			&outColor, &outNum, &wins, &losses, &totalSigs); err != nil {
			return nil, fmt.Errorf("recent decisions scan: %w", err)
		}
		ev.Kind = models.EventKind(kind)
		ev.Target = models.Color(target)
		ev.GaleLevel = int(gale)
		ev.Ceiling = int(ceiling)
		if outColor != "" {
			ev.Outcome = &models.Outcome{ID: ev.RoundID, Color: models.Color(outColor), Number: int(outNum)}
		}
		ev.Stats = &models.Stats{Wins: int(wins), Losses: int(losses), TotalSignals: int(totalSigs)}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *ClickHouseJournal) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseJournal) Close() error {
	return nil // Managed by pkg
}

func (s *ClickHouseJournal) logError(msg, table string, err error) {
	if s.l != nil {
		s.l.Error(msg, applogger.String("table", table), applogger.Error(err))
	}
}
