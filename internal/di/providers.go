package di

import (
	"context"
	"fmt"
	"time"

	"SpinSignal/internal/domain/repository"
	"SpinSignal/internal/handler/api"
	mid "SpinSignal/internal/middleware"
	internalrepo "SpinSignal/internal/repository"
	"SpinSignal/internal/service/blaze"
	svcmetrics "SpinSignal/internal/service/metrics"
	"SpinSignal/internal/service/ratelimit"
	"SpinSignal/internal/service/telegram"
	"SpinSignal/internal/services/strategy"
	"SpinSignal/internal/usecase"
	"SpinSignal/pkg/cache"
	pkgch "SpinSignal/pkg/clickhouse"
	"SpinSignal/pkg/config"
	xhttp "SpinSignal/pkg/http"
	pkgkafka "SpinSignal/pkg/kafka"
	applogger "SpinSignal/pkg/logger"
	"SpinSignal/pkg/metrics"
	"SpinSignal/pkg/server"
	"SpinSignal/pkg/util"
)

const (
	startupTimeout = 10 * time.Second
	redisPoolSize  = 4
)

// ProvideLogger creates the root logger. With a producer and the collector
// enabled, warnings and errors are also batched to Kafka; child loggers
// share the collector, so it is attached before any of them exist.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Log.Collector.Enabled {
		l.AddCollector(&applogger.CollectionConfig{
			Service:        "spinsignal",
			TimeInterval:   cfg.Log.Collector.Interval,
			CountThreshold: cfg.Log.Collector.CountThreshold,
			Topic:          cfg.Log.Collector.Topic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	svcmetrics.Register()
	return metrics.New()
}

// ProvideRateLimiter creates the shared token bucket limiter.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideClickHouseClient creates a ClickHouse client, nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(4, 2),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if cfg.ClickHouse.Migrate {
		stmts := internalrepo.SchemaStatements(cfg.ClickHouse.OutcomesTable, cfg.ClickHouse.DecisionsTable)
		if err := client.InitSchema(ctx, stmts); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopics(cfg.Kafka.AutoCreate),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideCache creates the Redis backed cache fronted by a short-lived
// memory layer, nil when disabled.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	rc, err := cache.NewRedisCache(ctx,
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
		cache.WithRedisPool(redisPoolSize, 1, 5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(64),
		cache.WithLayeredMemoryTTL(cfg.Redis.MemoryTTL),
	), nil
}

// ProvideJournal creates the ClickHouse journal, nil without a client.
func ProvideJournal(ch *pkgch.Client, cfg *config.Config, logger *applogger.Logger) repository.Journal {
	if ch == nil {
		return nil
	}
	return internalrepo.NewClickHouseJournal(ch, cfg.ClickHouse.OutcomesTable, cfg.ClickHouse.DecisionsTable, logger.With("journal"))
}

// ProvideStatsStore creates the stats mirror store, nil without a cache.
func ProvideStatsStore(c cache.Service, cfg *config.Config) repository.StatsStore {
	if c == nil {
		return nil
	}
	return internalrepo.NewStatsSnapshotStore(c, cfg.Redis.StatsTTL)
}

// ProvideEventPublisher creates the Kafka event publisher, nil without a producer.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideFeed creates the blaze poller.
func ProvideFeed(cfg *config.Config, logger *applogger.Logger) repository.Feed {
	return blaze.New(blaze.Config{
		BaseURL:     cfg.Feed.BaseURL,
		FallbackURL: cfg.Feed.FallbackURL,
		Timeout:     cfg.Feed.Timeout,
	}, logger.With("blaze"))
}

// ProvideNotifier creates the Telegram client.
func ProvideNotifier(cfg *config.Config, limiter *ratelimit.Limiter, logger *applogger.Logger) repository.Notifier {
	tg := cfg.Telegram
	l := logger.With("telegram")
	if tg.Token != "" {
		l.Info("telegram enabled", applogger.String("token", util.MaskSecret(tg.Token)), applogger.String("chat_id", tg.ChatID))
	}
	return telegram.New(telegram.Config{
		Token:         tg.Token,
		ChatID:        tg.ChatID,
		BaseURL:       tg.BaseURL,
		ButtonText:    tg.ButtonText,
		ButtonURL:     tg.ButtonURL,
		Timeout:       tg.Timeout,
		RatePerSecond: tg.RatePerSecond,
		Burst:         tg.Burst,
	}, limiter, l)
}

// ProvideEventBus creates the in-process event bus.
func ProvideEventBus(cfg *config.Config, m repository.Metrics, logger *applogger.Logger) *mid.EventBus {
	return mid.NewEventBus(m,
		mid.WithBusBufferSize(cfg.Events.BufferSize),
		mid.WithBusLogger(logger.With("bus")),
	)
}

// ProvideStrategyConfig builds the pattern table, falling back to the
// built-in table when none is configured.
func ProvideStrategyConfig(cfg *config.Config, logger *applogger.Logger) usecase.StrategyConfig {
	defs := strategy.DefaultDefinitions()
	if len(cfg.Bot.Patterns) > 0 {
		defs = make([]strategy.Definition, len(cfg.Bot.Patterns))
		for i, p := range cfg.Bot.Patterns {
			defs[i] = strategy.Definition{ID: p.ID, Sequence: p.Sequence, Target: p.Target}
		}
	}
	table, problems := strategy.Build(defs)
	for _, p := range problems {
		logger.Warn("pattern ignored", applogger.String("problem", p))
	}
	return usecase.StrategyConfig{EscalationCeiling: cfg.Bot.EscalationCeiling, Patterns: table}
}

// ProvideConfigStore wraps the strategy configuration.
func ProvideConfigStore(sc usecase.StrategyConfig) *usecase.ConfigStore {
	return usecase.NewConfigStore(sc)
}

// ProvideMachine creates the bet machine, optionally restoring mirrored stats.
func ProvideMachine(
	feed repository.Feed,
	store *usecase.ConfigStore,
	bus *mid.EventBus,
	m repository.Metrics,
	stats repository.StatsStore,
	cfg *config.Config,
	logger *applogger.Logger,
) *usecase.Machine {
	l := logger.With("machine")
	opts := []usecase.MachineOption{usecase.WithHistoryLimit(cfg.Bot.HistoryLimit)}
	if cfg.Bot.RestoreStats && stats != nil {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()
		if st, err := stats.Load(ctx); err == nil {
			opts = append(opts, usecase.WithInitialStats(st))
			l.Info("stats restored", applogger.Int("wins", st.Wins), applogger.Int("losses", st.Losses))
		} else {
			l.Warn("stats restore skipped", applogger.Error(err))
		}
	}
	return usecase.NewMachine(feed, store, bus, m, l, opts...)
}

// ProvideFeedCollector creates the poll loop.
func ProvideFeedCollector(feed repository.Feed, machine *usecase.Machine, m repository.Metrics, cfg *config.Config, logger *applogger.Logger) *usecase.FeedCollector {
	return usecase.NewFeedCollector(feed, machine, m, logger.With("collector"), cfg.Feed.PollInterval)
}

// ProvideDispatcher creates the Telegram notification subscriber.
func ProvideDispatcher(n repository.Notifier, m repository.Metrics, cfg *config.Config, logger *applogger.Logger) *usecase.NotificationDispatcher {
	return usecase.NewNotificationDispatcher(n, usecase.DispatcherConfig{
		StickerSignal: cfg.Telegram.Stickers.Signal,
		StickerWin:    cfg.Telegram.Stickers.Win,
		StickerLoss:   cfg.Telegram.Stickers.Loss,
		DeleteDelay:   cfg.Telegram.DeleteDelay,
	}, m, logger.With("notifier"))
}

// ProvideStatsBroadcaster creates the cron based stats publisher.
func ProvideStatsBroadcaster(cfg *config.Config, machine *usecase.Machine, bus *mid.EventBus, logger *applogger.Logger) *usecase.StatsBroadcaster {
	return usecase.NewStatsBroadcaster(cfg.Telegram.StatsSchedule, machine, bus, logger.With("stats_broadcaster"))
}

// ProvideStreamHub creates the websocket fan-out.
func ProvideStreamHub(machine *usecase.Machine, logger *applogger.Logger) *api.StreamHub {
	return api.NewStreamHub(logger, machine.Snapshot)
}

// ProvideDashboard creates the REST handler.
func ProvideDashboard(machine *usecase.Machine, journal repository.Journal, limiter *ratelimit.Limiter, logger *applogger.Logger) *api.DashboardHandler {
	return api.NewDashboardHandler(logger, machine, journal, limiter)
}

// ProvideHTTPServer creates the echo server with every handler mounted.
func ProvideHTTPServer(cfg *config.Config, dashboard *api.DashboardHandler, hub *api.StreamHub, logger *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(xhttp.Handlers{dashboard, hub}, logger,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithCORS(cfg.Server.CORS, cfg.Server.CORSOrigins...),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideSubscribers lists the bus subscribers for the enabled sinks.
func ProvideSubscribers(
	dispatcher *usecase.NotificationDispatcher,
	hub *api.StreamHub,
	publisher repository.EventPublisher,
	journal repository.Journal,
	stats repository.StatsStore,
) server.Subscribers {
	subs := server.Subscribers{dispatcher, hub}
	if publisher != nil {
		subs = append(subs, usecase.NewEventStreamSink(publisher))
	}
	if journal != nil {
		subs = append(subs, usecase.NewJournalSink(journal))
	}
	if stats != nil {
		subs = append(subs, usecase.NewStatsMirror(stats))
	}
	return subs
}

// ProvideClosers lists the infrastructure clients to close on shutdown.
func ProvideClosers(producer *pkgkafka.Producer, ch *pkgch.Client, c cache.Service) server.Closers {
	var closers server.Closers
	if producer != nil {
		closers = append(closers, producer)
	}
	if ch != nil {
		closers = append(closers, ch)
	}
	if c != nil {
		closers = append(closers, c)
	}
	return closers
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	bus *mid.EventBus,
	machine *usecase.Machine,
	collector *usecase.FeedCollector,
	dispatcher *usecase.NotificationDispatcher,
	broadcaster *usecase.StatsBroadcaster,
	hub *api.StreamHub,
	httpServer *xhttp.Server,
	subs server.Subscribers,
	closers server.Closers,
) *server.App {
	names := make([]string, len(subs))
	for i, s := range subs {
		names[i] = s.Name()
	}
	logger.Info("components ready",
		applogger.Strings("subscribers", names),
		applogger.Bool("kafka", cfg.Kafka.Enabled),
		applogger.Bool("clickhouse", cfg.ClickHouse.Enabled),
		applogger.Bool("redis", cfg.Redis.Enabled),
		applogger.Bool("telegram", cfg.Telegram.Token != ""),
	)
	return server.New(cfg, logger, bus, machine, collector, dispatcher, broadcaster, hub, httpServer, subs, closers)
}
