//go:build wireinject
// +build wireinject

package di

import (
	"SpinSignal/pkg/config"
	"SpinSignal/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideClickHouseClient,
		ProvideCache,

		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideRateLimiter,
		ProvideEventBus,

		// Repositories
		ProvideJournal,
		ProvideStatsStore,
		ProvideEventPublisher,
		ProvideFeed,
		ProvideNotifier,

		// Use cases
		ProvideStrategyConfig,
		ProvideConfigStore,
		ProvideMachine,
		ProvideFeedCollector,
		ProvideDispatcher,
		ProvideStatsBroadcaster,

		// Transport
		ProvideStreamHub,
		ProvideDashboard,
		ProvideHTTPServer,

		// Application server
		ProvideSubscribers,
		ProvideClosers,
		ProvideApp,
	)
	return &server.App{}, nil
}
