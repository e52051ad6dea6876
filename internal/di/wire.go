//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"NewsTrader/pkg/config"
	"NewsTrader/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideRandom,
		ProvideClickHouseClient,
		ProvidePriceCache,

		// Journal
		ProvideJournalProcessor,
		ProvideJournalPipeline,

		// Prices
		ProvideQuoteBook,
		ProvideQuoteCollector,
		ProvidePriceUpstreams,
		ProvidePriceSource,

		// News
		ProvideIdentityCache,
		ProvideInbox,
		ProvideNewsUpstreams,
		ProvideNewsSource,
		ProvideKafkaConsumer,
		ProvideNewsInboxHandler,
		ProvideRedisInbox,

		// Decisions and trading
		ProvideOracle,
		ProvideGate,
		ProvideClassifier,
		ProvideDecisionPipeline,
		ProvideLedger,
		ProvideHub,
		ProvideMarketLoop,

		// Application server
		ProvideHandlers,
		ProvideApp,
	)
	return &server.App{}, nil
}
