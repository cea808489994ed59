//go:build wireinject
// +build wireinject

package di

import (
	"EquityPulse/pkg/config"
	"EquityPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// market data
		ProvideHTTPClient,
		ProvidePriceSources,
		ProvideChain,

		// price cache
		ProvideFileCache,
		ProvideHotCache,
		ProvideLoader,

		// forecasting
		ProvideExtractor,
		ProvideModelCache,
		ProvidePredictor,

		// persistence and events
		ProvideClickHouseClient,
		ProvidePredictionStore,
		ProvidePublisher,

		// orchestration
		ProvideRegistry,
		ProvideOrchestrator,
		ProvideRunsHandler,
		ProvideScheduler,

		ProvideApp,
	)
	return &server.App{}, nil
}
