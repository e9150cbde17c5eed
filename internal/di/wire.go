//go:build wireinject
// +build wireinject

package di

import (
	"qdr/pkg/config"
	"qdr/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideClickHouseClient,

		// Repositories
		ProvideRunStore,

		// Market data
		ProvideMarketData,
		ProvideSpotResolver,

		// Use cases
		ProvideOptimizer,

		// HTTP surface
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
