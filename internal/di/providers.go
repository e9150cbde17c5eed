package di

import (
	"context"
	"fmt"
	"time"

	"qdr/internal/engine"
	"qdr/internal/handler/api"
	"qdr/internal/marketdata"
	internalrepo "qdr/internal/repository"
	"qdr/internal/usecase"
	"qdr/pkg/cache"
	pkgch "qdr/pkg/clickhouse"
	"qdr/pkg/config"
	xhttp "qdr/pkg/http"
	applogger "qdr/pkg/logger"
	"qdr/pkg/metrics"
	"qdr/pkg/server"
)

// ProvideLogger creates the structured application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideCache creates the price cache. Redis-backed with an in-process
// front when Redis is enabled, pure in-memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(4096)), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc, 4096), nil
}

// ProvideClickHouseClient creates the run-history ClickHouse client and
// ensures the schema exists. Returns nil when history is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	ch := cfg.History.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(ch.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideRunStore creates the ClickHouse-backed run store, or nil when
// history is disabled.
func ProvideRunStore(client *pkgch.Client, cfg *config.Config) usecase.RunStore {
	if client == nil {
		return nil
	}
	return internalrepo.NewRunHistory(client, cfg.History.ClickHouse.Database)
}

// ProvideMarketData creates the cached Yahoo history provider.
func ProvideMarketData(cfg *config.Config, svc cache.Service, logger *applogger.Logger) marketdata.Provider {
	yahoo := marketdata.NewYahooClient(cfg.MarketData.YahooBaseURL, cfg.MarketData.RequestTimeout, logger)
	return marketdata.NewCachedProvider(yahoo, svc, cfg.MarketData.CacheTTL, logger)
}

// ProvideSpotResolver creates the Binance-first spot price resolver.
func ProvideSpotResolver(cfg *config.Config, logger *applogger.Logger) *marketdata.SpotResolver {
	binance := marketdata.NewBinanceClient(cfg.MarketData.BinanceBaseURL, cfg.MarketData.RequestTimeout)
	yahoo := marketdata.NewYahooClient(cfg.MarketData.YahooBaseURL, cfg.MarketData.RequestTimeout, logger)
	return marketdata.NewSpotResolver(binance, yahoo)
}

// ProvideOptimizer creates the optimization usecase from engine settings.
func ProvideOptimizer(
	provider marketdata.Provider,
	spots *marketdata.SpotResolver,
	runs usecase.RunStore,
	recorder *metrics.Recorder,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.PortfolioOptimizer {
	ec := usecase.EngineConfig{
		MinObservations:      cfg.Engine.MinObservations,
		PenaltyMultiplier:    cfg.Engine.PenaltyMultiplier,
		DefaultSlices:        cfg.Engine.DefaultSlices,
		DefaultPeriod:        cfg.MarketData.DefaultPeriod,
		AnnualizationPeriods: cfg.Engine.AnnualizationPeriods,
		Anneal: engine.AnnealConfig{
			Reads:       cfg.Engine.Reads,
			Sweeps:      cfg.Engine.Sweeps,
			InitialTemp: cfg.Engine.InitialTemp,
			FinalTemp:   cfg.Engine.FinalTemp,
			Parallelism: cfg.Engine.Parallelism,
		},
	}
	return usecase.NewPortfolioOptimizer(provider, spots, runs, recorder, logger, ec)
}

// ProvideHandler creates the HTTP handler surface.
func ProvideHandler(logger *applogger.Logger, optimizer *usecase.PortfolioOptimizer, client *pkgch.Client) xhttp.Handler {
	h := api.NewPortfolioHandler(logger, optimizer)
	if client != nil {
		h.SetHealthCheck(client.Health)
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	svc cache.Service,
	client *pkgch.Client,
) *server.App {
	return server.New(cfg, logger, handler, svc, client)
}
