package di

import (
	"context"
	"fmt"
	"time"

	"EquityPulse/internal/domain/repository"
	"EquityPulse/internal/handler/api"
	internalrepo "EquityPulse/internal/repository"
	"EquityPulse/internal/scheduler"
	"EquityPulse/internal/service/marketdata"
	"EquityPulse/internal/service/pricecache"
	"EquityPulse/internal/services/features"
	"EquityPulse/internal/services/forecast"
	"EquityPulse/internal/usecase"
	pkgcache "EquityPulse/pkg/cache"
	pkgch "EquityPulse/pkg/clickhouse"
	"EquityPulse/pkg/config"
	apphttp "EquityPulse/pkg/http"
	pkgkafka "EquityPulse/pkg/kafka"
	"EquityPulse/pkg/logger"
	"EquityPulse/pkg/metrics"
	"EquityPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideHTTPClient creates the shared outbound HTTP client.
func ProvideHTTPClient(cfg *config.Config) *apphttp.Client {
	return apphttp.NewClient(
		apphttp.WithTimeout(cfg.Providers.Timeout),
		apphttp.WithUserAgent("EquityPulse/1.0"),
	)
}

// ProvidePriceSources builds the ordered provider list.
func ProvidePriceSources(client *apphttp.Client, cfg *config.Config) []repository.PriceSource {
	return []repository.PriceSource{
		marketdata.NewYahooSource(client, cfg.Providers.Yahoo.BaseURL),
		marketdata.NewStooqSource(client, cfg.Providers.Stooq.BaseURL),
		marketdata.NewAlphaVantageSource(client, cfg.Providers.AlphaVantage.BaseURL, cfg.Providers.AlphaVantage.APIKey),
	}
}

// ProvideChain creates the provider fallback chain.
func ProvideChain(sources []repository.PriceSource, m repository.Metrics, l *logger.Logger, cfg *config.Config) *marketdata.Chain {
	return marketdata.NewChain(sources, m, l,
		marketdata.WithAttempts(cfg.Providers.Attempts),
		marketdata.WithBackoff(cfg.Providers.Backoff),
		marketdata.WithBreaker(cfg.Providers.BreakerWindow, cfg.Providers.BreakerCooldown),
	)
}

// ProvideFileCache creates the durable CSV price cache.
func ProvideFileCache(cfg *config.Config) repository.PriceCache {
	return pricecache.NewFileCache(cfg.Cache.Dir)
}

// ProvideHotCache creates the optional in-front cache layer. Returns nil
// when disabled, which the loader treats as "no hot layer".
func ProvideHotCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Cache.Hot.Enabled {
		return nil, nil
	}

	if cfg.Cache.Redis.Enabled {
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(cfg.Cache.Redis.Host),
			pkgcache.WithRedisPort(cfg.Cache.Redis.Port),
			pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
			pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
			pkgcache.WithRedisPrefix("equitypulse"),
		)
		if err != nil {
			return nil, fmt.Errorf("hot cache: %w", err)
		}
		return pkgcache.NewLayeredCache(rc, pkgcache.WithMemoryMaxSize(cfg.Cache.Hot.MaxSize)), nil
	}

	return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(cfg.Cache.Hot.MaxSize)), nil
}

// ProvideLoader creates the mode-aware price series loader.
func ProvideLoader(chain *marketdata.Chain, store repository.PriceCache, hot pkgcache.Service, m repository.Metrics, l *logger.Logger, cfg *config.Config) *pricecache.Loader {
	opts := []pricecache.LoaderOption{
		pricecache.WithTTL(cfg.Cache.TTLDaily, cfg.Cache.TTLMonthly),
		pricecache.WithLookback(cfg.Runner.Lookback),
	}
	if hot != nil {
		opts = append(opts, pricecache.WithHotLayer(hot))
	}
	return pricecache.NewLoader(chain, store, m, l, opts...)
}

// ProvideExtractor creates the feature extractor.
func ProvideExtractor() *features.Extractor {
	return features.NewExtractor()
}

// ProvideModelCache creates the bounded trained-model cache.
func ProvideModelCache(cfg *config.Config) *forecast.ModelCache {
	return forecast.NewModelCache(cfg.Forecast.ModelCacheMax)
}

// ProvidePredictor creates the walk-forward predictor.
func ProvidePredictor(cfg *config.Config, mc *forecast.ModelCache, l *logger.Logger) *forecast.Predictor {
	return forecast.NewPredictor(forecast.Config{
		Window:   cfg.Forecast.Window,
		MinTrain: cfg.Forecast.MinTrain,
		Trees:    cfg.Forecast.Trees,
		MaxDepth: cfg.Forecast.MaxDepth,
		MinLeaf:  cfg.Forecast.MinLeaf,
		Seed:     cfg.Forecast.Seed,
	}, mc, l)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvidePredictionStore creates the prediction store and ensures its schema.
func ProvidePredictionStore(client *pkgch.Client) (repository.PredictionStore, error) {
	store := internalrepo.NewPredictionStore(client)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("prediction schema: %w", err)
	}
	return store, nil
}

// ProvidePublisher creates the Kafka prediction publisher, or nil when
// event publishing is disabled.
func ProvidePublisher(cfg *config.Config) (repository.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideRegistry creates the in-memory run registry.
func ProvideRegistry() *usecase.RunRegistry {
	return usecase.NewRunRegistry()
}

// ProvideOrchestrator wires the batch run pipeline.
func ProvideOrchestrator(
	loader *pricecache.Loader,
	extractor *features.Extractor,
	predictor *forecast.Predictor,
	store repository.PredictionStore,
	publisher repository.EventPublisher,
	registry *usecase.RunRegistry,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.Orchestrator {
	return usecase.NewOrchestrator(loader, extractor, predictor, store, publisher, registry, m, l)
}

// ProvideRunsHandler creates the HTTP handler.
func ProvideRunsHandler(l *logger.Logger, orch *usecase.Orchestrator, registry *usecase.RunRegistry, store repository.PredictionStore) *api.RunsEchoHandler {
	return api.NewRunsEchoHandler(l, orch, registry, store)
}

// ProvideScheduler creates the cron scheduler, or nil when disabled.
func ProvideScheduler(cfg *config.Config, orch *usecase.Orchestrator, l *logger.Logger) *scheduler.Scheduler {
	if !cfg.Scheduler.Enabled {
		return nil
	}
	return scheduler.New(orch, l,
		cfg.Scheduler.Cron,
		cfg.Runner.Tickers,
		cfg.Runner.HorizonDays,
		cfg.Runner.MaxParallel,
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	handler *api.RunsEchoHandler,
	sched *scheduler.Scheduler,
	chClient *pkgch.Client,
	publisher repository.EventPublisher,
	hot pkgcache.Service,
) *server.App {
	return server.New(cfg, l, handler, sched, chClient, publisher, hot)
}
