package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	appcatalog "bioshelf/internal/app/catalog"
	"bioshelf/internal/domain"
	"bioshelf/internal/infra/batch"
	infracatalog "bioshelf/internal/infra/catalog"
	"bioshelf/internal/infra/gateway"
	"bioshelf/internal/infra/modulefile"
	"bioshelf/internal/infra/search"
	"bioshelf/internal/infra/telemetry"
)

// Application wires the catalog provider, search engine, module builder and
// telemetry together. Construction performs the initial catalog load, so a
// returned Application always has a usable snapshot.
type Application struct {
	cfg      Config
	logger   *zap.Logger
	cache    *infracatalog.Cache
	provider *appcatalog.Provider
	service  *Service
	metrics  *telemetry.PrometheusMetrics
	registry *prometheus.Registry
}

func NewApplication(ctx context.Context, cfg Config, logger *zap.Logger) (*Application, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var cache *infracatalog.Cache
	if cfg.CachePath != "" {
		opened, err := infracatalog.OpenCache(cfg.CachePath)
		if err != nil {
			return nil, err
		}
		cache = opened
	}

	closeCache := func() {
		if cache != nil {
			_ = cache.Close()
		}
	}

	loader := infracatalog.NewLoader(cache, logger)
	provider, err := appcatalog.NewProvider(ctx, loader, cfg.MetadataPath, cfg.ContainerRoot, logger)
	if err != nil {
		closeCache()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewPrometheusMetrics(registry)
	provider.OnReload(func(source appcatalog.ReloadSource, snapshot domain.Snapshot) {
		metrics.RecordReload(string(source))
		metrics.SetCatalogEntries(snapshot.Containers.Len())
	})

	engine := search.NewEngine(cfg.Weights, logger)
	builder := modulefile.NewBuilder(cfg.ModuleDir, logger)
	orchestrator := batch.NewOrchestrator(builder, cfg.BatchConcurrency, logger)

	service := NewService(ServiceOptions{
		Provider:     provider,
		Engine:       engine,
		Builder:      builder,
		Orchestrator: orchestrator,
		Metrics:      metrics,
		SearchLimit:  cfg.SearchLimit,
		ListLimit:    cfg.ListLimit,
	}, logger)

	return &Application{
		cfg:      cfg,
		logger:   logger,
		cache:    cache,
		provider: provider,
		service:  service,
		metrics:  metrics,
		registry: registry,
	}, nil
}

// Service returns the catalog service for in-process callers such as the CLI.
func (a *Application) Service() *Service {
	return a.service
}

// Serve runs the MCP stdio gateway until the context is canceled. Metadata
// watching and the observability endpoint run alongside it when configured.
func (a *Application) Serve(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.WatchMetadata {
		a.provider.Watch(runCtx)
	}
	if a.cfg.Observability.Enabled {
		go func() {
			err := telemetry.StartHTTPServer(runCtx, telemetry.HTTPServerOptions{
				Addr:     a.cfg.Observability.ListenAddress,
				Registry: a.registry,
			}, a.logger)
			if err != nil {
				a.logger.Warn("observability server stopped", zap.Error(err))
			}
		}()
	}

	return gateway.NewGateway(a.service, a.logger).Run(runCtx)
}

// Close releases the scan cache.
func (a *Application) Close() error {
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}
