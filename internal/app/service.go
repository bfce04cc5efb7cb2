package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	appcatalog "bioshelf/internal/app/catalog"
	"bioshelf/internal/domain"
	"bioshelf/internal/infra/batch"
	"bioshelf/internal/infra/modulefile"
	"bioshelf/internal/infra/search"
	"bioshelf/internal/infra/telemetry"
)

// Service exposes the catalog operations behind a stable surface. Every query
// runs against the snapshot current at call time, so a reload mid-call never
// mixes two catalog generations.
type Service struct {
	provider *appcatalog.Provider
	engine   *search.Engine
	builder  *modulefile.Builder
	batch    *batch.Orchestrator
	metrics  *telemetry.PrometheusMetrics
	logger   *zap.Logger

	searchLimit int
	listLimit   int
}

type ServiceOptions struct {
	Provider     *appcatalog.Provider
	Engine       *search.Engine
	Builder      *modulefile.Builder
	Orchestrator *batch.Orchestrator
	Metrics      *telemetry.PrometheusMetrics
	SearchLimit  int
	ListLimit    int
}

func NewService(opts ServiceOptions, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	searchLimit := opts.SearchLimit
	if searchLimit <= 0 {
		searchLimit = domain.DefaultSearchLimit
	}
	listLimit := opts.ListLimit
	if listLimit <= 0 {
		listLimit = domain.DefaultListLimit
	}
	return &Service{
		provider:    opts.Provider,
		engine:      opts.Engine,
		builder:     opts.Builder,
		batch:       opts.Orchestrator,
		metrics:     opts.Metrics,
		logger:      logger.Named("service"),
		searchLimit: searchLimit,
		listLimit:   listLimit,
	}
}

// Snapshot returns the current catalog snapshot.
func (s *Service) Snapshot() domain.Snapshot {
	return s.provider.Snapshot()
}

// Reload forces a catalog refresh.
func (s *Service) Reload(ctx context.Context) error {
	return s.provider.Reload(ctx)
}

// FindTool looks a tool up by name across both catalog sources. Metadata and
// container listings can each be missing independently; the lookup fails only
// when neither side knows the name.
func (s *Service) FindTool(ctx context.Context, name string) (domain.ToolInfo, error) {
	snapshot := s.provider.Snapshot()
	info := domain.ToolInfo{Query: name}

	meta, err := s.engine.Find(snapshot, name)
	if err == nil {
		info.Metadata = &meta
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.metrics.RecordLookup("find_tool", false)
		return domain.ToolInfo{}, err
	}

	for _, candidate := range versionLookupCandidates(name, info.Metadata) {
		if versions, ok := snapshot.Containers.Versions(candidate); ok {
			info.Versions = versions
			break
		}
	}

	if info.Metadata == nil && len(info.Versions) == 0 {
		s.metrics.RecordLookup("find_tool", false)
		fields := []zap.Field{zap.String("query", name)}
		if requestID, ok := telemetry.RequestIDFromContext(ctx); ok {
			fields = append(fields, zap.String("request_id", requestID))
		}
		s.logger.Debug("tool not found", fields...)
		return domain.ToolInfo{}, domain.E(domain.CodeNotFound, "service.find_tool",
			"no tool named "+name, domain.ErrNotFound)
	}
	s.metrics.RecordLookup("find_tool", true)
	return info, nil
}

func versionLookupCandidates(query string, meta *domain.ToolMetadata) []string {
	candidates := []string{query}
	if meta != nil {
		candidates = append(candidates, meta.ID, meta.Name)
		candidates = append(candidates, meta.Aliases...)
	}
	return candidates
}

// SearchByFunction ranks catalog tools against a free-text description of what
// the caller wants to do. A limit of zero applies the configured default.
func (s *Service) SearchByFunction(ctx context.Context, query string, limit int) []domain.SearchResult {
	if limit <= 0 {
		limit = s.searchLimit
	}
	snapshot := s.provider.Snapshot()
	results := s.engine.Search(snapshot, query, limit)
	s.metrics.RecordSearch(len(results))
	return results
}

// GetContainerVersions lists the container tags for a tool, newest first.
func (s *Service) GetContainerVersions(ctx context.Context, name string) ([]domain.ContainerEntry, error) {
	snapshot := s.provider.Snapshot()
	versions, err := search.Versions(snapshot, name)
	if err != nil && errors.Is(err, domain.ErrNotFound) {
		// The name may be a metadata alias that differs from the
		// container directory name.
		if meta, findErr := s.engine.Find(snapshot, name); findErr == nil {
			for _, candidate := range versionLookupCandidates(name, &meta) {
				if v, ok := snapshot.Containers.Versions(candidate); ok {
					versions, err = v, nil
					break
				}
			}
		}
	}
	s.metrics.RecordLookup("get_container_versions", err == nil)
	return versions, err
}

// ListAvailableTools returns the union of metadata names and container tool
// names, sorted, truncated to the limit after merging.
func (s *Service) ListAvailableTools(ctx context.Context, limit int) []string {
	if limit <= 0 {
		limit = s.listLimit
	}
	snapshot := s.provider.Snapshot()

	seen := make(map[string]bool)
	for _, rec := range snapshot.Metadata.Records() {
		name := rec.ID
		if name == "" {
			name = rec.Name
		}
		seen[domain.NormalizeToolName(name)] = true
	}
	for _, name := range snapshot.Containers.ToolNames() {
		seen[name] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > limit {
		names = names[:limit]
	}
	return names
}

// Build generates one Lmod modulefile.
func (s *Service) Build(ctx context.Context, req domain.ModuleBuildRequest) domain.ModuleBuildResult {
	start := time.Now()
	result := s.builder.Build(s.provider.Snapshot(), req)
	s.metrics.RecordBuild(time.Since(start), result.Err)
	return result
}

// BuildMany generates modulefiles for a batch of tool specs.
func (s *Service) BuildMany(ctx context.Context, specs []domain.ModuleBuildRequest) []domain.ModuleBuildResult {
	return s.batch.BuildMany(ctx, s.provider.Snapshot(), specs)
}

// CacheInfo summarizes the loaded snapshot.
func (s *Service) CacheInfo(ctx context.Context) domain.CatalogInfo {
	snapshot := s.provider.Snapshot()
	return domain.CatalogInfo{
		GeneratedAt:   snapshot.Cache.GeneratedAt,
		ContainerRoot: snapshot.Cache.ContainerRoot,
		EntryCount:    snapshot.Cache.EntryCount,
		Revision:      snapshot.Revision,
		LoadedAt:      snapshot.LoadedAt,
		Degraded:      snapshot.Degraded,
	}
}
