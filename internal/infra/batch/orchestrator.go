package batch

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"bioshelf/internal/domain"
)

// builder is the single operation the orchestrator fans out over.
type builder interface {
	Build(snapshot domain.Snapshot, req domain.ModuleBuildRequest) domain.ModuleBuildResult
}

// Orchestrator drives module generation over many specs with bounded
// parallelism. Duplicate (tool, version) specs collapse to one underlying
// build; each input entry still receives its own result, in input order. A
// failing spec never aborts the rest of the batch.
type Orchestrator struct {
	builder     builder
	concurrency int
	logger      *zap.Logger
}

func NewOrchestrator(b builder, concurrency int, logger *zap.Logger) *Orchestrator {
	if concurrency <= 0 {
		concurrency = domain.DefaultBatchConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		builder:     b,
		concurrency: concurrency,
		logger:      logger.Named("batch"),
	}
}

type dedupKey struct {
	tool    string
	version string
}

// BuildMany builds modules for every spec. Results align with the input
// order regardless of completion order.
func (o *Orchestrator) BuildMany(ctx context.Context, snapshot domain.Snapshot, specs []domain.ModuleBuildRequest) []domain.ModuleBuildResult {
	results := make([]domain.ModuleBuildResult, len(specs))
	if len(specs) == 0 {
		return results
	}

	// Deduplicate before execution so identical (tool, version) pairs
	// produce exactly one write and no two workers target the same path.
	order := make([]dedupKey, 0, len(specs))
	indices := make(map[dedupKey][]int, len(specs))
	for i, spec := range specs {
		key := dedupKey{
			tool:    domain.NormalizeToolName(spec.ToolName),
			version: spec.Version,
		}
		if _, seen := indices[key]; !seen {
			order = append(order, key)
		}
		indices[key] = append(indices[key], i)
	}

	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup
	shared := make(map[dedupKey]domain.ModuleBuildResult, len(order))
	var mu sync.Mutex

	for _, key := range order {
		spec := specs[indices[key][0]]
		wg.Add(1)
		go func(key dedupKey, spec domain.ModuleBuildRequest) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				shared[key] = domain.ModuleBuildResult{Request: spec, Err: ctx.Err()}
				mu.Unlock()
				return
			}

			result := o.builder.Build(snapshot, spec)
			if result.Err != nil {
				o.logger.Warn("module build failed",
					zap.String("tool", spec.ToolName),
					zap.String("version", spec.Version),
					zap.Error(result.Err),
				)
			}
			mu.Lock()
			shared[key] = result
			mu.Unlock()
		}(key, spec)
	}
	wg.Wait()

	for key, is := range indices {
		result := shared[key]
		for _, i := range is {
			entry := result
			entry.Request = specs[i]
			results[i] = entry
		}
	}

	if failed := countFailed(results); failed > 0 {
		o.logger.Warn("batch finished with failures",
			zap.Int("failed", failed),
			zap.Int("total", len(results)),
		)
	}
	return results
}

func countFailed(results []domain.ModuleBuildResult) int {
	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}
	return failed
}
