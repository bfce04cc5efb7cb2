package batch

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bioshelf/internal/domain"
)

type countingBuilder struct {
	mu     sync.Mutex
	builds []domain.ModuleBuildRequest
	fail   map[string]error
}

func (b *countingBuilder) Build(_ domain.Snapshot, req domain.ModuleBuildRequest) domain.ModuleBuildResult {
	b.mu.Lock()
	b.builds = append(b.builds, req)
	b.mu.Unlock()

	if err, ok := b.fail[req.ToolName]; ok {
		return domain.ModuleBuildResult{Request: req, Err: err}
	}
	return domain.ModuleBuildResult{
		Request:  req,
		ToolName: domain.NormalizeToolName(req.ToolName),
		Tag:      req.Version,
		Path:     "/modules/" + req.ToolName + "/" + req.Version + ".lua",
		Written:  true,
	}
}

func (b *countingBuilder) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.builds)
}

func TestBuildMany_DeduplicatesWrites(t *testing.T) {
	builder := &countingBuilder{}
	orch := NewOrchestrator(builder, 2, zap.NewNop())

	specs := []domain.ModuleBuildRequest{
		{ToolName: "samtools", Version: "1.21"},
		{ToolName: "samtools", Version: "1.21"},
		{ToolName: "fastqc"},
	}
	results := orch.BuildMany(context.Background(), domain.Snapshot{}, specs)

	require.Len(t, results, 3)
	require.Equal(t, 2, builder.count())

	// The duplicate specs reference the same underlying write.
	require.Equal(t, results[0].Path, results[1].Path)
	require.NotEqual(t, results[0].Path, results[2].Path)

	// Each result still carries its own request.
	for i, result := range results {
		require.Equal(t, specs[i], result.Request)
		require.NoError(t, result.Err)
	}
}

func TestBuildMany_OrderMatchesInput(t *testing.T) {
	builder := &countingBuilder{}
	orch := NewOrchestrator(builder, 8, zap.NewNop())

	specs := make([]domain.ModuleBuildRequest, 0, 32)
	for _, tool := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		for _, version := range []string{"1", "2", "3", "4"} {
			specs = append(specs, domain.ModuleBuildRequest{ToolName: tool, Version: version})
		}
	}
	results := orch.BuildMany(context.Background(), domain.Snapshot{}, specs)
	require.Len(t, results, len(specs))
	for i, result := range results {
		require.Equal(t, specs[i], result.Request)
	}
}

func TestBuildMany_FailureIsIsolated(t *testing.T) {
	builder := &countingBuilder{fail: map[string]error{"broken": domain.ErrNotFound}}
	orch := NewOrchestrator(builder, 2, zap.NewNop())

	results := orch.BuildMany(context.Background(), domain.Snapshot{}, []domain.ModuleBuildRequest{
		{ToolName: "samtools", Version: "1.21"},
		{ToolName: "broken"},
		{ToolName: "fastqc"},
	})

	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, domain.ErrNotFound)
	require.NoError(t, results[2].Err)
}

func TestBuildMany_NormalizedDedupKey(t *testing.T) {
	builder := &countingBuilder{}
	orch := NewOrchestrator(builder, 2, zap.NewNop())

	results := orch.BuildMany(context.Background(), domain.Snapshot{}, []domain.ModuleBuildRequest{
		{ToolName: "Fast-QC"},
		{ToolName: "fast_qc"},
	})
	require.Len(t, results, 2)
	require.Equal(t, 1, builder.count())
}

func TestBuildMany_Empty(t *testing.T) {
	orch := NewOrchestrator(&countingBuilder{}, 2, zap.NewNop())
	require.Empty(t, orch.BuildMany(context.Background(), domain.Snapshot{}, nil))
}
