package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"bioshelf/internal/domain"
)

func openTempCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "scan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestCache_StoreAndLoad(t *testing.T) {
	cache := openTempCache(t)

	generated := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	stored := []domain.ContainerEntry{
		{
			ToolName: "samtools",
			Tag:      "1.21--h50ea8bc_0",
			Version:  domain.ParseTag("1.21--h50ea8bc_0"),
			Path:     "/cvmfs/singularity.galaxyproject.org/all/samtools:1.21--h50ea8bc_0",
			Size:     42_000_000,
			MTime:    generated,
		},
	}
	require.NoError(t, cache.Store(stored, domain.CacheInfo{
		GeneratedAt:   generated,
		ContainerRoot: "/cvmfs/singularity.galaxyproject.org/all",
		EntryCount:    1,
	}))

	loaded, info, err := cache.Load()
	require.NoError(t, err)
	require.Equal(t, 1, info.EntryCount)
	require.Equal(t, "/cvmfs/singularity.galaxyproject.org/all", info.ContainerRoot)
	require.True(t, generated.Equal(info.GeneratedAt))
	if diff := cmp.Diff(stored, loaded); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestCache_StoreReplacesPrevious(t *testing.T) {
	cache := openTempCache(t)
	info := domain.CacheInfo{GeneratedAt: time.Now().UTC(), ContainerRoot: "/all"}

	require.NoError(t, cache.Store([]domain.ContainerEntry{
		{ToolName: "old", Tag: "1--a_0"},
		{ToolName: "old", Tag: "2--a_0"},
	}, info))
	require.NoError(t, cache.Store([]domain.ContainerEntry{
		{ToolName: "new", Tag: "3--a_0"},
	}, info))

	loaded, loadedInfo, err := cache.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "new", loaded[0].ToolName)
	require.Equal(t, 1, loadedInfo.EntryCount)
}

func TestCache_EmptyLoad(t *testing.T) {
	cache := openTempCache(t)
	_, _, err := cache.Load()
	require.ErrorIs(t, err, ErrCacheEmpty)
}

func TestCache_Closed(t *testing.T) {
	cache := openTempCache(t)
	require.NoError(t, cache.Close())
	_, _, err := cache.Load()
	require.ErrorIs(t, err, ErrCacheClosed)
	require.ErrorIs(t, cache.Store(nil, domain.CacheInfo{}), ErrCacheClosed)
}
