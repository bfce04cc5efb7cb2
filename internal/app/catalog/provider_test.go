package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bioshelf/internal/domain"
	infracatalog "bioshelf/internal/infra/catalog"
)

func writeFixtures(t *testing.T, metadataContent string) (metadataPath, containerRoot string) {
	t.Helper()
	dir := t.TempDir()
	metadataPath = filepath.Join(dir, "metadata.yaml")
	require.NoError(t, os.WriteFile(metadataPath, []byte(metadataContent), 0o644))
	containerRoot = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(containerRoot, "samtools:1.21--h50ea8bc_0"), []byte("sif"), 0o644))
	return metadataPath, containerRoot
}

func TestProvider_InitialSnapshot(t *testing.T) {
	metadataPath, containerRoot := writeFixtures(t, "- id: samtools\n  name: SAMtools\n")

	loader := infracatalog.NewLoader(nil, zap.NewNop())
	provider, err := NewProvider(context.Background(), loader, metadataPath, containerRoot, zap.NewNop())
	require.NoError(t, err)

	snapshot := provider.Snapshot()
	require.Equal(t, uint64(1), snapshot.Revision)
	require.Equal(t, 1, snapshot.Metadata.Len())
	require.Equal(t, 1, snapshot.Containers.Len())
}

func TestProvider_ReloadBumpsRevision(t *testing.T) {
	metadataPath, containerRoot := writeFixtures(t, "- id: samtools\n")

	loader := infracatalog.NewLoader(nil, zap.NewNop())
	provider, err := NewProvider(context.Background(), loader, metadataPath, containerRoot, zap.NewNop())
	require.NoError(t, err)

	var sources []ReloadSource
	provider.OnReload(func(source ReloadSource, _ domain.Snapshot) {
		sources = append(sources, source)
	})

	require.NoError(t, os.WriteFile(metadataPath, []byte("- id: samtools\n- id: fastqc\n"), 0o644))
	require.NoError(t, provider.Reload(context.Background()))

	snapshot := provider.Snapshot()
	require.Equal(t, uint64(2), snapshot.Revision)
	require.Equal(t, 2, snapshot.Metadata.Len())
	require.Equal(t, []ReloadSource{ReloadSourceInitial, ReloadSourceManual}, sources)
}

func TestProvider_WatchReloadsOnMetadataChange(t *testing.T) {
	metadataPath, containerRoot := writeFixtures(t, "- id: samtools\n")

	loader := infracatalog.NewLoader(nil, zap.NewNop())
	provider, err := NewProvider(context.Background(), loader, metadataPath, containerRoot, zap.NewNop())
	require.NoError(t, err)

	reloads := make(chan ReloadSource, 4)
	provider.OnReload(func(source ReloadSource, _ domain.Snapshot) {
		reloads <- source
	})
	require.Equal(t, ReloadSourceInitial, <-reloads)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	provider.Watch(ctx)

	// Let the watcher register the directory before touching the file.
	time.Sleep(100 * time.Millisecond)

	// A burst of writes inside the debounce window coalesces into one reload.
	require.NoError(t, os.WriteFile(metadataPath, []byte("- id: samtools\n- id: fastqc\n"), 0o644))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.WriteFile(metadataPath, []byte("- id: samtools\n- id: fastqc\n- id: bwa\n"), 0o644))

	select {
	case source := <-reloads:
		require.Equal(t, ReloadSourceWatch, source)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload after metadata change")
	}

	snapshot := provider.Snapshot()
	require.Equal(t, uint64(2), snapshot.Revision)
	require.Equal(t, 3, snapshot.Metadata.Len())
}

func TestProvider_ReloadFailureKeepsSnapshot(t *testing.T) {
	metadataPath, containerRoot := writeFixtures(t, "- id: samtools\n")

	loader := infracatalog.NewLoader(nil, zap.NewNop())
	provider, err := NewProvider(context.Background(), loader, metadataPath, containerRoot, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, os.Remove(metadataPath))
	require.Error(t, provider.Reload(context.Background()))

	// The previous snapshot stays in place.
	snapshot := provider.Snapshot()
	require.Equal(t, uint64(1), snapshot.Revision)
	require.Equal(t, 1, snapshot.Metadata.Len())
}
