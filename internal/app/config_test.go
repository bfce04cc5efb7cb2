package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"bioshelf/internal/domain"
)

func TestLoadConfig_EmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, domain.DefaultContainerRoot, cfg.ContainerRoot)
	require.Equal(t, domain.DefaultModuleDir, cfg.ModuleDir)
	require.Equal(t, domain.DefaultSearchLimit, cfg.SearchLimit)
	require.Equal(t, domain.DefaultListLimit, cfg.ListLimit)
	require.Equal(t, domain.DefaultBatchConcurrency, cfg.BatchConcurrency)
	require.True(t, cfg.WatchMetadata)
	require.False(t, cfg.Observability.Enabled)
	require.Equal(t, domain.DefaultNameWeight, cfg.Weights.Name)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
metadataPath: /data/metadata.yaml
containerRoot: /cvmfs/test.example.org/all
cachePath: /var/lib/bioshelf/scan.db
moduleDir: /opt/modules
watchMetadata: false
searchLimit: 10
batchConcurrency: 8
weights:
  description: 0.5
observability:
  enabled: true
  listenAddress: 127.0.0.1:9999
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/data/metadata.yaml", cfg.MetadataPath)
	require.Equal(t, "/cvmfs/test.example.org/all", cfg.ContainerRoot)
	require.Equal(t, "/var/lib/bioshelf/scan.db", cfg.CachePath)
	require.Equal(t, "/opt/modules", cfg.ModuleDir)
	require.False(t, cfg.WatchMetadata)
	require.Equal(t, 10, cfg.SearchLimit)
	require.Equal(t, 8, cfg.BatchConcurrency)
	require.Equal(t, 0.5, cfg.Weights.Description)
	require.Equal(t, domain.DefaultNameWeight, cfg.Weights.Name)
	require.True(t, cfg.Observability.Enabled)
	require.Equal(t, "127.0.0.1:9999", cfg.Observability.ListenAddress)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
searchLimit: 0
batchConcurrency: -1
weights:
  name: -2
`), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "searchLimit must be > 0")
	require.Contains(t, err.Error(), "batchConcurrency must be > 0")
	require.Contains(t, err.Error(), "weights must be >= 0")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
