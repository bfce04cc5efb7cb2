package modulefile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bioshelf/internal/domain"
)

func buildSnapshot() domain.Snapshot {
	containers := []domain.ContainerEntry{
		{
			ToolName: "samtools",
			Tag:      "1.21--h50ea8bc_0",
			Version:  domain.ParseTag("1.21--h50ea8bc_0"),
			Path:     "/cvmfs/singularity.galaxyproject.org/all/samtools:1.21--h50ea8bc_0",
		},
		{
			ToolName: "samtools",
			Tag:      "1.17--h00cdaf9_0",
			Version:  domain.ParseTag("1.17--h00cdaf9_0"),
			Path:     "/cvmfs/singularity.galaxyproject.org/all/samtools:1.17--h00cdaf9_0",
		},
	}
	return domain.Snapshot{
		Metadata:   domain.NewMetadataIndex(nil),
		Containers: domain.NewContainerIndex(containers),
	}
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	builder := NewBuilder(t.TempDir(), zap.NewNop())
	builder.lookPath = func(string) (string, error) { return "/usr/bin/true", nil }
	return builder
}

func TestBuild_LatestByDefault(t *testing.T) {
	builder := newTestBuilder(t)

	result := builder.Build(buildSnapshot(), domain.ModuleBuildRequest{ToolName: "samtools"})
	require.NoError(t, result.Err)
	require.True(t, result.Written)
	require.Equal(t, "1.21--h50ea8bc_0", result.Tag)
	require.Equal(t, filepath.Join(builder.ModuleDir(), "samtools", "1.21--h50ea8bc_0.lua"), result.Path)

	content, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	require.Contains(t, string(content), "load(\"singularity\")")
	require.Contains(t, string(content), "/cvmfs/singularity.galaxyproject.org/all/samtools:1.21--h50ea8bc_0")
	require.Contains(t, string(content), `set_alias("samtools", container_exec("samtools"))`)
}

func TestBuild_Idempotent(t *testing.T) {
	builder := newTestBuilder(t)
	req := domain.ModuleBuildRequest{ToolName: "samtools", Version: "1.17"}

	first := builder.Build(buildSnapshot(), req)
	require.NoError(t, first.Err)
	require.True(t, first.Written)
	firstBytes, err := os.ReadFile(first.Path)
	require.NoError(t, err)

	second := builder.Build(buildSnapshot(), req)
	require.NoError(t, second.Err)
	require.False(t, second.Written)
	require.Equal(t, first.Path, second.Path)
	secondBytes, err := os.ReadFile(second.Path)
	require.NoError(t, err)
	require.Equal(t, firstBytes, secondBytes)
}

func TestBuild_VersionNotFound(t *testing.T) {
	builder := newTestBuilder(t)

	result := builder.Build(buildSnapshot(), domain.ModuleBuildRequest{ToolName: "samtools", Version: "9.99"})
	require.ErrorIs(t, result.Err, domain.ErrVersionNotFound)
	require.Empty(t, result.Path)
}

func TestBuild_UnknownTool(t *testing.T) {
	builder := newTestBuilder(t)

	result := builder.Build(buildSnapshot(), domain.ModuleBuildRequest{ToolName: "bwa"})
	require.ErrorIs(t, result.Err, domain.ErrNotFound)
}

func TestBuild_NoPartialFileOnFailure(t *testing.T) {
	builder := newTestBuilder(t)

	result := builder.Build(buildSnapshot(), domain.ModuleBuildRequest{ToolName: "samtools", Version: "9.99"})
	require.Error(t, result.Err)

	entries, err := os.ReadDir(builder.ModuleDir())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestBuild_NoTempFileLeftBehind(t *testing.T) {
	builder := newTestBuilder(t)

	result := builder.Build(buildSnapshot(), domain.ModuleBuildRequest{ToolName: "samtools"})
	require.NoError(t, result.Err)

	entries, err := os.ReadDir(filepath.Dir(result.Path))
	require.NoError(t, err)
	for _, entry := range entries {
		require.False(t, strings.HasPrefix(entry.Name(), "."), entry.Name())
	}
}

func TestCheckEnvironment_ProbesOnce(t *testing.T) {
	builder := NewBuilder(t.TempDir(), zap.NewNop())
	calls := 0
	builder.lookPath = func(string) (string, error) {
		calls++
		return "", errors.New("not found")
	}

	err := builder.CheckEnvironment()
	require.ErrorIs(t, err, domain.ErrExternalToolMissing)
	require.Equal(t, 2, calls)

	// Second check reuses the probe result.
	require.ErrorIs(t, builder.CheckEnvironment(), domain.ErrExternalToolMissing)
	require.Equal(t, 2, calls)
}

func TestRender_KnownMultiExecutableTools(t *testing.T) {
	content := Render(domain.ContainerEntry{
		ToolName: "blast",
		Tag:      "2.16.0--h66d330f_4",
		Version:  domain.ParseTag("2.16.0--h66d330f_4"),
		Path:     "/cvmfs/singularity.galaxyproject.org/all/blast:2.16.0--h66d330f_4",
	})
	for _, alias := range []string{"blastn", "blastp", "blastx", "tblastn", "tblastx", "makeblastdb"} {
		require.Contains(t, content, `set_alias("`+alias+`"`)
	}
}
