package search

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bioshelf/internal/domain"
)

func testSnapshot() domain.Snapshot {
	metadata := []domain.ToolMetadata{
		{
			ID:          "fastqc",
			Name:        "FastQC",
			Aliases:     []string{"fast-qc"},
			Description: "A quality control tool for high throughput sequence data.",
			Operations:  []string{"Sequence quality control"},
			Topics:      []string{"Sequencing"},
		},
		{
			ID:          "samtools",
			Name:        "SAMtools",
			Description: "Utilities for manipulating alignments in the SAM format.",
			Operations:  []string{"Sequence alignment analysis", "Formatting"},
			Topics:      []string{"Sequence analysis"},
		},
		{
			ID:          "multiqc",
			Name:        "MultiQC",
			Description: "Aggregate results from bioinformatics analyses into a single report.",
			Operations:  []string{"Sequence quality control", "Validation"},
		},
		{
			ID: "spades",
			// No description, operations or topics: must never error and
			// never match anything.
		},
	}
	containers := []domain.ContainerEntry{
		{ToolName: "fastqc", Tag: "0.12.1--hdfd78af_0", Version: domain.ParseTag("0.12.1--hdfd78af_0")},
		{ToolName: "samtools", Tag: "1.21--h50ea8bc_0", Version: domain.ParseTag("1.21--h50ea8bc_0")},
		{ToolName: "samtools", Tag: "1.17--h00cdaf9_0", Version: domain.ParseTag("1.17--h00cdaf9_0")},
	}
	return domain.Snapshot{
		Metadata:   domain.NewMetadataIndex(metadata),
		Containers: domain.NewContainerIndex(containers),
	}
}

func newTestEngine() *Engine {
	return NewEngine(DefaultWeights(), zap.NewNop())
}

func TestFind_CaseAndSeparatorInsensitive(t *testing.T) {
	engine := newTestEngine()
	snapshot := testSnapshot()

	for _, query := range []string{"FastQC", "fastqc", "fast_qc", "fast-qc"} {
		meta, err := engine.Find(snapshot, query)
		require.NoError(t, err, query)
		require.Equal(t, "fastqc", meta.ID, query)
	}
}

func TestFind_SubstringPrefersShortest(t *testing.T) {
	engine := newTestEngine()
	snapshot := testSnapshot()

	// "qc" is a substring of both fastqc and multiqc keys; the shortest
	// matching key wins deterministically.
	meta, err := engine.Find(snapshot, "tqc")
	require.NoError(t, err)
	require.Equal(t, "fastqc", meta.ID)
}

func TestFind_NotFound(t *testing.T) {
	engine := newTestEngine()
	_, err := engine.Find(testSnapshot(), "bowtie2")
	require.ErrorIs(t, err, domain.ErrNotFound)

	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	require.Equal(t, domain.CodeNotFound, code)
}

func TestSearch_RankedAndLimited(t *testing.T) {
	engine := newTestEngine()
	snapshot := testSnapshot()

	results := engine.Search(snapshot, "sequence quality control", 2)
	require.Len(t, results, 2)
	for _, result := range results {
		require.Positive(t, result.Score)
	}
	require.GreaterOrEqual(t, results[0].Score, results[1].Score)

	// Operations hits outrank description-only hits.
	require.Equal(t, "FastQC", results[0].ToolName)
	require.NotNil(t, results[0].Latest)
	require.Equal(t, "0.12.1--hdfd78af_0", results[0].Latest.Tag)
}

func TestSearch_ZeroScoreExcluded(t *testing.T) {
	engine := newTestEngine()
	results := engine.Search(testSnapshot(), "phylogenetics", 10)
	require.Empty(t, results)
}

func TestSearch_RemovingOnlyMatchingTermRemovesResult(t *testing.T) {
	engine := newTestEngine()
	snapshot := testSnapshot()

	withTerm := engine.Search(snapshot, "aggregate report", 10)
	require.Len(t, withTerm, 1)
	require.Equal(t, "MultiQC", withTerm[0].ToolName)

	// "report" is MultiQC's only matching term here; stop words alone no
	// longer match it.
	withoutTerm := engine.Search(snapshot, "aggregate", 10)
	require.Len(t, withoutTerm, 1)

	none := engine.Search(snapshot, "analyse my data", 10)
	require.Empty(t, none)
}

func TestSearch_TieBreakByNameAscending(t *testing.T) {
	snapshot := domain.Snapshot{
		Metadata: domain.NewMetadataIndex([]domain.ToolMetadata{
			{ID: "beta", Description: "assembly toolkit"},
			{ID: "alpha", Description: "assembly toolkit"},
		}),
		Containers: domain.NewContainerIndex(nil),
	}
	engine := newTestEngine()

	results := engine.Search(snapshot, "assembly toolkit", 10)
	require.Len(t, results, 2)
	require.Equal(t, "alpha", results[0].ToolName)
	require.Equal(t, "beta", results[1].ToolName)
}

func TestTokenize_DropsStopWordsAndPunctuation(t *testing.T) {
	tokens := Tokenize("What can I use to generate count data?")
	require.Equal(t, []string{"count"}, tokens)
}
