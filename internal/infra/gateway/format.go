package gateway

import (
	"fmt"
	"strings"

	"bioshelf/internal/domain"
)

// Text rendering for tool results. The output is structured plain text meant
// to be shown to the user verbatim, so sections keep a fixed layout.

const sectionRule = "======================================================================"
const subRule = "----------------------------------------------------------------------"

func renderToolInfo(info domain.ToolInfo) string {
	var b strings.Builder

	title := strings.ToUpper(info.Query)
	if info.Metadata != nil && info.Metadata.DisplayName() != "" {
		title = info.Metadata.DisplayName()
	}
	fmt.Fprintf(&b, "%s\n%s\n%s\n\n", sectionRule, title, sectionRule)

	if meta := info.Metadata; meta != nil {
		if meta.Description != "" {
			fmt.Fprintf(&b, "Description:\n   %s\n\n", meta.Description)
		}
		if meta.Homepage != "" {
			fmt.Fprintf(&b, "Homepage: %s\n", meta.Homepage)
		}
		if len(meta.Operations) > 0 {
			fmt.Fprintf(&b, "Operations: %s\n", strings.Join(meta.Operations, ", "))
		}
		if len(meta.Topics) > 0 {
			fmt.Fprintf(&b, "Topics: %s\n", strings.Join(meta.Topics, ", "))
		}
	} else {
		b.WriteString("No metadata available for this tool\n")
	}

	if latest, ok := info.Latest(); ok {
		fmt.Fprintf(&b, "\n%s\nAVAILABLE CONTAINERS (%d versions)\n%s\n\n", subRule, len(info.Versions), subRule)
		fmt.Fprintf(&b, "Most Recent Version: %s\n\n", latest.Tag)
		fmt.Fprintf(&b, "   Path: %s\n", latest.Path)
		if latest.Size > 0 {
			fmt.Fprintf(&b, "   Size: %s\n", formatSize(latest.Size))
		}
		b.WriteString("\n")

		fmt.Fprintf(&b, "%s\nUSAGE EXAMPLES\n%s\n\n", subRule, subRule)
		fmt.Fprintf(&b, "# Execute a command in the container\n")
		fmt.Fprintf(&b, "singularity exec %s \\\n  %s --help\n\n", latest.Path, latest.ToolName)
		fmt.Fprintf(&b, "# Run interactively\n")
		fmt.Fprintf(&b, "singularity shell %s\n", latest.Path)

		if len(info.Versions) > 1 {
			fmt.Fprintf(&b, "\n%s\nOTHER VERSIONS\n%s\n\n", subRule, subRule)
			shown := info.Versions
			if len(shown) > 3 {
				shown = shown[:3]
			}
			for i, entry := range shown {
				fmt.Fprintf(&b, "  %2d. %s\n      %s\n", i+1, entry.Tag, entry.Path)
			}
			if remaining := len(info.Versions) - len(shown); remaining > 0 {
				fmt.Fprintf(&b, "   ... and %d more versions\n", remaining)
			}
		}
	} else {
		b.WriteString("\nWARNING: No containers found in CVMFS for this tool\n")
		b.WriteString("   The tool may be available through other means or under a different name.\n")
	}

	fmt.Fprintf(&b, "\n%s\n", sectionRule)
	return b.String()
}

func renderSearchResults(query string, results []domain.SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No tools found matching %q. Try different keywords or browse available tools.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nTOOLS MATCHING: %s\n%s\n\n", sectionRule, query, sectionRule)
	fmt.Fprintf(&b, "Found %d matching tools.\n", len(results))
	for i, result := range results {
		fmt.Fprintf(&b, "%2d. %s (score %.1f)\n", i+1, result.Metadata.DisplayName(), result.Score)
		if result.Metadata.Description != "" {
			fmt.Fprintf(&b, "    %s\n", result.Metadata.Description)
		}
		if result.Latest != nil {
			fmt.Fprintf(&b, "    Latest container: %s\n", result.Latest.Tag)
		}
	}
	return b.String()
}

func renderVersions(toolName string, versions []domain.ContainerEntry) string {
	if len(versions) == 0 {
		return fmt.Sprintf("No containers found for %q", toolName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Container Versions for %s\n\n", toolName)
	fmt.Fprintf(&b, "Total versions: %d\n\n", len(versions))
	for _, entry := range versions {
		fmt.Fprintf(&b, "## Version %s\n", entry.Tag)
		fmt.Fprintf(&b, "- Path: `%s`\n", entry.Path)
		if entry.Size > 0 {
			fmt.Fprintf(&b, "- Size: %s\n", formatSize(entry.Size))
		}
		if !entry.MTime.IsZero() {
			fmt.Fprintf(&b, "- Modified: %s\n", entry.MTime.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderToolList(names []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Available Bioinformatics Tools (%d shown)\n\n", len(names))
	for _, name := range names {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	return b.String()
}

func renderBuildResult(result domain.ModuleBuildResult) string {
	action := "already up to date"
	if result.Written {
		action = "written"
	}
	return fmt.Sprintf("Module %s/%s %s: %s", result.ToolName, result.Tag, action, result.Path)
}

func renderBatchResults(results []domain.ModuleBuildResult) string {
	var b strings.Builder
	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
			fmt.Fprintf(&b, "FAIL %s", result.Request.ToolName)
			if result.Request.Version != "" {
				fmt.Fprintf(&b, "/%s", result.Request.Version)
			}
			fmt.Fprintf(&b, ": %s\n", result.Err)
			continue
		}
		fmt.Fprintf(&b, "OK   %s/%s -> %s\n", result.ToolName, result.Tag, result.Path)
	}
	fmt.Fprintf(&b, "\n%d modules requested, %d failed\n", len(results), failed)
	return b.String()
}

func formatSize(bytes int64) string {
	const mb = 1 << 20
	return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
}
