package modulefile

import (
	"fmt"
	"sort"
	"strings"

	"bioshelf/internal/domain"
)

// knownExecutables lists extra binaries shipped by containers whose image
// name does not match the executable set. The primary alias always uses the
// tool name itself.
var knownExecutables = map[string][]string{
	"blast": {
		"blastn", "blastp", "blastx", "tblastn", "tblastx",
		"makeblastdb", "blast_formatter",
	},
}

// Render produces the Lmod module definition for one container entry. Output
// is a pure function of the entry, which is what makes regeneration
// idempotent.
func Render(entry domain.ContainerEntry) string {
	tool := domain.NormalizeToolName(entry.ToolName)
	var b strings.Builder

	fmt.Fprintf(&b, "help([[%s %s from CVMFS\n\n", titleCase(tool), entry.Tag)
	fmt.Fprintf(&b, "This module provides access to %s version %s via Singularity container.\n", tool, entry.Tag)
	b.WriteString("All executables from the container are available through aliases.\n\n")
	fmt.Fprintf(&b, "Container path: %s\n]])\n\n", entry.Path)

	b.WriteString("load(\"singularity\")\n\n")
	fmt.Fprintf(&b, "local containerPath = \"%s\"\n\n", entry.Path)
	b.WriteString("local function container_exec(cmd)\n")
	b.WriteString("    return \"singularity exec \" .. containerPath .. \" \" .. cmd\n")
	b.WriteString("end\n\n")

	fmt.Fprintf(&b, "set_alias(\"%s\", container_exec(\"%s\"))\n", tool, tool)
	for _, extra := range extraExecutables(tool) {
		fmt.Fprintf(&b, "set_alias(\"%s\", container_exec(\"%s\"))\n", extra, extra)
	}
	fmt.Fprintf(&b, "set_alias(\"%s_exec\", container_exec(\"$*\"))\n", tool)

	return b.String()
}

func extraExecutables(tool string) []string {
	extras, ok := knownExecutables[tool]
	if !ok {
		return nil
	}
	sorted := make([]string, len(extras))
	copy(sorted, extras)
	sort.Strings(sorted)
	return sorted
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
