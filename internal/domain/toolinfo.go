package domain

import (
	"strings"
	"time"
)

// ToolInfo is the combined answer to a name lookup: metadata and container
// versions are independent sources, so either may be absent. A lookup is
// NotFound only when both are.
type ToolInfo struct {
	Query    string
	Metadata *ToolMetadata
	Versions []ContainerEntry
}

// Latest returns the newest container entry, if any.
func (i ToolInfo) Latest() (ContainerEntry, bool) {
	if len(i.Versions) == 0 {
		return ContainerEntry{}, false
	}
	return i.Versions[0], true
}

// CatalogInfo is the read-only summary of the loaded snapshot.
type CatalogInfo struct {
	GeneratedAt   time.Time
	ContainerRoot string
	EntryCount    int
	Revision      uint64
	LoadedAt      time.Time
	Degraded      bool
}

// ParseBuildSpec splits a `tool[/version]` spec into a build request.
func ParseBuildSpec(spec string) ModuleBuildRequest {
	tool, version, _ := strings.Cut(strings.TrimSpace(spec), "/")
	return ModuleBuildRequest{
		ToolName: tool,
		Version:  version,
	}
}
