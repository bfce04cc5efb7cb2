package domain

import (
	"sort"
	"strings"
	"time"
)

// ToolMetadata describes one tool from the metadata document. Immutable once
// loaded; absent fields stay zero-valued and contribute nothing to scoring.
type ToolMetadata struct {
	ID          string
	Name        string
	Aliases     []string
	Description string
	Homepage    string
	Operations  []string
	Topics      []string
}

// DisplayName returns the human-facing name, falling back to the id.
func (m ToolMetadata) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// ContainerEntry is one container image listed under the CVMFS namespace.
type ContainerEntry struct {
	ToolName string
	Tag      string
	Version  VersionRecord
	Path     string
	Size     int64
	MTime    time.Time
}

// MetadataIndex maps normalized tool names and aliases to metadata records.
type MetadataIndex struct {
	records []ToolMetadata
	byAlias map[string]int
}

// ContainerIndex maps a normalized tool name to its entries, newest first.
// Built once at load and shared read-only across all queries.
type ContainerIndex struct {
	byTool map[string][]ContainerEntry
}

// CacheInfo summarizes the loaded container index.
type CacheInfo struct {
	GeneratedAt   time.Time
	ContainerRoot string
	EntryCount    int
}

// Snapshot is one immutable catalog load. Every query operation receives a
// snapshot explicitly; refreshing produces a new snapshot with a higher
// revision rather than mutating this one.
type Snapshot struct {
	Metadata   MetadataIndex
	Containers ContainerIndex
	Cache      CacheInfo
	Degraded   bool
	Revision   uint64
	LoadedAt   time.Time
}

// SearchResult is one ranked hit from a free-text query.
type SearchResult struct {
	ToolName string
	Score    float64
	Metadata ToolMetadata
	Latest   *ContainerEntry
}

// ModuleBuildRequest names a tool plus an optional version spec. An empty
// Version resolves to the latest container.
type ModuleBuildRequest struct {
	ToolName string
	Version  string
}

// ModuleBuildResult reports one module generation outcome.
type ModuleBuildResult struct {
	Request  ModuleBuildRequest
	ToolName string
	Tag      string
	Path     string
	Written  bool
	Err      error
}

// NormalizeToolName lowercases a tool name and collapses the hyphen and
// underscore separators, which real container names use interchangeably.
func NormalizeToolName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, "-", "_")
}

// NewMetadataIndex indexes records by normalized id, name and aliases. The
// first record to claim a normalized key wins.
func NewMetadataIndex(records []ToolMetadata) MetadataIndex {
	byAlias := make(map[string]int)
	for i, rec := range records {
		for _, variant := range metadataVariants(rec) {
			key := NormalizeToolName(variant)
			if key == "" {
				continue
			}
			if _, exists := byAlias[key]; !exists {
				byAlias[key] = i
			}
		}
	}
	return MetadataIndex{records: records, byAlias: byAlias}
}

func metadataVariants(rec ToolMetadata) []string {
	variants := make([]string, 0, 2+len(rec.Aliases))
	variants = append(variants, rec.ID, rec.Name)
	variants = append(variants, rec.Aliases...)
	return variants
}

// Lookup resolves an exact normalized match against id, name or any alias.
func (idx MetadataIndex) Lookup(name string) (ToolMetadata, bool) {
	i, ok := idx.byAlias[NormalizeToolName(name)]
	if !ok {
		return ToolMetadata{}, false
	}
	return idx.records[i], true
}

// Records returns all metadata records in load order.
func (idx MetadataIndex) Records() []ToolMetadata {
	return idx.records
}

// Keys returns every normalized alias key in sorted order.
func (idx MetadataIndex) Keys() []string {
	keys := make([]string, 0, len(idx.byAlias))
	for key := range idx.byAlias {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len reports the number of metadata records.
func (idx MetadataIndex) Len() int {
	return len(idx.records)
}

// NewContainerIndex groups entries by normalized tool name and sorts each
// group newest first. Sorting is a pure function of entry contents, so the
// result does not depend on input order.
func NewContainerIndex(entries []ContainerEntry) ContainerIndex {
	byTool := make(map[string][]ContainerEntry)
	for _, entry := range entries {
		key := NormalizeToolName(entry.ToolName)
		if key == "" {
			continue
		}
		byTool[key] = append(byTool[key], entry)
	}
	for key := range byTool {
		SortEntriesNewestFirst(byTool[key])
	}
	return ContainerIndex{byTool: byTool}
}

// Versions returns the entries for a tool, newest first.
func (idx ContainerIndex) Versions(name string) ([]ContainerEntry, bool) {
	entries, ok := idx.byTool[NormalizeToolName(name)]
	return entries, ok && len(entries) > 0
}

// Latest returns the newest entry for a tool.
func (idx ContainerIndex) Latest(name string) (ContainerEntry, bool) {
	entries, ok := idx.Versions(name)
	if !ok {
		return ContainerEntry{}, false
	}
	return entries[0], true
}

// ToolNames returns every normalized tool name with at least one entry.
func (idx ContainerIndex) ToolNames() []string {
	names := make([]string, 0, len(idx.byTool))
	for name := range idx.byTool {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the total number of container entries.
func (idx ContainerIndex) Len() int {
	total := 0
	for _, entries := range idx.byTool {
		total += len(entries)
	}
	return total
}
