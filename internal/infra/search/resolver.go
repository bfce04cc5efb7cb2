package search

import (
	"fmt"
	"strings"

	"bioshelf/internal/domain"
)

// Versions returns all container entries for a tool, newest first.
func Versions(snapshot domain.Snapshot, toolName string) ([]domain.ContainerEntry, error) {
	entries, ok := snapshot.Containers.Versions(toolName)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return entries, nil
}

// Latest returns the newest container entry for a tool.
func Latest(snapshot domain.Snapshot, toolName string) (domain.ContainerEntry, error) {
	entry, ok := snapshot.Containers.Latest(toolName)
	if !ok {
		return domain.ContainerEntry{}, domain.ErrNotFound
	}
	return entry, nil
}

// ResolveVersion picks the container entry for a build request. An empty
// version spec resolves to the latest entry. Otherwise the spec must match an
// entry's tag exactly or be a version-component prefix of it; among prefix
// matches the newest wins.
func ResolveVersion(snapshot domain.Snapshot, toolName, versionSpec string) (domain.ContainerEntry, error) {
	versionSpec = strings.TrimSpace(versionSpec)
	if versionSpec == "" {
		return Latest(snapshot, toolName)
	}

	entries, ok := snapshot.Containers.Versions(toolName)
	if !ok {
		return domain.ContainerEntry{}, domain.ErrNotFound
	}
	for _, entry := range entries {
		if entry.Tag == versionSpec {
			return entry, nil
		}
	}
	// Entries are newest first, so the first prefix match is the newest.
	for _, entry := range entries {
		if versionPrefixMatch(entry.Version.Version, versionSpec) {
			return entry, nil
		}
	}
	return domain.ContainerEntry{}, domain.E(
		domain.CodeVersionNotFound,
		"search.resolve",
		fmt.Sprintf("version %q not found for %q (available: %s)", versionSpec, toolName, availableTags(entries)),
		domain.ErrVersionNotFound,
	)
}

// versionPrefixMatch reports whether spec matches version on whole dotted
// components, so "1.2" matches "1.2.3" but not "1.21".
func versionPrefixMatch(version, spec string) bool {
	if version == spec {
		return true
	}
	return strings.HasPrefix(version, spec+".")
}

func availableTags(entries []domain.ContainerEntry) string {
	tags := make([]string, 0, len(entries))
	for _, entry := range entries {
		tags = append(tags, entry.Tag)
	}
	return strings.Join(tags, ", ")
}
