package main

import (
	"encoding/json"
	"fmt"
	"time"

	"bioshelf/internal/domain"
)

func writeJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func entryJSON(entry domain.ContainerEntry) map[string]any {
	payload := map[string]any{
		"tool_name": entry.ToolName,
		"tag":       entry.Tag,
		"path":      entry.Path,
	}
	if entry.Size > 0 {
		payload["size_bytes"] = entry.Size
	}
	if !entry.MTime.IsZero() {
		payload["mtime"] = entry.MTime.UTC().Format(time.RFC3339)
	}
	return payload
}

func printToolInfo(info domain.ToolInfo, jsonOutput bool) error {
	if jsonOutput {
		payload := map[string]any{
			"query":           info.Query,
			"container_count": len(info.Versions),
		}
		if info.Metadata != nil {
			payload["metadata"] = map[string]any{
				"id":          info.Metadata.ID,
				"name":        info.Metadata.Name,
				"description": info.Metadata.Description,
				"homepage":    info.Metadata.Homepage,
				"operations":  info.Metadata.Operations,
				"topics":      info.Metadata.Topics,
			}
		}
		versions := make([]map[string]any, 0, len(info.Versions))
		for _, entry := range info.Versions {
			versions = append(versions, entryJSON(entry))
		}
		payload["containers"] = versions
		return writeJSON(payload)
	}

	if meta := info.Metadata; meta != nil {
		fmt.Println(meta.DisplayName())
		if meta.Description != "" {
			fmt.Printf("  %s\n", meta.Description)
		}
		if meta.Homepage != "" {
			fmt.Printf("  homepage: %s\n", meta.Homepage)
		}
	} else {
		fmt.Printf("%s (no metadata)\n", info.Query)
	}
	if latest, ok := info.Latest(); ok {
		fmt.Printf("  latest: %s\n", latest.Tag)
		fmt.Printf("  path:   %s\n", latest.Path)
		fmt.Printf("  %d container versions\n", len(info.Versions))
	} else {
		fmt.Println("  no containers found")
	}
	return nil
}

func printSearchResults(results []domain.SearchResult, jsonOutput bool) error {
	if jsonOutput {
		payload := make([]map[string]any, 0, len(results))
		for _, result := range results {
			entry := map[string]any{
				"tool_name": result.ToolName,
				"name":      result.Metadata.DisplayName(),
				"score":     result.Score,
			}
			if result.Latest != nil {
				entry["latest"] = result.Latest.Tag
			}
			payload = append(payload, entry)
		}
		return writeJSON(payload)
	}

	if len(results) == 0 {
		fmt.Println("no matching tools")
		return nil
	}
	for i, result := range results {
		fmt.Printf("%2d. %-24s %.1f", i+1, result.Metadata.DisplayName(), result.Score)
		if result.Latest != nil {
			fmt.Printf("  (latest %s)", result.Latest.Tag)
		}
		fmt.Println()
	}
	return nil
}

func printVersions(versions []domain.ContainerEntry, jsonOutput bool) error {
	if jsonOutput {
		payload := make([]map[string]any, 0, len(versions))
		for _, entry := range versions {
			payload = append(payload, entryJSON(entry))
		}
		return writeJSON(payload)
	}

	for _, entry := range versions {
		fmt.Printf("%-32s %s\n", entry.Tag, entry.Path)
	}
	return nil
}

func printToolList(names []string, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(names)
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func printBuildResult(result domain.ModuleBuildResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(map[string]any{
			"tool_name": result.ToolName,
			"tag":       result.Tag,
			"path":      result.Path,
			"written":   result.Written,
		})
	}

	action := "up to date"
	if result.Written {
		action = "written"
	}
	fmt.Printf("%s %s/%s -> %s\n", action, result.ToolName, result.Tag, result.Path)
	return nil
}

func printBatchResults(results []domain.ModuleBuildResult, jsonOutput bool) error {
	failed := 0
	if jsonOutput {
		payload := make([]map[string]any, 0, len(results))
		for _, result := range results {
			entry := map[string]any{
				"tool_name": result.Request.ToolName,
				"version":   result.Request.Version,
				"written":   result.Written,
			}
			if result.Err != nil {
				failed++
				entry["error"] = result.Err.Error()
			} else {
				entry["tag"] = result.Tag
				entry["path"] = result.Path
			}
			payload = append(payload, entry)
		}
		if err := writeJSON(payload); err != nil {
			return err
		}
	} else {
		for _, result := range results {
			if result.Err != nil {
				failed++
				fmt.Printf("FAIL %s: %s\n", result.Request.ToolName, result.Err)
				continue
			}
			fmt.Printf("OK   %s/%s -> %s\n", result.ToolName, result.Tag, result.Path)
		}
		fmt.Printf("%d requested, %d failed\n", len(results), failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d modules failed", failed, len(results))
	}
	return nil
}

func printCacheInfo(info domain.CatalogInfo, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(map[string]any{
			"generated_at": formatTime(info.GeneratedAt),
			"cvmfs_root":   info.ContainerRoot,
			"entry_count":  info.EntryCount,
			"revision":     info.Revision,
			"loaded_at":    formatTime(info.LoadedAt),
			"degraded":     info.Degraded,
		})
	}

	fmt.Printf("container root: %s\n", info.ContainerRoot)
	fmt.Printf("entries:        %d\n", info.EntryCount)
	fmt.Printf("generated at:   %s\n", formatTime(info.GeneratedAt))
	fmt.Printf("degraded:       %v\n", info.Degraded)
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
