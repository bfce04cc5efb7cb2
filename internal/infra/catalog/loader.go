package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"bioshelf/internal/domain"
)

// Loader builds catalog snapshots from the metadata document and the CVMFS
// container namespace. A snapshot is immutable once returned.
type Loader struct {
	logger *zap.Logger
	cache  *Cache
	now    func() time.Time
}

type rawMetadataRecord struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Homepage      string   `yaml:"homepage"`
	Biotools      string   `yaml:"biotools"`
	Biocontainers string   `yaml:"biocontainers"`
	Operations    []string `yaml:"edam-operations"`
	Topics        []string `yaml:"edam-topics"`
}

// NewLoader constructs a loader. The cache is optional; when present it is
// refreshed after successful scans and used as a fallback when the container
// root is unreachable.
func NewLoader(cache *Cache, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		logger: logger.Named("catalog"),
		cache:  cache,
		now:    time.Now,
	}
}

// Load reads the metadata document and scans the container root. A missing or
// unreadable container root degrades to metadata-only operation with a
// warning; it never fails the load. Individual malformed metadata records are
// skipped with a warning.
func (l *Loader) Load(ctx context.Context, metadataPath, containerRoot string) (domain.Snapshot, error) {
	records, err := l.loadMetadata(metadataPath)
	if err != nil {
		return domain.Snapshot{}, err
	}

	entries, cacheInfo, degraded := l.loadContainers(containerRoot)

	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	snapshot := domain.Snapshot{
		Metadata:   domain.NewMetadataIndex(records),
		Containers: domain.NewContainerIndex(entries),
		Cache:      cacheInfo,
		Degraded:   degraded,
		LoadedAt:   l.now(),
	}
	l.logger.Info("catalog loaded",
		zap.Int("metadata_records", snapshot.Metadata.Len()),
		zap.Int("container_entries", snapshot.Containers.Len()),
		zap.Bool("degraded", degraded),
	)
	return snapshot, nil
}

func (l *Loader) loadMetadata(path string) ([]domain.ToolMetadata, error) {
	if path == "" {
		return nil, errors.New("metadata path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	// Decode the document as a node list first so a single malformed record
	// can be skipped without failing the whole load.
	var doc []yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}

	records := make([]domain.ToolMetadata, 0, len(doc))
	for i := range doc {
		var raw rawMetadataRecord
		if err := doc[i].Decode(&raw); err != nil {
			l.logger.Warn("skipping malformed metadata record",
				zap.Int("index", i),
				zap.Error(domain.E(domain.CodeMetadataInvalid, "catalog.load", "", err)),
			)
			continue
		}
		rec := normalizeMetadataRecord(raw)
		if rec.ID == "" && rec.Name == "" {
			l.logger.Warn("skipping metadata record without id or name", zap.Int("index", i))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func normalizeMetadataRecord(raw rawMetadataRecord) domain.ToolMetadata {
	var aliases []string
	for _, alias := range []string{raw.Biotools, raw.Biocontainers} {
		alias = strings.TrimSpace(alias)
		if alias != "" {
			aliases = append(aliases, alias)
		}
	}
	return domain.ToolMetadata{
		ID:          strings.TrimSpace(raw.ID),
		Name:        strings.TrimSpace(raw.Name),
		Aliases:     aliases,
		Description: strings.TrimSpace(raw.Description),
		Homepage:    strings.TrimSpace(raw.Homepage),
		Operations:  trimAll(raw.Operations),
		Topics:      trimAll(raw.Topics),
	}
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (l *Loader) loadContainers(root string) ([]domain.ContainerEntry, domain.CacheInfo, bool) {
	entries, err := scanContainerRoot(root)
	if err != nil {
		cause := domain.E(domain.CodeCatalogUnavailable, "catalog.load", "", err)
		l.logger.Warn("container root unavailable, name-only lookups remain",
			zap.String("root", root),
			zap.Error(cause),
		)
		if l.cache != nil {
			if cached, info, cacheErr := l.cache.Load(); cacheErr == nil && len(cached) > 0 {
				l.logger.Info("serving container entries from scan cache",
					zap.Int("entries", len(cached)),
					zap.Time("generated_at", info.GeneratedAt),
				)
				return cached, info, true
			}
		}
		return nil, domain.CacheInfo{ContainerRoot: root}, true
	}

	info := domain.CacheInfo{
		GeneratedAt:   l.now(),
		ContainerRoot: root,
		EntryCount:    len(entries),
	}
	if l.cache != nil {
		if err := l.cache.Store(entries, info); err != nil {
			l.logger.Warn("scan cache refresh failed", zap.Error(err))
		}
	}
	return entries, info, false
}

// scanContainerRoot lists `<tool_name>:<tag>` entries under the root. Names
// without a tag separator are ignored; they are not container images.
func scanContainerRoot(root string) ([]domain.ContainerEntry, error) {
	if root == "" {
		return nil, errors.New("container root is required")
	}
	dirents, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.ContainerEntry, 0, len(dirents))
	for _, dirent := range dirents {
		name := dirent.Name()
		tool, tag, found := strings.Cut(name, ":")
		if !found || tool == "" || tag == "" {
			continue
		}
		entry := domain.ContainerEntry{
			ToolName: tool,
			Tag:      tag,
			Version:  domain.ParseTag(tag),
			Path:     filepath.Join(root, name),
		}
		if info, err := dirent.Info(); err == nil {
			entry.Size = info.Size()
			entry.MTime = info.ModTime()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
