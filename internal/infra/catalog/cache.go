package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"bioshelf/internal/domain"
)

// Cache persists the most recent container namespace scan so lookups keep
// working when the CVMFS mount is temporarily unreachable.
type Cache struct {
	mu     sync.RWMutex
	db     *bolt.DB
	path   string
	closed bool
}

var (
	bucketEntries = []byte("entries")
	bucketMeta    = []byte("meta")

	metaGeneratedAt   = []byte("generated_at")
	metaContainerRoot = []byte("container_root")

	ErrCacheClosed = errors.New("scan cache is closed")
	ErrCacheEmpty  = errors.New("scan cache is empty")
)

type cachedEntry struct {
	ToolName string    `json:"tool_name"`
	Tag      string    `json:"tag"`
	Path     string    `json:"path"`
	Size     int64     `json:"size_bytes"`
	MTime    time.Time `json:"mtime"`
}

// OpenCache opens (or creates) the scan cache database.
func OpenCache(path string) (*Cache, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("cache path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache dir: %w", err)
	}
	options := &bolt.Options{Timeout: time.Second}
	db, err := bolt.Open(trimmed, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Cache{db: db, path: trimmed}, nil
}

func ensureSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketEntries, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("ensure bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}

// Store replaces the cached scan with the given entries and metadata.
func (c *Cache) Store(entries []domain.ContainerEntry, info domain.CacheInfo) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrCacheClosed
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketEntries); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		bucket, err := tx.CreateBucket(bucketEntries)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			data, err := json.Marshal(cachedEntry{
				ToolName: entry.ToolName,
				Tag:      entry.Tag,
				Path:     entry.Path,
				Size:     entry.Size,
				MTime:    entry.MTime,
			})
			if err != nil {
				return err
			}
			key := entry.ToolName + ":" + entry.Tag
			if err := bucket.Put([]byte(key), data); err != nil {
				return err
			}
		}

		meta := tx.Bucket(bucketMeta)
		generated, err := info.GeneratedAt.MarshalText()
		if err != nil {
			return err
		}
		if err := meta.Put(metaGeneratedAt, generated); err != nil {
			return err
		}
		return meta.Put(metaContainerRoot, []byte(info.ContainerRoot))
	})
}

// Load returns the cached entries and scan metadata.
func (c *Cache) Load() ([]domain.ContainerEntry, domain.CacheInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, domain.CacheInfo{}, ErrCacheClosed
	}

	var entries []domain.ContainerEntry
	var info domain.CacheInfo
	err := c.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketEntries)
		if bucket == nil {
			return ErrCacheEmpty
		}
		if err := bucket.ForEach(func(_, value []byte) error {
			var cached cachedEntry
			if err := json.Unmarshal(value, &cached); err != nil {
				return err
			}
			entries = append(entries, domain.ContainerEntry{
				ToolName: cached.ToolName,
				Tag:      cached.Tag,
				Version:  domain.ParseTag(cached.Tag),
				Path:     cached.Path,
				Size:     cached.Size,
				MTime:    cached.MTime,
			})
			return nil
		}); err != nil {
			return err
		}

		meta := tx.Bucket(bucketMeta)
		if raw := meta.Get(metaGeneratedAt); raw != nil {
			if err := info.GeneratedAt.UnmarshalText(raw); err != nil {
				return err
			}
		}
		info.ContainerRoot = string(meta.Get(metaContainerRoot))
		return nil
	})
	if err != nil {
		return nil, domain.CacheInfo{}, err
	}
	if len(entries) == 0 {
		return nil, domain.CacheInfo{}, ErrCacheEmpty
	}
	info.EntryCount = len(entries)
	return entries, info, nil
}
