package modulefile

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"bioshelf/internal/domain"
	"bioshelf/internal/infra/search"
)

// Builder generates Lmod module definition files for resolved containers.
// Generation is idempotent: identical inputs render byte-identical content,
// and files land via write-then-rename so a partial write is never visible at
// the final path. The builder never loads or executes a generated module.
type Builder struct {
	moduleDir string
	logger    *zap.Logger

	probeOnce sync.Once
	probeErr  error
	lookPath  func(string) (string, error)
}

func NewBuilder(moduleDir string, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		moduleDir: moduleDir,
		logger:    logger.Named("modulefile"),
		lookPath:  exec.LookPath,
	}
}

// ModuleDir returns the root of the generated module tree.
func (b *Builder) ModuleDir() string {
	return b.moduleDir
}

// CheckEnvironment probes once for the module system and container runtime.
// Absence is surfaced as a warning; no core operation strictly requires
// either binary, so the error is informational unless a caller opts to treat
// it otherwise.
func (b *Builder) CheckEnvironment() error {
	b.probeOnce.Do(func() {
		var missing []string
		for _, binary := range []string{"module", "singularity"} {
			if _, err := b.lookPath(binary); err != nil {
				missing = append(missing, binary)
			}
		}
		if len(missing) > 0 {
			b.probeErr = domain.E(
				domain.CodeExternalToolMissing,
				"modulefile.check",
				fmt.Sprintf("not on PATH: %v", missing),
				domain.ErrExternalToolMissing,
			)
			b.logger.Warn("module system or container runtime missing; generated modules cannot be loaded here",
				zap.Strings("missing", missing),
			)
		}
	})
	return b.probeErr
}

// Build resolves the request against the snapshot and writes the module file.
// The returned result always carries the request; on failure Err is set and
// no partial file remains observable.
func (b *Builder) Build(snapshot domain.Snapshot, req domain.ModuleBuildRequest) domain.ModuleBuildResult {
	result := domain.ModuleBuildResult{Request: req}

	tool := domain.NormalizeToolName(req.ToolName)
	if tool == "" {
		result.Err = domain.E(domain.CodeInvalidArgument, "modulefile.build", "tool name is required", nil)
		return result
	}
	_ = b.CheckEnvironment()

	entry, err := search.ResolveVersion(snapshot, tool, req.Version)
	if err != nil {
		result.Err = err
		return result
	}
	result.ToolName = domain.NormalizeToolName(entry.ToolName)
	result.Tag = entry.Tag

	content := Render(entry)
	path := b.modulePath(result.ToolName, entry.Tag)
	written, err := writeAtomic(path, []byte(content))
	if err != nil {
		result.Err = domain.E(domain.CodeInternal, "modulefile.build", "", err)
		return result
	}
	result.Path = path
	result.Written = written

	if written {
		b.logger.Info("module file written",
			zap.String("tool", result.ToolName),
			zap.String("tag", entry.Tag),
			zap.String("path", path),
		)
	}
	return result
}

// modulePath derives the output path deterministically from tool and tag.
func (b *Builder) modulePath(tool, tag string) string {
	return filepath.Join(b.moduleDir, tool, tag+".lua")
}

// writeAtomic assembles content at a temporary path in the target directory
// and renames it into place. Rename within one directory is atomic, so
// readers observe either the old file or the complete new one.
func writeAtomic(path string, content []byte) (bool, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("ensure module dir: %w", err)
	}

	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, content) {
		return false, nil
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return false, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("write module file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("close module file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return false, fmt.Errorf("place module file: %w", err)
	}
	return true, nil
}
