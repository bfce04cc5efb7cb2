package catalog

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"bioshelf/internal/domain"
	infracatalog "bioshelf/internal/infra/catalog"
)

const defaultReloadDebounce = 500 * time.Millisecond

// ReloadSource identifies what triggered a snapshot refresh.
type ReloadSource string

const (
	ReloadSourceInitial ReloadSource = "initial"
	ReloadSourceManual  ReloadSource = "manual"
	ReloadSourceWatch   ReloadSource = "watch"
)

// Provider owns the current catalog snapshot. Loading happens once per
// session (plus explicit or watch-triggered reloads); the snapshot itself is
// immutable and safe for unbounded concurrent reads with no locking.
type Provider struct {
	logger        *zap.Logger
	loader        *infracatalog.Loader
	metadataPath  string
	containerRoot string
	onReload      func(source ReloadSource, snapshot domain.Snapshot)

	state    atomic.Value
	revision atomic.Uint64

	reloadMu  sync.Mutex
	watchOnce sync.Once
}

// NewProvider performs the initial load and returns a provider holding the
// resulting snapshot.
func NewProvider(ctx context.Context, loader *infracatalog.Loader, metadataPath, containerRoot string, logger *zap.Logger) (*Provider, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	provider := &Provider{
		logger:        logger.Named("catalog_provider"),
		loader:        loader,
		metadataPath:  metadataPath,
		containerRoot: containerRoot,
	}
	snapshot, err := loader.Load(ctx, metadataPath, containerRoot)
	if err != nil {
		return nil, err
	}
	snapshot.Revision = provider.revision.Add(1)
	provider.state.Store(snapshot)
	if provider.onReload != nil {
		provider.onReload(ReloadSourceInitial, snapshot)
	}
	return provider, nil
}

// OnReload registers a callback invoked after every successful reload. It
// must be set before Watch starts.
func (p *Provider) OnReload(fn func(source ReloadSource, snapshot domain.Snapshot)) {
	p.onReload = fn
	if fn != nil {
		fn(ReloadSourceInitial, p.Snapshot())
	}
}

// Snapshot returns the current immutable snapshot.
func (p *Provider) Snapshot() domain.Snapshot {
	return p.state.Load().(domain.Snapshot)
}

// Reload forces a fresh load, replacing the snapshot on success.
func (p *Provider) Reload(ctx context.Context) error {
	return p.reload(ctx, ReloadSourceManual)
}

func (p *Provider) reload(ctx context.Context, source ReloadSource) error {
	p.reloadMu.Lock()
	defer p.reloadMu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	snapshot, err := p.loader.Load(ctx, p.metadataPath, p.containerRoot)
	if err != nil {
		return err
	}
	snapshot.Revision = p.revision.Add(1)
	p.state.Store(snapshot)
	p.logger.Info("catalog snapshot replaced",
		zap.Uint64("revision", snapshot.Revision),
		zap.String("source", string(source)),
	)
	if p.onReload != nil {
		p.onReload(source, snapshot)
	}
	return nil
}

// Watch reloads the catalog when the metadata document changes on disk.
// Events are debounced because editors produce bursts of writes. Watching
// starts at most once; the goroutine exits with the context.
func (p *Provider) Watch(ctx context.Context) {
	p.watchOnce.Do(func() {
		go p.runWatcher(ctx)
	})
}

func (p *Provider) runWatcher(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.logger.Warn("metadata watcher failed", zap.Error(err))
		return
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files by rename,
	// which drops a direct file watch.
	if err := watcher.Add(filepath.Dir(p.metadataPath)); err != nil {
		p.logger.Warn("metadata watcher add failed",
			zap.String("path", p.metadataPath),
			zap.Error(err),
		)
		return
	}

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-watcher.Errors:
			if err != nil {
				p.logger.Warn("metadata watcher error", zap.Error(err))
			}
		case event := <-watcher.Events:
			if filepath.Clean(event.Name) != filepath.Clean(p.metadataPath) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(defaultReloadDebounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(defaultReloadDebounce)
		case <-timerChan(timer):
			timer = nil
			if err := p.reload(ctx, ReloadSourceWatch); err != nil {
				p.logger.Warn("metadata reload failed", zap.Error(err))
			}
		}
	}
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}
