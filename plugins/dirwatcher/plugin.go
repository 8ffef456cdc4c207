// Package dirwatcher reloads the active save when its directory changes on
// disk, for example when the game writes a quicksave over it.
package dirwatcher

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/savesync/internal/adapters/fs"
	"github.com/bft-labs/savesync/pkg/lifecycle"
	"github.com/bft-labs/savesync/pkg/log"
	"github.com/bft-labs/savesync/pkg/savesync"
)

// Config holds configuration options for the directory watcher.
type Config struct {
	// DebounceDelay is how long the directory must stay quiet before it
	// is re-read. Default: 250 milliseconds
	DebounceDelay time.Duration

	// RetryInterval is the first delay before re-reading a directory that
	// failed to parse. Later retries back off exponentially.
	// Default: 500 milliseconds
	RetryInterval time.Duration

	// MaxRetries bounds the retries after a parse failure.
	// Default: 5
	MaxRetries int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 250 * time.Millisecond,
		RetryInterval: 500 * time.Millisecond,
		MaxRetries:    5,
	}
}

// Plugin watches the directory of the active save.
type Plugin struct {
	cfg Config

	mu     sync.Mutex
	host   savesync.Host
	logger log.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a directory watcher. Zero fields of cfg take their defaults;
// a negative MaxRetries disables retries.
func New(cfg Config) *Plugin {
	def := DefaultConfig()
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = def.DebounceDelay
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = def.RetryInterval
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Plugin{cfg: cfg, logger: log.NewNoopLogger()}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "dirwatcher"
}

// Initialize starts watching. The watched directory follows the active
// save.
func (p *Plugin) Initialize(ctx context.Context, cfg savesync.PluginConfig) error {
	if cfg.Host == nil {
		return errors.New("dirwatcher: no host")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.host = cfg.Host
	if cfg.Logger != nil {
		p.logger = cfg.Logger
	}
	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	sub := cfg.Host.Subscribe()

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher, sub)

	p.logger.Info("directory watcher initialized",
		log.Duration("debounce", p.cfg.DebounceDelay),
		log.Int("max_retries", p.cfg.MaxRetries),
	)
	return nil
}

// Shutdown stops the watcher and waits for the watch loop to exit.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, sub savesync.Subscription) {
	defer p.wg.Done()
	defer watcher.Close()
	defer p.host.Unsubscribe(sub.ID)

	var watched string
	follow := func(path string) {
		if path == watched {
			return
		}
		if watched != "" {
			_ = watcher.Remove(watched)
		}
		watched = ""
		if path == "" {
			return
		}
		if err := watcher.Add(path); err != nil {
			p.logger.Warn("failed to watch save directory", log.Path(path), log.Err(err))
			return
		}
		watched = path
		p.logger.Debug("watching save directory", log.Path(path))
	}
	follow(p.host.Snapshot().Path)

	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	snapshots := sub.C
	for {
		select {
		case <-ctx.Done():
			return

		case snap, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			follow(snap.Path)

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(p.cfg.DebounceDelay)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(p.cfg.DebounceDelay)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			p.reload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("directory watcher error", log.Err(err))
		}
	}
}

// relevant reports whether event may have changed the save contents.
func relevant(event fsnotify.Event) bool {
	name := strings.ToLower(filepath.Base(event.Name))
	if strings.HasSuffix(name, fs.TempSuffix) || strings.HasSuffix(name, fs.BackupSuffix) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}

// reload refreshes the active save, retrying with backoff while the
// directory does not parse.
func (p *Plugin) reload(ctx context.Context) {
	backoff := lifecycle.NewBackoff(p.cfg.RetryInterval, 8*p.cfg.RetryInterval)

	for attempt := 0; ; attempt++ {
		err := p.host.Refresh(ctx)
		switch {
		case err == nil:
			p.logger.Info("reloaded save after change", log.Path(p.host.Snapshot().Path), log.Int("attempt", attempt+1))
			return
		case errors.Is(err, savesync.ErrSuperseded), errors.Is(err, savesync.ErrNoSave):
			return
		case errors.Is(err, savesync.ErrParseFailure) && attempt < p.cfg.MaxRetries:
			p.logger.Debug("save not readable yet, retrying",
				log.Int("attempt", attempt+1),
				log.Duration("backoff", backoff.Current()),
				log.Err(err),
			)
			if backoff.Wait(ctx) != nil {
				return
			}
		default:
			p.logger.Warn("failed to reload save", log.Int("attempts", attempt+1), log.Err(err))
			return
		}
	}
}

var _ savesync.Plugin = (*Plugin)(nil)
