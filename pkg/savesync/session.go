package savesync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/savesync/internal/adapters/fs"
	"github.com/bft-labs/savesync/internal/app"
	"github.com/bft-labs/savesync/internal/bridge"
	"github.com/bft-labs/savesync/internal/events"
	"github.com/bft-labs/savesync/internal/ports"
	"github.com/bft-labs/savesync/pkg/lifecycle"
	"github.com/bft-labs/savesync/pkg/log"
	"github.com/bft-labs/savesync/pkg/state"
)

// Session holds the active save and the components around it.
// Loads and saves work whether or not the session is started; Start only
// runs the registered plugins.
type Session struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	bridge    *bridge.Bridge[Save]
	store     *app.Store[Save]
	bus       *events.Bus[Snapshot]
	sessions  ports.SessionRepository
	logger    log.Logger
	plugins   []Plugin

	mu     sync.Mutex
	cancel context.CancelFunc

	// memMu serializes read-modify-write cycles of the session memory.
	memMu sync.Mutex
}

// New creates a Session with the given configuration. The session starts
// with no save loaded and in StateStopped.
func New(cfg Config, opts ...Option) (*Session, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	order, err := app.ParseCommitOrder(cfg.CommitOrder)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.engine == nil {
		o.engine = fs.NewDirectoryEngine(
			fs.WithBackup(cfg.Backup),
			fs.WithLogger(o.logger),
		)
	}

	s := &Session{
		config:  cfg,
		opts:    o,
		bridge:  bridge.New[Save](o.engine, o.logger),
		bus:     events.NewBus[Snapshot](),
		logger:  o.logger,
		plugins: o.plugins,
	}
	s.lifecycle = app.NewLifecycle(o.logger, lifecycle.EmitterFunc(func(prev, cur lifecycle.State, reason string) {
		s.opts.eventHandler.OnStateChange(StateChangeEvent{Previous: prev, Current: cur, Reason: reason})
	}))
	s.store = app.NewStore[Save](s.bridge, app.StoreConfig[Save]{
		Order:    order,
		Logger:   o.logger,
		OnCommit: s.bus.Publish,
	})
	if cfg.StateDir != "" {
		s.sessions = state.NewFileRepository(cfg.StateDir)
	}
	return s, nil
}

// Snapshot returns the active path and save.
func (s *Session) Snapshot() Snapshot {
	return s.store.Snapshot()
}

// LoadFromDirectory reads the save at path and makes it the active save.
// On failure the active save is unchanged.
func (s *Session) LoadFromDirectory(ctx context.Context, path string) error {
	id := uuid.NewString()
	start := time.Now()
	s.logger.Debug("loading save", log.String("op_id", id), log.Path(path))

	err := s.store.LoadFromDirectory(ctx, path)
	s.opts.eventHandler.OnLoad(LoadEvent{ID: id, Path: path, Duration: time.Since(start), Err: err})
	if err != nil {
		return err
	}

	s.remember(ctx, func(st *state.State) bool {
		snap := s.store.Snapshot()
		if snap.Path != path {
			return false
		}
		st.RecordLoad(path, snap.Save.Nfo.SaveName)
		return true
	})
	return nil
}

// Refresh re-reads the active save directory. It returns ErrSuperseded if
// another load was committed while the read was in flight.
func (s *Session) Refresh(ctx context.Context) error {
	id := uuid.NewString()
	start := time.Now()
	path := s.store.Snapshot().Path

	err := s.store.Refresh(ctx)
	if errors.Is(err, ErrNoSave) {
		return err
	}
	s.opts.eventHandler.OnLoad(LoadEvent{ID: id, Path: path, Duration: time.Since(start), Err: err})
	return err
}

// SaveToDirectory writes save to path. The active save is not changed.
func (s *Session) SaveToDirectory(ctx context.Context, path string, save Save) error {
	id := uuid.NewString()
	start := time.Now()

	err := s.store.SaveToDirectory(ctx, path, save)
	s.opts.eventHandler.OnSave(SaveEvent{ID: id, Path: path, Duration: time.Since(start), Err: err})
	if err != nil {
		return err
	}

	s.remember(ctx, func(st *state.State) bool {
		st.RecordSave(path)
		return true
	})
	return nil
}

// SaveCurrent writes the active save back to its directory.
func (s *Session) SaveCurrent(ctx context.Context) error {
	snap := s.store.Snapshot()
	if !snap.Loaded {
		return ErrNoSave
	}
	return s.SaveToDirectory(ctx, snap.Path, snap.Save)
}

// ListSaves returns the saves in the child directories of root, sorted by
// directory name. Directories that do not hold a save are skipped.
func (s *Session) ListSaves(ctx context.Context, root string) ([]SaveEntry, error) {
	lister, ok := s.opts.engine.(ports.Lister)
	if !ok {
		return nil, fmt.Errorf("list %s: engine cannot list saves", root)
	}
	saves, err := lister.List(ctx, root)
	if err != nil {
		return nil, bridge.Classify(bridge.OpRead, root, err)
	}
	s.logger.Debug("listed saves", log.Path(root), log.Int("count", len(saves)))
	return saves, nil
}

// Reset clears the active save.
func (s *Session) Reset() {
	s.store.Reset()
}

// Subscribe returns a subscription receiving every new snapshot.
// Slow subscribers miss snapshots rather than blocking the session.
func (s *Session) Subscribe() Subscription {
	return s.bus.Subscribe()
}

// Unsubscribe cancels a subscription and closes its channel.
func (s *Session) Unsubscribe(id string) {
	s.bus.Unsubscribe(id)
}

// LastSession returns the remembered session state. It is empty when
// session memory is disabled or nothing was recorded yet.
func (s *Session) LastSession(ctx context.Context) (state.State, error) {
	if s.sessions == nil {
		return state.State{}, nil
	}
	st, err := s.sessions.Load(ctx)
	if err != nil {
		return state.State{}, fmt.Errorf("load session state: %w", err)
	}
	return st, nil
}

// Restore loads the save that was active in the previous session.
// Returns ErrNoSave if none was recorded.
func (s *Session) Restore(ctx context.Context) error {
	st, err := s.LastSession(ctx)
	if err != nil {
		return err
	}
	if st.LastPath == "" {
		return fmt.Errorf("restore: %w", ErrNoSave)
	}
	s.logger.Info("restoring previous session", log.Path(st.LastPath), log.String("save_name", st.SaveName))
	return s.LoadFromDirectory(ctx, st.LastPath)
}

// remember updates the session memory. update reports whether anything
// changed. Failures are logged only.
func (s *Session) remember(ctx context.Context, update func(*state.State) bool) {
	if s.sessions == nil {
		return
	}
	s.memMu.Lock()
	defer s.memMu.Unlock()

	st, err := s.sessions.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to read session state", log.Err(err))
		st = state.State{}
	}
	if !update(&st) {
		return
	}
	if err := s.sessions.Save(ctx, st); err != nil {
		s.logger.Warn("failed to persist session state", log.Err(err))
	}
}

// Start initializes the registered plugins.
// Returns ErrAlreadyRunning if the session is already started.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		return ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(lifecycle.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	cfg := PluginConfig{
		Host:     s,
		StateDir: s.config.StateDir,
		Logger:   s.logger,
	}
	for i, p := range s.plugins {
		if err := p.Initialize(runCtx, cfg); err != nil {
			s.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			cancel()
			s.shutdownPlugins(context.Background(), s.plugins[:i])
			_ = s.lifecycle.TransitionTo(lifecycle.StateFailed, "plugin init failed: "+p.Name())
			return fmt.Errorf("initialize plugin %s: %w", p.Name(), err)
		}
		s.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	return s.lifecycle.TransitionTo(lifecycle.StateRunning, "plugins initialized")
}

// Stop shuts the plugins down in reverse order.
// Returns ErrNotRunning if the session is not started.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStop() {
		return ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(lifecycle.StateStopping, "Stop() called"); err != nil {
		return err
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
	defer cancel()
	s.lifecycle.Go(func() { s.shutdownPlugins(ctx, s.plugins) })

	err := s.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	if err != nil {
		_ = s.lifecycle.TransitionTo(lifecycle.StateFailed, "shutdown timeout")
		return err
	}
	return s.lifecycle.TransitionTo(lifecycle.StateStopped, "graceful shutdown")
}

// Status returns the current lifecycle state.
func (s *Session) Status() State {
	return s.lifecycle.State()
}

func (s *Session) shutdownPlugins(ctx context.Context, plugins []Plugin) {
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			s.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			continue
		}
		s.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
	}
}
