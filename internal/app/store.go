package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bft-labs/savesync/internal/domain"
	"github.com/bft-labs/savesync/pkg/log"
)

// CommitOrder decides which of two overlapping loads ends up in the store.
type CommitOrder int

const (
	// CommitCompletionOrder applies every successful load when it completes.
	// The load that completes last wins, whatever order they were issued in.
	CommitCompletionOrder CommitOrder = iota

	// CommitIssueOrder discards a completed load if a load issued after it
	// (or a reset) has already been committed.
	CommitIssueOrder
)

// String returns the configuration name of the order.
func (o CommitOrder) String() string {
	switch o {
	case CommitCompletionOrder:
		return "completion"
	case CommitIssueOrder:
		return "issue"
	default:
		return "unknown"
	}
}

// ParseCommitOrder parses "completion" or "issue". Empty means completion.
func ParseCommitOrder(s string) (CommitOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "completion":
		return CommitCompletionOrder, nil
	case "issue":
		return CommitIssueOrder, nil
	default:
		return 0, fmt.Errorf("%w: unknown commit order %q", domain.ErrInvalidConfig, s)
	}
}

// Bridge is what the store needs from the persistence bridge.
type Bridge[S any] interface {
	ReadFromDirectory(ctx context.Context, path string) (S, error)
	SaveToDirectory(ctx context.Context, path string, save S) error
}

// Snapshot is the store state as seen by one reader.
// Path and Save always come from the same load.
type Snapshot[S any] struct {
	// Path is the directory that produced Save. Empty when nothing is loaded.
	Path string

	// Save is the loaded value. The zero value when nothing is loaded.
	// It is shared with other readers and must not be modified.
	Save S

	// Loaded reports whether Save holds a successfully loaded value.
	Loaded bool

	// Revision increases by one on every commit, including resets.
	Revision uint64

	// Generation is the issue number of the load that produced Save.
	Generation uint64
}

// StoreConfig configures a Store.
type StoreConfig[S any] struct {
	// Order selects how overlapping loads are resolved.
	Order CommitOrder

	// Logger receives store events. Nil discards them.
	Logger log.Logger

	// OnCommit is called with every new snapshot while the store lock is
	// held. It must not block or call back into the store.
	OnCommit func(Snapshot[S])
}

// Store owns the authoritative (path, save) pair for the active save.
// It is safe for concurrent use. No lock is held while the bridge does I/O.
type Store[S any] struct {
	bridge   Bridge[S]
	order    CommitOrder
	logger   log.Logger
	onCommit func(Snapshot[S])

	// issued is the generation counter; every load takes the next value.
	issued atomic.Uint64

	mu    sync.RWMutex
	state Snapshot[S]
}

// NewStore creates an empty Store reading and writing through bridge.
func NewStore[S any](bridge Bridge[S], cfg StoreConfig[S]) *Store[S] {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Store[S]{
		bridge:   bridge,
		order:    cfg.Order,
		logger:   logger,
		onCommit: cfg.OnCommit,
	}
}

// Snapshot returns the current state.
func (s *Store[S]) Snapshot() Snapshot[S] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Order returns the configured commit order.
func (s *Store[S]) Order() CommitOrder {
	return s.order
}

// LoadFromDirectory reads the save at path and, on success, replaces both
// path and save in one step. On failure the state is left untouched and the
// bridge error is returned as is. If ctx is done by the time the read
// returns, nothing is committed and ctx.Err() is returned.
func (s *Store[S]) LoadFromDirectory(ctx context.Context, path string) error {
	gen := s.issued.Add(1)

	save, err := s.bridge.ReadFromDirectory(ctx, path)
	if err != nil {
		s.logger.Warn("load failed",
			log.Path(path),
			log.Uint64("generation", gen),
			log.Err(err),
		)
		return err
	}
	if err := ctx.Err(); err != nil {
		s.logger.Info("load canceled before commit", log.Path(path), log.Uint64("generation", gen))
		return err
	}

	return s.commit(path, save, gen, nil)
}

// Refresh re-reads the currently loaded directory. The result is committed
// only if nothing else was committed while the read was in flight; otherwise
// ErrSuperseded is returned.
func (s *Store[S]) Refresh(ctx context.Context) error {
	snap := s.Snapshot()
	if !snap.Loaded {
		return domain.ErrNoSave
	}
	gen := s.issued.Add(1)

	save, err := s.bridge.ReadFromDirectory(ctx, snap.Path)
	if err != nil {
		s.logger.Warn("refresh failed", log.Path(snap.Path), log.Err(err))
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.commit(snap.Path, save, gen, &snap.Revision)
}

// SaveToDirectory writes save to path through the bridge. It does not
// require save to be the loaded value and never changes the store state.
func (s *Store[S]) SaveToDirectory(ctx context.Context, path string, save S) error {
	if err := s.bridge.SaveToDirectory(ctx, path, save); err != nil {
		s.logger.Warn("save failed", log.Path(path), log.Err(err))
		return err
	}
	s.logger.Info("saved", log.Path(path))
	return nil
}

// SaveCurrent writes the loaded save back to the directory it came from.
// Returns ErrNoSave when nothing is loaded.
func (s *Store[S]) SaveCurrent(ctx context.Context) error {
	snap := s.Snapshot()
	if !snap.Loaded {
		return domain.ErrNoSave
	}
	return s.SaveToDirectory(ctx, snap.Path, snap.Save)
}

// Reset clears the store. Under CommitIssueOrder, loads issued before the
// reset are discarded when they complete.
func (s *Store[S]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Snapshot[S]{
		Revision:   s.state.Revision + 1,
		Generation: s.issued.Load(),
	}
	s.state = next
	s.logger.Info("store reset", log.Uint64("revision", next.Revision))
	if s.onCommit != nil {
		s.onCommit(next)
	}
}

// commit installs a loaded save. expectRev, when set, must equal the current
// revision for the commit to happen.
func (s *Store[S]) commit(path string, save S, gen uint64, expectRev *uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expectRev != nil && s.state.Revision != *expectRev {
		s.logger.Info("discarded stale refresh", log.Path(path), log.Uint64("generation", gen))
		return fmt.Errorf("refresh %s: %w", path, domain.ErrSuperseded)
	}
	if s.order == CommitIssueOrder && gen <= s.state.Generation {
		s.logger.Info("discarded superseded load",
			log.Path(path),
			log.Uint64("generation", gen),
			log.Uint64("committed_generation", s.state.Generation),
		)
		return fmt.Errorf("load %s: %w", path, domain.ErrSuperseded)
	}

	next := Snapshot[S]{
		Path:       path,
		Save:       save,
		Loaded:     true,
		Revision:   s.state.Revision + 1,
		Generation: gen,
	}
	s.state = next

	s.logger.Info("loaded save",
		log.Path(path),
		log.Uint64("generation", gen),
		log.Uint64("revision", next.Revision),
	)
	if s.onCommit != nil {
		s.onCommit(next)
	}
	return nil
}
