package app

import (
	"sync"
	"time"

	"github.com/bft-labs/savesync/internal/domain"
	"github.com/bft-labs/savesync/pkg/lifecycle"
	"github.com/bft-labs/savesync/pkg/log"
)

// ShutdownTimeout is the maximum time to wait for background workers.
const ShutdownTimeout = 30 * time.Second

// transitions lists the states reachable from each state.
var transitions = map[lifecycle.State][]lifecycle.State{
	lifecycle.StateStopped:  {lifecycle.StateStarting},
	lifecycle.StateStarting: {lifecycle.StateRunning, lifecycle.StateStopping, lifecycle.StateFailed},
	lifecycle.StateRunning:  {lifecycle.StateStopping, lifecycle.StateFailed},
	lifecycle.StateStopping: {lifecycle.StateStopped, lifecycle.StateFailed},
	lifecycle.StateFailed:   {lifecycle.StateStarting},
}

// Lifecycle is the lifecycle.Manager of a session.
type Lifecycle struct {
	mu      sync.RWMutex
	state   lifecycle.State
	wg      sync.WaitGroup
	logger  log.Logger
	emitter lifecycle.EventEmitter
}

var _ lifecycle.Manager = (*Lifecycle)(nil)

// NewLifecycle creates a lifecycle in StateStopped. emitter may be nil.
func NewLifecycle(logger log.Logger, emitter lifecycle.EventEmitter) *Lifecycle {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Lifecycle{
		state:   lifecycle.StateStopped,
		logger:  logger,
		emitter: emitter,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() lifecycle.State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo moves to newState if the move is allowed. A refused move
// from Stopped or Failed returns ErrNotRunning; any other refused move
// returns ErrAlreadyRunning.
func (l *Lifecycle) TransitionTo(newState lifecycle.State, reason string) error {
	l.mu.Lock()
	oldState := l.state
	if !allowed(oldState, newState) {
		l.mu.Unlock()
		if oldState == lifecycle.StateStopped || oldState == lifecycle.StateFailed {
			return domain.ErrNotRunning
		}
		return domain.ErrAlreadyRunning
	}
	l.state = newState
	l.mu.Unlock()

	if l.emitter != nil {
		l.emitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Info("state transition",
		log.String("from", oldState.String()),
		log.String("to", newState.String()),
		log.String("reason", reason),
	)
	return nil
}

func allowed(from, to lifecycle.State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanStart returns true if Start() can be called.
func (l *Lifecycle) CanStart() bool {
	s := l.State()
	return s == lifecycle.StateStopped || s == lifecycle.StateFailed
}

// CanStop returns true if Stop() can be called.
func (l *Lifecycle) CanStop() bool {
	s := l.State()
	return s == lifecycle.StateRunning || s == lifecycle.StateStarting
}

// Go runs fn on a tracked worker goroutine.
func (l *Lifecycle) Go(fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn()
	}()
}

// WaitWithTimeout waits for all workers started with Go to return.
func (l *Lifecycle) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-done:
		return nil
	case <-t.C:
		l.logger.Warn("shutdown timeout, abandoning workers",
			log.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
