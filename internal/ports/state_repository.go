package ports

import (
	"context"

	"github.com/bft-labs/savesync/pkg/state"
)

// SessionRepository persists which save was last opened so a session can be
// restored after a restart.
// Implementations persist state to disk (or other storage) atomically.
type SessionRepository interface {
	// Load retrieves the last saved session state.
	// Returns an empty state and nil error if no state exists.
	// Returns an error only for actual read failures.
	Load(ctx context.Context) (state.State, error)

	// Save persists the session state atomically.
	// The implementation should use atomic writes (e.g., write to temp file, then rename)
	// to prevent corruption on crash.
	Save(ctx context.Context, st state.State) error
}
