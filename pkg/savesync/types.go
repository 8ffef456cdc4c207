package savesync

import (
	"github.com/bft-labs/savesync/internal/app"
	"github.com/bft-labs/savesync/internal/domain"
	"github.com/bft-labs/savesync/internal/events"
	"github.com/bft-labs/savesync/internal/ports"
	"github.com/bft-labs/savesync/pkg/lifecycle"
)

// Save model re-exported for library users.
type (
	Save            = domain.Save
	Nfo             = domain.Nfo
	Globals         = domain.Globals
	BooleanGlobal   = domain.BooleanGlobal
	NumberGlobal    = domain.NumberGlobal
	PartyTable      = domain.PartyTable
	PartyMember     = domain.PartyMember
	AvailableMember = domain.AvailableMember
	JournalEntry    = domain.JournalEntry
	SaveEntry       = domain.SaveEntry
	Game            = domain.Game
)

// Games a save can belong to.
const (
	GameOne = domain.GameOne
	GameTwo = domain.GameTwo
)

// Snapshot is the active (path, save) pair at one point in time.
type Snapshot = app.Snapshot[Save]

// Subscription receives a Snapshot after every change of the active save.
type Subscription = events.Subscription[Snapshot]

// Engine reads and writes save directories.
type Engine = ports.Engine[Save]

// State is the lifecycle state of a Session.
type State = lifecycle.State

// Lifecycle states.
const (
	StateStopped  = lifecycle.StateStopped
	StateStarting = lifecycle.StateStarting
	StateRunning  = lifecycle.StateRunning
	StateStopping = lifecycle.StateStopping
	StateFailed   = lifecycle.StateFailed
)

// Error kinds. Test with errors.Is.
var (
	ErrNotFound     = domain.ErrNotFound
	ErrParseFailure = domain.ErrParseFailure
	ErrIOFailure    = domain.ErrIOFailure
	ErrSuperseded   = domain.ErrSuperseded
	ErrNoSave       = domain.ErrNoSave

	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
)

// KindOf returns the error kind of err, or nil.
func KindOf(err error) error {
	return domain.KindOf(err)
}
