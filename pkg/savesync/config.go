package savesync

import "github.com/bft-labs/savesync/internal/app"

// Commit orders accepted by Config.CommitOrder.
const (
	CommitCompletion = "completion"
	CommitIssue      = "issue"
)

// Config configures a Session.
type Config struct {
	// StateDir is where the session memory (last opened save) is kept.
	// Empty disables session memory.
	StateDir string

	// CommitOrder decides which of two overlapping loads wins:
	// "completion" (the one that finishes last) or "issue" (the one
	// requested last). Default: "completion".
	CommitOrder string

	// Backup copies every replaced save file to <name>.bak before a write.
	Backup bool
}

// SetDefaults fills in zero values.
func (c *Config) SetDefaults() {
	if c.CommitOrder == "" {
		c.CommitOrder = CommitCompletion
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if _, err := app.ParseCommitOrder(c.CommitOrder); err != nil {
		return err
	}
	return nil
}
