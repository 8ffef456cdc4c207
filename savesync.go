// Package savesync is the top-level entry point of the save synchronizer.
//
// Example usage:
//
//	s, err := savesync.Open(savesync.Config{Backup: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.LoadFromDirectory(ctx, dir); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(savesync.FormatPlayTime(s.Snapshot().Save))
package savesync

import (
	"github.com/bft-labs/savesync/pkg/savesync"
	"github.com/bft-labs/savesync/pkg/timefmt"
)

// Config configures a Session.
type Config = savesync.Config

// Session holds the active save.
type Session = savesync.Session

// Save is the contents of one save directory.
type Save = savesync.Save

// Option configures optional behavior of a Session.
type Option = savesync.Option

// Open creates a Session. See savesync.New in pkg/savesync.
func Open(cfg Config, opts ...Option) (*Session, error) {
	return savesync.New(cfg, opts...)
}

// FormatPlayTime renders the play time of save for display.
func FormatPlayTime(save Save) string {
	return timefmt.Format(float64(save.Nfo.TimePlayed))
}
