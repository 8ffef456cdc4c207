// Package savesync keeps one active game save in memory and synchronizes it
// with save directories on disk.
//
// # Basic Usage
//
//	s, err := savesync.New(savesync.Config{StateDir: "/home/me/.savesync"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := s.LoadFromDirectory(ctx, "/games/kotor/saves/000001 - Game0"); err != nil {
//	    // The active save is unchanged. Inspect the kind with errors.Is:
//	    // ErrNotFound, ErrParseFailure or ErrIOFailure.
//	}
//
//	save := s.Snapshot().Save.Clone()
//	save.PartyTable.Credits = 50000
//	err = s.SaveToDirectory(ctx, "/games/kotor/saves/000002 - Game1", save)
//
// # Consistency
//
// [Session.Snapshot] always returns a path together with the save that was
// read from it. A failed load never changes the active save. When two loads
// overlap, [Config.CommitOrder] decides the winner: with "completion" the
// load that finishes last wins, with "issue" the load requested last wins
// and the other returns [ErrSuperseded].
//
// # Change Notification
//
// [Session.Subscribe] delivers every new snapshot. Plugins such as
// dirwatcher use it to follow the active directory:
//
//	import "github.com/bft-labs/savesync/plugins/dirwatcher"
//
//	s, err := savesync.New(cfg, dirwatcher.WithDirWatcher(dirwatcher.DefaultConfig()))
//	_ = s.Start(ctx)
//	defer s.Stop()
//
// # Lifecycle States
//
// A Session is in one of [StateStopped], [StateStarting], [StateRunning],
// [StateStopping] or [StateFailed]. Loads and saves work in every state;
// Start and Stop only drive plugins.
package savesync
