// Package state provides session persistence so the last opened save can be
// reopened after a restart.
//
// The state tracks the directory of the last successfully loaded save, its
// display name, and when it was last loaded and written.
//
// # Usage
//
// Create a file-based repository:
//
//	repo := state.NewFileRepository("/path/to/state/dir")
//
//	// Load existing state
//	s, err := repo.Load(ctx)
//	if err != nil {
//	    return err
//	}
//
//	s.RecordLoad("/path/to/saves/000042 - Game41", "Dantooine")
//
//	// Save updated state
//	if err := repo.Save(ctx, s); err != nil {
//	    return err
//	}
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package state
