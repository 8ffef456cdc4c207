package state

import "time"

// State represents the persisted session.
// It is saved to disk after each successful load or write.
type State struct {
	// LastPath is the directory of the last successfully loaded save
	LastPath string `json:"last_path"`

	// SaveName is the display name of that save
	SaveName string `json:"save_name"`

	// LastLoadedAt is the timestamp of the last successful load
	LastLoadedAt time.Time `json:"last_loaded_at"`

	// LastSavedAt is the timestamp of the last successful write
	LastSavedAt time.Time `json:"last_saved_at"`
}

// IsEmpty returns true if no save has been recorded.
func (s State) IsEmpty() bool {
	return s.LastPath == ""
}

// RecordLoad updates the state after a successful load.
func (s *State) RecordLoad(path, saveName string) {
	s.LastPath = path
	s.SaveName = saveName
	s.LastLoadedAt = time.Now()
}

// RecordSave updates the state after a successful write to path.
// Writes to a directory other than the last loaded one only bump the timestamp.
func (s *State) RecordSave(path string) {
	if s.LastPath == "" {
		s.LastPath = path
	}
	s.LastSavedAt = time.Now()
}
