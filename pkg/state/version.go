package state

// Version information for the state module.
const (
	// Version is the current version of the state module.
	Version = "2.0.0"
)
