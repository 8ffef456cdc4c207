package lifecycle

// Version information for the lifecycle module.
const (
	// Version is the current version of the lifecycle module.
	Version = "1.1.0"
)
