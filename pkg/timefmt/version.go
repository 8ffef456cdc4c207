package timefmt

// Version information for the timefmt module.
const (
	// Version is the current version of the timefmt module.
	Version = "1.0.0"
)
