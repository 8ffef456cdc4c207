// Package log provides a logging abstraction for savesync components.
//
// The bridge, store, engine and plugins log through the [Logger] interface so
// the host decides where output goes. A zerolog adapter and a no-op logger are
// provided.
//
// # Usage
//
// Build a zerolog-backed logger for a CLI:
//
//	logger, err := log.New("info", "console", os.Stderr)
//
// Wrap an existing zerolog logger:
//
//	logger := log.NewZerologAdapterWithLogger(zl)
//
// Or use the no-op logger for testing:
//
//	logger := log.NewNoopLogger()
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package log
