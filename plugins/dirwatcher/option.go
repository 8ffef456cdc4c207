package dirwatcher

import "github.com/bft-labs/savesync/pkg/savesync"

// WithDirWatcher returns a savesync Option that reloads the active save
// whenever its directory changes.
//
// Usage:
//
//	s, err := savesync.New(cfg,
//	    dirwatcher.WithDirWatcher(dirwatcher.Config{
//	        DebounceDelay: 500 * time.Millisecond,
//	        MaxRetries:    10,
//	    }),
//	)
func WithDirWatcher(cfg Config) savesync.Option {
	return savesync.WithPlugin(New(cfg))
}

// WithDefaultDirWatcher enables the watcher with DefaultConfig.
func WithDefaultDirWatcher() savesync.Option {
	return WithDirWatcher(DefaultConfig())
}
