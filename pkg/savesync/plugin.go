package savesync

import (
	"context"

	"github.com/bft-labs/savesync/pkg/log"
)

// Plugin is an optional component started and stopped with a Session.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize starts the plugin. Background work must stop when ctx is
	// done or Shutdown is called.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and waits for its goroutines.
	Shutdown(ctx context.Context) error
}

// PluginConfig is handed to plugins on Initialize.
type PluginConfig struct {
	Host     Host
	StateDir string
	Logger   log.Logger
}

// Host is the part of a Session plugins may use.
type Host interface {
	Snapshot() Snapshot
	LoadFromDirectory(ctx context.Context, path string) error
	Refresh(ctx context.Context) error
	Subscribe() Subscription
	Unsubscribe(id string)
}

var _ Host = (*Session)(nil)
