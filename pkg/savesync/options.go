package savesync

import (
	"github.com/bft-labs/savesync/pkg/log"
)

// Option configures optional behavior of a Session.
type Option func(*options)

type options struct {
	engine       Engine
	logger       log.Logger
	eventHandler EventHandler
	plugins      []Plugin
}

func defaultOptions() options {
	return options{
		logger:       log.NewNoopLogger(),
		eventHandler: BaseEventHandler{},
	}
}

// WithEngine replaces the on-disk engine. The default is the save
// directory engine.
func WithEngine(engine Engine) Option {
	return func(o *options) {
		o.engine = engine
	}
}

// WithLogger sets a logger. If not provided, nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventHandler sets a handler for session events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		if handler != nil {
			o.eventHandler = handler
		}
	}
}

// WithPlugin registers a plugin. Plugins are initialized in registration
// order on Start and shut down in reverse order on Stop.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}
