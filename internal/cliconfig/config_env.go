package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "SAVESYNC_"

// ApplyEnvConfig applies SAVESYNC_* environment variables to cfg.
// It respects flags that have been explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("save-dir", env("SAVE_DIR"), &cfg.SaveDir)
	s.setString("state-dir", env("STATE_DIR"), &cfg.StateDir)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", env("LOG_FORMAT"), &cfg.LogFormat)
	s.setString("commit-order", env("COMMIT_ORDER"), &cfg.CommitOrder)

	if err := s.setDuration("debounce", env("DEBOUNCE"), &cfg.DebounceDelay); err != nil {
		return err
	}
	if err := s.setDuration("retry-interval", env("RETRY_INTERVAL"), &cfg.RetryInterval); err != nil {
		return err
	}
	if err := s.setIntFromString("max-retries", env("MAX_RETRIES"), &cfg.MaxRetries); err != nil {
		return err
	}

	s.setBoolFromString("backup", env("BACKUP"), &cfg.Backup)
	s.setBoolFromString("watch", env("WATCH"), &cfg.Watch)

	return nil
}
