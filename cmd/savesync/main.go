package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/savesync/internal/cliconfig"
	"github.com/bft-labs/savesync/pkg/log"
	"github.com/bft-labs/savesync/pkg/savesync"
	"github.com/bft-labs/savesync/plugins/dirwatcher"
)

const helpDescription = `
Inspect, copy and edit game save directories.

A save directory holds savenfo.toml, globalvars.toml, partytable.toml and an
optional screen.tga. savesync loads one save at a time, writes edits through
staged files, and can follow a directory while the game rewrites it.

Configuration is read from $HOME/.savesync/config.toml, then SAVESYNC_*
environment variables, then flags.
`

var exampleUsage = strings.TrimSpace(`
  savesync list ~/saves
  savesync show "~/saves/000001 - Game0"
  savesync copy "~/saves/000001 - Game0" "~/saves/000042 - Backup"
  savesync edit "~/saves/000001 - Game0" --credits 50000 --bool K_SWG_HELENA=true
  savesync watch --debounce 1s
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli holds state shared by all commands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string

	zl     zerolog.Logger
	logger log.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{cfg: cliconfig.DefaultConfig()}

	root := &cobra.Command{
		Use:           "savesync",
		Short:         "Inspect, copy and edit game save directories",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.savesync/config.toml)")
	pf.StringVar(&c.cfg.SaveDir, "save-dir", c.cfg.SaveDir, "save directory used when a command gets none")
	pf.StringVar(&c.cfg.StateDir, "state-dir", c.cfg.StateDir, "directory for session.json (default: $HOME/.savesync)")
	pf.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	pf.StringVar(&c.cfg.LogFormat, "log-format", c.cfg.LogFormat, "log format (console or json)")
	pf.StringVar(&c.cfg.CommitOrder, "commit-order", c.cfg.CommitOrder, "which overlapping load wins (completion or issue)")
	pf.BoolVar(&c.cfg.Backup, "backup", c.cfg.Backup, "copy replaced files to <name>.bak before writing")

	root.AddCommand(
		c.newListCmd(),
		c.newShowCmd(),
		c.newCopyCmd(),
		c.newEditCmd(),
		c.newWatchCmd(),
	)
	return root
}

// loadConfig applies file, env and flags to c.cfg, in increasing
// precedence, and builds the logger.
func (c *cli) loadConfig(cmd *cobra.Command) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}
	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	logger, err := log.New(c.cfg.LogLevel, c.cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	c.logger = logger
	c.zl = logger.Logger()
	c.zl.Debug().Interface("config", c.cfg).Msg("configuration")
	return nil
}

// newSession builds a session from the loaded configuration.
func (c *cli) newSession(opts ...savesync.Option) (*savesync.Session, error) {
	all := append([]savesync.Option{savesync.WithLogger(c.logger)}, opts...)
	s, err := savesync.New(savesync.Config{
		StateDir:    c.cfg.StateDir,
		CommitOrder: c.cfg.CommitOrder,
		Backup:      c.cfg.Backup,
	}, all...)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// watcherOption returns the dirwatcher plugin configured from c.cfg.
func (c *cli) watcherOption() savesync.Option {
	maxRetries := c.cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = -1
	}
	return dirwatcher.WithDirWatcher(dirwatcher.Config{
		DebounceDelay: c.cfg.DebounceDelay,
		RetryInterval: c.cfg.RetryInterval,
		MaxRetries:    maxRetries,
	})
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "savesync: %v\n", err)
		os.Exit(1)
	}
}
