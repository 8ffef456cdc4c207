package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bft-labs/savesync/pkg/savesync"
	"github.com/bft-labs/savesync/pkg/timefmt"
)

// resolveDir picks the save directory from args, then the configured
// save dir. An empty result means "restore the last session".
func (c *cli) resolveDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return c.cfg.SaveDir
}

// open loads dir, or the last session's save when dir is empty.
func open(ctx context.Context, s *savesync.Session, dir string) error {
	if dir != "" {
		return s.LoadFromDirectory(ctx, dir)
	}
	if err := s.Restore(ctx); err != nil {
		if errors.Is(err, savesync.ErrNoSave) {
			return errors.New("no save directory given and no previous session to restore")
		}
		return err
	}
	return nil
}

func (c *cli) newShowCmd() *cobra.Command {
	var globals bool
	cmd := &cobra.Command{
		Use:   "show [dir]",
		Short: "Print a summary of a save",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Watch {
				return c.follow(cmd, c.resolveDir(args), globals)
			}
			s, err := c.newSession()
			if err != nil {
				return err
			}
			if err := open(cmd.Context(), s, c.resolveDir(args)); err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), s.Snapshot(), globals)
			return nil
		},
	}
	cmd.Flags().BoolVar(&globals, "globals", false, "also list every global variable")
	cmd.Flags().BoolVar(&c.cfg.Watch, "watch", c.cfg.Watch, "keep running and print the save again whenever it changes")
	return cmd
}

func (c *cli) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Print a save and reprint it whenever the directory changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.follow(cmd, c.resolveDir(args), false)
		},
	}
	cmd.Flags().DurationVar(&c.cfg.DebounceDelay, "debounce", c.cfg.DebounceDelay, "quiet period before re-reading a changed directory")
	cmd.Flags().DurationVar(&c.cfg.RetryInterval, "retry-interval", c.cfg.RetryInterval, "first delay before re-reading a directory that failed to parse")
	cmd.Flags().IntVar(&c.cfg.MaxRetries, "max-retries", c.cfg.MaxRetries, "retries after a parse failure")
	return cmd
}

// follow loads dir and prints it after every change until interrupted.
func (c *cli) follow(cmd *cobra.Command, dir string, globals bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := c.newSession(c.watcherOption())
	if err != nil {
		return err
	}
	if err := open(ctx, s, dir); err != nil {
		return err
	}

	sub := s.Subscribe()
	defer s.Unsubscribe(sub.ID)

	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	out := cmd.OutOrStdout()
	printSummary(out, s.Snapshot(), globals)
	c.zl.Info().Str("path", s.Snapshot().Path).Msg("watching for changes, press Ctrl+C to stop")

	for {
		select {
		case <-ctx.Done():
			c.zl.Info().Msg("received signal, stopping...")
			return s.Stop()
		case snap, ok := <-sub.C:
			if !ok {
				return s.Stop()
			}
			fmt.Fprintf(out, "\n--- revision %d ---\n", snap.Revision)
			printSummary(out, snap, globals)
		}
	}
}

func (c *cli) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [root]",
		Short: "List the saves in a saves folder",
		Long: `List the saves in the child directories of root, sorted by directory name.
root defaults to the parent of the configured save directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := c.listRoot(args)
			if root == "" {
				return errors.New("no saves folder given and no save directory configured")
			}
			s, err := c.newSession()
			if err != nil {
				return err
			}
			saves, err := s.ListSaves(cmd.Context(), root)
			if err != nil {
				return err
			}
			printSaveList(cmd.OutOrStdout(), root, saves)
			return nil
		},
	}
}

// listRoot picks the folder to list from args, then the parent of the
// configured save dir.
func (c *cli) listRoot(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if c.cfg.SaveDir == "" {
		return ""
	}
	return filepath.Dir(filepath.Clean(c.cfg.SaveDir))
}

func printSaveList(w io.Writer, root string, saves []savesync.SaveEntry) {
	if len(saves) == 0 {
		fmt.Fprintf(w, "no saves in %s\n", root)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DIRECTORY\tNAME\tAREA\tTIME PLAYED\tMODIFIED")
	for _, e := range saves {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			filepath.Base(e.Path),
			e.Nfo.SaveName,
			e.Nfo.AreaName,
			timefmt.Format(float64(e.Nfo.TimePlayed)),
			e.Modified.Format("2006-01-02 15:04"),
		)
	}
	tw.Flush()
}

func (c *cli) newCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy <src> <dst>",
		Short: "Copy a save to another directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newSession()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := s.LoadFromDirectory(ctx, args[0]); err != nil {
				return err
			}
			if err := s.SaveToDirectory(ctx, args[1], s.Snapshot().Save); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied %q to %q\n", args[0], args[1])
			return nil
		},
	}
}

// edits are the changes requested on the edit command line.
type edits struct {
	name    string
	credits uint32
	bools   []string
	numbers []string
}

func (c *cli) newEditCmd() *cobra.Command {
	var e edits
	var out string
	cmd := &cobra.Command{
		Use:   "edit <dir>",
		Short: "Change fields of a save and write it back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newSession()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := s.LoadFromDirectory(ctx, args[0]); err != nil {
				return err
			}

			save := s.Snapshot().Save.Clone()
			if err := e.apply(&save, cmd.Flags().Changed); err != nil {
				return err
			}

			dst := args[0]
			if out != "" {
				dst = out
			}
			if err := s.SaveToDirectory(ctx, dst, save); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %q\n", dst)
			return nil
		},
	}
	cmd.Flags().StringVar(&e.name, "name", "", "new save name")
	cmd.Flags().Uint32Var(&e.credits, "credits", 0, "new credit count")
	cmd.Flags().StringArrayVar(&e.bools, "bool", nil, "set a boolean global, NAME=true|false (repeatable)")
	cmd.Flags().StringArrayVar(&e.numbers, "number", nil, "set a numeric global, NAME=0..255 (repeatable)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to this directory instead of overwriting the save")
	return cmd
}

// apply modifies save. changed reports whether a flag was given.
func (e edits) apply(save *savesync.Save, changed func(string) bool) error {
	if changed("name") {
		save.Nfo.SaveName = e.name
	}
	if changed("credits") {
		save.PartyTable.Credits = e.credits
	}
	for _, a := range e.bools {
		name, raw, err := splitAssignment(a)
		if err != nil {
			return err
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("--bool %s: %w", a, err)
		}
		save.Globals.SetBoolean(name, v)
	}
	for _, a := range e.numbers {
		name, raw, err := splitAssignment(a)
		if err != nil {
			return err
		}
		v, err := strconv.ParseUint(raw, 10, 8)
		if err != nil {
			return fmt.Errorf("--number %s: %w", a, err)
		}
		save.Globals.SetNumber(name, uint8(v))
	}
	return nil
}

func splitAssignment(a string) (name, value string, err error) {
	name, value, ok := strings.Cut(a, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid assignment %q, want NAME=VALUE", a)
	}
	return name, strings.TrimSpace(value), nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// printSummary writes a human readable description of snap.
func printSummary(w io.Writer, snap savesync.Snapshot, globals bool) {
	save := snap.Save
	fmt.Fprintf(w, "Path:        %s\n", snap.Path)
	fmt.Fprintf(w, "Save:        %s\n", save.Nfo.SaveName)
	fmt.Fprintf(w, "Game:        %s\n", save.Game())
	fmt.Fprintf(w, "Area:        %s\n", save.Nfo.AreaName)
	fmt.Fprintf(w, "Module:      %s\n", save.Nfo.LastModule)
	fmt.Fprintf(w, "Time played: %s\n", timefmt.Format(float64(save.Nfo.TimePlayed)))
	fmt.Fprintf(w, "Cheats used: %s\n", yesNo(save.Nfo.CheatUsed || save.PartyTable.CheatUsed))
	fmt.Fprintf(w, "Credits:     %d\n", save.PartyTable.Credits)
	fmt.Fprintf(w, "Party XP:    %d\n", save.PartyTable.PartyXP)
	fmt.Fprintf(w, "Party:       %d members\n", len(save.PartyTable.Members))
	fmt.Fprintf(w, "Journal:     %d entries\n", len(save.PartyTable.Journal))
	fmt.Fprintf(w, "Globals:     %d boolean, %d number\n", len(save.Globals.Booleans), len(save.Globals.Numbers))
	fmt.Fprintf(w, "Screenshot:  %s\n", yesNo(len(save.Screenshot) > 0))

	if !globals {
		return
	}
	for _, g := range save.Globals.Booleans {
		fmt.Fprintf(w, "  %-32s %t\n", g.Name, g.Value)
	}
	for _, g := range save.Globals.Numbers {
		fmt.Fprintf(w, "  %-32s %d\n", g.Name, g.Value)
	}
}
