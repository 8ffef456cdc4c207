package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/savesync/internal/domain"
	"github.com/bft-labs/savesync/internal/ports"
	"github.com/bft-labs/savesync/pkg/log"
)

// Save directory file names.
const (
	NfoFile        = "savenfo.toml"
	GlobalsFile    = "globalvars.toml"
	PartyTableFile = "partytable.toml"
	ScreenshotFile = "screen.tga"
)

// Suffixes of files the engine creates next to the save files.
const (
	TempSuffix   = ".tmp"
	BackupSuffix = ".bak"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// rename is os.Rename, replaced in tests to fail part way through a write.
var rename = os.Rename

// DirectoryEngine reads and writes domain.Save values as save directories.
// It is safe for concurrent use on different directories.
type DirectoryEngine struct {
	backup bool
	logger log.Logger
}

var (
	_ ports.Engine[domain.Save] = (*DirectoryEngine)(nil)
	_ ports.Lister              = (*DirectoryEngine)(nil)
)

// Option configures a DirectoryEngine.
type Option func(*DirectoryEngine)

// WithBackup makes Write copy each file it replaces to <name>.bak first.
func WithBackup(enabled bool) Option {
	return func(e *DirectoryEngine) {
		e.backup = enabled
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger log.Logger) Option {
	return func(e *DirectoryEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewDirectoryEngine creates a DirectoryEngine.
func NewDirectoryEngine(opts ...Option) *DirectoryEngine {
	e := &DirectoryEngine{logger: log.NewNoopLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Read parses the save directory at dir. The three TOML files are decoded
// concurrently; unknown keys are rejected.
func (e *DirectoryEngine) Read(ctx context.Context, dir string) (domain.Save, error) {
	if err := ctx.Err(); err != nil {
		return domain.Save{}, err
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		return domain.Save{}, domain.NewError("read", dir, domain.ErrNotFound, err)
	case err != nil:
		return domain.Save{}, domain.NewError("read", dir, domain.ErrIOFailure, err)
	case !info.IsDir():
		return domain.Save{}, domain.NewError("read", dir, domain.ErrNotFound, errors.New("not a directory"))
	}

	files, err := readFileMap(dir)
	if err != nil {
		return domain.Save{}, domain.NewError("read", dir, domain.ErrIOFailure, err)
	}

	var save domain.Save
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return decodeFile(gctx, dir, files, NfoFile, &save.Nfo) })
	g.Go(func() error { return decodeFile(gctx, dir, files, GlobalsFile, &save.Globals) })
	g.Go(func() error { return decodeFile(gctx, dir, files, PartyTableFile, &save.PartyTable) })
	g.Go(func() error {
		name, ok := files.lookup(ScreenshotFile)
		if !ok {
			return nil
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return domain.NewError("read", filepath.Join(dir, name), domain.ErrIOFailure, err)
		}
		save.Screenshot = data
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Save{}, err
	}

	e.logger.Debug("read save directory",
		log.Path(dir),
		log.String("save_name", save.Nfo.SaveName),
		log.Int("globals", save.Globals.Count()),
	)
	return save.Normalize(), nil
}

// decodeFile strictly decodes the required file name in dir into v.
func decodeFile(ctx context.Context, dir string, files fileMap, name string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	actual, ok := files.lookup(name)
	if !ok {
		return domain.NewError("read", filepath.Join(dir, name), domain.ErrParseFailure, errors.New("missing required file"))
	}
	path := filepath.Join(dir, actual)

	data, err := os.ReadFile(path)
	if errors.Is(err, iofs.ErrNotExist) {
		return domain.NewError("read", path, domain.ErrParseFailure, err)
	}
	if err != nil {
		return domain.NewError("read", path, domain.ErrIOFailure, err)
	}

	if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(v); err != nil {
		return domain.NewError("decode", path, domain.ErrParseFailure, err)
	}
	return nil
}

// stagedFile is an encoded file waiting to be renamed into place.
type stagedFile struct {
	target string
	temp   string

	// prev is a copy of the file being replaced, empty if there was none.
	prev string
}

// Write stores save in dir, creating it if needed. The save is encoded and
// every file is staged before anything in dir is replaced; if encoding or
// staging fails the directory is left as it was. Files are then renamed
// into place one by one. If a rename fails, the files already replaced are
// restored from copies taken just before. A crash between two renames can
// still leave old and new files side by side.
func (e *DirectoryEngine) Write(ctx context.Context, dir string, save domain.Save) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	contents, err := encodeSave(save)
	if err != nil {
		return domain.NewError("encode", dir, domain.ErrIOFailure, err)
	}

	if err := os.MkdirAll(dir, dirMode); err != nil {
		return domain.NewError("write", dir, domain.ErrIOFailure, err)
	}
	files, err := readFileMap(dir)
	if err != nil {
		return domain.NewError("write", dir, domain.ErrIOFailure, err)
	}

	staged := make([]stagedFile, 0, len(contents))
	cleanup := func() {
		for _, s := range staged {
			_ = os.Remove(s.temp)
			if s.prev != "" {
				_ = os.Remove(s.prev)
			}
		}
	}

	for _, c := range contents {
		target := filepath.Join(dir, files.nameFor(c.name))
		temp, err := stage(dir, filepath.Base(target), c.data)
		if err != nil {
			cleanup()
			return domain.NewError("write", target, domain.ErrIOFailure, err)
		}
		staged = append(staged, stagedFile{target: target, temp: temp})
	}

	var stale string
	if len(save.Screenshot) == 0 {
		if name, ok := files.lookup(ScreenshotFile); ok {
			stale = filepath.Join(dir, name)
		}
	}

	if e.backup {
		for _, s := range staged {
			if err := backupFile(s.target); err != nil {
				cleanup()
				return domain.NewError("backup", s.target, domain.ErrIOFailure, err)
			}
		}
		if stale != "" {
			if err := backupFile(stale); err != nil {
				cleanup()
				return domain.NewError("backup", stale, domain.ErrIOFailure, err)
			}
		}
	}

	for i := range staged {
		prev, err := keep(dir, staged[i].target)
		if err != nil {
			cleanup()
			return domain.NewError("write", staged[i].target, domain.ErrIOFailure, err)
		}
		staged[i].prev = prev
	}

	if err := ctx.Err(); err != nil {
		cleanup()
		return err
	}

	for i, s := range staged {
		if err := rename(s.temp, s.target); err != nil {
			restore(staged[:i])
			cleanup()
			return domain.NewError("write", s.target, domain.ErrIOFailure, err)
		}
	}
	for _, s := range staged {
		if s.prev != "" {
			_ = os.Remove(s.prev)
		}
	}
	if stale != "" {
		if err := os.Remove(stale); err != nil && !errors.Is(err, iofs.ErrNotExist) {
			return domain.NewError("write", stale, domain.ErrIOFailure, err)
		}
	}

	e.logger.Debug("wrote save directory",
		log.Path(dir),
		log.Int("files", len(staged)),
		log.Bool("backup", e.backup),
	)
	return nil
}

// keep copies target to a temp file in dir and returns its path. It returns
// "" if target does not exist.
func keep(dir, target string) (string, error) {
	f, err := os.CreateTemp(dir, filepath.Base(target)+".*"+TempSuffix)
	if err != nil {
		return "", err
	}
	prev := f.Name()
	f.Close()

	if err := copyFile(target, prev); err != nil {
		os.Remove(prev)
		if errors.Is(err, iofs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return prev, nil
}

// restore puts back the files replaced by the given staged entries. Files
// that did not exist before are removed.
func restore(replaced []stagedFile) {
	for _, s := range replaced {
		if s.prev == "" {
			_ = os.Remove(s.target)
			continue
		}
		_ = rename(s.prev, s.target)
	}
}

type fileContent struct {
	name string
	data []byte
}

// encodeSave renders every file of save.
func encodeSave(save domain.Save) ([]fileContent, error) {
	if err := checkUTF8(save); err != nil {
		return nil, err
	}

	docs := []struct {
		name string
		v    any
	}{
		{NfoFile, save.Nfo},
		{GlobalsFile, save.Globals},
		{PartyTableFile, save.PartyTable},
	}

	out := make([]fileContent, 0, len(docs)+1)
	for _, d := range docs {
		data, err := toml.Marshal(d.v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", d.name, err)
		}
		out = append(out, fileContent{name: d.name, data: data})
	}
	if len(save.Screenshot) > 0 {
		out = append(out, fileContent{name: ScreenshotFile, data: save.Screenshot})
	}
	return out, nil
}

// stage writes data to a new temp file next to name in dir and returns
// its path.
func stage(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, name+".*"+TempSuffix)
	if err != nil {
		return "", err
	}
	temp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(temp)
		return "", err
	}
	if err := f.Chmod(fileMode); err != nil {
		f.Close()
		os.Remove(temp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(temp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(temp)
		return "", err
	}
	return temp, nil
}

// checkUTF8 rejects strings that would produce TOML no reader accepts.
func checkUTF8(save domain.Save) error {
	check := func(field, v string) error {
		if !utf8.ValidString(v) {
			return fmt.Errorf("%s %q: invalid UTF-8", field, v)
		}
		return nil
	}

	nfo := save.Nfo
	for _, f := range []struct{ name, v string }{
		{"save_name", nfo.SaveName},
		{"area_name", nfo.AreaName},
		{"last_module", nfo.LastModule},
	} {
		if err := check(f.name, f.v); err != nil {
			return err
		}
	}
	for _, g := range save.Globals.Booleans {
		if err := check("boolean global", g.Name); err != nil {
			return err
		}
	}
	for _, g := range save.Globals.Numbers {
		if err := check("number global", g.Name); err != nil {
			return err
		}
	}
	for _, j := range save.PartyTable.Journal {
		if err := check("journal id", j.ID); err != nil {
			return err
		}
	}
	return nil
}

// backupFile copies path to path.bak. A missing path is not an error.
func backupFile(path string) error {
	if err := copyFile(path, path+BackupSuffix); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return err
	}
	return nil
}

// copyFile copies src over dst. A missing src is reported as
// iofs.ErrNotExist and dst is not created.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
