package fs

import (
	"bytes"
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/savesync/internal/domain"
	"github.com/bft-labs/savesync/pkg/log"
)

// List returns the saves found in the child directories of root, sorted by
// directory name. A child counts as a save when it holds a readable
// savenfo.toml; other children are skipped.
func (e *DirectoryEngine) List(ctx context.Context, root string) ([]domain.SaveEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(root)
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		return nil, domain.NewError("list", root, domain.ErrNotFound, err)
	case err != nil:
		return nil, domain.NewError("list", root, domain.ErrIOFailure, err)
	}

	saves := make([]domain.SaveEntry, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		save, ok := e.readEntry(dir)
		if !ok {
			continue
		}
		saves = append(saves, save)
	}

	sort.Slice(saves, func(i, j int) bool {
		return strings.ToLower(filepath.Base(saves[i].Path)) < strings.ToLower(filepath.Base(saves[j].Path))
	})
	return saves, nil
}

// readEntry decodes the save summary of dir.
func (e *DirectoryEngine) readEntry(dir string) (domain.SaveEntry, bool) {
	files, err := readFileMap(dir)
	if err != nil {
		e.logger.Debug("skipping unreadable directory", log.Path(dir), log.Err(err))
		return domain.SaveEntry{}, false
	}
	name, ok := files.lookup(NfoFile)
	if !ok {
		return domain.SaveEntry{}, false
	}
	path := filepath.Join(dir, name)

	info, err := os.Stat(path)
	if err != nil {
		e.logger.Debug("skipping unreadable save", log.Path(dir), log.Err(err))
		return domain.SaveEntry{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.Debug("skipping unreadable save", log.Path(dir), log.Err(err))
		return domain.SaveEntry{}, false
	}

	var nfo domain.Nfo
	if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&nfo); err != nil {
		e.logger.Warn("skipping malformed save", log.Path(dir), log.Err(err))
		return domain.SaveEntry{}, false
	}
	return domain.SaveEntry{Path: dir, Modified: info.ModTime(), Nfo: nfo}, true
}
