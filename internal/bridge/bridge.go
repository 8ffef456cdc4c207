// Package bridge forwards reads and writes to a persistence engine and
// normalizes its failures into the domain error taxonomy.
//
// The bridge performs no caching and no validation of its own. It never
// recovers from an error; it only classifies it.
package bridge

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/bft-labs/savesync/internal/domain"
	"github.com/bft-labs/savesync/internal/ports"
	"github.com/bft-labs/savesync/pkg/log"
)

// Operation names used in classified errors.
const (
	OpRead  = "read"
	OpWrite = "write"
)

// Bridge translates ReadFromDirectory and SaveToDirectory into engine calls.
type Bridge[S any] struct {
	engine ports.Engine[S]
	logger log.Logger
}

// New creates a Bridge over engine. A nil logger discards output.
func New[S any](engine ports.Engine[S], logger log.Logger) *Bridge[S] {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Bridge[S]{engine: engine, logger: logger}
}

// ReadFromDirectory parses the save directory at path.
// On error the zero value is returned, never a partially parsed one.
func (b *Bridge[S]) ReadFromDirectory(ctx context.Context, path string) (S, error) {
	start := time.Now()
	save, err := b.engine.Read(ctx, path)
	if err != nil {
		var zero S
		cerr := Classify(OpRead, path, err)
		b.logger.Debug("read failed", log.Path(path), log.Err(cerr))
		return zero, cerr
	}

	b.logger.Debug("read save", log.Path(path), log.Duration("duration", time.Since(start)))
	return save, nil
}

// SaveToDirectory writes save to the directory at path.
func (b *Bridge[S]) SaveToDirectory(ctx context.Context, path string, save S) error {
	start := time.Now()
	if err := b.engine.Write(ctx, path, save); err != nil {
		cerr := Classify(OpWrite, path, err)
		b.logger.Debug("write failed", log.Path(path), log.Err(cerr))
		return cerr
	}

	b.logger.Debug("wrote save", log.Path(path), log.Duration("duration", time.Since(start)))
	return nil
}

// Classify maps err onto the taxonomy. Errors that are already classified are
// returned unchanged. A missing file or directory is ErrNotFound; anything
// else is ErrIOFailure. Write failures are always ErrIOFailure.
func Classify(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if kind := domain.KindOf(err); kind != nil {
		if op == OpWrite && kind != domain.ErrIOFailure {
			return domain.NewError(op, path, domain.ErrIOFailure, err)
		}
		return err
	}
	if op == OpRead && errors.Is(err, fs.ErrNotExist) {
		return domain.NewError(op, path, domain.ErrNotFound, err)
	}
	return domain.NewError(op, path, domain.ErrIOFailure, err)
}
