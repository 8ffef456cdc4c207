package ports

import (
	"context"

	"github.com/bft-labs/savesync/internal/domain"
)

// Engine is the persistence engine for values of type S.
// It owns the on-disk layout of a save directory.
type Engine[S any] interface {
	// Read parses the directory at path into a value.
	// Parsing is all-or-nothing: on error the returned value must be ignored.
	// Errors should wrap domain.ErrNotFound when the directory does not exist
	// and domain.ErrParseFailure when its contents are malformed.
	Read(ctx context.Context, path string) (S, error)

	// Write creates or overwrites the directory at path so that a subsequent
	// Read returns a value equal to save.
	// A value that cannot be encoded must fail before the directory is
	// touched. Implementations should avoid leaving the directory in a state
	// that represents neither the old nor the new value; the directory
	// engine narrows this to a crash between two per-file renames.
	Write(ctx context.Context, path string, save S) error
}

// Lister is implemented by engines that can find saves under a folder.
type Lister interface {
	// List returns the saves in the child directories of root.
	// Children that are not saves are skipped.
	List(ctx context.Context, root string) ([]domain.SaveEntry, error)
}
