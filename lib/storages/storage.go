package storages

import (
	"context"

	"github.com/pescuma/tia/lib/model"
)

// Storage reads repository state and persists one notes blob per commit.
type Storage interface {
	// GetState returns nil, without error, when there is no repository or no commit.
	GetState(ctx context.Context) (*model.State, error)

	// IsClean checks the work tree now, ignoring any previous state.
	IsClean(ctx context.Context) (bool, error)

	// ReadNotes returns the notes attached to HEAD, or "".
	ReadNotes(ctx context.Context) (string, error)

	// WriteNotes attaches notes to HEAD. Returns false when the work tree is not clean
	// and nothing was written.
	WriteNotes(ctx context.Context, notes string) (bool, error)

	// RemoveNotes removes the notes attached to HEAD, if any.
	RemoveNotes(ctx context.Context) error
}

type Factory = func(root string) (Storage, error)
