// Package store persists the application-state document as a single
// serialized blob. The engine and services mutate the in-memory state;
// a failed save surfaces an error but does not roll those mutations
// back.
package store

import (
	"context"

	"github.com/expensedesk/expensedesk/internal/domain/entity"
)

// Store is the persistence collaborator for the state document.
type Store interface {
	// Load returns the persisted document, or (nil, nil) when no
	// document has been saved yet.
	Load(ctx context.Context) (*entity.AppState, error)

	// Save persists the whole document, replacing any previous one.
	Save(ctx context.Context, state *entity.AppState) error

	// Clear removes the persisted document.
	Clear(ctx context.Context) error
}
