package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/expensedesk/expensedesk/internal/apperr"
	"github.com/expensedesk/expensedesk/internal/domain/entity"
)

// MemoryStore keeps the serialized document in memory. Used by tests
// and demo runs that should not touch disk.
type MemoryStore struct {
	document []byte

	// FailSaves makes every Save return a storage error, for testing
	// the no-rollback contract.
	FailSaves bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context) (*entity.AppState, error) {
	if m.document == nil {
		return nil, nil
	}
	var state entity.AppState
	if err := json.Unmarshal(m.document, &state); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", apperr.ErrStorage, err)
	}
	return &state, nil
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, state *entity.AppState) error {
	if m.FailSaves {
		return fmt.Errorf("%w: save rejected", apperr.ErrStorage)
	}
	document, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", apperr.ErrStorage, err)
	}
	m.document = document
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.document = nil
	return nil
}

// Verify interface compliance
var _ Store = (*MemoryStore)(nil)
