// Package service implements the application operations the UI drives:
// authentication, user administration, expense submission and
// approval, and policy settings. Services share one explicitly owned
// application state and persist it as a whole after each mutation.
package service

import (
	"context"
	"sync"

	"github.com/expensedesk/expensedesk/internal/domain/entity"
	"github.com/expensedesk/expensedesk/internal/infrastructure/store"
)

// App bundles the process-owned state document with its persistence
// collaborator. A single mutex serializes operations: the system is
// single-session and every operation completes in one synchronous
// step, so finer-grained locking buys nothing.
type App struct {
	mu    sync.Mutex
	State *entity.AppState
	Store store.Store
}

// NewApp creates the application around an existing state document.
func NewApp(state *entity.AppState, st store.Store) *App {
	if state == nil {
		state = entity.NewAppState()
	}
	return &App{State: state, Store: st}
}

func (a *App) lock() func() {
	a.mu.Lock()
	return a.mu.Unlock
}

// save persists the whole document. In-memory mutations stand even
// when the save fails; the caller surfaces the error.
func (a *App) save(ctx context.Context) error {
	return a.Store.Save(ctx, a.State)
}
