package mocks

import (
	"context"
	"sync"

	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

// FakeTransactor implements store.Transactor by calling the function
// directly with a nil transaction. The in-memory stores ignore the
// transaction handle, so the pass-through preserves the services'
// behavior without a database.
type FakeTransactor struct {
	mu    sync.Mutex
	Err   error // returned instead of running fn when set
	Calls int
}

// InTransaction implements store.Transactor.
func (t *FakeTransactor) InTransaction(ctx context.Context, fn store.TxFn) error {
	t.mu.Lock()
	t.Calls++
	err := t.Err
	t.mu.Unlock()

	if err != nil {
		return err
	}
	return fn(ctx, nil)
}
