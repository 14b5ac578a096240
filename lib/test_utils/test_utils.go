package test_utils

import (
	"context"

	"evote-node/lib/utils"
	"evote-node/modules/db"

	"github.com/chebyrash/promise"
)

// MockPlugin provides no-op lifecycle methods for in-memory mocks.
type MockPlugin struct{}

func (MockPlugin) Init() error {
	return nil
}

func (MockPlugin) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

func (MockPlugin) Stop() error {
	return nil
}

// txStore is satisfied by mocks whose state a MockTransactor snapshots
// before a transaction and restores on rollback.
type txStore interface {
	snapshot() func()
}

// MockTransactor gives in-memory mocks the all-or-nothing commit of a
// Mongo multi-document transaction: when the callback errors, every
// enrolled store is restored to its pre-transaction state.
type MockTransactor struct {
	stores []txStore
}

var _ db.Transactor = &MockTransactor{}

func NewMockTransactor(stores ...txStore) *MockTransactor {
	return &MockTransactor{stores: stores}
}

// WithTransaction implements db.Transactor.
func (m *MockTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	restores := make([]func(), 0, len(m.stores))
	for _, s := range m.stores {
		restores = append(restores, s.snapshot())
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}
