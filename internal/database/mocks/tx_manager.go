// Package mocks provides mock implementations for testing database utilities.
package mocks

import (
	"context"
)

// FakeTxManager is a TxManager that runs the function without a transaction.
// Use it in use case tests where transactional behavior is not under test.
type FakeTxManager struct {
	// Err, when set, is returned without invoking the function.
	Err error
}

// WithTx executes fn directly, or returns Err if set.
func (f *FakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.Err != nil {
		return f.Err
	}
	return fn(ctx)
}
