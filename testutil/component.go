package testutil

import (
	"context"

	"github.com/kbukum/svcreg/component"
)

// TestComponent extends component.Component with state control for tests.
// Stub registries and providers implement it so a test can start them,
// clear recorded traffic between cases, and rewind to a known state.
type TestComponent interface {
	component.Component

	// Reset clears all state recorded since Start.
	Reset(ctx context.Context) error

	// Snapshot captures the current state for a later Restore.
	Snapshot(ctx context.Context) (interface{}, error)

	// Restore rewinds to a value returned by Snapshot.
	Restore(ctx context.Context, snapshot interface{}) error
}
