package testutil

import (
	"context"

	"github.com/kbukum/fixkit/component"
)

// TestComponent extends component.Component with testing-specific lifecycle
// methods. Test components serve both as regular components in a registry
// and as test helpers with Reset/Snapshot/Restore capabilities.
type TestComponent interface {
	component.Component

	// Reset restores the component to its initial state, typically between
	// test cases to keep them isolated.
	Reset(ctx context.Context) error

	// Snapshot captures the current state of the component. The returned
	// value can be passed to Restore to return to this state.
	Snapshot(ctx context.Context) (interface{}, error)

	// Restore returns the component to a previously captured state.
	Restore(ctx context.Context, snapshot interface{}) error
}

// ScenarioAware is optionally implemented by components that need to know
// scenario boundaries, e.g. to open a transaction per scenario and roll it
// back afterwards.
type ScenarioAware interface {
	BeforeScenario(ctx context.Context, name string) error
	AfterScenario(ctx context.Context, name string) error
}
