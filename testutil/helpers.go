package testutil

import (
	"context"
	"testing"
)

// CleanupFunc performs cleanup, typically stopping a component.
type CleanupFunc func() error

// Setup starts a test component and returns a cleanup function to call
// (typically with defer) when the test finishes.
func Setup(component TestComponent) (CleanupFunc, error) {
	return SetupWithContext(context.Background(), component)
}

// SetupWithContext starts a test component with a custom context.
func SetupWithContext(ctx context.Context, component TestComponent) (CleanupFunc, error) {
	if err := component.Start(ctx); err != nil {
		return nil, err
	}
	return func() error {
		return component.Stop(ctx)
	}, nil
}

// Teardown stops a test component. The inverse of Setup, for symmetry.
func Teardown(component TestComponent) error {
	return component.Stop(context.Background())
}

// ResetComponent resets a test component to its initial state.
func ResetComponent(component TestComponent) error {
	return component.Reset(context.Background())
}

// THelper provides testing.T integration for test setup.
type THelper struct {
	t   *testing.T
	ctx context.Context
}

// T wraps a testing.T so components started through the helper are
// automatically stopped when the test ends.
//
//	func TestCheckout(t *testing.T) {
//	    testutil.T(t).Setup(dbComponent)
//	}
func T(t *testing.T) *THelper {
	return &THelper{
		t:   t,
		ctx: context.Background(),
	}
}

// WithContext sets a custom context for the helper.
func (h *THelper) WithContext(ctx context.Context) *THelper {
	h.ctx = ctx
	return h
}

// Setup starts a component and registers cleanup with testing.T.
func (h *THelper) Setup(component TestComponent) {
	h.t.Helper()
	if err := component.Start(h.ctx); err != nil {
		h.t.Fatalf("failed to start component %s: %v", component.Name(), err)
	}

	h.t.Cleanup(func() {
		if err := component.Stop(h.ctx); err != nil {
			h.t.Errorf("failed to stop component %s: %v", component.Name(), err)
		}
	})
}

// Scenario runs the component's scenario hooks around the test: the
// before-hook now, the after-hook at cleanup. Components without scenario
// hooks are ignored.
func (h *THelper) Scenario(component TestComponent, name string) {
	h.t.Helper()
	sa, ok := component.(ScenarioAware)
	if !ok {
		return
	}
	if err := sa.BeforeScenario(h.ctx, name); err != nil {
		h.t.Fatalf("before-scenario failed for %s: %v", component.Name(), err)
	}
	h.t.Cleanup(func() {
		if err := sa.AfterScenario(h.ctx, name); err != nil {
			h.t.Errorf("after-scenario failed for %s: %v", component.Name(), err)
		}
	})
}

// Reset resets a component to its initial state.
func (h *THelper) Reset(component TestComponent) {
	h.t.Helper()
	if err := component.Reset(h.ctx); err != nil {
		h.t.Fatalf("failed to reset component %s: %v", component.Name(), err)
	}
}

// Snapshot captures the current state of a component.
func (h *THelper) Snapshot(component TestComponent) interface{} {
	h.t.Helper()
	snapshot, err := component.Snapshot(h.ctx)
	if err != nil {
		h.t.Fatalf("failed to snapshot component %s: %v", component.Name(), err)
	}
	return snapshot
}

// Restore returns a component to a previously captured state.
func (h *THelper) Restore(component TestComponent, snapshot interface{}) {
	h.t.Helper()
	if err := component.Restore(h.ctx, snapshot); err != nil {
		h.t.Fatalf("failed to restore component %s: %v", component.Name(), err)
	}
}
