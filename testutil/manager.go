package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Manager provides lifecycle management for multiple test components: start
// them together for a suite, reset between cases, and run scenario hooks on
// the components that care about them.
type Manager struct {
	ctx        context.Context
	components []TestComponent
	mu         sync.RWMutex
}

// NewManager creates a new test component manager.
func NewManager(ctx context.Context) *Manager {
	return &Manager{
		ctx:        ctx,
		components: make([]TestComponent, 0),
	}
}

// Add registers a test component with the manager.
func (m *Manager) Add(component TestComponent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component)
}

// Components returns all registered components.
func (m *Manager) Components() []TestComponent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]TestComponent, len(m.components))
	copy(result, m.components)
	return result
}

// Get retrieves a component by name, or nil when absent.
func (m *Manager) Get(name string) TestComponent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, comp := range m.components {
		if comp.Name() == name {
			return comp
		}
	}
	return nil
}

// StartAll starts all registered components in registration order. The
// first failure aborts the start.
func (m *Manager) StartAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, comp := range m.components {
		if err := comp.Start(m.ctx); err != nil {
			return fmt.Errorf("failed to start component %s: %w", comp.Name(), err)
		}
	}
	return nil
}

// StopAll stops all registered components in reverse order. Failures do not
// stop the teardown; they are joined and returned together.
func (m *Manager) StopAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []error
	for i := len(m.components) - 1; i >= 0; i-- {
		comp := m.components[i]
		if err := comp.Stop(m.ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop component %s: %w", comp.Name(), err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ResetAll resets all registered components to their initial state.
func (m *Manager) ResetAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, comp := range m.components {
		if err := comp.Reset(m.ctx); err != nil {
			return fmt.Errorf("failed to reset component %s: %w", comp.Name(), err)
		}
	}
	return nil
}

// BeforeScenario notifies every scenario-aware component that a scenario is
// about to run.
func (m *Manager) BeforeScenario(name string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, comp := range m.components {
		sa, ok := comp.(ScenarioAware)
		if !ok {
			continue
		}
		if err := sa.BeforeScenario(m.ctx, name); err != nil {
			return fmt.Errorf("before-scenario failed for %s: %w", comp.Name(), err)
		}
	}
	return nil
}

// AfterScenario notifies scenario-aware components in reverse order that the
// scenario finished. All components are notified even when some fail.
func (m *Manager) AfterScenario(name string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []error
	for i := len(m.components) - 1; i >= 0; i-- {
		sa, ok := m.components[i].(ScenarioAware)
		if !ok {
			continue
		}
		if err := sa.AfterScenario(m.ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("after-scenario failed for %s: %w", m.components[i].Name(), err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Cleanup is an alias for StopAll, convenient with defer or t.Cleanup.
func (m *Manager) Cleanup() error {
	return m.StopAll()
}
