package fixture

import (
	"context"
	"fmt"

	"github.com/kbukum/fixkit/component"
	apperrors "github.com/kbukum/fixkit/errors"
	"github.com/kbukum/fixkit/logger"
	"github.com/kbukum/fixkit/testutil"
)

var (
	_ testutil.TestComponent = (*Module)(nil)
	_ testutil.ScenarioAware = (*Module)(nil)
	_ component.Describable  = (*Module)(nil)
)

// Name returns the component's registration name.
func (m *Module) Name() string { return m.name }

// Start validates configuration and opens the module's session. The
// database component must already be started.
func (m *Module) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}
	if m.db == nil {
		return apperrors.InvalidInput("db", "fixture module requires a database")
	}
	if err := m.cfg.Validate(); err != nil {
		return apperrors.Validation(err.Error())
	}

	m.session = m.db.Session()
	m.started = true
	m.log.Info("fixture module started", logger.Fields(
		"cleanup", m.cfg.CleanupEnabled(),
		"max_join_depth", m.cfg.MaxJoinDepth,
	))
	return nil
}

// Stop rolls back any open scenario transaction and clears the registry.
func (m *Module) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return nil
	}
	if m.session != nil {
		if err := m.session.Reset(); err != nil {
			m.log.Warn("failed to discard session on stop", logger.ErrorFields("stop", err))
		}
	}
	m.registry.Clear()
	m.session = nil
	m.started = false
	m.scenario = ""
	m.log.Info("fixture module stopped")
	return nil
}

// Health reports healthy while started and the database answers pings.
func (m *Module) Health(ctx context.Context) component.Health {
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()

	if !started {
		return component.Health{Name: m.name, Status: component.StatusUnhealthy, Message: "not started"}
	}
	if err := m.db.PingContext(ctx); err != nil {
		return component.Health{Name: m.name, Status: component.StatusUnhealthy, Message: err.Error()}
	}
	return component.Health{Name: m.name, Status: component.StatusHealthy}
}

// Describe reports the module for suite startup logging.
func (m *Module) Describe() component.Description {
	m.mu.Lock()
	defer m.mu.Unlock()
	return component.Description{
		Name: m.name,
		Type: "fixture",
		Details: fmt.Sprintf("cleanup=%t max_join_depth=%d factories=%d",
			m.cfg.CleanupEnabled(), m.cfg.MaxJoinDepth, len(m.factories.Models())),
	}
}

// BeforeScenario opens the scenario transaction when cleanup is on and
// remembers the scenario name for logging.
func (m *Module) BeforeScenario(ctx context.Context, name string) error {
	sess, err := m.guard()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.scenario = name
	cleanup := m.cfg.CleanupEnabled()
	m.mu.Unlock()

	if cleanup {
		if err := sess.Begin(ctx); err != nil {
			return err
		}
	}
	m.log.Debug("scenario started", logger.Fields(logger.FieldScenario, name))
	return nil
}

// AfterScenario clears the registry and ends the scenario transaction:
// rolled back when cleanup is on, committed otherwise.
func (m *Module) AfterScenario(ctx context.Context, name string) error {
	sess, err := m.guard()
	if err != nil {
		return err
	}

	m.registry.Clear()
	m.mu.Lock()
	cleanup := m.cfg.CleanupEnabled()
	m.scenario = ""
	m.mu.Unlock()

	if cleanup {
		err = sess.Rollback()
	} else {
		err = sess.Commit()
	}
	if err != nil {
		return err
	}
	m.log.Debug("scenario finished", logger.Fields(logger.FieldScenario, name))
	return nil
}

// Reset returns the module to its freshly started state: registry cleared,
// pending writes discarded, factory sequences rewound.
func (m *Module) Reset(ctx context.Context) error {
	sess, err := m.guard()
	if err != nil {
		return err
	}

	m.registry.Clear()
	m.factories.ResetSequences()
	m.mu.Lock()
	m.scenario = ""
	m.mu.Unlock()
	return sess.Reset()
}

// Snapshot captures the fixture registry. Database state is not captured;
// it is governed by the scenario transaction.
func (m *Module) Snapshot(ctx context.Context) (interface{}, error) {
	if _, err := m.guard(); err != nil {
		return nil, err
	}
	return m.registry.snapshot(), nil
}

// Restore replaces the fixture registry with a previously captured snapshot.
func (m *Module) Restore(ctx context.Context, snapshot interface{}) error {
	if _, err := m.guard(); err != nil {
		return err
	}
	snap, ok := snapshot.(registrySnapshot)
	if !ok {
		return apperrors.InvalidInput("snapshot", fmt.Sprintf("unexpected snapshot type %T", snapshot))
	}
	m.registry.restore(snap)
	return nil
}
