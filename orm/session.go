package orm

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/fixkit/errors"
)

// Session is the unit-of-work a test scenario runs inside. It wraps a
// transaction on the root connection so every write made during the scenario
// disappears on Rollback, restoring the database for the next one.
//
// Flush establishes a savepoint: writes made before it survive a later
// partial rollback inside the scenario, while the scenario-level Rollback
// still undoes everything.
type Session struct {
	mu         sync.Mutex
	root       *gorm.DB
	tx         *gorm.DB
	savepoints int
}

// NewSession creates a session rooted at the given connection. No transaction
// is opened until Begin.
func NewSession(root *gorm.DB) *Session {
	return &Session{root: root}
}

// DB returns the handle queries should run on: the open transaction if one
// exists, the root connection otherwise.
func (s *Session) DB() *gorm.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return s.tx
	}
	return s.root
}

// WithContext returns the active handle scoped to ctx.
func (s *Session) WithContext(ctx context.Context) *gorm.DB {
	return s.DB().WithContext(ctx)
}

// InTransaction reports whether a scenario transaction is open.
func (s *Session) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}

// Begin opens the scenario transaction. Calling Begin with a transaction
// already open is a no-op; scenarios nest through savepoints, not
// transactions.
func (s *Session) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx != nil {
		return nil
	}

	tx := s.root.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("beginning scenario transaction: %w", tx.Error)
	}
	s.tx = tx
	s.savepoints = 0
	return nil
}

// Flush forces buffered writes to the database inside the open transaction
// by releasing and recreating a savepoint. Queries issued afterwards observe
// everything written so far without committing any of it.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return apperrors.NotStarted("session")
	}

	s.savepoints++
	name := fmt.Sprintf("fixkit_sp_%d", s.savepoints)
	if err := s.tx.WithContext(ctx).SavePoint(name).Error; err != nil {
		s.savepoints--
		return fmt.Errorf("creating savepoint %s: %w", name, err)
	}
	return nil
}

// RollbackToFlush undoes writes made since the most recent Flush. Without a
// prior Flush it is equivalent to Rollback followed by Begin.
func (s *Session) RollbackToFlush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return apperrors.NotStarted("session")
	}
	if s.savepoints == 0 {
		if err := s.tx.Rollback().Error; err != nil {
			return fmt.Errorf("rolling back scenario transaction: %w", err)
		}
		tx := s.root.WithContext(ctx).Begin()
		if tx.Error != nil {
			s.tx = nil
			return fmt.Errorf("reopening scenario transaction: %w", tx.Error)
		}
		s.tx = tx
		return nil
	}

	name := fmt.Sprintf("fixkit_sp_%d", s.savepoints)
	if err := s.tx.WithContext(ctx).RollbackTo(name).Error; err != nil {
		return fmt.Errorf("rolling back to savepoint %s: %w", name, err)
	}
	s.savepoints--
	return nil
}

// Rollback discards the scenario transaction and all writes made in it.
// Safe to call when no transaction is open.
func (s *Session) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback().Error
	s.tx = nil
	s.savepoints = 0
	if err != nil {
		return fmt.Errorf("rolling back scenario transaction: %w", err)
	}
	return nil
}

// Commit commits the scenario transaction. Suites that want fixtures to
// outlive the scenario (cleanup disabled) use this instead of Rollback.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit().Error
	s.tx = nil
	s.savepoints = 0
	if err != nil {
		return fmt.Errorf("committing scenario transaction: %w", err)
	}
	return nil
}

// Reset discards the session state entirely: any open transaction is rolled
// back and the session returns to its pre-Begin state.
func (s *Session) Reset() error {
	return s.Rollback()
}
