package factory

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Seq is a monotonically increasing counter shared by one factory. Safe for
// concurrent use.
type Seq struct {
	n atomic.Int64
}

// Next returns the next sequence number, starting at 1.
func (s *Seq) Next() int64 {
	return s.n.Add(1)
}

// Current returns the last number handed out without advancing.
func (s *Seq) Current() int64 {
	return s.n.Load()
}

// Stringf renders the next sequence number into a format string, e.g.
// Stringf("user-%d@example.com").
func (s *Seq) Stringf(format string) string {
	return fmt.Sprintf(format, s.Next())
}

// UUID returns a fresh random identifier for entities keyed by UUID.
func (s *Seq) UUID() string {
	return uuid.NewString()
}

// Reset rewinds the counter to zero. Used between scenarios when a suite
// wants reproducible generated values.
func (s *Seq) Reset() {
	s.n.Store(0)
}
