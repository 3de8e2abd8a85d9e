// Package testutil manages test infrastructure lifecycles: starting
// components for a suite, resetting them between scenarios, and wiring
// cleanup into testing.T.
package testutil
