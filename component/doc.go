// Package component defines the lifecycle interface shared by fixkit
// infrastructure pieces (database handle, fixture module, test doubles).
// A suite starts components before scenarios run and stops them in reverse
// order afterwards; health checks let long suites detect a backend that
// died mid-run.
package component
