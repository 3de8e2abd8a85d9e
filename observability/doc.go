// Package observability provides OpenTelemetry tracing and metrics for
// fixkit. Long acceptance suites export spans per fixture operation and
// counters for created fixtures and built queries, which makes slow
// scenarios and fixture-heavy tests visible in the same tooling the
// service under test already uses.
//
// Initialization is optional: when no provider is installed, the otel API
// no-ops and fixkit adds no overhead worth mentioning.
package observability
