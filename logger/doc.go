// Package logger provides structured logging for fixkit built on zerolog.
//
// Every fixkit package logs through this wrapper so test output stays
// uniform: console format for local runs, JSON for CI pipelines that
// collect logs. Use WithComponent to tag a sub-logger:
//
//	log := logger.NewDefault("fixkit").WithComponent("fixture")
//	log.Info("entity persisted", logger.Fields("model", "users", "id", id))
package logger
