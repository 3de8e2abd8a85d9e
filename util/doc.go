// Package util holds small helpers shared across fixkit packages.
// Pointer helpers matter most here: fixture overrides and nullable model
// columns constantly need a *string or *int literal.
package util
