// Package factory registers data creators that produce entity values for
// fixtures. A Definition pairs a constructor for the zero entity with an
// attribute generator fed by a per-factory sequence, so every generated
// entity is unique without the test spelling out each field.
package factory
