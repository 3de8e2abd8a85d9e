// Package validation validates factory-built entities before they are
// persisted.
//
// It supports struct tag validation (using the validator library) and
// programmatic validation with error collection. Fixtures that fail
// validation never reach the database, which turns silent bad test data
// into an immediate, explained failure.
//
//	type User struct {
//	    Name  string `validate:"required,min=2"`
//	    Email string `validate:"required,email"`
//	}
//	err := validation.Validate(user)
package validation
