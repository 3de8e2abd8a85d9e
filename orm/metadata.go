package orm

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"gorm.io/gorm/schema"

	apperrors "github.com/kbukum/fixkit/errors"
)

// schemaCache holds parsed model schemas. GORM's parser is expensive, and
// fixture suites resolve the same handful of models thousands of times.
var (
	schemaCache  = &sync.Map{}
	schemaNamer  = schema.NamingStrategy{}
	schemaParseM sync.Mutex
)

// Metadata returns GORM's parsed schema for a model value or pointer.
func Metadata(model interface{}) (*schema.Schema, error) {
	if model == nil {
		return nil, apperrors.InvalidInput("model", "must not be nil")
	}
	schemaParseM.Lock()
	defer schemaParseM.Unlock()

	sch, err := schema.Parse(model, schemaCache, schemaNamer)
	if err != nil {
		return nil, fmt.Errorf("parsing schema for %T: %w", model, err)
	}
	return sch, nil
}

// TableName resolves the database table a model maps to.
func TableName(model interface{}) (string, error) {
	sch, err := Metadata(model)
	if err != nil {
		return "", err
	}
	return sch.Table, nil
}

// ModelName returns the bare struct name of a model, stripped of pointers.
func ModelName(model interface{}) string {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return "<nil>"
	}
	return t.Name()
}

// PrimaryKey extracts the primary key column and value from an entity.
// isZero reports whether the key is still unset (entity not persisted yet).
// Composite keys use the prioritized field, matching how lookups by a single
// identifier behave elsewhere in the module.
func PrimaryKey(entity interface{}) (column string, value interface{}, isZero bool, err error) {
	sch, err := Metadata(entity)
	if err != nil {
		return "", nil, false, err
	}

	field := sch.PrioritizedPrimaryField
	if field == nil {
		return "", nil, false, apperrors.InvalidInput("entity", fmt.Sprintf("%s has no primary key", sch.Name))
	}

	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "", nil, false, apperrors.InvalidInput("entity", "must not be a nil pointer")
		}
		rv = rv.Elem()
	}

	value, isZero = field.ValueOf(context.Background(), rv)
	return field.DBName, value, isZero, nil
}

// PrimaryKeyString renders an entity's primary key as a registry key.
func PrimaryKeyString(entity interface{}) (string, error) {
	_, value, isZero, err := PrimaryKey(entity)
	if err != nil {
		return "", err
	}
	if isZero {
		return "", apperrors.InvalidInput("entity", "primary key is not set")
	}
	return fmt.Sprintf("%v", value), nil
}
