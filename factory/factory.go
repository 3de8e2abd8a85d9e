package factory

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/kbukum/fixkit/errors"
)

// Attrs maps field names to values for a generated or overridden entity.
// Keys match exported struct field names, case-insensitively, with
// snake_case accepted.
type Attrs map[string]interface{}

// Definition describes how to build one entity type.
type Definition struct {
	// New returns a pointer to a zero entity, e.g. func() any { return &User{} }.
	New func() interface{}

	// Attrs generates default attributes for a fresh entity. The sequence
	// advances per call so generated values stay unique. Optional; without
	// it entities start zero-valued and rely on overrides.
	Attrs func(seq *Seq) Attrs
}

// Registry holds data creators keyed by model name. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]*entry
}

type entry struct {
	def Definition
	seq Seq
}

// NewRegistry creates an empty factory registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]*entry)}
}

// Register adds a data creator for a model name. Registering the same name
// twice replaces the earlier definition and resets its sequence.
func (r *Registry) Register(model string, def Definition) error {
	if model == "" {
		return apperrors.InvalidInput("model", "factory model name must not be empty")
	}
	if def.New == nil {
		return apperrors.InvalidInput("definition", "factory New function is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[normalize(model)] = &entry{def: def}
	return nil
}

// Has reports whether a factory exists for the model name.
func (r *Registry) Has(model string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[normalize(model)]
	return ok
}

// Models returns the registered model names, sorted.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates an entity for the model: the factory's generated attributes
// first, then overrides on top. The entity is not persisted.
func (r *Registry) Build(model string, overrides Attrs) (interface{}, error) {
	r.mu.RLock()
	e, ok := r.factories[normalize(model)]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NoFactory(model)
	}

	entity := e.def.New()
	if entity == nil {
		return nil, apperrors.Internal(fmt.Errorf("factory for %s returned nil", model))
	}

	if e.def.Attrs != nil {
		if err := ApplyAttrs(entity, e.def.Attrs(&e.seq)); err != nil {
			return nil, err
		}
	}
	if err := ApplyAttrs(entity, overrides); err != nil {
		return nil, err
	}
	return entity, nil
}

// ResetSequences rewinds every factory's sequence.
func (r *Registry) ResetSequences() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.factories {
		e.seq.Reset()
	}
}

// ApplyAttrs sets attrs onto a struct pointer by field name. Values must be
// assignable or convertible to the field's type; pointers to the value type
// are dereferenced and value types are wrapped for pointer fields.
func ApplyAttrs(entity interface{}, attrs Attrs) error {
	if len(attrs) == 0 {
		return nil
	}

	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return apperrors.InvalidInput("entity", "must be a non-nil struct pointer")
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return apperrors.InvalidInput("entity", "must point to a struct")
	}

	rt := rv.Type()
	fieldsByName := make(map[string]int, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.IsExported() {
			fieldsByName[normalize(f.Name)] = i
		}
	}

	for name, value := range attrs {
		idx, ok := fieldsByName[normalize(name)]
		if !ok {
			return apperrors.InvalidInput(name, fmt.Sprintf("%s has no field %q", rt.Name(), name))
		}
		field := rv.Field(idx)
		if err := setField(field, value); err != nil {
			return apperrors.InvalidInput(name, err.Error())
		}
	}
	return nil
}

func setField(field reflect.Value, value interface{}) error {
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	v := reflect.ValueOf(value)

	// Unwrap a pointer value for a non-pointer field.
	if v.Kind() == reflect.Ptr && field.Kind() != reflect.Ptr {
		if v.IsNil() {
			field.Set(reflect.Zero(field.Type()))
			return nil
		}
		v = v.Elem()
	}

	// Wrap a plain value for a pointer field.
	if field.Kind() == reflect.Ptr && v.Kind() != reflect.Ptr {
		if !v.Type().AssignableTo(field.Type().Elem()) {
			if !v.Type().ConvertibleTo(field.Type().Elem()) {
				return fmt.Errorf("cannot assign %s to *%s", v.Type(), field.Type().Elem())
			}
			v = v.Convert(field.Type().Elem())
		}
		p := reflect.New(field.Type().Elem())
		p.Elem().Set(v)
		field.Set(p)
		return nil
	}

	if v.Type().AssignableTo(field.Type()) {
		field.Set(v)
		return nil
	}
	// Go converts integers to strings as code points; that is never the
	// intent for a fixture attribute.
	if field.Kind() == reflect.String && v.Kind() != reflect.String {
		return fmt.Errorf("cannot assign %s to %s", v.Type(), field.Type())
	}
	if v.Type().ConvertibleTo(field.Type()) {
		field.Set(v.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %s to %s", v.Type(), field.Type())
}

func normalize(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}
