package query

import (
	"fmt"
	"sort"
	"strings"
)

// Operator represents filter operators in PostgREST format.
type Operator string

const (
	OpEq      Operator = "eq"
	OpNeq     Operator = "neq"
	OpGt      Operator = "gt"
	OpGte     Operator = "gte"
	OpLt      Operator = "lt"
	OpLte     Operator = "lte"
	OpIn      Operator = "in"
	OpNin     Operator = "nin"
	OpLike    Operator = "like"
	OpIlike   Operator = "ilike"
	OpNull    Operator = "null"
	OpNotNull Operator = "notNull"
)

// AllOperators returns all valid operators.
func AllOperators() []Operator {
	return []Operator{OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpIn, OpNin, OpLike, OpIlike, OpNull, OpNotNull}
}

// IsValid reports whether the operator is known.
func (o Operator) IsValid() bool {
	for _, v := range AllOperators() {
		if o == v {
			return true
		}
	}
	return false
}

// Condition is a single filter condition. Path may be a plain column of the
// root model or a dotted association path whose last segment is a column of
// the final association's model.
type Condition struct {
	Path     string
	Operator Operator
	Value    interface{}
	Values   []interface{} // for in, nin
}

// Criteria is an ordered list of conditions, combined with AND.
type Criteria []Condition

// --- Constructors ---

// Eq matches path = value.
func Eq(path string, value interface{}) Condition {
	return Condition{Path: path, Operator: OpEq, Value: value}
}

// Neq matches path != value.
func Neq(path string, value interface{}) Condition {
	return Condition{Path: path, Operator: OpNeq, Value: value}
}

// Gt matches path > value.
func Gt(path string, value interface{}) Condition {
	return Condition{Path: path, Operator: OpGt, Value: value}
}

// Gte matches path >= value.
func Gte(path string, value interface{}) Condition {
	return Condition{Path: path, Operator: OpGte, Value: value}
}

// Lt matches path < value.
func Lt(path string, value interface{}) Condition {
	return Condition{Path: path, Operator: OpLt, Value: value}
}

// Lte matches path <= value.
func Lte(path string, value interface{}) Condition {
	return Condition{Path: path, Operator: OpLte, Value: value}
}

// In matches path IN values.
func In(path string, values ...interface{}) Condition {
	return Condition{Path: path, Operator: OpIn, Values: values}
}

// Nin matches path NOT IN values.
func Nin(path string, values ...interface{}) Condition {
	return Condition{Path: path, Operator: OpNin, Values: values}
}

// Like matches path LIKE %value%.
func Like(path string, value string) Condition {
	return Condition{Path: path, Operator: OpLike, Value: value}
}

// Ilike matches path LIKE %value% case-insensitively.
func Ilike(path string, value string) Condition {
	return Condition{Path: path, Operator: OpIlike, Value: value}
}

// IsNull matches path IS NULL.
func IsNull(path string) Condition {
	return Condition{Path: path, Operator: OpNull}
}

// NotNull matches path IS NOT NULL.
func NotNull(path string) Condition {
	return Condition{Path: path, Operator: OpNotNull}
}

// Where converts a criteria map into Criteria, parsing operator-prefixed
// string values ("gt.3", "in.(a,b)", "is.null"). Keys are sorted so the
// generated SQL is deterministic regardless of map iteration order.
func Where(criteria map[string]interface{}) Criteria {
	if len(criteria) == 0 {
		return nil
	}
	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Criteria, 0, len(criteria))
	for _, k := range keys {
		out = append(out, ParseCondition(k, criteria[k]))
	}
	return out
}

// ParseCondition builds a condition from a criteria map entry. String values
// in PostgREST form select the operator; anything else is an equality match.
func ParseCondition(path string, value interface{}) Condition {
	s, ok := value.(string)
	if !ok {
		return Eq(path, value)
	}

	if s == "is.null" {
		return IsNull(path)
	}
	if s == "not.is.null" {
		return NotNull(path)
	}

	dotIdx := strings.Index(s, ".")
	if dotIdx == -1 {
		return Eq(path, s)
	}

	op := Operator(s[:dotIdx])
	raw := s[dotIdx+1:]
	if !op.IsValid() {
		return Eq(path, s)
	}

	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		parts := splitArrayValues(raw[1 : len(raw)-1])
		values := make([]interface{}, len(parts))
		for i, p := range parts {
			values[i] = p
		}
		return Condition{Path: path, Operator: op, Values: values}
	}

	return Condition{Path: path, Operator: op, Value: unescapeValue(raw)}
}

// String renders the condition for error messages and logs.
func (c Condition) String() string {
	switch c.Operator {
	case OpNull:
		return fmt.Sprintf("%s IS NULL", c.Path)
	case OpNotNull:
		return fmt.Sprintf("%s IS NOT NULL", c.Path)
	case OpIn, OpNin:
		return fmt.Sprintf("%s %s %v", c.Path, c.Operator, c.Values)
	default:
		return fmt.Sprintf("%s %s %v", c.Path, c.Operator, c.Value)
	}
}

func splitArrayValues(inner string) []string {
	var values []string
	var current strings.Builder
	escaped := false
	for _, ch := range inner {
		if escaped {
			current.WriteRune(ch)
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == ',' {
			if s := strings.TrimSpace(current.String()); s != "" {
				values = append(values, s)
			}
			current.Reset()
			continue
		}
		current.WriteRune(ch)
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		values = append(values, s)
	}
	return values
}

func unescapeValue(s string) string {
	var result strings.Builder
	escaped := false
	for _, ch := range s {
		if escaped {
			result.WriteRune(ch)
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		result.WriteRune(ch)
	}
	return result.String()
}
