package query

import (
	"fmt"
	"strings"

	"gorm.io/gorm/schema"

	apperrors "github.com/kbukum/fixkit/errors"
)

// DefaultMaxDepth bounds how many association hops a criteria path may take.
const DefaultMaxDepth = 3

// resolvedPath is the SQL shape of one dotted criteria path: the join chain
// that brings the final association's table into scope and the qualified
// column the condition applies to.
type resolvedPath struct {
	// Column is the alias-qualified column, e.g. "j_posts.title".
	Column string
	// Joins are the LEFT JOIN clauses needed, outermost first.
	Joins []string
	// Hops is the number of associations crossed.
	Hops int
}

// resolvePath walks a dotted path ("posts.tags.name") through the model's
// relationships. Every segment except the last must name an association of
// the schema reached so far; the last must name a column of the final
// association's model. Each hop contributes a LEFT JOIN with a deterministic
// alias so the same path always produces the same SQL.
func resolvePath(sch *schema.Schema, path string, maxDepth int) (*resolvedPath, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return nil, apperrors.InvalidPath(path, "empty path")
	}

	segments := strings.Split(path, ".")
	hops := len(segments) - 1
	if hops > maxDepth {
		return nil, apperrors.InvalidPath(path, fmt.Sprintf("%d association hops exceed the limit of %d", hops, maxDepth))
	}

	cur := sch
	alias := sch.Table
	var joins []string

	for i, seg := range segments[:hops] {
		rel := lookupRelation(cur, seg)
		if rel == nil {
			return nil, apperrors.InvalidPath(path, fmt.Sprintf("%s has no association %q", cur.Name, seg))
		}

		next := rel.FieldSchema
		nextAlias := "j_" + strings.ToLower(strings.Join(segments[:i+1], "_"))

		if rel.JoinTable != nil {
			jtJoin, targetJoin, err := manyToManyJoins(rel, alias, nextAlias)
			if err != nil {
				return nil, apperrors.InvalidPath(path, err.Error())
			}
			joins = append(joins, jtJoin, targetJoin)
		} else {
			clause, err := directJoin(rel, alias, nextAlias)
			if err != nil {
				return nil, apperrors.InvalidPath(path, err.Error())
			}
			joins = append(joins, clause)
		}

		cur = next
		alias = nextAlias
	}

	last := segments[hops]
	field := cur.LookUpField(last)
	if field == nil || field.DBName == "" {
		if lookupRelation(cur, last) != nil {
			return nil, apperrors.InvalidPath(path, fmt.Sprintf("%q is an association of %s, expected a column", last, cur.Name))
		}
		return nil, apperrors.InvalidPath(path, fmt.Sprintf("%s has no column %q", cur.Name, last))
	}

	return &resolvedPath{
		Column: alias + "." + field.DBName,
		Joins:  joins,
		Hops:   hops,
	}, nil
}

// lookupRelation finds an association by segment name, accepting the Go
// field name in any casing as well as its snake_case form.
func lookupRelation(sch *schema.Schema, segment string) *schema.Relationship {
	want := normalizeSegment(segment)
	for name, rel := range sch.Relationships.Relations {
		if normalizeSegment(name) == want {
			return rel
		}
	}
	return nil
}

func normalizeSegment(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}

// directJoin builds the LEFT JOIN for has-one, has-many, and belongs-to.
// When the owner holds the primary key the foreign key lives on the joined
// table; otherwise the owner carries the foreign key and the join matches
// the target's referenced column.
func directJoin(rel *schema.Relationship, parentAlias, alias string) (string, error) {
	if len(rel.References) == 0 {
		return "", fmt.Errorf("association %s has no join references", rel.Name)
	}

	conds := make([]string, 0, len(rel.References))
	for _, ref := range rel.References {
		if ref.PrimaryKey == nil || ref.ForeignKey == nil {
			return "", fmt.Errorf("association %s has an incomplete join reference", rel.Name)
		}
		if ref.OwnPrimaryKey {
			conds = append(conds, fmt.Sprintf("%s.%s = %s.%s",
				alias, ref.ForeignKey.DBName, parentAlias, ref.PrimaryKey.DBName))
		} else {
			conds = append(conds, fmt.Sprintf("%s.%s = %s.%s",
				alias, ref.PrimaryKey.DBName, parentAlias, ref.ForeignKey.DBName))
		}
	}

	return fmt.Sprintf("LEFT JOIN %s AS %s ON %s",
		rel.FieldSchema.Table, alias, strings.Join(conds, " AND ")), nil
}

// manyToManyJoins builds the two LEFT JOINs that cross a join table: parent
// to join table on the owner's key, then join table to target on the
// target's key.
func manyToManyJoins(rel *schema.Relationship, parentAlias, alias string) (string, string, error) {
	jtAlias := alias + "_jt"

	var ownConds, targetConds []string
	for _, ref := range rel.References {
		if ref.PrimaryKey == nil || ref.ForeignKey == nil {
			return "", "", fmt.Errorf("association %s has an incomplete join reference", rel.Name)
		}
		if ref.OwnPrimaryKey {
			ownConds = append(ownConds, fmt.Sprintf("%s.%s = %s.%s",
				jtAlias, ref.ForeignKey.DBName, parentAlias, ref.PrimaryKey.DBName))
		} else {
			targetConds = append(targetConds, fmt.Sprintf("%s.%s = %s.%s",
				alias, ref.PrimaryKey.DBName, jtAlias, ref.ForeignKey.DBName))
		}
	}
	if len(ownConds) == 0 || len(targetConds) == 0 {
		return "", "", fmt.Errorf("association %s is missing join table references", rel.Name)
	}

	jtJoin := fmt.Sprintf("LEFT JOIN %s AS %s ON %s",
		rel.JoinTable.Table, jtAlias, strings.Join(ownConds, " AND "))
	targetJoin := fmt.Sprintf("LEFT JOIN %s AS %s ON %s",
		rel.FieldSchema.Table, alias, strings.Join(targetConds, " AND "))
	return jtJoin, targetJoin, nil
}
