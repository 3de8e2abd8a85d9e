package query

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/kbukum/fixkit/orm"
)

// Apply builds a GORM query for the model from criteria. Dotted paths add
// LEFT JOINs resolved from the model's relationships; joins shared between
// conditions are emitted once. Returns the prepared query and the deepest
// association hop count used, for instrumentation.
func Apply(db *gorm.DB, model interface{}, criteria Criteria, maxDepth int) (*gorm.DB, int, error) {
	sch, err := orm.Metadata(model)
	if err != nil {
		return nil, 0, err
	}

	q := db.Model(model)
	seen := make(map[string]bool)
	depth := 0

	for _, cond := range criteria {
		rp, err := resolvePath(sch, cond.Path, maxDepth)
		if err != nil {
			return nil, 0, err
		}
		for _, join := range rp.Joins {
			if !seen[join] {
				q = q.Joins(join)
				seen[join] = true
			}
		}
		if rp.Hops > 0 {
			// Joined to-many associations can match the same root row more
			// than once.
			q = q.Distinct()
		}
		if rp.Hops > depth {
			depth = rp.Hops
		}
		q = applyCondition(q, rp.Column, cond)
	}

	return q, depth, nil
}

// ApplyMap is Apply for a plain criteria map, parsing operator-prefixed
// values the same way Where does.
func ApplyMap(db *gorm.DB, model interface{}, criteria map[string]interface{}, maxDepth int) (*gorm.DB, int, error) {
	return Apply(db, model, Where(criteria), maxDepth)
}

func applyCondition(db *gorm.DB, column string, cond Condition) *gorm.DB {
	switch cond.Operator {
	case OpEq:
		if len(cond.Values) > 0 {
			return db.Where(fmt.Sprintf("%s IN ?", column), cond.Values)
		}
		return db.Where(fmt.Sprintf("%s = ?", column), cond.Value)
	case OpNeq:
		if len(cond.Values) > 0 {
			return db.Where(fmt.Sprintf("%s NOT IN ?", column), cond.Values)
		}
		return db.Where(fmt.Sprintf("%s != ?", column), cond.Value)
	case OpGt:
		return db.Where(fmt.Sprintf("%s > ?", column), cond.Value)
	case OpGte:
		return db.Where(fmt.Sprintf("%s >= ?", column), cond.Value)
	case OpLt:
		return db.Where(fmt.Sprintf("%s < ?", column), cond.Value)
	case OpLte:
		return db.Where(fmt.Sprintf("%s <= ?", column), cond.Value)
	case OpIn:
		if len(cond.Values) > 0 {
			return db.Where(fmt.Sprintf("%s IN ?", column), cond.Values)
		}
		if s, ok := cond.Value.(string); ok && s != "" {
			return db.Where(fmt.Sprintf("%s IN ?", column), strings.Split(s, ","))
		}
	case OpNin:
		if len(cond.Values) > 0 {
			return db.Where(fmt.Sprintf("%s NOT IN ?", column), cond.Values)
		}
		if s, ok := cond.Value.(string); ok && s != "" {
			return db.Where(fmt.Sprintf("%s NOT IN ?", column), strings.Split(s, ","))
		}
	case OpLike:
		return db.Where(fmt.Sprintf("%s LIKE ?", column), fmt.Sprintf("%%%v%%", cond.Value))
	case OpIlike:
		return db.Where(fmt.Sprintf("LOWER(%s) LIKE ?", column), "%"+strings.ToLower(fmt.Sprintf("%v", cond.Value))+"%")
	case OpNull:
		return db.Where(fmt.Sprintf("%s IS NULL", column))
	case OpNotNull:
		return db.Where(fmt.Sprintf("%s IS NOT NULL", column))
	}
	return db
}
