package realtime

import (
	"fmt"
	"strings"

	"faqbot-ai/internal/planner"
	"faqbot-ai/internal/storage"
)

// buildClause translates a typed filter tree into a SQL predicate with
// positional arguments. Field names must already be whitelisted by the
// caller. An unknown operator or malformed operand fails the translation,
// which rejects the whole plan.
func buildClause(node planner.FilterNode) (storage.Clause, error) {
	if node == nil {
		return storage.Clause{}, nil
	}

	switch n := node.(type) {
	case planner.Condition:
		return conditionClause(n)
	case planner.Combinator:
		return combinatorClause(n)
	default:
		return storage.Clause{}, fmt.Errorf("unknown filter node %T", node)
	}
}

func combinatorClause(c planner.Combinator) (storage.Clause, error) {
	if c.Kind == "$not" {
		if len(c.Nodes) != 1 {
			return storage.Clause{}, fmt.Errorf("$not expects exactly one child")
		}
		child, err := buildClause(c.Nodes[0])
		if err != nil {
			return storage.Clause{}, err
		}
		return storage.Clause{SQL: "NOT (" + child.SQL + ")", Args: child.Args}, nil
	}

	var joiner string
	switch c.Kind {
	case "$and":
		joiner = " AND "
	case "$or":
		joiner = " OR "
	default:
		return storage.Clause{}, fmt.Errorf("unknown combinator %q", c.Kind)
	}

	parts := make([]string, 0, len(c.Nodes))
	var args []any
	for _, child := range c.Nodes {
		clause, err := buildClause(child)
		if err != nil {
			return storage.Clause{}, err
		}
		parts = append(parts, "("+clause.SQL+")")
		args = append(args, clause.Args...)
	}
	return storage.Clause{SQL: strings.Join(parts, joiner), Args: args}, nil
}

func conditionClause(c planner.Condition) (storage.Clause, error) {
	col := quoteIdent(c.Field)

	switch c.Op {
	case "$eq":
		if c.Value == nil {
			return storage.Clause{SQL: col + " IS NULL"}, nil
		}
		return storage.Clause{SQL: col + " = ?", Args: []any{c.Value}}, nil
	case "$ne":
		if c.Value == nil {
			return storage.Clause{SQL: col + " IS NOT NULL"}, nil
		}
		return storage.Clause{SQL: col + " <> ?", Args: []any{c.Value}}, nil
	case "$lt":
		return storage.Clause{SQL: col + " < ?", Args: []any{c.Value}}, nil
	case "$lte":
		return storage.Clause{SQL: col + " <= ?", Args: []any{c.Value}}, nil
	case "$gt":
		return storage.Clause{SQL: col + " > ?", Args: []any{c.Value}}, nil
	case "$gte":
		return storage.Clause{SQL: col + " >= ?", Args: []any{c.Value}}, nil
	case "$contains":
		return likeClause(col, c.Value, "%%%s%%", false, false)
	case "$notContains":
		return likeClause(col, c.Value, "%%%s%%", false, true)
	case "$containsi":
		return likeClause(col, c.Value, "%%%s%%", true, false)
	case "$notContainsi":
		return likeClause(col, c.Value, "%%%s%%", true, true)
	case "$startsWith":
		return likeClause(col, c.Value, "%s%%", false, false)
	case "$endsWith":
		return likeClause(col, c.Value, "%%%s", false, false)
	case "$null":
		if isTruthy(c.Value) {
			return storage.Clause{SQL: col + " IS NULL"}, nil
		}
		return storage.Clause{SQL: col + " IS NOT NULL"}, nil
	case "$notNull":
		if isTruthy(c.Value) {
			return storage.Clause{SQL: col + " IS NOT NULL"}, nil
		}
		return storage.Clause{SQL: col + " IS NULL"}, nil
	case "$between":
		bounds, ok := c.Value.([]any)
		if !ok || len(bounds) != 2 {
			return storage.Clause{}, fmt.Errorf("$between expects two bounds")
		}
		return storage.Clause{SQL: col + " BETWEEN ? AND ?", Args: bounds}, nil
	case "$in", "$notIn":
		items, ok := c.Value.([]any)
		if !ok {
			return storage.Clause{}, fmt.Errorf("%s expects an array", c.Op)
		}
		if len(items) == 0 {
			// Empty IN matches nothing; empty NOT IN matches everything
			if c.Op == "$in" {
				return storage.Clause{SQL: "1 = 0"}, nil
			}
			return storage.Clause{SQL: "1 = 1"}, nil
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(items)), ", ")
		op := "IN"
		if c.Op == "$notIn" {
			op = "NOT IN"
		}
		return storage.Clause{SQL: fmt.Sprintf("%s %s (%s)", col, op, placeholders), Args: items}, nil
	default:
		return storage.Clause{}, fmt.Errorf("unknown operator %q", c.Op)
	}
}

func likeClause(col string, value any, pattern string, caseInsensitive, negate bool) (storage.Clause, error) {
	s, ok := value.(string)
	if !ok {
		return storage.Clause{}, fmt.Errorf("text operator expects a string operand")
	}
	arg := fmt.Sprintf(pattern, escapeLike(s))

	lhs := col
	rhs := "?"
	if caseInsensitive {
		lhs = "LOWER(" + col + ")"
		rhs = "LOWER(?)"
	}
	op := "LIKE"
	if negate {
		op = "NOT LIKE"
	}
	return storage.Clause{
		SQL:  fmt.Sprintf(`%s %s %s ESCAPE '\'`, lhs, op, rhs),
		Args: []any{arg},
	}, nil
}

// escapeLike escapes LIKE wildcards in a user-supplied fragment.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func isTruthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	case nil:
		return true // bare {"field": {"null": null}} means "is null"
	default:
		return true
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
