package planner

import (
	"fmt"
	"strings"
)

// Operator and combinator names the storage layer understands. The planner
// is instructed to emit them bare; Sanitize prefixes them with "$" so they
// cannot collide with field names.
var operatorNames = []string{
	"eq", "ne", "lt", "gt", "lte", "gte",
	"in", "notIn", "contains", "notContains", "containsi", "notContainsi",
	"null", "notNull", "between", "startsWith", "endsWith",
	"or", "and", "not",
}

var operatorSet = func() map[string]bool {
	m := make(map[string]bool, len(operatorNames))
	for _, op := range operatorNames {
		m[op] = true
	}
	return m
}()

// Sanitize walks a raw filter tree and reinterprets bare operator-name keys
// as operators by prefixing them with "$". Field-name keys pass through
// untouched. The input is not modified.
func Sanitize(filters map[string]any) map[string]any {
	if filters == nil {
		return nil
	}
	out := make(map[string]any, len(filters))
	for key, value := range filters {
		newKey := key
		if operatorSet[key] && !strings.HasPrefix(key, "$") {
			newKey = "$" + key
		}
		out[newKey] = sanitizeValue(value)
	}
	return out
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return Sanitize(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return value
	}
}

// ExtractFields returns every field name referenced anywhere in the
// (possibly nested, possibly negated/combined) filter tree, in first-seen
// order. Operator keys ("$"-prefixed) are descended through, not collected.
func ExtractFields(filters map[string]any) []string {
	var fields []string
	seen := make(map[string]bool)
	collectFields(filters, seen, &fields)
	return fields
}

func collectFields(value any, seen map[string]bool, fields *[]string) {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			if !strings.HasPrefix(key, "$") {
				if !seen[key] {
					seen[key] = true
					*fields = append(*fields, key)
				}
			}
			collectFields(child, seen, fields)
		}
	case []any:
		for _, item := range v {
			collectFields(item, seen, fields)
		}
	}
}

// FilterNode is one node of the typed filter tree: either a leaf Condition
// on a single field or a logical Combinator over child nodes.
type FilterNode interface {
	isFilterNode()
}

// Condition is a leaf comparison of one field against a value.
type Condition struct {
	Field string
	Op    string // sanitized operator, e.g. "$containsi"
	Value any
}

func (Condition) isFilterNode() {}

// Combinator joins child nodes with a logical operator.
type Combinator struct {
	Kind  string // "$and", "$or" or "$not"
	Nodes []FilterNode
}

func (Combinator) isFilterNode() {}

// ParseTree converts a sanitized filter tree into its typed form. A top
// level with multiple entries becomes an implicit $and. Nested field maps
// (relation traversal) are not supported by the executor and fail the parse,
// which rejects the whole plan downstream.
func ParseTree(filters map[string]any) (FilterNode, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	return parseGroup(filters)
}

func parseGroup(group map[string]any) (FilterNode, error) {
	var nodes []FilterNode

	for key, value := range group {
		switch key {
		case "$and", "$or":
			items, ok := value.([]any)
			if !ok {
				return nil, fmt.Errorf("%s expects an array", key)
			}
			var children []FilterNode
			for _, item := range items {
				m, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("%s expects objects", key)
				}
				child, err := parseGroup(m)
				if err != nil {
					return nil, err
				}
				if child != nil {
					children = append(children, child)
				}
			}
			if len(children) > 0 {
				nodes = append(nodes, Combinator{Kind: key, Nodes: children})
			}
		case "$not":
			m, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("$not expects an object")
			}
			child, err := parseGroup(m)
			if err != nil {
				return nil, err
			}
			if child != nil {
				nodes = append(nodes, Combinator{Kind: "$not", Nodes: []FilterNode{child}})
			}
		default:
			if strings.HasPrefix(key, "$") {
				return nil, fmt.Errorf("unexpected operator %q at field position", key)
			}
			conds, err := parseFieldConditions(key, value)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, conds...)
		}
	}

	switch len(nodes) {
	case 0:
		return nil, nil
	case 1:
		return nodes[0], nil
	default:
		return Combinator{Kind: "$and", Nodes: nodes}, nil
	}
}

func parseFieldConditions(field string, value any) ([]FilterNode, error) {
	ops, ok := value.(map[string]any)
	if !ok {
		// A bare scalar is shorthand for equality
		return []FilterNode{Condition{Field: field, Op: "$eq", Value: value}}, nil
	}

	var nodes []FilterNode
	for op, operand := range ops {
		if !strings.HasPrefix(op, "$") {
			return nil, fmt.Errorf("nested field %q under %q is not supported", op, field)
		}
		nodes = append(nodes, Condition{Field: field, Op: op, Value: operand})
	}
	return nodes, nil
}
