package planner

import (
	"reflect"
	"testing"
)

func TestSanitizePrefixesOperatorKeys(t *testing.T) {
	in := map[string]any{
		"destination": map[string]any{"containsi": "paris"},
		"fare":        map[string]any{"lte": float64(100)},
		"or": []any{
			map[string]any{"status": map[string]any{"eq": "open"}},
		},
	}

	got := Sanitize(in)

	want := map[string]any{
		"destination": map[string]any{"$containsi": "paris"},
		"fare":        map[string]any{"$lte": float64(100)},
		"$or": []any{
			map[string]any{"status": map[string]any{"$eq": "open"}},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSanitizeLeavesFieldNamesAlone(t *testing.T) {
	// A field that happens to not be an operator name must pass untouched,
	// even nested under combinators.
	in := map[string]any{
		"title": "exact",
		"not": map[string]any{
			"title": map[string]any{"containsi": "draft"},
		},
	}

	got := Sanitize(in)

	if _, ok := got["title"]; !ok {
		t.Error("expected field key to survive sanitation")
	}
	if _, ok := got["$not"]; !ok {
		t.Error("expected bare not key to become $not")
	}
}

func TestSanitizeNil(t *testing.T) {
	if got := Sanitize(nil); got != nil {
		t.Errorf("expected nil for nil input, got %v", got)
	}
}

func TestExtractFields(t *testing.T) {
	in := map[string]any{
		"$or": []any{
			map[string]any{"destination": map[string]any{"$containsi": "paris"}},
			map[string]any{"origin": map[string]any{"$containsi": "kochi"}},
		},
		"fare": map[string]any{"$lte": float64(100)},
		"$not": map[string]any{
			"status": map[string]any{"$eq": "cancelled"},
		},
	}

	got := ExtractFields(in)

	set := make(map[string]bool, len(got))
	for _, f := range got {
		set[f] = true
	}
	for _, want := range []string{"destination", "origin", "fare", "status"} {
		if !set[want] {
			t.Errorf("expected field %q to be extracted, got %v", want, got)
		}
	}
	if len(got) != 4 {
		t.Errorf("expected 4 fields, got %v", got)
	}
}

func TestParseTreeSingleCondition(t *testing.T) {
	node, err := ParseTree(map[string]any{
		"destination": map[string]any{"$containsi": "paris"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cond, ok := node.(Condition)
	if !ok {
		t.Fatalf("expected Condition, got %T", node)
	}
	if cond.Field != "destination" || cond.Op != "$containsi" || cond.Value != "paris" {
		t.Errorf("unexpected condition: %+v", cond)
	}
}

func TestParseTreeBareScalarIsEquality(t *testing.T) {
	node, err := ParseTree(map[string]any{"status": "open"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cond, ok := node.(Condition)
	if !ok {
		t.Fatalf("expected Condition, got %T", node)
	}
	if cond.Op != "$eq" || cond.Value != "open" {
		t.Errorf("expected bare scalar to become $eq, got %+v", cond)
	}
}

func TestParseTreeImplicitAnd(t *testing.T) {
	node, err := ParseTree(map[string]any{
		"destination": map[string]any{"$containsi": "paris"},
		"fare":        map[string]any{"$lte": float64(100)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	comb, ok := node.(Combinator)
	if !ok {
		t.Fatalf("expected Combinator, got %T", node)
	}
	if comb.Kind != "$and" || len(comb.Nodes) != 2 {
		t.Errorf("expected implicit $and of 2 nodes, got %+v", comb)
	}
}

func TestParseTreeOrAndNot(t *testing.T) {
	node, err := ParseTree(map[string]any{
		"$or": []any{
			map[string]any{"destination": map[string]any{"$containsi": "paris"}},
			map[string]any{"destination": map[string]any{"$containsi": "amsterdam"}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	comb, ok := node.(Combinator)
	if !ok || comb.Kind != "$or" || len(comb.Nodes) != 2 {
		t.Fatalf("expected $or of 2 nodes, got %+v", node)
	}

	node, err = ParseTree(map[string]any{
		"$not": map[string]any{"status": map[string]any{"$eq": "cancelled"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	comb, ok = node.(Combinator)
	if !ok || comb.Kind != "$not" || len(comb.Nodes) != 1 {
		t.Fatalf("expected $not of 1 node, got %+v", node)
	}
}

func TestParseTreeRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		filters map[string]any
	}{
		{
			name:    "nested field map under field",
			filters: map[string]any{"author": map[string]any{"name": map[string]any{"$eq": "x"}}},
		},
		{
			name:    "or with non array",
			filters: map[string]any{"$or": map[string]any{"a": "b"}},
		},
		{
			name:    "or with non object member",
			filters: map[string]any{"$or": []any{"scalar"}},
		},
		{
			name:    "not with non object",
			filters: map[string]any{"$not": []any{}},
		},
		{
			name:    "unknown operator at field position",
			filters: map[string]any{"$bogus": "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTree(tt.filters); err == nil {
				t.Error("expected parse error, got nil")
			}
		})
	}
}

func TestParseTreeEmpty(t *testing.T) {
	node, err := ParseTree(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node != nil {
		t.Errorf("expected nil node for empty filters, got %+v", node)
	}
}
