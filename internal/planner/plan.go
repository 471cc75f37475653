// Package planner turns a natural-language question into a constrained
// structured-query plan via the language model, and models the plan's filter
// tree as a typed AST.
package planner

// Operation is the kind of read a plan requests.
type Operation string

// Supported plan operations.
const (
	OperationCount Operation = "count"
	OperationList  Operation = "list"
)

// Plan is a structured description of a data lookup. An empty Collection
// means the planner found no structured match and the pipeline should fall
// back to FAQ content only.
type Plan struct {
	Collection string         `json:"collection"`
	Operation  Operation      `json:"operation"`
	Filters    map[string]any `json:"filters"`
	Sort       []string       `json:"sort"` // "field:asc" / "field:desc"
}
