// Package realtime validates structured-query plans against the collection
// whitelist and executes bounded reads against the record store.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"faqbot-ai/internal/contextutil"
	"faqbot-ai/internal/planner"
	"faqbot-ai/internal/settings"
	"faqbot-ai/internal/storage"
)

// Result kinds.
const (
	TypeCount = "count"
	TypeList  = "list"
)

// Result is the outcome of a guarded plan execution.
type Result struct {
	Type       string           `json:"type"`
	Collection string           `json:"collection"`
	Value      int              `json:"value,omitempty"`
	Schema     []string         `json:"schema,omitempty"`
	Items      []map[string]any `json:"items,omitempty"`
}

// Executor guards and runs query plans. A plan that references anything
// outside the whitelist is rejected whole: partial execution could leak
// non-whitelisted data.
type Executor struct {
	records  storage.RecordStore
	rowLimit int
	markdown goldmark.Markdown
}

// NewExecutor creates a new Executor. rowLimit caps list results.
func NewExecutor(records storage.RecordStore, rowLimit int) *Executor {
	return &Executor{
		records:  records,
		rowLimit: rowLimit,
		markdown: goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// Execute validates the plan against the active collections and runs it.
// Every nil return means "no structured match": absent plan, unknown
// collection, non-whitelisted field, untranslatable filters, or a storage
// error. None of these abort the request.
func (e *Executor) Execute(ctx context.Context, plan *planner.Plan, active []settings.Collection) *Result {
	logger := contextutil.LoggerFromContext(ctx)

	if plan == nil || plan.Collection == "" {
		return nil
	}

	var collection *settings.Collection
	for i := range active {
		if active[i].Name == plan.Collection {
			collection = &active[i]
			break
		}
	}
	if collection == nil {
		logger.WarnContext(ctx, "plan names a collection outside the whitelist", "collection", plan.Collection)
		return nil
	}

	sanitized := planner.Sanitize(plan.Filters)

	// Fail closed: one unknown field rejects the whole plan
	for _, field := range planner.ExtractFields(sanitized) {
		if _, ok := collection.Field(field); !ok {
			logger.WarnContext(ctx, "plan references a non-whitelisted field",
				"collection", plan.Collection, "field", field)
			return nil
		}
	}

	tree, err := planner.ParseTree(sanitized)
	if err != nil {
		logger.WarnContext(ctx, "filter tree could not be parsed", "error", err)
		return nil
	}
	where, err := buildClause(tree)
	if err != nil {
		logger.WarnContext(ctx, "filter tree could not be translated", "error", err)
		return nil
	}

	if plan.Operation == planner.OperationCount {
		count, err := e.records.Count(ctx, collection.Name, where)
		if err != nil {
			logger.ErrorContext(ctx, "count query failed", "collection", collection.Name, "error", err)
			return nil
		}
		return &Result{Type: TypeCount, Collection: collection.Name, Value: count}
	}

	fields := collection.FieldNames()
	rows, err := e.records.Find(ctx, collection.Name, fields, where, e.sortDirectives(ctx, plan.Sort, collection), e.rowLimit)
	if err != nil {
		logger.ErrorContext(ctx, "list query failed", "collection", collection.Name, "error", err)
		return nil
	}

	items := make([]map[string]any, len(rows))
	for i, row := range rows {
		items[i] = e.projectRow(row, collection)
	}

	return &Result{
		Type:       TypeList,
		Collection: collection.Name,
		Schema:     fields,
		Items:      items,
	}
}

// sortDirectives parses "field:asc|desc" entries, dropping malformed terms
// and fields outside the whitelist.
func (e *Executor) sortDirectives(ctx context.Context, sort []string, collection *settings.Collection) []storage.Sort {
	logger := contextutil.LoggerFromContext(ctx)

	var out []storage.Sort
	for _, term := range sort {
		field, dir, _ := strings.Cut(term, ":")
		if _, ok := collection.Field(field); !ok {
			logger.WarnContext(ctx, "dropping sort on non-whitelisted field", "field", field)
			continue
		}
		switch strings.ToLower(dir) {
		case "", "asc":
			out = append(out, storage.Sort{Field: field})
		case "desc":
			out = append(out, storage.Sort{Field: field, Descending: true})
		default:
			logger.WarnContext(ctx, "dropping sort with unknown direction", "term", term)
		}
	}
	return out
}

// projectRow reduces a row to the whitelisted fields, flattening media
// references to their URL and rendering richtext to HTML for the cards
// payload.
func (e *Executor) projectRow(row map[string]any, collection *settings.Collection) map[string]any {
	clean := make(map[string]any, len(collection.Fields))
	for _, f := range collection.Fields {
		value := row[f.Name]
		switch f.Type {
		case "media":
			clean[f.Name] = mediaURL(value)
		case "richtext":
			clean[f.Name] = e.renderRichtext(value)
		default:
			clean[f.Name] = value
		}
	}
	return clean
}

// mediaURL reduces a populated media reference to its plain URL string.
// Media columns hold JSON objects with a url key; plain strings pass through.
func mediaURL(value any) any {
	s, ok := value.(string)
	if !ok || s == "" {
		return value
	}

	var ref struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(s), &ref); err != nil || ref.URL == "" {
		return value
	}
	return ref.URL
}

func (e *Executor) renderRichtext(value any) any {
	s, ok := value.(string)
	if !ok || s == "" {
		return value
	}

	var buf bytes.Buffer
	if err := e.markdown.Convert([]byte(s), &buf); err != nil {
		return value
	}
	return strings.TrimSpace(buf.String())
}
