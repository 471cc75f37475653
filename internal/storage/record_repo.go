package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_record_store.go -package=mocks faqbot-ai/internal/storage RecordStore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Clause is a SQL predicate with positional arguments. An empty SQL string
// means "no predicate".
type Clause struct {
	SQL  string
	Args []any
}

// Column describes one column of a record collection table.
type Column struct {
	Name string
	Type string // declared SQL type, upper-cased
}

// Sort is a validated sort directive for a Find call.
type Sort struct {
	Field      string
	Descending bool
}

// RecordStore defines the interface for reads against user-defined record
// collections. Collection and field names passed in must already be
// whitelisted by the caller; identifiers are still quoted before use.
type RecordStore interface {
	// Columns returns the live schema of a collection table.
	// Returns ErrNotFound if the table does not exist.
	Columns(ctx context.Context, collection string) ([]Column, error)
	// Count returns the number of rows matching the clause.
	Count(ctx context.Context, collection string, where Clause) (int, error)
	// Find returns at most limit rows projected to the given fields.
	Find(ctx context.Context, collection string, fields []string, where Clause, sort []Sort, limit int) ([]map[string]any, error)
}

// RecordRepo provides read access to record collection tables.
// It implements the RecordStore interface.
type RecordRepo struct {
	db *sql.DB
}

// NewRecordRepo creates a new RecordRepo.
func NewRecordRepo(db *sql.DB) *RecordRepo {
	return &RecordRepo{db: db}
}

// Columns returns the live schema of a collection table via PRAGMA table_info.
func (r *RecordRepo) Columns(ctx context.Context, collection string) ([]Column, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(collection)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema of %q: %w", collection, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var columns []Column
	for rows.Next() {
		var (
			cid          int
			name, ctype  string
			notNull, pk  int
			defaultValue sql.NullString
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan schema of %q: %w", collection, err)
		}
		columns = append(columns, Column{Name: name, Type: strings.ToUpper(ctype)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schema of %q: %w", collection, err)
	}

	// PRAGMA table_info yields no rows for a missing table
	if len(columns) == 0 {
		return nil, ErrNotFound
	}

	return columns, nil
}

// Count returns the number of rows matching the clause.
func (r *RecordRepo) Count(ctx context.Context, collection string, where Clause) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(collection))
	if where.SQL != "" {
		query += " WHERE " + where.SQL
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, where.Args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %q: %w", collection, err)
	}
	return count, nil
}

// Find returns at most limit rows projected to the given fields.
func (r *RecordRepo) Find(ctx context.Context, collection string, fields []string, where Clause, sort []Sort, limit int) ([]map[string]any, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields requested for %q", collection)
	}

	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quoteIdent(f)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), quoteIdent(collection))
	args := append([]any{}, where.Args...)
	if where.SQL != "" {
		query += " WHERE " + where.SQL
	}
	if len(sort) > 0 {
		terms := make([]string, len(sort))
		for i, s := range sort {
			dir := "ASC"
			if s.Descending {
				dir = "DESC"
			}
			terms[i] = quoteIdent(s.Field) + " " + dir
		}
		query += " ORDER BY " + strings.Join(terms, ", ")
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", collection, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(fields))
		dests := make([]any, len(fields))
		for i := range values {
			dests[i] = &values[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %q: %w", collection, err)
		}

		row := make(map[string]any, len(fields))
		for i, f := range fields {
			// The sqlite driver yields []byte for TEXT columns
			if b, ok := values[i].([]byte); ok {
				row[f] = string(b)
			} else {
				row[f] = values[i]
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %q: %w", collection, err)
	}

	return results, nil
}

// quoteIdent quotes a SQL identifier. Callers are expected to pass
// whitelisted names only; this is a second fence, not the guard.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
