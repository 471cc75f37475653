package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_faq_store.go -package=mocks faqbot-ai/internal/storage FAQStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FAQRecord is a stored question/answer pair with a precomputed embedding.
// The embedding is kept as raw text: it is written by an external lifecycle
// hook and may be a JSON array or a serialized string of one.
type FAQRecord struct {
	ID           string
	Question     string
	Answer       string
	RawEmbedding string
}

// FAQStore defines the interface for FAQ bank reads.
type FAQStore interface {
	// ListPublishedWithEmbedding returns all published FAQ records that have
	// a non-null embedding, in stable insertion order.
	ListPublishedWithEmbedding(ctx context.Context) ([]FAQRecord, error)
}

// FAQRepo provides methods for FAQ operations.
// It implements the FAQStore interface.
type FAQRepo struct {
	db *sql.DB
}

// NewFAQRepo creates a new FAQRepo.
func NewFAQRepo(db *sql.DB) *FAQRepo {
	return &FAQRepo{db: db}
}

// ListPublishedWithEmbedding returns all published FAQ records with a non-null embedding.
func (r *FAQRepo) ListPublishedWithEmbedding(ctx context.Context) ([]FAQRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, question, answer, embedding FROM faqs
		 WHERE embedding IS NOT NULL AND published_at IS NOT NULL
		 ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query faqs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []FAQRecord
	for rows.Next() {
		var rec FAQRecord
		if err := rows.Scan(&rec.ID, &rec.Question, &rec.Answer, &rec.RawEmbedding); err != nil {
			return nil, fmt.Errorf("failed to scan faq: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate faqs: %w", err)
	}

	return records, nil
}

// Upsert inserts a new FAQ record or updates an existing one.
// New records get a generated UUID. Used by seeding and tests; the embedding
// lifecycle itself lives outside this service.
func (r *FAQRepo) Upsert(ctx context.Context, rec *FAQRecord, published bool) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	var embedding any
	if rec.RawEmbedding != "" {
		embedding = rec.RawEmbedding
	}
	var publishedAt any
	if published {
		publishedAt = time.Now().UTC().Format("2006-01-02 15:04:05")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO faqs (id, question, answer, embedding, published_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		 question = excluded.question, answer = excluded.answer,
		 embedding = excluded.embedding, published_at = excluded.published_at`,
		rec.ID, rec.Question, rec.Answer, embedding, publishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert faq: %w", err)
	}
	return nil
}
