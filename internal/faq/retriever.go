// Package faq answers questions by cosine similarity over the stored FAQ
// answer embeddings.
package faq

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks faqbot-ai/internal/faq Embedder

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"faqbot-ai/internal/contextutil"
	"faqbot-ai/internal/storage"
)

// Embedder is the slice of the LLM client the retriever needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Retriever scores a question against the FAQ bank and returns the most
// similar published answers.
type Retriever struct {
	embedder  Embedder
	store     storage.FAQStore
	threshold float64
	topK      int
}

// NewRetriever creates a new Retriever. threshold is the minimum similarity
// the best match must reach; topK caps the number of returned answers.
func NewRetriever(embedder Embedder, store storage.FAQStore, threshold float64, topK int) *Retriever {
	return &Retriever{
		embedder:  embedder,
		store:     store,
		threshold: threshold,
		topK:      topK,
	}
}

type scoredAnswer struct {
	answer     string
	similarity float64
	order      int
}

// Search returns at most topK answer texts whose embeddings are most similar
// to the question. If the best similarity is below the threshold it returns
// nothing: no match is better than a wrong match. Embedding or storage
// failures degrade to an empty result, never an aborted request.
func (r *Retriever) Search(ctx context.Context, question string) []string {
	logger := contextutil.LoggerFromContext(ctx)

	queryVector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		logger.WarnContext(ctx, "failed to embed question", "error", err)
		return nil
	}
	if len(queryVector) == 0 {
		return nil
	}

	records, err := r.store.ListPublishedWithEmbedding(ctx)
	if err != nil {
		logger.WarnContext(ctx, "failed to fetch faq bank", "error", err)
		return nil
	}
	if len(records) == 0 {
		return nil
	}

	scored := make([]scoredAnswer, 0, len(records))
	for i, rec := range records {
		candidate := CoerceVector(rec.RawEmbedding)
		similarity := 0.0
		// Candidates whose vector length mismatches the query score zero
		if len(candidate) == len(queryVector) {
			similarity = CosineSimilarity(queryVector, candidate)
		}
		scored = append(scored, scoredAnswer{
			answer:     rec.Answer,
			similarity: similarity,
			order:      i,
		})
	}

	// Ties resolve deterministically by original fetch order
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].similarity != scored[j].similarity {
			return scored[i].similarity > scored[j].similarity
		}
		return scored[i].order < scored[j].order
	})

	if scored[0].similarity < r.threshold {
		logger.DebugContext(ctx, "faq best match below threshold",
			"best", scored[0].similarity, "threshold", r.threshold)
		return nil
	}

	n := r.topK
	if n > len(scored) {
		n = len(scored)
	}
	answers := make([]string, 0, n)
	for _, s := range scored[:n] {
		answers = append(answers, s.answer)
	}

	logger.DebugContext(ctx, "faq search completed",
		"candidates", len(records), "best", scored[0].similarity, "returned", len(answers))
	return answers
}

// CosineSimilarity returns the normalized dot product of two equal-length
// vectors. Zero-length or zero-magnitude vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// CoerceVector parses a stored embedding into a numeric vector. The external
// lifecycle hook may persist it as a JSON array, a doubly-serialized JSON
// string, or an array of numeric strings; anything unparseable yields nil.
func CoerceVector(raw string) []float64 {
	if raw == "" {
		return nil
	}

	var elems []any
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		// Possibly a JSON string wrapping the array
		var inner string
		if err := json.Unmarshal([]byte(raw), &inner); err != nil {
			return nil
		}
		if err := json.Unmarshal([]byte(inner), &elems); err != nil {
			return nil
		}
	}

	vec := make([]float64, 0, len(elems))
	for _, e := range elems {
		switch v := e.(type) {
		case float64:
			vec = append(vec, v)
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil
			}
			vec = append(vec, f)
		default:
			return nil
		}
	}
	return vec
}
