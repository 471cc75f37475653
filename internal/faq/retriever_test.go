package faq

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	faq_mocks "faqbot-ai/internal/faq/mocks"
	"faqbot-ai/internal/storage"
	storage_mocks "faqbot-ai/internal/storage/mocks"

	"go.uber.org/mock/gomock"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{name: "identical vectors", a: []float64{1, 2, 3}, b: []float64{1, 2, 3}, want: 1},
		{name: "orthogonal vectors", a: []float64{1, 0}, b: []float64{0, 1}, want: 0},
		{name: "opposite vectors", a: []float64{1, 0}, b: []float64{-1, 0}, want: -1},
		{name: "length mismatch", a: []float64{1, 2}, b: []float64{1, 2, 3}, want: 0},
		{name: "empty vectors", a: nil, b: nil, want: 0},
		{name: "zero magnitude", a: []float64{0, 0}, b: []float64{1, 1}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestCoerceVector(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []float64
	}{
		{name: "json array", raw: "[0.1, 0.2, 0.3]", want: []float64{0.1, 0.2, 0.3}},
		{name: "doubly serialized", raw: `"[1, 2]"`, want: []float64{1, 2}},
		{name: "numeric strings", raw: `["0.5", "1.5"]`, want: []float64{0.5, 1.5}},
		{name: "empty string", raw: "", want: nil},
		{name: "not json", raw: "garbage", want: nil},
		{name: "non numeric element", raw: `[1, true]`, want: nil},
		{name: "unparseable string element", raw: `["abc"]`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceVector(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSearchReturnsTopAnswers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := faq_mocks.NewMockEmbedder(ctrl)
	store := storage_mocks.NewMockFAQStore(ctrl)

	embedder.EXPECT().Embed(gomock.Any(), "how do i pay").Return([]float64{1, 0}, nil)
	store.EXPECT().ListPublishedWithEmbedding(gomock.Any()).Return([]storage.FAQRecord{
		{ID: "a", Answer: "answer a", RawEmbedding: "[0, 1]"},
		{ID: "b", Answer: "answer b", RawEmbedding: "[1, 0]"},
		{ID: "c", Answer: "answer c", RawEmbedding: "[0.9, 0.1]"},
		{ID: "d", Answer: "answer d", RawEmbedding: "[0.5, 0.5]"},
	}, nil)

	r := NewRetriever(embedder, store, 0.4, 3)
	got := r.Search(context.Background(), "how do i pay")

	want := []string{"answer b", "answer c", "answer d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSearchBelowThresholdReturnsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := faq_mocks.NewMockEmbedder(ctrl)
	store := storage_mocks.NewMockFAQStore(ctrl)

	embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return([]float64{1, 0}, nil)
	store.EXPECT().ListPublishedWithEmbedding(gomock.Any()).Return([]storage.FAQRecord{
		{ID: "a", Answer: "answer a", RawEmbedding: "[0.1, 1]"},
	}, nil)

	r := NewRetriever(embedder, store, 0.4, 3)
	if got := r.Search(context.Background(), "unrelated question"); got != nil {
		t.Errorf("expected no answers below threshold, got %v", got)
	}
}

func TestSearchLengthMismatchScoresZero(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := faq_mocks.NewMockEmbedder(ctrl)
	store := storage_mocks.NewMockFAQStore(ctrl)

	embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return([]float64{1, 0}, nil)
	store.EXPECT().ListPublishedWithEmbedding(gomock.Any()).Return([]storage.FAQRecord{
		{ID: "a", Answer: "short vector", RawEmbedding: "[1]"},
		{ID: "b", Answer: "matching vector", RawEmbedding: "[1, 0]"},
	}, nil)

	r := NewRetriever(embedder, store, 0.4, 3)
	got := r.Search(context.Background(), "question")

	want := []string{"matching vector", "short vector"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected mismatched vector ranked last, got %v", got)
	}
}

func TestSearchTiesKeepFetchOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := faq_mocks.NewMockEmbedder(ctrl)
	store := storage_mocks.NewMockFAQStore(ctrl)

	embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return([]float64{1, 0}, nil)
	store.EXPECT().ListPublishedWithEmbedding(gomock.Any()).Return([]storage.FAQRecord{
		{ID: "a", Answer: "first", RawEmbedding: "[1, 0]"},
		{ID: "b", Answer: "second", RawEmbedding: "[1, 0]"},
	}, nil)

	r := NewRetriever(embedder, store, 0.4, 2)
	got := r.Search(context.Background(), "question")

	want := []string{"first", "second"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected fetch order preserved on ties, got %v", got)
	}
}

func TestSearchDegradesOnFailures(t *testing.T) {
	t.Run("embed failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		embedder := faq_mocks.NewMockEmbedder(ctrl)
		store := storage_mocks.NewMockFAQStore(ctrl)
		embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return(nil, errors.New("api down"))

		r := NewRetriever(embedder, store, 0.4, 3)
		if got := r.Search(context.Background(), "question"); got != nil {
			t.Errorf("expected nil on embed failure, got %v", got)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		embedder := faq_mocks.NewMockEmbedder(ctrl)
		store := storage_mocks.NewMockFAQStore(ctrl)
		embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return([]float64{1, 0}, nil)
		store.EXPECT().ListPublishedWithEmbedding(gomock.Any()).Return(nil, errors.New("db locked"))

		r := NewRetriever(embedder, store, 0.4, 3)
		if got := r.Search(context.Background(), "question"); got != nil {
			t.Errorf("expected nil on store failure, got %v", got)
		}
	})

	t.Run("empty bank", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		embedder := faq_mocks.NewMockEmbedder(ctrl)
		store := storage_mocks.NewMockFAQStore(ctrl)
		embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return([]float64{1, 0}, nil)
		store.EXPECT().ListPublishedWithEmbedding(gomock.Any()).Return(nil, nil)

		r := NewRetriever(embedder, store, 0.4, 3)
		if got := r.Search(context.Background(), "question"); got != nil {
			t.Errorf("expected nil on empty bank, got %v", got)
		}
	})
}
