package realtime

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"faqbot-ai/internal/planner"
	"faqbot-ai/internal/settings"
	"faqbot-ai/internal/storage"
	storage_mocks "faqbot-ai/internal/storage/mocks"

	"go.uber.org/mock/gomock"
)

func flightsCollection() []settings.Collection {
	return []settings.Collection{
		{Name: "flights", Fields: []settings.Field{
			{Name: "destination", Type: "string"},
			{Name: "fare", Type: "decimal"},
			{Name: "poster", Type: "media"},
			{Name: "details", Type: "richtext"},
		}},
	}
}

func TestExecuteRejectsWithoutTouchingStorage(t *testing.T) {
	tests := []struct {
		name string
		plan *planner.Plan
	}{
		{name: "nil plan", plan: nil},
		{name: "empty collection", plan: &planner.Plan{Operation: planner.OperationList}},
		{name: "unknown collection", plan: &planner.Plan{Collection: "users", Operation: planner.OperationList}},
		{
			name: "non whitelisted field",
			plan: &planner.Plan{
				Collection: "flights",
				Operation:  planner.OperationList,
				Filters:    map[string]any{"password": map[string]any{"containsi": "x"}},
			},
		},
		{
			name: "mixed known and unknown fields",
			plan: &planner.Plan{
				Collection: "flights",
				Operation:  planner.OperationList,
				Filters: map[string]any{
					"destination": map[string]any{"containsi": "paris"},
					"secret":      map[string]any{"eq": "x"},
				},
			},
		},
		{
			name: "untranslatable filters",
			plan: &planner.Plan{
				Collection: "flights",
				Operation:  planner.OperationList,
				Filters:    map[string]any{"or": "not an array"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// No Count/Find expectations: a rejected plan must not reach storage.
			records := storage_mocks.NewMockRecordStore(ctrl)
			exec := NewExecutor(records, 10)

			if got := exec.Execute(context.Background(), tt.plan, flightsCollection()); got != nil {
				t.Errorf("expected nil result, got %+v", got)
			}
		})
	}
}

func TestExecuteCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	records := storage_mocks.NewMockRecordStore(ctrl)
	records.EXPECT().
		Count(gomock.Any(), "flights", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, where storage.Clause) (int, error) {
			if !strings.Contains(where.SQL, "LIKE") {
				t.Errorf("expected containsi filter in where clause, got %q", where.SQL)
			}
			return 7, nil
		})

	exec := NewExecutor(records, 10)
	plan := &planner.Plan{
		Collection: "flights",
		Operation:  planner.OperationCount,
		Filters:    map[string]any{"destination": map[string]any{"containsi": "paris"}},
	}

	got := exec.Execute(context.Background(), plan, flightsCollection())
	if got == nil {
		t.Fatal("expected a result, got nil")
	}
	if got.Type != TypeCount || got.Collection != "flights" || got.Value != 7 {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestExecuteListProjectsRows(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	records := storage_mocks.NewMockRecordStore(ctrl)
	records.EXPECT().
		Find(gomock.Any(), "flights", []string{"destination", "fare", "poster", "details"}, gomock.Any(), gomock.Any(), 10).
		Return([]map[string]any{
			{
				"destination": "Paris (CDG)",
				"fare":        120.5,
				"poster":      `{"url": "https://cdn.example.com/p.jpg", "mime": "image/jpeg"}`,
				"details":     "**Direct** flight",
				"internal_id": 99,
			},
		}, nil)

	exec := NewExecutor(records, 10)
	plan := &planner.Plan{Collection: "flights", Operation: planner.OperationList}

	got := exec.Execute(context.Background(), plan, flightsCollection())
	if got == nil {
		t.Fatal("expected a result, got nil")
	}
	if got.Type != TypeList || got.Collection != "flights" {
		t.Errorf("unexpected result header: %+v", got)
	}
	if !reflect.DeepEqual(got.Schema, []string{"destination", "fare", "poster", "details"}) {
		t.Errorf("unexpected schema: %v", got.Schema)
	}
	if len(got.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(got.Items))
	}

	item := got.Items[0]
	if item["poster"] != "https://cdn.example.com/p.jpg" {
		t.Errorf("expected media flattened to URL, got %v", item["poster"])
	}
	if !strings.Contains(item["details"].(string), "<strong>Direct</strong>") {
		t.Errorf("expected richtext rendered to HTML, got %v", item["details"])
	}
	if _, ok := item["internal_id"]; ok {
		t.Error("expected non-whitelisted column to be dropped from the projection")
	}
}

func TestExecuteSortDirectives(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	records := storage_mocks.NewMockRecordStore(ctrl)
	records.EXPECT().
		Find(gomock.Any(), "flights", gomock.Any(), gomock.Any(), gomock.Any(), 10).
		DoAndReturn(func(_ context.Context, _ string, _ []string, _ storage.Clause, sort []storage.Sort, _ int) ([]map[string]any, error) {
			want := []storage.Sort{
				{Field: "fare"},
				{Field: "destination", Descending: true},
			}
			if !reflect.DeepEqual(sort, want) {
				t.Errorf("expected sort %v, got %v", want, sort)
			}
			return nil, nil
		})

	exec := NewExecutor(records, 10)
	plan := &planner.Plan{
		Collection: "flights",
		Operation:  planner.OperationList,
		Sort: []string{
			"fare:asc",
			"destination:desc",
			"password:asc", // not whitelisted
			"fare:sideways", // unknown direction
		},
	}

	if got := exec.Execute(context.Background(), plan, flightsCollection()); got == nil {
		t.Fatal("expected a result, got nil")
	}
}

func TestExecuteStorageErrorsDegradeToNil(t *testing.T) {
	t.Run("count failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		records := storage_mocks.NewMockRecordStore(ctrl)
		records.EXPECT().Count(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, errors.New("db locked"))

		exec := NewExecutor(records, 10)
		plan := &planner.Plan{Collection: "flights", Operation: planner.OperationCount}
		if got := exec.Execute(context.Background(), plan, flightsCollection()); got != nil {
			t.Errorf("expected nil on storage failure, got %+v", got)
		}
	})

	t.Run("find failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		records := storage_mocks.NewMockRecordStore(ctrl)
		records.EXPECT().Find(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("db locked"))

		exec := NewExecutor(records, 10)
		plan := &planner.Plan{Collection: "flights", Operation: planner.OperationList}
		if got := exec.Execute(context.Background(), plan, flightsCollection()); got != nil {
			t.Errorf("expected nil on storage failure, got %+v", got)
		}
	})
}

func TestMediaURL(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  any
	}{
		{name: "json object with url", value: `{"url": "https://x/y.png"}`, want: "https://x/y.png"},
		{name: "plain string passes through", value: "https://x/y.png", want: "https://x/y.png"},
		{name: "json without url passes through", value: `{"name": "y.png"}`, want: `{"name": "y.png"}`},
		{name: "nil passes through", value: nil, want: nil},
		{name: "non string passes through", value: 42, want: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mediaURL(tt.value); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
