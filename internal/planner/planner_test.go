package planner

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"faqbot-ai/internal/llm"
	"faqbot-ai/internal/planner/mocks"
	"faqbot-ai/internal/settings"

	"go.uber.org/mock/gomock"
)

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *Plan
	}{
		{
			name: "plain json",
			raw:  `{"collection": "flights", "operation": "list", "filters": {"destination": {"containsi": "paris"}}, "sort": ["fare:asc"]}`,
			want: &Plan{
				Collection: "flights",
				Operation:  OperationList,
				Filters:    map[string]any{"destination": map[string]any{"containsi": "paris"}},
				Sort:       []string{"fare:asc"},
			},
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"collection\": \"flights\", \"operation\": \"count\"}\n```",
			want: &Plan{Collection: "flights", Operation: OperationCount},
		},
		{
			name: "null collection",
			raw:  `{"collection": null}`,
			want: &Plan{},
		},
		{
			name: "not json",
			raw:  "I could not find a matching collection.",
			want: nil,
		},
		{
			name: "empty output",
			raw:  "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePlan(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestPlanSendsSchemaAndInstructions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	collections := []settings.Collection{
		{Name: "flights", Fields: []settings.Field{
			{Name: "destination", Type: "string"},
			{Name: "fare", Type: "decimal"},
		}},
	}

	client := mocks.NewMockCompletionClient(ctrl)
	client.EXPECT().
		Complete(gomock.Any(), gomock.Any(), llm.CompleteOptions{Temperature: 0}).
		DoAndReturn(func(_ context.Context, messages []llm.Message, _ llm.CompleteOptions) (string, error) {
			if len(messages) != 2 {
				t.Fatalf("expected system and user message, got %d messages", len(messages))
			}
			system := messages[0].Content
			if !containsAll(system, "be polite", "flights", "destination", "fare") {
				t.Errorf("system prompt missing instructions or schema:\n%s", system)
			}
			if messages[1].Content != "cheapest flight to paris" {
				t.Errorf("unexpected user message %q", messages[1].Content)
			}
			return `{"collection": "flights", "operation": "list", "sort": ["fare:asc"]}`, nil
		})

	p := NewPlanner(client)
	plan := p.Plan(context.Background(), "cheapest flight to paris", collections, "be polite")

	if plan == nil {
		t.Fatal("expected a plan, got nil")
	}
	if plan.Collection != "flights" || plan.Operation != OperationList {
		t.Errorf("unexpected plan: %+v", plan)
	}
}

func TestPlanReturnsNilOnFailure(t *testing.T) {
	tests := []struct {
		name   string
		output string
		err    error
	}{
		{name: "model error", err: errors.New("timeout")},
		{name: "unparseable output", output: "no plan for you"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			client := mocks.NewMockCompletionClient(ctrl)
			client.EXPECT().
				Complete(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(tt.output, tt.err)

			p := NewPlanner(client)
			if plan := p.Plan(context.Background(), "question", nil, ""); plan != nil {
				t.Errorf("expected nil plan, got %+v", plan)
			}
		})
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
