// Package pipeline orchestrates the question-answering flow: query rewrite,
// concurrent FAQ retrieval and structured-plan execution, and the streamed
// final answer.
package pipeline

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks -mock_names=Engine=MockEngine faqbot-ai/internal/pipeline Engine
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_model_client.go -package=mocks faqbot-ai/internal/pipeline ModelClient

import (
	"context"
	"sync"
	"time"

	"faqbot-ai/internal/contextutil"
	"faqbot-ai/internal/llm"
	"faqbot-ai/internal/planner"
	"faqbot-ai/internal/realtime"
	"faqbot-ai/internal/settings"
)

// CompletionClient is the non-streaming slice of the LLM client.
type CompletionClient interface {
	Complete(ctx context.Context, messages []llm.Message, opts llm.CompleteOptions) (string, error)
}

// StreamClient is the streaming slice of the LLM client.
type StreamClient interface {
	StreamComplete(ctx context.Context, messages []llm.Message, opts llm.CompleteOptions, callback func(token string) error) error
}

// ModelClient is the full language-model capability the pipeline consumes.
type ModelClient interface {
	CompletionClient
	StreamClient
	Embed(ctx context.Context, text string) ([]float64, error)
}

// QueryRewriter produces a self-contained search string for a question.
type QueryRewriter interface {
	Rewrite(ctx context.Context, history []llm.Message, question string) string
}

// FAQSearcher returns the most similar published FAQ answers.
type FAQSearcher interface {
	Search(ctx context.Context, question string) []string
}

// QueryPlanner produces a structured-query plan, or nil for no match.
type QueryPlanner interface {
	Plan(ctx context.Context, question string, collections []settings.Collection, systemInstructions string) *planner.Plan
}

// PlanExecutor validates and runs a plan, or returns nil.
type PlanExecutor interface {
	Execute(ctx context.Context, plan *planner.Plan, active []settings.Collection) *realtime.Result
}

// ResultSummarizer turns a structured result into a short text summary.
type ResultSummarizer interface {
	Summarize(ctx context.Context, question string, result *realtime.Result) string
}

// AnswerAggregator streams the merged final answer into a sink.
type AnswerAggregator interface {
	Aggregate(ctx context.Context, in AggregateInput, sink Sink) error
}

// SettingsProvider hands typed per-request settings to the pipeline.
type SettingsProvider interface {
	Settings(ctx context.Context) settings.Settings
	ActiveCollections(ctx context.Context) []settings.Collection
}

// AskRequest is one question together with its prior conversation turns.
type AskRequest struct {
	Question string
	History  []llm.Message
}

// Engine runs the full ask pipeline for one question.
type Engine interface {
	// Ask answers the question into the sink. On error the sink is left
	// open so the caller can deliver a failure message and close it.
	Ask(ctx context.Context, req AskRequest, sink Sink) error
}

type engine struct {
	rewriter    QueryRewriter
	retriever   FAQSearcher
	planner     QueryPlanner
	executor    PlanExecutor
	interpreter ResultSummarizer
	aggregator  AnswerAggregator
	provider    SettingsProvider
	llmTimeout  time.Duration
}

// NewEngine creates a new pipeline Engine.
func NewEngine(
	rewriter QueryRewriter,
	retriever FAQSearcher,
	queryPlanner QueryPlanner,
	executor PlanExecutor,
	interpreter ResultSummarizer,
	aggregator AnswerAggregator,
	provider SettingsProvider,
	llmTimeout time.Duration,
) Engine {
	return &engine{
		rewriter:    rewriter,
		retriever:   retriever,
		planner:     queryPlanner,
		executor:    executor,
		interpreter: interpreter,
		aggregator:  aggregator,
		provider:    provider,
		llmTimeout:  llmTimeout,
	}
}

// Ask runs the pipeline. The FAQ branch and the plan/execute/interpret
// branch have no data dependency on each other and run concurrently; both
// join before aggregation. The final streaming call runs under the request
// context so the transport governs its lifetime.
func (e *engine) Ask(ctx context.Context, req AskRequest, sink Sink) error {
	logger := contextutil.LoggerFromContext(ctx)

	if req.Question == "" {
		return &ValidationError{Field: "question", Message: "cannot be empty"}
	}

	cfg := e.provider.Settings(ctx)
	active := e.provider.ActiveCollections(ctx)
	logger.InfoContext(ctx, "ask pipeline started",
		"question", req.Question, "history_turns", len(req.History), "active_collections", len(active))

	rewritten := withTimeout(ctx, e.llmTimeout, func(tctx context.Context) string {
		return e.rewriter.Rewrite(tctx, req.History, req.Question)
	})

	var (
		wg         sync.WaitGroup
		faqAnswers []string
		result     *realtime.Result
		summary    string
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		faqAnswers = withTimeout(ctx, e.llmTimeout, func(tctx context.Context) []string {
			return e.retriever.Search(tctx, rewritten)
		})
	}()
	go func() {
		defer wg.Done()
		plan := withTimeout(ctx, e.llmTimeout, func(tctx context.Context) *planner.Plan {
			return e.planner.Plan(tctx, rewritten, active, cfg.SystemInstructions)
		})
		result = e.executor.Execute(ctx, plan, active)
		if result != nil {
			summary = withTimeout(ctx, e.llmTimeout, func(tctx context.Context) string {
				return e.interpreter.Summarize(tctx, rewritten, result)
			})
		}
	}()
	wg.Wait()

	logger.InfoContext(ctx, "retrieval completed",
		"faq_answers", len(faqAnswers), "structured", result != nil)

	var cardStyle *string
	if result != nil {
		if style, ok := cfg.CardStyles[result.Collection]; ok && style != "" {
			cardStyle = &style
		}
	}

	return e.aggregator.Aggregate(ctx, AggregateInput{
		Question:             rewritten,
		FAQAnswers:           faqAnswers,
		Result:               result,
		Summary:              summary,
		ContactLink:          cfg.ContactLink,
		ResponseInstructions: cfg.ResponseInstructions,
		CardStyle:            cardStyle,
	}, sink)
}

// withTimeout runs one upstream call under a bounded child context.
// A non-positive duration leaves the parent context untouched.
func withTimeout[T any](ctx context.Context, d time.Duration, call func(context.Context) T) T {
	if d <= 0 {
		return call(ctx)
	}
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return call(tctx)
}
