package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"faqbot-ai/internal/contextutil"
	"faqbot-ai/internal/llm"
	"faqbot-ai/internal/realtime"
)

const interpreterPrompt = `You are a realtime data interpreter.

Convert database JSON into a SHORT natural language summary.

Rules:
- Do NOT output JSON
- Do NOT hallucinate
- If count -> say number
- If list -> summarize important fields only
- Max 3-4 lines`

// Interpreter converts a structured result into a short natural-language
// summary for the aggregator to lead with.
type Interpreter struct {
	client CompletionClient
}

// NewInterpreter creates a new Interpreter.
func NewInterpreter(client CompletionClient) *Interpreter {
	return &Interpreter{client: client}
}

// Summarize returns a 3-4 line summary of the structured result, or "" when
// there is no result or the model call fails.
func (i *Interpreter) Summarize(ctx context.Context, question string, result *realtime.Result) string {
	if result == nil {
		return ""
	}

	logger := contextutil.LoggerFromContext(ctx)

	data, err := json.Marshal(result)
	if err != nil {
		logger.WarnContext(ctx, "failed to marshal structured result", "error", err)
		return ""
	}

	text, err := i.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: interpreterPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf("QUESTION: %s\n\nREALTIME DATA:\n%s", question, data)},
	}, llm.CompleteOptions{Temperature: 0.2})
	if err != nil {
		logger.WarnContext(ctx, "result interpretation failed", "error", err)
		return ""
	}

	return text
}
