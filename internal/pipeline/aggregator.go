package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"faqbot-ai/internal/contextutil"
	"faqbot-ai/internal/llm"
	"faqbot-ai/internal/realtime"
)

const aggregatorPrompt = `You are an intelligent AI Assistant for a website chatbot.

INPUTS:
- FAQ semantic answers
- REALTIME_META (structured database info)
- REALTIME_TEXT (human summary)
- User question

--------------------------------
RESPONSE LENGTH RULE
--------------------------------
Default -> SHORT & PRECISE (2-3 lines max)

If the user's question contains:
"explain", "details", "more", "elaborate", "why", "how"
-> Provide LONGER detailed answer.

If FAQ answer is long:
-> Summarize unless user asked for detail.

--------------------------------
CORE RULE
--------------------------------
REALTIME_META decides logic.
REALTIME_TEXT decides wording.

--------------------------------
CONTACT INTENT RULE
--------------------------------
If user asks about contacting support, customer service, help, or similar:

AND contactLink is provided:
Return ONLY this link in a short sentence.

Example:
"You can contact us here: https://example.com/contact"

--------------------------------
ANSWER LOGIC
--------------------------------

CASE 1 - REALTIME_META.type = "count"
Return ONE sentence with the number.

CASE 2 - REALTIME_META.type = "list"
Use REALTIME_TEXT as main answer.

CASE 3 - REALTIME_META = null
Use FAQ.

CASE 4 - BOTH EXIST
Use REALTIME_TEXT as main + FAQ as support.

CASE 5 - NOTHING
Say information unavailable.

Never show JSON.
Never hallucinate.
Max 5 lines.`

// AggregateInput carries everything the final answer may draw on.
type AggregateInput struct {
	Question             string
	FAQAnswers           []string
	Result               *realtime.Result
	Summary              string
	ContactLink          string
	ResponseInstructions string
	// CardStyle is the presentation style configured for the result's
	// collection, nil when none is configured.
	CardStyle *string
}

// Aggregator merges FAQ and structured content into one streamed answer.
type Aggregator struct {
	client StreamClient
}

// NewAggregator creates a new Aggregator.
func NewAggregator(client StreamClient) *Aggregator {
	return &Aggregator{client: client}
}

// Aggregate streams the final answer into the sink: every model token is
// forwarded as it arrives, then for a list result one cards event follows,
// then the end-of-stream sentinel. If the token stream fails or is cancelled
// no cards event is emitted and the error is returned without closing the
// sink; the caller owns the failure path.
func (a *Aggregator) Aggregate(ctx context.Context, in AggregateInput, sink Sink) error {
	logger := contextutil.LoggerFromContext(ctx)

	system := aggregatorPrompt
	if in.ResponseInstructions != "" {
		system = in.ResponseInstructions + "\n" + system
	}

	err := a.client.StreamComplete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: a.userMessage(in)},
	}, llm.CompleteOptions{Temperature: 0.3}, sink.Token)
	if err != nil {
		return WrapError(fmt.Errorf("%w: %w", ErrExternalService, err), "failed to stream answer")
	}

	if in.Result != nil && in.Result.Type == realtime.TypeList {
		payload := CardsPayload{
			Title:     in.Result.Collection,
			Schema:    in.Result.Schema,
			Items:     in.Result.Items,
			CardStyle: in.CardStyle,
		}
		if err := sink.Cards(payload); err != nil {
			return WrapError(err, "failed to emit cards event")
		}
		logger.DebugContext(ctx, "cards event emitted",
			"collection", in.Result.Collection, "rows", len(in.Result.Items))
	}

	return sink.Done()
}

func (a *Aggregator) userMessage(in AggregateInput) string {
	contactLink := in.ContactLink
	if contactLink == "" {
		contactLink = "NOT_AVAILABLE"
	}

	faq, err := json.Marshal(in.FAQAnswers)
	if err != nil {
		faq = []byte("[]")
	}
	meta := []byte("null")
	if in.Result != nil {
		if m, err := json.Marshal(in.Result); err == nil {
			meta = m
		}
	}

	return fmt.Sprintf(
		"QUESTION: %s\n\nCONTACT_LINK:\n%s\n\nFAQ:\n%s\n\nREALTIME_META:\n%s\n\nREALTIME_TEXT:\n%s",
		in.Question, contactLink, faq, meta, in.Summary,
	)
}
