package conversation

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_completion_client.go -package=mocks faqbot-ai/internal/conversation CompletionClient

import (
	"context"
	"strings"

	"faqbot-ai/internal/contextutil"
	"faqbot-ai/internal/llm"
)

// CompletionClient is the slice of the LLM client the rewriter needs.
type CompletionClient interface {
	Complete(ctx context.Context, messages []llm.Message, opts llm.CompleteOptions) (string, error)
}

// historyWindow is how many trailing history turns the model sees.
const historyWindow = 4

// maxRewriteLength rejects rewrites that ballooned past a search string.
const maxRewriteLength = 120

// refusalMarkers flag model output that is a refusal rather than a rewrite.
var refusalMarkers = []string{"unavailable", "sorry", "i am", "cannot"}

const rewriterSystemPrompt = `You are a Search Query Optimizer.
Your task is to determine if the user's new message is a **Follow-up** or a **New Topic** and if a follow-up just rewrite the question.
Do NOT return any explanations, only the optimized search string.

### RULES
1. **Dependency Check (The "Pronoun" Rule):**
   - ONLY combine with history if the new question contains **Pronouns** ("it", "that", "they") or is **Grammatically Incomplete** ("How much?", "Where do I buy?", "Is it refundable?").

2. **Independence Check (The "Specifics" Rule):**
   - If the user asks a complete question containing a **New Specific Noun** or **Scenario** (e.g., "Group of 7 people", "Booking for pets"), treat it as a **Standalone Query**.
   - **Do NOT** attach the previous topic to it.
   - *Example:* History="Commuter Pass", Input="Can I book for a group of 7?" -> Output="Group booking for 7 people" (Correct).
   - *Bad Output:* "Group booking for Commuter Pass" (Incorrect).

3. **Output:**
   - Return ONLY the optimized search string.`

// Rewriter turns a possibly context-dependent question into a single
// self-contained search string.
type Rewriter struct {
	client CompletionClient
}

// NewRewriter creates a new Rewriter.
func NewRewriter(client CompletionClient) *Rewriter {
	return &Rewriter{client: client}
}

// Rewrite returns a self-contained search string for the question. With an
// empty history it returns the question unchanged without a model call.
// A rewrite that looks like a refusal or exceeds maxRewriteLength is
// discarded, as is any model error: this step never aborts the request.
func (r *Rewriter) Rewrite(ctx context.Context, history []llm.Message, question string) string {
	if len(history) == 0 {
		return question
	}

	logger := contextutil.LoggerFromContext(ctx)

	messages := []llm.Message{{Role: llm.RoleSystem, Content: rewriterSystemPrompt}}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})

	rewritten, err := r.client.Complete(ctx, messages, llm.CompleteOptions{Temperature: 0})
	if err != nil {
		logger.WarnContext(ctx, "query rewrite failed, using original question", "error", err)
		return question
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" || len(rewritten) > maxRewriteLength {
		return question
	}
	lower := strings.ToLower(rewritten)
	for _, marker := range refusalMarkers {
		if strings.Contains(lower, marker) {
			return question
		}
	}

	logger.DebugContext(ctx, "question rewritten", "original", question, "rewritten", rewritten)
	return rewritten
}
