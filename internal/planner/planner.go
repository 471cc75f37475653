package planner

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_completion_client.go -package=mocks faqbot-ai/internal/planner CompletionClient

import (
	"context"
	"encoding/json"
	"strings"

	"faqbot-ai/internal/contextutil"
	"faqbot-ai/internal/llm"
	"faqbot-ai/internal/settings"
)

// CompletionClient is the slice of the LLM client the planner needs.
type CompletionClient interface {
	Complete(ctx context.Context, messages []llm.Message, opts llm.CompleteOptions) (string, error)
}

// Planner asks the language model to translate a question into a Plan.
type Planner struct {
	client CompletionClient
}

// NewPlanner creates a new Planner.
func NewPlanner(client CompletionClient) *Planner {
	return &Planner{client: client}
}

const plannerPrompt = `You are a STRICT database query planner that converts user questions into query JSON.

--------------------------------
CORE TASK
--------------------------------
Return ONLY valid JSON. No text. No explanation.

--------------------------------
COLLECTION SELECTION
--------------------------------
- Choose the most relevant collection from the available list.
- Never invent collection names.

--------------------------------
FIELD RULES
--------------------------------
- Only use fields that exist in the selected collection schema.
- Never hallucinate fields.

--------------------------------
LOCATION NORMALIZATION (CRITICAL)
--------------------------------
The database stores locations in the format:
City Name (AIRPORT_CODE)

Before generating filters, you MUST normalize
all user-provided places into the nearest
major city or airport name.

RULES:

1. SMALL TOWNS / VILLAGES
- Convert to nearest major airport city.
Example:
"Kalveerampalayam" -> "Coimbatore"
"Kollam" -> "Trivandrum"
"Alappuzha" -> "Kochi"

2. OLD OR LOCAL NAMES
- Convert to modern official city name.
Example:
"Madras" -> "Chennai"
"Cochin" -> "Kochi"
"Bombay" -> "Mumbai"

3. SUBURBS / DISTRICTS
- Convert to main metro city.
Example:
"Brooklyn" -> "New York"
"Noida" -> "Delhi"

4. AIRPORT CODES
- If user provides code (COK, MAA, JFK),
search using containsi for that code.

Example:
User: "flight from COK"
Filter:
{ "origin": { "containsi": "COK" } }

5. ALWAYS MATCH DATABASE STRINGS
- Use containsi
- Never use raw spelling if DB format differs
- Prefer airport code if available

--------------------------------
TEXT FILTER RULES (VERY IMPORTANT)
--------------------------------
- For city names, titles, destinations, names -> ALWAYS use "containsi"
- NEVER use "eq" for text
- NEVER use "in" for text arrays
- For multiple text values use "$or" with containsi

Example:
User: "flight to paris or amsterdam"
Filters:
{
  "$or": [
    { "destination": { "containsi": "paris" } },
    { "destination": { "containsi": "amsterdam" } }
  ]
}

--------------------------------
NUMBER FILTER RULES
--------------------------------
- For price, fare, amount -> use lt, lte, gt, gte, between
- "under" -> lte
- "above" -> gte
- "between" -> between

--------------------------------
OPERATION RULES
--------------------------------
- "how many", "count" -> operation = "count"
- otherwise -> operation = "list"

--------------------------------
SORT RULES
--------------------------------
- "cheapest", "lowest" -> sort ["fare:asc"]
- "highest", "expensive" -> sort ["fare:desc"]
- Only add sort if user implies ranking

--------------------------------
INTENT CLASSIFICATION (CRITICAL)
--------------------------------
First decide intent:

INTENT = "realtime"
- User asks about availability, price, list, count, search, show items
- Mentions data stored in collections

INTENT = "faq"
- User asks "who is", "what is", "explain", "details about"
- General knowledge
- No clear database entity

If no clear database match -> ALWAYS choose "faq"
NEVER force a collection.

OUTPUT FORMAT

Return ONLY JSON.

If no database match exists, return:

{
  "collection": null
}

Otherwise return:

{
  "collection": "name",
  "operation": "list" | "count",
  "filters": {},
  "sort": []
}

--------------------------------
AVAILABLE COLLECTIONS
--------------------------------
`

// Plan asks the model for a query plan for the question. It returns nil when
// the model output cannot be parsed as a plan; planner hallucination is an
// expected condition, not an error, so this method never fails the request.
func (p *Planner) Plan(ctx context.Context, question string, collections []settings.Collection, systemInstructions string) *Plan {
	logger := contextutil.LoggerFromContext(ctx)

	schema, err := json.MarshalIndent(collections, "", "  ")
	if err != nil {
		logger.WarnContext(ctx, "failed to marshal collections for planner", "error", err)
		return nil
	}

	system := plannerPrompt + string(schema)
	if systemInstructions != "" {
		system = systemInstructions + "\n" + system
	}

	raw, err := p.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: question},
	}, llm.CompleteOptions{Temperature: 0})
	if err != nil {
		logger.WarnContext(ctx, "planner call failed", "error", err)
		return nil
	}

	plan := ParsePlan(raw)
	if plan == nil {
		logger.WarnContext(ctx, "planner output was not a valid plan", "raw", raw)
	}
	return plan
}

// ParsePlan strips code-fence markers from raw model output and parses it as
// a Plan. Returns nil on any parse failure.
func ParsePlan(raw string) *Plan {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil
	}

	var plan Plan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil
	}
	return &plan
}
