package pipeline

// CardsPayload is the auxiliary structured event describing list rows for
// rich client rendering, sent alongside the text answer.
type CardsPayload struct {
	Title     string           `json:"title"`
	Schema    []string         `json:"schema"`
	Items     []map[string]any `json:"items"`
	CardStyle *string          `json:"cardStyle"`
}

// Sink receives the pipeline's output. It separates what to say from how it
// is emitted, so the pipeline can be tested without a live transport.
// Implementations are single-writer and append-only: tokens first, then at
// most one cards event, then Done.
type Sink interface {
	// Token emits one incremental text chunk.
	Token(token string) error
	// Cards emits the structured cards event.
	Cards(payload CardsPayload) error
	// Done emits the end-of-stream sentinel and closes the channel.
	Done() error
}
