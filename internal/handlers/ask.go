package handlers

import (
	"encoding/json"
	"net/http"

	"faqbot-ai/internal/contextutil"
	"faqbot-ai/internal/conversation"
	"faqbot-ai/internal/llm"
	"faqbot-ai/internal/pipeline"
)

// ContextHeader carries the updated serialized conversation context back to
// the caller, who persists it and resends it on the next turn.
const ContextHeader = "X-User-Context"

// genericErrorMessage is the only user-visible failure text. Internal detail
// never reaches the caller.
const genericErrorMessage = "Something went wrong while answering. Please try again."

// AskHandler handles streaming question-answering requests.
type AskHandler struct {
	engine pipeline.Engine
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(engine pipeline.Engine) *AskHandler {
	return &AskHandler{engine: engine}
}

// HistoryTurn is one prior conversation turn.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskRequest represents the HTTP request payload for questions.
type AskRequest struct {
	Question string               `json:"question"`
	History  []HistoryTurn        `json:"history,omitempty"`
	Context  conversation.Context `json:"context,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP answers a question as a Server-Sent Events stream: incremental
// text tokens, an optional cards event for list results, and a [DONE]
// sentinel. The updated conversation context travels in a response header,
// set before the stream starts.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Question == "" {
		logger.WarnContext(ctx, "empty question in request")
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}

	// Update the caller-owned conversation context and echo it back before
	// any body bytes are written.
	updated := conversation.Update(req.Context, req.Question)
	if serialized, err := json.Marshal(updated); err == nil {
		w.Header().Set(ContextHeader, string(serialized))
	} else {
		logger.WarnContext(ctx, "failed to serialize conversation context", "error", err)
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	history := make([]llm.Message, len(req.History))
	for i, turn := range req.History {
		history[i] = llm.Message{Role: turn.Role, Content: turn.Content}
	}

	sink := newSSESink(w, flusher)
	err := h.engine.Ask(ctx, pipeline.AskRequest{Question: req.Question, History: history}, sink)
	if err == nil {
		return
	}

	logger.ErrorContext(ctx, "ask pipeline failed", "error", err)

	// The caller disconnected; nothing more can be delivered.
	if ctx.Err() != nil {
		return
	}

	// Deliver one generic failure line and still close the stream cleanly.
	if !sink.WroteAny() {
		_ = sink.Token(genericErrorMessage)
	}
	_ = sink.Done()
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
