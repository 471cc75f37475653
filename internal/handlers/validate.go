package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"faqbot-ai/internal/contextutil"
	"faqbot-ai/internal/llm"
)

// KeyValidator reports whether a model-provider credential is usable.
type KeyValidator func(ctx context.Context, baseURL, key string) bool

// ValidateKeyHandler checks a candidate language-model credential.
type ValidateKeyHandler struct {
	baseURL  string
	validate KeyValidator
}

// NewValidateKeyHandler creates a new ValidateKeyHandler. A nil validator
// uses the real provider check.
func NewValidateKeyHandler(baseURL string, validate KeyValidator) *ValidateKeyHandler {
	if validate == nil {
		validate = llm.ValidateKey
	}
	return &ValidateKeyHandler{baseURL: baseURL, validate: validate}
}

// ValidateKeyRequest represents the HTTP request payload for key validation.
type ValidateKeyRequest struct {
	Key string `json:"key"`
}

// ValidateKeyResponse represents the HTTP response payload for key validation.
type ValidateKeyResponse struct {
	Valid bool `json:"valid"`
}

// ServeHTTP reports whether the submitted credential is currently usable.
func (h *ValidateKeyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ValidateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	valid := h.validate(ctx, h.baseURL, req.Key)
	logger.InfoContext(ctx, "key validation completed", "valid", valid)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ValidateKeyResponse{Valid: valid})
}
