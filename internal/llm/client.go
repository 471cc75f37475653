package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// ErrNoAPIKey is returned when a model call is attempted without a configured key.
// The key is checked at call time, not at startup, so the service can come up
// before an administrator has configured it.
var ErrNoAPIKey = errors.New("openai key not configured")

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles understood by the chat completions API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompleteOptions holds parameters for chat completion requests.
type CompleteOptions struct {
	// Temperature controls the randomness of the output.
	Temperature float32
}

// Client is a client for OpenAI-compatible chat and embeddings APIs.
type Client struct {
	client     *openai.Client
	apiKey     string
	chatModel  string
	embedModel string
}

// New creates a new LLM client. baseURL may be empty to use the default
// OpenAI endpoint.
func New(baseURL, apiKey, chatModel, embedModel string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		client:     openai.NewClientWithConfig(cfg),
		apiKey:     apiKey,
		chatModel:  chatModel,
		embedModel: embedModel,
	}
}

// Complete sends a chat completion request and returns the reply text.
func (c *Client) Complete(ctx context.Context, messages []Message, opts CompleteOptions) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    toOpenAIMessages(messages),
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// StreamComplete sends a streaming chat completion request and calls the
// callback for each token as it arrives.
func (c *Client) StreamComplete(ctx context.Context, messages []Message, opts CompleteOptions, callback func(token string) error) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    toOpenAIMessages(messages),
		Temperature: opts.Temperature,
		Stream:      true,
	})
	if err != nil {
		return fmt.Errorf("chat completion stream failed: %w", err)
	}
	defer func() {
		_ = stream.Close()
	}()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read stream: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		token := resp.Choices[0].Delta.Content
		if token == "" {
			continue
		}
		if err := callback(token); err != nil {
			return fmt.Errorf("callback error: %w", err)
		}
	}
}

// Embed generates an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embedModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	vec := make([]float64, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float64(v)
	}
	return vec, nil
}

// ValidateKey reports whether the given credential is currently usable by
// listing models with a temporary client.
func ValidateKey(ctx context.Context, baseURL, key string) bool {
	if key == "" {
		return false
	}
	cfg := openai.DefaultConfig(key)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(cfg)
	_, err := client.ListModels(ctx)
	return err == nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
