// Package ai provides the entity detector and the AI provider abstractions it
// runs on. It supports multiple backends (Gemini, OpenAI-compatible, AWS Bedrock)
// through a unified interface.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"universal-redaction/internal/config"
)

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to a chat completion endpoint.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	// JSONMode asks the provider for a bare JSON reply where it supports it.
	JSONMode bool `json:"-"`
	// ResponseSchema is an optional JSON schema for the reply. Providers that
	// cannot enforce a schema ignore it.
	ResponseSchema json.RawMessage `json:"-"`
}

// ChatChoice represents a single choice in a chat completion response.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatUsage represents token usage information.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse represents a response from a chat completion endpoint.
type ChatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   ChatUsage    `json:"usage"`
}

// Content returns the text of the first choice, or "" if there is none.
func (r *ChatResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// ChatProvider defines the interface for AI chat providers.
type ChatProvider interface {
	// Name returns the provider name for logging and identification.
	Name() string

	// Model returns the default model identifier used when a request names none.
	Model() string

	// Chat sends a non-streaming chat completion request and returns the response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ProviderType represents the type of AI provider.
type ProviderType string

const (
	// ProviderGemini represents the Google Generative Language API.
	ProviderGemini ProviderType = "GEMINI"
	// ProviderOpenAICompatible represents OpenAI-compatible endpoints (OpenAI, Ollama, etc.)
	ProviderOpenAICompatible ProviderType = "OPENAI_COMPATIBLE"
	// ProviderBedrock represents AWS Bedrock native integration.
	ProviderBedrock ProviderType = "BEDROCK"
)

// ErrProviderNotConfigured is returned when the requested provider is not properly configured.
var ErrProviderNotConfigured = errors.New("AI provider not configured")

// ErrInvalidRequest is returned when the request is invalid.
var ErrInvalidRequest = errors.New("invalid chat request")

// ErrInvalidResponse is returned when the upstream reply carries no usable content.
var ErrInvalidResponse = errors.New("invalid chat response")

// globalProvider holds the singleton provider instance.
var globalProvider ChatProvider

// NewProviderFromConfig builds the ChatProvider selected by cfg.AIProvider.
func NewProviderFromConfig(cfg *config.Config) (ChatProvider, error) {
	if cfg == nil {
		return nil, errors.New("config not loaded")
	}

	switch ProviderType(cfg.AIProvider) {
	case ProviderBedrock:
		provider, err := NewBedrockProvider(BedrockConfig{
			Region:           cfg.BedrockRegion,
			EndpointOverride: cfg.BedrockEndpointOverride,
			ModelID:          cfg.BedrockModelID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Bedrock provider: %w", err)
		}
		return provider, nil

	case ProviderOpenAICompatible:
		return NewOpenAIProvider(OpenAIConfig{
			BaseURL: cfg.AIModelURL,
			APIKey:  cfg.AIAPIKey,
			Model:   cfg.AIModelName,
			Timeout: cfg.AITimeout,
		}), nil

	case ProviderGemini, "":
		provider, err := NewGeminiProvider(GeminiConfig{
			BaseURL: cfg.GeminiBaseURL,
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.AITimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini provider: %w", err)
		}
		return provider, nil

	default:
		return nil, fmt.Errorf("%w: unknown AI_PROVIDER %q", ErrProviderNotConfigured, cfg.AIProvider)
	}
}

// InitProvider initializes the global ChatProvider based on configuration.
// This should be called once during application startup after config is loaded.
func InitProvider() error {
	cfg := config.AppConfig
	if cfg == nil {
		return errors.New("config not loaded")
	}

	log.Printf("[ai] Initializing AI provider: %s", cfg.AIProvider)

	provider, err := NewProviderFromConfig(cfg)
	if err != nil {
		return err
	}
	globalProvider = provider
	log.Printf("[ai] %s provider initialized: model=%s", provider.Name(), provider.Model())
	return nil
}

// GetProvider returns the global ChatProvider instance.
// Returns nil if InitProvider has not been called.
func GetProvider() ChatProvider {
	return globalProvider
}

// SetProvider sets the global ChatProvider instance.
// This is primarily useful for testing.
func SetProvider(p ChatProvider) {
	globalProvider = p
}
