package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GeminiConfig holds configuration for the Google Gemini provider.
type GeminiConfig struct {
	// BaseURL defaults to https://generativelanguage.googleapis.com.
	BaseURL string
	APIKey  string
	// Model defaults to gemini-2.5-flash.
	Model   string
	Timeout time.Duration
}

// GeminiProvider implements ChatProvider on the Generative Language
// generateContent endpoint.
type GeminiProvider struct {
	config GeminiConfig
	client *http.Client
}

// NewGeminiProvider creates a Gemini provider. An API key is required.
func NewGeminiProvider(cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrProviderNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &GeminiProvider{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Model returns the configured default model.
func (p *GeminiProvider) Model() string {
	return p.config.Model
}

type gmPart struct {
	Text string `json:"text"`
}

type gmContent struct {
	Role  string   `json:"role,omitempty"`
	Parts []gmPart `json:"parts"`
}

type gmGenerationConfig struct {
	Temperature      float64         `json:"temperature"`
	MaxOutputTokens  int             `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type gmRequest struct {
	SystemInstruction *gmContent          `json:"systemInstruction,omitempty"`
	Contents          []gmContent         `json:"contents"`
	GenerationConfig  *gmGenerationConfig `json:"generationConfig,omitempty"`
}

type gmResponse struct {
	Candidates []struct {
		Content      gmContent `json:"content"`
		FinishReason string    `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Chat sends a generateContent request. System messages become the system
// instruction; assistant messages are sent with the "model" role.
func (p *GeminiProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("%w: no messages", ErrInvalidRequest)
	}

	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	body, err := json.Marshal(p.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimRight(p.config.BaseURL, "/") + "/v1beta/models/" + url.PathEscape(model) + ":generateContent"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.config.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		log.Printf("[gemini] Request failed: %v", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("[gemini] Non-200 response: %d", resp.StatusCode)
		return nil, fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var gr gmResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := &ChatResponse{
		Model: model,
		Usage: ChatUsage{
			PromptTokens:     gr.UsageMetadata.PromptTokenCount,
			CompletionTokens: gr.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      gr.UsageMetadata.TotalTokenCount,
		},
	}
	for i, c := range gr.Candidates {
		var text strings.Builder
		for _, part := range c.Content.Parts {
			text.WriteString(part.Text)
		}
		out.Choices = append(out.Choices, ChatChoice{
			Index:        i,
			Message:      ChatMessage{Role: "assistant", Content: text.String()},
			FinishReason: strings.ToLower(c.FinishReason),
		})
	}

	return out, nil
}

func (p *GeminiProvider) buildRequest(req ChatRequest) gmRequest {
	var gr gmRequest
	var system []gmPart

	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			system = append(system, gmPart{Text: msg.Content})
		case "assistant":
			gr.Contents = append(gr.Contents, gmContent{Role: "model", Parts: []gmPart{{Text: msg.Content}}})
		default:
			gr.Contents = append(gr.Contents, gmContent{Role: "user", Parts: []gmPart{{Text: msg.Content}}})
		}
	}
	if len(system) > 0 {
		gr.SystemInstruction = &gmContent{Parts: system}
	}

	gc := &gmGenerationConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxTokens,
	}
	if req.JSONMode || len(req.ResponseSchema) > 0 {
		gc.ResponseMIMEType = "application/json"
		gc.ResponseSchema = req.ResponseSchema
	}
	gr.GenerationConfig = gc

	return gr
}

// Ensure GeminiProvider implements ChatProvider
var _ ChatProvider = (*GeminiProvider)(nil)
