package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockConfig holds configuration for the AWS Bedrock provider.
type BedrockConfig struct {
	// Region is the AWS region for Bedrock (e.g., "us-east-1", "eu-central-1").
	Region string
	// EndpointOverride is an optional custom endpoint URL (for testing or VPC endpoints).
	EndpointOverride string
	// ModelID is the Bedrock model identifier (e.g., "anthropic.claude-3-sonnet-20240229-v1:0").
	ModelID string
}

// invokeModelAPI is the subset of the Bedrock runtime client the provider uses.
type invokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockProvider implements ChatProvider for AWS Bedrock.
type BedrockProvider struct {
	config BedrockConfig
	client invokeModelAPI
}

// NewBedrockProvider creates a new AWS Bedrock provider.
func NewBedrockProvider(cfg BedrockConfig) (*BedrockProvider, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: bedrock region is required", ErrProviderNotConfigured)
	}
	if cfg.ModelID == "" {
		return nil, fmt.Errorf("%w: bedrock model ID is required", ErrProviderNotConfigured)
	}

	// Load AWS configuration using standard credential chain
	// (environment variables, shared credentials file, IAM role, etc.)
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	clientOpts := []func(*bedrockruntime.Options){}
	if cfg.EndpointOverride != "" {
		clientOpts = append(clientOpts, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(cfg.EndpointOverride)
		})
	}

	return &BedrockProvider{
		config: cfg,
		client: bedrockruntime.NewFromConfig(awsCfg, clientOpts...),
	}, nil
}

// Name returns the provider name.
func (p *BedrockProvider) Name() string {
	return "bedrock"
}

// Model returns the configured model ID.
func (p *BedrockProvider) Model() string {
	return p.config.ModelID
}

// Chat sends a non-streaming chat completion request to Bedrock.
func (p *BedrockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("%w: no messages", ErrInvalidRequest)
	}

	modelID := req.Model
	if modelID == "" {
		modelID = p.config.ModelID
	}

	body, err := p.buildRequestBody(modelID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to build request body: %w", err)
	}

	log.Printf("[bedrock] Invoking model %s", modelID)

	output, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		log.Printf("[bedrock] InvokeModel failed: %v", err)
		return nil, fmt.Errorf("bedrock invoke failed: %w", err)
	}

	content, err := p.parseResponse(modelID, output.Body)
	if err != nil {
		return nil, err
	}

	return &ChatResponse{
		ID:    fmt.Sprintf("bedrock-%d", time.Now().UnixNano()),
		Model: modelID,
		Choices: []ChatChoice{{
			Message:      ChatMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
	}, nil
}

// detectModelFamily determines the model family from the model ID.
func detectModelFamily(modelID string) string {
	modelID = strings.ToLower(modelID)

	switch {
	case strings.Contains(modelID, "anthropic") || strings.Contains(modelID, "claude"):
		return "anthropic"
	case strings.Contains(modelID, "amazon") || strings.Contains(modelID, "titan"):
		return "amazon"
	case strings.Contains(modelID, "meta") || strings.Contains(modelID, "llama"):
		return "meta"
	case strings.Contains(modelID, "mistral"):
		return "mistral"
	default:
		return "unknown"
	}
}

// buildRequestBody constructs the request body for the specific Bedrock model.
func (p *BedrockProvider) buildRequestBody(modelID string, req ChatRequest) ([]byte, error) {
	switch detectModelFamily(modelID) {
	case "amazon":
		return p.buildTitanRequest(req)
	case "meta":
		return p.buildLlamaRequest(req)
	case "mistral":
		return p.buildMistralRequest(req)
	case "anthropic":
		return p.buildAnthropicRequest(req)
	default:
		// Anthropic is the most common family on Bedrock.
		log.Printf("[bedrock] Unknown model family for %s, using Anthropic format", modelID)
		return p.buildAnthropicRequest(req)
	}
}

func maxTokensOr(req ChatRequest, fallback int) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return fallback
}

// buildAnthropicRequest builds a request body for Anthropic Claude models.
func (p *BedrockProvider) buildAnthropicRequest(req ChatRequest) ([]byte, error) {
	messages := make([]map[string]interface{}, 0, len(req.Messages))
	var systemPrompt string

	for _, msg := range req.Messages {
		if msg.Role == "system" {
			systemPrompt = msg.Content
			continue
		}

		role := "user"
		if msg.Role == "assistant" {
			role = "assistant"
		}

		messages = append(messages, map[string]interface{}{
			"role": role,
			"content": []map[string]interface{}{
				{"type": "text", "text": msg.Content},
			},
		})
	}

	body := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"messages":          messages,
		"max_tokens":        maxTokensOr(req, 4096),
		"temperature":       req.Temperature,
	}
	if systemPrompt != "" {
		body["system"] = systemPrompt
	}

	return json.Marshal(body)
}

// flattenPrompt renders a conversation as role-prefixed plain text for models
// without a native chat format.
func flattenPrompt(req ChatRequest) string {
	var prompt strings.Builder
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			prompt.WriteString(msg.Content)
		case "assistant":
			prompt.WriteString("Assistant: ")
			prompt.WriteString(msg.Content)
		default:
			prompt.WriteString("User: ")
			prompt.WriteString(msg.Content)
		}
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("Assistant: ")
	return prompt.String()
}

// buildTitanRequest builds a request body for Amazon Titan models.
func (p *BedrockProvider) buildTitanRequest(req ChatRequest) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"inputText": flattenPrompt(req),
		"textGenerationConfig": map[string]interface{}{
			"maxTokenCount": maxTokensOr(req, 4096),
			"temperature":   req.Temperature,
		},
	})
}

// buildLlamaRequest builds a request body for Meta Llama models.
func (p *BedrockProvider) buildLlamaRequest(req ChatRequest) ([]byte, error) {
	var prompt strings.Builder
	prompt.WriteString("<|begin_of_text|>")
	for _, msg := range req.Messages {
		prompt.WriteString(fmt.Sprintf("<|start_header_id|>%s<|end_header_id|>\n\n%s<|eot_id|>", msg.Role, msg.Content))
	}
	prompt.WriteString("<|start_header_id|>assistant<|end_header_id|>\n\n")

	return json.Marshal(map[string]interface{}{
		"prompt":      prompt.String(),
		"max_gen_len": maxTokensOr(req, 2048),
		"temperature": req.Temperature,
	})
}

// buildMistralRequest builds a request body for Mistral models.
func (p *BedrockProvider) buildMistralRequest(req ChatRequest) ([]byte, error) {
	var prompt strings.Builder
	prompt.WriteString("<s>")
	for _, msg := range req.Messages {
		if msg.Role == "assistant" {
			prompt.WriteString(msg.Content)
			prompt.WriteString("</s>")
			continue
		}
		prompt.WriteString(fmt.Sprintf("[INST] %s [/INST]", msg.Content))
	}

	return json.Marshal(map[string]interface{}{
		"prompt":      prompt.String(),
		"max_tokens":  maxTokensOr(req, 4096),
		"temperature": req.Temperature,
	})
}

// parseResponse extracts the generated text based on the model family.
func (p *BedrockProvider) parseResponse(modelID string, body []byte) (string, error) {
	switch detectModelFamily(modelID) {
	case "amazon":
		var resp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse Titan response: %w", err)
		}
		if len(resp.Results) == 0 {
			return "", fmt.Errorf("no results in Titan response")
		}
		return resp.Results[0].OutputText, nil

	case "meta":
		var resp struct {
			Generation string `json:"generation"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse Llama response: %w", err)
		}
		return resp.Generation, nil

	case "mistral":
		var resp struct {
			Outputs []struct {
				Text string `json:"text"`
			} `json:"outputs"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse Mistral response: %w", err)
		}
		if len(resp.Outputs) == 0 {
			return "", fmt.Errorf("no outputs in Mistral response")
		}
		return resp.Outputs[0].Text, nil

	default:
		var resp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse Anthropic response: %w", err)
		}
		var content strings.Builder
		for _, c := range resp.Content {
			if c.Type == "text" {
				content.WriteString(c.Text)
			}
		}
		return content.String(), nil
	}
}

// Ensure BedrockProvider implements ChatProvider
var _ ChatProvider = (*BedrockProvider)(nil)
