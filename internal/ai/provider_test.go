package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"universal-redaction/internal/config"
)

func TestNewProviderFromConfig(t *testing.T) {
	p, err := NewProviderFromConfig(&config.Config{AIProvider: "OPENAI_COMPATIBLE", AIModelURL: "http://localhost:11434/v1", AIModelName: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "openai-compatible", p.Name())
	assert.Equal(t, "llama3", p.Model())

	p, err = NewProviderFromConfig(&config.Config{GeminiAPIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.Name())
	assert.Equal(t, "gemini-2.5-flash", p.Model())

	_, err = NewProviderFromConfig(&config.Config{AIProvider: "GEMINI"})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)

	_, err = NewProviderFromConfig(&config.Config{AIProvider: "CARRIER_PIGEON"})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)

	_, err = NewProviderFromConfig(&config.Config{AIProvider: "BEDROCK"})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

func TestInitProvider_NoConfig(t *testing.T) {
	orig := config.AppConfig
	t.Cleanup(func() { config.AppConfig = orig })

	config.AppConfig = nil
	assert.Error(t, InitProvider())
}

func TestSetProvider(t *testing.T) {
	orig := GetProvider()
	t.Cleanup(func() { SetProvider(orig) })

	fp := &fakeProvider{}
	SetProvider(fp)
	assert.Same(t, fp, GetProvider())
	SetProvider(nil)
	assert.Nil(t, GetProvider())
}

func TestOpenAIProvider_Chat(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"{\"entities\":[]}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{BaseURL: srv.URL + "/v1/", APIKey: "sk-test", Model: "gpt-4o-mini"})
	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
		JSONMode: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"entities":[]}`, resp.Content())

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.Equal(t, false, got["stream"])
	assert.Equal(t, map[string]interface{}{"type": "json_object"}, got["response_format"])
}

func TestOpenAIProvider_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{BaseURL: srv.URL})
	_, err := p.Chat(context.Background(), ChatRequest{Messages: []ChatMessage{{Role: "user", Content: "hi"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	_, err = p.Chat(context.Background(), ChatRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestOpenAIProvider_RequestShape(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{Model: "llama3"})

	body := p.buildRequest(ChatRequest{
		Messages:    []ChatMessage{{Role: "system", Content: "s"}, {Role: "user", Content: "u"}},
		Temperature: 0,
		MaxTokens:   256,
	})
	assert.Equal(t, "llama3", body.Model)
	assert.Len(t, body.Messages, 2)
	assert.Nil(t, body.ResponseFormat)

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"llama3","messages":[{"role":"system","content":"s"},{"role":"user","content":"u"}],"stream":false,"temperature":0,"max_tokens":256}`, string(raw))

	assert.Equal(t, "gpt-4o", p.buildRequest(ChatRequest{Model: "gpt-4o"}).Model)
}

func TestOpenAIProvider_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"c2","choices":[]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{BaseURL: srv.URL})
	_, err := p.Chat(context.Background(), ChatRequest{Messages: []ChatMessage{{Role: "user", Content: "hi"}}})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestGeminiProvider_Chat(t *testing.T) {
	var got gmRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"entities\":"},{"text":"[]}"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":3,"totalTokenCount":13}}`))
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(GeminiConfig{BaseURL: srv.URL, APIKey: "key-1", Model: "gemini-test"})
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: "be strict"},
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "ok"},
		},
		JSONMode:       true,
		ResponseSchema: responseSchema(),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"entities":[]}`, resp.Content())
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	assert.Equal(t, 13, resp.Usage.TotalTokens)

	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "be strict", got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 2)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "model", got.Contents[1].Role)
	require.NotNil(t, got.GenerationConfig)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMIMEType)
	assert.NotEmpty(t, got.GenerationConfig.ResponseSchema)
}

func TestGeminiProvider_RequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(GeminiConfig{})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

type fakeInvoker struct {
	body  []byte
	err   error
	input *bedrockruntime.InvokeModelInput
}

func (f *fakeInvoker) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.body}, nil
}

func TestBedrockProvider_Chat(t *testing.T) {
	tests := []struct {
		name    string
		modelID string
		reply   string
		bodyKey string
	}{
		{"anthropic", "anthropic.claude-3-haiku-20240307-v1:0", `{"content":[{"type":"text","text":"[]"}]}`, "anthropic_version"},
		{"titan", "amazon.titan-text-express-v1", `{"results":[{"outputText":"[]"}]}`, "inputText"},
		{"llama", "meta.llama3-8b-instruct-v1:0", `{"generation":"[]"}`, "max_gen_len"},
		{"mistral", "mistral.mistral-7b-instruct-v0:2", `{"outputs":[{"text":"[]"}]}`, "prompt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &fakeInvoker{body: []byte(tt.reply)}
			p := &BedrockProvider{config: BedrockConfig{Region: "us-east-1", ModelID: tt.modelID}, client: inv}

			resp, err := p.Chat(context.Background(), ChatRequest{Messages: []ChatMessage{
				{Role: "system", Content: "sys"},
				{Role: "user", Content: "text"},
			}})
			require.NoError(t, err)
			assert.Equal(t, "[]", resp.Content())
			assert.Equal(t, tt.modelID, aws.ToString(inv.input.ModelId))

			var sent map[string]interface{}
			require.NoError(t, json.Unmarshal(inv.input.Body, &sent))
			assert.Contains(t, sent, tt.bodyKey)
		})
	}
}

func TestBedrockProvider_InvokeError(t *testing.T) {
	p := &BedrockProvider{config: BedrockConfig{ModelID: "anthropic.claude"}, client: &fakeInvoker{err: errors.New("throttled")}}
	_, err := p.Chat(context.Background(), ChatRequest{Messages: []ChatMessage{{Role: "user", Content: "x"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestDetectModelFamily(t *testing.T) {
	assert.Equal(t, "anthropic", detectModelFamily("anthropic.claude-v2"))
	assert.Equal(t, "amazon", detectModelFamily("amazon.titan-text-lite-v1"))
	assert.Equal(t, "meta", detectModelFamily("meta.llama2-13b-chat-v1"))
	assert.Equal(t, "mistral", detectModelFamily("mistral.mixtral-8x7b"))
	assert.Equal(t, "unknown", detectModelFamily("cohere.command"))
}
