package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"universal-redaction/internal/cache"
	"universal-redaction/internal/redaction"
)

// ErrDetectionFailed wraps every error returned by EntityDetector.Detect.
var ErrDetectionFailed = errors.New("entity detection failed")

// ErrMalformedOutput is returned when the model reply is not a valid entity list.
var ErrMalformedOutput = errors.New("malformed detector output")

// DetectorOptions configures an EntityDetector.
type DetectorOptions struct {
	// ValidateSchema checks the model reply with the JSON schema before decoding.
	ValidateSchema bool
	// CacheTTL enables the Redis detection cache when positive.
	CacheTTL time.Duration
}

// EntityDetector asks a chat model for the sensitive entities in a document.
// The model returns entity strings in order of appearance; positions are
// resolved afterwards by redaction.Locate.
type EntityDetector struct {
	provider ChatProvider
	opts     DetectorOptions
}

// NewEntityDetector returns a detector backed by provider.
func NewEntityDetector(provider ChatProvider, opts DetectorOptions) *EntityDetector {
	return &EntityDetector{provider: provider, opts: opts}
}

// Provider returns the underlying chat provider.
func (d *EntityDetector) Provider() ChatProvider {
	return d.provider
}

// Detect returns the ordered detector output for text. Whitespace-only text
// yields an empty list without calling the model. On any failure no partial
// list is returned.
func (d *EntityDetector) Detect(ctx context.Context, text string) ([]redaction.Detection, error) {
	if strings.TrimSpace(text) == "" {
		return []redaction.Detection{}, nil
	}
	if d == nil || d.provider == nil {
		return nil, fmt.Errorf("%w: %w", ErrDetectionFailed, ErrProviderNotConfigured)
	}

	key := cache.DetectionKey(d.provider.Name(), d.provider.Model(), text)
	if d.opts.CacheTTL > 0 {
		if dets, ok := cache.GetDetections(ctx, key); ok {
			log.Printf("[detector] cache hit: text_len=%d entities=%d", len(text), len(dets))
			return dets, nil
		}
	}

	started := time.Now()
	resp, err := d.provider.Chat(ctx, ChatRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: systemInstruction()},
			{Role: "user", Content: text},
		},
		Temperature:    0,
		JSONMode:       true,
		ResponseSchema: responseSchema(),
	})
	if err != nil {
		log.Printf("[detector] %s call failed after %v: %v", d.provider.Name(), time.Since(started), err)
		return nil, fmt.Errorf("%w: %w", ErrDetectionFailed, err)
	}

	dets, err := parseDetections(resp.Content(), d.opts.ValidateSchema)
	if err != nil {
		log.Printf("[detector] unusable reply from %s: %v", d.provider.Name(), err)
		return nil, fmt.Errorf("%w: %w", ErrDetectionFailed, err)
	}

	log.Printf("[detector] %s returned %d entities in %v (text_len=%d)", d.provider.Name(), len(dets), time.Since(started), len(text))

	if d.opts.CacheTTL > 0 {
		if err := cache.SetDetections(ctx, key, dets, d.opts.CacheTTL); err != nil {
			log.Printf("[detector] cache store failed: %v", err)
		}
	}
	return dets, nil
}

func systemInstruction() string {
	var targets strings.Builder
	for i, t := range redaction.AllEntityTypes() {
		fmt.Fprintf(&targets, "%d. %s (%s)\n", i+1, t, t.Info().Label)
	}

	return `You are a specialized Data Leakage Prevention (DLP) engine.
Your task is to identify specific sensitive entities in the provided text.

Target entities:
` + targets.String() + `
Strict exclusion rules:
- Do NOT include prepositions (e.g. "at", "in", "to", "from", "on", "by") that appear before the entity.
- Do NOT include punctuation marks (periods, commas) that trail the entity.
- Extract ONLY the entity value itself, copied exactly as it appears in the text.

Examples:
- Text: "Meeting at 5:00 PM" -> Extract: "5:00 PM" (NOT "at 5:00 PM")
- Text: "Lives in New York" -> Extract: "New York" (NOT "in New York")
- Text: "Sent by john@example.com" -> Extract: "john@example.com" (NOT "by john@example.com")

Return a JSON object of the form {"entities": [{"text": "...", "type": "..."}]}.
"text" is the exact substring found in the original text; "type" is one of the target entity names.
List every occurrence, including repeated values, in order of appearance.
Return {"entities": []} if nothing sensitive is found.`
}

var (
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFence  = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// parseDetections turns a model reply into detector output. It accepts the
// requested {"entities": [...]} object as well as a bare array, optionally
// wrapped in a think block or a Markdown code fence.
func parseDetections(content string, validate bool) ([]redaction.Detection, error) {
	raw := strings.TrimSpace(thinkBlock.ReplaceAllString(content, ""))
	if m := codeFence.FindStringSubmatch(raw); m != nil {
		raw = strings.TrimSpace(m[1])
	}
	if raw == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformedOutput)
	}

	raw = extractJSON(raw)
	if strings.HasPrefix(raw, "[") {
		raw = `{"entities":` + raw + `}`
	}

	if validate {
		if err := validateDetectionJSON([]byte(raw)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
	}

	var payload struct {
		Entities []struct {
			Text string `json:"text"`
			Type string `json:"type"`
		} `json:"entities"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	dets := make([]redaction.Detection, 0, len(payload.Entities))
	for _, e := range payload.Entities {
		dets = append(dets, redaction.Detection{
			Text: e.Text,
			Type: redaction.ParseEntityType(e.Type),
		})
	}
	return dets, nil
}

// extractJSON trims prose around the outermost JSON object or array.
func extractJSON(s string) string {
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return s
	}
	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return s
	}
	closer := "}"
	if s[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(s, closer)
	if end < start {
		return s
	}
	return s[start : end+1]
}
