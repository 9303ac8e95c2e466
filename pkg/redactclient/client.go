// Package redactclient is a Go client for the redaction server HTTP API.
package redactclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds client configuration.
//
// BaseURL points to the server, for example http://localhost:8080.
// APIKey is only needed for admin endpoints. If HTTPClient is nil a client
// with a 60s timeout is used.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client is a lightweight API client.
type Client struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
}

// New creates a client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid BaseURL %q: scheme and host are required", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}

	return &Client{
		baseURL:    u,
		apiKey:     cfg.APIKey,
		httpClient: hc,
	}, nil
}

// Detection is one item of detector output.
type Detection struct {
	Text string `json:"text" yaml:"text"`
	Type string `json:"type" yaml:"type"`
}

// Entity is a detection located in the document as the byte range [Start, End).
type Entity struct {
	Text  string `json:"text" yaml:"text"`
	Type  string `json:"type" yaml:"type"`
	Start int    `json:"start_index" yaml:"start_index"`
	End   int    `json:"end_index" yaml:"end_index"`
}

// Stats mirrors the server's processing stats.
type Stats struct {
	TotalEntities       int            `json:"total_entities" yaml:"total_entities"`
	LevenshteinDistance int            `json:"levenshtein_distance" yaml:"levenshtein_distance"`
	SimilarityScore     float64        `json:"similarity_score" yaml:"similarity_score"`
	Breakdown           map[string]int `json:"breakdown" yaml:"breakdown"`
	Unlocated           int            `json:"unlocated" yaml:"unlocated"`
}

// Segment is one run of a diff.
type Segment struct {
	Value string `json:"value" yaml:"value"`
	Kind  string `json:"kind" yaml:"kind"`
}

// Segment kinds.
const (
	SegmentMatch          = "MATCH"
	SegmentOnlyInExpected = "ONLY_IN_EXPECTED"
	SegmentOnlyInSystem   = "ONLY_IN_SYSTEM"
)

// DiffSummary counts bytes per segment kind.
type DiffSummary struct {
	Matched        int `json:"matched" yaml:"matched"`
	OnlyInExpected int `json:"only_in_expected" yaml:"only_in_expected"`
	OnlyInSystem   int `json:"only_in_system" yaml:"only_in_system"`
}

// Evaluation mirrors the server's comparison against a ground truth.
type Evaluation struct {
	Similarity          float64     `json:"similarity" yaml:"similarity"`
	LevenshteinDistance int         `json:"levenshtein_distance" yaml:"levenshtein_distance"`
	Segments            []Segment   `json:"segments" yaml:"segments"`
	ExpectedView        []Segment   `json:"expected_view" yaml:"expected_view"`
	SystemView          []Segment   `json:"system_view" yaml:"system_view"`
	Summary             DiffSummary `json:"summary" yaml:"summary"`
}

// DetectRequest mirrors the /detect request payload.
type DetectRequest struct {
	Text     string `json:"text"`
	Mode     string `json:"mode,omitempty"`
	Expected string `json:"expected,omitempty"`
	RID      string `json:"rid,omitempty"`
}

// RedactRequest mirrors the /redact request payload.
type RedactRequest struct {
	Text     string      `json:"text"`
	Entities []Detection `json:"entities"`
	Mode     string      `json:"mode,omitempty"`
	Expected string      `json:"expected,omitempty"`
	RID      string      `json:"rid,omitempty"`
}

// RedactionResponse mirrors the /detect and /redact response payload.
type RedactionResponse struct {
	RID          string      `json:"rid" yaml:"rid"`
	Mode         string      `json:"mode" yaml:"mode"`
	Entities     []Entity    `json:"entities" yaml:"entities"`
	Unlocated    []Detection `json:"unlocated,omitempty" yaml:"unlocated,omitempty"`
	RedactedText string      `json:"redacted_text" yaml:"redacted_text"`
	Stats        Stats       `json:"stats" yaml:"stats"`
	Evaluation   *Evaluation `json:"evaluation,omitempty" yaml:"evaluation,omitempty"`
}

// EvaluateRequest mirrors the /evaluate request payload.
type EvaluateRequest struct {
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// StatusResponse is returned by admin endpoints.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Cleared int    `json:"cleared"`
}

// APIError represents an HTTP level error returned by the server.
type APIError struct {
	StatusCode int
	// Type and Message are parsed from the JSON error envelope when present.
	Type    string
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("redaction api error: status=%d type=%s message=%s", e.StatusCode, e.Type, e.Message)
	}
	if len(e.Body) == 0 {
		return fmt.Sprintf("redaction api error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("redaction api error: status=%d body=%s", e.StatusCode, string(e.Body))
}

// IsDetectorFailure reports whether the server could not obtain detector output.
func (e *APIError) IsDetectorFailure() bool {
	return e.StatusCode == http.StatusBadGateway || e.Type == "detector_failed"
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: body}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		apiErr.Message = envelope.Error.Message
		apiErr.Type = envelope.Error.Type
	}
	return apiErr
}

// Detect calls the /detect endpoint.
func (c *Client) Detect(ctx context.Context, req DetectRequest) (*RedactionResponse, error) {
	return postJSON[RedactionResponse](ctx, c, "/detect", req, nil)
}

// DetectOption configures a DetectRequest for DetectText.
type DetectOption func(*DetectRequest)

// WithMode sets the redaction mode (MASK or REDACT).
func WithMode(mode string) DetectOption {
	return func(r *DetectRequest) {
		r.Mode = mode
	}
}

// WithExpected sets the ground truth the redacted output is scored against.
func WithExpected(expected string) DetectOption {
	return func(r *DetectRequest) {
		r.Expected = expected
	}
}

// WithRID sets the request ID.
func WithRID(rid string) DetectOption {
	return func(r *DetectRequest) {
		r.RID = rid
	}
}

// DetectText builds a DetectRequest from text and opts and calls Detect.
//
//	resp, err := client.DetectText(ctx, "Contact John at john@x.com",
//	    redactclient.WithMode("REDACT"))
func (c *Client) DetectText(ctx context.Context, text string, opts ...DetectOption) (*RedactionResponse, error) {
	req := DetectRequest{Text: text}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&req)
	}
	return c.Detect(ctx, req)
}

// Redact calls the /redact endpoint with caller-supplied detector output.
func (c *Client) Redact(ctx context.Context, req RedactRequest) (*RedactionResponse, error) {
	if req.Entities == nil {
		req.Entities = []Detection{}
	}
	return postJSON[RedactionResponse](ctx, c, "/redact", req, nil)
}

// Evaluate calls the /evaluate endpoint.
func (c *Client) Evaluate(ctx context.Context, expected, actual string) (*Evaluation, error) {
	return postJSON[Evaluation](ctx, c, "/evaluate", EvaluateRequest{Expected: expected, Actual: actual}, nil)
}

// postJSON POSTs body as JSON and decodes the JSON response into T.
func postJSON[T any](
	ctx context.Context,
	c *Client,
	path string,
	body interface{},
	headers map[string]string,
) (*T, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-ADMIN-KEY", c.apiKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, respBody)
	}

	var out T
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return &out, nil
}

// get issues a GET and returns the raw body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}
