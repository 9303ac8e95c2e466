// Package models holds the request and response payloads of the HTTP API.
// They are shared by the server handlers and pkg/redactclient.
package models

import "universal-redaction/internal/redaction"

// DetectRequest asks the server to run the detector and the redaction pipeline.
type DetectRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"`
	// Expected is an optional ground truth the redacted output is scored against.
	Expected string `json:"expected,omitempty"`
	RID      string `json:"rid,omitempty"`
}

// RedactRequest runs the pipeline on caller-supplied detector output.
type RedactRequest struct {
	Text     string                `json:"text"`
	Entities []redaction.Detection `json:"entities"`
	Mode     string                `json:"mode,omitempty"`
	Expected string                `json:"expected,omitempty"`
	RID      string                `json:"rid,omitempty"`
}

// RedactionResponse is returned by /detect and /redact.
type RedactionResponse struct {
	RID          string                    `json:"rid" yaml:"rid"`
	Mode         redaction.Mode            `json:"mode" yaml:"mode"`
	Entities     []redaction.Entity        `json:"entities" yaml:"entities"`
	Unlocated    []redaction.Detection     `json:"unlocated,omitempty" yaml:"unlocated,omitempty"`
	RedactedText string                    `json:"redacted_text" yaml:"redacted_text"`
	Stats        redaction.ProcessingStats `json:"stats" yaml:"stats"`
	Evaluation   *redaction.Evaluation     `json:"evaluation,omitempty" yaml:"evaluation,omitempty"`
}

// NewRedactionResponse copies a pipeline result into the wire shape.
func NewRedactionResponse(rid string, mode redaction.Mode, res redaction.Result) RedactionResponse {
	entities := res.Entities
	if entities == nil {
		entities = []redaction.Entity{}
	}
	return RedactionResponse{
		RID:          rid,
		Mode:         mode,
		Entities:     entities,
		Unlocated:    res.Unlocated,
		RedactedText: res.RedactedText,
		Stats:        res.Stats,
		Evaluation:   res.Evaluation,
	}
}

// Result converts the response back into a pipeline result.
func (r RedactionResponse) Result() redaction.Result {
	return redaction.Result{
		Entities:     r.Entities,
		Unlocated:    r.Unlocated,
		RedactedText: r.RedactedText,
		Stats:        r.Stats,
		Evaluation:   r.Evaluation,
	}
}

// EvaluateRequest scores a system output against a ground truth.
type EvaluateRequest struct {
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// EvaluateResponse is the /evaluate payload.
type EvaluateResponse = redaction.Evaluation

// StatusResponse is returned by admin endpoints.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Cleared int    `json:"cleared"`
}

// ErrorBody is the error envelope of every non-2xx response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	RID     string `json:"rid,omitempty"`
}

// Error types used in ErrorDetail.Type.
const (
	ErrTypeInvalidRequest = "invalid_request_error"
	ErrTypeDetectorFailed = "detector_failed"
	ErrTypeUnauthorized   = "unauthorized"
	ErrTypeUnavailable    = "service_unavailable"
	ErrTypeInternal       = "internal_error"
)
