// Package audit records a summary of every redaction run: one [AUDIT] log
// line and, when SIEM_WEBHOOK_URL is set, a JSON event posted to the webhook.
// Events carry counts only, never document text or entity values.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"universal-redaction/internal/redaction"
)

const deliveryTimeout = 2 * time.Second

// Event is the audit record of one redaction run.
type Event struct {
	RequestID     string         `json:"request_id"`
	Source        string         `json:"source"`
	Mode          string         `json:"mode"`
	TextBytes     int            `json:"text_bytes"`
	TotalEntities int            `json:"total_entities"`
	Unlocated     int            `json:"unlocated"`
	Breakdown     map[string]int `json:"breakdown"`
	Similarity    float64        `json:"similarity_score"`
	// Evaluated is set when the run was scored against a ground truth;
	// ExpectedSimilarity is only meaningful then.
	Evaluated          bool      `json:"evaluated"`
	ExpectedSimilarity float64   `json:"expected_similarity,omitempty"`
	DurationMS         int64     `json:"duration_ms"`
	Timestamp          time.Time `json:"timestamp"`
}

// NewEvent summarizes res. Only counts and scores are copied.
func NewEvent(rid, source string, mode redaction.Mode, textBytes int, res redaction.Result, started time.Time) Event {
	ev := Event{
		RequestID:     rid,
		Source:        source,
		Mode:          string(mode),
		TextBytes:     textBytes,
		TotalEntities: res.Stats.TotalEntities,
		Unlocated:     res.Stats.Unlocated,
		Breakdown:     make(map[string]int, len(res.Stats.Breakdown)),
		Similarity:    res.Stats.SimilarityScore,
		DurationMS:    time.Since(started).Milliseconds(),
		Timestamp:     started.UTC(),
	}
	for t, n := range res.Stats.Breakdown {
		ev.Breakdown[string(t)] = n
	}
	if res.Evaluation != nil {
		ev.Evaluated = true
		ev.ExpectedSimilarity = res.Evaluation.Similarity
	}
	return ev
}

// Webhook posts events to a SIEM endpoint. A nil *Webhook is valid and only logs.
type Webhook struct {
	endpoint string
	client   *http.Client
}

// NewWebhook returns a webhook for endpoint, or nil when endpoint is empty.
func NewWebhook(endpoint string) *Webhook {
	if endpoint == "" {
		return nil
	}
	return &Webhook{
		endpoint: endpoint,
		client:   &http.Client{Timeout: deliveryTimeout},
	}
}

// Send delivers ev synchronously.
func (w *Webhook) Send(ctx context.Context, ev Event) error {
	if w == nil {
		return nil
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver audit event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("audit webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Record logs the [AUDIT] line for ev and delivers it in the background.
// Delivery failures are logged and otherwise ignored.
func (w *Webhook) Record(ev Event) {
	log.Print(FormatLine(ev))

	if w == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		if err := w.Send(ctx, ev); err != nil {
			log.Printf("[audit] SIEM delivery failed: %v", err)
		}
	}()
}

// FormatLine renders the one-line audit summary.
func FormatLine(ev Event) string {
	parts := make([]string, 0, len(ev.Breakdown))
	for t, n := range ev.Breakdown {
		parts = append(parts, fmt.Sprintf("%s: %d", t, n))
	}
	sort.Strings(parts)
	breakdown := strings.Join(parts, ", ")
	if breakdown == "" {
		breakdown = "None"
	}

	rid := ev.RequestID
	if rid == "" {
		rid = "NO-RID"
	}

	return fmt.Sprintf("[AUDIT] Request ID: %s | Source: %s | Mode: %s | Time: %s | Duration: %dms | Total Found: %d | Unlocated: %d | Breakdown: {%s}",
		rid,
		ev.Source,
		ev.Mode,
		ev.Timestamp.Format(time.RFC3339),
		ev.DurationMS,
		ev.TotalEntities,
		ev.Unlocated,
		breakdown,
	)
}
