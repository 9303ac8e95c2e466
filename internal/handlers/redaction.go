// Package handlers implements the HTTP API of the redaction server.
package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"universal-redaction/internal/audit"
	"universal-redaction/internal/models"
	"universal-redaction/internal/redaction"
)

// Detector produces the ordered detector output for a document.
type Detector interface {
	Detect(ctx context.Context, text string) ([]redaction.Detection, error)
}

// Options configures a Server.
type Options struct {
	// Detector backs POST /detect. Nil leaves /detect and /ready unavailable.
	Detector Detector
	// Audit receives one event per redaction run. Nil only logs.
	Audit *audit.Webhook
	// DefaultMode applies when a request names no mode.
	DefaultMode redaction.Mode
	// MaxTextBytes bounds the document size. Zero means unlimited.
	MaxTextBytes int
}

// Server serves the redaction endpoints.
type Server struct {
	detector    Detector
	audit       *audit.Webhook
	defaultMode redaction.Mode
	maxText     int
}

// NewServer builds a Server from opts.
func NewServer(opts Options) *Server {
	mode := opts.DefaultMode
	if mode == "" {
		mode = redaction.ModeMask
	}
	return &Server{
		detector:    opts.Detector,
		audit:       opts.Audit,
		defaultMode: mode,
		maxText:     opts.MaxTextBytes,
	}
}

// Register mounts every endpoint on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", Healthz)
	mux.HandleFunc("GET /ready", s.Ready)
	mux.HandleFunc("POST /detect", s.Detect)
	mux.HandleFunc("POST /redact", s.Redact)
	mux.HandleFunc("POST /evaluate", s.Evaluate)
	mux.HandleFunc("POST /admin/reload", ReloadCache)
}

// bodyLimit leaves room for the ground truth, the entity list and JSON escaping
// next to a maximum-size document.
func (s *Server) bodyLimit() int64 {
	if s.maxText <= 0 {
		return 0
	}
	return int64(s.maxText)*4 + 64<<10
}

func requestID(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if hdr := r.Header.Get("X-Request-ID"); hdr != "" {
		return hdr
	}
	return uuid.NewString()
}

// validate checks the document and resolves the mode. On failure it has
// already written the error response.
func (s *Server) validate(w http.ResponseWriter, rid, text, rawMode string) (redaction.Mode, bool) {
	if text == "" {
		writeError(w, http.StatusBadRequest, "text field is required", models.ErrTypeInvalidRequest, rid)
		return "", false
	}
	if s.maxText > 0 && len(text) > s.maxText {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("text exceeds %d bytes", s.maxText), models.ErrTypeInvalidRequest, rid)
		return "", false
	}
	if rawMode == "" {
		return s.defaultMode, true
	}
	mode, err := redaction.ParseMode(rawMode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), models.ErrTypeInvalidRequest, rid)
		return "", false
	}
	return mode, true
}

// Detect handles POST /detect: the configured detector is called on the text
// and its output is run through the pipeline. When the detector fails nothing
// but the error is returned.
func (s *Server) Detect(w http.ResponseWriter, r *http.Request) {
	var req models.DetectRequest
	if status, err := decodeBody(w, r, s.bodyLimit(), &req); err != nil {
		writeError(w, status, err.Error(), models.ErrTypeInvalidRequest, "")
		return
	}

	rid := requestID(r, req.RID)
	w.Header().Set("X-Request-ID", rid)

	mode, ok := s.validate(w, rid, req.Text, req.Mode)
	if !ok {
		return
	}
	if s.detector == nil {
		writeError(w, http.StatusServiceUnavailable, "no entity detector is configured", models.ErrTypeUnavailable, rid)
		return
	}

	started := time.Now()
	dets, err := s.detector.Detect(r.Context(), req.Text)
	if err != nil {
		log.Printf("[handlers] RID=%s detection failed: %v", rid, err)
		writeError(w, http.StatusBadGateway, "entity detection failed: "+err.Error(), models.ErrTypeDetectorFailed, rid)
		return
	}

	s.respond(w, rid, "detect", mode, req.Text, dets, req.Expected, started)
}

// Redact handles POST /redact: caller-supplied detector output is run through
// the pipeline without a model call.
func (s *Server) Redact(w http.ResponseWriter, r *http.Request) {
	var req models.RedactRequest
	if status, err := decodeBody(w, r, s.bodyLimit(), &req); err != nil {
		writeError(w, status, err.Error(), models.ErrTypeInvalidRequest, "")
		return
	}

	rid := requestID(r, req.RID)
	w.Header().Set("X-Request-ID", rid)

	mode, ok := s.validate(w, rid, req.Text, req.Mode)
	if !ok {
		return
	}

	dets := make([]redaction.Detection, len(req.Entities))
	for i, d := range req.Entities {
		dets[i] = redaction.Detection{Text: d.Text, Type: redaction.ParseEntityType(string(d.Type))}
	}

	s.respond(w, rid, "redact", mode, req.Text, dets, req.Expected, time.Now())
}

func (s *Server) respond(w http.ResponseWriter, rid, source string, mode redaction.Mode, text string, dets []redaction.Detection, expected string, started time.Time) {
	res := redaction.Run(redaction.Input{
		Text:       text,
		Detections: dets,
		Mode:       mode,
		Expected:   expected,
	})

	s.audit.Record(audit.NewEvent(rid, source, mode, len(text), res, started))
	writeJSON(w, http.StatusOK, models.NewRedactionResponse(rid, mode, res))
}

// Evaluate handles POST /evaluate.
func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req models.EvaluateRequest
	if status, err := decodeBody(w, r, s.bodyLimit(), &req); err != nil {
		writeError(w, status, err.Error(), models.ErrTypeInvalidRequest, "")
		return
	}
	if req.Expected == "" {
		writeError(w, http.StatusBadRequest, "expected field is required", models.ErrTypeInvalidRequest, "")
		return
	}

	writeJSON(w, http.StatusOK, redaction.Evaluate(req.Expected, req.Actual))
}
