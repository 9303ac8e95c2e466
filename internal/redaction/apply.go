package redaction

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Mode selects how located spans are rewritten.
type Mode string

const (
	// ModeMask replaces a span with its bracketed type, e.g. "[PERSON]".
	ModeMask Mode = "MASK"
	// ModeRedact replaces a span with a space and then collapses space runs.
	ModeRedact Mode = "REDACT"
)

// ErrInvalidMode is returned by ParseMode for unknown mode names.
var ErrInvalidMode = errors.New("invalid redaction mode")

// ParseMode parses a mode name case-insensitively. An empty string yields ModeMask.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case "", ModeMask:
		return ModeMask, nil
	case ModeRedact:
		return ModeRedact, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

var spaceRun = regexp.MustCompile(` {2,}`)

// Apply rewrites text with every entity span replaced according to mode.
//
// Spans are spliced from the highest start offset down, so a replacement never
// moves the offsets of spans still waiting to be processed. Unresolved entities
// and spans overlapping one already replaced are skipped; the rest of the batch
// is still applied. In REDACT mode runs of plain spaces are collapsed afterwards
// while newlines and tabs are left as they are.
func Apply(text string, entities []Entity, mode Mode) string {
	sorted := make([]Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start > sorted[j].Start
	})

	result := text
	limit := len(text)
	for _, e := range sorted {
		if !e.Resolved(len(text)) || e.End > limit {
			continue
		}

		replacement := " "
		if mode == ModeMask {
			replacement = e.Type.Placeholder()
		}

		result = result[:e.Start] + replacement + result[e.End:]
		limit = e.Start
	}

	if mode == ModeRedact {
		result = spaceRun.ReplaceAllString(result, " ")
	}

	return result
}
