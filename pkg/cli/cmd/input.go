package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	"universal-redaction/internal/redaction"
)

// inputFlags selects the document a command works on.
type inputFlags struct {
	text   string
	file   string
	sample bool
}

func (in inputFlags) read() (string, error) {
	switch {
	case in.file != "":
		return readTextFile(in.file)
	case in.text != "":
		return in.text, nil
	case in.sample:
		return redaction.SampleDocument, nil
	default:
		return "", fmt.Errorf("one of --text, --file or --sample must be provided")
	}
}

// readOptionalFile returns the content of path, or "" when path is empty.
func readOptionalFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	return readTextFile(path)
}

// readTextFile reads a UTF-8 text file. Other encodings are rejected since
// offsets and diffs are computed on the UTF-8 bytes.
func readTextFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%s is not valid UTF-8 text; convert it first (e.g. iconv -f latin1 -t utf-8)", path)
	}
	return string(b), nil
}

// readDetections loads detector output from a JSON file holding either a list
// of {"text","type"} objects or an object with an "entities" list.
func readDetections(path string) ([]redaction.Detection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read entities file: %w", err)
	}
	b = bytes.TrimSpace(b)

	var raw []struct {
		Text string `json:"text"`
		Type string `json:"type"`
	}
	if len(b) > 0 && b[0] == '{' {
		var wrapped struct {
			Entities json.RawMessage `json:"entities"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return nil, fmt.Errorf("invalid entities file: %w", err)
		}
		b = wrapped.Entities
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("invalid entities file: %w", err)
	}

	dets := make([]redaction.Detection, len(raw))
	for i, d := range raw {
		dets[i] = redaction.Detection{Text: d.Text, Type: redaction.ParseEntityType(d.Type)}
	}
	return dets, nil
}
