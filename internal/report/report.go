// Package report renders redaction results and evaluations for the CLI as
// colored text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"universal-redaction/internal/models"
	"universal-redaction/internal/redaction"
)

// Format is an output format name.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json, yaml and yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// EvaluationReport is one scored system output.
type EvaluationReport struct {
	Label                string `json:"label,omitempty" yaml:"label,omitempty"`
	redaction.Evaluation `yaml:",inline"`
}

// Renderer writes reports in one format.
type Renderer struct {
	format   Format
	useColor bool
	colors   map[string]*color.Color
}

// New returns a renderer for format. Colors only apply to text output.
func New(format Format, useColor bool) *Renderer {
	r := &Renderer{
		format:   format,
		useColor: useColor,
		colors: map[string]*color.Color{
			"green":   color.New(color.FgGreen),
			"yellow":  color.New(color.FgYellow),
			"red":     color.New(color.FgRed),
			"cyan":    color.New(color.FgCyan),
			"magenta": color.New(color.FgMagenta),
			"blue":    color.New(color.FgBlue),
			"white":   color.New(color.FgWhite, color.Bold),
			"bold":    color.New(color.Bold),
			"removed": color.New(color.FgRed, color.CrossedOut),
			"added":   color.New(color.FgGreen, color.Underline),
		},
	}
	for _, c := range r.colors {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Format returns the renderer's output format.
func (r *Renderer) Format() Format {
	return r.format
}

func (r *Renderer) encode(w io.Writer, v interface{}) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q cannot encode structured data", r.format)
	}
}

// Redaction writes a redaction response.
func (r *Renderer) Redaction(w io.Writer, resp models.RedactionResponse) error {
	if r.format != FormatText {
		return r.encode(w, resp)
	}

	var b strings.Builder
	bold := r.colors["bold"]

	if resp.RID != "" {
		fmt.Fprintf(&b, "%s %s\n", bold.Sprint("Request ID:"), resp.RID)
	}
	fmt.Fprintf(&b, "%s %s\n\n", bold.Sprint("Mode:"), resp.Mode)

	fmt.Fprintf(&b, "%s\n", bold.Sprintf("Entities (%d)", len(resp.Entities)))
	if len(resp.Entities) == 0 {
		b.WriteString("  none\n")
	}
	for _, e := range resp.Entities {
		fmt.Fprintf(&b, "  %s %q [%d:%d]\n", r.typeColumn(e.Type), e.Text, e.Start, e.End)
	}

	if len(resp.Unlocated) > 0 {
		fmt.Fprintf(&b, "\n%s\n", r.colors["yellow"].Sprintf("Not found in text (%d)", len(resp.Unlocated)))
		for _, d := range resp.Unlocated {
			fmt.Fprintf(&b, "  %s %q\n", r.typeColumn(d.Type), d.Text)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", bold.Sprint("Redacted text"))
	if resp.RedactedText == "" {
		b.WriteString("  (nothing redacted)\n")
	} else {
		b.WriteString(indent(resp.RedactedText))
	}

	fmt.Fprintf(&b, "\n%s\n", bold.Sprint("Stats"))
	fmt.Fprintf(&b, "  Total entities:       %d\n", resp.Stats.TotalEntities)
	fmt.Fprintf(&b, "  Levenshtein distance: %d\n", resp.Stats.LevenshteinDistance)
	fmt.Fprintf(&b, "  Similarity:           %.2f%%\n", resp.Stats.SimilarityScore)
	if len(resp.Stats.Breakdown) > 0 {
		b.WriteString("  Breakdown:            ")
		b.WriteString(r.breakdown(resp.Stats.Breakdown))
		b.WriteString("\n")
	}

	if resp.Evaluation != nil {
		b.WriteString("\n")
		r.writeEvaluation(&b, "Evaluation against expected output", *resp.Evaluation)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Evaluations writes one or more evaluation reports. Structured formats get a
// single object for one report and a list otherwise.
func (r *Renderer) Evaluations(w io.Writer, reports []EvaluationReport) error {
	if r.format != FormatText {
		if len(reports) == 1 {
			return r.encode(w, reports[0])
		}
		return r.encode(w, reports)
	}

	var b strings.Builder
	for i, rep := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		title := "Evaluation"
		if rep.Label != "" {
			title += ": " + rep.Label
		}
		r.writeEvaluation(&b, title, rep.Evaluation)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) writeEvaluation(b *strings.Builder, title string, ev redaction.Evaluation) {
	fmt.Fprintf(b, "%s\n", r.colors["bold"].Sprint(title))
	fmt.Fprintf(b, "  Similarity:           %s\n", r.scoreColor(ev.Similarity).Sprintf("%.2f%%", ev.Similarity))
	fmt.Fprintf(b, "  Levenshtein distance: %d\n", ev.LevenshteinDistance)
	fmt.Fprintf(b, "  Matched: %d | Only in expected: %d | Only in system: %d\n",
		ev.Summary.Matched, ev.Summary.OnlyInExpected, ev.Summary.OnlyInSystem)

	fmt.Fprintf(b, "\n  %s\n", r.colors["bold"].Sprint("Expected"))
	b.WriteString(indent(r.segments(ev.ExpectedView)))
	fmt.Fprintf(b, "\n  %s\n", r.colors["bold"].Sprint("System"))
	b.WriteString(indent(r.segments(ev.SystemView)))
}

// segments renders a diff view. Without colors, text missing from the system
// output is shown as [-x-] and extra system text as {+x+}.
func (r *Renderer) segments(segs []redaction.Segment) string {
	var b strings.Builder
	plain := !r.useColor
	for _, s := range segs {
		switch s.Kind {
		case redaction.SegmentOnlyInExpected:
			if plain {
				b.WriteString("[-" + s.Value + "-]")
			} else {
				b.WriteString(r.colors["removed"].Sprint(s.Value))
			}
		case redaction.SegmentOnlyInSystem:
			if plain {
				b.WriteString("{+" + s.Value + "+}")
			} else {
				b.WriteString(r.colors["added"].Sprint(s.Value))
			}
		default:
			b.WriteString(s.Value)
		}
	}
	return b.String()
}

func (r *Renderer) typeLabel(t redaction.EntityType) string {
	return r.typeColor(t).Sprint(string(t))
}

// typeColumn pads the type name before coloring it so escape codes do not
// count towards the column width.
func (r *Renderer) typeColumn(t redaction.EntityType) string {
	return r.typeColor(t).Sprint(fmt.Sprintf("%-16s", t))
}

func (r *Renderer) typeColor(t redaction.EntityType) *color.Color {
	if c, ok := r.colors[t.Info().Color]; ok {
		return c
	}
	return r.colors["white"]
}

func (r *Renderer) breakdown(counts map[redaction.EntityType]int) string {
	types := make([]redaction.EntityType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if counts[types[i]] != counts[types[j]] {
			return counts[types[i]] > counts[types[j]]
		}
		return types[i] < types[j]
	})

	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = fmt.Sprintf("%s=%d", r.typeLabel(t), counts[t])
	}
	return strings.Join(parts, ", ")
}

func (r *Renderer) scoreColor(score float64) *color.Color {
	switch {
	case score >= 90:
		return r.colors["green"]
	case score >= 60:
		return r.colors["yellow"]
	default:
		return r.colors["red"]
	}
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n") + "\n"
}
