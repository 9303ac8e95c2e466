package redaction

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// SegmentKind classifies a diff segment.
type SegmentKind string

const (
	// SegmentMatch is text present in both the expected and the system output.
	SegmentMatch SegmentKind = "MATCH"
	// SegmentOnlyInExpected is ground-truth text the system output lacks.
	SegmentOnlyInExpected SegmentKind = "ONLY_IN_EXPECTED"
	// SegmentOnlyInSystem is system output text absent from the ground truth.
	SegmentOnlyInSystem SegmentKind = "ONLY_IN_SYSTEM"
)

// Segment is one run of a character-level alignment.
type Segment struct {
	Value string      `json:"value" yaml:"value"`
	Kind  SegmentKind `json:"kind" yaml:"kind"`
}

// DiffSummary counts the bytes of each segment kind.
type DiffSummary struct {
	Matched        int `json:"matched" yaml:"matched"`
	OnlyInExpected int `json:"only_in_expected" yaml:"only_in_expected"`
	OnlyInSystem   int `json:"only_in_system" yaml:"only_in_system"`
}

// Diff aligns expected against actual character by character and returns the
// segments in left-to-right order. Identical inputs yield a single MATCH
// segment, or none when both are empty.
//
// Valid UTF-8 is diffed per rune. If either side is not valid UTF-8 the diff
// runs per byte instead, so every segment value is an exact slice of its input.
func Diff(expected, actual string) []Segment {
	if expected == actual {
		if expected == "" {
			return nil
		}
		return []Segment{{Value: expected, Kind: SegmentMatch}}
	}

	dmp := diffmatchpatch.New()
	// No deadline: the same inputs must always produce the same segments.
	dmp.DiffTimeout = 0

	byteWise := !utf8.ValidString(expected) || !utf8.ValidString(actual)
	var diffs []diffmatchpatch.Diff
	if byteWise {
		diffs = dmp.DiffMainRunes(bytesAsRunes(expected), bytesAsRunes(actual), false)
	} else {
		diffs = dmp.DiffMain(expected, actual, false)
	}

	segs := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		var kind SegmentKind
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			kind = SegmentMatch
		case diffmatchpatch.DiffDelete:
			kind = SegmentOnlyInExpected
		case diffmatchpatch.DiffInsert:
			kind = SegmentOnlyInSystem
		}
		value := d.Text
		if byteWise {
			value = runesAsBytes(value)
		}
		segs = append(segs, Segment{Value: value, Kind: kind})
	}
	return segs
}

// bytesAsRunes maps each byte of s to the rune with the same value.
func bytesAsRunes(s string) []rune {
	rs := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		rs[i] = rune(s[i])
	}
	return rs
}

// runesAsBytes reverses bytesAsRunes.
func runesAsBytes(s string) string {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		b = append(b, byte(r))
	}
	return string(b)
}

// ExpectedView keeps the segments that make up the expected text.
func ExpectedView(segs []Segment) []Segment {
	return filterSegments(segs, SegmentOnlyInSystem)
}

// SystemView keeps the segments that make up the system output.
func SystemView(segs []Segment) []Segment {
	return filterSegments(segs, SegmentOnlyInExpected)
}

func filterSegments(segs []Segment, drop SegmentKind) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		if s.Kind != drop {
			out = append(out, s)
		}
	}
	return out
}

// Render concatenates segment values.
func Render(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Value)
	}
	return b.String()
}

// Summarize counts bytes per segment kind.
func Summarize(segs []Segment) DiffSummary {
	var sum DiffSummary
	for _, s := range segs {
		switch s.Kind {
		case SegmentMatch:
			sum.Matched += len(s.Value)
		case SegmentOnlyInExpected:
			sum.OnlyInExpected += len(s.Value)
		case SegmentOnlyInSystem:
			sum.OnlyInSystem += len(s.Value)
		}
	}
	return sum
}
