package redaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func joinKind(segs []Segment, kind SegmentKind) string {
	var out string
	for _, s := range segs {
		if s.Kind == kind {
			out += s.Value
		}
	}
	return out
}

func TestDiff_IdenticalInputs(t *testing.T) {
	segs := Diff("same text", "same text")
	require.Len(t, segs, 1)
	assert.Equal(t, Segment{Value: "same text", Kind: SegmentMatch}, segs[0])
	assert.Equal(t, "same text", Render(ExpectedView(segs)))
	assert.Equal(t, "same text", Render(SystemView(segs)))

	assert.Empty(t, Diff("", ""))
}

func TestDiff_MaskedEmailIsClassifiedBothWays(t *testing.T) {
	segs := Diff("secret@mail.com removed", "[EMAIL_ADDRESS] removed")

	assert.Equal(t, "secret@mail.com", joinKind(segs, SegmentOnlyInExpected))
	assert.Equal(t, "[EMAIL_ADDRESS]", joinKind(segs, SegmentOnlyInSystem))
	assert.Equal(t, " removed", joinKind(segs, SegmentMatch))

	last := segs[len(segs)-1]
	assert.Equal(t, SegmentMatch, last.Kind)
	assert.Equal(t, " removed", last.Value)
}

func TestDiff_OneSideEmpty(t *testing.T) {
	segs := Diff("", "added")
	require.Len(t, segs, 1)
	assert.Equal(t, SegmentOnlyInSystem, segs[0].Kind)

	segs = Diff("lost", "")
	require.Len(t, segs, 1)
	assert.Equal(t, SegmentOnlyInExpected, segs[0].Kind)
}

func TestDiff_ViewsReconstructInputs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		expected := rapid.StringMatching(`[a-e \n\[\]]{0,40}`).Draw(t, "expected")
		actual := rapid.StringMatching(`[a-e \n\[\]]{0,40}`).Draw(t, "actual")

		segs := Diff(expected, actual)
		if got := Render(ExpectedView(segs)); got != expected {
			t.Fatalf("expected view %q != %q", got, expected)
		}
		if got := Render(SystemView(segs)); got != actual {
			t.Fatalf("system view %q != %q", got, actual)
		}
		sum := Summarize(segs)
		if sum.Matched+sum.OnlyInExpected != len(expected) {
			t.Fatalf("summary does not add up to expected length")
		}
		if sum.Matched+sum.OnlyInSystem != len(actual) {
			t.Fatalf("summary does not add up to actual length")
		}
	})
}

func TestSummarize(t *testing.T) {
	sum := Summarize([]Segment{
		{Value: "ab", Kind: SegmentMatch},
		{Value: "c", Kind: SegmentOnlyInExpected},
		{Value: "def", Kind: SegmentOnlyInSystem},
	})
	assert.Equal(t, DiffSummary{Matched: 2, OnlyInExpected: 1, OnlyInSystem: 3}, sum)
}

func TestDiff_InvalidUTF8RoundTrips(t *testing.T) {
	in := "ab\xffcd"

	segs := Diff(in, in)
	require.Len(t, segs, 1)
	assert.Equal(t, Segment{Value: in, Kind: SegmentMatch}, segs[0])
	assert.Equal(t, in, Render(ExpectedView(segs)))
	assert.Equal(t, 5, Summarize(segs).Matched)

	segs = Diff(in, "ab\xfecd")
	assert.Equal(t, "\xff", joinKind(segs, SegmentOnlyInExpected))
	assert.Equal(t, "\xfe", joinKind(segs, SegmentOnlyInSystem))
	assert.Equal(t, "abcd", joinKind(segs, SegmentMatch))
	assert.Equal(t, in, Render(ExpectedView(segs)))
	assert.Equal(t, "ab\xfecd", Render(SystemView(segs)))
}

func TestDiff_MultibyteText(t *testing.T) {
	expected := "[PERSON] lebt in [LOCATION]"
	actual := "Zoë Müller lebt in [LOCATION]"

	segs := Diff(expected, actual)
	assert.Equal(t, expected, Render(ExpectedView(segs)))
	assert.Equal(t, actual, Render(SystemView(segs)))
	assert.Equal(t, " lebt in [LOCATION]", segs[len(segs)-1].Value)

	sum := Summarize(segs)
	assert.Equal(t, len(expected), sum.Matched+sum.OnlyInExpected)
	assert.Equal(t, len(actual), sum.Matched+sum.OnlyInSystem)
}

func TestDiff_ArbitraryBytesReconstructInputs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		expected := string(rapid.SliceOfN(rapid.Byte(), 0, 24).Draw(t, "expected"))
		actual := string(rapid.SliceOfN(rapid.Byte(), 0, 24).Draw(t, "actual"))

		segs := Diff(expected, actual)
		if got := Render(ExpectedView(segs)); got != expected {
			t.Fatalf("expected view %q != %q", got, expected)
		}
		if got := Render(SystemView(segs)); got != actual {
			t.Fatalf("system view %q != %q", got, actual)
		}
	})
}
