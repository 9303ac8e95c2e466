package report

import (
	"bytes"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"universal-redaction/internal/models"
	"universal-redaction/internal/redaction"
)

func sampleResponse() models.RedactionResponse {
	res := redaction.Run(redaction.Input{
		Text: "Contact John at john@x.com",
		Detections: []redaction.Detection{
			{Text: "John", Type: redaction.EntityPerson},
			{Text: "john@x.com", Type: redaction.EntityEmailAddress},
			{Text: "Bob", Type: redaction.EntityPerson},
		},
		Mode:     redaction.ModeMask,
		Expected: "Contact [PERSON] at [EMAIL]",
	})
	return models.NewRedactionResponse("rid-9", redaction.ModeMask, res)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON, "yml": FormatYAML, "yaml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestRedaction_PlainText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatText, false).Redaction(&buf, sampleResponse()))
	out := buf.String()

	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, "Request ID: rid-9")
	assert.Contains(t, out, "Entities (2)")
	assert.Contains(t, out, `"john@x.com" [16:26]`)
	assert.Contains(t, out, "Not found in text (1)")
	assert.Contains(t, out, "    Contact [PERSON] at [EMAIL_ADDRESS]\n")
	assert.Contains(t, out, "Breakdown:            EMAIL_ADDRESS=1, PERSON=1")
	assert.Contains(t, out, "{+_ADDRESS+}")
}

func TestRedaction_Colored(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatText, true).Redaction(&buf, sampleResponse()))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.NotContains(t, buf.String(), "[-")
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestRedaction_ColoredColumnsStayAligned(t *testing.T) {
	var plain, colored bytes.Buffer
	require.NoError(t, New(FormatText, false).Redaction(&plain, sampleResponse()))
	require.NoError(t, New(FormatText, true).Redaction(&colored, sampleResponse()))

	out := colored.String()
	assert.Contains(t, out, "PERSON          \x1b[0m \"John\" [8:12]")
	assert.Contains(t, ansiEscape.ReplaceAllString(out, ""), "  PERSON           \"John\" [8:12]\n")
	assert.Contains(t, ansiEscape.ReplaceAllString(out, ""), "  EMAIL_ADDRESS    \"john@x.com\" [16:26]\n")
	assert.Contains(t, plain.String(), "  EMAIL_ADDRESS    \"john@x.com\" [16:26]\n")
}

func TestRedaction_NothingLocated(t *testing.T) {
	resp := models.NewRedactionResponse("", redaction.ModeRedact, redaction.Run(redaction.Input{Text: "plain", Mode: redaction.ModeRedact}))

	var buf bytes.Buffer
	require.NoError(t, New(FormatText, false).Redaction(&buf, resp))
	assert.Contains(t, buf.String(), "(nothing redacted)")
	assert.Contains(t, buf.String(), "Similarity:           100.00%")
	assert.NotContains(t, buf.String(), "Request ID")
}

func TestRedaction_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatJSON, true).Redaction(&buf, sampleResponse()))

	var got models.RedactionResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Contact [PERSON] at [EMAIL_ADDRESS]", got.RedactedText)
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestRedaction_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatYAML, false).Redaction(&buf, sampleResponse()))

	var got map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "rid-9", got["rid"])
	assert.Equal(t, "Contact [PERSON] at [EMAIL_ADDRESS]", got["redacted_text"])
	assert.Contains(t, got, "evaluation")
}

func TestEvaluations(t *testing.T) {
	reports := []EvaluationReport{
		{Label: "a.txt", Evaluation: redaction.Evaluate("Hello [PERSON]", "Hello [PERSON]")},
		{Label: "b.txt", Evaluation: redaction.Evaluate("Hello [PERSON]", "Hello Bob")},
	}

	var text bytes.Buffer
	require.NoError(t, New(FormatText, false).Evaluations(&text, reports))
	assert.Contains(t, text.String(), "Evaluation: a.txt")
	assert.Contains(t, text.String(), "Evaluation: b.txt")
	assert.Contains(t, text.String(), "Similarity:           100.00%")
	assert.Contains(t, text.String(), "{+")

	var js bytes.Buffer
	require.NoError(t, New(FormatJSON, false).Evaluations(&js, reports))
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(js.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "b.txt", list[1]["label"])
	assert.Contains(t, list[0], "similarity")

	var one bytes.Buffer
	require.NoError(t, New(FormatYAML, false).Evaluations(&one, reports[:1]))
	var single map[string]interface{}
	require.NoError(t, yaml.Unmarshal(one.Bytes(), &single))
	assert.Equal(t, "a.txt", single["label"])
	assert.InDelta(t, 100.0, single["similarity"], 1e-9)
}
