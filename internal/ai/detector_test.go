package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"universal-redaction/internal/cache"
	"universal-redaction/internal/redaction"
)

type fakeProvider struct {
	reply string
	err   error
	calls int
	last  ChatRequest
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-1" }

func (f *fakeProvider) Chat(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &ChatResponse{Choices: []ChatChoice{{Message: ChatMessage{Role: "assistant", Content: f.reply}}}}, nil
}

func TestDetect_ParsesOrderedEntities(t *testing.T) {
	p := &fakeProvider{reply: `{"entities":[{"text":"John","type":"PERSON"},{"text":"john@x.com","type":"email_address"}]}`}
	d := NewEntityDetector(p, DetectorOptions{ValidateSchema: true})

	dets, err := d.Detect(context.Background(), "Contact John at john@x.com")
	require.NoError(t, err)
	assert.Equal(t, []redaction.Detection{
		{Text: "John", Type: redaction.EntityPerson},
		{Text: "john@x.com", Type: redaction.EntityEmailAddress},
	}, dets)

	require.Len(t, p.last.Messages, 2)
	assert.Equal(t, "system", p.last.Messages[0].Role)
	assert.Contains(t, p.last.Messages[0].Content, "CREDIT_CARD")
	assert.Equal(t, "Contact John at john@x.com", p.last.Messages[1].Content)
	assert.True(t, p.last.JSONMode)
	assert.NotEmpty(t, p.last.ResponseSchema)
	assert.Zero(t, p.last.Temperature)
}

func TestDetect_BlankTextSkipsModel(t *testing.T) {
	p := &fakeProvider{}
	d := NewEntityDetector(p, DetectorOptions{})

	dets, err := d.Detect(context.Background(), "  \n\t")
	require.NoError(t, err)
	assert.Empty(t, dets)
	assert.Zero(t, p.calls)
}

func TestDetect_ProviderError(t *testing.T) {
	upstream := errors.New("quota exceeded")
	d := NewEntityDetector(&fakeProvider{err: upstream}, DetectorOptions{})

	dets, err := d.Detect(context.Background(), "hello John")
	assert.Nil(t, dets)
	assert.ErrorIs(t, err, ErrDetectionFailed)
	assert.ErrorIs(t, err, upstream)
}

func TestDetect_MalformedReply(t *testing.T) {
	d := NewEntityDetector(&fakeProvider{reply: "I could not find anything"}, DetectorOptions{})

	dets, err := d.Detect(context.Background(), "hello John")
	assert.Nil(t, dets)
	assert.ErrorIs(t, err, ErrDetectionFailed)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestDetect_NoProvider(t *testing.T) {
	d := NewEntityDetector(nil, DetectorOptions{})
	_, err := d.Detect(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrDetectionFailed)
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

func TestDetect_UsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	orig := cache.RDB
	cache.RDB = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = cache.RDB.Close()
		cache.RDB = orig
	})

	p := &fakeProvider{reply: `{"entities":[{"text":"Paris","type":"LOCATION"}]}`}
	d := NewEntityDetector(p, DetectorOptions{CacheTTL: time.Minute})

	first, err := d.Detect(context.Background(), "Flight to Paris")
	require.NoError(t, err)
	second, err := d.Detect(context.Background(), "Flight to Paris")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.calls)
}

func TestParseDetections_Variants(t *testing.T) {
	want := []redaction.Detection{{Text: "Ana", Type: redaction.EntityPerson}}

	tests := []struct {
		name  string
		reply string
	}{
		{"object", `{"entities":[{"text":"Ana","type":"PERSON"}]}`},
		{"bare array", `[{"text":"Ana","type":"PERSON"}]`},
		{"fenced", "```json\n{\"entities\":[{\"text\":\"Ana\",\"type\":\"PERSON\"}]}\n```"},
		{"think block", "<think>the name is Ana</think>\n[{\"text\":\"Ana\",\"type\":\"PERSON\"}]"},
		{"surrounding prose", "Here you go: {\"entities\":[{\"text\":\"Ana\",\"type\":\"PERSON\"}]} done."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDetections(tt.reply, true)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseDetections_UnknownTypeBecomesOther(t *testing.T) {
	got, err := parseDetections(`{"entities":[{"text":"ABC-123","type":"PASSPORT"}]}`, true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, redaction.EntityOther, got[0].Type)
}

func TestParseDetections_Empty(t *testing.T) {
	got, err := parseDetections(`{"entities":[]}`, true)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseDetections("   ", false)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestParseDetections_SchemaViolation(t *testing.T) {
	_, err := parseDetections(`{"entities":[{"text":42,"type":"PERSON"}]}`, true)
	assert.ErrorIs(t, err, ErrMalformedOutput)

	_, err = parseDetections(`{"items":[]}`, true)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestValidateDetectionJSON(t *testing.T) {
	assert.NoError(t, validateDetectionJSON([]byte(`{"entities":[{"text":"a","type":"URL"}]}`)))
	assert.Error(t, validateDetectionJSON([]byte(`{"entities":[{"text":"a"}]}`)))
	assert.Error(t, validateDetectionJSON([]byte(`[]`)))
}

func TestResponseSchema_ListsKnownTypes(t *testing.T) {
	raw := string(responseSchema())
	for _, typ := range redaction.AllEntityTypes() {
		assert.Contains(t, raw, `"`+string(typ)+`"`)
	}
	assert.NotContains(t, raw, `"OTHER"`)
}
