package ai

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"universal-redaction/internal/redaction"
)

// detectionSchema is the contract the detector reply is validated against.
// Types are not restricted to the known enum: unknown types are kept and
// mapped to OTHER.
const detectionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["entities"],
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text", "type"],
        "properties": {
          "text": {"type": "string"},
          "type": {"type": "string"}
        }
      }
    }
  }
}`

var (
	compiledSchema     *gojsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

func loadDetectionSchema() (*gojsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		compiledSchema, compiledSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(detectionSchema))
	})
	return compiledSchema, compiledSchemaErr
}

// validateDetectionJSON validates a detector reply against detectionSchema.
func validateDetectionJSON(doc []byte) error {
	schema, err := loadDetectionSchema()
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return errors.New(strings.Join(msgs, "; "))
}

// responseSchema is the structured-output schema sent to providers that can
// enforce one (Gemini). It uses the OpenAPI subset those APIs accept.
func responseSchema() json.RawMessage {
	types := redaction.AllEntityTypes()
	enum := make([]string, len(types))
	for i, t := range types {
		enum[i] = string(t)
	}

	schema := map[string]interface{}{
		"type": "OBJECT",
		"properties": map[string]interface{}{
			"entities": map[string]interface{}{
				"type": "ARRAY",
				"items": map[string]interface{}{
					"type": "OBJECT",
					"properties": map[string]interface{}{
						"text": map[string]interface{}{"type": "STRING"},
						"type": map[string]interface{}{"type": "STRING", "enum": enum},
					},
					"required": []string{"text", "type"},
				},
			},
		},
		"required": []string{"entities"},
	}

	raw, _ := json.Marshal(schema)
	return raw
}
