package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaViolation reports a document that does not match its schema.
var ErrSchemaViolation = errors.New("document violates schema")

// seriesSchema describes the dimension series documents.
const seriesSchema = `{
	"type": "object",
	"required": ["y", "ts", "labels"],
	"properties": {
		"y": {
			"type": "array",
			"items": {"type": "array", "items": {"type": "integer", "minimum": 0}}
		},
		"ts": {
			"type": "array",
			"items": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}T\\d{2}:\\d{2}:\\d{2}$"}
		},
		"labels": {
			"type": "array",
			"items": {"type": ["string", "integer"]}
		}
	},
	"additionalProperties": false
}`

// survivalSchema describes the survival document.
const survivalSchema = `{
	"type": "object",
	"additionalProperties": {
		"type": "array",
		"items": {
			"type": "array",
			"items": {"type": "integer"},
			"minItems": 2,
			"maxItems": 2
		}
	}
}`

// ValidateSeriesDoc checks raw JSON against the series document schema.
// The plot commands run it on loaded files, which may come from older runs
// or other tools.
func ValidateSeriesDoc(data []byte) error {
	return validate(seriesSchema, data)
}

// ValidateSurvivalDoc checks raw JSON against the survival document schema.
func ValidateSurvivalDoc(data []byte) error {
	return validate(survivalSchema, data)
}

func validate(schema string, data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate document: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(details, "; "))
}
