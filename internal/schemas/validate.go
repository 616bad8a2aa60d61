// Package schemas provides JSON Schema validation for LLM stage outputs.
// Each analysis stage has a strict schema embedded at compile time; output
// that fails validation triggers the stage's documented fallback instead of
// ad-hoc shape coercion.
package schemas

import (
	"fmt"
	"strings"
	"sync"

	"embed"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed *.schema.json
var schemaFiles embed.FS

// Stage schema names
const (
	StagePersona = "persona"
	StageRouting = "routing"
	StageMatrix  = "matrix"
)

var (
	compiled   = make(map[string]*gojsonschema.Schema)
	compiledMu sync.Mutex
)

// ValidationError represents a schema validation failure with field paths
type ValidationError struct {
	Stage  string
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s output failed schema validation:\n", ve.Stage)
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// ValidateStage validates a JSON document against the named stage schema.
// Returns a *ValidationError when the document is well-formed JSON but
// violates the schema, or a plain error when the document is unreadable.
func ValidateStage(stage, jsonContent string) error {
	schema, err := loadSchema(stage)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(jsonContent))
	if err != nil {
		return fmt.Errorf("failed to validate %s output: %w", stage, err)
	}

	if result.Valid() {
		return nil
	}

	ve := &ValidationError{
		Stage:  stage,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}

// loadSchema compiles and caches the embedded schema for a stage
func loadSchema(stage string) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if schema, ok := compiled[stage]; ok {
		return schema, nil
	}

	data, err := schemaFiles.ReadFile(stage + ".schema.json")
	if err != nil {
		return nil, fmt.Errorf("unknown stage schema %q: %w", stage, err)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %q: %w", stage, err)
	}

	compiled[stage] = schema
	return schema, nil
}
