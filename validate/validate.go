// Package validate checks decoded records against a JSON schema.
package validate

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/makalin/LiveWeave/errors"
)

// Schema is a compiled JSON schema. A nil *Schema accepts every record.
type Schema struct {
	source string
	schema *gojsonschema.Schema
}

// Violation is one failed schema constraint.
type Violation struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// ValidationError lists every violation found in one record.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Description)
	}
	return "record failed schema: " + strings.Join(parts, "; ")
}

// Is reports ValidationError as invalid data.
func (e *ValidationError) Is(target error) bool { return target == errors.ErrInvalidData }

// Compile loads schema from inline JSON or a file:// (or http) reference.
// An empty schema compiles to nil.
func Compile(schema string) (*Schema, error) {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		return nil, nil
	}

	var loader gojsonschema.JSONLoader
	switch {
	case strings.HasPrefix(schema, "file://"),
		strings.HasPrefix(schema, "http://"),
		strings.HasPrefix(schema, "https://"):
		loader = gojsonschema.NewReferenceLoader(schema)
	default:
		loader = gojsonschema.NewStringLoader(schema)
	}

	compiled, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err), "validate", "Compile", "compile schema")
	}
	return &Schema{source: schema, schema: compiled}, nil
}

// MustCompile is Compile that panics on error.
func MustCompile(schema string) *Schema {
	s, err := Compile(schema)
	if err != nil {
		panic(err)
	}
	return s
}

// Source returns the schema text or reference it was compiled from.
func (s *Schema) Source() string {
	if s == nil {
		return ""
	}
	return s.source
}

// Check validates record, returning a *ValidationError on violations.
func (s *Schema) Check(record any) error {
	if s == nil {
		return nil
	}
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(record))
	if err != nil {
		return errors.WrapInvalid(err, "validate", "Check", "load record")
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, desc := range result.Errors() {
		verr.Violations = append(verr.Violations, Violation{
			Field:       desc.Field(),
			Description: desc.Description(),
		})
	}
	return verr
}
