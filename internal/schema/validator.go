// Package schema validates tool-call arguments against JSON schemas.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// maxReported caps how many violations end up in an error message.
const maxReported = 3

// ValidationError lists the schema violations found in a document.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	shown := e.Violations
	extra := ""
	if len(shown) > maxReported {
		extra = fmt.Sprintf(" (and %d more)", len(shown)-maxReported)
		shown = shown[:maxReported]
	}
	return "invalid arguments: " + strings.Join(shown, "; ") + extra
}

// Validator compiles schemas once and caches them by their JSON encoding.
type Validator struct {
	cache sync.Map // string -> *gojsonschema.Schema
}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks argsJSON against schemaDoc, which may be anything that
// marshals to a JSON schema. Violations are reported as *ValidationError;
// any other error means the schema itself or the document is unusable.
func (v *Validator) Validate(schemaDoc any, argsJSON string) error {
	s, err := v.compile(schemaDoc)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if strings.TrimSpace(argsJSON) == "" {
		argsJSON = "{}"
	}
	res, err := s.Validate(gojsonschema.NewStringLoader(argsJSON))
	if err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	if res.Valid() {
		return nil
	}
	ve := &ValidationError{}
	for _, d := range res.Errors() {
		ve.Violations = append(ve.Violations, d.String())
	}
	return ve
}

func (v *Validator) compile(schemaDoc any) (*gojsonschema.Schema, error) {
	raw, err := json.Marshal(schemaDoc)
	if err != nil {
		return nil, err
	}
	key := string(raw)
	if cached, ok := v.cache.Load(key); ok {
		return cached.(*gojsonschema.Schema), nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, err
	}
	v.cache.Store(key, s)
	return s, nil
}
