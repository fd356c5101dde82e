package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

// Schema is a compiled JSON schema for model responses.
type Schema struct {
	s *gojsonschema.Schema
}

// MustSchema compiles a schema literal and panics on an invalid schema.
func MustSchema(src string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid response schema: %v", err))
	}
	return &Schema{s: s}
}

// Decode validates the cleaned model response against the schema and
// unmarshals it into out. Any failure is a *domain.ParseError with the raw text.
func (s *Schema) Decode(raw string, out any) error {
	cleaned := CleanJSONResponse(raw)
	res, err := s.s.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return &domain.ParseError{Raw: raw, Err: err}
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return &domain.ParseError{Raw: raw, Err: fmt.Errorf("schema: %s", strings.Join(msgs, "; "))}
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return &domain.ParseError{Raw: raw, Err: err}
	}
	return nil
}
