package models

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// dagSchema is the JSON schema raw DAG documents are validated against before
// a run is accepted. Structural validity only; acyclicity is checked
// separately by CheckAcyclic.
const dagSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["nodes"],
	"properties": {
		"nodes": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"required": ["activity_id"],
				"properties": {
					"activity_id": {"type": "string", "minLength": 1},
					"params": {"type": "object"}
				}
			}
		},
		"edges": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"from": {"type": "string"},
					"to": {"type": "string"}
				}
			}
		}
	}
}`

// ValidateDAGDocument validates a raw DAG document against the schema.
func ValidateDAGDocument(document []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(dagSchema),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return fmt.Errorf("failed to validate DAG document: %w", err)
	}

	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		messages = append(messages, desc.String())
	}

	return fmt.Errorf("invalid DAG document: %s", strings.Join(messages, "; "))
}
