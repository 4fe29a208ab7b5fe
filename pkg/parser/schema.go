package parser

import (
	"github.com/xeipuuv/gojsonschema"
)

// documentSchema is the JSON Schema for the workflow wire format. It is a
// coarse shape check: the parser's own field validation stays authoritative
// and produces the per-node diagnostics.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["nodes"],
  "properties": {
    "name": {"type": "string"},
    "active": {"type": "boolean"},
    "id": {"type": "string"},
    "versionId": {"type": "string"},
    "createdAt": {"type": "string"},
    "updatedAt": {"type": "string"},
    "tags": {"type": "array", "items": {"type": "string"}},
    "settings": {"type": "object"},
    "meta": {"type": "object"},
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "type", "typeVersion", "position"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "type": {"type": "string", "minLength": 1},
          "typeVersion": {"type": "number"},
          "position": {
            "type": "array",
            "items": {"type": "number"},
            "minItems": 2,
            "maxItems": 2
          },
          "parameters": {"type": "object"},
          "credentials": {
            "type": "object",
            "additionalProperties": {
              "type": "object",
              "required": ["name"],
              "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"}
              }
            }
          },
          "disabled": {"type": "boolean"},
          "notes": {"type": "string"}
        }
      }
    },
    "connections": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": {
          "type": "array",
          "items": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["node"],
              "properties": {
                "node": {"type": "string"},
                "type": {"type": "string"},
                "index": {"type": "integer"}
              }
            }
          }
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// ValidateDocument runs the raw document through the wire-format JSON Schema
// and maps violations to diagnostics. Used by the CLI and API as a pre-check
// before Parse.
func ValidateDocument(raw []byte) ([]Diagnostic, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &StructuralError{Msg: "document is not valid JSON: " + err.Error()}
	}

	if result.Valid() {
		return nil, nil
	}

	diags := make([]Diagnostic, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Code:     CodeSchemaViolation,
			Message:  violation.Field() + ": " + violation.Description(),
		})
	}

	return diags, nil
}
