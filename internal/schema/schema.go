// Package schema validates persisted book files before they are loaded.
// Invalid files are skipped with a warning rather than failing the whole
// load; a single corrupt book must not take the library down.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// bookSchema is the JSON Schema for the one-file-per-book format. It pins
// the fields the app depends on and deliberately allows extra fields so
// older prompter versions can open books written by newer ones.
const bookSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "title", "stories"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "title": {"type": "string"},
    "description": {"type": "string"},
    "backgroundSetup": {"type": "string"},
    "aspectRatio": {"type": "string"},
    "style": {"type": "object"},
    "defaultLayout": {"$ref": "#/$defs/layout"},
    "characters": {"type": "array"},
    "createdAt": {"type": "string"},
    "updatedAt": {"type": "string"},
    "stories": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "scenes"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string"},
          "layout": {"$ref": "#/$defs/layout"},
          "scenes": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "title": {"type": "string"},
                "textPanel": {"type": "string"},
                "diagramPanel": {
                  "type": "object",
                  "required": ["kind", "source"],
                  "properties": {
                    "kind": {"type": "string"},
                    "source": {"type": "string"},
                    "language": {"type": "string"}
                  }
                },
                "layout": {"$ref": "#/$defs/layout"},
                "imageHistory": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "required": ["imageId"],
                    "properties": {
                      "imageId": {"type": "string"},
                      "model": {"type": "string"},
                      "createdAt": {"type": "string"}
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  },
  "$defs": {
    "layout": {
      "type": "object",
      "required": ["type", "canvas", "elements"],
      "properties": {
        "type": {"type": "string"},
        "units": {"type": "string", "enum": ["px", "percent"]},
        "canvas": {
          "type": "object",
          "required": ["width", "height"],
          "properties": {
            "width": {"type": "integer", "minimum": 1},
            "height": {"type": "integer", "minimum": 1},
            "aspectRatio": {"type": "string"}
          }
        },
        "elements": {
          "type": "object",
          "additionalProperties": {
            "type": "object",
            "required": ["x", "y", "width", "height"],
            "properties": {
              "x": {"type": "number"},
              "y": {"type": "number"},
              "width": {"type": "number", "exclusiveMinimum": 0},
              "height": {"type": "number", "exclusiveMinimum": 0},
              "zIndex": {"type": "integer"},
              "aspectRatio": {"type": "string"},
              "anchor": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`

var (
	compileOnce  sync.Once
	compiled     *jsonschema.Schema
	compileError error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("book.schema.json", bytes.NewReader([]byte(bookSchema))); err != nil {
			compileError = fmt.Errorf("failed to load book schema: %w", err)
			return
		}
		compiled, compileError = compiler.Compile("book.schema.json")
	})
	return compiled, compileError
}

// ValidateBook checks raw book JSON against the book schema.
func ValidateBook(raw []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("book file is not valid JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("book file failed schema validation: %w", err)
	}
	return nil
}
