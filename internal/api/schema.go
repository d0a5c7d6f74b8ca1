package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const todoSchemaURL = "planner://schema/todo.json"

const todoSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "checkpoint": {
      "type": "object",
      "required": ["text"],
      "properties": {
        "text": {"type": "string"},
        "done": {"type": "boolean"}
      }
    },
    "todo": {
      "type": "object",
      "required": ["title"],
      "anyOf": [
        {"required": ["_id"]},
        {"required": ["id"]}
      ],
      "properties": {
        "_id": {"type": "string"},
        "id": {"type": "string"},
        "title": {"type": "string"},
        "startTime": {"type": ["string", "null"]},
        "endTime": {"type": ["string", "null"]},
        "checkpoints": {
          "type": ["array", "null"],
          "items": {"$ref": "#/definitions/checkpoint"}
        }
      }
    },
    "list": {
      "type": "array",
      "items": {"$ref": "#/definitions/todo"}
    }
  }
}`

var (
	todoShape *jsonschema.Schema
	listShape *jsonschema.Schema
)

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(todoSchemaURL, strings.NewReader(todoSchema)); err != nil {
		panic(fmt.Sprintf("api: add todo schema: %v", err))
	}
	todoShape = compiler.MustCompile(todoSchemaURL + "#/definitions/todo")
	listShape = compiler.MustCompile(todoSchemaURL + "#/definitions/list")
}

// ShapeError reports a response body that does not look like the todo
// contract.
type ShapeError struct {
	Path   string
	Issues []string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unexpected response shape from %s: %s", e.Path, strings.Join(e.Issues, "; "))
}

// checkShape validates body against schema and returns a *ShapeError
// listing every failing location.
func checkShape(schema *jsonschema.Schema, path string, body []byte) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return &ShapeError{Path: path, Issues: []string{"invalid JSON: " + err.Error()}}
	}
	err := schema.Validate(doc)
	if err == nil {
		return nil
	}
	se := &ShapeError{Path: path}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		se.Issues = append(se.Issues, err.Error())
		return se
	}
	collectIssues(se, ve)
	return se
}

func collectIssues(se *ShapeError, ve *jsonschema.ValidationError) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		se.Issues = append(se.Issues, fmt.Sprintf("%s: %s", loc, ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collectIssues(se, cause)
	}
}
