// Package schema compiles a task description and few-shot examples into a
// machine-checkable extraction schema: the permitted extraction classes and
// the attribute keys observed for each class.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/soundprediction/annotato/pkg/types"
)

// SchemaError indicates the supplied examples cannot train an extraction run:
// they are missing, incomplete, or not self-consistent.
type SchemaError struct {
	Message string
}

func (e *SchemaError) Error() string {
	return e.Message
}

// Is implements errors.Is support for SchemaError.
func (e *SchemaError) Is(target error) bool {
	_, ok := target.(*SchemaError)
	return ok
}

func schemaErrorf(format string, args ...interface{}) *SchemaError {
	return &SchemaError{Message: fmt.Sprintf(format, args...)}
}

// Schema enumerates the extraction classes permitted by a task and, per
// class, the union of attribute keys seen across the examples. A Schema is
// immutable once compiled.
type Schema struct {
	// Task is the natural-language task description the schema was
	// compiled for.
	Task string

	// Classes is the sorted set of permitted extraction classes.
	Classes []string

	// Attributes maps each class to the sorted union of attribute keys
	// observed across all examples for that class.
	Attributes map[string][]string
}

// Compile derives a Schema from a task description and examples. It fails
// with SchemaError if examples is empty or if any example extraction's text
// is not a literal substring of its owning example's text; examples teach the
// model by demonstration, so they must be self-consistent.
func Compile(task string, examples []types.ExampleData) (*Schema, error) {
	if strings.TrimSpace(task) == "" {
		return nil, schemaErrorf("task description cannot be empty")
	}
	if len(examples) == 0 {
		return nil, schemaErrorf("at least one example is required")
	}

	classSet := make(map[string]bool)
	attrSets := make(map[string]map[string]bool)

	for i := range examples {
		ex := &examples[i]
		if err := ex.Validate(); err != nil {
			return nil, schemaErrorf("example %d: %v", i, err)
		}
		if len(ex.Extractions) == 0 {
			return nil, schemaErrorf("example %d has no extractions", i)
		}
		for j := range ex.Extractions {
			e := &ex.Extractions[j]
			if !strings.Contains(ex.Text, e.ExtractionText) {
				return nil, schemaErrorf(
					"example %d extraction %d: %q is not a substring of the example text",
					i, j, e.ExtractionText)
			}
			classSet[e.ExtractionClass] = true
			if attrSets[e.ExtractionClass] == nil {
				attrSets[e.ExtractionClass] = make(map[string]bool)
			}
			for k := range e.Attributes {
				attrSets[e.ExtractionClass][k] = true
			}
		}
	}

	classes := make([]string, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	attrs := make(map[string][]string, len(attrSets))
	for c, set := range attrSets {
		keys := make([]string, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		attrs[c] = keys
	}

	return &Schema{Task: task, Classes: classes, Attributes: attrs}, nil
}

// Allows reports whether the class is part of the compiled schema.
func (s *Schema) Allows(class string) bool {
	for _, c := range s.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// ResponseJSONSchema renders a JSON Schema document constraining the shape of
// a model response: an object with an "extractions" array whose items carry
// the required minimal keys and a class from the compiled set. The output is
// deterministic for a given schema.
func (s *Schema) ResponseJSONSchema() []byte {
	item := map[string]interface{}{
		"type":     "object",
		"required": []string{"extraction_class", "extraction_text"},
		"properties": map[string]interface{}{
			"extraction_class": map[string]interface{}{
				"type": "string",
				"enum": s.Classes,
			},
			"extraction_text": map[string]interface{}{
				"type":      "string",
				"minLength": 1,
			},
			"attributes": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": map[string]interface{}{"type": "string"},
			},
		},
	}
	doc := map[string]interface{}{
		"type":     "object",
		"required": []string{"extractions"},
		"properties": map[string]interface{}{
			"extractions": map[string]interface{}{
				"type":  "array",
				"items": item,
			},
		},
	}

	// map keys marshal in sorted order, so this is stable.
	out, _ := json.Marshal(doc)
	return out
}
