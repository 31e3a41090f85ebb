// Package prompts renders a compiled schema and its few-shot examples into a
// model-ready instruction payload. Rendering is a pure function: the same
// schema and examples always produce byte-identical output, which keeps
// response caches valid and tests reproducible.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soundprediction/annotato/pkg/schema"
	"github.com/soundprediction/annotato/pkg/types"
)

const formattingRules = `Rules:
1. extraction_text MUST be an exact, verbatim substring of the input text. Never paraphrase, correct, or normalize it.
2. Extractions must not overlap each other in the input text.
3. List extractions in their order of appearance in the input text.
4. Provide attributes as a flat object of string keys and string values; omit it when you have none.
5. Respond with a single JSON object of the form {"extractions": [{"extraction_class": ..., "extraction_text": ..., "attributes": {...}}]} and nothing else. No markdown fences, no commentary.`

// exampleRecord is the canonical serialized form of one few-shot extraction.
type exampleRecord struct {
	ExtractionClass string             `json:"extraction_class"`
	ExtractionText  string             `json:"extraction_text"`
	Attributes      types.AttributeSet `json:"attributes,omitempty"`
}

// Render builds the instruction payload: task description, formatting rules,
// the permitted classes, and every example serialized in the canonical
// response format. Pure, no I/O.
func Render(s *schema.Schema, examples []types.ExampleData) (string, error) {
	if s == nil {
		return "", fmt.Errorf("schema is required")
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(s.Task))
	b.WriteString("\n\n")
	b.WriteString(formattingRules)
	b.WriteString("\n\nAllowed extraction classes: ")
	b.WriteString(strings.Join(s.Classes, ", "))
	b.WriteString("\n")

	for i := range examples {
		serialized, err := serializeExample(&examples[i])
		if err != nil {
			return "", fmt.Errorf("failed to serialize example %d: %w", i, err)
		}
		fmt.Fprintf(&b, "\nExample input:\n%s\n\nExample output:\n%s\n", examples[i].Text, serialized)
	}

	return b.String(), nil
}

// Messages builds the full gateway payload for one source text: the rendered
// instructions as the system message and the source text as the user message.
func Messages(s *schema.Schema, examples []types.ExampleData, sourceText string) ([]types.Message, error) {
	instructions, err := Render(s, examples)
	if err != nil {
		return nil, err
	}
	return []types.Message{
		{Role: "system", Content: instructions},
		{Role: "user", Content: sourceText},
	}, nil
}

// serializeExample renders an example's expected output in the exact response
// envelope the model is asked to produce. encoding/json sorts attribute map
// keys, so the result is deterministic.
func serializeExample(ex *types.ExampleData) (string, error) {
	records := make([]exampleRecord, len(ex.Extractions))
	for i, e := range ex.Extractions {
		records[i] = exampleRecord{
			ExtractionClass: e.ExtractionClass,
			ExtractionText:  e.ExtractionText,
			Attributes:      e.Attributes,
		}
	}

	out, err := json.Marshal(map[string]interface{}{"extractions": records})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
