// Package parser decodes raw model output into candidate extractions. Model
// output is natural language: it may wrap JSON in markdown fences, prepend
// reasoning, truncate mid-object, or drift from the requested shape, so
// decoding is defensive — fence stripping, think-tag removal, and JSON repair
// run before unmarshaling, and the result can be validated against the
// compiled response schema.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/soundprediction/annotato/pkg/types"
)

// Candidate is one parsed extraction record before alignment.
type Candidate struct {
	Class      string             `json:"extraction_class"`
	Text       string             `json:"extraction_text"`
	Attributes types.AttributeSet `json:"attributes,omitempty"`
}

// MalformedResponseError indicates the model output could not be parsed into
// the expected structured shape at all. It is fatal for the call; the caller
// decides whether to re-prompt.
type MalformedResponseError struct {
	Reason string
	Raw    string
}

func (e *MalformedResponseError) Error() string {
	return "malformed model response: " + e.Reason
}

// Is implements errors.Is support for MalformedResponseError.
func (e *MalformedResponseError) Is(target error) bool {
	_, ok := target.(*MalformedResponseError)
	return ok
}

func malformed(reason, raw string) *MalformedResponseError {
	const maxRaw = 2000
	if len(raw) > maxRaw {
		raw = raw[:maxRaw] + "...[truncated]"
	}
	return &MalformedResponseError{Reason: reason, Raw: raw}
}

// envelope is the response shape the prompt asks for.
type envelope struct {
	Extractions []Candidate `json:"extractions"`
}

// Parser decodes raw model output, optionally validating it against a
// response JSON Schema compiled from the extraction schema.
type Parser struct {
	validator *jsonschema.Schema
}

// New creates a Parser. responseSchema may be nil to skip validation;
// otherwise it must be a JSON Schema document (see
// schema.Schema.ResponseJSONSchema).
func New(responseSchema []byte) (*Parser, error) {
	p := &Parser{}
	if len(responseSchema) > 0 {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("response.json", strings.NewReader(string(responseSchema))); err != nil {
			return nil, fmt.Errorf("failed to load response schema: %w", err)
		}
		compiled, err := compiler.Compile("response.json")
		if err != nil {
			return nil, fmt.Errorf("failed to compile response schema: %w", err)
		}
		p.validator = compiled
	}
	return p, nil
}

// Parse decodes raw output into candidates, in model-output order. Records
// missing attributes get an empty AttributeSet; a record missing its class or
// text, or output with no recoverable JSON, yields MalformedResponseError.
func (p *Parser) Parse(raw string) ([]Candidate, error) {
	body := extractJSONBody(removeThinkTags(raw))
	if body == "" {
		return nil, malformed("no JSON found in output", raw)
	}

	repaired, err := jsonrepair.JSONRepair(body)
	if err != nil {
		repaired = body
	}

	env, err := decodeEnvelope(repaired)
	if err != nil {
		return nil, malformed(err.Error(), raw)
	}

	if p.validator != nil {
		var doc interface{}
		if err := json.Unmarshal([]byte(repaired), &doc); err == nil {
			// A bare array is normalized into the envelope before validation.
			if _, isArray := doc.([]interface{}); isArray {
				doc = map[string]interface{}{"extractions": doc}
			}
			if err := p.validator.Validate(doc); err != nil {
				return nil, malformed(fmt.Sprintf("response does not match schema: %v", err), raw)
			}
		}
	}

	candidates := make([]Candidate, 0, len(env.Extractions))
	for i, c := range env.Extractions {
		if c.Class == "" {
			return nil, malformed(fmt.Sprintf("record %d is missing extraction_class", i), raw)
		}
		if c.Text == "" {
			return nil, malformed(fmt.Sprintf("record %d is missing extraction_text", i), raw)
		}
		if c.Attributes == nil {
			c.Attributes = types.AttributeSet{}
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// decodeEnvelope accepts either the requested envelope or a bare array of
// records.
func decodeEnvelope(body string) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err == nil {
		return &env, nil
	}

	var records []Candidate
	if err := json.Unmarshal([]byte(body), &records); err == nil {
		return &envelope{Extractions: records}, nil
	}

	return nil, fmt.Errorf("output is neither an extractions object nor an array")
}

var thinkTagRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// removeThinkTags strips reasoning blocks some models emit before the answer.
func removeThinkTags(s string) string {
	return thinkTagRe.ReplaceAllString(s, "")
}

// extractJSONBody pulls the JSON payload out of output that may contain
// markdown code fences or surrounding prose.
func extractJSONBody(response string) string {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "```json"); idx != -1 {
		rest := response[idx+7:]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
		response = strings.TrimSpace(rest)
	} else if strings.HasPrefix(response, "```") {
		lines := strings.Split(response, "\n")
		if len(lines) > 2 {
			if strings.TrimSpace(lines[len(lines)-1]) == "```" {
				lines = lines[:len(lines)-1]
			}
			response = strings.TrimSpace(strings.Join(lines[1:], "\n"))
		}
	}

	objStart := strings.Index(response, "{")
	objEnd := strings.LastIndex(response, "}")
	if objStart != -1 && objEnd > objStart {
		return response[objStart : objEnd+1]
	}

	arrStart := strings.Index(response, "[")
	arrEnd := strings.LastIndex(response, "]")
	if arrStart != -1 && arrEnd > arrStart {
		return response[arrStart : arrEnd+1]
	}

	return ""
}
