package types

import (
	"errors"
	"fmt"
)

// Validation errors
var (
	ErrEmptyText           = errors.New("text cannot be empty")
	ErrEmptyClass          = errors.New("extraction_class cannot be empty")
	ErrEmptyExtractionText = errors.New("extraction_text cannot be empty")
	ErrInvalidInterval     = errors.New("char interval start must be <= end")
)

// AlignmentStatus records how an extraction was grounded in the source text.
type AlignmentStatus string

const (
	// AlignmentExact means the extraction text occurs verbatim at the interval.
	AlignmentExact AlignmentStatus = "exact"
	// AlignmentFuzzy means the interval was found by approximate matching.
	AlignmentFuzzy AlignmentStatus = "fuzzy"
	// AlignmentUnaligned means no interval cleared the similarity threshold.
	AlignmentUnaligned AlignmentStatus = "unaligned"
)

// CharInterval is a half-open [StartPos, EndPos) byte-offset pair into the
// UTF-8 source text.
type CharInterval struct {
	StartPos int `json:"start_pos" yaml:"start_pos"`
	EndPos   int `json:"end_pos" yaml:"end_pos"`
}

// Length returns the number of bytes covered by the interval.
func (ci CharInterval) Length() int {
	return ci.EndPos - ci.StartPos
}

// Overlaps reports whether two intervals share at least one position.
func (ci CharInterval) Overlaps(other CharInterval) bool {
	return ci.StartPos < other.EndPos && other.StartPos < ci.EndPos
}

// Validate checks interval ordering.
func (ci CharInterval) Validate() error {
	if ci.StartPos < 0 || ci.StartPos > ci.EndPos {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidInterval, ci.StartPos, ci.EndPos)
	}
	return nil
}

// AttributeSet holds open-ended attribute key/value pairs attached to an
// extraction. Attributes are opaque pass-through data; only the minimal keys
// of the extraction itself are validated.
type AttributeSet map[string]string

// Extraction is one labeled span of text: a class, the claimed verbatim text,
// optional attributes, and, once aligned, the grounded character interval.
type Extraction struct {
	ExtractionClass string       `json:"extraction_class" yaml:"extraction_class"`
	ExtractionText  string       `json:"extraction_text" yaml:"extraction_text"`
	Attributes      AttributeSet `json:"attributes,omitempty" yaml:"attributes,omitempty"`

	// CharInterval is nil until alignment succeeds, and stays nil when
	// AlignmentStatus is AlignmentUnaligned.
	CharInterval    *CharInterval   `json:"char_interval,omitempty" yaml:"char_interval,omitempty"`
	AlignmentStatus AlignmentStatus `json:"alignment_status,omitempty" yaml:"alignment_status,omitempty"`

	// Index is the stable per-document sequence index assigned by the
	// consistency resolver.
	Index int `json:"extraction_index" yaml:"extraction_index"`
}

// Validate checks the minimal required fields.
func (e *Extraction) Validate() error {
	if e.ExtractionClass == "" {
		return ErrEmptyClass
	}
	if e.ExtractionText == "" {
		return ErrEmptyExtractionText
	}
	if e.CharInterval != nil {
		return e.CharInterval.Validate()
	}
	return nil
}

// IsAligned reports whether the extraction carries a grounded interval.
func (e *Extraction) IsAligned() bool {
	return e.CharInterval != nil
}

// ExampleData is one few-shot demonstration: a text and the extractions a
// correct run would produce for it. Examples are training signal only and are
// never mutated after construction.
type ExampleData struct {
	Text        string       `json:"text" yaml:"text"`
	Extractions []Extraction `json:"extractions" yaml:"extractions"`
}

// Validate checks the example has content to demonstrate with.
func (ex *ExampleData) Validate() error {
	if ex.Text == "" {
		return ErrEmptyText
	}
	for i := range ex.Extractions {
		if err := ex.Extractions[i].Validate(); err != nil {
			return fmt.Errorf("extraction %d: %w", i, err)
		}
	}
	return nil
}

// AnnotatedDocument is the immutable result of one extraction run: the source
// text together with its resolved extractions. The document owns its
// extraction slice exclusively; callers must not share it across documents.
type AnnotatedDocument struct {
	DocumentID  string       `json:"document_id"`
	Text        string       `json:"text"`
	Extractions []Extraction `json:"extractions"`
}

// ExtractionCount returns the number of extractions in the document.
func (d *AnnotatedDocument) ExtractionCount() int {
	if d == nil {
		return 0
	}
	return len(d.Extractions)
}

// Classes returns the distinct extraction classes present, in first-seen order.
func (d *AnnotatedDocument) Classes() []string {
	seen := make(map[string]bool)
	var classes []string
	for i := range d.Extractions {
		c := d.Extractions[i].ExtractionClass
		if !seen[c] {
			seen[c] = true
			classes = append(classes, c)
		}
	}
	return classes
}
