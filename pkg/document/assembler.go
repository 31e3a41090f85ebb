// Package document packages resolved extractions with their source text into
// immutable annotated documents.
package document

import (
	"github.com/google/uuid"

	"github.com/soundprediction/annotato/pkg/resolver"
	"github.com/soundprediction/annotato/pkg/types"
)

// Assemble builds an AnnotatedDocument from the source text and a resolution,
// assigning a freshly generated document ID that is never reused. An empty
// extraction sequence is a valid result, not an error.
func Assemble(text string, res resolver.Resolution) *types.AnnotatedDocument {
	extractions := res.Extractions
	if extractions == nil {
		extractions = []types.Extraction{}
	}
	return &types.AnnotatedDocument{
		DocumentID:  NewDocumentID(),
		Text:        text,
		Extractions: extractions,
	}
}

// NewDocumentID returns a unique document identifier.
func NewDocumentID() string {
	return "doc-" + uuid.NewString()
}
