package jsonl

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/annotato/pkg/types"
)

func sampleDocs() []*types.AnnotatedDocument {
	return []*types.AnnotatedDocument{
		{
			DocumentID: "doc-1",
			Text:       "Lady Juliet gazed longingly at the stars, her heart aching for Romeo",
			Extractions: []types.Extraction{
				{
					ExtractionClass: "character",
					ExtractionText:  "Lady Juliet",
					Attributes:      types.AttributeSet{"emotional_state": "yearning"},
					CharInterval:    &types.CharInterval{StartPos: 0, EndPos: 11},
					AlignmentStatus: types.AlignmentExact,
					Index:           0,
				},
				{
					ExtractionClass: "character",
					ExtractionText:  "Mercutio",
					Attributes:      types.AttributeSet{},
					AlignmentStatus: types.AlignmentUnaligned,
					Index:           1,
				},
			},
		},
		{
			DocumentID:  "doc-2",
			Text:        "empty result",
			Extractions: []types.Extraction{},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	docs := sampleDocs()

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, docs))

	// One line per document.
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)

	loaded, err := Load(&buf)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	for i := range docs {
		assert.Equal(t, docs[i].DocumentID, loaded[i].DocumentID)
		assert.Equal(t, docs[i].Text, loaded[i].Text)
		assert.Equal(t, docs[i].ExtractionCount(), loaded[i].ExtractionCount())
	}

	// Intervals still index into the text stored alongside them.
	e := loaded[0].Extractions[0]
	require.NotNil(t, e.CharInterval)
	assert.Equal(t, e.ExtractionText, loaded[0].Text[e.CharInterval.StartPos:e.CharInterval.EndPos])
	assert.Equal(t, docs[0].Extractions[0], e)
}

func TestLoadSkipsBlankLines(t *testing.T) {
	input := "\n" + `{"document_id":"doc-1","text":"t","extractions":[]}` + "\n\n"
	docs, err := Load(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestLoadRejectsBadLine(t *testing.T) {
	input := `{"document_id":"doc-1","text":"t","extractions":[]}` + "\n{broken\n"
	_, err := Load(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestSaveRejectsNilDocument(t *testing.T) {
	var buf bytes.Buffer
	err := Save(&buf, []*types.AnnotatedDocument{nil})
	assert.Error(t, err)
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")

	require.NoError(t, SaveFile(path, sampleDocs()))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}
