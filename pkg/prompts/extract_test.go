package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/annotato/pkg/schema"
	"github.com/soundprediction/annotato/pkg/types"
)

func testSchemaAndExamples(t *testing.T) (*schema.Schema, []types.ExampleData) {
	t.Helper()
	examples := []types.ExampleData{
		{
			Text: "ROMEO. But soft! What light through yonder window breaks?",
			Extractions: []types.Extraction{
				{
					ExtractionClass: "character",
					ExtractionText:  "ROMEO",
					Attributes: types.AttributeSet{
						"emotional_state": "wonder",
						"act":             "II",
					},
				},
				{
					ExtractionClass: "emotion",
					ExtractionText:  "But soft!",
				},
			},
		},
	}
	s, err := schema.Compile("Extract characters and emotions in order of appearance.", examples)
	require.NoError(t, err)
	return s, examples
}

func TestRenderContainsTaskRulesAndExamples(t *testing.T) {
	s, examples := testSchemaAndExamples(t)

	payload, err := Render(s, examples)
	require.NoError(t, err)

	assert.Contains(t, payload, "Extract characters and emotions in order of appearance.")
	assert.Contains(t, payload, "verbatim substring")
	assert.Contains(t, payload, "Allowed extraction classes: character, emotion")
	assert.Contains(t, payload, "ROMEO. But soft!")
	assert.Contains(t, payload, `"extraction_class":"character"`)
}

func TestRenderIsDeterministic(t *testing.T) {
	s, examples := testSchemaAndExamples(t)

	first, err := Render(s, examples)
	require.NoError(t, err)

	// Attribute maps have multiple keys; repeated rendering must not depend
	// on map iteration order.
	for i := 0; i < 20; i++ {
		again, err := Render(s, examples)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMessagesShape(t *testing.T) {
	s, examples := testSchemaAndExamples(t)

	msgs, err := Messages(s, examples, "Lady Juliet gazed longingly at the stars")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, types.Role("system"), msgs[0].Role)
	assert.Equal(t, types.Role("user"), msgs[1].Role)
	assert.Equal(t, "Lady Juliet gazed longingly at the stars", msgs[1].Content)
}

func TestRenderNilSchema(t *testing.T) {
	_, err := Render(nil, nil)
	assert.Error(t, err)
}
