package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/annotato/pkg/types"
)

func exact(class, text string, start, end int) types.Extraction {
	return types.Extraction{
		ExtractionClass: class,
		ExtractionText:  text,
		CharInterval:    &types.CharInterval{StartPos: start, EndPos: end},
		AlignmentStatus: types.AlignmentExact,
	}
}

func fuzzy(class, text string, start, end int) types.Extraction {
	return types.Extraction{
		ExtractionClass: class,
		ExtractionText:  text,
		CharInterval:    &types.CharInterval{StartPos: start, EndPos: end},
		AlignmentStatus: types.AlignmentFuzzy,
	}
}

func unaligned(class, text string) types.Extraction {
	return types.Extraction{
		ExtractionClass: class,
		ExtractionText:  text,
		AlignmentStatus: types.AlignmentUnaligned,
	}
}

func TestResolveSortsByStart(t *testing.T) {
	res := Resolve([]types.Extraction{
		exact("character", "Romeo", 63, 68),
		exact("character", "Lady Juliet", 0, 11),
		exact("emotion", "longingly", 18, 27),
	})

	require.Len(t, res.Extractions, 3)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, "Lady Juliet", res.Extractions[0].ExtractionText)
	assert.Equal(t, "longingly", res.Extractions[1].ExtractionText)
	assert.Equal(t, "Romeo", res.Extractions[2].ExtractionText)

	for i, e := range res.Extractions {
		assert.Equal(t, i, e.Index)
	}
}

func TestResolveOverlapConflict(t *testing.T) {
	// Two candidates both claim overlapping spans of "longingly at the stars".
	first := exact("emotion", "longingly at the stars", 18, 40)
	second := exact("emotion", "at the stars", 28, 40)

	res := Resolve([]types.Extraction{first, second})

	require.Len(t, res.Extractions, 1)
	assert.Equal(t, "longingly at the stars", res.Extractions[0].ExtractionText)

	require.Equal(t, 1, res.ConflictCount())
	assert.Equal(t, "longingly at the stars", res.Conflicts[0].Kept.ExtractionText)
	assert.Equal(t, "at the stars", res.Conflicts[0].Dropped.ExtractionText)
}

func TestResolveTieKeepsEarlierSubmitted(t *testing.T) {
	first := exact("emotion", "longingly", 18, 27)
	second := exact("emotion", "longingly at", 18, 30)

	res := Resolve([]types.Extraction{first, second})

	require.Len(t, res.Extractions, 1)
	assert.Equal(t, "longingly", res.Extractions[0].ExtractionText)
	assert.Equal(t, 1, res.ConflictCount())
}

func TestResolveFuzzyMayOverlapExact(t *testing.T) {
	// Only pairs of exact-aligned extractions are constrained.
	res := Resolve([]types.Extraction{
		exact("emotion", "longingly at the stars", 18, 40),
		fuzzy("emotion", "at the stars", 28, 40),
	})

	assert.Len(t, res.Extractions, 2)
	assert.Empty(t, res.Conflicts)
}

func TestResolveUnalignedAppendedInOrder(t *testing.T) {
	res := Resolve([]types.Extraction{
		unaligned("character", "Mercutio"),
		exact("character", "Romeo", 63, 68),
		unaligned("character", "Tybalt"),
		exact("character", "Lady Juliet", 0, 11),
	})

	require.Len(t, res.Extractions, 4)
	assert.Equal(t, "Lady Juliet", res.Extractions[0].ExtractionText)
	assert.Equal(t, "Romeo", res.Extractions[1].ExtractionText)
	// Unaligned follow all aligned, preserving relative candidate order.
	assert.Equal(t, "Mercutio", res.Extractions[2].ExtractionText)
	assert.Equal(t, "Tybalt", res.Extractions[3].ExtractionText)

	for i, e := range res.Extractions {
		assert.Equal(t, i, e.Index)
	}
}

func TestResolveNoExactPairOverlaps(t *testing.T) {
	res := Resolve([]types.Extraction{
		exact("a", "w", 0, 10),
		exact("b", "x", 5, 12),
		exact("c", "y", 11, 20),
		exact("d", "z", 15, 25),
	})

	for i, e1 := range res.Extractions {
		for _, e2 := range res.Extractions[i+1:] {
			if e1.AlignmentStatus == types.AlignmentExact && e2.AlignmentStatus == types.AlignmentExact {
				assert.False(t, e1.CharInterval.Overlaps(*e2.CharInterval),
					"exact extractions %q and %q overlap", e1.ExtractionText, e2.ExtractionText)
			}
		}
	}
	assert.Equal(t, 2, res.ConflictCount())
}

func TestResolveEmpty(t *testing.T) {
	res := Resolve(nil)
	assert.Empty(t, res.Extractions)
	assert.Zero(t, res.ConflictCount())
}
