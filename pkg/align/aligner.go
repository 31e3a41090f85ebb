// Package align grounds candidate extractions in exact source-text offsets.
// Model output is not guaranteed to quote the source verbatim, so every
// candidate is re-anchored against the original text: literal search first,
// then approximate matching, and an explicit unaligned flag when nothing
// clears the similarity threshold.
package align

import (
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/soundprediction/annotato/pkg/parser"
	"github.com/soundprediction/annotato/pkg/types"
)

// Config tunes the fuzzy-matching fallback.
type Config struct {
	// Threshold is the minimum similarity (0..1] a window must score to be
	// accepted as a fuzzy match. Default 0.75.
	Threshold float64
	// Tolerance is how many bytes a candidate window may differ in length
	// from the claimed text. Default 8.
	Tolerance int
}

// DefaultConfig returns the default alignment configuration.
func DefaultConfig() Config {
	return Config{
		Threshold: 0.75,
		Tolerance: 8,
	}
}

// Aligner maps candidate extractions onto character intervals of a source
// text. An Aligner is stateless across calls: Align is a pure function of
// (source, candidates) and is safe for concurrent use.
type Aligner struct {
	cfg Config
	dmp *diffmatchpatch.DiffMatchPatch
}

// New creates an Aligner, applying defaults for unset config fields.
func New(cfg Config) *Aligner {
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultConfig().Tolerance
	}
	return &Aligner{cfg: cfg, dmp: diffmatchpatch.New()}
}

// Align computes a char interval for each candidate, in candidate order:
//
//  1. Literal, case-sensitive search from the end of the previously aligned
//     interval (monotonic cursor), preserving order of appearance.
//  2. Literal search from the start of the text, for candidates the model
//     listed out of textual order.
//  3. Fuzzy match: whitespace/punctuation-normalized comparison against
//     sliding word-boundary windows sized to the claimed text ± Tolerance,
//     scored by edit distance; the best window at or above Threshold wins.
//  4. Otherwise the candidate is flagged unaligned and kept without an
//     interval; downstream consumers choose whether to drop it.
func (a *Aligner) Align(source string, candidates []parser.Candidate) []types.Extraction {
	extractions := make([]types.Extraction, 0, len(candidates))
	words := tokenize(source)
	cursor := 0

	for _, c := range candidates {
		ext := types.Extraction{
			ExtractionClass: c.Class,
			ExtractionText:  c.Text,
			Attributes:      c.Attributes,
		}

		if iv, ok := literalSearch(source, c.Text, cursor); ok {
			ext.CharInterval = &iv
			ext.AlignmentStatus = types.AlignmentExact
			cursor = iv.EndPos
		} else if iv, ok := a.fuzzySearch(source, words, c.Text); ok {
			ext.CharInterval = &iv
			ext.AlignmentStatus = types.AlignmentFuzzy
			cursor = iv.EndPos
		} else {
			ext.AlignmentStatus = types.AlignmentUnaligned
		}

		extractions = append(extractions, ext)
	}

	return extractions
}

// literalSearch looks for a verbatim occurrence, first from the cursor, then
// once from the start of the text.
func literalSearch(source, text string, cursor int) (types.CharInterval, bool) {
	if text == "" {
		return types.CharInterval{}, false
	}
	if cursor <= len(source) {
		if idx := strings.Index(source[cursor:], text); idx >= 0 {
			start := cursor + idx
			return types.CharInterval{StartPos: start, EndPos: start + len(text)}, true
		}
	}
	if idx := strings.Index(source, text); idx >= 0 {
		return types.CharInterval{StartPos: idx, EndPos: idx + len(text)}, true
	}
	return types.CharInterval{}, false
}

// fuzzySearch slides word-boundary windows across the source and accepts the
// best-scoring window at or above the threshold. Earlier windows win ties, so
// the result is deterministic.
func (a *Aligner) fuzzySearch(source string, words []span, text string) (types.CharInterval, bool) {
	target := normalize(text)
	if target == "" {
		return types.CharInterval{}, false
	}

	minLen := len(text) - a.cfg.Tolerance
	maxLen := len(text) + a.cfg.Tolerance

	var best types.CharInterval
	bestScore := 0.0

	for i := range words {
		for j := i; j < len(words); j++ {
			window := source[words[i].start:words[j].end]
			if len(window) > maxLen {
				break
			}
			if len(window) < minLen {
				continue
			}
			score := a.similarity(normalize(window), target)
			if score > bestScore {
				bestScore = score
				best = types.CharInterval{StartPos: words[i].start, EndPos: words[j].end}
			}
		}
	}

	if bestScore >= a.cfg.Threshold {
		return best, true
	}
	return types.CharInterval{}, false
}

// similarity scores two normalized strings as 1 - editDistance/maxLen.
func (a *Aligner) similarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	longest := len(s1)
	if len(s2) > longest {
		longest = len(s2)
	}
	if longest == 0 {
		return 0.0
	}
	diffs := a.dmp.DiffMain(s1, s2, false)
	distance := a.dmp.DiffLevenshtein(diffs)
	return 1.0 - float64(distance)/float64(longest)
}

// span is a half-open byte interval of one word in the source text.
type span struct {
	start, end int
}

// tokenize splits the source into word spans (runs of letters and digits).
func tokenize(source string) []span {
	var spans []span
	start := -1
	for i, r := range source {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
		} else if start >= 0 {
			spans = append(spans, span{start: start, end: i})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, span{start: start, end: len(source)})
	}
	return spans
}

// normalize lowercases, strips punctuation, and collapses whitespace runs so
// fuzzy comparison ignores formatting noise.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			pendingSpace = true
		}
		// Punctuation is dropped entirely.
	}
	return b.String()
}
