// Package resolver enforces the consistency invariants of one extraction run:
// exact-aligned spans must not overlap, extractions are ordered by their
// position in the source text, and every surviving extraction gets a stable
// per-document sequence index. Conflicts are reported, never fatal.
package resolver

import (
	"sort"

	"github.com/soundprediction/annotato/pkg/types"
)

// Conflict records one dropped extraction: Dropped overlapped Kept and Kept
// started earlier (or was submitted earlier on a tie).
type Conflict struct {
	Kept    types.Extraction `json:"kept"`
	Dropped types.Extraction `json:"dropped"`
}

// Resolution is the outcome of resolving one candidate sequence.
type Resolution struct {
	// Extractions is the surviving sequence: aligned extractions sorted by
	// interval start, then unaligned extractions in candidate order, with
	// Index assigned sequentially.
	Extractions []types.Extraction

	// Conflicts lists extractions dropped for overlapping an earlier
	// exact-aligned extraction.
	Conflicts []Conflict
}

// ConflictCount returns the number of dropped extractions.
func (r *Resolution) ConflictCount() int {
	return len(r.Conflicts)
}

// Resolve orders candidates, drops exact-aligned overlaps, and assigns
// sequence indices. Candidates must arrive in the order the parser emitted
// them; that order is the tie-break for equal start positions and the final
// order of unaligned extractions.
func Resolve(candidates []types.Extraction) Resolution {
	var aligned, unaligned []types.Extraction
	for _, c := range candidates {
		if c.IsAligned() {
			aligned = append(aligned, c)
		} else {
			unaligned = append(unaligned, c)
		}
	}

	// Stable sort keeps candidate order for equal starts, so the
	// earlier-submitted extraction wins overlap conflicts on ties.
	sort.SliceStable(aligned, func(i, j int) bool {
		return aligned[i].CharInterval.StartPos < aligned[j].CharInterval.StartPos
	})

	var res Resolution
	kept := make([]types.Extraction, 0, len(aligned)+len(unaligned))
	lastExact := -1 // index into kept of the exact extraction with the max end seen

	for _, e := range aligned {
		if e.AlignmentStatus == types.AlignmentExact && lastExact >= 0 {
			prev := kept[lastExact]
			if e.CharInterval.Overlaps(*prev.CharInterval) {
				res.Conflicts = append(res.Conflicts, Conflict{Kept: prev, Dropped: e})
				continue
			}
		}
		kept = append(kept, e)
		if e.AlignmentStatus == types.AlignmentExact {
			if lastExact < 0 || e.CharInterval.EndPos > kept[lastExact].CharInterval.EndPos {
				lastExact = len(kept) - 1
			}
		}
	}

	kept = append(kept, unaligned...)
	for i := range kept {
		kept[i].Index = i
	}
	res.Extractions = kept
	return res
}
