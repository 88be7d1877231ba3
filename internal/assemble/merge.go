package assemble

import (
	"github.com/adnan/pagesmith/internal/model"
)

// Merge combines a prior snapshot's segments with newly extracted ones:
// prior first, new ones appended in order.
//
// This is an append-only accumulation, NOT a diff/patch. It can never silently
// drop prior code, at the cost of unbounded growth and repeated labels across
// turns. Callers wanting replacement semantics either re-prompt for a full
// rewrite or opt into MergeReplace explicitly.
//
// Merge is pure and associative: merging X then Y equals merging X ++ Y.
func Merge(prior, next []model.Segment) model.Snapshot {
	merged := make([]model.Segment, 0, len(prior)+len(next))
	merged = append(merged, prior...)
	merged = append(merged, next...)
	return model.Snapshot{Segments: merged}
}

// MergeReplace is the stricter alternative policy: a new segment whose label
// matches an existing one replaces it in place (keeping the original
// position); unmatched labels — and all unlabeled segments — append as usual.
//
// This is NOT the default. It only runs when the caller asks for it by mode
// flag, because replacement can silently discard prior work when the model
// re-tags a block.
func MergeReplace(prior, next []model.Segment) model.Snapshot {
	merged := make([]model.Segment, len(prior))
	copy(merged, prior)

	// Label → index of the segment it would replace. Later duplicates of a
	// label in the prior snapshot win, matching "the newest block of a kind
	// is the live one".
	byLabel := make(map[string]int, len(merged))
	for i, seg := range merged {
		if seg.Label != "" {
			byLabel[seg.Label] = i
		}
	}

	for _, seg := range next {
		if seg.Label != "" {
			if i, ok := byLabel[seg.Label]; ok {
				merged[i] = seg
				continue
			}
			byLabel[seg.Label] = len(merged)
		}
		merged = append(merged, seg)
	}

	return model.Snapshot{Segments: merged}
}
