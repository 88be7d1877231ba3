// Package assemble turns raw model output into project snapshots.
//
// Everything in this package is a pure function — no I/O, no state, safe under
// arbitrary concurrency. The generation service composes these with the ledger
// and the upstream client; this package never sees either.
package assemble

import (
	"regexp"
	"strings"

	"github.com/adnan/pagesmith/internal/model"
)

// fenceRe matches one triple-backtick fenced region: an optional language tag
// after the opening fence, then everything (non-greedy, across newlines) up to
// the closing fence.
var fenceRe = regexp.MustCompile("(?s)```([a-zA-Z0-9_+.#-]*)[ \t]*\n(.*?)```")

// Extract parses fenced code regions out of free-form model output.
//
// Each matched fence becomes one segment: label = the declared language tag
// ("" when omitted), content = the text between the delimiters with outer
// whitespace trimmed. Order follows the input.
//
// Models ignore formatting instructions often enough that throwing away
// unfenced output would lose real work, so zero fences falls back to a single
// unlabeled segment holding the whole (trimmed) text. A consequence worth
// noting: re-running Extract on a segment's own content is a no-op — fence-free
// content comes back as the same single segment, and empty input yields an
// empty sequence.
func Extract(raw string) []model.Segment {
	matches := fenceRe.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return nil
		}
		return []model.Segment{{Content: trimmed}}
	}

	segments := make([]model.Segment, 0, len(matches))
	for _, m := range matches {
		segments = append(segments, model.Segment{
			Label:   m[1],
			Content: strings.TrimSpace(m[2]),
		})
	}
	return segments
}
