// Package model defines the data structures used throughout the application.
package model

import "strings"

// Segment is one labeled block of generated code — typically a single fenced
// region from the model's output, e.g. {Label: "html", Content: "<html>..."}.
// The label is the declared language tag and may be empty when the model
// emitted an unfenced blob.
type Segment struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

// Snapshot is the accumulated project artifact handed back to the caller after
// every turn and re-submitted on the next one. It is an append-only log of
// segments, NOT a keyed document:
//
//   - segment order is stable insertion order
//   - labels may repeat (a second "css" block is appended, never merged)
//
// The server keeps no copy between requests — ownership transfers to the
// caller with each response.
type Snapshot struct {
	Segments []Segment `json:"segments"`
}

// Render serialises the snapshot to the text form returned to the caller:
// segment contents joined by a blank line. Labels are dropped — the caller
// receives ready-to-use code, and a resubmitted project round-trips through
// the extractor as one opaque segment.
func (s Snapshot) Render() string {
	parts := make([]string, 0, len(s.Segments))
	for _, seg := range s.Segments {
		parts = append(parts, seg.Content)
	}
	return strings.Join(parts, "\n\n")
}

// Empty reports whether the snapshot holds no usable content — no segments at
// all, or nothing but whitespace.
func (s Snapshot) Empty() bool {
	for _, seg := range s.Segments {
		if strings.TrimSpace(seg.Content) != "" {
			return false
		}
	}
	return true
}
