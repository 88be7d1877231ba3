package service

import (
	"strings"
)

// buildPrompt composes the instruction text sent upstream.
//
// Two shapes, chosen by whether the caller re-submitted a prior project:
//
//   - first turn: ask for a complete standalone project
//   - follow-up: embed the prior project verbatim and ask for incremental
//     additions ONLY, so the merge step can append without duplicating what
//     the caller already has
//
// Both shapes instruct the model to emit nothing but fenced code blocks. The
// extractor has a fallback for when the model ignores that, but fenced output
// is what keeps labels attached to segments.
func buildPrompt(userPrompt, previousProject string) string {
	var b strings.Builder

	b.WriteString("You are a code generator for web projects. ")
	b.WriteString("Respond ONLY with fenced code blocks tagged with a language (```html, ```css, ```js). ")
	b.WriteString("Do not include explanations or prose outside the fences.\n\n")

	if strings.TrimSpace(previousProject) != "" {
		b.WriteString("The project so far:\n\n")
		b.WriteString(previousProject)
		b.WriteString("\n\nApply the following change as incremental additions or updates only. ")
		b.WriteString("Output just the new or changed blocks — do not repeat unchanged code.\n\n")
	} else {
		b.WriteString("Produce a complete, standalone project for the following request.\n\n")
	}

	b.WriteString("Request: ")
	b.WriteString(strings.TrimSpace(userPrompt))

	return b.String()
}
