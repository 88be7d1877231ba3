// Package upstream defines the boundary to the external text-generation
// service. The generation service depends only on this interface; the concrete
// client (Gemini, or a stub in tests) is injected at the composition root.
package upstream

import (
	"context"
)

// Generator invokes the model once with a fully composed prompt and returns
// its raw free-text output. The model is an untrusted black box: callers must
// assume the text follows no particular format.
//
// Implementations classify nothing — transport failures, bad statuses, and
// unparseable bodies all surface as plain errors for the caller to classify.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
