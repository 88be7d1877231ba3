package gemini

import (
	"time"
)

// Config holds the configuration for the Gemini client.
type Config struct {
	// APIKey authenticates against the Generative Language API.
	APIKey string
	// BaseURL is the API root. Override in tests to point at a local server.
	BaseURL string
	// Model is the model identifier, e.g. "gemini-2.5-flash".
	Model string
	// Temperature controls sampling randomness.
	Temperature float64
	// MaxOutputTokens caps the response length.
	MaxOutputTokens int
	// Timeout bounds the whole HTTP call. Generation has no retry loop, so an
	// expired timeout is a terminal upstream failure for that request.
	Timeout time.Duration
}

// DefaultConfig provides sensible defaults for page generation.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:          apiKey,
		BaseURL:         "https://generativelanguage.googleapis.com/v1beta2",
		Model:           "gemini-2.5-flash",
		Temperature:     0.7,
		MaxOutputTokens: 1000,
		// Generous: large pages take a while, but the call must still end.
		Timeout: 60 * time.Second,
	}
}
