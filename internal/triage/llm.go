package triage

import "context"

// Narrator is the interface for any narrative-generation backend. Generate
// may block for the full duration of an LLM call; it performs no retries.
type Narrator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Available is a cheap liveness probe for the backend.
	Available(ctx context.Context) bool
}
