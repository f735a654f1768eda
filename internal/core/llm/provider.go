// Package llm provides the pluggable AI text-generation capability.
//
// Providers (OpenAI, Anthropic, Google) are registered in a Registry that tries
// them in priority order behind per-provider circuit breakers. A Registry with no
// configured provider reports ErrNoProvidersAvailable, which callers treat as
// "capability unavailable" rather than a crash.
package llm

import "context"

// ProviderName identifies an LLM provider.
type ProviderName string

// Provider name constants.
const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGoogle    ProviderName = "google"
	ProviderMock      ProviderName = "mock"
)

// Priority constants for provider ordering.
const (
	PriorityPrimary        = 100
	PriorityFallback       = 50
	PrioritySecondFallback = 25
	PriorityMock           = 0
)

// Confidence assigned to a completion by how the provider finished.
const (
	ConfidenceComplete  = 0.8
	ConfidenceTruncated = 0.4
)

// Completion is the text returned by a provider with a confidence in [0,1].
type Completion struct {
	Text       string
	Confidence float64
	Provider   ProviderName
	Model      string
}

// Generator is the AI capability consumed by content synthesis.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Completion, error)
}

// Provider defines the interface for LLM providers.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// IsAvailable returns true if the provider is configured and available.
	IsAvailable() bool

	// Priority returns the provider priority (higher = preferred).
	Priority() int

	// Complete sends a single prompt and returns the completion.
	Complete(ctx context.Context, prompt string) (Completion, error)
}
