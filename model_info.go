package stylegen

// Provider identifies an upstream image API.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// RateLimits defines the local request budget for a provider.
type RateLimits struct {
	RequestsPerMinute int
	Burst             int
}

// ProviderInfo describes a provider implementation.
type ProviderInfo struct {
	Provider Provider
	// Model is the upstream model used when a request does not override it.
	Model string
	// ReturnsInlineData is true when results arrive as data URLs rather than remote URLs.
	ReturnsInlineData bool
	// RequiresImage is true when the provider cannot generate from text alone.
	RequiresImage bool

	RateLimits RateLimits
}
