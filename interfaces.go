package stylegen

import "context"

// ImageGenerator is the single contract every upstream image provider implements.
// Implement this interface to add support for a new provider.
//
// Implementations must wrap every failure in a *GenerationError so callers get
// one user-facing message while the cause stays reachable through errors.Is/As.
type ImageGenerator interface {
	// Generate turns a prompt and a source image into one image reference.
	Generate(ctx context.Context, req GenerateRequest) (*ImageResult, error)

	// Info describes the provider and its default model.
	Info() ProviderInfo

	// Close releases any resources held by the generator.
	Close() error
}

// Storage persists generated images outside the session, e.g. to a bucket.
// Implementations can wrap existing storage clients (S3, local disk, ...).
type Storage interface {
	// SaveFile saves image data under path and returns a URL for it.
	SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error)
}

// Recorder receives one observation per finished generation attempt.
type Recorder interface {
	ObserveAttempt(provider string, outcome Outcome, seconds float64)
}
