package stylegen

// Default tuning values. Temperature is kept low so faces stay consistent with
// the source photo; TopP and TopK stay high to leave room for the style.
const (
	DefaultTemperature     float32 = 0.6
	DefaultTopP            float32 = 0.99
	DefaultTopK            float32 = 40
	DefaultMaxOutputTokens int32   = 8192
)

// TuningConfig holds optional sampling parameters for a generation request.
// Nil fields fall back to the defaults above.
type TuningConfig struct {
	Temperature     *float32
	TopP            *float32
	TopK            *float32
	MaxOutputTokens *int32
}

// Resolved returns a copy of the config with every nil field set to its default.
func (c *TuningConfig) Resolved() TuningConfig {
	out := DefaultTuning()
	if c == nil {
		return out
	}
	if c.Temperature != nil {
		out.Temperature = ptr(*c.Temperature)
	}
	if c.TopP != nil {
		out.TopP = ptr(*c.TopP)
	}
	if c.TopK != nil {
		out.TopK = ptr(*c.TopK)
	}
	if c.MaxOutputTokens != nil {
		out.MaxOutputTokens = ptr(*c.MaxOutputTokens)
	}
	return out
}

// DefaultTuning returns a TuningConfig with all defaults filled in.
func DefaultTuning() TuningConfig {
	return TuningConfig{
		Temperature:     ptr(DefaultTemperature),
		TopP:            ptr(DefaultTopP),
		TopK:            ptr(DefaultTopK),
		MaxOutputTokens: ptr(DefaultMaxOutputTokens),
	}
}

// InputImage represents the uploaded source photo.
type InputImage struct {
	// Data is the raw image bytes
	Data []byte

	// MIMEType of the image (e.g., "image/jpeg", "image/png")
	MIMEType string
}

// GenerateRequest is the input of ImageGenerator.Generate.
type GenerateRequest struct {
	// Prompt is the mode's prompt template (or free text for text-to-image).
	Prompt string

	// Image is the source photo. Providers that support text-only generation
	// accept an empty image.
	Image InputImage

	// APIKey authenticates this single request. It is never logged.
	APIKey string

	// Tuning overrides the default sampling parameters.
	Tuning *TuningConfig

	// Metadata to attach to requests (for logging/tracking)
	Metadata map[string]string
}

func ptr[T any](v T) *T { return &v }
