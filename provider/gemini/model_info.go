package gemini

import "github.com/mhpenta/stylegen"

// Model name constants - the actual API model names.
const (
	// APIModelFlashImage is Gemini 2.5 Flash Image, the default.
	APIModelFlashImage = "gemini-2.5-flash-image"

	// APIModelFlashExpImage is the experimental Gemini 2.0 Flash image model.
	APIModelFlashExpImage = "gemini-2.0-flash-exp-image-generation"

	// APIModelProImage is Gemini 3 Pro Image.
	APIModelProImage = "gemini-3-pro-image-preview"

	DefaultModel = APIModelFlashImage
)

// FacePreservationSuffix is appended to every prompt unless disabled, to keep
// faces photorealistic while the rest of the frame is restyled.
const FacePreservationSuffix = " CRITICAL: Maintain photorealistic facial features, ethnic features, and skin tone from the original photo. Do not alter or stylize faces."

// DefaultInfo is the provider description for the default model.
var DefaultInfo = stylegen.ProviderInfo{
	Provider:          stylegen.ProviderGemini,
	Model:             DefaultModel,
	ReturnsInlineData: true,
	RequiresImage:     true,

	RateLimits: stylegen.RateLimits{
		RequestsPerMinute: 500, // ~500 RPM for Tier 1
		Burst:             10,
	},
}
