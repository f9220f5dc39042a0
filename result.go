package stylegen

import "time"

// SafetyCategory represents a content safety category.
type SafetyCategory string

const (
	SafetyCategoryHarassment       SafetyCategory = "HARM_CATEGORY_HARASSMENT"
	SafetyCategoryHateSpeech       SafetyCategory = "HARM_CATEGORY_HATE_SPEECH"
	SafetyCategorySexuallyExplicit SafetyCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	SafetyCategoryDangerousContent SafetyCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
	SafetyCategoryCivicIntegrity   SafetyCategory = "HARM_CATEGORY_CIVIC_INTEGRITY"
)

// SafetyThreshold represents the blocking threshold for safety filters.
type SafetyThreshold string

const (
	SafetyThresholdBlockNone      SafetyThreshold = "BLOCK_NONE"
	SafetyThresholdBlockLowAndUp  SafetyThreshold = "BLOCK_LOW_AND_ABOVE"
	SafetyThresholdBlockMedAndUp  SafetyThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	SafetyThresholdBlockHighAndUp SafetyThreshold = "BLOCK_ONLY_HIGH"
)

// SafetySetting configures content filtering for a specific category.
type SafetySetting struct {
	Category  SafetyCategory
	Threshold SafetyThreshold
}

// PermissiveSafetySettings disables blocking for every category.
func PermissiveSafetySettings() []SafetySetting {
	categories := []SafetyCategory{
		SafetyCategoryHateSpeech,
		SafetyCategorySexuallyExplicit,
		SafetyCategoryDangerousContent,
		SafetyCategoryHarassment,
		SafetyCategoryCivicIntegrity,
	}
	out := make([]SafetySetting, 0, len(categories))
	for _, c := range categories {
		out = append(out, SafetySetting{Category: c, Threshold: SafetyThresholdBlockNone})
	}
	return out
}

// ImageResult is the single image reference produced by a provider.
type ImageResult struct {
	// URL is either a data URL ("data:<mime>;base64,<data>") or a remote URL.
	URL string

	// MIMEType of the image when known
	MIMEType string

	// Data holds the decoded bytes when the provider returned inline data
	Data []byte

	Provider string
	Model    string

	// UsageMetadata contains token/billing information
	UsageMetadata *UsageMetadata
}

// UsageMetadata contains usage information for billing and monitoring.
type UsageMetadata struct {
	PromptTokens     int
	CandidatesTokens int
	TotalTokens      int
	ModelVersion     string
}

// GeneratedImage is one entry of a session's history. It is never mutated
// after creation.
type GeneratedImage struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt"`
	Mode      string    `json:"mode"`
	ModeID    string    `json:"modeId"`
	Provider  string    `json:"provider"`
	Timestamp time.Time `json:"timestamp"`

	// StoredURL is set when the image was exported to a Storage backend.
	StoredURL string `json:"storedUrl,omitempty"`
}

// Outcome classifies a finished generation attempt.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeValidation  Outcome = "validation_error"
	OutcomeTransport   Outcome = "transport_error"
	OutcomeProtocol    Outcome = "protocol_error"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeRejected    Outcome = "rejected"
	OutcomeFailed      Outcome = "failed"
)

// OutcomeOf maps an attempt error to its Outcome.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case IsRateLimitError(err):
		return OutcomeRateLimited
	case IsValidationError(err):
		return OutcomeValidation
	case IsProtocolError(err):
		return OutcomeProtocol
	case IsTransportError(err):
		return OutcomeTransport
	default:
		return OutcomeFailed
	}
}
