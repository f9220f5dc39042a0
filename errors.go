package stylegen

import (
	"errors"
	"fmt"
	"time"
)

// UserMessage is the normalised text shown for any failed Gemini generation.
const UserMessage = "Failed to generate image — check your API key and try again."

// Protocol errors: the upstream answered but the payload lacks what we need.
var (
	ErrNoCandidates   = errors.New("no candidates returned")
	ErrNoContentParts = errors.New("candidate has no content parts")
	ErrNoImageData    = errors.New("no image data found in response")
)

// Orchestration errors.
var (
	// ErrGenerationInFlight is returned when an attempt starts while another one is running.
	ErrGenerationInFlight = errors.New("generation already in progress")

	// ErrStorageNotConfigured is returned when storage operations are attempted
	// without a configured storage backend.
	ErrStorageNotConfigured = errors.New("storage not configured")
)

// ValidationError reports a local precondition failure. It never reaches the network.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// TransportError reports a network failure or a non-2xx upstream response.
// StatusCode is zero when no response was received.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a well-formed HTTP response that is missing expected fields.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string { return "unexpected response: " + e.Err.Error() }

func (e *ProtocolError) Unwrap() error { return e.Err }

// RateLimitError is returned when a rate limit is hit, locally or upstream.
type RateLimitError struct {
	RetryAfter time.Duration
	LimitType  string
	Provider   string
	Err        error // Underlying error from the provider
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %s limit, retry after %v",
		e.Provider, e.LimitType, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// GenerationError is what a provider client surfaces: Message is safe to show
// to the user, Err keeps the underlying cause for diagnostics.
type GenerationError struct {
	Provider string
	Message  string
	Err      error
}

func (e *GenerationError) Error() string { return e.Message }

func (e *GenerationError) Unwrap() error { return e.Err }

// Cause returns the diagnostic description of the underlying failure.
func (e *GenerationError) Cause() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// IsRateLimitError checks if an error is a RateLimitError or an upstream 429.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return true
	}
	var tErr *TransportError
	return errors.As(err, &tErr) && tErr.StatusCode == 429
}

// IsValidationError reports whether err stems from a local precondition failure.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// IsTransportError reports whether err stems from a network or HTTP status failure.
func IsTransportError(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// IsProtocolError reports whether err stems from a malformed upstream payload.
func IsProtocolError(err error) bool {
	var pErr *ProtocolError
	return errors.As(err, &pErr)
}

// UserFacingMessage returns the text to store in State.Error for err.
func UserFacingMessage(err error) string {
	var gErr *GenerationError
	if errors.As(err, &gErr) && gErr.Message != "" {
		return gErr.Message
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return fmt.Sprintf("Too many generation requests, try again in %s.", rlErr.RetryAfter.Round(time.Second))
	}
	return UserMessage
}
