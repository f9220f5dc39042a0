package stylegen

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerationError(t *testing.T) {
	cause := &TransportError{StatusCode: 503, Err: errors.New("unavailable")}
	err := error(&GenerationError{Provider: "gemini", Message: UserMessage, Err: cause})

	assert.Equal(t, UserMessage, err.Error())
	assert.True(t, IsTransportError(err))
	assert.False(t, IsProtocolError(err))

	var gErr *GenerationError
	assert.True(t, errors.As(err, &gErr))
	assert.Equal(t, "upstream returned status 503: unavailable", gErr.Cause())
	assert.Empty(t, (&GenerationError{}).Cause())
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, IsRateLimitError(&RateLimitError{}))
	assert.True(t, IsRateLimitError(&GenerationError{Err: &TransportError{StatusCode: 429}}))
	assert.False(t, IsRateLimitError(&TransportError{StatusCode: 500}))
	assert.False(t, IsRateLimitError(nil))
}

func TestUserFacingMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"generation error", &GenerationError{Message: "custom"}, "custom"},
		{"validation", &ValidationError{Err: ErrMissingMode}, "Please select a mode"},
		{"rate limited", &RateLimitError{RetryAfter: 1500 * time.Millisecond}, "Too many generation requests, try again in 2s."},
		{"anything else", errors.New("socket closed"), UserMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserFacingMessage(tt.err))
		})
	}
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, OutcomeOf(nil))
	assert.Equal(t, OutcomeValidation, OutcomeOf(&ValidationError{Err: ErrMissingImage}))
	assert.Equal(t, OutcomeProtocol, OutcomeOf(&GenerationError{Err: &ProtocolError{Err: ErrNoImageData}}))
	assert.Equal(t, OutcomeTransport, OutcomeOf(&GenerationError{Err: &TransportError{StatusCode: 500}}))
	assert.Equal(t, OutcomeRateLimited, OutcomeOf(&GenerationError{Err: &TransportError{StatusCode: 429}}))
	assert.Equal(t, OutcomeFailed, OutcomeOf(errors.New("x")))
}
