package stylegen

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mhpenta/stylegen/ratelimiter"
)

// State is the generation state of one session. It is passed into and
// returned from Orchestrator.Generate by value; History is newest-first.
type State struct {
	IsGenerating bool             `json:"isGenerating"`
	Error        string           `json:"error,omitempty"`
	CurrentImage *GeneratedImage  `json:"currentImage"`
	History      []GeneratedImage `json:"history"`
}

// Clone returns a copy of s that shares no memory with it.
func (s State) Clone() State {
	out := s
	if s.CurrentImage != nil {
		img := *s.CurrentImage
		out.CurrentImage = &img
	}
	if s.History != nil {
		out.History = append([]GeneratedImage(nil), s.History...)
	}
	return out
}

// Attempt carries the user's selections for one generation.
type Attempt struct {
	APIKey string
	ModeID string
	Image  *InputImage
	Tuning *TuningConfig
}

// Orchestrator validates an attempt, performs one provider call and records
// the outcome into State. It holds no per-session data and is safe for
// concurrent use.
type Orchestrator struct {
	generator ImageGenerator
	modes     *ModeRegistry

	logger *slog.Logger

	// Storage for exporting generated images (optional)
	storage       Storage
	storagePrefix string

	recorder Recorder

	// Local request budget (optional). Never waits.
	limiter    ratelimiter.Limiter
	limiterSet bool

	tuning *TuningConfig

	now   func() time.Time
	newID func() string

	mu sync.RWMutex
}

// Generate runs one attempt against st and returns the resulting state.
//
// An attempt started while st.IsGenerating is set is rejected with
// ErrGenerationInFlight and st is returned unchanged. Any other failure is
// recorded in the returned State.Error, leaves History untouched and is also
// returned as the error.
func (o *Orchestrator) Generate(ctx context.Context, st State, at Attempt) (State, error) {
	provider := string(o.generator.Info().Provider)

	if st.IsGenerating {
		o.recorder.ObserveAttempt(provider, OutcomeRejected, 0)
		o.logger.Warn("generation rejected", "provider", provider, "reason", ErrGenerationInFlight.Error())
		return st, ErrGenerationInFlight
	}

	start := o.now()
	logger := o.logger.With("provider", provider, "mode", at.ModeID)

	mode, err := o.validate(at)
	if err != nil {
		return o.fail(logger, st, err, provider, start), err
	}

	if err := o.checkRateLimit(provider); err != nil {
		logger.Warn("rate limit hit", "error", err.Error())
		return o.fail(logger, st, err, provider, start), err
	}

	tuning := at.Tuning
	if tuning == nil {
		tuning = o.tuning
	}

	logger.Debug("starting image generation",
		"prompt_length", len(mode.PromptTemplate),
		"image_size", len(at.Image.Data),
		"mime_type", at.Image.MIMEType,
	)

	result, err := o.generator.Generate(ctx, GenerateRequest{
		Prompt: mode.PromptTemplate,
		Image:  *at.Image,
		APIKey: at.APIKey,
		Tuning: tuning,
		Metadata: map[string]string{
			"mode": mode.ID,
		},
	})
	if err == nil && result == nil {
		err = &GenerationError{Provider: provider, Message: UserMessage, Err: &ProtocolError{Err: ErrNoImageData}}
	}
	if err != nil {
		return o.fail(logger, st, err, provider, start), err
	}

	img := GeneratedImage{
		ID:        o.newID(),
		URL:       result.URL,
		Prompt:    mode.PromptTemplate,
		Mode:      mode.Name,
		ModeID:    mode.ID,
		Provider:  provider,
		Timestamp: o.now(),
	}
	img.StoredURL = o.export(ctx, logger, result, img)

	next := st
	next.IsGenerating = false
	next.Error = ""
	next.History = append([]GeneratedImage{img}, st.History...)
	current := img
	next.CurrentImage = &current

	duration := o.now().Sub(start)
	o.recorder.ObserveAttempt(provider, OutcomeSuccess, duration.Seconds())

	logAttrs := []any{
		"image_id", img.ID,
		"duration_ms", duration.Milliseconds(),
		"history_len", len(next.History),
	}
	if result.UsageMetadata != nil {
		logAttrs = append(logAttrs,
			"prompt_tokens", result.UsageMetadata.PromptTokens,
			"response_tokens", result.UsageMetadata.CandidatesTokens,
			"total_tokens", result.UsageMetadata.TotalTokens,
		)
	}
	logger.Info("generation completed", logAttrs...)

	return next, nil
}

// validate checks the attempt's preconditions in the order the user fixes them.
func (o *Orchestrator) validate(at Attempt) (Mode, error) {
	if err := ValidateAPIKey(at.APIKey); err != nil {
		return Mode{}, &ValidationError{Err: err}
	}
	if at.Image == nil || len(at.Image.Data) == 0 {
		return Mode{}, &ValidationError{Err: ErrMissingImage}
	}
	if err := ValidateInputImage(*at.Image); err != nil {
		return Mode{}, &ValidationError{Err: err}
	}
	if at.ModeID == "" {
		return Mode{}, &ValidationError{Err: ErrMissingMode}
	}
	mode, ok := o.modes.Lookup(at.ModeID)
	if !ok {
		return Mode{}, &ValidationError{Err: ErrUnknownMode}
	}
	return mode, nil
}

func (o *Orchestrator) checkRateLimit(provider string) error {
	o.mu.RLock()
	limiter := o.limiter
	o.mu.RUnlock()

	if limiter == nil || limiter.TryConsume(1) {
		return nil
	}
	return &RateLimitError{
		RetryAfter: limiter.TimeUntilAvailable(1),
		LimitType:  "requests",
		Provider:   provider,
	}
}

// export saves the result to storage and returns its URL. Failures are
// logged and never fail the attempt.
func (o *Orchestrator) export(ctx context.Context, logger *slog.Logger, result *ImageResult, img GeneratedImage) string {
	o.mu.RLock()
	storage, prefix := o.storage, o.storagePrefix
	o.mu.RUnlock()

	if storage == nil {
		return ""
	}

	saved, err := SaveResult(ctx, storage, result, prefix, img.ID, img.Timestamp)
	if err != nil {
		logger.Warn("failed to export generated image", "image_id", img.ID, "error", err.Error())
		return ""
	}
	if saved == nil {
		return ""
	}
	logger.Debug("exported generated image", "image_id", img.ID, "path", saved.Path, "size", saved.Size)
	return saved.URL
}

func (o *Orchestrator) fail(logger *slog.Logger, st State, err error, provider string, start time.Time) State {
	next := st
	next.IsGenerating = false
	next.Error = UserFacingMessage(err)

	duration := o.now().Sub(start)
	outcome := OutcomeOf(err)
	o.recorder.ObserveAttempt(provider, outcome, duration.Seconds())

	cause := err.Error()
	var gErr *GenerationError
	if errors.As(err, &gErr) && gErr.Err != nil {
		cause = gErr.Cause()
	}

	if outcome == OutcomeValidation {
		logger.Info("generation precondition failed", "error", cause)
	} else {
		logger.Error("generation failed",
			"outcome", string(outcome),
			"duration_ms", duration.Milliseconds(),
			"error", cause,
		)
	}
	return next
}

// Modes returns the registry the orchestrator resolves mode ids against.
func (o *Orchestrator) Modes() *ModeRegistry {
	return o.modes
}

// Info describes the underlying provider.
func (o *Orchestrator) Info() ProviderInfo {
	return o.generator.Info()
}

// SetRateLimiter replaces the local request budget. A nil limiter disables it.
func (o *Orchestrator) SetRateLimiter(limiter ratelimiter.Limiter) *Orchestrator {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.limiter = limiter
	o.limiterSet = true
	return o
}

// SetStorage sets a storage backend for exporting generated images.
func (o *Orchestrator) SetStorage(storage Storage) *Orchestrator {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.storage = storage
	return o
}

// Close releases the provider's resources.
func (o *Orchestrator) Close() error {
	return o.generator.Close()
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(string, Outcome, float64) {}

func newUUID() string { return uuid.NewString() }
