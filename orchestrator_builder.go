package stylegen

import (
	"log/slog"
	"time"

	"github.com/mhpenta/stylegen/ratelimiter"
)

// OrchestratorOption configures the Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the diagnostic logger. Causes of failed attempts are logged
// here; pass a redacting handler in production.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithStorage exports every generated image to storage under prefix.
func WithStorage(storage Storage, prefix string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.storage = storage
		o.storagePrefix = prefix
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) OrchestratorOption {
	return func(o *Orchestrator) {
		o.recorder = recorder
	}
}

// WithRateLimiter overrides the budget derived from the provider's RateLimits.
// A nil limiter disables local rate limiting.
func WithRateLimiter(limiter ratelimiter.Limiter) OrchestratorOption {
	return func(o *Orchestrator) {
		o.limiter = limiter
		o.limiterSet = true
	}
}

// WithTuning sets the sampling parameters used when an Attempt carries none.
func WithTuning(tuning *TuningConfig) OrchestratorOption {
	return func(o *Orchestrator) {
		o.tuning = tuning
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithIDGenerator overrides how history entry ids are produced.
func WithIDGenerator(newID func() string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.newID = newID
	}
}

// NewOrchestrator creates an Orchestrator for one provider.
// A nil registry means DefaultModeRegistry.
//
// Example:
//
//	gen := gemini.New(gemini.Config{})
//	orch := stylegen.NewOrchestrator(gen, nil,
//	    stylegen.WithLogger(slog.Default()),
//	)
//	st, err := orch.Generate(ctx, stylegen.State{}, stylegen.Attempt{
//	    APIKey: apiKey,
//	    ModeID: "ghibli",
//	    Image:  &upload.Image,
//	})
func NewOrchestrator(generator ImageGenerator, modes *ModeRegistry, opts ...OrchestratorOption) *Orchestrator {
	if modes == nil {
		modes = DefaultModeRegistry()
	}

	o := &Orchestrator{
		generator: generator,
		modes:     modes,
		logger:    slog.Default(),
		recorder:  nopRecorder{},
		now:       time.Now,
		newID:     newUUID,
	}

	for _, opt := range opts {
		opt(o)
	}

	// Create default in-memory limiter from the provider's rate limits
	if !o.limiterSet {
		if limits := generator.Info().RateLimits; limits.RequestsPerMinute > 0 {
			o.limiter = ratelimiter.New(limits.RequestsPerMinute, limits.Burst)
		}
	}
	if o.recorder == nil {
		o.recorder = nopRecorder{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	return o
}
