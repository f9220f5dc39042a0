package stylegen

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Session owns one user's selections and generation State. At most one
// Generate call runs at a time; overlapping calls are rejected, not queued.
type Session struct {
	orch     *Orchestrator
	inFlight *semaphore.Weighted

	mu     sync.Mutex
	modeID string
	image  *InputImage
	apiKey string
	tuning *TuningConfig
	state  State
}

// NewSession creates an empty session bound to orch.
func NewSession(orch *Orchestrator) *Session {
	return &Session{
		orch:     orch,
		inFlight: semaphore.NewWeighted(1),
	}
}

// SelectMode records the chosen mode id. It is resolved at generation time.
func (s *Session) SelectMode(modeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modeID = modeID
}

// SetImage replaces the source image.
func (s *Session) SetImage(img InputImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = &img
}

// SetAPIKey replaces the credential used for subsequent attempts.
func (s *Session) SetAPIKey(apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = apiKey
}

// SetTuning overrides the orchestrator's sampling parameters for this session.
func (s *Session) SetTuning(tuning *TuningConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tuning = tuning
}

// ModeID returns the selected mode id.
func (s *Session) ModeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modeID
}

// HasAPIKey reports whether a credential is set, without exposing it.
func (s *Session) HasAPIKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKey != ""
}

// ClearError dismisses the current error.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = ""
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Generate runs one attempt with the current selections. Starting it clears
// the previous error. While it runs, Snapshot reports IsGenerating and
// further calls return ErrGenerationInFlight.
func (s *Session) Generate(ctx context.Context) (State, error) {
	if !s.inFlight.TryAcquire(1) {
		st := s.Snapshot()
		st.IsGenerating = true
		return s.orch.Generate(ctx, st, Attempt{})
	}
	defer s.inFlight.Release(1)

	s.mu.Lock()
	s.state.Error = ""
	pre := s.state.Clone()
	at := Attempt{
		APIKey: s.apiKey,
		ModeID: s.modeID,
		Image:  s.image,
		Tuning: s.tuning,
	}
	s.state.IsGenerating = true
	s.mu.Unlock()

	next, err := s.orch.Generate(ctx, pre, at)

	s.mu.Lock()
	s.state = next
	out := next.Clone()
	s.mu.Unlock()

	return out, err
}
