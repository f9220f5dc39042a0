package stylegen

import (
	"context"
	"sync"
)

// MockImageGenerator is a mock implementation of ImageGenerator.
type MockImageGenerator struct {
	GenerateFunc func(ctx context.Context, req GenerateRequest) (*ImageResult, error)
	InfoFunc     func() ProviderInfo
	CloseFunc    func() error

	mu       sync.Mutex
	requests []GenerateRequest
}

func (m *MockImageGenerator) Generate(ctx context.Context, req GenerateRequest) (*ImageResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &ImageResult{
		URL:      EncodeDataURL("image/png", []byte("generated")),
		MIMEType: "image/png",
		Data:     []byte("generated"),
		Provider: "mock",
	}, nil
}

func (m *MockImageGenerator) Info() ProviderInfo {
	if m.InfoFunc != nil {
		return m.InfoFunc()
	}
	return ProviderInfo{Provider: "mock", Model: "mock-model", ReturnsInlineData: true, RequiresImage: true}
}

func (m *MockImageGenerator) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns how many times Generate was invoked.
func (m *MockImageGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request passed to Generate.
func (m *MockImageGenerator) LastRequest() GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return GenerateRequest{}
	}
	return m.requests[len(m.requests)-1]
}

// MockStorage records saved files in memory.
type MockStorage struct {
	SaveFunc func(ctx context.Context, data []byte, path string, contentType string) (string, error)

	mu    sync.Mutex
	Files map[string][]byte
}

func (s *MockStorage) SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error) {
	if s.SaveFunc != nil {
		return s.SaveFunc(ctx, data, path, contentType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Files == nil {
		s.Files = make(map[string][]byte)
	}
	s.Files[path] = data
	return "mem://" + path, nil
}

type recordedAttempt struct {
	provider string
	outcome  Outcome
}

// MockRecorder captures metric observations.
type MockRecorder struct {
	mu       sync.Mutex
	attempts []recordedAttempt
}

func (r *MockRecorder) ObserveAttempt(provider string, outcome Outcome, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, recordedAttempt{provider: provider, outcome: outcome})
}

func (r *MockRecorder) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Outcome, 0, len(r.attempts))
	for _, a := range r.attempts {
		out = append(out, a.outcome)
	}
	return out
}
