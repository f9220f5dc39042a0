// Package gemini provides an ImageGenerator implementation using Google's Gemini API.
//
// This provider uses the Gemini API backend via the official Go SDK:
// https://github.com/googleapis/go-genai
//
// The API key travels with each request, so a short-lived SDK client is
// built per call.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mhpenta/stylegen"
	"google.golang.org/genai"
)

// Config configures a GeminiGenerator.
type Config struct {
	// Model is the API model name; DefaultModel when empty.
	Model string

	// BaseURL and APIVersion override the SDK endpoint (optional).
	BaseURL    string
	APIVersion string

	// HTTPClient is handed to the SDK; the SDK default is used when nil.
	HTTPClient *http.Client

	// Timeout bounds a single call. Zero leaves the transport default in place.
	Timeout time.Duration

	// DisableFacePreservation drops FacePreservationSuffix from prompts.
	DisableFacePreservation bool

	// RateLimits overrides DefaultInfo.RateLimits when non-zero.
	RateLimits stylegen.RateLimits
}

// GeminiGenerator implements ImageGenerator using Google's Gemini API.
type GeminiGenerator struct {
	cfg            Config
	safetySettings []*genai.SafetySetting
	mu             sync.RWMutex
}

// Ensure GeminiGenerator implements the interface.
var _ stylegen.ImageGenerator = (*GeminiGenerator)(nil)

// New creates a new GeminiGenerator with permissive safety settings.
func New(cfg Config) *GeminiGenerator {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &GeminiGenerator{
		cfg:            cfg,
		safetySettings: convertSafetySettings(stylegen.PermissiveSafetySettings()),
	}
}

// SetSafetySettings replaces the safety settings sent with every request.
func (g *GeminiGenerator) SetSafetySettings(settings []stylegen.SafetySetting) *GeminiGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.safetySettings = convertSafetySettings(settings)
	return g
}

// Info describes this provider.
func (g *GeminiGenerator) Info() stylegen.ProviderInfo {
	info := DefaultInfo
	info.Model = g.cfg.Model
	if g.cfg.RateLimits != (stylegen.RateLimits{}) {
		info.RateLimits = g.cfg.RateLimits
	}
	return info
}

// Close releases any resources held by the generator.
func (g *GeminiGenerator) Close() error {
	// The genai.Client doesn't require explicit closing in the current SDK
	return nil
}

// Generate sends the prompt and the source image to the model and returns the
// first inline image of the first candidate as a data URL.
func (g *GeminiGenerator) Generate(ctx context.Context, req stylegen.GenerateRequest) (*stylegen.ImageResult, error) {
	if err := stylegen.ValidateRequest(req); err != nil {
		return nil, g.fail(err)
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	client, err := g.newClient(ctx, req.APIKey)
	if err != nil {
		return nil, g.fail(&stylegen.TransportError{Err: fmt.Errorf("creating Gemini client: %w", err)})
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: g.buildPrompt(req.Prompt)},
				{
					InlineData: &genai.Blob{
						Data:     req.Image.Data,
						MIMEType: stylegen.NormalizeMIMEType(req.Image.MIMEType),
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, contents, g.buildGenerateContentConfig(req.Tuning))
	if err != nil {
		return nil, g.fail(classifyError(err, g.cfg.Model))
	}

	result, err := parseResult(resp)
	if err != nil {
		return nil, g.fail(err)
	}
	result.Model = g.cfg.Model
	return result, nil
}

func (g *GeminiGenerator) newClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.cfg.HTTPClient,
	}
	if g.cfg.BaseURL != "" || g.cfg.APIVersion != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{
			BaseURL:    g.cfg.BaseURL,
			APIVersion: g.cfg.APIVersion,
		}
	}
	return genai.NewClient(ctx, clientCfg)
}

func (g *GeminiGenerator) buildPrompt(prompt string) string {
	if g.cfg.DisableFacePreservation {
		return prompt
	}
	return prompt + FacePreservationSuffix
}

// buildGenerateContentConfig converts our tuning to Gemini's GenerateContentConfig format.
func (g *GeminiGenerator) buildGenerateContentConfig(tuning *stylegen.TuningConfig) *genai.GenerateContentConfig {
	t := tuning.Resolved()

	g.mu.RLock()
	safety := g.safetySettings
	g.mu.RUnlock()

	return &genai.GenerateContentConfig{
		// Enable image output
		ResponseModalities: []string{"IMAGE", "TEXT"},
		Temperature:        t.Temperature,
		TopP:               t.TopP,
		TopK:               t.TopK,
		MaxOutputTokens:    *t.MaxOutputTokens,
		SafetySettings:     safety,
	}
}

func (g *GeminiGenerator) fail(err error) error {
	return &stylegen.GenerationError{
		Provider: string(stylegen.ProviderGemini),
		Message:  stylegen.UserMessage,
		Err:      err,
	}
}

// convertSafetySettings converts our SafetySettings to Gemini's format.
func convertSafetySettings(settings []stylegen.SafetySetting) []*genai.SafetySetting {
	result := make([]*genai.SafetySetting, 0, len(settings))
	for _, s := range settings {
		result = append(result, &genai.SafetySetting{
			Category:  genai.HarmCategory(s.Category),
			Threshold: genai.HarmBlockThreshold(s.Threshold),
		})
	}
	return result
}

// parseResult picks the first inline image of the first candidate.
func parseResult(resp *genai.GenerateContentResponse) (*stylegen.ImageResult, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &stylegen.ProtocolError{Err: stylegen.ErrNoCandidates}
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, &stylegen.ProtocolError{Err: stylegen.ErrNoContentParts}
	}

	for _, part := range candidate.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}

		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = "image/png"
		}

		result := &stylegen.ImageResult{
			URL:      stylegen.EncodeDataURL(mimeType, part.InlineData.Data),
			MIMEType: mimeType,
			Data:     part.InlineData.Data,
			Provider: string(stylegen.ProviderGemini),
		}
		if resp.UsageMetadata != nil {
			result.UsageMetadata = &stylegen.UsageMetadata{
				PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
				CandidatesTokens: int(resp.UsageMetadata.CandidatesTokenCount),
				TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
				ModelVersion:     resp.ModelVersion,
			}
		}
		return result, nil
	}

	return nil, &stylegen.ProtocolError{Err: stylegen.ErrNoImageData}
}

// classifyError maps an SDK error onto TransportError, and 429s additionally
// onto RateLimitError.
func classifyError(err error, model string) error {
	code := 0
	status := ""

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, status = apiErr.Code, apiErr.Status
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		code, status = apiErrPtr.Code, apiErrPtr.Status
	}

	tErr := &stylegen.TransportError{StatusCode: code, Err: err}
	if code != http.StatusTooManyRequests && status != "RESOURCE_EXHAUSTED" {
		return tErr
	}

	return &stylegen.RateLimitError{
		RetryAfter: 60 * time.Second, // Default; API doesn't reliably provide Retry-After
		LimitType:  "requests",
		Provider:   model,
		Err:        tErr,
	}
}
