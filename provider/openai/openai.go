// Package openai provides an ImageGenerator backed by the OpenAI images API.
//
// Two endpoints are used: text-to-image ("/generations") and image
// variations ("/variations"). Generate picks the variation endpoint when the
// request carries a source image.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mhpenta/stylegen"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1/images"
	DefaultModel   = "dall-e-3"
	DefaultSize    = "1024x1024"
)

// User-facing messages for the two endpoints.
const (
	GenerationFailedMessage = "Failed to generate image. Please check your API key and try again."
	VariationFailedMessage  = "Failed to generate image variation. Please check your API key and try again."
)

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 4 << 10

// Config configures a Generator.
type Config struct {
	// BaseURL is the images API root; DefaultBaseURL when empty.
	BaseURL string
	// Model used for text-to-image; DefaultModel when empty.
	Model string
	// Size of generated images; DefaultSize when empty.
	Size string
	// HTTPClient used for requests; a client with Timeout is created when nil.
	HTTPClient *http.Client
	// Timeout applies only to the client created when HTTPClient is nil.
	// Zero means no timeout beyond the caller's context.
	Timeout time.Duration
}

// Generator implements stylegen.ImageGenerator on the OpenAI images API.
type Generator struct {
	cfg    Config
	client *http.Client
}

var _ stylegen.ImageGenerator = (*Generator)(nil)

// New creates a Generator.
func New(cfg Config) *Generator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Size == "" {
		cfg.Size = DefaultSize
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Generator{cfg: cfg, client: client}
}

// Info describes this provider.
func (g *Generator) Info() stylegen.ProviderInfo {
	return stylegen.ProviderInfo{
		Provider: stylegen.ProviderOpenAI,
		Model:    g.cfg.Model,
		RateLimits: stylegen.RateLimits{
			RequestsPerMinute: 7, // dall-e-3 tier 1
			Burst:             1,
		},
	}
}

// Close releases idle connections.
func (g *Generator) Close() error {
	g.client.CloseIdleConnections()
	return nil
}

// Generate creates a variation of req.Image when one is given and falls back
// to text-to-image from req.Prompt otherwise.
func (g *Generator) Generate(ctx context.Context, req stylegen.GenerateRequest) (*stylegen.ImageResult, error) {
	if len(req.Image.Data) > 0 {
		return g.CreateVariation(ctx, req.Image, req.APIKey)
	}
	return g.GenerateFromText(ctx, req.Prompt, req.APIKey)
}

type generationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imagesResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
}

// GenerateFromText renders a single image from prompt.
func (g *Generator) GenerateFromText(ctx context.Context, prompt, apiKey string) (*stylegen.ImageResult, error) {
	if err := stylegen.ValidateAPIKey(apiKey); err != nil {
		return nil, g.fail(GenerationFailedMessage, &stylegen.ValidationError{Err: err})
	}
	if err := stylegen.ValidatePrompt(prompt); err != nil {
		return nil, g.fail(GenerationFailedMessage, &stylegen.ValidationError{Err: err})
	}

	payload, err := json.Marshal(generationRequest{
		Model:  g.cfg.Model,
		Prompt: prompt,
		N:      1,
		Size:   g.cfg.Size,
	})
	if err != nil {
		return nil, g.fail(GenerationFailedMessage, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, g.fail(GenerationFailedMessage, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	url, err := g.do(httpReq)
	if err != nil {
		return nil, g.fail(GenerationFailedMessage, err)
	}

	return &stylegen.ImageResult{
		URL:      url,
		Provider: string(stylegen.ProviderOpenAI),
		Model:    g.cfg.Model,
	}, nil
}

// CreateVariation asks for a single variation of img.
func (g *Generator) CreateVariation(ctx context.Context, img stylegen.InputImage, apiKey string) (*stylegen.ImageResult, error) {
	if err := stylegen.ValidateAPIKey(apiKey); err != nil {
		return nil, g.fail(VariationFailedMessage, &stylegen.ValidationError{Err: err})
	}
	if err := stylegen.ValidateInputImage(img); err != nil {
		return nil, g.fail(VariationFailedMessage, &stylegen.ValidationError{Err: err})
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", "image."+extension(img.MIMEType))
	if err != nil {
		return nil, g.fail(VariationFailedMessage, err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, g.fail(VariationFailedMessage, err)
	}
	if err := writer.WriteField("n", strconv.Itoa(1)); err != nil {
		return nil, g.fail(VariationFailedMessage, err)
	}
	if err := writer.Close(); err != nil {
		return nil, g.fail(VariationFailedMessage, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/variations", &buf)
	if err != nil {
		return nil, g.fail(VariationFailedMessage, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	url, err := g.do(httpReq)
	if err != nil {
		return nil, g.fail(VariationFailedMessage, err)
	}

	return &stylegen.ImageResult{
		URL:      url,
		Provider: string(stylegen.ProviderOpenAI),
		Model:    "dall-e-2", // variations are only served by dall-e-2
	}, nil
}

// do sends req and returns data[0].url of the response.
func (g *Generator) do(req *http.Request) (string, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		return "", &stylegen.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		tErr := &stylegen.TransportError{
			StatusCode: resp.StatusCode,
			Err:        errors.New(upstreamMessage(body)),
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", &stylegen.RateLimitError{
				RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
				LimitType:  "requests",
				Provider:   string(stylegen.ProviderOpenAI),
				Err:        tErr,
			}
		}
		return "", tErr
	}

	var out imagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &stylegen.ProtocolError{Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(out.Data) == 0 {
		return "", &stylegen.ProtocolError{Err: stylegen.ErrNoCandidates}
	}
	if out.Data[0].URL == "" {
		return "", &stylegen.ProtocolError{Err: stylegen.ErrNoImageData}
	}
	return out.Data[0].URL, nil
}

func (g *Generator) fail(message string, err error) error {
	return &stylegen.GenerationError{
		Provider: string(stylegen.ProviderOpenAI),
		Message:  message,
		Err:      err,
	}
}

// upstreamMessage extracts error.message from an OpenAI error body.
func upstreamMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	if len(body) == 0 {
		return "empty error body"
	}
	return string(body)
}

func retryAfter(h string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 60 * time.Second
}

func extension(mimeType string) string {
	if stylegen.NormalizeMIMEType(mimeType) == "image/jpeg" {
		return "jpg"
	}
	return "png"
}
