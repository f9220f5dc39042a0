package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mhpenta/stylegen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

var (
	sourcePNG = []byte("\x89PNG\r\n\x1a\nsource-photo")
	outputPNG = []byte("\x89PNG\r\n\x1a\nstylized")
)

type capture struct {
	calls atomic.Int32
	path  string
	query string
	body  string
}

func newUpstream(t *testing.T, status int, body string) (*httptest.Server, *capture) {
	t.Helper()
	c := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.calls.Add(1)
		raw, _ := io.ReadAll(r.Body)
		c.path = r.URL.Path
		c.query = r.URL.RawQuery
		c.body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func newRequest() stylegen.GenerateRequest {
	return stylegen.GenerateRequest{
		Prompt: "Create a cyberpunk style version",
		Image:  stylegen.InputImage{Data: sourcePNG, MIMEType: "image/png"},
		APIKey: "test-key",
	}
}

func imageResponse() string {
	return `{
		"candidates": [{
			"content": {
				"role": "model",
				"parts": [
					{"text": "here you go"},
					{"inlineData": {"mimeType": "image/png", "data": "` + base64.StdEncoding.EncodeToString(outputPNG) + `"}}
				]
			}
		}],
		"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 1290, "totalTokenCount": 1302},
		"modelVersion": "gemini-2.5-flash-image"
	}`
}

func TestGenerate_Success(t *testing.T) {
	srv, c := newUpstream(t, http.StatusOK, imageResponse())
	g := New(Config{BaseURL: srv.URL})

	result, err := g.Generate(context.Background(), newRequest())
	require.NoError(t, err)

	assert.Equal(t, stylegen.EncodeDataURL("image/png", outputPNG), result.URL)
	assert.Equal(t, outputPNG, result.Data)
	assert.Equal(t, "image/png", result.MIMEType)
	assert.Equal(t, DefaultModel, result.Model)
	require.NotNil(t, result.UsageMetadata)
	assert.Equal(t, 1302, result.UsageMetadata.TotalTokens)

	assert.EqualValues(t, 1, c.calls.Load())
	assert.Contains(t, c.path, DefaultModel+":generateContent")
	assert.NotContains(t, c.query, "test-key")
	assert.Contains(t, c.body, "Create a cyberpunk style version")
	assert.Contains(t, c.body, "Do not alter or stylize faces.")
	assert.Contains(t, c.body, base64.StdEncoding.EncodeToString(sourcePNG))
	assert.Contains(t, c.body, "BLOCK_NONE")
	assert.Contains(t, c.body, "HARM_CATEGORY_CIVIC_INTEGRITY")
}

func TestGenerate_FacePreservationDisabled(t *testing.T) {
	srv, c := newUpstream(t, http.StatusOK, imageResponse())
	g := New(Config{BaseURL: srv.URL, DisableFacePreservation: true})

	_, err := g.Generate(context.Background(), newRequest())
	require.NoError(t, err)
	assert.NotContains(t, c.body, "Do not alter or stylize faces.")
}

func TestGenerate_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name:    "zero candidates",
			body:    `{"candidates": []}`,
			wantErr: stylegen.ErrNoCandidates,
		},
		{
			name:    "candidate without parts",
			body:    `{"candidates": [{"content": {"role": "model", "parts": []}}]}`,
			wantErr: stylegen.ErrNoContentParts,
		},
		{
			name:    "text only",
			body:    `{"candidates": [{"content": {"role": "model", "parts": [{"text": "I cannot do that"}]}}]}`,
			wantErr: stylegen.ErrNoImageData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newUpstream(t, http.StatusOK, tt.body)
			g := New(Config{BaseURL: srv.URL})

			result, err := g.Generate(context.Background(), newRequest())
			require.Error(t, err)
			assert.Nil(t, result)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, stylegen.IsProtocolError(err))
			assert.Equal(t, stylegen.UserMessage, err.Error())
			assert.Equal(t, stylegen.UserMessage, stylegen.UserFacingMessage(err))

			var gErr *stylegen.GenerationError
			require.True(t, errors.As(err, &gErr))
			assert.Equal(t, "gemini", gErr.Provider)
			assert.Contains(t, gErr.Cause(), tt.wantErr.Error())
		})
	}
}

func TestGenerate_NonSuccessStatus(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusBadRequest,
		`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`)
	g := New(Config{BaseURL: srv.URL})

	_, err := g.Generate(context.Background(), newRequest())
	require.Error(t, err)

	var tErr *stylegen.TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, http.StatusBadRequest, tErr.StatusCode)
	assert.False(t, stylegen.IsRateLimitError(err))
	assert.Equal(t, stylegen.UserMessage, err.Error())
}

func TestGenerate_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	g := New(Config{BaseURL: url})
	_, err := g.Generate(context.Background(), newRequest())
	require.Error(t, err)

	var tErr *stylegen.TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Zero(t, tErr.StatusCode)
	assert.Equal(t, stylegen.UserMessage, err.Error())
}

func TestGenerate_ValidationSkipsNetwork(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*stylegen.GenerateRequest)
		wantErr error
	}{
		{"missing key", func(r *stylegen.GenerateRequest) { r.APIKey = "" }, stylegen.ErrMissingAPIKey},
		{"missing image", func(r *stylegen.GenerateRequest) { r.Image = stylegen.InputImage{} }, stylegen.ErrEmptyImageData},
		{"gif image", func(r *stylegen.GenerateRequest) { r.Image.MIMEType = "image/gif" }, stylegen.ErrInvalidMIMEType},
		{"blank prompt", func(r *stylegen.GenerateRequest) { r.Prompt = "  " }, stylegen.ErrEmptyPrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, c := newUpstream(t, http.StatusOK, imageResponse())
			g := New(Config{BaseURL: srv.URL})

			req := newRequest()
			tt.mutate(&req)

			_, err := g.Generate(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, stylegen.IsValidationError(err))
			assert.Zero(t, c.calls.Load())
		})
	}
}

func TestClassifyError(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		err := classifyError(genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, DefaultModel)
		assert.True(t, stylegen.IsRateLimitError(err))

		var tErr *stylegen.TransportError
		require.True(t, errors.As(err, &tErr))
		assert.Equal(t, 429, tErr.StatusCode)
	})

	t.Run("pointer api error", func(t *testing.T) {
		err := classifyError(&genai.APIError{Code: 503, Status: "UNAVAILABLE"}, DefaultModel)
		assert.False(t, stylegen.IsRateLimitError(err))

		var tErr *stylegen.TransportError
		require.True(t, errors.As(err, &tErr))
		assert.Equal(t, 503, tErr.StatusCode)
	})

	t.Run("plain error", func(t *testing.T) {
		err := classifyError(errors.New("connection reset"), DefaultModel)

		var tErr *stylegen.TransportError
		require.True(t, errors.As(err, &tErr))
		assert.Zero(t, tErr.StatusCode)
	})
}

func TestInfo(t *testing.T) {
	g := New(Config{Model: APIModelProImage})
	info := g.Info()
	assert.Equal(t, stylegen.ProviderGemini, info.Provider)
	assert.Equal(t, APIModelProImage, info.Model)
	assert.True(t, info.RequiresImage)
	assert.Equal(t, DefaultInfo.RateLimits, info.RateLimits)

	g = New(Config{RateLimits: stylegen.RateLimits{RequestsPerMinute: 5, Burst: 1}})
	assert.Equal(t, 5, g.Info().RateLimits.RequestsPerMinute)
	assert.NoError(t, g.Close())
}

func TestSetSafetySettings(t *testing.T) {
	g := New(Config{}).SetSafetySettings([]stylegen.SafetySetting{
		{Category: stylegen.SafetyCategoryHarassment, Threshold: stylegen.SafetyThresholdBlockMedAndUp},
	})

	cfg := g.buildGenerateContentConfig(nil)
	require.Len(t, cfg.SafetySettings, 1)
	assert.Equal(t, genai.HarmBlockThreshold("BLOCK_MEDIUM_AND_ABOVE"), cfg.SafetySettings[0].Threshold)
	assert.Equal(t, stylegen.DefaultTemperature, *cfg.Temperature)
	assert.Equal(t, stylegen.DefaultMaxOutputTokens, cfg.MaxOutputTokens)
	assert.True(t, strings.Contains(strings.Join(cfg.ResponseModalities, ","), "IMAGE"))
}
