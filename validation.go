package stylegen

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrEmptyPrompt     = errors.New("prompt cannot be empty")
	ErrEmptyImageData  = errors.New("image data cannot be empty")
	ErrInvalidMIMEType = errors.New("invalid or unsupported MIME type")
	ErrImageTooLarge   = errors.New("image data exceeds maximum size")
	ErrMissingAPIKey   = errors.New("Please enter your API key")
	ErrMissingImage    = errors.New("Please upload an image first")
	ErrMissingMode     = errors.New("Please select a mode")
	ErrUnknownMode     = errors.New("Invalid mode selected")
)

// MaxImageSize is the maximum allowed image size in bytes (20MB)
const MaxImageSize = 20 * 1024 * 1024

// ValidMIMETypes contains the accepted upload MIME types.
var ValidMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// NormalizeMIMEType lower-cases a MIME type, strips parameters and maps the
// common "image/jpg" alias to "image/jpeg".
func NormalizeMIMEType(mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "image/jpg" || mt == "image/pjpeg" {
		return "image/jpeg"
	}
	return mt
}

// ValidatePrompt validates a text prompt.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// ValidateAPIKey validates a credential.
func ValidateAPIKey(apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// ValidateInputImage validates an input image.
func ValidateInputImage(img InputImage) error {
	if err := validateImageData(img.Data); err != nil {
		return err
	}

	if img.MIMEType == "" {
		return fmt.Errorf("%w: MIME type is required", ErrInvalidMIMEType)
	}

	if !ValidMIMETypes[NormalizeMIMEType(img.MIMEType)] {
		return fmt.Errorf("%w: %s", ErrInvalidMIMEType, img.MIMEType)
	}

	return nil
}

func validateImageData(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyImageData
	}
	if len(data) > MaxImageSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, len(data), MaxImageSize)
	}
	return nil
}

// ValidateRequest checks every precondition of ImageGenerator.Generate for
// providers that require a source image. Failures are returned as *ValidationError.
func ValidateRequest(req GenerateRequest) error {
	if err := ValidateAPIKey(req.APIKey); err != nil {
		return &ValidationError{Err: err}
	}
	if err := ValidateInputImage(req.Image); err != nil {
		return &ValidationError{Err: err}
	}
	if err := ValidatePrompt(req.Prompt); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}
