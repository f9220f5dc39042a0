package stylegen

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// StorageResult contains information about a saved image.
type StorageResult struct {
	// URL is where the image can be accessed
	URL string

	// Path is the storage path/key where the image was saved
	Path string

	// Size is the number of bytes saved
	Size int
}

// SaveResult exports the bytes behind an ImageResult to storage.
// Images are saved under {prefix}/{yyyy-mm-dd}/{id}.{extension}.
// Results that only carry a remote URL have nothing to export and yield a nil result.
func SaveResult(
	ctx context.Context,
	storage Storage,
	result *ImageResult,
	prefix string,
	id string,
	now time.Time) (*StorageResult, error) {

	if storage == nil {
		return nil, ErrStorageNotConfigured
	}
	if result == nil {
		return nil, nil
	}

	data, mimeType := result.Data, result.MIMEType
	if len(data) == 0 && IsDataURL(result.URL) {
		var err error
		mimeType, data, err = DecodeDataURL(result.URL)
		if err != nil {
			return nil, err
		}
	}
	if len(data) == 0 {
		return nil, nil
	}

	path := objectPath(prefix, now, id, extensionFromMIME(mimeType))
	url, err := storage.SaveFile(ctx, data, path, mimeType)
	if err != nil {
		return nil, fmt.Errorf("saving %s: %w", path, err)
	}

	return &StorageResult{
		URL:  url,
		Path: path,
		Size: len(data),
	}, nil
}

func objectPath(prefix string, now time.Time, id, ext string) string {
	p := fmt.Sprintf("%s/%s.%s", now.UTC().Format("2006-01-02"), id, ext)
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		p = prefix + "/" + p
	}
	return p
}

// GetMIMEType guesses an image MIME type from a file extension. Unknown
// extensions yield "application/octet-stream".
func GetMIMEType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// extensionFromMIME returns a file extension for common image MIME types.
func extensionFromMIME(mime string) string {
	switch NormalizeMIMEType(mime) {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
