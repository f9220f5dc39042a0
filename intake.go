package stylegen

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Upload is an accepted source image together with its preview reference.
type Upload struct {
	Image InputImage
	// Preview is a data URL suitable for displaying the upload as-is.
	Preview string
}

// ReadImage reads a single uploaded image from r. The content is always
// sniffed; a declared image type that disagrees with the bytes is rejected.
// At most MaxImageSize bytes are accepted.
func ReadImage(r io.Reader, declaredMIME string) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if err := validateImageData(data); err != nil {
		return nil, err
	}

	mimeType := NormalizeMIMEType(http.DetectContentType(data))
	declared := NormalizeMIMEType(declaredMIME)
	if strings.HasPrefix(declared, "image/") && declared != mimeType {
		return nil, fmt.Errorf("%w: declared %s but content is %s", ErrInvalidMIMEType, declared, mimeType)
	}

	img := InputImage{Data: data, MIMEType: mimeType}
	if err := ValidateInputImage(img); err != nil {
		return nil, err
	}

	return &Upload{
		Image:   img,
		Preview: EncodeDataURL(img.MIMEType, img.Data),
	}, nil
}

// ReadImageFile is ReadImage for a file on disk; the MIME type comes from the extension.
func ReadImageFile(path string) (*Upload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	return ReadImage(f, GetMIMEType(path))
}
