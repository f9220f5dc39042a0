// Package store provides Storage backends for exported images.
package store

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/mhpenta/stylegen"
	"github.com/mhpenta/stylegen/internal/logging"
)

// FileStorage writes images below a local directory.
type FileStorage struct {
	Dir string
}

var _ stylegen.Storage = (*FileStorage)(nil)

func (s *FileStorage) SaveFile(ctx context.Context, data []byte, path string, _ string) (string, error) {
	name := filepath.Join(s.Dir, filepath.FromSlash(filepath.Clean("/"+path)))
	log := logging.FromContextOrDiscard(ctx).WithGroup("file")
	log.Info("writing", "file", name)

	if err := os.MkdirAll(filepath.Dir(name), 0o750); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(name, data, 0o600); err != nil {
		return "", err
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
