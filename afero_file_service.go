package ginblog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// LocalFileService keeps objects on an afero filesystem. It backs local
// development (served through Server.ServeFiles) and tests (in memory).
type LocalFileService struct {
	fs      afero.Fs
	baseURL string
}

func NewLocalFileService(fs afero.Fs, baseURL string) *LocalFileService {
	return &LocalFileService{fs: fs, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func NewDiskFileService(root, baseURL string) *LocalFileService {
	return NewLocalFileService(afero.NewBasePathFs(afero.NewOsFs(), root), baseURL)
}

func NewMemoryFileService(baseURL string) *LocalFileService {
	return NewLocalFileService(afero.NewMemMapFs(), baseURL)
}

func (s *LocalFileService) Upload(_ context.Context, p string, body io.Reader, _ string) error {
	p = cleanObjectPath(p)
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", p, err)
	}
	f, err := s.fs.Create(p)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", p, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}

func (s *LocalFileService) Download(_ context.Context, p string) (io.ReadCloser, error) {
	f, err := s.fs.Open(cleanObjectPath(p))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p, err)
	}
	return f, nil
}

func (s *LocalFileService) Delete(_ context.Context, p string) error {
	if err := s.fs.Remove(cleanObjectPath(p)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", p, err)
	}
	return nil
}

func (s *LocalFileService) Exists(_ context.Context, p string) (bool, error) {
	return afero.Exists(s.fs, cleanObjectPath(p))
}

func (s *LocalFileService) GetURL(_ context.Context, p string) (string, error) {
	return s.baseURL + "/" + cleanObjectPath(p), nil
}

func cleanObjectPath(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}
