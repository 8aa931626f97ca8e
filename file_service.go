package ginblog

import (
	"context"
	"io"
)

// FileService stores binary objects addressed by a slash separated path.
type FileService interface {
	Upload(ctx context.Context, path string, body io.Reader, contentType string) error
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	GetURL(ctx context.Context, path string) (string, error)
}
