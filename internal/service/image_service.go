package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/imaging"
	"github.com/klass-lk/ginblog/internal/model"
)

const imageFolder = "images"

type ImageStore interface {
	Save(ctx context.Context, img model.Image) error
	Delete(ctx context.Context, id string) error
	FindById(ctx context.Context, id string) (model.Image, error)
	FindAllImages(ctx context.Context) ([]model.Image, error)
}

// ImageReferences lists the posts that may point at an image.
type ImageReferences interface {
	FindImageReferences(ctx context.Context) ([]model.Post, error)
}

type ImageService struct {
	images  ImageStore
	posts   ImageReferences
	files   ginblog.FileService
	options imaging.Options
	maxSize int64
	now     func() time.Time
}

func NewImageService(images ImageStore, posts ImageReferences, files ginblog.FileService, options imaging.Options, maxSize int64) *ImageService {
	return &ImageService{
		images:  images,
		posts:   posts,
		files:   files,
		options: options,
		maxSize: maxSize,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *ImageService) MaxSize() int64 {
	return s.maxSize
}

// Upload compresses the image, stores the object and records its metadata.
func (s *ImageService) Upload(ctx context.Context, caller ginblog.AuthContext, fileName string, body io.Reader) (model.Image, error) {
	limited := io.LimitReader(body, s.maxSize+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return model.Image{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(raw)) > s.maxSize {
		return model.Image{}, ginblog.ErrBadRequest.New(fmt.Sprintf("image exceeds %s", humanize.IBytes(uint64(s.maxSize))))
	}

	compressed, err := imaging.Compress(bytes.NewReader(raw), s.options)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return model.Image{}, ginblog.ErrBadRequest.New("unsupported image format, use jpeg, png or gif")
		}
		if errors.Is(err, imaging.ErrTooManyPixels) {
			return model.Image{}, ginblog.ErrBadRequest.New(err.Error())
		}
		return model.Image{}, fmt.Errorf("failed to compress %s: %w", fileName, err)
	}

	id := uuid.NewString()
	objectPath := path.Join(imageFolder, id+".jpg")
	if err := s.files.Upload(ctx, objectPath, bytes.NewReader(compressed.Data), imaging.ContentType); err != nil {
		return model.Image{}, fmt.Errorf("failed to store %s: %w", objectPath, err)
	}
	url, err := s.files.GetURL(ctx, objectPath)
	if err != nil {
		return model.Image{}, fmt.Errorf("failed to resolve url of %s: %w", objectPath, err)
	}

	img := model.Image{
		ID:          id,
		Path:        objectPath,
		URL:         url,
		FileName:    path.Base(strings.ReplaceAll(fileName, "\\", "/")),
		ContentType: imaging.ContentType,
		Size:        int64(len(compressed.Data)),
		Width:       compressed.Width,
		Height:      compressed.Height,
		UploadedBy:  caller.UserID,
		CreatedAt:   s.now(),
	}
	if err := s.images.Save(ctx, img); err != nil {
		if delErr := s.files.Delete(ctx, objectPath); delErr != nil {
			slog.WarnContext(ctx, "Failed to remove orphaned image", slog.String("path", objectPath), slog.Any("err", delErr))
		}
		return model.Image{}, fmt.Errorf("failed to save image metadata: %w", err)
	}
	img.SizeHuman = humanize.IBytes(uint64(img.Size))
	slog.InfoContext(ctx, "Image uploaded",
		slog.String("path", objectPath),
		slog.String("original", humanize.IBytes(uint64(len(raw)))),
		slog.String("stored", img.SizeHuman),
	)
	return img, nil
}

// List returns every image with its in-use flag. URLs are resolved again
// from the storage path since presigned links expire.
func (s *ImageService) List(ctx context.Context) ([]model.Image, error) {
	images, err := s.images.FindAllImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	posts, err := s.posts.FindImageReferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}
	for i := range images {
		images[i].InUse = ImageInUse(images[i], posts)
		images[i].SizeHuman = humanize.IBytes(uint64(images[i].Size))
		url, err := s.files.GetURL(ctx, images[i].Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve url of %s: %w", images[i].Path, err)
		}
		images[i].URL = url
	}
	return images, nil
}

// Delete removes an image unless a post still references it.
func (s *ImageService) Delete(ctx context.Context, id string) error {
	img, err := s.images.FindById(ctx, id)
	if err != nil {
		return notFound(err, "image")
	}
	posts, err := s.posts.FindImageReferences(ctx)
	if err != nil {
		return fmt.Errorf("failed to load posts: %w", err)
	}
	if ImageInUse(img, posts) {
		return ginblog.ErrConflict.New("image is used by a post")
	}

	if err := s.files.Delete(ctx, img.Path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", img.Path, err)
	}
	return notFound(s.images.Delete(ctx, id), "image")
}

// ImageInUse reports whether any post uses img as cover or mentions it in
// its content, by storage path or by URL.
func ImageInUse(img model.Image, posts []model.Post) bool {
	refs := make([]string, 0, 2)
	for _, ref := range []string{img.Path, img.URL} {
		if ref != "" {
			refs = append(refs, ref)
		}
	}
	for _, post := range posts {
		for _, ref := range refs {
			if post.CoverImage == ref || strings.Contains(post.Content, ref) {
				return true
			}
		}
	}
	return false
}
