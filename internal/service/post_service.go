package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/dto"
	"github.com/klass-lk/ginblog/internal/model"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	wordsPerMinute = 200
	excerptLength  = 220
)

type PostStore interface {
	Save(ctx context.Context, post model.Post) error
	Update(ctx context.Context, post model.Post) error
	Delete(ctx context.Context, id string) error
	FindById(ctx context.Context, id string) (model.Post, error)
	FindBySlug(ctx context.Context, slug string) (model.Post, error)
	SlugTaken(ctx context.Context, slug, exceptID string) (bool, error)
	FindPublished(ctx context.Context, tag string, page ginblog.PageRequest) (ginblog.PageResponse[model.Post], error)
	FindAllPosts(ctx context.Context) ([]model.Post, error)
	PublishedTags(ctx context.Context) ([]string, error)
}

type MarkdownRenderer interface {
	Render(src string) (string, error)
	Excerpt(src string, limit int) (string, error)
}

type PostService struct {
	posts    PostStore
	renderer MarkdownRenderer
	cache    ginblog.CacheService
	now      func() time.Time
}

func NewPostService(posts PostStore, renderer MarkdownRenderer, cache ginblog.CacheService) *PostService {
	return &PostService{
		posts:    posts,
		renderer: renderer,
		cache:    cache,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *PostService) ListPublished(ctx context.Context, tag string, page ginblog.PageRequest) (ginblog.PageResponse[model.Post], error) {
	return s.posts.FindPublished(ctx, strings.TrimSpace(tag), page)
}

// GetPublished returns a published post with its rendered body. Drafts are
// reported as missing.
func (s *PostService) GetPublished(ctx context.Context, slug string) (model.PostDetail, error) {
	post, err := publishedPost(ctx, s.posts, slug)
	if err != nil {
		return model.PostDetail{}, err
	}
	return s.detail(post)
}

func (s *PostService) Tags(ctx context.Context) ([]string, error) {
	return s.posts.PublishedTags(ctx)
}

func (s *PostService) ListAll(ctx context.Context) ([]model.Post, error) {
	return s.posts.FindAllPosts(ctx)
}

func (s *PostService) Get(ctx context.Context, id string) (model.PostDetail, error) {
	post, err := s.posts.FindById(ctx, id)
	if err != nil {
		return model.PostDetail{}, notFound(err, "post")
	}
	return s.detail(post)
}

func (s *PostService) Create(ctx context.Context, author model.Author, req dto.PostRequest) (model.Post, error) {
	now := s.now()
	post := model.Post{
		ID:        uuid.NewString(),
		Author:    author,
		CreatedAt: now,
	}
	if err := s.apply(ctx, &post, req); err != nil {
		return model.Post{}, err
	}

	if err := s.posts.Save(ctx, post); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.Post{}, slugConflict(post.Slug)
		}
		return model.Post{}, fmt.Errorf("failed to save post: %w", err)
	}
	invalidate(ctx, s.cache, TagPosts)
	return post, nil
}

// Update overwrites the editable fields. Author, upvotes and createdAt are
// carried over from the stored post.
func (s *PostService) Update(ctx context.Context, id string, req dto.PostRequest) (model.Post, error) {
	post, err := s.posts.FindById(ctx, id)
	if err != nil {
		return model.Post{}, notFound(err, "post")
	}
	oldSlug := post.Slug
	if err := s.apply(ctx, &post, req); err != nil {
		return model.Post{}, err
	}

	if err := s.posts.Update(ctx, post); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.Post{}, slugConflict(post.Slug)
		}
		return model.Post{}, notFound(err, "post")
	}
	invalidate(ctx, s.cache, TagPosts, CommentsTag(oldSlug), CommentsTag(post.Slug))
	return post, nil
}

// Delete removes the post only; its comments and upvotes stay orphaned.
func (s *PostService) Delete(ctx context.Context, id string) error {
	post, err := s.posts.FindById(ctx, id)
	if err != nil {
		return notFound(err, "post")
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return notFound(err, "post")
	}
	invalidate(ctx, s.cache, TagPosts, CommentsTag(post.Slug))
	return nil
}

func (s *PostService) apply(ctx context.Context, post *model.Post, req dto.PostRequest) error {
	source := req.Slug
	if strings.TrimSpace(source) == "" {
		source = req.Title
	}
	postSlug := slug.Make(source)
	if postSlug == "" {
		return ginblog.ErrBadRequest.New(fmt.Sprintf("cannot derive a slug from %q", source))
	}

	taken, err := s.posts.SlugTaken(ctx, postSlug, post.ID)
	if err != nil {
		return fmt.Errorf("failed to check slug: %w", err)
	}
	if taken {
		return slugConflict(postSlug)
	}

	excerpt, err := s.renderer.Excerpt(req.Content, excerptLength)
	if err != nil {
		return fmt.Errorf("failed to build excerpt: %w", err)
	}

	post.Title = strings.TrimSpace(req.Title)
	post.Slug = postSlug
	post.Content = req.Content
	post.Excerpt = excerpt
	post.Tags = NormalizeTags(req.Tags)
	post.CoverImage = strings.TrimSpace(req.CoverImage)
	post.Published = req.Published
	post.ReadTime = ReadTime(req.Content)
	post.UpdatedAt = s.now()
	return nil
}

func (s *PostService) detail(post model.Post) (model.PostDetail, error) {
	html, err := s.renderer.Render(post.Content)
	if err != nil {
		return model.PostDetail{}, fmt.Errorf("failed to render post %s: %w", post.ID, err)
	}
	return model.PostDetail{Post: post, HTML: html}, nil
}

func slugConflict(postSlug string) error {
	return ginblog.ErrConflict.New(fmt.Sprintf("slug %q is already in use", postSlug))
}

// ReadTime estimates minutes to read content, never less than one.
func ReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// NormalizeTags lower-cases and trims tags, dropping blanks and duplicates
// while keeping the first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
