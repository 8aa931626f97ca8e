package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/dto"
	"github.com/klass-lk/ginblog/internal/model"
)

type CommentStore interface {
	Save(ctx context.Context, comment model.Comment) error
	Update(ctx context.Context, comment model.Comment) error
	FindById(ctx context.Context, id string) (model.Comment, error)
	FindByPost(ctx context.Context, postID string) ([]model.Comment, error)
	DeleteThread(ctx context.Context, id string) (int64, error)
}

// PostLookup is the read side of PostStore comments and upvotes need.
type PostLookup interface {
	FindById(ctx context.Context, id string) (model.Post, error)
	FindBySlug(ctx context.Context, slug string) (model.Post, error)
}

type AdminChecker interface {
	IsAdmin(ctx context.Context, uid, email string) (bool, error)
}

type CommentService struct {
	comments CommentStore
	posts    PostLookup
	admins   AdminChecker
	cache    ginblog.CacheService
	now      func() time.Time
}

func NewCommentService(comments CommentStore, posts PostLookup, admins AdminChecker, cache ginblog.CacheService) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		admins:   admins,
		cache:    cache,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *CommentService) Threads(ctx context.Context, slug string) ([]model.CommentThread, error) {
	post, err := publishedPost(ctx, s.posts, slug)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.FindByPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments of %s: %w", post.ID, err)
	}
	return BuildThreads(comments), nil
}

func (s *CommentService) Create(ctx context.Context, caller ginblog.AuthContext, slug string, req dto.CommentRequest) (model.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return model.Comment{}, ginblog.ErrBadRequest.New("comment content is required")
	}
	post, err := publishedPost(ctx, s.posts, slug)
	if err != nil {
		return model.Comment{}, err
	}

	parentID := strings.TrimSpace(req.ParentID)
	if parentID != "" {
		parent, err := s.comments.FindById(ctx, parentID)
		if err != nil {
			return model.Comment{}, notFound(err, "parent comment")
		}
		if parent.PostID != post.ID {
			return model.Comment{}, ginblog.ErrBadRequest.New("parent comment belongs to another post")
		}
		// Threads are one level deep.
		if parent.IsReply() {
			parentID = parent.ParentID
		}
	}

	now := s.now()
	comment := model.Comment{
		ID:       uuid.NewString(),
		PostID:   post.ID,
		UserID:   caller.UserID,
		ParentID: parentID,
		Content:  content,
		Author: model.CommentAuthor{
			Name:  displayName(caller),
			Image: caller.Picture,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.Save(ctx, comment); err != nil {
		return model.Comment{}, fmt.Errorf("failed to save comment: %w", err)
	}
	invalidate(ctx, s.cache, CommentsTag(post.Slug))
	return comment, nil
}

// Update lets the author rewrite their comment.
func (s *CommentService) Update(ctx context.Context, caller ginblog.AuthContext, id string, req dto.CommentUpdate) (model.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return model.Comment{}, ginblog.ErrBadRequest.New("comment content is required")
	}
	comment, err := s.comments.FindById(ctx, id)
	if err != nil {
		return model.Comment{}, notFound(err, "comment")
	}
	if comment.UserID != caller.UserID {
		return model.Comment{}, ginblog.ErrForbidden
	}

	comment.Content = content
	comment.UpdatedAt = s.now()
	if err := s.comments.Update(ctx, comment); err != nil {
		return model.Comment{}, notFound(err, "comment")
	}
	s.invalidatePost(ctx, comment.PostID)
	return comment, nil
}

// Delete removes a comment and, for a top-level one, its replies. Allowed
// for the author and for admins.
func (s *CommentService) Delete(ctx context.Context, caller ginblog.AuthContext, id string) error {
	comment, err := s.comments.FindById(ctx, id)
	if err != nil {
		return notFound(err, "comment")
	}
	if comment.UserID != caller.UserID {
		isAdmin := caller.HasRole(ginblog.RoleAdmin)
		if !isAdmin {
			isAdmin, err = s.admins.IsAdmin(ctx, caller.UserID, caller.UserEmail)
			if err != nil {
				return fmt.Errorf("failed to check admin status: %w", err)
			}
		}
		if !isAdmin {
			return ginblog.ErrForbidden
		}
	}

	if _, err := s.comments.DeleteThread(ctx, comment.ID); err != nil {
		return fmt.Errorf("failed to delete comment %s: %w", comment.ID, err)
	}
	s.invalidatePost(ctx, comment.PostID)
	return nil
}

func (s *CommentService) invalidatePost(ctx context.Context, postID string) {
	post, err := s.posts.FindById(ctx, postID)
	if err != nil {
		return
	}
	invalidate(ctx, s.cache, CommentsTag(post.Slug))
}

// BuildThreads groups a flat comment list into top-level threads. Top-level
// comments and each reply group are ordered newest first; replies whose
// parent is missing are dropped.
func BuildThreads(comments []model.Comment) []model.CommentThread {
	replies := make(map[string][]model.Comment)
	threads := make([]model.CommentThread, 0)
	for _, c := range comments {
		if c.IsReply() {
			replies[c.ParentID] = append(replies[c.ParentID], c)
			continue
		}
		threads = append(threads, model.CommentThread{Comment: c})
	}

	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].CreatedAt.After(threads[j].CreatedAt)
	})
	for i := range threads {
		group := replies[threads[i].ID]
		sort.SliceStable(group, func(a, b int) bool {
			return group[a].CreatedAt.After(group[b].CreatedAt)
		})
		if group == nil {
			group = []model.Comment{}
		}
		threads[i].Replies = group
	}
	return threads
}

func publishedPost(ctx context.Context, posts PostLookup, slug string) (model.Post, error) {
	post, err := posts.FindBySlug(ctx, slug)
	if err != nil {
		return model.Post{}, notFound(err, "post")
	}
	if !post.Published {
		return model.Post{}, ginblog.ErrNotFound.New("post")
	}
	return post, nil
}

func displayName(caller ginblog.AuthContext) string {
	if caller.Name != "" {
		return caller.Name
	}
	if name, _, ok := strings.Cut(caller.UserEmail, "@"); ok && name != "" {
		return name
	}
	return "Anonymous"
}
