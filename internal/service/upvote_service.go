package service

import (
	"context"

	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/model"
)

type UpvoteStore interface {
	Toggle(ctx context.Context, postID, userID string) (model.UpvoteState, error)
	HasUpvoted(ctx context.Context, postID, userID string) (bool, error)
}

type UpvoteService struct {
	upvotes UpvoteStore
	posts   PostLookup
	cache   ginblog.CacheService
}

func NewUpvoteService(upvotes UpvoteStore, posts PostLookup, cache ginblog.CacheService) *UpvoteService {
	return &UpvoteService{upvotes: upvotes, posts: posts, cache: cache}
}

// Toggle flips the caller's upvote on a published post.
func (s *UpvoteService) Toggle(ctx context.Context, userID, slug string) (model.UpvoteState, error) {
	post, err := publishedPost(ctx, s.posts, slug)
	if err != nil {
		return model.UpvoteState{}, err
	}
	state, err := s.upvotes.Toggle(ctx, post.ID, userID)
	if err != nil {
		return model.UpvoteState{}, notFound(err, "post")
	}
	invalidate(ctx, s.cache, TagPosts)
	return state, nil
}

func (s *UpvoteService) State(ctx context.Context, userID, slug string) (model.UpvoteState, error) {
	post, err := publishedPost(ctx, s.posts, slug)
	if err != nil {
		return model.UpvoteState{}, err
	}
	upvoted, err := s.upvotes.HasUpvoted(ctx, post.ID, userID)
	if err != nil {
		return model.UpvoteState{}, err
	}
	return model.UpvoteState{Upvoted: upvoted, Upvotes: post.Upvotes}, nil
}
