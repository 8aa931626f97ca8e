package service

import (
	"context"
	"testing"

	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

type MockUpvoteStore struct {
	mock.Mock
}

func (m *MockUpvoteStore) Toggle(ctx context.Context, postID, userID string) (model.UpvoteState, error) {
	args := m.Called(ctx, postID, userID)
	return args.Get(0).(model.UpvoteState), args.Error(1)
}

func (m *MockUpvoteStore) HasUpvoted(ctx context.Context, postID, userID string) (bool, error) {
	args := m.Called(ctx, postID, userID)
	return args.Bool(0), args.Error(1)
}

func TestUpvoteService(t *testing.T) {
	ctx := context.Background()
	post := model.Post{ID: "p1", Slug: "hello", Published: true, Upvotes: 4}

	t.Run("toggle", func(t *testing.T) {
		upvotes := new(MockUpvoteStore)
		posts := new(MockPostStore)
		cache := &recordingCache{}
		posts.On("FindBySlug", ctx, "hello").Return(post, nil)
		upvotes.On("Toggle", ctx, "p1", "u1").Return(model.UpvoteState{Upvoted: true, Upvotes: 5}, nil)

		state, err := NewUpvoteService(upvotes, posts, cache).Toggle(ctx, "u1", "hello")
		require.NoError(t, err)
		assert.Equal(t, model.UpvoteState{Upvoted: true, Upvotes: 5}, state)
		assert.Equal(t, []string{TagPosts}, cache.Tags())
	})

	t.Run("post removed mid toggle", func(t *testing.T) {
		upvotes := new(MockUpvoteStore)
		posts := new(MockPostStore)
		posts.On("FindBySlug", ctx, "hello").Return(post, nil)
		upvotes.On("Toggle", ctx, "p1", "u1").Return(model.UpvoteState{}, mongo.ErrNoDocuments)

		_, err := NewUpvoteService(upvotes, posts, &recordingCache{}).Toggle(ctx, "u1", "hello")
		assert.ErrorIs(t, err, ginblog.ErrNotFound)
	})

	t.Run("state", func(t *testing.T) {
		upvotes := new(MockUpvoteStore)
		posts := new(MockPostStore)
		posts.On("FindBySlug", ctx, "hello").Return(post, nil)
		upvotes.On("HasUpvoted", ctx, "p1", "u1").Return(true, nil)

		state, err := NewUpvoteService(upvotes, posts, nil).State(ctx, "u1", "hello")
		require.NoError(t, err)
		assert.Equal(t, model.UpvoteState{Upvoted: true, Upvotes: 4}, state)
	})

	t.Run("draft", func(t *testing.T) {
		posts := new(MockPostStore)
		posts.On("FindBySlug", ctx, "draft").Return(model.Post{ID: "d"}, nil)

		_, err := NewUpvoteService(new(MockUpvoteStore), posts, nil).Toggle(ctx, "u1", "draft")
		assert.ErrorIs(t, err, ginblog.ErrNotFound)
	})
}
