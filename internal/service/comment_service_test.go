package service

import (
	"context"
	"testing"
	"time"

	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/dto"
	"github.com/klass-lk/ginblog/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestBuildThreads(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	at := func(minutes int) time.Time { return base.Add(time.Duration(minutes) * time.Minute) }

	comments := []model.Comment{
		{ID: "a", CreatedAt: at(0)},
		{ID: "a1", ParentID: "a", CreatedAt: at(1)},
		{ID: "b", CreatedAt: at(5)},
		{ID: "a2", ParentID: "a", CreatedAt: at(10)},
		{ID: "orphan", ParentID: "missing", CreatedAt: at(11)},
		{ID: "c", CreatedAt: at(2)},
	}

	threads := BuildThreads(comments)
	require.Len(t, threads, 3)
	assert.Equal(t, "b", threads[0].ID)
	assert.Equal(t, "c", threads[1].ID)
	assert.Equal(t, "a", threads[2].ID)

	require.Len(t, threads[2].Replies, 2)
	assert.Equal(t, "a2", threads[2].Replies[0].ID)
	assert.Equal(t, "a1", threads[2].Replies[1].ID)
	assert.NotNil(t, threads[0].Replies)
	assert.Empty(t, threads[0].Replies)

	assert.Empty(t, BuildThreads(nil))
}

type commentFixture struct {
	comments *MockCommentStore
	posts    *MockPostStore
	admins   *MockAdminChecker
	cache    *recordingCache
	service  *CommentService
}

func newCommentFixture(now time.Time) commentFixture {
	f := commentFixture{
		comments: new(MockCommentStore),
		posts:    new(MockPostStore),
		admins:   new(MockAdminChecker),
		cache:    &recordingCache{},
	}
	f.service = NewCommentService(f.comments, f.posts, f.admins, f.cache)
	f.service.now = fixedNow(now)
	return f
}

func TestCommentService_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	post := model.Post{ID: "p1", Slug: "hello", Published: true}
	caller := ginblog.AuthContext{UserID: "u1", UserEmail: "jane@example.com", Picture: "pic"}

	t.Run("top level", func(t *testing.T) {
		f := newCommentFixture(now)
		f.posts.On("FindBySlug", ctx, "hello").Return(post, nil)
		f.comments.On("Save", ctx, mock.Anything).Return(nil)

		c, err := f.service.Create(ctx, caller, "hello", dto.CommentRequest{Content: "  nice post "})
		require.NoError(t, err)
		assert.Equal(t, "nice post", c.Content)
		assert.Equal(t, "p1", c.PostID)
		assert.Equal(t, "u1", c.UserID)
		assert.Equal(t, "jane", c.Author.Name)
		assert.Equal(t, "pic", c.Author.Image)
		assert.Empty(t, c.ParentID)
		assert.Equal(t, []string{CommentsTag("hello")}, f.cache.Tags())
	})

	t.Run("reply to a reply attaches to the top level comment", func(t *testing.T) {
		f := newCommentFixture(now)
		f.posts.On("FindBySlug", ctx, "hello").Return(post, nil)
		f.comments.On("FindById", ctx, "r1").Return(model.Comment{ID: "r1", PostID: "p1", ParentID: "top"}, nil)
		f.comments.On("Save", ctx, mock.MatchedBy(func(c model.Comment) bool { return c.ParentID == "top" })).Return(nil)

		c, err := f.service.Create(ctx, caller, "hello", dto.CommentRequest{Content: "deep", ParentID: "r1"})
		require.NoError(t, err)
		assert.Equal(t, "top", c.ParentID)
		f.comments.AssertExpectations(t)
	})

	t.Run("parent on another post", func(t *testing.T) {
		f := newCommentFixture(now)
		f.posts.On("FindBySlug", ctx, "hello").Return(post, nil)
		f.comments.On("FindById", ctx, "x").Return(model.Comment{ID: "x", PostID: "other"}, nil)

		_, err := f.service.Create(ctx, caller, "hello", dto.CommentRequest{Content: "hi", ParentID: "x"})
		assert.ErrorIs(t, err, ginblog.ErrBadRequest)
	})

	t.Run("missing parent", func(t *testing.T) {
		f := newCommentFixture(now)
		f.posts.On("FindBySlug", ctx, "hello").Return(post, nil)
		f.comments.On("FindById", ctx, "x").Return(model.Comment{}, mongo.ErrNoDocuments)

		_, err := f.service.Create(ctx, caller, "hello", dto.CommentRequest{Content: "hi", ParentID: "x"})
		assert.ErrorIs(t, err, ginblog.ErrNotFound)
	})

	t.Run("draft post", func(t *testing.T) {
		f := newCommentFixture(now)
		f.posts.On("FindBySlug", ctx, "draft").Return(model.Post{ID: "d"}, nil)

		_, err := f.service.Create(ctx, caller, "draft", dto.CommentRequest{Content: "hi"})
		assert.ErrorIs(t, err, ginblog.ErrNotFound)
	})

	t.Run("blank content", func(t *testing.T) {
		f := newCommentFixture(now)
		_, err := f.service.Create(ctx, caller, "hello", dto.CommentRequest{Content: "   "})
		assert.ErrorIs(t, err, ginblog.ErrBadRequest)
	})
}

func TestCommentService_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	stored := model.Comment{ID: "c1", PostID: "p1", UserID: "author", Content: "old"}

	t.Run("author", func(t *testing.T) {
		f := newCommentFixture(now)
		f.comments.On("FindById", ctx, "c1").Return(stored, nil)
		f.comments.On("Update", ctx, mock.Anything).Return(nil)
		f.posts.On("FindById", ctx, "p1").Return(model.Post{ID: "p1", Slug: "hello"}, nil)

		c, err := f.service.Update(ctx, ginblog.AuthContext{UserID: "author"}, "c1", dto.CommentUpdate{Content: "new"})
		require.NoError(t, err)
		assert.Equal(t, "new", c.Content)
		assert.Equal(t, now, c.UpdatedAt)
		assert.Equal(t, []string{CommentsTag("hello")}, f.cache.Tags())
	})

	t.Run("someone else", func(t *testing.T) {
		f := newCommentFixture(now)
		f.comments.On("FindById", ctx, "c1").Return(stored, nil)

		_, err := f.service.Update(ctx, ginblog.AuthContext{UserID: "admin", Roles: []string{ginblog.RoleAdmin}}, "c1", dto.CommentUpdate{Content: "new"})
		assert.ErrorIs(t, err, ginblog.ErrForbidden)
		f.comments.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestCommentService_Delete(t *testing.T) {
	ctx := context.Background()
	stored := model.Comment{ID: "c1", PostID: "p1", UserID: "author"}

	t.Run("author", func(t *testing.T) {
		f := newCommentFixture(time.Now())
		f.comments.On("FindById", ctx, "c1").Return(stored, nil)
		f.comments.On("DeleteThread", ctx, "c1").Return(int64(3), nil)
		f.posts.On("FindById", ctx, "p1").Return(model.Post{ID: "p1", Slug: "hello"}, nil)

		require.NoError(t, f.service.Delete(ctx, ginblog.AuthContext{UserID: "author"}, "c1"))
		f.admins.AssertNotCalled(t, "IsAdmin", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, []string{CommentsTag("hello")}, f.cache.Tags())
	})

	t.Run("admin", func(t *testing.T) {
		f := newCommentFixture(time.Now())
		f.comments.On("FindById", ctx, "c1").Return(stored, nil)
		f.comments.On("DeleteThread", ctx, "c1").Return(int64(1), nil)
		f.posts.On("FindById", ctx, "p1").Return(model.Post{}, mongo.ErrNoDocuments)
		f.admins.On("IsAdmin", ctx, "boss", "boss@example.com").Return(true, nil)

		require.NoError(t, f.service.Delete(ctx, ginblog.AuthContext{UserID: "boss", UserEmail: "boss@example.com"}, "c1"))
		f.comments.AssertExpectations(t)
	})

	t.Run("stranger", func(t *testing.T) {
		f := newCommentFixture(time.Now())
		f.comments.On("FindById", ctx, "c1").Return(stored, nil)
		f.admins.On("IsAdmin", ctx, "x", "").Return(false, nil)

		err := f.service.Delete(ctx, ginblog.AuthContext{UserID: "x"}, "c1")
		assert.ErrorIs(t, err, ginblog.ErrForbidden)
		f.comments.AssertNotCalled(t, "DeleteThread", mock.Anything, mock.Anything)
	})

	t.Run("missing", func(t *testing.T) {
		f := newCommentFixture(time.Now())
		f.comments.On("FindById", ctx, "nope").Return(model.Comment{}, mongo.ErrNoDocuments)

		err := f.service.Delete(ctx, ginblog.AuthContext{UserID: "x"}, "nope")
		assert.ErrorIs(t, err, ginblog.ErrNotFound)
	})
}
