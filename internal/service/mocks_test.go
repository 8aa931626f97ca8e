package service

import (
	"context"
	"sync"
	"time"

	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockPostStore struct {
	mock.Mock
}

func (m *MockPostStore) Save(ctx context.Context, post model.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockPostStore) Update(ctx context.Context, post model.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockPostStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPostStore) FindById(ctx context.Context, id string) (model.Post, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *MockPostStore) FindBySlug(ctx context.Context, slug string) (model.Post, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *MockPostStore) SlugTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	args := m.Called(ctx, slug, exceptID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostStore) FindPublished(ctx context.Context, tag string, page ginblog.PageRequest) (ginblog.PageResponse[model.Post], error) {
	args := m.Called(ctx, tag, page)
	return args.Get(0).(ginblog.PageResponse[model.Post]), args.Error(1)
}

func (m *MockPostStore) FindAllPosts(ctx context.Context) ([]model.Post, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Post), args.Error(1)
}

func (m *MockPostStore) PublishedTags(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPostStore) FindImageReferences(ctx context.Context) ([]model.Post, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Post), args.Error(1)
}

type MockCommentStore struct {
	mock.Mock
}

func (m *MockCommentStore) Save(ctx context.Context, comment model.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *MockCommentStore) Update(ctx context.Context, comment model.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *MockCommentStore) FindById(ctx context.Context, id string) (model.Comment, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Comment), args.Error(1)
}

func (m *MockCommentStore) FindByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).([]model.Comment), args.Error(1)
}

func (m *MockCommentStore) DeleteThread(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

type MockAdminChecker struct {
	mock.Mock
}

func (m *MockAdminChecker) IsAdmin(ctx context.Context, uid, email string) (bool, error) {
	args := m.Called(ctx, uid, email)
	return args.Bool(0), args.Error(1)
}

type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) Save(ctx context.Context, profile model.UserProfile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *MockProfileStore) Update(ctx context.Context, profile model.UserProfile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *MockProfileStore) FindById(ctx context.Context, uid string) (model.UserProfile, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).(model.UserProfile), args.Error(1)
}

func (m *MockProfileStore) SetAdmin(ctx context.Context, uid string, isAdmin bool) (model.UserProfile, error) {
	args := m.Called(ctx, uid, isAdmin)
	return args.Get(0).(model.UserProfile), args.Error(1)
}

type MockAdminStore struct {
	mock.Mock
}

func (m *MockAdminStore) SaveOrUpdate(ctx context.Context, marker model.AdminMarker) error {
	return m.Called(ctx, marker).Error(0)
}

func (m *MockAdminStore) Delete(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAdminStore) IsAdminEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdminStore) FindAllAdmins(ctx context.Context) ([]model.AdminMarker, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.AdminMarker), args.Error(1)
}

// recordingCache remembers invalidated tags.
type recordingCache struct {
	mu   sync.Mutex
	tags []string
}

func (c *recordingCache) Set(context.Context, string, []byte, []string, time.Duration) error {
	return nil
}

func (c *recordingCache) Get(context.Context, string) ([]byte, error) {
	return nil, nil
}

func (c *recordingCache) Invalidate(_ context.Context, tags ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags = append(c.tags, tags...)
	return nil
}

func (c *recordingCache) Tags() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.tags...)
}

type forgetfulCache struct {
	all int
}

func (c *forgetfulCache) ForgetAll() {
	c.all++
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
