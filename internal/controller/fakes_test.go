package controller

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/klass-lk/ginblog/internal/model"
	"go.mongodb.org/mongo-driver/mongo"
)

// memoryCache is a CacheService that honours entry lifetimes.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	tags      []string
	expiresAt time.Time
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]memoryEntry)}
}

func (c *memoryCache) Set(_ context.Context, key string, data []byte, tags []string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{data: slices.Clone(data), tags: tags, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	return entry.data, nil
}

func (c *memoryCache) Invalidate(_ context.Context, tags ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		for _, tag := range tags {
			if slices.Contains(entry.tags, tag) {
				delete(c.entries, key)
				break
			}
		}
	}
	return nil
}

type announcementStore []model.Announcement

func (s announcementStore) Save(context.Context, model.Announcement) error   { return nil }
func (s announcementStore) Update(context.Context, model.Announcement) error { return nil }
func (s announcementStore) Delete(context.Context, string) error             { return nil }

func (s announcementStore) FindById(_ context.Context, id string) (model.Announcement, error) {
	for _, a := range s {
		if a.ID == id {
			return a, nil
		}
	}
	return model.Announcement{}, mongo.ErrNoDocuments
}

func (s announcementStore) FindCurrent(_ context.Context, now time.Time) ([]model.Announcement, error) {
	var out []model.Announcement
	for _, a := range s {
		if a.Published && (a.EndDate == nil || !a.EndDate.Before(now)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s announcementStore) FindAllAnnouncements(context.Context) ([]model.Announcement, error) {
	return s, nil
}

type postsBySlug map[string]model.Post

func (p postsBySlug) FindById(_ context.Context, id string) (model.Post, error) {
	for _, post := range p {
		if post.ID == id {
			return post, nil
		}
	}
	return model.Post{}, mongo.ErrNoDocuments
}

func (p postsBySlug) FindBySlug(_ context.Context, slug string) (model.Post, error) {
	post, ok := p[slug]
	if !ok {
		return model.Post{}, mongo.ErrNoDocuments
	}
	return post, nil
}

type commentStore struct {
	mu       sync.Mutex
	comments map[string]model.Comment
}

func newCommentStore(comments ...model.Comment) *commentStore {
	s := &commentStore{comments: make(map[string]model.Comment)}
	for _, c := range comments {
		s.comments[c.ID] = c
	}
	return s
}

func (s *commentStore) Save(_ context.Context, c model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[c.ID] = c
	return nil
}

func (s *commentStore) Update(ctx context.Context, c model.Comment) error {
	return s.Save(ctx, c)
}

func (s *commentStore) FindById(_ context.Context, id string) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return model.Comment{}, mongo.ErrNoDocuments
	}
	return c, nil
}

func (s *commentStore) FindByPost(_ context.Context, postID string) ([]model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *commentStore) DeleteThread(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, c := range s.comments {
		if c.ID == id || c.ParentID == id {
			delete(s.comments, key)
			n++
		}
	}
	return n, nil
}
