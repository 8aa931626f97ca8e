package ginblog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CacheService stores tagged blobs. Get returns nil, nil on a miss.
type CacheService interface {
	Set(ctx context.Context, key string, data []byte, tags []string, duration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Invalidate(ctx context.Context, tags ...string) error
}

type MongoCacheService struct {
	repo *MongoRepository[CacheEntry]
}

func NewMongoCacheService(db *mongo.Database) *MongoCacheService {
	return &MongoCacheService{repo: NewMongoRepository[CacheEntry](db)}
}

func (s *MongoCacheService) Set(ctx context.Context, key string, data []byte, tags []string, duration time.Duration) error {
	now := time.Now()
	return s.repo.SaveOrUpdate(ctx, CacheEntry{
		Key:       key,
		Data:      data,
		Tags:      tags,
		ExpiresAt: now.Add(duration),
		CreatedAt: now,
	})
}

func (s *MongoCacheService) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.repo.FindById(ctx, key)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if entry.IsExpired(time.Now()) {
		_ = s.repo.Delete(ctx, key)
		return nil, nil
	}
	return entry.Data, nil
}

// Invalidate relies on equality against an array field matching any element.
func (s *MongoCacheService) Invalidate(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	if _, err := s.repo.DeleteByFilters(ctx, bson.M{"tags": bson.M{"$in": tags}}); err != nil {
		return fmt.Errorf("failed to invalidate %v: %w", tags, err)
	}
	return nil
}

// NoopCacheService disables response caching.
type NoopCacheService struct{}

func (NoopCacheService) Set(context.Context, string, []byte, []string, time.Duration) error {
	return nil
}

func (NoopCacheService) Get(context.Context, string) ([]byte, error) {
	return nil, nil
}

func (NoopCacheService) Invalidate(context.Context, ...string) error {
	return nil
}
