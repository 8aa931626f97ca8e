package ginblog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCacheService keeps each entry under CACHE#<key> and the keys of a tag
// in the set TAG#<tag>.
type RedisCacheService struct {
	rdb *redis.Client
}

func NewRedisCacheService(rdb *redis.Client) *RedisCacheService {
	return &RedisCacheService{rdb: rdb}
}

func (s *RedisCacheService) Set(ctx context.Context, key string, data []byte, tags []string, duration time.Duration) error {
	cacheKey := CachePartitionPrefix + key
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, cacheKey, data, duration)
		for _, tag := range tags {
			tagKey := TagPartitionPrefix + tag
			pipe.SAdd(ctx, tagKey, cacheKey)
			pipe.Expire(ctx, tagKey, duration)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return nil
}

func (s *RedisCacheService) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, CachePartitionPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisCacheService) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		tagKey := TagPartitionPrefix + tag
		keys, err := s.rdb.SMembers(ctx, tagKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to read tag %s: %w", tag, err)
		}
		keys = append(keys, tagKey)
		if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to invalidate tag %s: %w", tag, err)
		}
	}
	return nil
}
