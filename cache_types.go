package ginblog

import "time"

// CacheEntry is a cached response body together with the tags it is
// invalidated by.
type CacheEntry struct {
	Key       string    `bson:"_id" dynamodbav:"-"`
	Data      []byte    `bson:"data" dynamodbav:"data"`
	Tags      []string  `bson:"tags,omitempty" dynamodbav:"tags,stringset,omitempty"`
	ExpiresAt time.Time `bson:"expiresAt" dynamodbav:"-"`
	CreatedAt time.Time `bson:"createdAt" dynamodbav:"-"`
}

func (CacheEntry) GetCollectionName() string {
	return "cache_entries"
}

func (e CacheEntry) IsExpired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

const (
	CachePartitionPrefix = "CACHE#"
	TagPartitionPrefix   = "TAG#"
	CacheSortKey         = "DATA"
)
