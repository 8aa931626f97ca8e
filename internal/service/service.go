// Package service holds the blog's business rules on top of the repositories.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/klass-lk/ginblog"
	"go.mongodb.org/mongo-driver/mongo"
)

// Cache tags attached to cached responses and invalidated on writes.
const (
	TagPosts         = "posts"
	TagAnnouncements = "announcements"
)

func CommentsTag(slug string) string {
	return "comments:" + slug
}

// notFound turns a missing document into an API 404 for what.
func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ginblog.ErrNotFound.New(what)
	}
	return err
}

// invalidate drops cached responses. Failures only leave stale entries
// until their TTL, so they are logged and swallowed.
func invalidate(ctx context.Context, cache ginblog.CacheService, tags ...string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, tags...); err != nil {
		slog.WarnContext(ctx, "Cache invalidation failed", slog.Any("tags", tags), slog.Any("err", err))
	}
}
