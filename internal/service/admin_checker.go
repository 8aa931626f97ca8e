package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Yiling-J/theine-go"
	"github.com/klass-lk/ginblog/internal/model"
	"go.mongodb.org/mongo-driver/mongo"
)

const adminCacheSize = 1000

type ProfileFinder interface {
	FindById(ctx context.Context, uid string) (model.UserProfile, error)
}

type AdminEmails interface {
	IsAdminEmail(ctx context.Context, email string) (bool, error)
}

// CachedAdminChecker decides whether a caller is an admin, either through
// the profile flag or an admin marker for their email. Decisions are kept
// in memory for ttl.
type CachedAdminChecker struct {
	profiles   ProfileFinder
	emails     AdminEmails
	ttl        time.Duration
	generation atomic.Uint64
	cache      *theine.LoadingCache[string, bool]
}

func NewAdminChecker(profiles ProfileFinder, emails AdminEmails, ttl time.Duration) (*CachedAdminChecker, error) {
	checker := &CachedAdminChecker{profiles: profiles, emails: emails, ttl: ttl}
	cache, err := theine.NewBuilder[string, bool](adminCacheSize).BuildWithLoader(checker.load)
	if err != nil {
		return nil, fmt.Errorf("could not build admin cache: %w", err)
	}
	checker.cache = cache
	return checker, nil
}

func (c *CachedAdminChecker) IsAdmin(ctx context.Context, uid, email string) (bool, error) {
	if uid == "" {
		return false, nil
	}
	return c.cache.Get(ctx, c.key(c.generation.Load(), uid, email))
}

// ForgetAll starts a new key generation; old entries age out on their own.
func (c *CachedAdminChecker) ForgetAll() {
	c.generation.Add(1)
}

func (c *CachedAdminChecker) key(gen uint64, uid, email string) string {
	return strconv.FormatUint(gen, 10) + "\x00" + uid + "\x00" + model.NormalizeEmail(email)
}

func (c *CachedAdminChecker) load(ctx context.Context, key string) (theine.Loaded[bool], error) {
	parts := strings.SplitN(key, "\x00", 3)
	if len(parts) != 3 {
		return theine.Loaded[bool]{}, fmt.Errorf("malformed admin cache key")
	}
	uid, email := parts[1], parts[2]

	isAdmin, err := c.lookup(ctx, uid, email)
	if err != nil {
		return theine.Loaded[bool]{}, err
	}
	return theine.Loaded[bool]{Value: isAdmin, Cost: 1, TTL: c.ttl}, nil
}

func (c *CachedAdminChecker) lookup(ctx context.Context, uid, email string) (bool, error) {
	profile, err := c.profiles.FindById(ctx, uid)
	switch {
	case err == nil && profile.IsAdmin:
		return true, nil
	case err != nil && !errors.Is(err, mongo.ErrNoDocuments):
		return false, fmt.Errorf("failed to load profile %s: %w", uid, err)
	}
	if email == "" {
		return false, nil
	}
	return c.emails.IsAdminEmail(ctx, email)
}
