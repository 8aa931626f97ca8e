// Package controller maps HTTP routes onto the services.
package controller

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/model"
)

// Guards are the middleware protecting authenticated and admin routes.
// Admin runs after Auth.
type Guards struct {
	Auth  gin.HandlerFunc
	Admin gin.HandlerFunc
}

func (g Guards) admin() []gin.HandlerFunc {
	return []gin.HandlerFunc{g.Auth, g.Admin}
}

// ResponseCache caches public GET responses.
type ResponseCache struct {
	Service ginblog.CacheService
	TTL     time.Duration
}

func (rc ResponseCache) tagged(tags ginblog.TagGenerator) gin.HandlerFunc {
	service := rc.Service
	if service == nil {
		service = ginblog.NoopCacheService{}
	}
	return ginblog.CacheMiddleware(service, rc.TTL, tags, nil)
}

func author(auth ginblog.AuthContext) model.Author {
	return model.Author{
		UID:   auth.UserID,
		Name:  auth.Name,
		Email: auth.UserEmail,
		Image: auth.Picture,
	}
}
