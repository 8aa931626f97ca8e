package controller

import (
	"log/slog"

	"github.com/klass-lk/ginblog"
)

type CacheController struct {
	cacheService ginblog.CacheService
	guards       Guards
}

func NewCacheController(cacheService ginblog.CacheService, guards Guards) *CacheController {
	return &CacheController{
		cacheService: cacheService,
		guards:       guards,
	}
}

func (c *CacheController) Register(group *ginblog.ControllerGroup) {
	group.POST("/admin/cache/invalidate", c.Invalidate, c.guards.admin()...)
}

// Invalidate drops every cached response carrying the "tag" query value.
func (c *CacheController) Invalidate(ctx *ginblog.Context) error {
	tag := ctx.Query("tag")
	if tag == "" {
		return ginblog.ErrBadRequest.New("tag is required")
	}
	if err := c.cacheService.Invalidate(ctx.Request.Context(), tag); err != nil {
		return err
	}
	slog.InfoContext(ctx.Request.Context(), "Cache invalidated", slog.String("tag", tag))
	return nil
}
