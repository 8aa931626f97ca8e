package controller

import (
	"time"

	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/dto"
	"github.com/klass-lk/ginblog/internal/model"
	"github.com/klass-lk/ginblog/internal/service"
)

type AnnouncementController struct {
	announcements *service.AnnouncementService
	guards        Guards
	cache         ResponseCache
}

func NewAnnouncementController(announcements *service.AnnouncementService, guards Guards, cache ResponseCache) *AnnouncementController {
	return &AnnouncementController{announcements: announcements, guards: guards, cache: cache}
}

func (c *AnnouncementController) Register(group *ginblog.ControllerGroup) {
	group.GET("/announcements", c.Active, c.cache.tagged(ginblog.StaticTags(service.TagAnnouncements)))

	admin := group.Group("/admin/announcements", c.guards.admin()...)
	{
		admin.GET("", c.ListAll)
		admin.POST("", c.Create)
		admin.PUT("/:id", c.Update)
		admin.DELETE("/:id", c.Delete)
	}
}

func (c *AnnouncementController) Active(ctx *ginblog.Context) ([]model.Announcement, error) {
	active, next, err := c.announcements.Active(ctx.Request.Context())
	if err != nil {
		return nil, err
	}
	if !next.IsZero() {
		ginblog.SetCacheTTL(ctx.Context, time.Until(next))
	}
	return active, nil
}

func (c *AnnouncementController) ListAll(ctx *ginblog.Context) ([]model.Announcement, error) {
	return c.announcements.ListAll(ctx.Request.Context())
}

func (c *AnnouncementController) Create(ctx *ginblog.Context, req dto.AnnouncementRequest) (ginblog.StatusResponse, error) {
	a, err := c.announcements.Create(ctx.Request.Context(), req)
	if err != nil {
		return ginblog.StatusResponse{}, err
	}
	return ginblog.Created(a), nil
}

func (c *AnnouncementController) Update(ctx *ginblog.Context, req dto.AnnouncementRequest) (model.Announcement, error) {
	return c.announcements.Update(ctx.Request.Context(), ctx.Param("id"), req)
}

func (c *AnnouncementController) Delete(ctx *ginblog.Context) error {
	return c.announcements.Delete(ctx.Request.Context(), ctx.Param("id"))
}
