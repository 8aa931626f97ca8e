package controller

import (
	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/dto"
	"github.com/klass-lk/ginblog/internal/model"
	"github.com/klass-lk/ginblog/internal/service"
)

type PostController struct {
	posts  *service.PostService
	guards Guards
	cache  ResponseCache
}

func NewPostController(posts *service.PostService, guards Guards, cache ResponseCache) *PostController {
	return &PostController{posts: posts, guards: guards, cache: cache}
}

func (c *PostController) Register(group *ginblog.ControllerGroup) {
	cached := c.cache.tagged(ginblog.StaticTags(service.TagPosts))
	group.GET("/posts", c.List, cached)
	group.GET("/posts/:slug", c.Get, cached)
	group.GET("/tags", c.Tags, cached)

	admin := group.Group("/admin/posts", c.guards.admin()...)
	{
		admin.GET("", c.ListAll)
		admin.POST("", c.Create)
		admin.GET("/:id", c.GetByID)
		admin.PUT("/:id", c.Update)
		admin.DELETE("/:id", c.Delete)
	}
}

func (c *PostController) List(ctx *ginblog.Context, query dto.PostQuery) (ginblog.PageResponse[model.Post], error) {
	page, err := ctx.GetPageRequest()
	if err != nil {
		return ginblog.PageResponse[model.Post]{}, err
	}
	return c.posts.ListPublished(ctx.Request.Context(), query.Tag, page)
}

func (c *PostController) Get(ctx *ginblog.Context) (model.PostDetail, error) {
	return c.posts.GetPublished(ctx.Request.Context(), ctx.Param("slug"))
}

func (c *PostController) Tags(ctx *ginblog.Context) (dto.TagsResponse, error) {
	tags, err := c.posts.Tags(ctx.Request.Context())
	return dto.TagsResponse{Tags: tags}, err
}

func (c *PostController) ListAll(ctx *ginblog.Context) ([]model.Post, error) {
	return c.posts.ListAll(ctx.Request.Context())
}

func (c *PostController) GetByID(ctx *ginblog.Context) (model.PostDetail, error) {
	return c.posts.Get(ctx.Request.Context(), ctx.Param("id"))
}

func (c *PostController) Create(ctx *ginblog.Context, req dto.PostRequest) (ginblog.StatusResponse, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return ginblog.StatusResponse{}, err
	}
	post, err := c.posts.Create(ctx.Request.Context(), author(auth), req)
	if err != nil {
		return ginblog.StatusResponse{}, err
	}
	return ginblog.Created(post), nil
}

func (c *PostController) Update(ctx *ginblog.Context, req dto.PostRequest) (model.Post, error) {
	return c.posts.Update(ctx.Request.Context(), ctx.Param("id"), req)
}

func (c *PostController) Delete(ctx *ginblog.Context) error {
	return c.posts.Delete(ctx.Request.Context(), ctx.Param("id"))
}
