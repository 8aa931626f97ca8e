package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/dto"
	"github.com/klass-lk/ginblog/internal/model"
	"github.com/klass-lk/ginblog/internal/service"
)

type CommentController struct {
	comments *service.CommentService
	guards   Guards
	cache    ResponseCache
}

func NewCommentController(comments *service.CommentService, guards Guards, cache ResponseCache) *CommentController {
	return &CommentController{comments: comments, guards: guards, cache: cache}
}

func (c *CommentController) Register(group *ginblog.ControllerGroup) {
	group.GET("/posts/:slug/comments", c.List, c.cache.tagged(func(ctx *gin.Context) []string {
		return []string{service.CommentsTag(ctx.Param("slug"))}
	}))

	protected := group.Group("", c.guards.Auth)
	{
		protected.POST("/posts/:slug/comments", c.Create)
		protected.PUT("/comments/:id", c.Update)
		protected.DELETE("/comments/:id", c.Delete)
	}
}

func (c *CommentController) List(ctx *ginblog.Context) ([]model.CommentThread, error) {
	return c.comments.Threads(ctx.Request.Context(), ctx.Param("slug"))
}

func (c *CommentController) Create(ctx *ginblog.Context, req dto.CommentRequest) (ginblog.StatusResponse, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return ginblog.StatusResponse{}, err
	}
	comment, err := c.comments.Create(ctx.Request.Context(), auth, ctx.Param("slug"), req)
	if err != nil {
		return ginblog.StatusResponse{}, err
	}
	return ginblog.Created(comment), nil
}

func (c *CommentController) Update(ctx *ginblog.Context, req dto.CommentUpdate) (model.Comment, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return model.Comment{}, err
	}
	return c.comments.Update(ctx.Request.Context(), auth, ctx.Param("id"), req)
}

func (c *CommentController) Delete(ctx *ginblog.Context) error {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return err
	}
	return c.comments.Delete(ctx.Request.Context(), auth, ctx.Param("id"))
}
