package controller

import (
	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/model"
	"github.com/klass-lk/ginblog/internal/service"
)

type UpvoteController struct {
	upvotes *service.UpvoteService
	guards  Guards
}

func NewUpvoteController(upvotes *service.UpvoteService, guards Guards) *UpvoteController {
	return &UpvoteController{upvotes: upvotes, guards: guards}
}

func (c *UpvoteController) Register(group *ginblog.ControllerGroup) {
	protected := group.Group("/posts/:slug/upvote", c.guards.Auth)
	protected.GET("", c.State)
	protected.POST("", c.Toggle)
}

func (c *UpvoteController) Toggle(ctx *ginblog.Context) (model.UpvoteState, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return model.UpvoteState{}, err
	}
	return c.upvotes.Toggle(ctx.Request.Context(), auth.UserID, ctx.Param("slug"))
}

func (c *UpvoteController) State(ctx *ginblog.Context) (model.UpvoteState, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return model.UpvoteState{}, err
	}
	return c.upvotes.State(ctx.Request.Context(), auth.UserID, ctx.Param("slug"))
}
