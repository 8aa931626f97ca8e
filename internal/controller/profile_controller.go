package controller

import (
	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/dto"
	"github.com/klass-lk/ginblog/internal/model"
	"github.com/klass-lk/ginblog/internal/service"
)

type ProfileController struct {
	profiles *service.ProfileService
	guards   Guards
}

func NewProfileController(profiles *service.ProfileService, guards Guards) *ProfileController {
	return &ProfileController{profiles: profiles, guards: guards}
}

func (c *ProfileController) Register(group *ginblog.ControllerGroup) {
	group.GET("/profiles/:uid", c.Public)

	me := group.Group("/me", c.guards.Auth)
	me.GET("", c.Me)
	me.PUT("", c.UpdateMe)

	admin := group.Group("/admin", c.guards.admin()...)
	{
		admin.PUT("/profiles/:uid/admin", c.SetAdmin)
		admin.GET("/admins", c.ListAdmins)
		admin.POST("/admins", c.AddAdmin)
		admin.DELETE("/admins/:email", c.RemoveAdmin)
	}
}

func (c *ProfileController) Public(ctx *ginblog.Context) (model.UserProfile, error) {
	return c.profiles.Public(ctx.Request.Context(), ctx.Param("uid"))
}

func (c *ProfileController) Me(ctx *ginblog.Context) (model.UserProfile, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return model.UserProfile{}, err
	}
	return c.profiles.Me(ctx.Request.Context(), auth)
}

func (c *ProfileController) UpdateMe(ctx *ginblog.Context, req dto.ProfileUpdate) (model.UserProfile, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return model.UserProfile{}, err
	}
	return c.profiles.UpdateMe(ctx.Request.Context(), auth, req)
}

func (c *ProfileController) SetAdmin(ctx *ginblog.Context, req dto.AdminFlagRequest) (model.UserProfile, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return model.UserProfile{}, err
	}
	return c.profiles.SetAdmin(ctx.Request.Context(), auth, ctx.Param("uid"), req.IsAdmin)
}

func (c *ProfileController) ListAdmins(ctx *ginblog.Context) ([]model.AdminMarker, error) {
	return c.profiles.ListAdminEmails(ctx.Request.Context())
}

func (c *ProfileController) AddAdmin(ctx *ginblog.Context, req dto.AdminEmailRequest) (ginblog.StatusResponse, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return ginblog.StatusResponse{}, err
	}
	marker, err := c.profiles.AddAdminEmail(ctx.Request.Context(), auth, req.Email)
	if err != nil {
		return ginblog.StatusResponse{}, err
	}
	return ginblog.Created(marker), nil
}

func (c *ProfileController) RemoveAdmin(ctx *ginblog.Context) error {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return err
	}
	return c.profiles.RemoveAdminEmail(ctx.Request.Context(), auth, ctx.Param("email"))
}
