package controller

import (
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/model"
	"github.com/klass-lk/ginblog/internal/service"
)

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 1 << 20

type ImageController struct {
	images *service.ImageService
	guards Guards
}

func NewImageController(images *service.ImageService, guards Guards) *ImageController {
	return &ImageController{images: images, guards: guards}
}

func (c *ImageController) Register(group *ginblog.ControllerGroup) {
	admin := group.Group("/admin/images", c.guards.admin()...)
	{
		admin.GET("", c.List)
		admin.POST("", c.Upload)
		admin.DELETE("/:id", c.Delete)
	}
}

func (c *ImageController) List(ctx *ginblog.Context) ([]model.Image, error) {
	return c.images.List(ctx.Request.Context())
}

// Upload expects a multipart form with the file in the "image" field.
func (c *ImageController) Upload(ctx *ginblog.Context) (ginblog.StatusResponse, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return ginblog.StatusResponse{}, err
	}

	maxSize := c.images.MaxSize()
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxSize+multipartOverhead)
	header, err := ctx.FormFile("image")
	if err != nil {
		return ginblog.StatusResponse{}, ginblog.ErrBadRequest.New("multipart field \"image\" is required: " + err.Error())
	}
	if header.Size > maxSize {
		return ginblog.StatusResponse{}, ginblog.ErrBadRequest.New(fmt.Sprintf("image exceeds %s", humanize.IBytes(uint64(maxSize))))
	}

	file, err := header.Open()
	if err != nil {
		return ginblog.StatusResponse{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	img, err := c.images.Upload(ctx.Request.Context(), auth, header.Filename, file)
	if err != nil {
		return ginblog.StatusResponse{}, err
	}
	return ginblog.Created(img), nil
}

func (c *ImageController) Delete(ctx *ginblog.Context) error {
	return c.images.Delete(ctx.Request.Context(), ctx.Param("id"))
}
