package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/dto"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db Pinger
}

func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db}
}

func (c *HealthController) Register(group *ginblog.ControllerGroup) {
	group.GET("/health", c.Health)
}

func (c *HealthController) Health(ctx *ginblog.Context) (ginblog.StatusResponse, error) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := c.db.Ping(pingCtx); err != nil {
		slog.WarnContext(ctx.Request.Context(), "Health check failed", slog.Any("err", err))
		return ginblog.StatusResponse{
			Status: http.StatusServiceUnavailable,
			Body:   dto.HealthResponse{Status: "degraded", Database: "unreachable"},
		}, nil
	}
	return ginblog.StatusResponse{
		Status: http.StatusOK,
		Body:   dto.HealthResponse{Status: "ok", Database: "ok"},
	}, nil
}
