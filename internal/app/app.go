// Package app wires configuration, storage backends, services and
// controllers into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/config"
	"github.com/klass-lk/ginblog/internal/controller"
	"github.com/klass-lk/ginblog/internal/imaging"
	"github.com/klass-lk/ginblog/internal/markdown"
	"github.com/klass-lk/ginblog/internal/middleware"
	"github.com/klass-lk/ginblog/internal/repository"
	"github.com/klass-lk/ginblog/internal/service"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Deps are the external resources the HTTP layer is built on.
type Deps struct {
	Config   config.Config
	DB       *mongo.Database
	Cache    ginblog.CacheService
	Files    ginblog.FileService
	Verifier ginblog.TokenVerifier
}

type App struct {
	cfg     config.Config
	server  *ginblog.Server
	db      *mongo.Database
	closers []closer
}

// New connects every backend named in cfg and builds the server.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := ginblog.NewMongoConfig().
		WithURI(cfg.Mongo.URI).
		WithHost(cfg.Mongo.Host, cfg.Mongo.Port).
		WithCredentials(cfg.Mongo.Username, cfg.Mongo.Password).
		WithDatabase(cfg.Mongo.Database).
		Connect(ctx)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, db: db}
	a.closers = append(a.closers, func(ctx context.Context) error {
		return db.Client().Disconnect(ctx)
	})

	cache, closeCache, err := newCache(ctx, cfg.Cache, db)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.closers = append(a.closers, closeCache)

	files, err := newFileService(ctx, cfg.Storage)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.server, err = Build(ctx, Deps{
		Config:   cfg,
		DB:       db,
		Cache:    cache,
		Files:    files,
		Verifier: verifier,
	})
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	slog.Info("Application ready",
		slog.String("database", cfg.Mongo.Database),
		slog.String("cache", cfg.Cache.Backend),
		slog.String("storage", cfg.Storage.Backend),
		slog.String("auth", cfg.Auth.Provider),
	)
	return a, nil
}

func (a *App) Server() *ginblog.Server {
	return a.server
}

func (a *App) Run() error {
	return a.server.Start(a.cfg.Server.Port)
}

// Close releases backends in reverse order of creation.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Build creates indexes, seeds configured admins and registers every route.
func Build(ctx context.Context, deps Deps) (*ginblog.Server, error) {
	cfg := deps.Config

	posts := repository.NewPostRepository(deps.DB)
	comments := repository.NewCommentRepository(deps.DB)
	announcements := repository.NewAnnouncementRepository(deps.DB)
	profiles := repository.NewProfileRepository(deps.DB)
	admins := repository.NewAdminRepository(deps.DB)
	images := repository.NewImageRepository(deps.DB)
	upvotes := repository.NewUpvoteRepository(deps.DB)

	if err := posts.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create post indexes: %w", err)
	}
	if err := comments.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create comment indexes: %w", err)
	}

	adminChecker, err := service.NewAdminChecker(profiles, admins, cfg.Auth.AdminCacheTTL.Duration)
	if err != nil {
		return nil, err
	}
	postService := service.NewPostService(posts, markdown.NewRenderer(), deps.Cache)
	commentService := service.NewCommentService(comments, posts, adminChecker, deps.Cache)
	upvoteService := service.NewUpvoteService(upvotes, posts, deps.Cache)
	announcementService := service.NewAnnouncementService(announcements, deps.Cache)
	profileService := service.NewProfileService(profiles, admins, adminChecker)
	imageService := service.NewImageService(images, posts, deps.Files, imaging.Options{
		MaxWidth:  cfg.Images.MaxWidth,
		Quality:   cfg.Images.Quality,
		MaxPixels: cfg.Images.MaxPixels,
	}, cfg.Images.MaxUploadBytes)

	if err := profileService.SeedAdmins(ctx, cfg.Auth.AdminEmails); err != nil {
		return nil, err
	}

	server := ginblog.New().
		SetBasePath(cfg.Server.BasePath).
		BindFileService(deps.Files)
	if cfg.Server.Lambda {
		server.SetRuntime(ginblog.RuntimeLambda)
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		server.CustomCORS(cfg.Server.CORSOrigins,
			[]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			[]string{"Origin", "Content-Type", "Authorization"},
			12*time.Hour)
	} else {
		server.DefaultCORS()
	}
	if cfg.Server.Metrics {
		server.EnableMetrics(cfg.Server.MetricsPath)
	}
	if cfg.Storage.Backend == "local" && strings.HasPrefix(cfg.Storage.PublicURL, "/") {
		server.ServeFiles(cfg.Storage.PublicURL, cfg.Storage.LocalDir)
	}

	guards := controller.Guards{
		Auth:  middleware.Authenticate(deps.Verifier),
		Admin: middleware.RequireAdmin(adminChecker),
	}
	responseCache := controller.ResponseCache{Service: deps.Cache, TTL: cfg.Cache.TTL.Duration}

	root := server.Group("")
	for _, c := range []ginblog.Controller{
		controller.NewHealthController(mongoPinger{db: deps.DB}),
		controller.NewPostController(postService, guards, responseCache),
		controller.NewCommentController(commentService, guards, responseCache),
		controller.NewUpvoteController(upvoteService, guards),
		controller.NewAnnouncementController(announcementService, guards, responseCache),
		controller.NewProfileController(profileService, guards),
		controller.NewImageController(imageService, guards),
		controller.NewCacheController(deps.Cache, guards),
	} {
		c.Register(root)
	}
	return server, nil
}

type mongoPinger struct {
	db *mongo.Database
}

func (p mongoPinger) Ping(ctx context.Context) error {
	return p.db.Client().Ping(ctx, readpref.Primary())
}
