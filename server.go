package ginblog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Runtime string

const (
	RuntimeLambda Runtime = "lambda"
	RuntimeHTTP   Runtime = "http"

	shutdownTimeout = 10 * time.Second
)

type Server struct {
	engine      *gin.Engine
	runtime     Runtime
	basePath    string
	corsConfig  *cors.Config
	fileService FileService
	metrics     *Metrics
}

func New() *Server {
	runtime := RuntimeHTTP
	if os.Getenv("LAMBDA_RUNTIME") == "true" {
		runtime = RuntimeLambda
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger())

	return &Server{
		engine:  engine,
		runtime: runtime,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// SetBasePath prefixes every group created afterwards.
func (s *Server) SetBasePath(basePath string) *Server {
	s.basePath = basePath
	return s
}

func (s *Server) BasePath() string {
	return s.basePath
}

func (s *Server) BindFileService(fileService FileService) *Server {
	s.fileService = fileService
	return s
}

func (s *Server) SetRuntime(runtime Runtime) {
	s.runtime = runtime
}

// EnableMetrics installs the request instrumentation middleware and exposes
// the collected series on path under the base path. Call it after
// SetBasePath and before registering routes.
func (s *Server) EnableMetrics(path string) *Server {
	s.metrics = NewMetrics()
	s.engine.Use(s.metrics.Middleware())
	s.engine.GET(s.basePath+path, gin.WrapH(s.metrics.Handler()))
	return s
}

// ServeFiles exposes a local directory, used when images are stored on disk.
func (s *Server) ServeFiles(relativePath, root string) *Server {
	s.engine.Static(relativePath, root)
	return s
}

func (s *Server) Start(port int) error {
	if s.runtime == RuntimeLambda {
		return s.startLambda()
	}
	return s.startHTTP(port)
}

func (s *Server) startHTTP(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) startLambda() error {
	ginLambda := ginadapter.New(s.engine)

	handler := func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return ginLambda.ProxyWithContext(ctx, req)
	}

	lambda.Start(handler)
	return nil
}

func (s *Server) WithCORS(config *cors.Config) *Server {
	s.corsConfig = config
	s.engine.Use(cors.New(*config))
	return s
}

func (s *Server) DefaultCORS() *Server {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.MaxAge = 12 * time.Hour
	return s.WithCORS(&config)
}

func (s *Server) CustomCORS(allowOrigins []string, allowMethods []string, allowHeaders []string, maxAge time.Duration) *Server {
	config := cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: allowMethods,
		AllowHeaders: allowHeaders,
		MaxAge:       maxAge,
	}
	return s.WithCORS(&config)
}
