// Package rest exposes the identity service over HTTP using gin.
//
// Routes, relative to the configured prefix (default /api/auth):
//
//	POST {prefix}/register   create an account, returns a token
//	POST {prefix}/login      authenticate, returns a token
//	GET  {prefix}/health     liveness
//	GET  {prefix}/me         account behind the Bearer token
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
	corsMaxAge        = 12 * time.Hour
)

// UserService is the business logic behind the routes.
type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Resolve(ctx context.Context, token string) (*models.User, error)
}

type Server struct {
	address     string
	logger      logging.Logger
	users       UserService
	serviceName string
	prefix      string
	origins     []string
	engine      *gin.Engine
}

type Option func(*Server)

// WithAllowedOrigins enables CORS for the given origins. "*" allows any
// origin. Without origins no CORS headers are sent.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

func NewServer(a string, l logging.Logger, us UserService, serviceName, prefix string, opts ...Option) *Server {
	s := &Server{
		address:     a,
		logger:      l.With("module", "http_server"),
		users:       us,
		serviceName: serviceName,
		prefix:      prefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.initRouter()
	return s
}

func (s *Server) initRouter() *gin.Engine {
	engine := gin.New()
	engine.Use(s.requestLogger(), gin.CustomRecovery(s.recovered))
	if len(s.origins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:  s.origins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        corsMaxAge,
		}))
	}

	api := engine.Group(s.prefix)
	api.POST("/register", s.register)
	api.POST("/login", s.login)
	api.GET("/health", s.health)
	api.GET("/me", s.requireToken(), s.me)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return engine
}

// Handler returns the router, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address, "prefix", s.prefix)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
