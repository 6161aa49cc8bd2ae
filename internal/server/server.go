// Package server contains the HTTP handlers of the read-only feed API.
package server

import (
	"context"
	"log"
	"time"

	"feedengine/internal/config"
	"feedengine/internal/middleware"
	"feedengine/internal/models"
	"feedengine/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	engine         *service.Engine
}

// New creates a Server around an engine built by the caller. redisClient
// may be nil.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, engine *service.Engine) *Server {
	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("feedengine-api"),
		engine:         engine,
	}
}

// NewServerWithDeps creates a Server over already-initialized dependencies
// and builds the engine from cfg.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	engine := service.NewEngine(service.NewStores(db), service.Options{
		Location:   loc,
		QuickLimit: cfg.SearchQuickLimit,
		TopLimit:   cfg.SearchTopLimit,
	})
	return New(cfg, db, redisClient, engine), nil
}

// App builds the Fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Feed Engine API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			return respondError(c, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.Viewer())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, X-Viewer-ID, X-Request-ID",
		MaxAge:       86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/timeline", s.GetTimeline)

	users := api.Group("/users")
	users.Get("/:id/likes", s.GetUserLikes)
	users.Get("/:id/linked", s.GetUserLinked)

	api.Get("/comments/:id/tree", s.GetCommentTree)

	content := api.Group("/content")
	content.Get("/:kind/:id/likers", s.GetLikers)
	content.Get("/:kind/:id/reposters", s.GetReposters)

	search := api.Group("/search", middleware.RateLimit(
		s.redis, s.config.SearchRateLimit, time.Minute, "search", middleware.FailOpen))
	search.Get("/", s.SearchTop)
	search.Get("/quick", s.SearchQuick)
	search.Get("/users", s.SearchUsers)
	search.Get("/posts", s.SearchPosts)
	search.Get("/comments", s.SearchComments)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports the database and Redis state. Redis is optional,
// so only an unreachable database makes the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and blocks serving on the configured port.
func (s *Server) Start() error {
	app := s.App()
	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and drains in-flight ones. The caller
// owns the database and Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app == nil {
		return nil
	}
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return err
	}
	log.Println("Server shutdown complete")
	return nil
}
