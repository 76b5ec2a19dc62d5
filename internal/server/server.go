// internal/server/server.go
// HTTP server setup with dependency injection. Grounded on the teacher's
// internal/server/server.go: gin.Engine assembled once in setupRouter,
// global middleware chain, wrapped in an *http.Server with
// Start/Shutdown.

package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"musicbattle-core/internal/actor"
	"musicbattle-core/internal/api"
	"musicbattle-core/internal/archiver"
	"musicbattle-core/internal/catalog"
	"musicbattle-core/internal/config"
	"musicbattle-core/internal/database"
	"musicbattle-core/internal/middleware"
	"musicbattle-core/internal/resolver"
	"musicbattle-core/internal/schedule"
	"musicbattle-core/internal/wsgateway"
)

// Server wraps the configured HTTP server and its dependencies.
type Server struct {
	config *config.Config
	logger *log.Logger
	server *http.Server
}

// New wires every dependency (actor Registry, MySQL archiver, Mongo
// catalog, Redis state store, schedule repository) and builds the
// configured gin.Engine.
func New(cfg *config.Config, db *database.Connections, logger *log.Logger) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	store := actor.NewRedisStore(db.Redis, logger)
	mysqlArchiver := archiver.NewMySQLArchiver(db.MySQL, logger)
	catalogRepo := catalog.NewRepository(db.MongoDB)
	scheduleRepo := schedule.NewRepository(db.MySQL)

	tunables := resolver.Tunables{
		MirrorHealthRestore: cfg.Match.MirrorHealthRestore,
		MaxDamageDigit:      cfg.Match.MaxDamageDigit,
		StandardRoundsCount: cfg.Match.StandardRoundsCount,
	}
	registry := actor.NewRegistry(
		store, mysqlArchiver, logger,
		cfg.Match.InitialHealth, tunables, actor.DefaultRNG,
		cfg.Subscriber.BufferSize, cfg.Subscriber.DropOldestOnOverflow,
	)
	gateway := &wsgateway.Gateway{Registry: registry, Logger: logger}

	router := setupRouter(cfg, logger, db, api.Dependencies{
		Registry: registry,
		Archiver: mysqlArchiver,
		Catalog:  catalogRepo,
		Schedule: scheduleRepo,
		Gateway:  gateway,
		Config:   cfg,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{config: cfg, logger: logger, server: srv}
}

func setupRouter(cfg *config.Config, logger *log.Logger, db *database.Connections, deps api.Dependencies) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimiter(db.Redis, 100, time.Minute))

	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", api.HealthCheck(cfg))

	api.RegisterRoutes(router, deps)

	return router
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Println("shutting down server...")
	return s.server.Shutdown(ctx)
}
