package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"todo-be/internal/cache"
	"todo-be/internal/config"
	"todo-be/internal/controllers"
	"todo-be/internal/database"
	"todo-be/internal/jwt"
	"todo-be/internal/middleware"
	"todo-be/internal/repository"
	"todo-be/internal/service"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	log.Info("starting todo service", slog.String("env", cfg.Env))

	ctx := context.Background()

	// Connect to database
	db, err := database.NewConnection(ctx, cfg.DB)
	if err != nil {
		log.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Run database migrations
	if err := database.RunMigrations(ctx, db); err != nil {
		log.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize Redis cache (optional - continue if Redis is unavailable)
	var listCache *cache.TodoListCache
	if cfg.RedisURL != "" {
		cacheClient, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("failed to connect to redis, continuing without cache", slog.Any("error", err))
		} else {
			defer cacheClient.Close()
			listCache = cache.NewTodoListCache(cacheClient, cfg.CacheTTL)
			log.Info("connected to redis cache")
		}
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	todoRepo := repository.NewTodoRepository(db)

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, log)
	todoService := service.NewTodoService(todoRepo, listCache, log)

	if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(routerDeps{
		log:            log,
		db:             db,
		tokens:         jwtService,
		authController: controllers.NewAuthController(authService),
		todoController: controllers.NewTodoController(todoService),
		requestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.Any("error", err))
		return
	}

	log.Info("server stopped")
}

// pinger is the part of *sql.DB the health check needs.
type pinger interface {
	PingContext(ctx context.Context) error
}

type routerDeps struct {
	log            *slog.Logger
	db             pinger
	tokens         middleware.TokenValidator
	authController *controllers.AuthController
	todoController *controllers.TodoController
	requestTimeout time.Duration
}

func setupRouter(deps routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.log))
	router.Use(middleware.Timeout(deps.requestTimeout))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := deps.db.PingContext(c.Request.Context()); err != nil {
			deps.log.Error("health check failed", slog.Any("error", err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", deps.authController.Register)
			auth.POST("/login", deps.authController.Login)
		}

		// Protected routes - require JWT authentication
		todos := api.Group("/todos")
		todos.Use(middleware.AuthMiddleware(deps.tokens, deps.log))
		{
			todos.POST("", deps.todoController.Create)
			todos.GET("", deps.todoController.List)
			todos.GET("/:id", deps.todoController.Get)
			todos.PUT("/:id", deps.todoController.Update)
			todos.DELETE("/:id", deps.todoController.Delete)
		}
	}

	return router
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case config.EnvDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
