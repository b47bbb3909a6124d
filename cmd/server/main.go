package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"task-service/internal/config"
	"task-service/internal/handler"
	"task-service/internal/repository"
	"task-service/internal/repository/memory"
	"task-service/internal/repository/postgres"
	"task-service/internal/service"
	"task-service/pkg/jwt"
	"task-service/pkg/password"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Env)

	// Initialize repositories
	var userRepo repository.UserRepository
	var taskRepo repository.TaskRepository

	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := postgres.Migrate(context.Background(), pool); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			os.Exit(1)
		}

		userRepo = postgres.NewUserRepository(pool)
		taskRepo = postgres.NewTaskRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		users := memory.NewUserRepository()
		userRepo = users
		taskRepo = memory.NewTaskRepository(users)
	}

	// Initialize utilities
	tokenManager := jwt.NewManager(cfg.JWTSecret, cfg.JWTExpiration)
	passwordHasher := password.NewHasher()

	// Initialize services
	authService := service.NewAuthService(userRepo, tokenManager, passwordHasher, logger)
	taskService := service.NewTaskService(taskRepo, userRepo, logger)
	userService := service.NewUserService(userRepo, logger)

	// Initialize HTTP server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	if cfg.ClientURL != "" {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{cfg.ClientURL},
		}))
	}

	handler.RegisterRoutes(e,
		handler.NewMiddleware(authService),
		handler.NewAuthHandler(authService, logger),
		handler.NewTaskHandler(taskService, logger),
		handler.NewUserHandler(userService, logger),
	)

	logger.Info("Starting task service", "port", cfg.Port, "env", cfg.Env)
	if err := e.Start(":" + cfg.Port); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func setupLogger(env string) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case "development":
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	default:
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	return logger
}
