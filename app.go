package main

import (
	"fmt"
	"time"

	"blogapi/internal/config"
	"blogapi/internal/handlers"
	"blogapi/internal/middleware"
	"blogapi/internal/models"
	"blogapi/internal/repositories"
	"blogapi/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// App bundles the HTTP server with the components main needs after startup.
type App struct {
	Fiber     *fiber.App
	Auth      *services.AuthService
	Blogposts *services.BlogpostService
	UserRepo  repositories.UserRepository
	PostRepo  repositories.BlogpostRepository

	db *gorm.DB
}

// NewApp wires repositories, services and routes. publisher may be nil.
func NewApp(cfg *config.Config, log *zap.Logger, publisher services.EventPublisher) (*App, error) {
	a := &App{}

	var users repositories.UserRepository
	switch cfg.DatabaseDriver {
	case config.DriverMemory:
		memUsers := repositories.NewMemoryUserRepository()
		users = memUsers
		a.PostRepo = repositories.NewMemoryBlogpostRepository(memUsers)
	default:
		db, err := openDatabase(cfg)
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&models.User{}, &models.Blogpost{}); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		a.db = db
		users = repositories.NewGORMUserRepository(db)
		a.PostRepo = repositories.NewGORMBlogpostRepository(db)
	}
	a.UserRepo = repositories.NewCachedUserRepository(users, cfg.UserCacheTTL)

	a.Auth = services.NewAuthService(a.UserRepo, cfg.JWTSecret, cfg.JWTTTL, log)
	a.Blogposts = services.NewBlogpostService(a.PostRepo, publisher, log)

	app := fiber.New(fiber.Config{
		// Route params are handed to the stores, so they must not alias request buffers.
		Immutable:    true,
		ErrorHandler: handlers.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	apiV1 := app.Group("/api/v1", middleware.Authenticate(a.Auth))
	protect := middleware.RequireUser()
	handlers.NewBlogpostHandler(a.Blogposts).RegisterRoutes(apiV1, protect)
	handlers.NewAuthHandler().RegisterRoutes(apiV1, protect)

	a.Fiber = app
	return a, nil
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseDSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.DatabaseDriver, err)
	}
	return db, nil
}
