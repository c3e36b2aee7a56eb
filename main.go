package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"blogapi/internal/config"
	applog "blogapi/internal/logger"
	"blogapi/internal/models"
	"blogapi/internal/seed"
	"blogapi/internal/services"
	"blogapi/pkg/rabbitmq"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := applog.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Events are optional; the service skips publishing when no broker is set.
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			logger.Fatal("failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close()
		publisher = mqClient

		err = mqClient.ConsumeBlogpostEvents(func(event models.BlogpostEvent) error {
			logger.Info("received blogpost event",
				zap.String("type", event.Type),
				zap.String("id", event.BlogpostID),
				zap.Time("occurredAt", event.OccurredAt))
			return nil
		})
		if err != nil {
			logger.Error("failed to start RabbitMQ consumer", zap.Error(err))
		}
	}

	app, err := NewApp(cfg, logger, publisher)
	if err != nil {
		logger.Fatal("failed to create app", zap.Error(err))
	}
	defer app.Close()

	if cfg.SeedOnStart {
		if err := seedData(context.Background(), app, cfg, logger); err != nil {
			logger.Fatal("failed to seed data", zap.Error(err))
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", zap.String("port", cfg.AppPort))
		if err := app.Fiber.Listen(cfg.AppPort); err != nil {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")
	if err := app.Fiber.Shutdown(); err != nil {
		logger.Error("error during fiber shutdown", zap.Error(err))
	}
	logger.Info("server gracefully stopped")
}

func seedData(ctx context.Context, app *App, cfg *config.Config, logger *zap.Logger) error {
	result, err := seed.NewSeeder(app.UserRepo, app.PostRepo, nil, logger).Run(ctx)
	if err != nil {
		return err
	}
	if !cfg.SeedPrintTokens {
		return nil
	}
	for _, user := range result.Users {
		token, err := app.Auth.IssueToken(user.Username)
		if err != nil {
			return err
		}
		logger.Info("seeded user token", zap.String("username", user.Username), zap.String("token", token))
	}
	return nil
}
