package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymdesk/internal/config"
	"gymdesk/internal/db"
	"gymdesk/internal/email"
	"gymdesk/internal/jobs"
	"gymdesk/internal/logger"
	"gymdesk/internal/mealplan"
	"gymdesk/internal/member"
	"gymdesk/internal/owner"
	"gymdesk/internal/server"

	"github.com/redis/go-redis/v9"
)

// @title GymDesk API
// @version 1.0
// @description Gym owner API: members, subscriptions, payments and meal plans.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting GymDesk API")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatalf("Failed to connect to redis: %v", err)
	}

	emailService := email.New(rdb, email.Settings{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		SMTPHost: cfg.SMTPHost,
		SMTPPort: cfg.SMTPPort,
		SMTPUser: cfg.SMTPUser,
		SMTPPass: cfg.SMTPPass,
	})
	go emailService.Start(ctx)

	generator, err := mealplan.NewOpenAIGenerator(mealplan.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), cfg.OpenAIModel)
	if err != nil {
		logger.Fatalf("Failed to build meal plan generator: %v", err)
	}
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY is empty; meal plan generation will fail")
	}

	if cfg.JobsEnabled {
		owners := owner.NewRepository(database)
		ownerService := owner.NewService(owners, nil, nil, cfg.JWTSecret)
		memberService := member.NewService(member.NewRepository(database), owners, generator, cfg.RenewalDebtPolicy)

		scheduler := jobs.NewScheduler(jobs.NewJobs(memberService, ownerService, owners, emailService))
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				logger.Errorf("Scheduler error: %v", err)
			}
		}()
	}

	srv := server.New(cfg, server.Deps{
		DB:        database,
		Redis:     rdb,
		Email:     emailService,
		Generator: generator,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
