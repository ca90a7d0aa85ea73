package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/work-marketplace/backend/internal/config"
	"github.com/work-marketplace/backend/internal/db"
	"github.com/work-marketplace/backend/internal/events"
	apphttp "github.com/work-marketplace/backend/internal/http"
	"github.com/work-marketplace/backend/internal/http/handlers"
	"github.com/work-marketplace/backend/internal/repositories"
	"github.com/work-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	contractRepo := repositories.NewContractRepo(pool)
	milestoneRepo := repositories.NewMilestoneRepo(pool)
	transactionRepo := repositories.NewTransactionRepo(pool)
	profileRepo := repositories.NewProfileRepo(pool)
	adminActionRepo := repositories.NewAdminActionRepo(pool)
	violationRepo := repositories.NewViolationRepo(pool)
	disputeRepo := repositories.NewDisputeRepo(pool)
	reviewRepo := repositories.NewReviewRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	contractService := services.NewContractService(contractRepo, milestoneRepo, transactionRepo, profileRepo, reviewRepo, disputeRepo, auditRepo, publisher, cfg, log)
	milestoneService := services.NewMilestoneService(contractRepo, milestoneRepo, transactionRepo, profileRepo, auditRepo, publisher, cfg, log)
	adminService := services.NewAdminService(contractRepo, profileRepo, violationRepo, disputeRepo, adminActionRepo, auditRepo, milestoneService, publisher, cfg, log)

	// Handlers
	profileHandler := handlers.NewProfileHandler(userRepo, profileRepo, violationRepo, reviewRepo, log)
	contractHandler := handlers.NewContractHandler(contractService, log)
	milestoneHandler := handlers.NewMilestoneHandler(milestoneService, log)
	adminHandler := handlers.NewAdminHandler(adminService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, profileHandler, contractHandler, milestoneHandler, adminHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
