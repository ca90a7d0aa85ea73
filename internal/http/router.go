package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/work-marketplace/backend/internal/config"
	"github.com/work-marketplace/backend/internal/http/handlers"
	"github.com/work-marketplace/backend/internal/middleware"
	"github.com/work-marketplace/backend/internal/rbac"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	profileHandler *handlers.ProfileHandler,
	contractHandler *handlers.ContractHandler,
	milestoneHandler *handlers.MilestoneHandler,
	adminHandler *handlers.AdminHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// User / profile
	protected.Get("/me", profileHandler.GetMe)
	protected.Get("/me/profile", profileHandler.GetMyProfile)
	protected.Get("/users/:id/reviews", profileHandler.ListUserReviews)

	// Contracts
	protected.Post("/contracts", contractHandler.CreateContract)
	protected.Get("/contracts", contractHandler.ListContracts)
	protected.Get("/contracts/:id", contractHandler.GetContract)
	protected.Put("/contracts/:id", middleware.RequirePermission(rbac.PermEditContract), contractHandler.EditContract)
	protected.Post("/contracts/:id/sign", middleware.RequirePermission(rbac.PermSignContract), contractHandler.SignContract)
	protected.Post("/contracts/:id/submit-completion", middleware.RequirePermission(rbac.PermSubmitCompletion), contractHandler.SubmitCompletion)
	protected.Post("/contracts/:id/approve", middleware.RequirePermission(rbac.PermApproveCompletion), contractHandler.ApproveCompletion)
	protected.Post("/contracts/:id/reject", middleware.RequirePermission(rbac.PermRejectCompletion), contractHandler.RejectCompletion)
	protected.Put("/contracts/:id/status", contractHandler.UpdateStatus)
	protected.Post("/contracts/:id/disputes", middleware.RequirePermission(rbac.PermOpenDispute), contractHandler.OpenDispute)
	protected.Get("/contracts/:id/disputes", contractHandler.ListDisputes)
	protected.Get("/contracts/:id/transactions", contractHandler.ListTransactions)
	protected.Get("/contracts/:id/events", contractHandler.GetContractEvents)

	// Milestones
	protected.Get("/contracts/:id/milestones", contractHandler.ListMilestones)
	protected.Post("/contracts/:id/milestones/:milestoneId/submit", middleware.RequirePermission(rbac.PermSubmitCompletion), milestoneHandler.SubmitMilestone)
	protected.Post("/contracts/:id/milestones/:milestoneId/approve", middleware.RequirePermission(rbac.PermApproveMilestone), milestoneHandler.ApproveMilestone)
	protected.Post("/contracts/:id/milestones/:milestoneId/reject", middleware.RequirePermission(rbac.PermRejectMilestone), milestoneHandler.RejectMilestone)

	// Admin
	admin := protected.Group("/admin", middleware.AdminMiddleware())
	admin.Post("/actions", adminHandler.ExecuteAction)
	admin.Get("/actions", adminHandler.ListActions)
	admin.Get("/users/:id/violations", profileHandler.ListUserViolations)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
