package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/work-marketplace/backend/internal/metrics"
	"github.com/work-marketplace/backend/internal/rbac"
)

// RequirePermission gates a route on the caller's role. Admins pass
// regardless; contract-party checks stay in the services.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rbac.IsSettlementOperation(permission) {
			metrics.SettlementRequestsTotal.WithLabelValues(permission).Inc()
		}
		if IsAdmin(c) {
			return c.Next()
		}
		if !rbac.HasPermission(GetRole(c), permission) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient permissions"})
		}
		return c.Next()
	}
}
