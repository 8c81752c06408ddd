// file: internals/route/index.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"galangdana_backend/internals/constants"
	"galangdana_backend/internals/logger"
	"galangdana_backend/internals/middlewares"
	authMiddleware "galangdana_backend/internals/middlewares/auth"
	routeDetails "galangdana_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB, secret string, deps *routeDetails.Deps) {
	startTime = time.Now()

	BaseRoutes(app, db)

	// ===================== GROUPS =====================

	// PUBLIC → JWT opsional (donasi guest, webhook gateway)
	logger.Info("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public", authMiddleware.OptionalAuth(secret))
	chargeLimiter := middlewares.ChargeRateLimiter()
	public.Use("/donations", chargeLimiter)
	public.Use("/payments", chargeLimiter)

	// PRIVATE (USER)
	logger.Info("[INFO] Setting up PRIVATE group...")
	private := app.Group("/api/u", authMiddleware.AuthMiddleware(secret))

	// ADMIN
	logger.Info("[INFO] Setting up ADMIN group...")
	admin := app.Group("/api/a",
		authMiddleware.AuthMiddleware(secret),
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("ini"), constants.AdminOnly...),
	)

	// ===================== MOUNT ROUTES =====================

	logger.Info("[INFO] Mounting Crowdfunding routes...")
	routeDetails.CrowdfundingPublicRoutes(public, deps)
	routeDetails.CrowdfundingUserRoutes(private, deps)
	routeDetails.CrowdfundingAdminRoutes(admin, deps)

	logger.Info("[INFO] Mounting Finance routes...")
	routeDetails.FinancePublicRoutes(public, deps)
	routeDetails.FinanceUserRoutes(private, deps)
	routeDetails.FinanceAdminRoutes(admin, deps)
}
