package route

import (
	"github.com/gofiber/fiber/v2"

	"galangdana_backend/internals/features/payments/reconciliation/controller"
)

func ReconciliationAdminRoutes(r fiber.Router, h *controller.ReconciliationController) {
	g := r.Group("/reconciliation")
	g.Get("/status", h.Status)
	g.Post("/full", h.Full)
	g.Post("/incremental", h.Incremental)
	g.Post("/expire", h.Expire)
	g.Post("/disbursements", h.Disbursements)
}
