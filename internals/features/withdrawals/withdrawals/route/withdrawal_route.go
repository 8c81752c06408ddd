package route

import (
	"github.com/gofiber/fiber/v2"

	"galangdana_backend/internals/features/withdrawals/withdrawals/controller"
)

func WithdrawalPublicRoutes(r fiber.Router, h *controller.WithdrawalController) {
	r.Post("/withdrawals/webhook", h.DisbursementWebhook)
}

// WithdrawalUserRoutes: pemilik project (fundraiser).
func WithdrawalUserRoutes(r fiber.Router, h *controller.WithdrawalController) {
	r.Get("/projects/:id/withdrawals/eligibility", h.CheckEligibility)
	r.Get("/projects/:id/withdrawals/stats", h.ProjectStats)

	w := r.Group("/withdrawals")
	w.Post("/", h.Create)
	w.Get("/", h.ListMine)
	w.Get("/:id", h.GetByID)
	w.Post("/:id/cancel", h.Cancel)
}

func WithdrawalAdminRoutes(r fiber.Router, h *controller.WithdrawalController) {
	w := r.Group("/withdrawals")
	w.Get("/", h.ListAdmin)
	w.Get("/:id", h.GetByID)
	w.Post("/:id/approval", h.Approval)
	w.Post("/:id/process", h.Process)
	w.Post("/:id/sync", h.Sync)
	w.Post("/:id/cancel", h.Cancel)
	r.Get("/projects/:id/withdrawals/stats", h.ProjectStats)
}
