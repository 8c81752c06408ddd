package route

import (
	"github.com/gofiber/fiber/v2"

	"galangdana_backend/internals/features/donations/donations/controller"
)

func DonationPublicRoutes(r fiber.Router, h *controller.DonationController) {
	r.Post("/donations", h.Create)
	r.Get("/donations/:id", h.Get)
	r.Get("/projects/:id/donations", h.ListByProject)
}

func DonationUserRoutes(r fiber.Router, h *controller.DonationController) {
	r.Get("/donations/mine", h.ListMine)
}
