package route

import (
	"github.com/gofiber/fiber/v2"

	"galangdana_backend/internals/features/projects/projects/controller"
)

func ProjectPublicRoutes(r fiber.Router, h *controller.ProjectController) {
	g := r.Group("/projects")
	g.Get("/", h.List)
	g.Get("/:id", h.Get)
}

func ProjectUserRoutes(r fiber.Router, h *controller.ProjectController) {
	g := r.Group("/projects")
	g.Get("/mine", h.ListMine)
	g.Post("/", h.Create)
	g.Patch("/:id", h.Update)
	g.Delete("/:id", h.Delete)
}

func ProjectAdminRoutes(r fiber.Router, h *controller.ProjectController) {
	g := r.Group("/projects")
	g.Patch("/:id/status", h.SetStatus)
	g.Delete("/:id", h.Delete)
	g.Post("/sweep", h.Sweep)
}
