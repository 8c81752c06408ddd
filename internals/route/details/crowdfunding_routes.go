// file: internals/route/details/crowdfunding_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"

	DonationRoute "galangdana_backend/internals/features/donations/donations/route"
	ProjectRoute "galangdana_backend/internals/features/projects/projects/route"
)

func CrowdfundingPublicRoutes(r fiber.Router, d *Deps) {
	ProjectRoute.ProjectPublicRoutes(r, d.Projects)
	DonationRoute.DonationPublicRoutes(r, d.Donations)
}

func CrowdfundingUserRoutes(r fiber.Router, d *Deps) {
	ProjectRoute.ProjectUserRoutes(r, d.Projects)
	DonationRoute.DonationUserRoutes(r, d.Donations)
}

func CrowdfundingAdminRoutes(r fiber.Router, d *Deps) {
	ProjectRoute.ProjectAdminRoutes(r, d.Projects)
}
