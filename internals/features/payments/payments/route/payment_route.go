package route

import (
	"github.com/gofiber/fiber/v2"

	"galangdana_backend/internals/features/payments/payments/controller"
)

// PaymentPublicRoutes dipasang di /api/public (JWT opsional).
// Donasi guest dibayar tanpa login, donasi milik user dicek di controller.
func PaymentPublicRoutes(r fiber.Router, h *controller.PaymentController) {
	payments := r.Group("/payments")
	payments.Post("/webhook", h.PaymentWebhook)

	payments.Post("/invoice", h.CreateInvoice)
	payments.Post("/virtual-account", h.CreateVirtualAccount)
	payments.Post("/ewallet", h.CreateEwallet)

	payments.Get("/:id", h.GetPayment)
	payments.Get("/:id/qr", h.GetPaymentQR)
	payments.Post("/:id/cancel", h.CancelPayment)

	r.Get("/donations/:id/payments", h.ListByDonation)
}

// PaymentAdminRoutes dipasang di /api/a (admin only).
func PaymentAdminRoutes(r fiber.Router, h *controller.PaymentController) {
	payments := r.Group("/payments")
	payments.Get("/events", h.ListGatewayEvents)
	payments.Post("/:id/sync", h.SyncPayment)
}
