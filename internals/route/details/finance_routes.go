// file: internals/route/details/finance_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"

	PaymentRoute "galangdana_backend/internals/features/payments/payments/route"
	ReconciliationRoute "galangdana_backend/internals/features/payments/reconciliation/route"
	WithdrawalRoute "galangdana_backend/internals/features/withdrawals/withdrawals/route"
)

// webhook gateway ikut di sini (tanpa auth, diverifikasi lewat signature)
func FinancePublicRoutes(r fiber.Router, d *Deps) {
	PaymentRoute.PaymentPublicRoutes(r, d.Payments)
	WithdrawalRoute.WithdrawalPublicRoutes(r, d.Withdrawals)
}

func FinanceUserRoutes(r fiber.Router, d *Deps) {
	WithdrawalRoute.WithdrawalUserRoutes(r, d.Withdrawals)
}

func FinanceAdminRoutes(r fiber.Router, d *Deps) {
	PaymentRoute.PaymentAdminRoutes(r, d.Payments)
	ReconciliationRoute.ReconciliationAdminRoutes(r, d.Reconciliation)
	WithdrawalRoute.WithdrawalAdminRoutes(r, d.Withdrawals)
}
