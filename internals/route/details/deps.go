package details

import (
	donationController "galangdana_backend/internals/features/donations/donations/controller"
	paymentController "galangdana_backend/internals/features/payments/payments/controller"
	reconciliationController "galangdana_backend/internals/features/payments/reconciliation/controller"
	projectController "galangdana_backend/internals/features/projects/projects/controller"
	withdrawalController "galangdana_backend/internals/features/withdrawals/withdrawals/controller"
)

// Deps: semua controller yang dipasang ke router.
type Deps struct {
	Projects       *projectController.ProjectController
	Donations      *donationController.DonationController
	Payments       *paymentController.PaymentController
	Reconciliation *reconciliationController.ReconciliationController
	Withdrawals    *withdrawalController.WithdrawalController
}
