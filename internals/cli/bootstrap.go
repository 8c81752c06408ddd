package cli

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"galangdana_backend/internals/configs"
	database "galangdana_backend/internals/databases"
	donationController "galangdana_backend/internals/features/donations/donations/controller"
	donationService "galangdana_backend/internals/features/donations/donations/service"
	"galangdana_backend/internals/features/payments/gateway"
	paymentController "galangdana_backend/internals/features/payments/payments/controller"
	paymentService "galangdana_backend/internals/features/payments/payments/service"
	reconController "galangdana_backend/internals/features/payments/reconciliation/controller"
	reconService "galangdana_backend/internals/features/payments/reconciliation/service"
	projectController "galangdana_backend/internals/features/projects/projects/controller"
	projectService "galangdana_backend/internals/features/projects/projects/service"
	withdrawalController "galangdana_backend/internals/features/withdrawals/withdrawals/controller"
	withdrawalService "galangdana_backend/internals/features/withdrawals/withdrawals/service"
	"galangdana_backend/internals/logger"
	routeDetails "galangdana_backend/internals/route/details"
)

// container: koneksi + service yang dipakai bersama oleh semua command.
type container struct {
	cfg    *configs.AppConfig
	db     *gorm.DB
	gw     gateway.Gateway
	locker *database.AdvisoryLocker

	projects       *projectService.ProjectService
	donations      *donationService.DonationService
	payments       *paymentService.PaymentService
	events         *paymentService.EventLog
	withdrawals    *withdrawalService.WithdrawalService
	reconciliation *reconService.ReconciliationService
}

func bootstrap(ctx context.Context) (*container, error) {
	cfg := configs.LoadEnv()
	logger.Setup(cfg.Log.Level, cfg.Log.Output, cfg.Log.File)

	db, err := database.ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	database.TunePool(db)

	gw, err := gateway.New(cfg.Gateway)
	if err != nil {
		database.Close(db)
		return nil, fmt.Errorf("init gateway: %w", err)
	}
	logger.Info("[INFO] payment gateway: %s", gw.Provider())

	c := &container{cfg: cfg, db: db, gw: gw}
	c.projects = projectService.NewProjectService(db)
	c.donations = donationService.NewDonationService(db)
	c.payments = paymentService.NewPaymentService(db, gw, cfg.Payment)
	c.events = paymentService.NewEventLog(db)
	c.withdrawals = withdrawalService.NewWithdrawalService(db, gw)
	c.reconciliation = reconService.NewReconciliationService(db, c.payments, c.withdrawals, cfg.Reconcile.Workers)

	if cfg.Reconcile.AdvisoryLock {
		locker, err := database.NewAdvisoryLocker(ctx, database.BuildDSN(cfg.Database))
		if err != nil {
			c.close()
			return nil, fmt.Errorf("advisory locker: %w", err)
		}
		c.locker = locker
		c.reconciliation.WithLocker(locker)
	}
	return c, nil
}

func (c *container) deps() *routeDetails.Deps {
	return &routeDetails.Deps{
		Projects:       projectController.NewProjectController(c.projects),
		Donations:      donationController.NewDonationController(c.donations),
		Payments:       paymentController.NewPaymentController(c.payments, c.events),
		Reconciliation: reconController.NewReconciliationController(c.reconciliation, c.cfg.Reconcile.IncrementalHoursBack),
		Withdrawals:    withdrawalController.NewWithdrawalController(c.withdrawals, c.gw, c.events),
	}
}

func (c *container) close() {
	if c.locker != nil {
		c.locker.Close()
	}
	database.Close(c.db)
	logger.Sync()
}
