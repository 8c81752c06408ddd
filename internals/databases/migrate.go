package database

import (
	"fmt"

	"gorm.io/gorm"

	donationModel "galangdana_backend/internals/features/donations/donations/model"
	paymentModel "galangdana_backend/internals/features/payments/payments/model"
	projectModel "galangdana_backend/internals/features/projects/projects/model"
	withdrawalModel "galangdana_backend/internals/features/withdrawals/withdrawals/model"
)

// Models: urutan mengikuti dependensi tabel.
func Models() []any {
	return []any{
		&projectModel.ProjectModel{},
		&donationModel.DonationModel{},
		&paymentModel.PaymentModel{},
		&paymentModel.PaymentGatewayEventModel{},
		&withdrawalModel.WithdrawalModel{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
