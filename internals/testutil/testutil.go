// Package testutil menyediakan database sqlite in-memory dan fixture untuk test service.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	database "galangdana_backend/internals/databases"
	donationModel "galangdana_backend/internals/features/donations/donations/model"
	paymentModel "galangdana_backend/internals/features/payments/payments/model"
	projectModel "galangdana_backend/internals/features/projects/projects/model"
	withdrawalModel "galangdana_backend/internals/features/withdrawals/withdrawals/model"
)

// Now: jam tetap untuk test (UTC).
var Now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func Clock() time.Time { return Now }

// NewDB membuka sqlite in-memory terisolasi per test, satu koneksi.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func CreateProject(t *testing.T, db *gorm.DB, fundraiser uuid.UUID, mutate ...func(*projectModel.ProjectModel)) *projectModel.ProjectModel {
	t.Helper()
	p := &projectModel.ProjectModel{
		ProjectTitle:        "Bantu Renovasi Masjid",
		ProjectDescription:  "renovasi atap",
		ProjectImages:       projectModel.ImageList{},
		ProjectTargetAmount: 10_000_000,
		ProjectStartDate:    Now.Add(-7 * 24 * time.Hour),
		ProjectEndDate:      Now.Add(30 * 24 * time.Hour),
		ProjectStatus:       projectModel.ProjectStatusActive,
		ProjectFundraiserID: fundraiser,
	}
	for _, fn := range mutate {
		fn(p)
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

func CreateDonation(t *testing.T, db *gorm.DB, projectID uint64, amount int64, status donationModel.DonationStatus) *donationModel.DonationModel {
	t.Helper()
	d := &donationModel.DonationModel{
		DonationProjectID:     projectID,
		DonationAmount:        amount,
		DonationDonorName:     "Donatur",
		DonationPaymentStatus: status,
	}
	if status == donationModel.DonationStatusPaid {
		paid := Now
		d.DonationPaidAt = &paid
	}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("create donation: %v", err)
	}
	return d
}

func CreatePayment(t *testing.T, db *gorm.DB, donationID uint64, amount int64, status paymentModel.PaymentStatus, mutate ...func(*paymentModel.PaymentModel)) *paymentModel.PaymentModel {
	t.Helper()
	exp := Now.Add(24 * time.Hour)
	p := &paymentModel.PaymentModel{
		PaymentDonationID: donationID,
		PaymentExternalID: fmt.Sprintf("donation-%d-%s", donationID, uuid.NewString()[:8]),
		PaymentProvider:   "mock",
		PaymentAmount:     amount,
		PaymentCurrency:   "IDR",
		PaymentMethod:     paymentModel.PaymentMethodInvoice,
		PaymentStatus:     status,
		PaymentExpiredAt:  &exp,
	}
	for _, fn := range mutate {
		fn(p)
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create payment: %v", err)
	}
	return p
}

func CreateWithdrawal(t *testing.T, db *gorm.DB, projectID uint64, userID uuid.UUID, amount int64, status withdrawalModel.WithdrawalStatus, mutate ...func(*withdrawalModel.WithdrawalModel)) *withdrawalModel.WithdrawalModel {
	t.Helper()
	bank, code, acc, holder := "Bank Central Asia", "BCA", "1234567890", "Fundraiser"
	w := &withdrawalModel.WithdrawalModel{
		WithdrawalUserID:            userID,
		WithdrawalProjectID:         projectID,
		WithdrawalAmount:            amount,
		WithdrawalAvailable:         amount,
		WithdrawalCurrency:          "IDR",
		WithdrawalMethod:            withdrawalModel.WithdrawalMethodGatewayDisbursement,
		WithdrawalStatus:            status,
		WithdrawalNetAmount:         amount,
		WithdrawalBankName:          &bank,
		WithdrawalBankCode:          &code,
		WithdrawalAccountNumber:     &acc,
		WithdrawalAccountHolderName: &holder,
		WithdrawalRequestedAt:       Now,
	}
	for _, fn := range mutate {
		fn(w)
	}
	if err := db.Create(w).Error; err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}
	return w
}
