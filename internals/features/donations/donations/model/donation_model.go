package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "PENDING"
	DonationStatusPaid      DonationStatus = "PAID"
	DonationStatusExpired   DonationStatus = "EXPIRED"
	DonationStatusFailed    DonationStatus = "FAILED"
	DonationStatusCancelled DonationStatus = "CANCELLED"
)

const AnonymousDonorName = "Hamba Allah"

type DonationModel struct {
	DonationID        uint64     `gorm:"column:donation_id;primaryKey;autoIncrement" json:"donation_id"`
	DonationProjectID uint64     `gorm:"column:donation_project_id;not null;index" json:"donation_project_id"`
	DonationUserID    *uuid.UUID `gorm:"column:donation_user_id;type:uuid;index" json:"donation_user_id,omitempty"`

	// nominal dalam satuan terkecil (rupiah), tidak berubah setelah dibuat
	DonationAmount      int64   `gorm:"column:donation_amount;not null" json:"donation_amount"`
	DonationIsAnonymous bool    `gorm:"column:donation_is_anonymous;not null;default:false" json:"donation_is_anonymous"`
	DonationDonorName   string  `gorm:"column:donation_donor_name;type:varchar(120);not null" json:"donation_donor_name"`
	DonationMessage     *string `gorm:"column:donation_message;type:text" json:"donation_message,omitempty"`

	DonationPaymentStatus DonationStatus `gorm:"column:donation_payment_status;type:varchar(20);not null;default:'PENDING';index" json:"donation_payment_status"`
	DonationPaymentMethod *string        `gorm:"column:donation_payment_method;type:varchar(30)" json:"donation_payment_method,omitempty"`
	DonationPaidAt        *time.Time     `gorm:"column:donation_paid_at" json:"donation_paid_at,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (DonationModel) TableName() string {
	return "donations"
}

func (d *DonationModel) IsSettled() bool {
	return d.DonationPaymentStatus == DonationStatusPaid
}
