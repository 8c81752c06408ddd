package model

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentStatus string
type PaymentMethod string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusExpired   PaymentStatus = "EXPIRED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

const (
	PaymentMethodInvoice        PaymentMethod = "INVOICE"
	PaymentMethodVirtualAccount PaymentMethod = "VIRTUAL_ACCOUNT"
	PaymentMethodEwallet        PaymentMethod = "EWALLET"
	PaymentMethodCard           PaymentMethod = "CARD"
)

// IsTerminal: PAID, EXPIRED, FAILED, CANCELLED tidak boleh berpindah status lagi.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusExpired, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

type PaymentModel struct {
	PaymentID         uint64  `gorm:"column:payment_id;primaryKey;autoIncrement" json:"payment_id"`
	PaymentDonationID uint64  `gorm:"column:payment_donation_id;not null;index" json:"payment_donation_id"`
	PaymentExternalID string  `gorm:"column:payment_external_id;type:varchar(100);not null;uniqueIndex" json:"payment_external_id"`
	PaymentGatewayID  *string `gorm:"column:payment_gateway_id;type:varchar(120)" json:"payment_gateway_id,omitempty"`
	PaymentProvider   string  `gorm:"column:payment_provider;type:varchar(20);not null" json:"payment_provider"`

	PaymentAmount   int64         `gorm:"column:payment_amount;not null" json:"payment_amount"`
	PaymentCurrency string        `gorm:"column:payment_currency;type:varchar(8);not null;default:'IDR'" json:"payment_currency"`
	PaymentMethod   PaymentMethod `gorm:"column:payment_method;type:varchar(20);not null" json:"payment_method"`
	PaymentStatus   PaymentStatus `gorm:"column:payment_status;type:varchar(20);not null;default:'PENDING';index" json:"payment_status"`

	// field per metode
	PaymentURL            *string `gorm:"column:payment_url;type:text" json:"payment_url,omitempty"`
	PaymentVirtualAccount *string `gorm:"column:payment_virtual_account;type:varchar(40)" json:"payment_virtual_account,omitempty"`
	PaymentBankCode       *string `gorm:"column:payment_bank_code;type:varchar(20)" json:"payment_bank_code,omitempty"`
	PaymentEwalletType    *string `gorm:"column:payment_ewallet_type;type:varchar(20)" json:"payment_ewallet_type,omitempty"`

	PaymentPaidAt        *time.Time     `gorm:"column:payment_paid_at" json:"payment_paid_at,omitempty"`
	PaymentExpiredAt     *time.Time     `gorm:"column:payment_expired_at;index" json:"payment_expired_at,omitempty"`
	PaymentFailureReason *string        `gorm:"column:payment_failure_reason;type:text" json:"payment_failure_reason,omitempty"`
	PaymentWebhookData   datatypes.JSON `gorm:"column:payment_webhook_data;type:jsonb" json:"payment_webhook_data,omitempty"`
	PaymentGatewayData   datatypes.JSON `gorm:"column:payment_gateway_data;type:jsonb" json:"payment_gateway_data,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime;index" json:"updated_at"`
}

func (PaymentModel) TableName() string {
	return "payments"
}

func (p *PaymentModel) IsTerminal() bool {
	return p.PaymentStatus.IsTerminal()
}
