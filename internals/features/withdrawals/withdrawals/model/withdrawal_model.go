package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type WithdrawalStatus string
type WithdrawalMethod string

const (
	WithdrawalStatusPending    WithdrawalStatus = "PENDING"
	WithdrawalStatusProcessing WithdrawalStatus = "PROCESSING"
	WithdrawalStatusApproved   WithdrawalStatus = "APPROVED"
	WithdrawalStatusRejected   WithdrawalStatus = "REJECTED"
	WithdrawalStatusCompleted  WithdrawalStatus = "COMPLETED"
	WithdrawalStatusFailed     WithdrawalStatus = "FAILED"
	WithdrawalStatusCancelled  WithdrawalStatus = "CANCELLED"
)

const (
	WithdrawalMethodBankTransfer        WithdrawalMethod = "BANK_TRANSFER"
	WithdrawalMethodGatewayDisbursement WithdrawalMethod = "GATEWAY_DISBURSEMENT"
	WithdrawalMethodManual              WithdrawalMethod = "MANUAL"
)

// status yang masih memegang dana project
var InFlightStatuses = []WithdrawalStatus{
	WithdrawalStatusPending,
	WithdrawalStatusProcessing,
	WithdrawalStatusApproved,
}

// ParseWithdrawalMethod menerima juga nama lama XENDIT_DISBURSEMENT.
func ParseWithdrawalMethod(s string) (WithdrawalMethod, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(WithdrawalMethodBankTransfer):
		return WithdrawalMethodBankTransfer, true
	case string(WithdrawalMethodGatewayDisbursement), "XENDIT_DISBURSEMENT":
		return WithdrawalMethodGatewayDisbursement, true
	case string(WithdrawalMethodManual):
		return WithdrawalMethodManual, true
	}
	return "", false
}

func (m WithdrawalMethod) RequiresBankAccount() bool {
	return m == WithdrawalMethodBankTransfer || m == WithdrawalMethodGatewayDisbursement
}

func (s WithdrawalStatus) IsTerminal() bool {
	switch s {
	case WithdrawalStatusCompleted, WithdrawalStatusRejected, WithdrawalStatusCancelled, WithdrawalStatusFailed:
		return true
	}
	return false
}

type WithdrawalModel struct {
	WithdrawalID        uint64           `gorm:"column:withdrawal_id;primaryKey;autoIncrement" json:"withdrawal_id"`
	WithdrawalUserID    uuid.UUID        `gorm:"column:withdrawal_user_id;type:uuid;not null;index" json:"withdrawal_user_id"`
	WithdrawalProjectID uint64           `gorm:"column:withdrawal_project_id;not null;index" json:"withdrawal_project_id"`
	WithdrawalAmount    int64            `gorm:"column:withdrawal_amount;not null" json:"withdrawal_amount"`
	WithdrawalAvailable int64            `gorm:"column:withdrawal_available_amount;not null" json:"withdrawal_available_amount"`
	WithdrawalCurrency  string           `gorm:"column:withdrawal_currency;type:varchar(8);not null;default:'IDR'" json:"withdrawal_currency"`
	WithdrawalMethod    WithdrawalMethod `gorm:"column:withdrawal_method;type:varchar(30);not null" json:"withdrawal_method"`
	WithdrawalStatus    WithdrawalStatus `gorm:"column:withdrawal_status;type:varchar(20);not null;default:'PENDING';index" json:"withdrawal_status"`

	WithdrawalProcessingFee int64 `gorm:"column:withdrawal_processing_fee;not null;default:0" json:"withdrawal_processing_fee"`
	WithdrawalNetAmount     int64 `gorm:"column:withdrawal_net_amount;not null" json:"withdrawal_net_amount"`

	WithdrawalReason     *string `gorm:"column:withdrawal_reason;type:text" json:"withdrawal_reason,omitempty"`
	WithdrawalAdminNotes *string `gorm:"column:withdrawal_admin_notes;type:text" json:"withdrawal_admin_notes,omitempty"`

	// rekening tujuan
	WithdrawalBankName          *string `gorm:"column:withdrawal_bank_name;type:varchar(100)" json:"withdrawal_bank_name,omitempty"`
	WithdrawalBankCode          *string `gorm:"column:withdrawal_bank_code;type:varchar(20)" json:"withdrawal_bank_code,omitempty"`
	WithdrawalAccountNumber     *string `gorm:"column:withdrawal_account_number;type:varchar(40)" json:"withdrawal_account_number,omitempty"`
	WithdrawalAccountHolderName *string `gorm:"column:withdrawal_account_holder_name;type:varchar(120)" json:"withdrawal_account_holder_name,omitempty"`

	WithdrawalDisbursementID   *string        `gorm:"column:withdrawal_disbursement_id;type:varchar(120);index" json:"withdrawal_disbursement_id,omitempty"`
	WithdrawalDisbursementData datatypes.JSON `gorm:"column:withdrawal_disbursement_data;type:jsonb" json:"withdrawal_disbursement_data,omitempty"`

	WithdrawalRequestedAt time.Time  `gorm:"column:withdrawal_requested_at;not null" json:"withdrawal_requested_at"`
	WithdrawalApprovedAt  *time.Time `gorm:"column:withdrawal_approved_at" json:"withdrawal_approved_at,omitempty"`
	WithdrawalProcessedAt *time.Time `gorm:"column:withdrawal_processed_at" json:"withdrawal_processed_at,omitempty"`
	WithdrawalCompletedAt *time.Time `gorm:"column:withdrawal_completed_at" json:"withdrawal_completed_at,omitempty"`
	WithdrawalRejectedAt  *time.Time `gorm:"column:withdrawal_rejected_at" json:"withdrawal_rejected_at,omitempty"`
	WithdrawalCancelledAt *time.Time `gorm:"column:withdrawal_cancelled_at" json:"withdrawal_cancelled_at,omitempty"`

	WithdrawalApprovedBy  *uuid.UUID `gorm:"column:withdrawal_approved_by;type:uuid" json:"withdrawal_approved_by,omitempty"`
	WithdrawalProcessedBy *uuid.UUID `gorm:"column:withdrawal_processed_by;type:uuid" json:"withdrawal_processed_by,omitempty"`
	WithdrawalRejectedBy  *uuid.UUID `gorm:"column:withdrawal_rejected_by;type:uuid" json:"withdrawal_rejected_by,omitempty"`
	WithdrawalCancelledBy *uuid.UUID `gorm:"column:withdrawal_cancelled_by;type:uuid" json:"withdrawal_cancelled_by,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (WithdrawalModel) TableName() string {
	return "withdrawals"
}

func (w *WithdrawalModel) CanBeApproved() bool {
	return w.WithdrawalStatus == WithdrawalStatusPending
}

func (w *WithdrawalModel) CanBeRejected() bool {
	return w.WithdrawalStatus == WithdrawalStatusPending || w.WithdrawalStatus == WithdrawalStatusProcessing
}

func (w *WithdrawalModel) CanBeCancelled() bool {
	switch w.WithdrawalStatus {
	case WithdrawalStatusPending, WithdrawalStatusProcessing, WithdrawalStatusApproved:
		return true
	}
	return false
}

func (w *WithdrawalModel) CanBeProcessed() bool {
	return w.WithdrawalStatus == WithdrawalStatusApproved
}

func (w *WithdrawalModel) IsTerminal() bool {
	return w.WithdrawalStatus.IsTerminal()
}

func (w *WithdrawalModel) HasCompleteBankAccount() bool {
	return nonEmpty(w.WithdrawalBankName) &&
		nonEmpty(w.WithdrawalBankCode) &&
		nonEmpty(w.WithdrawalAccountNumber) &&
		nonEmpty(w.WithdrawalAccountHolderName)
}

func nonEmpty(p *string) bool {
	return p != nil && strings.TrimSpace(*p) != ""
}
