package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"galangdana_backend/internals/features/withdrawals/withdrawals/model"
)

/* ===================== REQUESTS ===================== */

type CreateWithdrawalRequest struct {
	ProjectID         uint64  `json:"project_id" validate:"required,gt=0"`
	Amount            int64   `json:"amount" validate:"required,gt=0"`
	Method            string  `json:"method" validate:"required"`
	Reason            *string `json:"reason" validate:"omitempty,max=500"`
	BankName          *string `json:"bank_name" validate:"omitempty,max=100"`
	BankCode          *string `json:"bank_code" validate:"omitempty,max=20"`
	AccountNumber     *string `json:"account_number" validate:"omitempty,max=40,numeric"`
	AccountHolderName *string `json:"account_holder_name" validate:"omitempty,max=120"`
}

type CancelWithdrawalRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type ApprovalRequest struct {
	Approved         bool    `json:"approved"`
	AdminNotes       *string `json:"admin_notes" validate:"omitempty,max=1000"`
	ProcessingMethod *string `json:"processing_method"`
}

/* ===================== RESPONSES ===================== */

type WithdrawalResponse struct {
	WithdrawalID        uint64                 `json:"withdrawal_id"`
	WithdrawalUserID    uuid.UUID              `json:"withdrawal_user_id"`
	WithdrawalProjectID uint64                 `json:"withdrawal_project_id"`
	WithdrawalAmount    int64                  `json:"withdrawal_amount"`
	WithdrawalAvailable int64                  `json:"withdrawal_available_amount"`
	WithdrawalCurrency  string                 `json:"withdrawal_currency"`
	WithdrawalMethod    model.WithdrawalMethod `json:"withdrawal_method"`
	WithdrawalStatus    model.WithdrawalStatus `json:"withdrawal_status"`

	WithdrawalProcessingFee int64 `json:"withdrawal_processing_fee"`
	WithdrawalNetAmount     int64 `json:"withdrawal_net_amount"`

	WithdrawalReason     *string `json:"withdrawal_reason,omitempty"`
	WithdrawalAdminNotes *string `json:"withdrawal_admin_notes,omitempty"`

	WithdrawalBankName          *string `json:"withdrawal_bank_name,omitempty"`
	WithdrawalBankCode          *string `json:"withdrawal_bank_code,omitempty"`
	WithdrawalAccountNumber     *string `json:"withdrawal_account_number,omitempty"`
	WithdrawalAccountHolderName *string `json:"withdrawal_account_holder_name,omitempty"`

	WithdrawalDisbursementID   *string        `json:"withdrawal_disbursement_id,omitempty"`
	WithdrawalDisbursementData datatypes.JSON `json:"withdrawal_disbursement_data,omitempty"`

	WithdrawalRequestedAt time.Time  `json:"withdrawal_requested_at"`
	WithdrawalApprovedAt  *time.Time `json:"withdrawal_approved_at,omitempty"`
	WithdrawalProcessedAt *time.Time `json:"withdrawal_processed_at,omitempty"`
	WithdrawalCompletedAt *time.Time `json:"withdrawal_completed_at,omitempty"`
	WithdrawalRejectedAt  *time.Time `json:"withdrawal_rejected_at,omitempty"`
	WithdrawalCancelledAt *time.Time `json:"withdrawal_cancelled_at,omitempty"`

	WithdrawalApprovedBy  *uuid.UUID `json:"withdrawal_approved_by,omitempty"`
	WithdrawalProcessedBy *uuid.UUID `json:"withdrawal_processed_by,omitempty"`
	WithdrawalRejectedBy  *uuid.UUID `json:"withdrawal_rejected_by,omitempty"`
	WithdrawalCancelledBy *uuid.UUID `json:"withdrawal_cancelled_by,omitempty"`
}

// maskAccount: hanya 4 digit terakhir yang ditampilkan ke non-admin.
func maskAccount(s *string) *string {
	if s == nil || len(*s) <= 4 {
		return s
	}
	v := *s
	masked := make([]byte, 0, len(v))
	for i := 0; i < len(v)-4; i++ {
		masked = append(masked, '*')
	}
	out := string(masked) + v[len(v)-4:]
	return &out
}

func FromModel(m *model.WithdrawalModel, full bool) WithdrawalResponse {
	r := WithdrawalResponse{
		WithdrawalID:                m.WithdrawalID,
		WithdrawalUserID:            m.WithdrawalUserID,
		WithdrawalProjectID:         m.WithdrawalProjectID,
		WithdrawalAmount:            m.WithdrawalAmount,
		WithdrawalAvailable:         m.WithdrawalAvailable,
		WithdrawalCurrency:          m.WithdrawalCurrency,
		WithdrawalMethod:            m.WithdrawalMethod,
		WithdrawalStatus:            m.WithdrawalStatus,
		WithdrawalProcessingFee:     m.WithdrawalProcessingFee,
		WithdrawalNetAmount:         m.WithdrawalNetAmount,
		WithdrawalReason:            m.WithdrawalReason,
		WithdrawalAdminNotes:        m.WithdrawalAdminNotes,
		WithdrawalBankName:          m.WithdrawalBankName,
		WithdrawalBankCode:          m.WithdrawalBankCode,
		WithdrawalAccountNumber:     m.WithdrawalAccountNumber,
		WithdrawalAccountHolderName: m.WithdrawalAccountHolderName,
		WithdrawalDisbursementID:    m.WithdrawalDisbursementID,
		WithdrawalRequestedAt:       m.WithdrawalRequestedAt,
		WithdrawalApprovedAt:        m.WithdrawalApprovedAt,
		WithdrawalProcessedAt:       m.WithdrawalProcessedAt,
		WithdrawalCompletedAt:       m.WithdrawalCompletedAt,
		WithdrawalRejectedAt:        m.WithdrawalRejectedAt,
		WithdrawalCancelledAt:       m.WithdrawalCancelledAt,
		WithdrawalApprovedBy:        m.WithdrawalApprovedBy,
		WithdrawalProcessedBy:       m.WithdrawalProcessedBy,
		WithdrawalRejectedBy:        m.WithdrawalRejectedBy,
		WithdrawalCancelledBy:       m.WithdrawalCancelledBy,
	}
	if full {
		r.WithdrawalDisbursementData = m.WithdrawalDisbursementData
	} else {
		r.WithdrawalAccountNumber = maskAccount(m.WithdrawalAccountNumber)
	}
	return r
}

func FromModels(list []model.WithdrawalModel, full bool) []WithdrawalResponse {
	out := make([]WithdrawalResponse, 0, len(list))
	for i := range list {
		out = append(out, FromModel(&list[i], full))
	}
	return out
}
