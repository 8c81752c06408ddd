package dto

import (
	"time"

	"gorm.io/datatypes"

	"galangdana_backend/internals/features/payments/payments/model"
)

/* ===================== REQUESTS ===================== */

type CreateInvoiceRequest struct {
	DonationID    uint64 `json:"donation_id" validate:"required,gt=0"`
	Description   string `json:"description" validate:"omitempty,max=200"`
	CustomerName  string `json:"customer_name" validate:"omitempty,max=120"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone string `json:"customer_phone" validate:"omitempty,max=20"`
}

type CreateVirtualAccountRequest struct {
	DonationID    uint64 `json:"donation_id" validate:"required,gt=0"`
	BankCode      string `json:"bank_code" validate:"required"`
	CustomerName  string `json:"customer_name" validate:"omitempty,max=120"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
}

type CreateEwalletRequest struct {
	DonationID    uint64 `json:"donation_id" validate:"required,gt=0"`
	EwalletType   string `json:"ewallet_type" validate:"required"`
	CustomerName  string `json:"customer_name" validate:"omitempty,max=120"`
	CustomerPhone string `json:"customer_phone" validate:"omitempty,max=20"`
}

/* ===================== RESPONSES ===================== */

type PaymentResponse struct {
	PaymentID         uint64              `json:"payment_id"`
	PaymentDonationID uint64              `json:"payment_donation_id"`
	PaymentExternalID string              `json:"payment_external_id"`
	PaymentGatewayID  *string             `json:"payment_gateway_id,omitempty"`
	PaymentProvider   string              `json:"payment_provider"`
	PaymentAmount     int64               `json:"payment_amount"`
	PaymentCurrency   string              `json:"payment_currency"`
	PaymentMethod     model.PaymentMethod `json:"payment_method"`
	PaymentStatus     model.PaymentStatus `json:"payment_status"`

	PaymentURL            *string `json:"payment_url,omitempty"`
	PaymentVirtualAccount *string `json:"payment_virtual_account,omitempty"`
	PaymentBankCode       *string `json:"payment_bank_code,omitempty"`
	PaymentEwalletType    *string `json:"payment_ewallet_type,omitempty"`

	PaymentPaidAt        *time.Time     `json:"payment_paid_at,omitempty"`
	PaymentExpiredAt     *time.Time     `json:"payment_expired_at,omitempty"`
	PaymentFailureReason *string        `json:"payment_failure_reason,omitempty"`
	PaymentWebhookData   datatypes.JSON `json:"payment_webhook_data,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromModel(m *model.PaymentModel) PaymentResponse {
	return PaymentResponse{
		PaymentID:             m.PaymentID,
		PaymentDonationID:     m.PaymentDonationID,
		PaymentExternalID:     m.PaymentExternalID,
		PaymentGatewayID:      m.PaymentGatewayID,
		PaymentProvider:       m.PaymentProvider,
		PaymentAmount:         m.PaymentAmount,
		PaymentCurrency:       m.PaymentCurrency,
		PaymentMethod:         m.PaymentMethod,
		PaymentStatus:         m.PaymentStatus,
		PaymentURL:            m.PaymentURL,
		PaymentVirtualAccount: m.PaymentVirtualAccount,
		PaymentBankCode:       m.PaymentBankCode,
		PaymentEwalletType:    m.PaymentEwalletType,
		PaymentPaidAt:         m.PaymentPaidAt,
		PaymentExpiredAt:      m.PaymentExpiredAt,
		PaymentFailureReason:  m.PaymentFailureReason,
		PaymentWebhookData:    m.PaymentWebhookData,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

func FromModels(list []model.PaymentModel) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(list))
	for i := range list {
		out = append(out, FromModel(&list[i]))
	}
	return out
}

type GatewayEventResponse struct {
	GatewayEventID          uint64                   `json:"gateway_event_id"`
	GatewayEventKind        model.GatewayEventKind   `json:"gateway_event_kind"`
	GatewayEventProvider    string                   `json:"gateway_event_provider"`
	GatewayEventExternalID  *string                  `json:"gateway_event_external_id,omitempty"`
	GatewayEventExternalRef *string                  `json:"gateway_event_external_ref,omitempty"`
	GatewayEventStatus      model.GatewayEventStatus `json:"gateway_event_status"`
	GatewayEventError       *string                  `json:"gateway_event_error,omitempty"`
	GatewayEventReceivedAt  time.Time                `json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time               `json:"gateway_event_processed_at,omitempty"`
}

func FromEventModels(list []model.PaymentGatewayEventModel) []GatewayEventResponse {
	out := make([]GatewayEventResponse, 0, len(list))
	for _, e := range list {
		out = append(out, GatewayEventResponse{
			GatewayEventID:          e.GatewayEventID,
			GatewayEventKind:        e.GatewayEventKind,
			GatewayEventProvider:    e.GatewayEventProvider,
			GatewayEventExternalID:  e.GatewayEventExternalID,
			GatewayEventExternalRef: e.GatewayEventExternalRef,
			GatewayEventStatus:      e.GatewayEventStatus,
			GatewayEventError:       e.GatewayEventError,
			GatewayEventReceivedAt:  e.GatewayEventReceivedAt,
			GatewayEventProcessedAt: e.GatewayEventProcessedAt,
		})
	}
	return out
}
