package model

import (
	"time"

	"gorm.io/datatypes"
)

/*
  payment_gateway_events = LOG CALLBACK PAYMENT GATEWAY
  - satu row per callback yang lolos verifikasi signature (payment & disbursement)
  - nyimpen raw headers, payload, dan hasil pemrosesan internal
*/

type GatewayEventKind string
type GatewayEventStatus string

const (
	GatewayEventKindPayment      GatewayEventKind = "payment"
	GatewayEventKindDisbursement GatewayEventKind = "disbursement"
)

const (
	GatewayEventStatusReceived GatewayEventStatus = "received"
	GatewayEventStatusSuccess  GatewayEventStatus = "success"
	GatewayEventStatusIgnored  GatewayEventStatus = "ignored"
	GatewayEventStatusFailed   GatewayEventStatus = "failed"
)

type PaymentGatewayEventModel struct {
	GatewayEventID   uint64           `gorm:"column:gateway_event_id;primaryKey;autoIncrement" json:"gateway_event_id"`
	GatewayEventKind GatewayEventKind `gorm:"column:gateway_event_kind;type:varchar(20);not null;index" json:"gateway_event_kind"`

	GatewayEventProvider      string  `gorm:"column:gateway_event_provider;type:varchar(20);not null" json:"gateway_event_provider"`
	GatewayEventExternalID    *string `gorm:"column:gateway_event_external_id;type:varchar(100);index" json:"gateway_event_external_id,omitempty"`
	GatewayEventExternalRef   *string `gorm:"column:gateway_event_external_ref;type:varchar(120)" json:"gateway_event_external_ref,omitempty"`
	GatewayEventGatewayStatus *string `gorm:"column:gateway_event_gateway_status;type:varchar(40)" json:"gateway_event_gateway_status,omitempty"`

	GatewayEventHeaders datatypes.JSON `gorm:"column:gateway_event_headers;type:jsonb" json:"gateway_event_headers,omitempty"`
	GatewayEventPayload datatypes.JSON `gorm:"column:gateway_event_payload;type:jsonb" json:"gateway_event_payload,omitempty"`

	GatewayEventStatus GatewayEventStatus `gorm:"column:gateway_event_status;type:varchar(20);not null;default:'received'" json:"gateway_event_status"`
	GatewayEventError  *string            `gorm:"column:gateway_event_error;type:text" json:"gateway_event_error,omitempty"`

	GatewayEventReceivedAt  time.Time  `gorm:"column:gateway_event_received_at;not null" json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time `gorm:"column:gateway_event_processed_at" json:"gateway_event_processed_at,omitempty"`
}

func (PaymentGatewayEventModel) TableName() string {
	return "payment_gateway_events"
}
