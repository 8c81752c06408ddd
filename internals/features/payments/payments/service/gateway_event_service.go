package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"galangdana_backend/internals/features/payments/payments/model"
	helper "galangdana_backend/internals/helpers"
)

// EventLog mencatat setiap callback gateway yang lolos verifikasi ke payment_gateway_events.
type EventLog struct {
	db  *gorm.DB
	now func() time.Time
}

func NewEventLog(db *gorm.DB) *EventLog {
	return &EventLog{db: db, now: time.Now}
}

type EventInput struct {
	Kind          model.GatewayEventKind
	Provider      string
	ExternalID    string
	ExternalRef   string
	GatewayStatus string
	Headers       map[string][]string
	Payload       []byte
}

// Record menyimpan event berstatus received. Gagal simpan log tidak boleh menggagalkan webhook.
func (l *EventLog) Record(ctx context.Context, in EventInput) (uint64, error) {
	headers := map[string]string{}
	for k, v := range in.Headers {
		headers[k] = strings.Join(v, ",")
	}
	headersJSON, _ := sonic.Marshal(headers)

	payload := datatypes.JSON(in.Payload)
	if !json.Valid(in.Payload) {
		wrapped, _ := sonic.Marshal(map[string]string{"raw": string(in.Payload)})
		payload = datatypes.JSON(wrapped)
	}

	ev := model.PaymentGatewayEventModel{
		GatewayEventKind:          in.Kind,
		GatewayEventProvider:      in.Provider,
		GatewayEventExternalID:    strPtr(in.ExternalID),
		GatewayEventExternalRef:   strPtr(in.ExternalRef),
		GatewayEventGatewayStatus: strPtr(in.GatewayStatus),
		GatewayEventHeaders:       datatypes.JSON(headersJSON),
		GatewayEventPayload:       payload,
		GatewayEventStatus:        model.GatewayEventStatusReceived,
		GatewayEventReceivedAt:    l.now(),
	}
	if err := l.db.WithContext(ctx).Create(&ev).Error; err != nil {
		return 0, fmt.Errorf("record gateway event: %w", err)
	}
	return ev.GatewayEventID, nil
}

func (l *EventLog) Finish(ctx context.Context, id uint64, status model.GatewayEventStatus, errMsg string) error {
	if id == 0 {
		return nil
	}
	now := l.now()
	return l.db.WithContext(ctx).
		Model(&model.PaymentGatewayEventModel{}).
		Where("gateway_event_id = ?", id).
		Updates(map[string]any{
			"gateway_event_status":       status,
			"gateway_event_error":        strPtr(errMsg),
			"gateway_event_processed_at": now,
		}).Error
}

type EventFilter struct {
	Kind       string
	ExternalID string
	Status     string
}

func (l *EventLog) List(ctx context.Context, f EventFilter, p helper.Paging) ([]model.PaymentGatewayEventModel, int64, error) {
	q := l.db.WithContext(ctx).Model(&model.PaymentGatewayEventModel{})
	if f.Kind != "" {
		q = q.Where("gateway_event_kind = ?", f.Kind)
	}
	if f.ExternalID != "" {
		q = q.Where("gateway_event_external_id = ?", f.ExternalID)
	}
	if f.Status != "" {
		q = q.Where("gateway_event_status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count gateway events: %w", err)
	}
	var out []model.PaymentGatewayEventModel
	if err := q.Order("gateway_event_received_at DESC, gateway_event_id DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list gateway events: %w", err)
	}
	return out, total, nil
}

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
