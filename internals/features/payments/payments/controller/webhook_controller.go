package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"galangdana_backend/internals/features/payments/gateway"
	"galangdana_backend/internals/features/payments/payments/model"
	"galangdana_backend/internals/features/payments/payments/service"
	helper "galangdana_backend/internals/helpers"
	"galangdana_backend/internals/logger"
)

// POST /payments/webhook
//
// Signature gagal → 401. Payment tidak dikenal → 200 "ignored" supaya gateway berhenti retry.
// Error lain → 500 dan gateway akan mengirim ulang.
func (h *PaymentController) PaymentWebhook(c *fiber.Ctx) error {
	raw := append([]byte(nil), c.Body()...)
	gw := h.Svc.Gateway()

	n, err := gw.ParsePaymentNotification(raw, func(k string) string { return c.Get(k) })
	if err != nil {
		return WebhookParseError(c, err)
	}

	evID, logErr := h.Events.Record(c.Context(), service.EventInput{
		Kind:          model.GatewayEventKindPayment,
		Provider:      gw.Provider(),
		ExternalID:    n.ExternalID,
		ExternalRef:   n.ID,
		GatewayStatus: n.RawStatus,
		Headers:       c.GetReqHeaders(),
		Payload:       raw,
	})
	if logErr != nil {
		logger.Warn("[WARN] gagal mencatat gateway event: %v", logErr)
	}

	res, err := h.Svc.ProcessWebhook(c.Context(), n)
	if errors.Is(err, service.ErrPaymentNotFound) {
		h.finish(c, evID, model.GatewayEventStatusIgnored, "payment not found")
		logger.Warn("[WARN] webhook payment external_id=%s tidak ditemukan, diabaikan", n.ExternalID)
		return helper.JsonOK(c, "ignored: payment not found", fiber.Map{
			"external_id": n.ExternalID,
			"status":      "ignored",
			"reason":      "payment not found",
		})
	}
	if err != nil {
		h.finish(c, evID, model.GatewayEventStatusFailed, err.Error())
		logger.Error("[ERROR] webhook payment external_id=%s gagal: %v", n.ExternalID, err)
		return helper.FromFiberError(c, err)
	}

	status := model.GatewayEventStatusSuccess
	if res.Duplicate {
		status = model.GatewayEventStatusIgnored
	}
	h.finish(c, evID, status, "")
	return helper.JsonOK(c, "webhook processed", res)
}

func (h *PaymentController) finish(c *fiber.Ctx, evID uint64, status model.GatewayEventStatus, msg string) {
	if err := h.Events.Finish(c.Context(), evID, status, msg); err != nil {
		logger.Warn("[WARN] gagal update gateway event id=%d: %v", evID, err)
	}
}

// WebhookParseError dipakai juga oleh webhook disbursement.
func WebhookParseError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, gateway.ErrInvalidSignature):
		logger.Warn("[WARN] webhook ditolak: signature tidak valid (ip=%s)", c.IP())
		return helper.JsonError(c, fiber.StatusUnauthorized, "invalid signature")
	case errors.Is(err, gateway.ErrInvalidPayload):
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	default:
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
}
