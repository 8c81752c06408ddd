package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"galangdana_backend/internals/features/payments/gateway"
	paymentController "galangdana_backend/internals/features/payments/payments/controller"
	paymentModel "galangdana_backend/internals/features/payments/payments/model"
	paymentService "galangdana_backend/internals/features/payments/payments/service"
	"galangdana_backend/internals/features/withdrawals/withdrawals/dto"
	"galangdana_backend/internals/features/withdrawals/withdrawals/service"
	helper "galangdana_backend/internals/helpers"
	"galangdana_backend/internals/logger"
)

type WithdrawalController struct {
	Svc    *service.WithdrawalService
	GW     gateway.Gateway
	Events *paymentService.EventLog
}

func NewWithdrawalController(svc *service.WithdrawalService, gw gateway.Gateway, events *paymentService.EventLog) *WithdrawalController {
	return &WithdrawalController{Svc: svc, GW: gw, Events: events}
}

func actorFrom(c *fiber.Ctx) (service.Actor, error) {
	uid, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{UserID: uid, IsAdmin: helper.IsAdmin(c)}, nil
}

/* ===================== USER ===================== */

// GET /projects/:id/withdrawals/eligibility
func (h *WithdrawalController) CheckEligibility(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	projectID, err := helper.ParseUint64Param(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	e, err := h.Svc.CheckEligibility(c.Context(), projectID, actor.UserID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", e)
}

// GET /projects/:id/withdrawals/stats
func (h *WithdrawalController) ProjectStats(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	projectID, err := helper.ParseUint64Param(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	st, err := h.Svc.GetProjectWithdrawStats(c.Context(), actor, projectID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", st)
}

// POST /withdrawals
func (h *WithdrawalController) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.CreateWithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	// validasi body dilakukan di service setelah cek kepemilikan project
	w, err := h.Svc.CreateWithdrawRequest(c.Context(), actor, req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Permintaan penarikan dibuat", dto.FromModel(w, actor.IsAdmin))
}

// GET /withdrawals?status=
func (h *WithdrawalController) ListMine(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 100)
	list, total, err := h.Svc.ListMine(c.Context(), actor.UserID, c.Query("status"), p)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(list, false), helper.BuildPagination(total, p, len(list)))
}

// GET /withdrawals/:id
func (h *WithdrawalController) GetByID(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUint64Param(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	w, err := h.Svc.GetByID(c.Context(), actor, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModel(w, actor.IsAdmin))
}

// POST /withdrawals/:id/cancel
func (h *WithdrawalController) Cancel(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUint64Param(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.CancelWithdrawalRequest
	if len(c.Body()) > 0 {
		if err := helper.BindAndValidate(c, &req); err != nil {
			return helper.FromFiberError(c, err)
		}
	}
	w, err := h.Svc.CancelWithdrawal(c.Context(), actor, id, req.Reason)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Withdrawal dibatalkan", dto.FromModel(w, actor.IsAdmin))
}

/* ===================== ADMIN ===================== */

// GET /withdrawals?status=&project_id=
func (h *WithdrawalController) ListAdmin(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 200)
	f := service.ListFilter{Status: c.Query("status")}
	if pid := c.QueryInt("project_id", 0); pid > 0 {
		f.ProjectID = uint64(pid)
	}
	list, total, err := h.Svc.List(c.Context(), f, p)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(list, true), helper.BuildPagination(total, p, len(list)))
}

// POST /withdrawals/:id/approval
func (h *WithdrawalController) Approval(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUint64Param(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.ApprovalRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.FromFiberError(c, err)
	}
	w, err := h.Svc.ProcessApproval(c.Context(), actor, service.ApprovalInput{
		WithdrawalID:     id,
		Approved:         req.Approved,
		AdminNotes:       req.AdminNotes,
		ProcessingMethod: req.ProcessingMethod,
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	msg := "Withdrawal ditolak"
	if req.Approved {
		msg = "Withdrawal disetujui"
	}
	return helper.JsonUpdated(c, msg, dto.FromModel(w, true))
}

// POST /withdrawals/:id/process
func (h *WithdrawalController) Process(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUint64Param(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	w, err := h.Svc.ProcessDisbursement(c.Context(), actor, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Disbursement dikirim ke gateway", dto.FromModel(w, true))
}

// POST /withdrawals/:id/sync
func (h *WithdrawalController) Sync(c *fiber.Ctx) error {
	id, err := helper.ParseUint64Param(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	res, err := h.Svc.SyncDisbursement(c.Context(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", res)
}

/* ===================== WEBHOOK ===================== */

// POST /withdrawals/webhook — callback disbursement dari gateway.
// Withdrawal tidak dikenal / tidak cocok tetap dijawab 200.
func (h *WithdrawalController) DisbursementWebhook(c *fiber.Ctx) error {
	raw := append([]byte(nil), c.Body()...)
	n, err := h.GW.ParseDisbursementNotification(c.Context(), raw, func(k string) string { return c.Get(k) })
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			logger.Warn("[WARN] disbursement callback tanpa payout yang dikenal gateway, diabaikan")
			return helper.JsonOK(c, "ignored", fiber.Map{"status": "ignored", "reason": "payout not found"})
		}
		return paymentController.WebhookParseError(c, err)
	}

	evID, logErr := h.Events.Record(c.Context(), paymentService.EventInput{
		Kind:          paymentModel.GatewayEventKindDisbursement,
		Provider:      h.GW.Provider(),
		ExternalID:    n.ExternalID,
		ExternalRef:   n.ID,
		GatewayStatus: n.RawStatus,
		Headers:       c.GetReqHeaders(),
		Payload:       raw,
	})
	if logErr != nil {
		logger.Warn("[WARN] gagal mencatat gateway event: %v", logErr)
	}

	res, err := h.Svc.ProcessDisbursementWebhook(c.Context(), n)
	if err != nil {
		h.finish(c, evID, paymentModel.GatewayEventStatusFailed, err.Error())
		logger.Error("[ERROR] disbursement webhook external_id=%s gagal: %v", n.ExternalID, err)
		return helper.FromFiberError(c, err)
	}
	if res.Ignored {
		h.finish(c, evID, paymentModel.GatewayEventStatusIgnored, res.Reason)
		return helper.JsonOK(c, "ignored", fiber.Map{
			"external_id": n.ExternalID,
			"status":      "ignored",
			"reason":      res.Reason,
		})
	}
	h.finish(c, evID, paymentModel.GatewayEventStatusSuccess, "")
	return helper.JsonOK(c, "webhook processed", res)
}

func (h *WithdrawalController) finish(c *fiber.Ctx, evID uint64, status paymentModel.GatewayEventStatus, msg string) {
	if err := h.Events.Finish(c.Context(), evID, status, msg); err != nil {
		logger.Warn("[WARN] gagal update gateway event id=%d: %v", evID, err)
	}
}
