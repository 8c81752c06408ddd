package controller

import (
	"github.com/gofiber/fiber/v2"

	"galangdana_backend/internals/features/payments/reconciliation/service"
	helper "galangdana_backend/internals/helpers"
)

type ReconciliationController struct {
	Svc          *service.ReconciliationService
	DefaultHours int
}

func NewReconciliationController(svc *service.ReconciliationService, defaultHours int) *ReconciliationController {
	if defaultHours <= 0 {
		defaultHours = 2
	}
	return &ReconciliationController{Svc: svc, DefaultHours: defaultHours}
}

// GET /reconciliation/status
func (h *ReconciliationController) Status(c *fiber.Ctx) error {
	return helper.JsonOK(c, "ok", h.Svc.Status())
}

// POST /reconciliation/full
func (h *ReconciliationController) Full(c *fiber.Ctx) error {
	r, err := h.Svc.FullReconciliation(c.Context())
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Full reconciliation selesai", r)
}

// POST /reconciliation/incremental?hours=2
func (h *ReconciliationController) Incremental(c *fiber.Ctx) error {
	hours := c.QueryInt("hours", h.DefaultHours)
	if hours <= 0 || hours > 24*30 {
		return helper.JsonError(c, fiber.StatusBadRequest, "hours harus 1..720")
	}
	r, err := h.Svc.IncrementalReconciliation(c.Context(), hours)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Incremental reconciliation selesai", r)
}

// POST /reconciliation/expire
func (h *ReconciliationController) Expire(c *fiber.Ctx) error {
	r, err := h.Svc.ExpireSweep(c.Context())
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Expire sweep selesai", r)
}

// POST /reconciliation/disbursements
func (h *ReconciliationController) Disbursements(c *fiber.Ctx) error {
	r, err := h.Svc.ReconcileDisbursements(c.Context())
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Sinkronisasi disbursement selesai", r)
}
