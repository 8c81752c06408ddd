package controller

import (
	"github.com/gofiber/fiber/v2"

	"galangdana_backend/internals/features/donations/donations/dto"
	"galangdana_backend/internals/features/donations/donations/service"
	helper "galangdana_backend/internals/helpers"
)

type DonationController struct {
	Svc *service.DonationService
}

func NewDonationController(svc *service.DonationService) *DonationController {
	return &DonationController{Svc: svc}
}

// POST /donations — login opsional
func (h *DonationController) Create(c *fiber.Ctx) error {
	var req dto.CreateDonationRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.FromFiberError(c, err)
	}
	d, err := h.Svc.Create(c.Context(), helper.OptionalUserID(c), req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Donasi dibuat, lanjutkan pembayaran", dto.FromModel(d))
}

// GET /donations/:id
func (h *DonationController) Get(c *fiber.Ctx) error {
	id, err := helper.ParseUint64Param(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	d, err := h.Svc.GetByID(c.Context(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if d.DonationUserID != nil && !helper.IsAdmin(c) {
		caller := helper.OptionalUserID(c)
		if caller == nil || *caller != *d.DonationUserID {
			return helper.JsonError(c, fiber.StatusForbidden, "Donation ini milik user lain")
		}
	}
	return helper.JsonOK(c, "ok", dto.FromModel(d))
}

// GET /projects/:id/donations — publik, PAID saja
func (h *DonationController) ListByProject(c *fiber.Ctx) error {
	projectID, err := helper.ParseUint64Param(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 100)
	list, total, err := h.Svc.ListPaidByProject(c.Context(), projectID, p)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", dto.ToPublic(list), helper.BuildPagination(total, p, len(list)))
}

// GET /donations/mine?status=
func (h *DonationController) ListMine(c *fiber.Ctx) error {
	uid, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 100)
	list, total, err := h.Svc.ListMine(c.Context(), uid, c.Query("status"), p)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(list), helper.BuildPagination(total, p, len(list)))
}
