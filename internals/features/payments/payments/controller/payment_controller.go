package controller

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"galangdana_backend/internals/features/payments/gateway"
	"galangdana_backend/internals/features/payments/payments/dto"
	"galangdana_backend/internals/features/payments/payments/model"
	"galangdana_backend/internals/features/payments/payments/service"
	helper "galangdana_backend/internals/helpers"
)

type PaymentController struct {
	Svc    *service.PaymentService
	Events *service.EventLog
}

func NewPaymentController(svc *service.PaymentService, events *service.EventLog) *PaymentController {
	return &PaymentController{Svc: svc, Events: events}
}

// donasi guest (user_id NULL) boleh dibayar siapa pun yang memegang id-nya
func authorizeDonationAccess(c *fiber.Ctx, owner *uuid.UUID) error {
	if owner == nil || helper.IsAdmin(c) {
		return nil
	}
	caller := helper.OptionalUserID(c)
	if caller == nil || *caller != *owner {
		return fiber.NewError(fiber.StatusForbidden, "Donation ini milik user lain")
	}
	return nil
}

func (h *PaymentController) authorizeByDonation(c *fiber.Ctx, donationID uint64) error {
	owner, err := h.Svc.DonationOwnerByID(c.Context(), donationID)
	if err != nil {
		return err
	}
	return authorizeDonationAccess(c, owner)
}

func (h *PaymentController) loadAuthorized(c *fiber.Ctx) (*model.PaymentModel, error) {
	id, err := helper.ParseUint64Param(c, "id")
	if err != nil {
		return nil, err
	}
	p, err := h.Svc.GetByID(c.Context(), id)
	if err != nil {
		return nil, err
	}
	owner, err := h.Svc.DonationOwner(c.Context(), p)
	if err != nil {
		return nil, err
	}
	if err := authorizeDonationAccess(c, owner); err != nil {
		return nil, err
	}
	return p, nil
}

/* ===================== CHARGES ===================== */

// POST /payments/invoice
func (h *PaymentController) CreateInvoice(c *fiber.Ctx) error {
	var req dto.CreateInvoiceRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.FromFiberError(c, err)
	}
	if err := h.authorizeByDonation(c, req.DonationID); err != nil {
		return helper.FromFiberError(c, err)
	}
	p, err := h.Svc.CreateInvoice(c.Context(), req.DonationID, service.ChargeOptions{
		Description: req.Description,
		Customer: gateway.Customer{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Invoice dibuat", dto.FromModel(p))
}

// POST /payments/virtual-account
func (h *PaymentController) CreateVirtualAccount(c *fiber.Ctx) error {
	var req dto.CreateVirtualAccountRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.FromFiberError(c, err)
	}
	if err := h.authorizeByDonation(c, req.DonationID); err != nil {
		return helper.FromFiberError(c, err)
	}
	p, err := h.Svc.CreateVirtualAccount(c.Context(), req.DonationID, req.BankCode, service.ChargeOptions{
		Customer: gateway.Customer{Name: req.CustomerName, Email: req.CustomerEmail},
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Virtual account dibuat", dto.FromModel(p))
}

// POST /payments/ewallet
func (h *PaymentController) CreateEwallet(c *fiber.Ctx) error {
	var req dto.CreateEwalletRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.FromFiberError(c, err)
	}
	if err := h.authorizeByDonation(c, req.DonationID); err != nil {
		return helper.FromFiberError(c, err)
	}
	p, err := h.Svc.CreateEwallet(c.Context(), req.DonationID, req.EwalletType, service.ChargeOptions{
		Customer: gateway.Customer{Name: req.CustomerName, Phone: req.CustomerPhone},
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "E-wallet charge dibuat", dto.FromModel(p))
}

/* ===================== READ / STATUS ===================== */

// GET /payments/:id — status non-terminal ditanyakan ulang ke gateway
func (h *PaymentController) GetPayment(c *fiber.Ctx) error {
	p, err := h.loadAuthorized(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	p, err = h.Svc.GetPaymentStatus(c.Context(), p.PaymentID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModel(p))
}

// GET /payments/:id/qr — PNG dari URL checkout atau nomor VA
func (h *PaymentController) GetPaymentQR(c *fiber.Ctx) error {
	p, err := h.loadAuthorized(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	content := ""
	switch {
	case p.PaymentURL != nil && *p.PaymentURL != "":
		content = *p.PaymentURL
	case p.PaymentVirtualAccount != nil && *p.PaymentVirtualAccount != "":
		content = *p.PaymentVirtualAccount
	default:
		return helper.JsonError(c, fiber.StatusNotFound, "Payment tidak punya link atau nomor VA")
	}
	size, _ := strconv.Atoi(c.Query("size", "256"))
	png, err := helper.RenderQRPNG(content, size)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(png)
}

// GET /donations/:id/payments
func (h *PaymentController) ListByDonation(c *fiber.Ctx) error {
	donationID, err := helper.ParseUint64Param(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if err := h.authorizeByDonation(c, donationID); err != nil {
		return helper.FromFiberError(c, err)
	}
	list, err := h.Svc.ListByDonation(c.Context(), donationID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModels(list))
}

// POST /payments/:id/cancel
func (h *PaymentController) CancelPayment(c *fiber.Ctx) error {
	p, err := h.loadAuthorized(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	p, err = h.Svc.CancelPayment(c.Context(), p.PaymentID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Payment dibatalkan", dto.FromModel(p))
}

/* ===================== ADMIN ===================== */

// POST /payments/:id/sync (admin) — paksa cek ke gateway
func (h *PaymentController) SyncPayment(c *fiber.Ctx) error {
	id, err := helper.ParseUint64Param(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	p, err := h.Svc.SyncPayment(c.Context(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Payment disinkronkan", dto.FromModel(p))
}

// GET /payments/events?kind=&external_id=&status=
func (h *PaymentController) ListGatewayEvents(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)
	list, total, err := h.Events.List(c.Context(), service.EventFilter{
		Kind:       strings.ToLower(strings.TrimSpace(c.Query("kind"))),
		ExternalID: strings.TrimSpace(c.Query("external_id")),
		Status:     strings.ToLower(strings.TrimSpace(c.Query("status"))),
	}, p)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromEventModels(list), helper.BuildPagination(total, p, len(list)))
}
