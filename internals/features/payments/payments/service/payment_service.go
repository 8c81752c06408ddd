package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"galangdana_backend/internals/configs"
	donationModel "galangdana_backend/internals/features/donations/donations/model"
	"galangdana_backend/internals/features/payments/gateway"
	"galangdana_backend/internals/features/payments/payments/model"
	helper "galangdana_backend/internals/helpers"
	"galangdana_backend/internals/logger"
)

// ErrPaymentNotFound: callback untuk external id yang tidak kita kenal. Dijawab 200 "ignored".
var ErrPaymentNotFound = errors.New("payment not found")

type PaymentService struct {
	db  *gorm.DB
	gw  gateway.Gateway
	cfg configs.PaymentConfig
	now func() time.Time
}

func NewPaymentService(db *gorm.DB, gw gateway.Gateway, cfg configs.PaymentConfig) *PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "IDR"
	}
	return &PaymentService{db: db, gw: gw, cfg: cfg, now: time.Now}
}

// WithClock dipakai test untuk jam yang deterministik.
func (s *PaymentService) WithClock(now func() time.Time) *PaymentService {
	s.now = now
	return s
}

func (s *PaymentService) Gateway() gateway.Gateway { return s.gw }

type ChargeOptions struct {
	Description string
	Customer    gateway.Customer
}

// hasil charge dari gateway, dinormalisasi per metode
type chargeResult struct {
	gatewayID   string
	paymentURL  string
	virtualAcc  string
	bankCode    string
	ewalletType string
	raw         json.RawMessage
}

/* =========================================================
   CREATE CHARGE
========================================================= */

func (s *PaymentService) CreateInvoice(ctx context.Context, donationID uint64, opts ChargeOptions) (*model.PaymentModel, error) {
	return s.charge(ctx, donationID, model.PaymentMethodInvoice, "donation", s.cfg.InvoiceExpiry,
		func(externalID string, d *donationModel.DonationModel, expiry time.Duration) (*chargeResult, error) {
			desc := opts.Description
			if desc == "" {
				desc = fmt.Sprintf("Donasi #%d", d.DonationID)
			}
			res, err := s.gw.CreateInvoice(ctx, gateway.InvoiceRequest{
				ExternalID:  externalID,
				Amount:      d.DonationAmount,
				Description: desc,
				Customer:    opts.Customer,
				Expiry:      expiry,
			})
			if err != nil {
				return nil, err
			}
			return &chargeResult{gatewayID: res.GatewayID, paymentURL: res.PaymentURL, raw: res.Raw}, nil
		})
}

func (s *PaymentService) CreateVirtualAccount(ctx context.Context, donationID uint64, bankCode string, opts ChargeOptions) (*model.PaymentModel, error) {
	code := gateway.NormalizeCode(bankCode)
	if !gateway.IsSupportedBank(code) {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf(
			"bank_code %q tidak didukung (supported: %s)", bankCode, strings.Join(gateway.SupportedBanks(), ", ")))
	}
	return s.charge(ctx, donationID, model.PaymentMethodVirtualAccount, "donation-va", s.cfg.VAExpiry,
		func(externalID string, d *donationModel.DonationModel, expiry time.Duration) (*chargeResult, error) {
			res, err := s.gw.CreateVirtualAccount(ctx, gateway.VirtualAccountRequest{
				ExternalID: externalID,
				Amount:     d.DonationAmount,
				BankCode:   code,
				Customer:   opts.Customer,
				Expiry:     expiry,
			})
			if err != nil {
				return nil, err
			}
			return &chargeResult{gatewayID: res.GatewayID, virtualAcc: res.AccountNumber, bankCode: res.BankCode, raw: res.Raw}, nil
		})
}

func (s *PaymentService) CreateEwallet(ctx context.Context, donationID uint64, ewalletType string, opts ChargeOptions) (*model.PaymentModel, error) {
	t := gateway.NormalizeCode(ewalletType)
	if !gateway.IsSupportedEwallet(t) {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf(
			"ewallet_type %q tidak didukung (supported: %s)", ewalletType, strings.Join(gateway.SupportedEwallets(), ", ")))
	}
	return s.charge(ctx, donationID, model.PaymentMethodEwallet, "donation-ewallet", s.cfg.EwalletExpiry,
		func(externalID string, d *donationModel.DonationModel, expiry time.Duration) (*chargeResult, error) {
			res, err := s.gw.CreateEwalletCharge(ctx, gateway.EwalletRequest{
				ExternalID:  externalID,
				Amount:      d.DonationAmount,
				EwalletType: t,
				Customer:    opts.Customer,
				Expiry:      expiry,
			})
			if err != nil {
				return nil, err
			}
			return &chargeResult{gatewayID: res.GatewayID, paymentURL: res.CheckoutURL, ewalletType: t, raw: res.Raw}, nil
		})
}

type chargeFunc func(externalID string, d *donationModel.DonationModel, expiry time.Duration) (*chargeResult, error)

func (s *PaymentService) charge(
	ctx context.Context,
	donationID uint64,
	method model.PaymentMethod,
	prefix string,
	expiry time.Duration,
	call chargeFunc,
) (*model.PaymentModel, error) {
	p, d, err := s.reserveCharge(ctx, donationID, method, prefix, expiry)
	if err != nil {
		return nil, err
	}

	res, gwErr := call(p.PaymentExternalID, d, expiry)
	if gwErr != nil {
		reason := gwErr.Error()
		if err := s.db.WithContext(ctx).Model(&model.PaymentModel{}).
			Where("payment_id = ? AND payment_status = ?", p.PaymentID, model.PaymentStatusPending).
			Updates(map[string]any{
				"payment_status":         model.PaymentStatusFailed,
				"payment_failure_reason": reason,
				"updated_at":             s.now(),
			}).Error; err != nil {
			logger.Error("[ERROR] gagal menandai payment id=%d FAILED: %v", p.PaymentID, err)
		}
		logger.Warn("[WARN] gateway charge gagal donation_id=%d method=%s: %v", d.DonationID, method, gwErr)
		return nil, fiber.NewError(fiber.StatusBadGateway, "gateway error: "+reason)
	}

	// hanya field gateway; status bisa sudah diubah webhook yang datang duluan
	updates := map[string]any{"updated_at": s.now()}
	if res.gatewayID != "" {
		updates["payment_gateway_id"] = res.gatewayID
	}
	if res.paymentURL != "" {
		updates["payment_url"] = res.paymentURL
	}
	if res.virtualAcc != "" {
		updates["payment_virtual_account"] = res.virtualAcc
	}
	if res.bankCode != "" {
		updates["payment_bank_code"] = res.bankCode
	}
	if res.ewalletType != "" {
		updates["payment_ewallet_type"] = res.ewalletType
	}
	if len(res.raw) > 0 {
		updates["payment_gateway_data"] = datatypes.JSON(res.raw)
	}
	if err := s.db.WithContext(ctx).Model(&model.PaymentModel{}).
		Where("payment_id = ?", p.PaymentID).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("store gateway response: %w", err)
	}

	logger.Info("[INFO] payment dibuat id=%d external_id=%s method=%s amount=%d", p.PaymentID, p.PaymentExternalID, method, p.PaymentAmount)
	return s.GetByID(ctx, p.PaymentID)
}

// reserveCharge mengunci donation lalu menyimpan payment PENDING sebelum gateway dipanggil,
// sehingga request paralel untuk donation yang sama melihat payment ini dan ditolak.
func (s *PaymentService) reserveCharge(
	ctx context.Context,
	donationID uint64,
	method model.PaymentMethod,
	prefix string,
	expiry time.Duration,
) (*model.PaymentModel, *donationModel.DonationModel, error) {
	var (
		p *model.PaymentModel
		d donationModel.DonationModel
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&d, "donation_id = ?", donationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Donation tidak ditemukan")
			}
			return fmt.Errorf("load donation: %w", err)
		}
		if d.IsSettled() {
			return fiber.NewError(fiber.StatusBadRequest, "Donation sudah dibayar (status PAID)")
		}
		if d.DonationAmount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Nominal donation tidak valid")
		}

		now := s.now()
		var pending []model.PaymentModel
		if err := tx.Where("payment_donation_id = ? AND payment_status = ?", donationID, model.PaymentStatusPending).
			Find(&pending).Error; err != nil {
			return fmt.Errorf("load pending payments: %w", err)
		}
		for i := range pending {
			old := &pending[i]
			if old.PaymentExpiredAt != nil && !old.PaymentExpiredAt.After(now) {
				if _, err := s.transition(tx, old, model.PaymentStatusExpired, nil, nil); err != nil {
					return err
				}
				continue
			}
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Masih ada payment PENDING untuk donation ini (payment_id=%d)", old.PaymentID))
		}

		p = &model.PaymentModel{
			PaymentDonationID: d.DonationID,
			PaymentExternalID: NewExternalID(prefix, d.DonationID),
			PaymentProvider:   s.gw.Provider(),
			PaymentAmount:     d.DonationAmount,
			PaymentCurrency:   s.cfg.Currency,
			PaymentMethod:     method,
			PaymentStatus:     model.PaymentStatusPending,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if expiry > 0 {
			exp := now.Add(expiry)
			p.PaymentExpiredAt = &exp
		}
		if err := tx.Create(p).Error; err != nil {
			if helper.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "external_id sudah dipakai, ulangi request")
			}
			return fmt.Errorf("create payment: %w", err)
		}
		return tx.Model(&donationModel.DonationModel{}).
			Where("donation_id = ? AND donation_payment_status <> ?", d.DonationID, donationModel.DonationStatusPaid).
			Updates(map[string]any{
				"donation_payment_method": string(method),
				"donation_payment_status": donationModel.DonationStatusPending,
				"updated_at":              now,
			}).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return p, &d, nil
}

// NewExternalID: {prefix}-{donationId}-{random8}, dipakai sebagai order_id gateway.
func NewExternalID(prefix string, donationID uint64) string {
	r := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%d-%s", prefix, donationID, r[:8])
}

/* =========================================================
   WEBHOOK
========================================================= */

// MapGatewayStatus: status netral gateway → enum payment. Selain yang dikenal dianggap PENDING (no-op).
func MapGatewayStatus(st gateway.Status) model.PaymentStatus {
	switch st {
	case gateway.StatusPaid, gateway.StatusSettled:
		return model.PaymentStatusPaid
	case gateway.StatusExpired:
		return model.PaymentStatusExpired
	case gateway.StatusFailed:
		return model.PaymentStatusFailed
	case gateway.StatusCancelled:
		return model.PaymentStatusCancelled
	default:
		return model.PaymentStatusPending
	}
}

type webhookEnvelope struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	RawStatus  string          `json:"raw_status"`
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

type WebhookResult struct {
	PaymentID uint64              `json:"payment_id"`
	Status    model.PaymentStatus `json:"payment_status"`
	Changed   bool                `json:"changed"`
	Duplicate bool                `json:"duplicate"`
}

func (s *PaymentService) ProcessWebhook(ctx context.Context, n *gateway.PaymentNotification) (*WebhookResult, error) {
	if n == nil || strings.TrimSpace(n.ExternalID) == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "external_id wajib diisi")
	}
	now := s.now()
	target := MapGatewayStatus(n.Status)
	envelope := webhookEnvelope{
		ID:         n.ID,
		Status:     string(n.Status),
		RawStatus:  n.RawStatus,
		ReceivedAt: now,
		Payload:    n.Raw,
	}
	envJSON, err := sonic.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encode webhook envelope: %w", err)
	}

	var result WebhookResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.PaymentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, "payment_external_id = ?", n.ExternalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("load payment: %w", err)
		}
		result = WebhookResult{PaymentID: p.PaymentID, Status: p.PaymentStatus}

		if isDuplicateWebhook(p.PaymentWebhookData, n) {
			result.Duplicate = true
			return nil
		}
		if p.IsTerminal() {
			if target != p.PaymentStatus && target != model.PaymentStatusPending {
				logger.Warn("[WARN] drift: payment id=%d sudah %s, callback minta %s (diabaikan)", p.PaymentID, p.PaymentStatus, target)
			}
			return nil
		}

		extra := map[string]any{"payment_webhook_data": datatypes.JSON(envJSON)}
		if n.ID != "" && (p.PaymentGatewayID == nil || *p.PaymentGatewayID == "") {
			extra["payment_gateway_id"] = n.ID
		}
		if target == model.PaymentStatusPending {
			extra["updated_at"] = now
			return tx.Model(&model.PaymentModel{}).Where("payment_id = ?", p.PaymentID).Updates(extra).Error
		}

		changed, err := s.transition(tx, &p, target, n.PaidAt, extra)
		if err != nil {
			return err
		}
		result.Changed = changed
		if changed {
			result.Status = target
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Changed {
		logger.Info("[INFO] webhook payment id=%d external_id=%s → %s", result.PaymentID, n.ExternalID, result.Status)
	}
	return &result, nil
}

func isDuplicateWebhook(stored datatypes.JSON, n *gateway.PaymentNotification) bool {
	if len(stored) == 0 || n.ID == "" {
		return false
	}
	var prev webhookEnvelope
	if err := sonic.Unmarshal(stored, &prev); err != nil {
		return false
	}
	return prev.ID == n.ID && prev.RawStatus == n.RawStatus
}

/* =========================================================
   TRANSITION (+ cascade donation/project)
========================================================= */

func (s *PaymentService) transitionByID(ctx context.Context, paymentID uint64, to model.PaymentStatus, paidAt *time.Time, extra map[string]any) (bool, error) {
	var changed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.PaymentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, "payment_id = ?", paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Payment tidak ditemukan")
			}
			return fmt.Errorf("load payment: %w", err)
		}
		if p.IsTerminal() {
			return nil
		}
		var err error
		changed, err = s.transition(tx, &p, to, paidAt, extra)
		return err
	})
	return changed, err
}

// transition memindahkan payment PENDING ke status terminal dan men-cascade ke donation/project dalam tx yang sama.
func (s *PaymentService) transition(tx *gorm.DB, p *model.PaymentModel, to model.PaymentStatus, paidAt *time.Time, extra map[string]any) (bool, error) {
	if p.IsTerminal() || !to.IsTerminal() {
		return false, nil
	}
	now := s.now()
	updates := map[string]any{
		"payment_status": to,
		"updated_at":     now,
	}
	var paid time.Time
	if to == model.PaymentStatusPaid {
		paid = now
		if paidAt != nil && !paidAt.IsZero() {
			paid = paidAt.UTC()
		}
		updates["payment_paid_at"] = paid
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := tx.Model(&model.PaymentModel{}).
		Where("payment_id = ? AND payment_status = ?", p.PaymentID, model.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("update payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	p.PaymentStatus = to
	if to == model.PaymentStatusPaid {
		p.PaymentPaidAt = &paid
	}

	var d donationModel.DonationModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&d, "donation_id = ?", p.PaymentDonationID).Error; err != nil {
		return false, fmt.Errorf("load donation: %w", err)
	}
	if d.IsSettled() {
		// donation sudah lunas lewat attempt lain, jangan diturunkan
		return true, nil
	}

	if to != model.PaymentStatusPaid {
		if err := tx.Model(&donationModel.DonationModel{}).
			Where("donation_id = ?", d.DonationID).
			Updates(map[string]any{
				"donation_payment_status": donationModel.DonationStatus(to),
				"updated_at":              now,
			}).Error; err != nil {
			return false, fmt.Errorf("update donation: %w", err)
		}
		return true, nil
	}

	if err := tx.Model(&donationModel.DonationModel{}).
		Where("donation_id = ?", d.DonationID).
		Updates(map[string]any{
			"donation_payment_status": donationModel.DonationStatusPaid,
			"donation_payment_method": string(p.PaymentMethod),
			"donation_paid_at":        paid,
			"updated_at":              now,
		}).Error; err != nil {
		return false, fmt.Errorf("update donation: %w", err)
	}
	if err := tx.Table("projects").
		Where("project_id = ?", d.DonationProjectID).
		Updates(map[string]any{
			"project_current_amount": gorm.Expr("project_current_amount + ?", d.DonationAmount),
			"updated_at":             now,
		}).Error; err != nil {
		return false, fmt.Errorf("increment project amount: %w", err)
	}
	return true, nil
}

/* =========================================================
   STATUS SYNC / CANCEL
========================================================= */

func (s *PaymentService) GetByID(ctx context.Context, id uint64) (*model.PaymentModel, error) {
	var p model.PaymentModel
	if err := s.db.WithContext(ctx).First(&p, "payment_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Payment tidak ditemukan")
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}
	return &p, nil
}

func (s *PaymentService) ListByDonation(ctx context.Context, donationID uint64) ([]model.PaymentModel, error) {
	var out []model.PaymentModel
	if err := s.db.WithContext(ctx).
		Where("payment_donation_id = ?", donationID).
		Order("created_at DESC, payment_id DESC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}

// DonationOwner: user pemilik donation dari payment (nil untuk donasi guest).
func (s *PaymentService) DonationOwner(ctx context.Context, p *model.PaymentModel) (*uuid.UUID, error) {
	return s.DonationOwnerByID(ctx, p.PaymentDonationID)
}

func (s *PaymentService) DonationOwnerByID(ctx context.Context, donationID uint64) (*uuid.UUID, error) {
	var d donationModel.DonationModel
	if err := s.db.WithContext(ctx).
		Select("donation_id", "donation_user_id").
		First(&d, "donation_id = ?", donationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Donation tidak ditemukan")
		}
		return nil, fmt.Errorf("load donation: %w", err)
	}
	return d.DonationUserID, nil
}

// GetPaymentStatus: payment terminal dijawab dari DB, selain itu ditanya ulang ke gateway.
func (s *PaymentService) GetPaymentStatus(ctx context.Context, id uint64) (*model.PaymentModel, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsTerminal() {
		return p, nil
	}
	return s.syncWithGateway(ctx, p)
}

// SyncPayment selalu menanyakan gateway; payment terminal hanya dicek drift-nya.
func (s *PaymentService) SyncPayment(ctx context.Context, id uint64) (*model.PaymentModel, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.syncWithGateway(ctx, p)
}

func (s *PaymentService) syncWithGateway(ctx context.Context, p *model.PaymentModel) (*model.PaymentModel, error) {
	res, err := s.gw.GetPaymentStatus(ctx, p.PaymentExternalID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadGateway, "gateway error: "+err.Error())
	}
	target := MapGatewayStatus(res.Status)

	if p.IsTerminal() {
		if target != p.PaymentStatus && target != model.PaymentStatusPending {
			logger.Warn("[WARN] drift: payment id=%d lokal %s, gateway %s (status terminal dipertahankan)", p.PaymentID, p.PaymentStatus, res.RawStatus)
		}
		return p, nil
	}
	if target == model.PaymentStatusPending {
		return p, nil
	}

	extra := map[string]any{}
	if len(res.Raw) > 0 {
		extra["payment_gateway_data"] = datatypes.JSON(res.Raw)
	}
	if res.GatewayID != "" && (p.PaymentGatewayID == nil || *p.PaymentGatewayID == "") {
		extra["payment_gateway_id"] = res.GatewayID
	}
	changed, err := s.transitionByID(ctx, p.PaymentID, target, res.PaidAt, extra)
	if err != nil {
		return nil, err
	}
	if changed {
		logger.Info("[INFO] sync payment id=%d %s → %s", p.PaymentID, p.PaymentStatus, target)
	}
	return s.GetByID(ctx, p.PaymentID)
}

func (s *PaymentService) CancelPayment(ctx context.Context, id uint64) (*model.PaymentModel, error) {
	var (
		p        model.PaymentModel
		notifyGW bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, "payment_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Payment tidak ditemukan")
			}
			return fmt.Errorf("load payment: %w", err)
		}
		switch p.PaymentStatus {
		case model.PaymentStatusPaid:
			return fiber.NewError(fiber.StatusBadRequest, "cannot cancel a paid payment")
		case model.PaymentStatusCancelled:
			return nil
		case model.PaymentStatusPending:
			changed, err := s.transition(tx, &p, model.PaymentStatusCancelled, nil, nil)
			notifyGW = changed
			return err
		default:
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Payment berstatus %s, tidak bisa dibatalkan", p.PaymentStatus))
		}
	})
	if err != nil {
		return nil, err
	}

	if notifyGW {
		if err := s.gw.CancelPayment(ctx, p.PaymentExternalID); err != nil {
			logger.Warn("[WARN] cancel di gateway gagal (payment_id=%d): %v", p.PaymentID, err)
		}
	}
	return s.GetByID(ctx, id)
}

/* =========================================================
   EXPIRY
========================================================= */

type ExpireResult struct {
	Checked int
	Expired int
	Errors  []string
}

// ExpireDuePayments: PENDING dengan expired_at <= now dipaksa EXPIRED, lokal saja.
func (s *PaymentService) ExpireDuePayments(ctx context.Context, now time.Time) (*ExpireResult, error) {
	var due []model.PaymentModel
	if err := s.db.WithContext(ctx).
		Select("payment_id").
		Where("payment_status = ? AND payment_expired_at IS NOT NULL AND payment_expired_at <= ?", model.PaymentStatusPending, now).
		Order("payment_id ASC").
		Find(&due).Error; err != nil {
		return nil, fmt.Errorf("find due payments: %w", err)
	}

	out := &ExpireResult{Checked: len(due)}
	for _, p := range due {
		changed, err := s.transitionByID(ctx, p.PaymentID, model.PaymentStatusExpired, nil, nil)
		if err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("payment %d: %v", p.PaymentID, err))
			continue
		}
		if changed {
			out.Expired++
		}
	}
	return out, nil
}
