package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	donationModel "galangdana_backend/internals/features/donations/donations/model"
	"galangdana_backend/internals/features/payments/gateway"
	projectModel "galangdana_backend/internals/features/projects/projects/model"
	"galangdana_backend/internals/features/withdrawals/withdrawals/dto"
	"galangdana_backend/internals/features/withdrawals/withdrawals/model"
	helper "galangdana_backend/internals/helpers"
	"galangdana_backend/internals/logger"
)

var externalIDPattern = regexp.MustCompile(`^withdraw-(\d+)$`)

// Actor: identitas pemanggil dari token.
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

type WithdrawalService struct {
	db  *gorm.DB
	gw  gateway.Gateway
	now func() time.Time
}

func NewWithdrawalService(db *gorm.DB, gw gateway.Gateway) *WithdrawalService {
	return &WithdrawalService{db: db, gw: gw, now: time.Now}
}

func (s *WithdrawalService) WithClock(now func() time.Time) *WithdrawalService {
	s.now = now
	return s
}

func DisbursementExternalID(withdrawalID uint64) string {
	return fmt.Sprintf("withdraw-%d", withdrawalID)
}

// ParseDisbursementExternalID mengembalikan withdrawal id dari "withdraw-{id}".
func ParseDisbursementExternalID(externalID string) (uint64, bool) {
	m := externalIDPattern.FindStringSubmatch(strings.TrimSpace(externalID))
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

/* =========================================================
   ELIGIBILITY
========================================================= */

type Eligibility struct {
	Eligible             bool   `json:"eligible"`
	Reason               string `json:"reason,omitempty"`
	AvailableAmount      int64  `json:"available_amount"`
	TotalRaised          int64  `json:"total_raised"`
	PendingWithdrawals   int64  `json:"pending_withdrawals"`
	CompletedWithdrawals int64  `json:"completed_withdrawals"`
	MinimumWithdrawal    int64  `json:"minimum_withdrawal"`
}

func (s *WithdrawalService) CheckEligibility(ctx context.Context, projectID uint64, userID uuid.UUID) (*Eligibility, error) {
	var out *Eligibility
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := loadProject(tx, projectID, false)
		if err != nil {
			return err
		}
		if p.ProjectFundraiserID != userID {
			return fiber.NewError(fiber.StatusForbidden, "Hanya pemilik project yang dapat menarik dana")
		}
		out, err = eligibilityFor(tx, p, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadProject(tx *gorm.DB, projectID uint64, lock bool) (*projectModel.ProjectModel, error) {
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p projectModel.ProjectModel
	if err := q.First(&p, "project_id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Project tidak ditemukan")
		}
		return nil, fmt.Errorf("load project: %w", err)
	}
	return &p, nil
}

// eligibilityFor menghitung dana tersedia; excludeID dipakai saat re-check approval.
func eligibilityFor(tx *gorm.DB, p *projectModel.ProjectModel, excludeID uint64) (*Eligibility, error) {
	raised, err := sumPaidDonations(tx, p.ProjectID)
	if err != nil {
		return nil, err
	}
	pending, err := sumWithdrawals(tx, p.ProjectID, model.InFlightStatuses, excludeID)
	if err != nil {
		return nil, err
	}
	completed, err := sumWithdrawals(tx, p.ProjectID, []model.WithdrawalStatus{model.WithdrawalStatusCompleted}, 0)
	if err != nil {
		return nil, err
	}

	e := &Eligibility{
		TotalRaised:          raised,
		PendingWithdrawals:   pending,
		CompletedWithdrawals: completed,
		AvailableAmount:      raised - completed - pending,
		MinimumWithdrawal:    MinimumWithdrawal,
	}
	switch {
	case !p.AllowsWithdrawal():
		e.Reason = fmt.Sprintf("Project berstatus %s, penarikan dana hanya untuk project ACTIVE atau COMPLETED", p.ProjectStatus)
	case e.AvailableAmount < MinimumWithdrawal:
		e.Reason = fmt.Sprintf("Dana tersedia %d di bawah minimum penarikan %d", e.AvailableAmount, MinimumWithdrawal)
	default:
		e.Eligible = true
	}
	return e, nil
}

func sumPaidDonations(tx *gorm.DB, projectID uint64) (int64, error) {
	var total int64
	if err := tx.Model(&donationModel.DonationModel{}).
		Select("COALESCE(SUM(donation_amount), 0)").
		Where("donation_project_id = ? AND donation_payment_status = ?", projectID, donationModel.DonationStatusPaid).
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum donations: %w", err)
	}
	return total, nil
}

func sumWithdrawals(tx *gorm.DB, projectID uint64, statuses []model.WithdrawalStatus, excludeID uint64) (int64, error) {
	return sumWithdrawalColumn(tx, "withdrawal_amount", projectID, statuses, excludeID)
}

func sumWithdrawalColumn(tx *gorm.DB, column string, projectID uint64, statuses []model.WithdrawalStatus, excludeID uint64) (int64, error) {
	var total int64
	q := tx.Model(&model.WithdrawalModel{}).
		Select(fmt.Sprintf("COALESCE(SUM(%s), 0)", column)).
		Where("withdrawal_project_id = ?", projectID)
	if len(statuses) > 0 {
		q = q.Where("withdrawal_status IN ?", statuses)
	}
	if excludeID > 0 {
		q = q.Where("withdrawal_id <> ?", excludeID)
	}
	if err := q.Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum withdrawals: %w", err)
	}
	return total, nil
}

/* =========================================================
   CREATE
========================================================= */

func (s *WithdrawalService) CreateWithdrawRequest(ctx context.Context, actor Actor, req dto.CreateWithdrawalRequest) (*model.WithdrawalModel, error) {
	var w *model.WithdrawalModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := loadProject(tx, req.ProjectID, true)
		if err != nil {
			return err
		}
		// otorisasi sebelum validasi body apa pun
		if p.ProjectFundraiserID != actor.UserID {
			return fiber.NewError(fiber.StatusForbidden, "Hanya pemilik project yang dapat menarik dana")
		}

		elig, err := eligibilityFor(tx, p, 0)
		if err != nil {
			return err
		}
		if !elig.Eligible {
			return fiber.NewError(fiber.StatusBadRequest, elig.Reason)
		}
		if req.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Nominal penarikan harus lebih dari 0")
		}
		if req.Amount > elig.AvailableAmount {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Insufficient funds: available %d", elig.AvailableAmount))
		}
		method, ok := model.ParseWithdrawalMethod(req.Method)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "Metode penarikan tidak dikenal: "+req.Method)
		}
		if err := helper.Validate.Struct(req); err != nil {
			return err
		}

		now := s.now()
		fee, net := CalculateFee(req.Amount, method)
		w = &model.WithdrawalModel{
			WithdrawalUserID:            actor.UserID,
			WithdrawalProjectID:         p.ProjectID,
			WithdrawalAmount:            req.Amount,
			WithdrawalAvailable:         elig.AvailableAmount,
			WithdrawalCurrency:          "IDR",
			WithdrawalMethod:            method,
			WithdrawalStatus:            model.WithdrawalStatusPending,
			WithdrawalProcessingFee:     fee,
			WithdrawalNetAmount:         net,
			WithdrawalReason:            trimPtr(req.Reason),
			WithdrawalBankName:          trimPtr(req.BankName),
			WithdrawalBankCode:          upperPtr(req.BankCode),
			WithdrawalAccountNumber:     trimPtr(req.AccountNumber),
			WithdrawalAccountHolderName: trimPtr(req.AccountHolderName),
			WithdrawalRequestedAt:       now,
			CreatedAt:                   now,
			UpdatedAt:                   now,
		}
		if method.RequiresBankAccount() && !w.HasCompleteBankAccount() {
			return fiber.NewError(fiber.StatusBadRequest,
				"Data rekening wajib lengkap: bank_name, bank_code, account_number, account_holder_name")
		}
		if err := tx.Create(w).Error; err != nil {
			return fmt.Errorf("create withdrawal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("[INFO] withdrawal dibuat id=%d project_id=%d amount=%d fee=%d net=%d",
		w.WithdrawalID, w.WithdrawalProjectID, w.WithdrawalAmount, w.WithdrawalProcessingFee, w.WithdrawalNetAmount)
	return w, nil
}

/* =========================================================
   STATE MACHINE
========================================================= */

func lockWithdrawal(tx *gorm.DB, id uint64) (*model.WithdrawalModel, error) {
	var w model.WithdrawalModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&w, "withdrawal_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Withdrawal tidak ditemukan")
		}
		return nil, fmt.Errorf("load withdrawal: %w", err)
	}
	return &w, nil
}

func (s *WithdrawalService) CancelWithdrawal(ctx context.Context, actor Actor, id uint64, reason string) (*model.WithdrawalModel, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := lockWithdrawal(tx, id)
		if err != nil {
			return err
		}
		if !actor.IsAdmin && w.WithdrawalUserID != actor.UserID {
			return fiber.NewError(fiber.StatusForbidden, "Hanya pemohon atau admin yang dapat membatalkan withdrawal")
		}
		if !w.CanBeCancelled() {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Withdrawal berstatus %s tidak dapat dibatalkan", w.WithdrawalStatus))
		}
		now := s.now()
		updates := map[string]any{
			"withdrawal_status":       model.WithdrawalStatusCancelled,
			"withdrawal_cancelled_at": now,
			"withdrawal_cancelled_by": actor.UserID,
			"updated_at":              now,
		}
		if r := strings.TrimSpace(reason); r != "" {
			updates["withdrawal_admin_notes"] = appendNote(w.WithdrawalAdminNotes, "dibatalkan: "+r)
		}
		return tx.Model(&model.WithdrawalModel{}).Where("withdrawal_id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	logger.Info("[INFO] withdrawal id=%d dibatalkan oleh %s", id, actor.UserID)
	return s.load(ctx, id)
}

type ApprovalInput struct {
	WithdrawalID     uint64
	Approved         bool
	AdminNotes       *string
	ProcessingMethod *string
}

func (s *WithdrawalService) ProcessApproval(ctx context.Context, actor Actor, in ApprovalInput) (*model.WithdrawalModel, error) {
	if !actor.IsAdmin {
		return nil, fiber.NewError(fiber.StatusForbidden, "Hanya admin yang dapat memproses approval")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := lockWithdrawal(tx, in.WithdrawalID)
		if err != nil {
			return err
		}
		now := s.now()
		updates := map[string]any{"updated_at": now}
		if in.AdminNotes != nil && strings.TrimSpace(*in.AdminNotes) != "" {
			updates["withdrawal_admin_notes"] = appendNote(w.WithdrawalAdminNotes, strings.TrimSpace(*in.AdminNotes))
		}

		if !in.Approved {
			if !w.CanBeRejected() {
				return fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("Withdrawal berstatus %s tidak dapat ditolak", w.WithdrawalStatus))
			}
			updates["withdrawal_status"] = model.WithdrawalStatusRejected
			updates["withdrawal_rejected_at"] = now
			updates["withdrawal_rejected_by"] = actor.UserID
			return tx.Model(&model.WithdrawalModel{}).Where("withdrawal_id = ?", w.WithdrawalID).Updates(updates).Error
		}

		if !w.CanBeApproved() {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Withdrawal berstatus %s tidak dapat disetujui", w.WithdrawalStatus))
		}

		// dana bisa bergeser sejak request dibuat
		p, err := loadProject(tx, w.WithdrawalProjectID, true)
		if err != nil {
			return err
		}
		elig, err := eligibilityFor(tx, p, w.WithdrawalID)
		if err != nil {
			return err
		}
		if !p.AllowsWithdrawal() {
			return fiber.NewError(fiber.StatusBadRequest, elig.Reason)
		}
		if w.WithdrawalAmount > elig.AvailableAmount {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Insufficient funds: available %d", elig.AvailableAmount))
		}

		if in.ProcessingMethod != nil && strings.TrimSpace(*in.ProcessingMethod) != "" {
			method, ok := model.ParseWithdrawalMethod(*in.ProcessingMethod)
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest, "Metode penarikan tidak dikenal: "+*in.ProcessingMethod)
			}
			if method.RequiresBankAccount() && !w.HasCompleteBankAccount() {
				return fiber.NewError(fiber.StatusBadRequest, "Data rekening belum lengkap untuk metode "+string(method))
			}
			updates["withdrawal_method"] = method
		}
		updates["withdrawal_status"] = model.WithdrawalStatusApproved
		updates["withdrawal_approved_at"] = now
		updates["withdrawal_approved_by"] = actor.UserID
		return tx.Model(&model.WithdrawalModel{}).Where("withdrawal_id = ?", w.WithdrawalID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	logger.Info("[INFO] withdrawal id=%d approval=%t oleh admin %s", in.WithdrawalID, in.Approved, actor.UserID)
	return s.load(ctx, in.WithdrawalID)
}

/* =========================================================
   DISBURSEMENT
========================================================= */

// ProcessDisbursement: PROCESSING di-commit dulu, baru gateway dipanggil.
func (s *WithdrawalService) ProcessDisbursement(ctx context.Context, actor Actor, id uint64) (*model.WithdrawalModel, error) {
	if !actor.IsAdmin {
		return nil, fiber.NewError(fiber.StatusForbidden, "Hanya admin yang dapat memproses disbursement")
	}
	var w *model.WithdrawalModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		w, err = lockWithdrawal(tx, id)
		if err != nil {
			return err
		}
		if !w.CanBeProcessed() {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Withdrawal berstatus %s tidak dapat diproses", w.WithdrawalStatus))
		}
		if !w.HasCompleteBankAccount() {
			return fiber.NewError(fiber.StatusBadRequest, "Data rekening withdrawal belum lengkap")
		}
		now := s.now()
		return tx.Model(&model.WithdrawalModel{}).Where("withdrawal_id = ?", id).Updates(map[string]any{
			"withdrawal_status":       model.WithdrawalStatusProcessing,
			"withdrawal_processed_at": now,
			"withdrawal_processed_by": actor.UserID,
			"updated_at":              now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	res, gwErr := s.gw.CreateDisbursement(ctx, gateway.DisbursementRequest{
		ExternalID:        DisbursementExternalID(w.WithdrawalID),
		Amount:            w.WithdrawalNetAmount,
		BankCode:          deref(w.WithdrawalBankCode),
		AccountNumber:     deref(w.WithdrawalAccountNumber),
		AccountHolderName: deref(w.WithdrawalAccountHolderName),
		Description:       fmt.Sprintf("Penarikan dana project #%d", w.WithdrawalProjectID),
	})
	if gwErr != nil {
		note := appendNote(w.WithdrawalAdminNotes, "disbursement gagal: "+gwErr.Error())
		if err := s.db.WithContext(ctx).Model(&model.WithdrawalModel{}).
			Where("withdrawal_id = ? AND withdrawal_status = ?", id, model.WithdrawalStatusProcessing).
			Updates(map[string]any{
				"withdrawal_status":      model.WithdrawalStatusFailed,
				"withdrawal_admin_notes": note,
				"updated_at":             s.now(),
			}).Error; err != nil {
			logger.Error("[ERROR] gagal menandai withdrawal id=%d FAILED: %v", id, err)
		}
		logger.Warn("[WARN] disbursement withdrawal id=%d gagal: %v", id, gwErr)
		return nil, fiber.NewError(fiber.StatusBadGateway, "gateway error: "+gwErr.Error())
	}

	// callback bisa datang lebih dulu dan sudah menulis status final; jangan ditimpa
	stored := s.db.WithContext(ctx).Model(&model.WithdrawalModel{}).
		Where("withdrawal_id = ? AND withdrawal_status = ?", id, model.WithdrawalStatusProcessing).
		Updates(map[string]any{
			"withdrawal_disbursement_id":   res.ID,
			"withdrawal_disbursement_data": datatypes.JSON(res.Raw),
			"updated_at":                   s.now(),
		})
	if stored.Error != nil {
		return nil, fmt.Errorf("store disbursement: %w", stored.Error)
	}
	if stored.RowsAffected == 0 {
		logger.Info("[INFO] withdrawal id=%d sudah diselesaikan callback sebelum respons gateway, data disbursement dipertahankan", id)
	}
	logger.Info("[INFO] disbursement dibuat withdrawal id=%d disbursement_id=%s net=%d", id, res.ID, w.WithdrawalNetAmount)
	return s.load(ctx, id)
}

type DisbursementUpdate struct {
	WithdrawalID uint64                 `json:"withdrawal_id,omitempty"`
	Status       model.WithdrawalStatus `json:"withdrawal_status,omitempty"`
	Changed      bool                   `json:"changed"`
	Ignored      bool                   `json:"ignored"`
	Reason       string                 `json:"reason,omitempty"`
}

// ProcessDisbursementWebhook: callback yang tidak relevan diabaikan tanpa error supaya gateway tidak retry.
func (s *WithdrawalService) ProcessDisbursementWebhook(ctx context.Context, n *gateway.DisbursementNotification) (*DisbursementUpdate, error) {
	if n == nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "payload kosong")
	}
	id, ok := ParseDisbursementExternalID(n.ExternalID)
	if !ok {
		logger.Warn("[WARN] disbursement callback external_id=%q bukan format withdraw-{id}, diabaikan", n.ExternalID)
		return &DisbursementUpdate{Ignored: true, Reason: "external_id tidak dikenali"}, nil
	}

	var out *DisbursementUpdate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := lockWithdrawal(tx, id)
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) && fe.Code == fiber.StatusNotFound {
				out = &DisbursementUpdate{WithdrawalID: id, Ignored: true, Reason: "withdrawal not found"}
				return nil
			}
			return err
		}
		out, err = s.applyDisbursement(tx, w, n.ID, n.Status, n.FailureCode, n.Raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out.Ignored {
		logger.Warn("[WARN] disbursement callback withdrawal id=%d diabaikan: %s", id, out.Reason)
	}
	return out, nil
}

func (s *WithdrawalService) applyDisbursement(
	tx *gorm.DB,
	w *model.WithdrawalModel,
	disbursementID string,
	st gateway.DisbursementStatus,
	failure string,
	raw []byte,
) (*DisbursementUpdate, error) {
	out := &DisbursementUpdate{WithdrawalID: w.WithdrawalID, Status: w.WithdrawalStatus}

	if w.WithdrawalDisbursementID != nil && *w.WithdrawalDisbursementID != "" &&
		disbursementID != "" && *w.WithdrawalDisbursementID != disbursementID {
		out.Ignored = true
		out.Reason = fmt.Sprintf("disbursement id mismatch (tersimpan %s, callback %s)", *w.WithdrawalDisbursementID, disbursementID)
		return out, nil
	}
	if w.WithdrawalStatus != model.WithdrawalStatusProcessing {
		out.Ignored = true
		out.Reason = fmt.Sprintf("withdrawal berstatus %s", w.WithdrawalStatus)
		return out, nil
	}

	now := s.now()
	updates := map[string]any{"updated_at": now}
	if len(raw) > 0 {
		updates["withdrawal_disbursement_data"] = datatypes.JSON(raw)
	}
	if (w.WithdrawalDisbursementID == nil || *w.WithdrawalDisbursementID == "") && disbursementID != "" {
		updates["withdrawal_disbursement_id"] = disbursementID
	}

	switch st {
	case gateway.DisbursementCompleted:
		updates["withdrawal_status"] = model.WithdrawalStatusCompleted
		updates["withdrawal_completed_at"] = now
		out.Status = model.WithdrawalStatusCompleted
		out.Changed = true
	case gateway.DisbursementFailed:
		if failure == "" {
			failure = "unknown"
		}
		updates["withdrawal_status"] = model.WithdrawalStatusFailed
		updates["withdrawal_admin_notes"] = appendNote(w.WithdrawalAdminNotes, "disbursement gagal: "+failure)
		out.Status = model.WithdrawalStatusFailed
		out.Changed = true
	}

	if err := tx.Model(&model.WithdrawalModel{}).
		Where("withdrawal_id = ? AND withdrawal_status = ?", w.WithdrawalID, model.WithdrawalStatusProcessing).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update withdrawal: %w", err)
	}
	if out.Changed {
		logger.Info("[INFO] withdrawal id=%d → %s", w.WithdrawalID, out.Status)
	}
	return out, nil
}

// SyncDisbursement menanyakan status payout ke gateway untuk withdrawal PROCESSING.
func (s *WithdrawalService) SyncDisbursement(ctx context.Context, id uint64) (*DisbursementUpdate, error) {
	w, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.WithdrawalStatus != model.WithdrawalStatusProcessing || w.WithdrawalDisbursementID == nil || *w.WithdrawalDisbursementID == "" {
		return &DisbursementUpdate{WithdrawalID: id, Status: w.WithdrawalStatus, Ignored: true, Reason: "tidak ada disbursement berjalan"}, nil
	}
	res, err := s.gw.GetDisbursement(ctx, *w.WithdrawalDisbursementID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadGateway, "gateway error: "+err.Error())
	}

	var out *DisbursementUpdate
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockWithdrawal(tx, id)
		if err != nil {
			return err
		}
		out, err = s.applyDisbursement(tx, locked, res.ID, res.Status, res.FailureCode, res.Raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ProcessingWithDisbursement: id withdrawal PROCESSING yang sudah punya disbursement id.
func (s *WithdrawalService) ProcessingWithDisbursement(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	if err := s.db.WithContext(ctx).Model(&model.WithdrawalModel{}).
		Where("withdrawal_status = ? AND withdrawal_disbursement_id IS NOT NULL AND withdrawal_disbursement_id <> ''", model.WithdrawalStatusProcessing).
		Order("withdrawal_id ASC").
		Pluck("withdrawal_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list processing withdrawals: %w", err)
	}
	return ids, nil
}

/* =========================================================
   STATS & QUERIES
========================================================= */

type WithdrawStats struct {
	ProjectID       uint64 `json:"project_id"`
	TotalRaised     int64  `json:"total_raised"`
	TotalRequested  int64  `json:"total_requested"`
	TotalCompleted  int64  `json:"total_completed"`
	TotalPending    int64  `json:"total_pending"`
	AvailableAmount int64  `json:"available_amount"`
	TotalFees       int64  `json:"total_fees"`
}

func (s *WithdrawalService) GetProjectWithdrawStats(ctx context.Context, actor Actor, projectID uint64) (*WithdrawStats, error) {
	var out WithdrawStats
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := loadProject(tx, projectID, false)
		if err != nil {
			return err
		}
		if !actor.IsAdmin && p.ProjectFundraiserID != actor.UserID {
			return fiber.NewError(fiber.StatusForbidden, "Hanya pemilik project atau admin")
		}
		elig, err := eligibilityFor(tx, p, 0)
		if err != nil {
			return err
		}
		requested, err := sumWithdrawals(tx, projectID, nil, 0)
		if err != nil {
			return err
		}
		fees, err := sumWithdrawalColumn(tx, "withdrawal_processing_fee", projectID,
			[]model.WithdrawalStatus{model.WithdrawalStatusCompleted}, 0)
		if err != nil {
			return err
		}
		out = WithdrawStats{
			ProjectID:       projectID,
			TotalRaised:     elig.TotalRaised,
			TotalRequested:  requested,
			TotalCompleted:  elig.CompletedWithdrawals,
			TotalPending:    elig.PendingWithdrawals,
			AvailableAmount: elig.AvailableAmount,
			TotalFees:       fees,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *WithdrawalService) load(ctx context.Context, id uint64) (*model.WithdrawalModel, error) {
	var w model.WithdrawalModel
	if err := s.db.WithContext(ctx).First(&w, "withdrawal_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Withdrawal tidak ditemukan")
		}
		return nil, fmt.Errorf("load withdrawal: %w", err)
	}
	return &w, nil
}

func (s *WithdrawalService) GetByID(ctx context.Context, actor Actor, id uint64) (*model.WithdrawalModel, error) {
	w, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && w.WithdrawalUserID != actor.UserID {
		return nil, fiber.NewError(fiber.StatusForbidden, "Hanya pemohon atau admin")
	}
	return w, nil
}

type ListFilter struct {
	Status    string
	ProjectID uint64
	UserID    *uuid.UUID
}

func (s *WithdrawalService) List(ctx context.Context, f ListFilter, p helper.Paging) ([]model.WithdrawalModel, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.WithdrawalModel{})
	if f.UserID != nil {
		q = q.Where("withdrawal_user_id = ?", *f.UserID)
	}
	if f.ProjectID > 0 {
		q = q.Where("withdrawal_project_id = ?", f.ProjectID)
	}
	if st := strings.ToUpper(strings.TrimSpace(f.Status)); st != "" {
		q = q.Where("withdrawal_status = ?", st)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count withdrawals: %w", err)
	}
	var out []model.WithdrawalModel
	if err := q.Order("withdrawal_requested_at DESC, withdrawal_id DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list withdrawals: %w", err)
	}
	return out, total, nil
}

func (s *WithdrawalService) ListMine(ctx context.Context, userID uuid.UUID, status string, p helper.Paging) ([]model.WithdrawalModel, int64, error) {
	return s.List(ctx, ListFilter{UserID: &userID, Status: status}, p)
}

/* =========================================================
   utils
========================================================= */

func appendNote(existing *string, note string) string {
	if existing == nil || strings.TrimSpace(*existing) == "" {
		return note
	}
	return *existing + "\n" + note
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func upperPtr(s *string) *string {
	v := trimPtr(s)
	if v == nil {
		return nil
	}
	u := strings.ToUpper(*v)
	return &u
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
