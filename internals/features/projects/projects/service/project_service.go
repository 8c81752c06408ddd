package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	donationModel "galangdana_backend/internals/features/donations/donations/model"
	"galangdana_backend/internals/features/projects/projects/dto"
	"galangdana_backend/internals/features/projects/projects/model"
	withdrawalModel "galangdana_backend/internals/features/withdrawals/withdrawals/model"
	helper "galangdana_backend/internals/helpers"
	"galangdana_backend/internals/logger"
)

type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

type ProjectService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db, now: time.Now}
}

func (s *ProjectService) WithClock(now func() time.Time) *ProjectService {
	s.now = now
	return s
}

var sortColumns = map[string]string{
	"created_at":     "created_at",
	"end_date":       "project_end_date",
	"target_amount":  "project_target_amount",
	"current_amount": "project_current_amount",
	"title":          "project_title",
}

func cleanImages(in []string) model.ImageList {
	out := make(model.ImageList, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

/* ===================== CREATE ===================== */

func (s *ProjectService) Create(ctx context.Context, fundraiser uuid.UUID, req dto.CreateProjectRequest) (*model.ProjectModel, error) {
	// entri kosong dibuang sebelum validasi url
	req.Images = []string(cleanImages(req.Images))
	if err := helper.Validate.Struct(req); err != nil {
		return nil, err
	}
	now := s.now()
	start := now
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if !req.EndDate.After(start) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "end_date harus setelah start_date")
	}
	if !req.EndDate.After(now) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "end_date sudah lewat")
	}

	p := &model.ProjectModel{
		ProjectTitle:        strings.TrimSpace(req.Title),
		ProjectDescription:  strings.TrimSpace(req.Description),
		ProjectImages:       model.ImageList(req.Images),
		ProjectTargetAmount: req.TargetAmount,
		ProjectStartDate:    start,
		ProjectEndDate:      req.EndDate,
		ProjectStatus:       model.ProjectStatusActive,
		ProjectFundraiserID: fundraiser,
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	logger.Info("[INFO] project dibuat id=%d fundraiser=%s target=%d", p.ProjectID, fundraiser, p.ProjectTargetAmount)
	return p, nil
}

/* ===================== READ ===================== */

func (s *ProjectService) GetByID(ctx context.Context, id uint64) (*model.ProjectModel, error) {
	var p model.ProjectModel
	err := s.db.WithContext(ctx).First(&p, "project_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Project tidak ditemukan")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type ListFilter struct {
	Status       string
	FundraiserID *uuid.UUID
	Q            string
}

func (s *ProjectService) List(ctx context.Context, f ListFilter, sort helper.Sort, p helper.Paging) ([]model.ProjectModel, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.ProjectModel{})
	if st := model.ProjectStatus(strings.ToUpper(strings.TrimSpace(f.Status))); st != "" {
		if !st.Valid() {
			return nil, 0, fiber.NewError(fiber.StatusBadRequest, "status tidak valid")
		}
		q = q.Where("project_status = ?", st)
	}
	if f.FundraiserID != nil {
		q = q.Where("project_fundraiser_id = ?", *f.FundraiserID)
	}
	if kw := strings.ToLower(strings.TrimSpace(f.Q)); kw != "" {
		q = q.Where("LOWER(project_title) LIKE ?", "%"+kw+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.ProjectModel
	if err := q.Order(sort.OrderClause(sortColumns, "created_at")).
		Order("project_id DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

/* ===================== UPDATE ===================== */

func (s *ProjectService) lockOwned(tx *gorm.DB, actor Actor, id uint64) (*model.ProjectModel, error) {
	var p model.ProjectModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "project_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Project tidak ditemukan")
	}
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && p.ProjectFundraiserID != actor.UserID {
		return nil, fiber.NewError(fiber.StatusForbidden, "Hanya pemilik project yang boleh mengubah project ini")
	}
	return &p, nil
}

func (s *ProjectService) Update(ctx context.Context, actor Actor, id uint64, req dto.UpdateProjectRequest) (*model.ProjectModel, error) {
	if req.Images != nil {
		imgs := []string(cleanImages(*req.Images))
		req.Images = &imgs
	}
	if err := helper.Validate.Struct(req); err != nil {
		return nil, err
	}
	var out *model.ProjectModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.lockOwned(tx, actor, id)
		if err != nil {
			return err
		}
		if p.ProjectStatus == model.ProjectStatusCancelled || p.ProjectStatus == model.ProjectStatusCompleted {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Project berstatus %s tidak bisa diubah", p.ProjectStatus))
		}

		updates := map[string]interface{}{}
		if req.Title != nil {
			updates["project_title"] = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			updates["project_description"] = strings.TrimSpace(*req.Description)
		}
		if req.Images != nil {
			updates["project_images"] = model.ImageList(*req.Images)
		}
		if req.TargetAmount != nil {
			updates["project_target_amount"] = *req.TargetAmount
		}
		if req.EndDate != nil {
			if !req.EndDate.After(p.ProjectStartDate) {
				return fiber.NewError(fiber.StatusBadRequest, "end_date harus setelah start_date")
			}
			updates["project_end_date"] = *req.EndDate
		}
		if len(updates) == 0 {
			out = p
			return nil
		}
		if err := tx.Model(p).Updates(updates).Error; err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		var fresh model.ProjectModel
		if err := tx.First(&fresh, "project_id = ?", id).Error; err != nil {
			return err
		}
		out = &fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus: koreksi status manual oleh admin (mis. CLOSED → COMPLETED).
func (s *ProjectService) SetStatus(ctx context.Context, actor Actor, id uint64, status string) (*model.ProjectModel, error) {
	if !actor.IsAdmin {
		return nil, fiber.NewError(fiber.StatusForbidden, "Hanya admin yang boleh mengubah status project")
	}
	st := model.ProjectStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !st.Valid() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "status tidak valid")
	}
	var out *model.ProjectModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.lockOwned(tx, actor, id)
		if err != nil {
			return err
		}
		if p.ProjectStatus == st {
			out = p
			return nil
		}
		if err := tx.Model(p).Update("project_status", st).Error; err != nil {
			return fmt.Errorf("update project status: %w", err)
		}
		logger.Info("[INFO] project id=%d status %s → %s oleh admin %s", id, p.ProjectStatus, st, actor.UserID)
		p.ProjectStatus = st
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

/* ===================== DELETE ===================== */

// Delete (soft). Project yang sudah punya donasi PAID hanya bisa dihapus admin dengan force.
// Withdrawal yang masih berjalan selalu menahan penghapusan.
func (s *ProjectService) Delete(ctx context.Context, actor Actor, id uint64, force bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.lockOwned(tx, actor, id)
		if err != nil {
			return err
		}
		var paid int64
		if err := tx.Model(&donationModel.DonationModel{}).
			Where("donation_project_id = ? AND donation_payment_status = ?", id, donationModel.DonationStatusPaid).
			Count(&paid).Error; err != nil {
			return err
		}
		if paid > 0 && !(actor.IsAdmin && force) {
			return fiber.NewError(fiber.StatusBadRequest, "Project sudah menerima donasi, tidak bisa dihapus")
		}
		var inFlight int64
		if err := tx.Model(&withdrawalModel.WithdrawalModel{}).
			Where("withdrawal_project_id = ? AND withdrawal_status IN ?", id, withdrawalModel.InFlightStatuses).
			Count(&inFlight).Error; err != nil {
			return err
		}
		if inFlight > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Project masih punya penarikan dana yang berjalan")
		}
		if err := tx.Delete(p).Error; err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		logger.Info("[INFO] project id=%d dihapus oleh %s (paid_donations=%d force=%v)", id, actor.UserID, paid, force)
		return nil
	})
}

/* ===================== STATUS SWEEP ===================== */

type SweepResult struct {
	Checked int      `json:"checked"`
	Closed  []uint64 `json:"closed"`
}

// SweepStatuses menutup project ACTIVE yang targetnya tercapai atau end date-nya lewat.
func (s *ProjectService) SweepStatuses(ctx context.Context) (*SweepResult, error) {
	now := s.now()
	var candidates []model.ProjectModel
	if err := s.db.WithContext(ctx).
		Where("project_status = ? AND (project_current_amount >= project_target_amount OR project_end_date < ?)",
			model.ProjectStatusActive, now).
		Order("project_id ASC").
		Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("select projects: %w", err)
	}

	res := &SweepResult{Checked: len(candidates), Closed: []uint64{}}
	for i := range candidates {
		p := &candidates[i]
		if !p.ShouldClose(now) {
			continue
		}
		tx := s.db.WithContext(ctx).Model(&model.ProjectModel{}).
			Where("project_id = ? AND project_status = ?", p.ProjectID, model.ProjectStatusActive).
			Update("project_status", model.ProjectStatusClosed)
		if tx.Error != nil {
			logger.Error("[ERROR] sweep project id=%d gagal: %v", p.ProjectID, tx.Error)
			continue
		}
		if tx.RowsAffected > 0 {
			res.Closed = append(res.Closed, p.ProjectID)
		}
	}
	if len(res.Closed) > 0 {
		logger.Info("[INFO] sweep project: %d ditutup dari %d kandidat", len(res.Closed), res.Checked)
	}
	return res, nil
}
