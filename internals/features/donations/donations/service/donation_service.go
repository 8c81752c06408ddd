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

	"galangdana_backend/internals/features/donations/donations/dto"
	"galangdana_backend/internals/features/donations/donations/model"
	projectModel "galangdana_backend/internals/features/projects/projects/model"
	helper "galangdana_backend/internals/helpers"
	"galangdana_backend/internals/logger"
)

type DonationService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDonationService(db *gorm.DB) *DonationService {
	return &DonationService{db: db, now: time.Now}
}

func (s *DonationService) WithClock(now func() time.Time) *DonationService {
	s.now = now
	return s
}

// Create membuat donasi PENDING. userID nil = donatur tamu.
// Donasi anonim tidak menyimpan user id dan nama donatur jadi "Hamba Allah".
func (s *DonationService) Create(ctx context.Context, userID *uuid.UUID, req dto.CreateDonationRequest) (*model.DonationModel, error) {
	if err := helper.Validate.Struct(req); err != nil {
		return nil, err
	}

	var p projectModel.ProjectModel
	err := s.db.WithContext(ctx).First(&p, "project_id = ?", req.ProjectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Project tidak ditemukan")
	}
	if err != nil {
		return nil, err
	}
	if !p.AcceptsDonation(s.now()) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Project tidak sedang menerima donasi")
	}

	name := strings.TrimSpace(req.DonorName)
	owner := userID
	if req.IsAnonymous {
		owner = nil
		name = model.AnonymousDonorName
	}
	if name == "" {
		name = model.AnonymousDonorName
	}

	var msg *string
	if req.Message != nil {
		if m := strings.TrimSpace(*req.Message); m != "" {
			msg = &m
		}
	}

	d := &model.DonationModel{
		DonationProjectID:     p.ProjectID,
		DonationUserID:        owner,
		DonationAmount:        req.Amount,
		DonationIsAnonymous:   req.IsAnonymous,
		DonationDonorName:     name,
		DonationMessage:       msg,
		DonationPaymentStatus: model.DonationStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}
	logger.Info("[INFO] donasi dibuat id=%d project=%d amount=%d anonymous=%v", d.DonationID, p.ProjectID, d.DonationAmount, d.DonationIsAnonymous)
	return d, nil
}

func (s *DonationService) GetByID(ctx context.Context, id uint64) (*model.DonationModel, error) {
	var d model.DonationModel
	err := s.db.WithContext(ctx).First(&d, "donation_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Donation tidak ditemukan")
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListPaidByProject: hanya donasi PAID, terbaru dulu.
func (s *DonationService) ListPaidByProject(ctx context.Context, projectID uint64, p helper.Paging) ([]model.DonationModel, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.DonationModel{}).
		Where("donation_project_id = ? AND donation_payment_status = ?", projectID, model.DonationStatusPaid)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.DonationModel
	if err := q.Order("donation_paid_at DESC").Order("donation_id DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (s *DonationService) ListMine(ctx context.Context, userID uuid.UUID, status string, p helper.Paging) ([]model.DonationModel, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.DonationModel{}).Where("donation_user_id = ?", userID)
	if st := strings.ToUpper(strings.TrimSpace(status)); st != "" {
		q = q.Where("donation_payment_status = ?", st)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.DonationModel
	if err := q.Order("created_at DESC").Order("donation_id DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
