package projects

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"galangdana_backend/internals/features/projects/projects/model"
	"galangdana_backend/internals/logger"
)

// ProjectSeed: satu baris data_projects.json. end_in_days relatif terhadap waktu seed.
type ProjectSeed struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Images       []string  `json:"images"`
	TargetAmount int64     `json:"target_amount"`
	EndInDays    int       `json:"end_in_days"`
	FundraiserID uuid.UUID `json:"fundraiser_id"`
}

// SeedProjectsFromJSON mengembalikan jumlah project baru. Judul yang sudah ada dilewati.
func SeedProjectsFromJSON(db *gorm.DB, filePath string, now time.Time) (int, error) {
	logger.Info("[INFO] seed projects dari %s", filePath)

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("baca file seed: %w", err)
	}
	var rows []ProjectSeed
	if err := sonic.Unmarshal(raw, &rows); err != nil {
		return 0, fmt.Errorf("decode seed: %w", err)
	}

	created := 0
	for _, r := range rows {
		title := strings.TrimSpace(r.Title)
		if title == "" || r.TargetAmount <= 0 || r.EndInDays <= 0 || r.FundraiserID == uuid.Nil {
			logger.Warn("[WARN] seed project %q tidak valid, lewati", r.Title)
			continue
		}

		var n int64
		if err := db.Model(&model.ProjectModel{}).Where("project_title = ?", title).Count(&n).Error; err != nil {
			return created, err
		}
		if n > 0 {
			logger.Info("[INFO] project %q sudah ada, lewati", title)
			continue
		}

		p := model.ProjectModel{
			ProjectTitle:        title,
			ProjectDescription:  r.Description,
			ProjectImages:       model.ImageList(r.Images),
			ProjectTargetAmount: r.TargetAmount,
			ProjectStartDate:    now,
			ProjectEndDate:      now.AddDate(0, 0, r.EndInDays),
			ProjectStatus:       model.ProjectStatusActive,
			ProjectFundraiserID: r.FundraiserID,
		}
		if err := db.Create(&p).Error; err != nil {
			return created, fmt.Errorf("insert project %q: %w", title, err)
		}
		created++
	}
	logger.Info("[INFO] seed projects selesai: %d baru", created)
	return created, nil
}
