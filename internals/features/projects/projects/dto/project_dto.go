package dto

import (
	"time"

	"github.com/google/uuid"

	"galangdana_backend/internals/features/projects/projects/model"
)

/* ===================== REQUESTS ===================== */

type CreateProjectRequest struct {
	Title        string     `json:"title" validate:"required,min=3,max=200"`
	Description  string     `json:"description" validate:"omitempty,max=20000"`
	Images       []string   `json:"images" validate:"omitempty,max=10,dive,url"`
	TargetAmount int64      `json:"target_amount" validate:"required,gt=0"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      time.Time  `json:"end_date" validate:"required"`
}

// UpdateProjectRequest: field nil = tidak diubah.
type UpdateProjectRequest struct {
	Title        *string    `json:"title" validate:"omitempty,min=3,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=20000"`
	Images       *[]string  `json:"images" validate:"omitempty,max=10,dive,url"`
	TargetAmount *int64     `json:"target_amount" validate:"omitempty,gt=0"`
	EndDate      *time.Time `json:"end_date"`
}

type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE CLOSED CANCELLED COMPLETED"`
}

/* ===================== RESPONSES ===================== */

type ProjectResponse struct {
	ProjectID            uint64              `json:"project_id"`
	ProjectTitle         string              `json:"project_title"`
	ProjectDescription   string              `json:"project_description"`
	ProjectImages        []string            `json:"project_images"`
	ProjectTargetAmount  int64               `json:"project_target_amount"`
	ProjectCurrentAmount int64               `json:"project_current_amount"`
	ProjectProgress      float64             `json:"project_progress"`
	ProjectStartDate     time.Time           `json:"project_start_date"`
	ProjectEndDate       time.Time           `json:"project_end_date"`
	ProjectStatus        model.ProjectStatus `json:"project_status"`
	ProjectFundraiserID  uuid.UUID           `json:"project_fundraiser_id"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// progress dalam persen, dua desimal, maksimal 100
func progress(current, target int64) float64 {
	if target <= 0 {
		return 0
	}
	if current >= target {
		return 100
	}
	bp := current * 10000 / target
	return float64(bp) / 100
}

func FromModel(m *model.ProjectModel) ProjectResponse {
	images := []string(m.ProjectImages)
	if images == nil {
		images = []string{}
	}
	return ProjectResponse{
		ProjectID:            m.ProjectID,
		ProjectTitle:         m.ProjectTitle,
		ProjectDescription:   m.ProjectDescription,
		ProjectImages:        images,
		ProjectTargetAmount:  m.ProjectTargetAmount,
		ProjectCurrentAmount: m.ProjectCurrentAmount,
		ProjectProgress:      progress(m.ProjectCurrentAmount, m.ProjectTargetAmount),
		ProjectStartDate:     m.ProjectStartDate,
		ProjectEndDate:       m.ProjectEndDate,
		ProjectStatus:        m.ProjectStatus,
		ProjectFundraiserID:  m.ProjectFundraiserID,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func FromModels(list []model.ProjectModel) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(list))
	for i := range list {
		out = append(out, FromModel(&list[i]))
	}
	return out
}
