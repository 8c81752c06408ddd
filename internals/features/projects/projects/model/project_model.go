package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusClosed    ProjectStatus = "CLOSED"
	ProjectStatusCancelled ProjectStatus = "CANCELLED"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusClosed, ProjectStatusCancelled, ProjectStatusCompleted:
		return true
	}
	return false
}

// ImageList disimpan sebagai text[] di postgres (codec lib/pq).
type ImageList []string

func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		return pq.StringArray{}.Value()
	}
	return pq.StringArray(l).Value()
}

func (l *ImageList) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*l = ImageList(arr)
	return nil
}

func (ImageList) GormDataType() string { return "text[]" }

func (ImageList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

type ProjectModel struct {
	ProjectID            uint64        `gorm:"column:project_id;primaryKey;autoIncrement" json:"project_id"`
	ProjectTitle         string        `gorm:"column:project_title;type:varchar(200);not null" json:"project_title"`
	ProjectDescription   string        `gorm:"column:project_description;type:text" json:"project_description"`
	ProjectImages        ImageList     `gorm:"column:project_images" json:"project_images"`
	ProjectTargetAmount  int64         `gorm:"column:project_target_amount;not null" json:"project_target_amount"`
	ProjectCurrentAmount int64         `gorm:"column:project_current_amount;not null;default:0" json:"project_current_amount"`
	ProjectStartDate     time.Time     `gorm:"column:project_start_date;not null" json:"project_start_date"`
	ProjectEndDate       time.Time     `gorm:"column:project_end_date;not null" json:"project_end_date"`
	ProjectStatus        ProjectStatus `gorm:"column:project_status;type:varchar(20);not null;default:'ACTIVE';index" json:"project_status"`
	ProjectFundraiserID  uuid.UUID     `gorm:"column:project_fundraiser_id;type:uuid;not null;index" json:"project_fundraiser_id"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (ProjectModel) TableName() string {
	return "projects"
}

// AllowsWithdrawal: dana hanya bisa ditarik dari project ACTIVE atau COMPLETED.
func (p *ProjectModel) AllowsWithdrawal() bool {
	return p.ProjectStatus == ProjectStatusActive || p.ProjectStatus == ProjectStatusCompleted
}

func (p *ProjectModel) AcceptsDonation(now time.Time) bool {
	if p.ProjectStatus != ProjectStatusActive {
		return false
	}
	return !now.Before(p.ProjectStartDate) && !now.After(p.ProjectEndDate)
}

// ShouldClose: target tercapai atau sudah lewat end date.
func (p *ProjectModel) ShouldClose(now time.Time) bool {
	if p.ProjectStatus != ProjectStatusActive {
		return false
	}
	return p.ProjectCurrentAmount >= p.ProjectTargetAmount || now.After(p.ProjectEndDate)
}
