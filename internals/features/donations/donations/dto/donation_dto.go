package dto

import (
	"time"

	"github.com/google/uuid"

	"galangdana_backend/internals/features/donations/donations/model"
)

type CreateDonationRequest struct {
	ProjectID   uint64  `json:"project_id" validate:"required,gt=0"`
	Amount      int64   `json:"amount" validate:"required,gt=0"`
	IsAnonymous bool    `json:"is_anonymous"`
	DonorName   string  `json:"donor_name" validate:"omitempty,max=120"`
	Message     *string `json:"message" validate:"omitempty,max=1000"`
}

type DonationResponse struct {
	DonationID            uint64               `json:"donation_id"`
	DonationProjectID     uint64               `json:"donation_project_id"`
	DonationUserID        *uuid.UUID           `json:"donation_user_id,omitempty"`
	DonationAmount        int64                `json:"donation_amount"`
	DonationIsAnonymous   bool                 `json:"donation_is_anonymous"`
	DonationDonorName     string               `json:"donation_donor_name"`
	DonationMessage       *string              `json:"donation_message,omitempty"`
	DonationPaymentStatus model.DonationStatus `json:"donation_payment_status"`
	DonationPaymentMethod *string              `json:"donation_payment_method,omitempty"`
	DonationPaidAt        *time.Time           `json:"donation_paid_at,omitempty"`
	CreatedAt             time.Time            `json:"created_at"`
}

func FromModel(m *model.DonationModel) DonationResponse {
	return DonationResponse{
		DonationID:            m.DonationID,
		DonationProjectID:     m.DonationProjectID,
		DonationUserID:        m.DonationUserID,
		DonationAmount:        m.DonationAmount,
		DonationIsAnonymous:   m.DonationIsAnonymous,
		DonationDonorName:     m.DonationDonorName,
		DonationMessage:       m.DonationMessage,
		DonationPaymentStatus: m.DonationPaymentStatus,
		DonationPaymentMethod: m.DonationPaymentMethod,
		DonationPaidAt:        m.DonationPaidAt,
		CreatedAt:             m.CreatedAt,
	}
}

func FromModels(list []model.DonationModel) []DonationResponse {
	out := make([]DonationResponse, 0, len(list))
	for i := range list {
		out = append(out, FromModel(&list[i]))
	}
	return out
}

// PublicDonationResponse: daftar donatur di halaman project. Donatur anonim tidak membawa identitas.
type PublicDonationResponse struct {
	DonationID     uint64     `json:"donation_id"`
	DonorName      string     `json:"donor_name"`
	Amount         int64      `json:"amount"`
	Message        *string    `json:"message,omitempty"`
	IsAnonymous    bool       `json:"is_anonymous"`
	DonationPaidAt *time.Time `json:"paid_at,omitempty"`
}

func ToPublic(list []model.DonationModel) []PublicDonationResponse {
	out := make([]PublicDonationResponse, 0, len(list))
	for _, d := range list {
		name := d.DonationDonorName
		if d.DonationIsAnonymous {
			name = model.AnonymousDonorName
		}
		out = append(out, PublicDonationResponse{
			DonationID:     d.DonationID,
			DonorName:      name,
			Amount:         d.DonationAmount,
			Message:        d.DonationMessage,
			IsAnonymous:    d.DonationIsAnonymous,
			DonationPaidAt: d.DonationPaidAt,
		})
	}
	return out
}
