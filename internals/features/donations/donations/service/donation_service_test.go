package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"galangdana_backend/internals/features/donations/donations/dto"
	"galangdana_backend/internals/features/donations/donations/model"
	projectModel "galangdana_backend/internals/features/projects/projects/model"
	helper "galangdana_backend/internals/helpers"
	"galangdana_backend/internals/testutil"
)

func fiberCode(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return 0
}

func TestCreateDonation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewDonationService(db).WithClock(testutil.Clock)
	p := testutil.CreateProject(t, db, uuid.New())
	ctx := context.Background()
	user := uuid.New()

	t.Run("logged in donor", func(t *testing.T) {
		d, err := svc.Create(ctx, &user, dto.CreateDonationRequest{ProjectID: p.ProjectID, Amount: 50_000, DonorName: " Fulan "})
		if err != nil {
			t.Fatal(err)
		}
		if d.DonationUserID == nil || *d.DonationUserID != user || d.DonationDonorName != "Fulan" {
			t.Fatalf("donation = %+v", d)
		}
		if d.DonationPaymentStatus != model.DonationStatusPending {
			t.Fatalf("status = %s", d.DonationPaymentStatus)
		}
	})

	t.Run("anonymous drops identity", func(t *testing.T) {
		d, err := svc.Create(ctx, &user, dto.CreateDonationRequest{ProjectID: p.ProjectID, Amount: 10_000, IsAnonymous: true, DonorName: "Fulan"})
		if err != nil {
			t.Fatal(err)
		}
		if d.DonationUserID != nil || d.DonationDonorName != model.AnonymousDonorName {
			t.Fatalf("donation = %+v", d)
		}
	})

	t.Run("guest without name", func(t *testing.T) {
		d, err := svc.Create(ctx, nil, dto.CreateDonationRequest{ProjectID: p.ProjectID, Amount: 10_000})
		if err != nil {
			t.Fatal(err)
		}
		if d.DonationUserID != nil || d.DonationDonorName != model.AnonymousDonorName {
			t.Fatalf("donation = %+v", d)
		}
	})

	closed := testutil.CreateProject(t, db, uuid.New(), func(p *projectModel.ProjectModel) {
		p.ProjectStatus = projectModel.ProjectStatusClosed
	})
	notStarted := testutil.CreateProject(t, db, uuid.New(), func(p *projectModel.ProjectModel) {
		p.ProjectStartDate = testutil.Now.Add(time.Hour)
	})

	cases := []struct {
		name string
		req  dto.CreateDonationRequest
		code int
	}{
		{"closed project", dto.CreateDonationRequest{ProjectID: closed.ProjectID, Amount: 1000}, fiber.StatusBadRequest},
		{"before start date", dto.CreateDonationRequest{ProjectID: notStarted.ProjectID, Amount: 1000}, fiber.StatusBadRequest},
		{"unknown project", dto.CreateDonationRequest{ProjectID: 9999, Amount: 1000}, fiber.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, nil, tc.req); fiberCode(err) != tc.code {
				t.Fatalf("err = %v, want %d", err, tc.code)
			}
		})
	}

	t.Run("zero amount", func(t *testing.T) {
		if _, err := svc.Create(ctx, nil, dto.CreateDonationRequest{ProjectID: p.ProjectID}); err == nil {
			t.Fatal("expected validation error")
		}
	})
}

func TestListDonations(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewDonationService(db).WithClock(testutil.Clock)
	p := testutil.CreateProject(t, db, uuid.New())
	ctx := context.Background()
	user := uuid.New()

	mine, err := svc.Create(ctx, &user, dto.CreateDonationRequest{ProjectID: p.ProjectID, Amount: 25_000, DonorName: "Fulan"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, &user, dto.CreateDonationRequest{ProjectID: p.ProjectID, Amount: 15_000, IsAnonymous: true}); err != nil {
		t.Fatal(err)
	}
	testutil.CreateDonation(t, db, p.ProjectID, 100_000, model.DonationStatusPaid)
	if err := db.Model(mine).Updates(map[string]interface{}{
		"donation_payment_status": model.DonationStatusPaid,
		"donation_paid_at":        testutil.Now.Add(time.Minute),
	}).Error; err != nil {
		t.Fatal(err)
	}

	paging := helper.Paging{Page: 1, PerPage: 10, Limit: 10}
	list, total, err := svc.ListPaidByProject(ctx, p.ProjectID, paging)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || list[0].DonationID != mine.DonationID {
		t.Fatalf("total=%d first=%+v", total, list)
	}

	// donasi anonim tidak terhubung ke user, jadi tidak muncul di "mine"
	list, total, err = svc.ListMine(ctx, user, "", paging)
	if err != nil || total != 1 || list[0].DonationID != mine.DonationID {
		t.Fatalf("mine total=%d err=%v", total, err)
	}
	if _, total, _ = svc.ListMine(ctx, user, "pending", paging); total != 0 {
		t.Fatalf("pending mine = %d", total)
	}
}

func TestPublicListHidesAnonymousDonor(t *testing.T) {
	out := dto.ToPublic([]model.DonationModel{
		{DonationID: 1, DonationDonorName: "Fulan", DonationAmount: 1000},
		{DonationID: 2, DonationDonorName: "Rahasia", DonationAmount: 2000, DonationIsAnonymous: true},
	})
	if out[0].DonorName != "Fulan" || out[1].DonorName != model.AnonymousDonorName {
		t.Fatalf("out = %+v", out)
	}
}
