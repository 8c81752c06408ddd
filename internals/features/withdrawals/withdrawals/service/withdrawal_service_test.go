package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	donationModel "galangdana_backend/internals/features/donations/donations/model"
	"galangdana_backend/internals/features/payments/gateway"
	projectModel "galangdana_backend/internals/features/projects/projects/model"
	"galangdana_backend/internals/features/withdrawals/withdrawals/dto"
	"galangdana_backend/internals/features/withdrawals/withdrawals/model"
	helper "galangdana_backend/internals/helpers"
	"galangdana_backend/internals/testutil"
)

type fixture struct {
	svc     *WithdrawalService
	gw      *gateway.Mock
	db      *gorm.DB
	owner   Actor
	admin   Actor
	project *projectModel.ProjectModel
}

// newFixture: project dengan donasi PAID sebesar raised.
func newFixture(t *testing.T, raised int64) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	gw := gateway.NewMock("secret")
	owner := Actor{UserID: uuid.New()}
	p := testutil.CreateProject(t, db, owner.UserID)
	if raised > 0 {
		testutil.CreateDonation(t, db, p.ProjectID, raised, donationModel.DonationStatusPaid)
	}
	// donasi pending tidak ikut dihitung
	testutil.CreateDonation(t, db, p.ProjectID, 999_000, donationModel.DonationStatusPending)
	return &fixture{
		svc:     NewWithdrawalService(db, gw).WithClock(testutil.Clock),
		gw:      gw,
		db:      db,
		owner:   owner,
		admin:   Actor{UserID: uuid.New(), IsAdmin: true},
		project: p,
	}
}

func fiberCode(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return 0
}

func strp(s string) *string { return &s }

func bankRequest(projectID uint64, amount int64, method string) dto.CreateWithdrawalRequest {
	return dto.CreateWithdrawalRequest{
		ProjectID:         projectID,
		Amount:            amount,
		Method:            method,
		BankName:          strp("Bank Central Asia"),
		BankCode:          strp("bca"),
		AccountNumber:     strp("1234567890"),
		AccountHolderName: strp("Fundraiser"),
	}
}

func (f *fixture) reload(t *testing.T, id uint64) model.WithdrawalModel {
	t.Helper()
	var w model.WithdrawalModel
	if err := f.db.First(&w, "withdrawal_id = ?", id).Error; err != nil {
		t.Fatal(err)
	}
	return w
}

func (f *fixture) assertConservation(t *testing.T) {
	t.Helper()
	e, err := f.svc.CheckEligibility(context.Background(), f.project.ProjectID, f.owner.UserID)
	if err != nil {
		t.Fatalf("eligibility: %v", err)
	}
	if e.AvailableAmount+e.CompletedWithdrawals+e.PendingWithdrawals != e.TotalRaised {
		t.Fatalf("available %d + completed %d + pending %d != raised %d",
			e.AvailableAmount, e.CompletedWithdrawals, e.PendingWithdrawals, e.TotalRaised)
	}
}

func TestCreateWithdrawRequestFreezesFee(t *testing.T) {
	f := newFixture(t, 500_000)
	w, err := f.svc.CreateWithdrawRequest(context.Background(), f.owner, bankRequest(f.project.ProjectID, 100_000, "BANK_TRANSFER"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if w.WithdrawalStatus != model.WithdrawalStatusPending {
		t.Fatalf("status = %s", w.WithdrawalStatus)
	}
	if w.WithdrawalProcessingFee != 2_000 || w.WithdrawalNetAmount != 98_000 {
		t.Fatalf("fee/net = %d/%d, want 2000/98000", w.WithdrawalProcessingFee, w.WithdrawalNetAmount)
	}
	if w.WithdrawalAvailable != 500_000 {
		t.Fatalf("available snapshot = %d", w.WithdrawalAvailable)
	}
	if got := *w.WithdrawalBankCode; got != "BCA" {
		t.Fatalf("bank code = %s", got)
	}
	if !w.WithdrawalRequestedAt.Equal(testutil.Now) {
		t.Fatalf("requested_at = %v", w.WithdrawalRequestedAt)
	}

	e, err := f.svc.CheckEligibility(context.Background(), f.project.ProjectID, f.owner.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if e.AvailableAmount != 400_000 || e.PendingWithdrawals != 100_000 {
		t.Fatalf("eligibility = %+v", e)
	}
}

func TestCreateWithdrawRequestLegacyMethodName(t *testing.T) {
	f := newFixture(t, 500_000)
	w, err := f.svc.CreateWithdrawRequest(context.Background(), f.owner, bankRequest(f.project.ProjectID, 200_000, "XENDIT_DISBURSEMENT"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if w.WithdrawalMethod != model.WithdrawalMethodGatewayDisbursement {
		t.Fatalf("method = %s", w.WithdrawalMethod)
	}
}

func TestBelowMinimumIsNotEligible(t *testing.T) {
	f := newFixture(t, 5_000)
	ctx := context.Background()

	e, err := f.svc.CheckEligibility(ctx, f.project.ProjectID, f.owner.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if e.Eligible || !strings.Contains(e.Reason, "minimum") {
		t.Fatalf("eligibility = %+v", e)
	}

	_, err = f.svc.CreateWithdrawRequest(ctx, f.owner, bankRequest(f.project.ProjectID, 5_000, "BANK_TRANSFER"))
	if fiberCode(err) != fiber.StatusBadRequest {
		t.Fatalf("err = %v", err)
	}
	var fe *fiber.Error
	errors.As(err, &fe)
	if fe.Message != e.Reason {
		t.Fatalf("message = %q, want %q", fe.Message, e.Reason)
	}
}

func TestCreateWithdrawRequestRejections(t *testing.T) {
	f := newFixture(t, 500_000)
	ctx := context.Background()

	t.Run("bukan pemilik", func(t *testing.T) {
		_, err := f.svc.CreateWithdrawRequest(ctx, Actor{UserID: uuid.New()}, bankRequest(f.project.ProjectID, 100_000, "BANK_TRANSFER"))
		if fiberCode(err) != fiber.StatusForbidden {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("project tidak ada", func(t *testing.T) {
		_, err := f.svc.CreateWithdrawRequest(ctx, f.owner, bankRequest(9999, 100_000, "BANK_TRANSFER"))
		if fiberCode(err) != fiber.StatusNotFound {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("nominal nol", func(t *testing.T) {
		_, err := f.svc.CreateWithdrawRequest(ctx, f.owner, bankRequest(f.project.ProjectID, 0, "BANK_TRANSFER"))
		if fiberCode(err) != fiber.StatusBadRequest {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("melebihi dana", func(t *testing.T) {
		_, err := f.svc.CreateWithdrawRequest(ctx, f.owner, bankRequest(f.project.ProjectID, 600_000, "BANK_TRANSFER"))
		if err == nil || !strings.Contains(err.Error(), "Insufficient funds: available 500000") {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("metode tidak dikenal", func(t *testing.T) {
		_, err := f.svc.CreateWithdrawRequest(ctx, f.owner, bankRequest(f.project.ProjectID, 100_000, "CRYPTO"))
		if fiberCode(err) != fiber.StatusBadRequest {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("rekening tidak lengkap", func(t *testing.T) {
		req := bankRequest(f.project.ProjectID, 100_000, "BANK_TRANSFER")
		req.AccountHolderName = nil
		_, err := f.svc.CreateWithdrawRequest(ctx, f.owner, req)
		if fiberCode(err) != fiber.StatusBadRequest {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("manual tanpa rekening boleh", func(t *testing.T) {
		_, err := f.svc.CreateWithdrawRequest(ctx, f.owner, dto.CreateWithdrawalRequest{
			ProjectID: f.project.ProjectID, Amount: 50_000, Method: "MANUAL",
		})
		if err != nil {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestWithdrawalNotAllowedForClosedProject(t *testing.T) {
	f := newFixture(t, 500_000)
	if err := f.db.Model(&projectModel.ProjectModel{}).
		Where("project_id = ?", f.project.ProjectID).
		Update("project_status", projectModel.ProjectStatusCancelled).Error; err != nil {
		t.Fatal(err)
	}
	e, err := f.svc.CheckEligibility(context.Background(), f.project.ProjectID, f.owner.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if e.Eligible {
		t.Fatalf("cancelled project eligible: %+v", e)
	}
}

func TestStateMachine(t *testing.T) {
	f := newFixture(t, 1_000_000)
	ctx := context.Background()

	create := func(amount int64) *model.WithdrawalModel {
		t.Helper()
		w, err := f.svc.CreateWithdrawRequest(ctx, f.owner, bankRequest(f.project.ProjectID, amount, "GATEWAY_DISBURSEMENT"))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return w
	}

	// PENDING → CANCELLED oleh pemilik
	w1 := create(100_000)
	if _, err := f.svc.CancelWithdrawal(ctx, Actor{UserID: uuid.New()}, w1.WithdrawalID, ""); fiberCode(err) != fiber.StatusForbidden {
		t.Fatalf("cancel orang lain: %v", err)
	}
	got, err := f.svc.CancelWithdrawal(ctx, f.owner, w1.WithdrawalID, "salah nominal")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.WithdrawalStatus != model.WithdrawalStatusCancelled || got.WithdrawalCancelledAt == nil {
		t.Fatalf("cancelled = %+v", got)
	}
	if _, err := f.svc.ProcessApproval(ctx, f.admin, ApprovalInput{WithdrawalID: w1.WithdrawalID, Approved: true}); fiberCode(err) != fiber.StatusBadRequest {
		t.Fatalf("approve cancelled: %v", err)
	}
	f.assertConservation(t)

	// PENDING → REJECTED
	w2 := create(150_000)
	if _, err := f.svc.ProcessApproval(ctx, f.owner, ApprovalInput{WithdrawalID: w2.WithdrawalID, Approved: false}); fiberCode(err) != fiber.StatusForbidden {
		t.Fatalf("non-admin approval: %v", err)
	}
	got, err = f.svc.ProcessApproval(ctx, f.admin, ApprovalInput{WithdrawalID: w2.WithdrawalID, Approved: false, AdminNotes: strp("dokumen kurang")})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.WithdrawalStatus != model.WithdrawalStatusRejected || got.WithdrawalRejectedBy == nil || *got.WithdrawalRejectedBy != f.admin.UserID {
		t.Fatalf("rejected = %+v", got)
	}
	f.assertConservation(t)

	// PENDING → APPROVED → PROCESSING → COMPLETED
	w3 := create(200_000)
	got, err = f.svc.ProcessApproval(ctx, f.admin, ApprovalInput{WithdrawalID: w3.WithdrawalID, Approved: true})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.WithdrawalStatus != model.WithdrawalStatusApproved || got.WithdrawalApprovedAt == nil {
		t.Fatalf("approved = %+v", got)
	}
	got, err = f.svc.ProcessDisbursement(ctx, f.admin, w3.WithdrawalID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got.WithdrawalStatus != model.WithdrawalStatusProcessing || got.WithdrawalDisbursementID == nil {
		t.Fatalf("processing = %+v", got)
	}
	f.assertConservation(t)

	res, err := f.svc.ProcessDisbursementWebhook(ctx, &gateway.DisbursementNotification{
		ID:         *got.WithdrawalDisbursementID,
		ExternalID: DisbursementExternalID(w3.WithdrawalID),
		Status:     gateway.DisbursementCompleted,
		RawStatus:  "COMPLETED",
		Raw:        []byte(`{"status":"COMPLETED"}`),
	})
	if err != nil || !res.Changed || res.Status != model.WithdrawalStatusCompleted {
		t.Fatalf("webhook = %+v, %v", res, err)
	}
	done := f.reload(t, w3.WithdrawalID)
	if done.WithdrawalCompletedAt == nil || !done.WithdrawalCompletedAt.Equal(testutil.Now) {
		t.Fatalf("completed_at = %v", done.WithdrawalCompletedAt)
	}
	f.assertConservation(t)

	// terminal: tidak bisa dibatalkan atau diproses ulang
	if _, err := f.svc.CancelWithdrawal(ctx, f.owner, w3.WithdrawalID, ""); fiberCode(err) != fiber.StatusBadRequest {
		t.Fatalf("cancel completed: %v", err)
	}
	if _, err := f.svc.ProcessDisbursement(ctx, f.admin, w3.WithdrawalID); fiberCode(err) != fiber.StatusBadRequest {
		t.Fatalf("process completed: %v", err)
	}
	res, err = f.svc.ProcessDisbursementWebhook(ctx, &gateway.DisbursementNotification{
		ID:         *got.WithdrawalDisbursementID,
		ExternalID: DisbursementExternalID(w3.WithdrawalID),
		Status:     gateway.DisbursementFailed,
	})
	if err != nil || !res.Ignored {
		t.Fatalf("webhook after completed = %+v, %v", res, err)
	}
	if f.reload(t, w3.WithdrawalID).WithdrawalStatus != model.WithdrawalStatusCompleted {
		t.Fatal("completed withdrawal berubah")
	}

	e, _ := f.svc.CheckEligibility(ctx, f.project.ProjectID, f.owner.UserID)
	if e.CompletedWithdrawals != 200_000 || e.AvailableAmount != 800_000 {
		t.Fatalf("eligibility = %+v", e)
	}
}

func TestApprovalRechecksFunds(t *testing.T) {
	f := newFixture(t, 500_000)
	ctx := context.Background()

	w, err := f.svc.CreateWithdrawRequest(ctx, f.owner, bankRequest(f.project.ProjectID, 300_000, "BANK_TRANSFER"))
	if err != nil {
		t.Fatal(err)
	}
	// dana berpindah di luar alur normal
	testutil.CreateWithdrawal(t, f.db, f.project.ProjectID, f.owner.UserID, 400_000, model.WithdrawalStatusCompleted)

	_, err = f.svc.ProcessApproval(ctx, f.admin, ApprovalInput{WithdrawalID: w.WithdrawalID, Approved: true})
	if fiberCode(err) != fiber.StatusBadRequest || !strings.Contains(err.Error(), "Insufficient funds: available 100000") {
		t.Fatalf("err = %v", err)
	}
	if st := f.reload(t, w.WithdrawalID).WithdrawalStatus; st != model.WithdrawalStatusPending {
		t.Fatalf("status = %s, want PENDING", st)
	}
}

func TestApprovalOverridesMethod(t *testing.T) {
	f := newFixture(t, 500_000)
	ctx := context.Background()
	w, err := f.svc.CreateWithdrawRequest(ctx, f.owner, bankRequest(f.project.ProjectID, 100_000, "BANK_TRANSFER"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := f.svc.ProcessApproval(ctx, f.admin, ApprovalInput{
		WithdrawalID:     w.WithdrawalID,
		Approved:         true,
		ProcessingMethod: strp("GATEWAY_DISBURSEMENT"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.WithdrawalMethod != model.WithdrawalMethodGatewayDisbursement {
		t.Fatalf("method = %s", got.WithdrawalMethod)
	}
	// fee tetap yang dihitung saat request
	if got.WithdrawalProcessingFee != w.WithdrawalProcessingFee {
		t.Fatalf("fee berubah %d → %d", w.WithdrawalProcessingFee, got.WithdrawalProcessingFee)
	}
}

func TestProcessDisbursementGatewayFailure(t *testing.T) {
	f := newFixture(t, 500_000)
	ctx := context.Background()
	w := testutil.CreateWithdrawal(t, f.db, f.project.ProjectID, f.owner.UserID, 100_000, model.WithdrawalStatusApproved)

	f.gw.FailNext(errors.New("bank offline"))
	_, err := f.svc.ProcessDisbursement(ctx, f.admin, w.WithdrawalID)
	if fiberCode(err) != fiber.StatusBadGateway {
		t.Fatalf("err = %v", err)
	}
	got := f.reload(t, w.WithdrawalID)
	if got.WithdrawalStatus != model.WithdrawalStatusFailed {
		t.Fatalf("status = %s", got.WithdrawalStatus)
	}
	if got.WithdrawalAdminNotes == nil || !strings.Contains(*got.WithdrawalAdminNotes, "bank offline") {
		t.Fatalf("notes = %v", got.WithdrawalAdminNotes)
	}
	if got.WithdrawalProcessedAt == nil || got.WithdrawalProcessedBy == nil {
		t.Fatal("processed stamp hilang")
	}
	f.assertConservation(t)
}

func TestProcessDisbursementSendsNetAmount(t *testing.T) {
	f := newFixture(t, 500_000)
	ctx := context.Background()
	w := testutil.CreateWithdrawal(t, f.db, f.project.ProjectID, f.owner.UserID, 100_000, model.WithdrawalStatusApproved,
		func(w *model.WithdrawalModel) {
			w.WithdrawalProcessingFee = 2_000
			w.WithdrawalNetAmount = 98_000
		})
	got, err := f.svc.ProcessDisbursement(ctx, f.admin, w.WithdrawalID)
	if err != nil {
		t.Fatal(err)
	}
	disb, err := f.gw.GetDisbursement(ctx, *got.WithdrawalDisbursementID)
	if err != nil {
		t.Fatal(err)
	}
	if disb.ExternalID != fmt.Sprintf("withdraw-%d", w.WithdrawalID) {
		t.Fatalf("external id = %s", disb.ExternalID)
	}
	if !strings.Contains(string(disb.Raw), `"amount":98000`) {
		t.Fatalf("raw = %s", disb.Raw)
	}
	if f.gw.DisbursementCalls() != 1 {
		t.Fatalf("calls = %d", f.gw.DisbursementCalls())
	}
}

// earlyCallbackGateway mengirim callback COMPLETED sebelum CreateDisbursement kembali.
type earlyCallbackGateway struct {
	*gateway.Mock
	svc *WithdrawalService
	t   *testing.T
}

func (g *earlyCallbackGateway) CreateDisbursement(ctx context.Context, req gateway.DisbursementRequest) (*gateway.DisbursementResult, error) {
	res, err := g.Mock.CreateDisbursement(ctx, req)
	if err != nil {
		return nil, err
	}
	raw := fmt.Sprintf(`{"id":%q,"external_id":%q,"status":"COMPLETED","final":true}`, res.ID, req.ExternalID)
	if _, err := g.svc.ProcessDisbursementWebhook(ctx, &gateway.DisbursementNotification{
		ID:         res.ID,
		ExternalID: req.ExternalID,
		Status:     gateway.DisbursementCompleted,
		RawStatus:  "COMPLETED",
		Raw:        []byte(raw),
	}); err != nil {
		g.t.Fatalf("callback: %v", err)
	}
	return res, nil
}

func TestProcessDisbursementKeepsEarlierCallback(t *testing.T) {
	f := newFixture(t, 500_000)
	ctx := context.Background()
	gw := &earlyCallbackGateway{Mock: f.gw, t: t}
	svc := NewWithdrawalService(f.db, gw).WithClock(testutil.Clock)
	gw.svc = svc

	w := testutil.CreateWithdrawal(t, f.db, f.project.ProjectID, f.owner.UserID, 100_000, model.WithdrawalStatusApproved)
	got, err := svc.ProcessDisbursement(ctx, f.admin, w.WithdrawalID)
	if err != nil {
		t.Fatal(err)
	}
	if got.WithdrawalStatus != model.WithdrawalStatusCompleted {
		t.Fatalf("status = %s", got.WithdrawalStatus)
	}
	if got.WithdrawalDisbursementID == nil || *got.WithdrawalDisbursementID == "" {
		t.Fatal("disbursement id hilang")
	}
	if !strings.Contains(string(got.WithdrawalDisbursementData), `"final":true`) {
		t.Fatalf("data callback tertimpa: %s", got.WithdrawalDisbursementData)
	}
}

func TestDisbursementWebhookIgnoresMismatch(t *testing.T) {
	f := newFixture(t, 500_000)
	ctx := context.Background()
	w := testutil.CreateWithdrawal(t, f.db, f.project.ProjectID, f.owner.UserID, 100_000, model.WithdrawalStatusProcessing,
		func(w *model.WithdrawalModel) { w.WithdrawalDisbursementID = strp("disb-asli") })

	cases := []struct {
		name string
		n    gateway.DisbursementNotification
	}{
		{"disbursement id beda", gateway.DisbursementNotification{ID: "disb-lain", ExternalID: DisbursementExternalID(w.WithdrawalID), Status: gateway.DisbursementCompleted}},
		{"format external id asing", gateway.DisbursementNotification{ID: "disb-asli", ExternalID: "donation-1-abc", Status: gateway.DisbursementCompleted}},
		{"withdrawal tidak ada", gateway.DisbursementNotification{ID: "disb-asli", ExternalID: "withdraw-424242", Status: gateway.DisbursementCompleted}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := tc.n
			res, err := f.svc.ProcessDisbursementWebhook(ctx, &n)
			if err != nil {
				t.Fatalf("err = %v", err)
			}
			if !res.Ignored || res.Changed {
				t.Fatalf("res = %+v", res)
			}
		})
	}
	if st := f.reload(t, w.WithdrawalID).WithdrawalStatus; st != model.WithdrawalStatusProcessing {
		t.Fatalf("status = %s", st)
	}

	res, err := f.svc.ProcessDisbursementWebhook(ctx, &gateway.DisbursementNotification{
		ID: "disb-asli", ExternalID: DisbursementExternalID(w.WithdrawalID), Status: gateway.DisbursementFailed, FailureCode: "INVALID_ACCOUNT",
	})
	if err != nil || res.Status != model.WithdrawalStatusFailed {
		t.Fatalf("res = %+v, %v", res, err)
	}
	got := f.reload(t, w.WithdrawalID)
	if got.WithdrawalAdminNotes == nil || !strings.Contains(*got.WithdrawalAdminNotes, "INVALID_ACCOUNT") {
		t.Fatalf("notes = %v", got.WithdrawalAdminNotes)
	}
}

func TestSyncDisbursement(t *testing.T) {
	f := newFixture(t, 500_000)
	ctx := context.Background()
	w := testutil.CreateWithdrawal(t, f.db, f.project.ProjectID, f.owner.UserID, 100_000, model.WithdrawalStatusApproved)
	got, err := f.svc.ProcessDisbursement(ctx, f.admin, w.WithdrawalID)
	if err != nil {
		t.Fatal(err)
	}

	ids, err := f.svc.ProcessingWithDisbursement(ctx)
	if err != nil || len(ids) != 1 || ids[0] != w.WithdrawalID {
		t.Fatalf("ids = %v, %v", ids, err)
	}

	res, err := f.svc.SyncDisbursement(ctx, w.WithdrawalID)
	if err != nil || res.Changed {
		t.Fatalf("sync pending = %+v, %v", res, err)
	}

	f.gw.SetDisbursementStatus(*got.WithdrawalDisbursementID, gateway.DisbursementCompleted)
	res, err = f.svc.SyncDisbursement(ctx, w.WithdrawalID)
	if err != nil || !res.Changed || res.Status != model.WithdrawalStatusCompleted {
		t.Fatalf("sync completed = %+v, %v", res, err)
	}
	ids, _ = f.svc.ProcessingWithDisbursement(ctx)
	if len(ids) != 0 {
		t.Fatalf("ids = %v", ids)
	}
}

func TestProjectWithdrawStats(t *testing.T) {
	f := newFixture(t, 1_000_000)
	ctx := context.Background()
	pid, uid := f.project.ProjectID, f.owner.UserID

	testutil.CreateWithdrawal(t, f.db, pid, uid, 200_000, model.WithdrawalStatusCompleted,
		func(w *model.WithdrawalModel) { w.WithdrawalProcessingFee = 4_000; w.WithdrawalNetAmount = 196_000 })
	testutil.CreateWithdrawal(t, f.db, pid, uid, 100_000, model.WithdrawalStatusPending)
	testutil.CreateWithdrawal(t, f.db, pid, uid, 50_000, model.WithdrawalStatusRejected)

	if _, err := f.svc.GetProjectWithdrawStats(ctx, Actor{UserID: uuid.New()}, pid); fiberCode(err) != fiber.StatusForbidden {
		t.Fatalf("stranger: %v", err)
	}
	st, err := f.svc.GetProjectWithdrawStats(ctx, f.admin, pid)
	if err != nil {
		t.Fatal(err)
	}
	want := WithdrawStats{
		ProjectID:       pid,
		TotalRaised:     1_000_000,
		TotalRequested:  350_000,
		TotalCompleted:  200_000,
		TotalPending:    100_000,
		AvailableAmount: 700_000,
		TotalFees:       4_000,
	}
	if *st != want {
		t.Fatalf("stats = %+v, want %+v", *st, want)
	}
}

func TestGetAndList(t *testing.T) {
	f := newFixture(t, 500_000)
	ctx := context.Background()
	mine := testutil.CreateWithdrawal(t, f.db, f.project.ProjectID, f.owner.UserID, 100_000, model.WithdrawalStatusPending)
	testutil.CreateWithdrawal(t, f.db, f.project.ProjectID, f.owner.UserID, 50_000, model.WithdrawalStatusCompleted)
	testutil.CreateWithdrawal(t, f.db, f.project.ProjectID, uuid.New(), 10_000, model.WithdrawalStatusPending)

	if _, err := f.svc.GetByID(ctx, Actor{UserID: uuid.New()}, mine.WithdrawalID); fiberCode(err) != fiber.StatusForbidden {
		t.Fatalf("stranger: %v", err)
	}
	if _, err := f.svc.GetByID(ctx, f.owner, 9999); fiberCode(err) != fiber.StatusNotFound {
		t.Fatalf("missing: %v", err)
	}

	paging := helper.Paging{Page: 1, PerPage: 10, Limit: 10}
	list, total, err := f.svc.ListMine(ctx, f.owner.UserID, "", paging)
	if err != nil || total != 2 || len(list) != 2 {
		t.Fatalf("mine = %d/%d, %v", len(list), total, err)
	}
	list, total, err = f.svc.List(ctx, ListFilter{Status: "pending"}, paging)
	if err != nil || total != 2 || len(list) != 2 {
		t.Fatalf("admin pending = %d/%d, %v", len(list), total, err)
	}
}

func TestParseDisbursementExternalID(t *testing.T) {
	tests := []struct {
		in   string
		id   uint64
		okay bool
	}{
		{"withdraw-12", 12, true},
		{" withdraw-7 ", 7, true},
		{"withdraw-0", 0, false},
		{"withdraw-abc", 0, false},
		{"donation-12-abcd", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		id, ok := ParseDisbursementExternalID(tt.in)
		if id != tt.id || ok != tt.okay {
			t.Errorf("ParseDisbursementExternalID(%q) = %d, %t", tt.in, id, ok)
		}
	}
}
