package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"galangdana_backend/internals/configs"
	donationModel "galangdana_backend/internals/features/donations/donations/model"
	"galangdana_backend/internals/features/payments/gateway"
	"galangdana_backend/internals/features/payments/payments/model"
	projectModel "galangdana_backend/internals/features/projects/projects/model"
	"galangdana_backend/internals/testutil"
)

func newTestService(t *testing.T) (*PaymentService, *gateway.Mock, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	gw := gateway.NewMock("secret")
	svc := NewPaymentService(db, gw, configs.PaymentConfig{
		Currency:      "IDR",
		InvoiceExpiry: 24 * time.Hour,
		VAExpiry:      24 * time.Hour,
		EwalletExpiry: 15 * time.Minute,
	}).WithClock(testutil.Clock)
	return svc, gw, db
}

func fiberCode(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return 0
}

func reloadProject(t *testing.T, db *gorm.DB, id uint64) projectModel.ProjectModel {
	t.Helper()
	var p projectModel.ProjectModel
	if err := db.First(&p, "project_id = ?", id).Error; err != nil {
		t.Fatal(err)
	}
	return p
}

func reloadDonation(t *testing.T, db *gorm.DB, id uint64) donationModel.DonationModel {
	t.Helper()
	var d donationModel.DonationModel
	if err := db.First(&d, "donation_id = ?", id).Error; err != nil {
		t.Fatal(err)
	}
	return d
}

func paidNotification(p *model.PaymentModel, id string) *gateway.PaymentNotification {
	return &gateway.PaymentNotification{
		ID:         id,
		ExternalID: p.PaymentExternalID,
		Status:     gateway.StatusPaid,
		RawStatus:  "PAID",
		Amount:     p.PaymentAmount,
		Raw:        []byte(`{"status":"PAID"}`),
	}
}

func TestCreateChargesPerMethod(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, db, uuid.New())

	d1 := testutil.CreateDonation(t, db, project.ProjectID, 50000, donationModel.DonationStatusPending)
	inv, err := svc.CreateInvoice(ctx, d1.DonationID, ChargeOptions{})
	if err != nil {
		t.Fatalf("invoice: %v", err)
	}
	if inv.PaymentURL == nil || inv.PaymentMethod != model.PaymentMethodInvoice || inv.PaymentStatus != model.PaymentStatusPending {
		t.Errorf("unexpected invoice payment: %+v", inv)
	}
	if inv.PaymentExpiredAt == nil || !inv.PaymentExpiredAt.Equal(testutil.Now.Add(24*time.Hour)) {
		t.Errorf("invoice expiry should be 24h, got %v", inv.PaymentExpiredAt)
	}

	d2 := testutil.CreateDonation(t, db, project.ProjectID, 75000, donationModel.DonationStatusPending)
	va, err := svc.CreateVirtualAccount(ctx, d2.DonationID, "bca", ChargeOptions{})
	if err != nil {
		t.Fatalf("va: %v", err)
	}
	if va.PaymentVirtualAccount == nil || va.PaymentBankCode == nil || *va.PaymentBankCode != "BCA" {
		t.Errorf("unexpected va payment: %+v", va)
	}

	d3 := testutil.CreateDonation(t, db, project.ProjectID, 20000, donationModel.DonationStatusPending)
	ew, err := svc.CreateEwallet(ctx, d3.DonationID, "gopay", ChargeOptions{})
	if err != nil {
		t.Fatalf("ewallet: %v", err)
	}
	if ew.PaymentExpiredAt == nil || !ew.PaymentExpiredAt.Equal(testutil.Now.Add(15*time.Minute)) {
		t.Errorf("ewallet expiry should be 15m, got %v", ew.PaymentExpiredAt)
	}
	if got := reloadDonation(t, db, d3.DonationID); got.DonationPaymentMethod == nil || *got.DonationPaymentMethod != "EWALLET" {
		t.Errorf("donation payment method not updated: %+v", got.DonationPaymentMethod)
	}
}

func TestCreateChargeValidation(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, db, uuid.New())
	d := testutil.CreateDonation(t, db, project.ProjectID, 50000, donationModel.DonationStatusPending)

	tests := []struct {
		name string
		run  func() error
		code int
	}{
		{"unsupported bank", func() error { _, err := svc.CreateVirtualAccount(ctx, d.DonationID, "XYZ", ChargeOptions{}); return err }, fiber.StatusBadRequest},
		{"unsupported ewallet", func() error { _, err := svc.CreateEwallet(ctx, d.DonationID, "PAYPAL", ChargeOptions{}); return err }, fiber.StatusBadRequest},
		{"missing donation", func() error { _, err := svc.CreateInvoice(ctx, 9999, ChargeOptions{}); return err }, fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fiberCode(tt.run()); got != tt.code {
				t.Errorf("expected %d, got %d", tt.code, got)
			}
		})
	}
}

func TestCreateChargeRejectsSecondPendingPayment(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, db, uuid.New())
	d := testutil.CreateDonation(t, db, project.ProjectID, 50000, donationModel.DonationStatusPending)

	if _, err := svc.CreateInvoice(ctx, d.DonationID, ChargeOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateInvoice(ctx, d.DonationID, ChargeOptions{}); fiberCode(err) != fiber.StatusBadRequest {
		t.Fatalf("second pending payment should be rejected, got %v", err)
	}
}

// reentrantGateway membuat charge kedua untuk donation yang sama selagi charge pertama masih di gateway.
type reentrantGateway struct {
	*gateway.Mock
	svc      *PaymentService
	innerErr error
	calls    int
}

func (g *reentrantGateway) CreateInvoice(ctx context.Context, req gateway.InvoiceRequest) (*gateway.InvoiceResult, error) {
	g.calls++
	if g.calls == 1 {
		var donationID uint64
		if err := g.svc.db.Model(&model.PaymentModel{}).
			Where("payment_external_id = ?", req.ExternalID).
			Pluck("payment_donation_id", &donationID).Error; err != nil {
			return nil, err
		}
		_, g.innerErr = g.svc.CreateInvoice(ctx, donationID, ChargeOptions{})
	}
	return g.Mock.CreateInvoice(ctx, req)
}

func TestCreateChargeInFlightBlocksParallelCharge(t *testing.T) {
	db := testutil.NewDB(t)
	gw := &reentrantGateway{Mock: gateway.NewMock("secret")}
	svc := NewPaymentService(db, gw, configs.PaymentConfig{Currency: "IDR", InvoiceExpiry: 24 * time.Hour}).
		WithClock(testutil.Clock)
	gw.svc = svc
	ctx := context.Background()
	project := testutil.CreateProject(t, db, uuid.New())
	d := testutil.CreateDonation(t, db, project.ProjectID, 50000, donationModel.DonationStatusPending)

	p, err := svc.CreateInvoice(ctx, d.DonationID, ChargeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if fiberCode(gw.innerErr) != fiber.StatusBadRequest {
		t.Fatalf("parallel charge should be rejected, got %v", gw.innerErr)
	}
	if p.PaymentURL == nil || p.PaymentStatus != model.PaymentStatusPending {
		t.Fatalf("payment = %+v", p)
	}
	list, err := svc.ListByDonation(ctx, d.DonationID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected exactly one payment, got %d", len(list))
	}
}

func TestCreateChargeGatewayErrorPersistsFailedPayment(t *testing.T) {
	svc, gw, db := newTestService(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, db, uuid.New())
	d := testutil.CreateDonation(t, db, project.ProjectID, 50000, donationModel.DonationStatusPending)

	gw.FailNext(errors.New("gateway down"))
	_, err := svc.CreateInvoice(ctx, d.DonationID, ChargeOptions{})
	if fiberCode(err) != fiber.StatusBadGateway {
		t.Fatalf("expected 502, got %v", err)
	}
	list, err := svc.ListByDonation(ctx, d.DonationID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].PaymentStatus != model.PaymentStatusFailed || list[0].PaymentFailureReason == nil {
		t.Fatalf("expected one FAILED payment with reason, got %+v", list)
	}
}

func TestWebhookPaidCascadesOnceAndIsIdempotent(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, db, uuid.New())
	d := testutil.CreateDonation(t, db, project.ProjectID, 100000, donationModel.DonationStatusPending)
	p := testutil.CreatePayment(t, db, d.DonationID, 100000, model.PaymentStatusPending)

	n := paidNotification(p, "gw-1")
	res, err := svc.ProcessWebhook(ctx, n)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Changed || res.Status != model.PaymentStatusPaid {
		t.Fatalf("expected change to PAID, got %+v", res)
	}

	first, _ := svc.GetByID(ctx, p.PaymentID)
	if _, err := svc.ProcessWebhook(ctx, n); err != nil {
		t.Fatal(err)
	}
	// PAID lagi dengan id upstream berbeda tetap no-op karena terminal
	if _, err := svc.ProcessWebhook(ctx, paidNotification(p, "gw-2")); err != nil {
		t.Fatal(err)
	}

	second, _ := svc.GetByID(ctx, p.PaymentID)
	if second.PaymentPaidAt == nil || !second.PaymentPaidAt.Equal(*first.PaymentPaidAt) {
		t.Errorf("paid_at changed on replay: %v vs %v", first.PaymentPaidAt, second.PaymentPaidAt)
	}
	if got := reloadProject(t, db, project.ProjectID).ProjectCurrentAmount; got != 100000 {
		t.Errorf("project current amount = %d, want 100000", got)
	}
	if got := reloadDonation(t, db, d.DonationID).DonationPaymentStatus; got != donationModel.DonationStatusPaid {
		t.Errorf("donation status = %s, want PAID", got)
	}
}

func TestWebhookNeverRegressesTerminalStatus(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, db, uuid.New())
	d := testutil.CreateDonation(t, db, project.ProjectID, 10000, donationModel.DonationStatusPending)
	p := testutil.CreatePayment(t, db, d.DonationID, 10000, model.PaymentStatusPending)

	if _, err := svc.ProcessWebhook(ctx, paidNotification(p, "gw-1")); err != nil {
		t.Fatal(err)
	}
	for _, st := range []gateway.Status{gateway.StatusExpired, gateway.StatusFailed, gateway.StatusCancelled, gateway.StatusPending} {
		n := &gateway.PaymentNotification{ID: "late-" + string(st), ExternalID: p.PaymentExternalID, Status: st, RawStatus: string(st)}
		if _, err := svc.ProcessWebhook(ctx, n); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := svc.GetByID(ctx, p.PaymentID)
	if got.PaymentStatus != model.PaymentStatusPaid {
		t.Errorf("status regressed to %s", got.PaymentStatus)
	}
}

func TestWebhookRejectsUnencodablePayload(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, db, uuid.New())
	d := testutil.CreateDonation(t, db, project.ProjectID, 10000, donationModel.DonationStatusPending)
	p := testutil.CreatePayment(t, db, d.DonationID, 10000, model.PaymentStatusPending)

	n := paidNotification(p, "gw-1")
	n.Raw = []byte(`{"status":`)
	if _, err := svc.ProcessWebhook(ctx, n); err == nil {
		t.Fatal("expected encode error")
	}
	got, _ := svc.GetByID(ctx, p.PaymentID)
	if got.PaymentStatus != model.PaymentStatusPending || len(got.PaymentWebhookData) != 0 {
		t.Fatalf("payment changed: status=%s data=%s", got.PaymentStatus, got.PaymentWebhookData)
	}
}

func TestWebhookUnknownExternalID(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.ProcessWebhook(context.Background(), &gateway.PaymentNotification{ExternalID: "donation-404-zzz", Status: gateway.StatusPaid})
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestWebhookExpiredMirrorsDonation(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, db, uuid.New())
	d := testutil.CreateDonation(t, db, project.ProjectID, 10000, donationModel.DonationStatusPending)
	p := testutil.CreatePayment(t, db, d.DonationID, 10000, model.PaymentStatusPending)

	n := &gateway.PaymentNotification{ID: "gw-1", ExternalID: p.PaymentExternalID, Status: gateway.StatusExpired, RawStatus: "expire"}
	if _, err := svc.ProcessWebhook(ctx, n); err != nil {
		t.Fatal(err)
	}
	if got := reloadDonation(t, db, d.DonationID).DonationPaymentStatus; got != donationModel.DonationStatusExpired {
		t.Errorf("donation status = %s, want EXPIRED", got)
	}
	if got := reloadProject(t, db, project.ProjectID).ProjectCurrentAmount; got != 0 {
		t.Errorf("project amount must not change, got %d", got)
	}
}

func TestCancelPayment(t *testing.T) {
	svc, gw, db := newTestService(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, db, uuid.New())

	d := testutil.CreateDonation(t, db, project.ProjectID, 10000, donationModel.DonationStatusPending)
	p, err := svc.CreateInvoice(ctx, d.DonationID, ChargeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.CancelPayment(ctx, p.PaymentID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PaymentStatus != model.PaymentStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", got.PaymentStatus)
	}
	if st, _ := gw.GetPaymentStatus(ctx, p.PaymentExternalID); st.Status != gateway.StatusCancelled {
		t.Errorf("gateway should be notified, got %s", st.Status)
	}
	if _, err := svc.CancelPayment(ctx, p.PaymentID); err != nil {
		t.Errorf("cancel twice should be idempotent, got %v", err)
	}

	d2 := testutil.CreateDonation(t, db, project.ProjectID, 10000, donationModel.DonationStatusPending)
	paid := testutil.CreatePayment(t, db, d2.DonationID, 10000, model.PaymentStatusPaid)
	_, err = svc.CancelPayment(ctx, paid.PaymentID)
	var fe *fiber.Error
	if !errors.As(err, &fe) || fe.Code != fiber.StatusBadRequest || fe.Message != "cannot cancel a paid payment" {
		t.Errorf("expected state conflict for paid payment, got %v", err)
	}
}

func TestGetPaymentStatusSyncsFromGateway(t *testing.T) {
	svc, gw, db := newTestService(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, db, uuid.New())
	d := testutil.CreateDonation(t, db, project.ProjectID, 30000, donationModel.DonationStatusPending)
	p, err := svc.CreateVirtualAccount(ctx, d.DonationID, "BRI", ChargeOptions{})
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetPaymentStatus(ctx, p.PaymentID)
	if err != nil || got.PaymentStatus != model.PaymentStatusPending {
		t.Fatalf("expected still PENDING, got %v / %v", got, err)
	}

	gw.SetPaymentStatus(p.PaymentExternalID, gateway.StatusSettled)
	for i := 0; i < 2; i++ {
		got, err = svc.GetPaymentStatus(ctx, p.PaymentID)
		if err != nil {
			t.Fatal(err)
		}
	}
	if got.PaymentStatus != model.PaymentStatusPaid {
		t.Errorf("status = %s, want PAID", got.PaymentStatus)
	}
	if amt := reloadProject(t, db, project.ProjectID).ProjectCurrentAmount; amt != 30000 {
		t.Errorf("project amount = %d, want 30000", amt)
	}
}

func TestExpireDuePayments(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, db, uuid.New())

	past := testutil.Now.Add(-time.Minute)
	d1 := testutil.CreateDonation(t, db, project.ProjectID, 10000, donationModel.DonationStatusPending)
	due := testutil.CreatePayment(t, db, d1.DonationID, 10000, model.PaymentStatusPending, func(p *model.PaymentModel) {
		p.PaymentExpiredAt = &past
	})
	d2 := testutil.CreateDonation(t, db, project.ProjectID, 10000, donationModel.DonationStatusPending)
	fresh := testutil.CreatePayment(t, db, d2.DonationID, 10000, model.PaymentStatusPending)

	res, err := svc.ExpireDuePayments(ctx, testutil.Now)
	if err != nil {
		t.Fatal(err)
	}
	if res.Checked != 1 || res.Expired != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if got, _ := svc.GetByID(ctx, due.PaymentID); got.PaymentStatus != model.PaymentStatusExpired {
		t.Errorf("due payment status = %s", got.PaymentStatus)
	}
	if got, _ := svc.GetByID(ctx, fresh.PaymentID); got.PaymentStatus != model.PaymentStatusPending {
		t.Errorf("fresh payment status = %s", got.PaymentStatus)
	}
}

func TestMapGatewayStatus(t *testing.T) {
	tests := map[gateway.Status]model.PaymentStatus{
		gateway.StatusPaid:      model.PaymentStatusPaid,
		gateway.StatusSettled:   model.PaymentStatusPaid,
		gateway.StatusExpired:   model.PaymentStatusExpired,
		gateway.StatusFailed:    model.PaymentStatusFailed,
		gateway.StatusCancelled: model.PaymentStatusCancelled,
		gateway.StatusRefunded:  model.PaymentStatusPending,
		gateway.Status("WEIRD"): model.PaymentStatusPending,
	}
	for in, want := range tests {
		if got := MapGatewayStatus(in); got != want {
			t.Errorf("MapGatewayStatus(%s) = %s, want %s", in, got, want)
		}
	}
}
