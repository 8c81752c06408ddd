package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"galangdana_backend/internals/configs"
	donationController "galangdana_backend/internals/features/donations/donations/controller"
	donationService "galangdana_backend/internals/features/donations/donations/service"
	"galangdana_backend/internals/features/payments/gateway"
	paymentController "galangdana_backend/internals/features/payments/payments/controller"
	paymentService "galangdana_backend/internals/features/payments/payments/service"
	reconController "galangdana_backend/internals/features/payments/reconciliation/controller"
	reconService "galangdana_backend/internals/features/payments/reconciliation/service"
	projectController "galangdana_backend/internals/features/projects/projects/controller"
	projectService "galangdana_backend/internals/features/projects/projects/service"
	withdrawalController "galangdana_backend/internals/features/withdrawals/withdrawals/controller"
	withdrawalService "galangdana_backend/internals/features/withdrawals/withdrawals/service"
	routeDetails "galangdana_backend/internals/route/details"
	"galangdana_backend/internals/testutil"
)

const jwtSecret = "route-test-secret"

type api struct {
	t   *testing.T
	app *fiber.App
	gw  *gateway.Mock
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db := testutil.NewDB(t)
	gw := gateway.NewMock("cb-secret")

	projects := projectService.NewProjectService(db)
	payments := paymentService.NewPaymentService(db, gw, configs.PaymentConfig{
		Currency:      "IDR",
		InvoiceExpiry: 24 * time.Hour,
		VAExpiry:      24 * time.Hour,
		EwalletExpiry: 15 * time.Minute,
	})
	events := paymentService.NewEventLog(db)
	withdrawals := withdrawalService.NewWithdrawalService(db, gw)
	recon := reconService.NewReconciliationService(db, payments, withdrawals, 2)

	deps := &routeDetails.Deps{
		Projects:       projectController.NewProjectController(projects),
		Donations:      donationController.NewDonationController(donationService.NewDonationService(db)),
		Payments:       paymentController.NewPaymentController(payments, events),
		Reconciliation: reconController.NewReconciliationController(recon, 2),
		Withdrawals:    withdrawalController.NewWithdrawalController(withdrawals, gw, events),
	}
	app := fiber.New()
	SetupRoutes(app, db, jwtSecret, deps)
	return &api{t: t, app: app, gw: gw}
}

func token(t *testing.T, uid uuid.UUID, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   uid.String(),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func (a *api) do(method, path, tok string, body any, headers ...string) (int, map[string]any) {
	a.t.Helper()
	var raw []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		raw = b
	default:
		var err error
		if raw, err = json.Marshal(b); err != nil {
			a.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := a.app.Test(req, -1)
	if err != nil {
		a.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out := map[string]any{}
	b, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(b, &out)
	return resp.StatusCode, out
}

func (a *api) must(want int, method, path, tok string, body any, headers ...string) map[string]any {
	a.t.Helper()
	code, out := a.do(method, path, tok, body, headers...)
	if code != want {
		a.t.Fatalf("%s %s = %d, want %d: %v", method, path, code, want, out)
	}
	data, _ := out["data"].(map[string]any)
	return data
}

func id(t *testing.T, data map[string]any, key string) uint64 {
	t.Helper()
	v, ok := data[key].(float64)
	if !ok || v <= 0 {
		t.Fatalf("%s missing in %v", key, data)
	}
	return uint64(v)
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	if code, out := a.do(http.MethodGet, "/health", "", nil); code != fiber.StatusOK || out["status"] != "OK" {
		t.Fatalf("health = %d %v", code, out)
	}
}

func TestGroupsEnforceAuth(t *testing.T) {
	a := newAPI(t)
	user := token(t, uuid.New(), "user")

	cases := []struct {
		name, method, path, tok string
		code                    int
	}{
		{"public list without token", http.MethodGet, "/api/public/projects", "", fiber.StatusOK},
		{"user route without token", http.MethodGet, "/api/u/projects/mine", "", fiber.StatusUnauthorized},
		{"user route with token", http.MethodGet, "/api/u/projects/mine", user, fiber.StatusOK},
		{"admin route as user", http.MethodGet, "/api/a/withdrawals", user, fiber.StatusForbidden},
		{"reconcile status as user", http.MethodGet, "/api/a/reconciliation/status", user, fiber.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code, out := a.do(tc.method, tc.path, tc.tok, nil); code != tc.code {
				t.Fatalf("code = %d, want %d (%v)", code, tc.code, out)
			}
		})
	}
}

// Alur lengkap: project → donasi guest → invoice → callback PAID → tarik dana → disbursement selesai.
func TestDonationToDisbursementFlow(t *testing.T) {
	a := newAPI(t)
	ownerID := uuid.New()
	owner := token(t, ownerID, "user")
	admin := token(t, uuid.New(), "admin")

	project := a.must(fiber.StatusCreated, http.MethodPost, "/api/u/projects", owner, map[string]any{
		"title":         "Air Bersih Desa",
		"target_amount": 5_000_000,
		"end_date":      time.Now().Add(30 * 24 * time.Hour).UTC().Format(time.RFC3339),
	})
	projectID := id(t, project, "project_id")

	donation := a.must(fiber.StatusCreated, http.MethodPost, "/api/public/donations", "", map[string]any{
		"project_id": projectID,
		"amount":     250_000,
		"donor_name": "Fulan",
	})
	donationID := id(t, donation, "donation_id")

	payment := a.must(fiber.StatusCreated, http.MethodPost, "/api/public/payments/invoice", "", map[string]any{
		"donation_id": donationID,
	})
	externalID, _ := payment["payment_external_id"].(string)

	cb := []byte(fmt.Sprintf(`{"id":"cb-%d","external_id":%q,"status":"PAID","amount":250000}`, donationID, externalID))
	a.must(fiber.StatusOK, http.MethodPost, "/api/public/payments/webhook", "", cb,
		gateway.HeaderCallbackSignature, a.gw.SignPayload(cb))

	got := a.must(fiber.StatusOK, http.MethodGet, fmt.Sprintf("/api/public/projects/%d", projectID), "", nil)
	if got["project_current_amount"] != float64(250_000) {
		t.Fatalf("current amount = %v", got["project_current_amount"])
	}

	elig := a.must(fiber.StatusOK, http.MethodGet, fmt.Sprintf("/api/u/projects/%d/withdrawals/eligibility", projectID), owner, nil)
	if elig["eligible"] != true || elig["available_amount"] != float64(250_000) {
		t.Fatalf("eligibility = %v", elig)
	}

	w := a.must(fiber.StatusCreated, http.MethodPost, "/api/u/withdrawals", owner, map[string]any{
		"project_id":          projectID,
		"amount":              200_000,
		"method":              "BANK_TRANSFER",
		"bank_name":           "Bank Central Asia",
		"bank_code":           "BCA",
		"account_number":      "1234567890",
		"account_holder_name": "Pemilik Project",
	})
	wid := id(t, w, "withdrawal_id")
	if w["withdrawal_processing_fee"] != float64(3_500) || w["withdrawal_net_amount"] != float64(196_500) {
		t.Fatalf("fee/net = %v/%v", w["withdrawal_processing_fee"], w["withdrawal_net_amount"])
	}

	a.must(fiber.StatusForbidden, http.MethodPost, fmt.Sprintf("/api/a/withdrawals/%d/approval", wid), owner, map[string]any{"approved": true})
	a.must(fiber.StatusOK, http.MethodPost, fmt.Sprintf("/api/a/withdrawals/%d/approval", wid), admin, map[string]any{"approved": true})
	processed := a.must(fiber.StatusOK, http.MethodPost, fmt.Sprintf("/api/a/withdrawals/%d/process", wid), admin, nil)
	disbID, _ := processed["withdrawal_disbursement_id"].(string)
	if processed["withdrawal_status"] != "PROCESSING" || disbID == "" {
		t.Fatalf("processed = %v", processed)
	}

	dcb := []byte(fmt.Sprintf(`{"id":%q,"external_id":"withdraw-%d","status":"COMPLETED"}`, disbID, wid))
	a.must(fiber.StatusOK, http.MethodPost, "/api/public/withdrawals/webhook", "", dcb,
		gateway.HeaderCallbackSignature, a.gw.SignPayload(dcb))

	final := a.must(fiber.StatusOK, http.MethodGet, fmt.Sprintf("/api/u/withdrawals/%d", wid), owner, nil)
	if final["withdrawal_status"] != "COMPLETED" {
		t.Fatalf("final = %v", final)
	}

	// callback untuk withdrawal yang tidak ada tetap 200
	ghost := []byte(`{"id":"x","external_id":"withdraw-999999","status":"COMPLETED"}`)
	a.must(fiber.StatusOK, http.MethodPost, "/api/public/withdrawals/webhook", "", ghost,
		gateway.HeaderCallbackSignature, a.gw.SignPayload(ghost))
}
