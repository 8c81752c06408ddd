package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/iris"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
)

/* =========================================================
   Midtrans adapter
   - Snap     : invoice (halaman checkout)
   - Core API : VA, e-wallet, status, cancel
   - Iris     : payout (disbursement)
========================================================= */

type MidtransConfig struct {
	ServerKey     string
	IrisKey       string
	MerchantKey   string
	UseProduction bool
}

type payoutLookupFunc func(referenceNo string) (*iris.PayoutDetailResponse, *midtrans.Error)

type Midtrans struct {
	cfg  MidtransConfig
	snap snap.Client
	core coreapi.Client
	iris iris.Client

	lookupPayout payoutLookupFunc
}

func NewMidtrans(cfg MidtransConfig) *Midtrans {
	env := midtrans.Sandbox
	if cfg.UseProduction {
		env = midtrans.Production
	}
	m := &Midtrans{cfg: cfg}
	m.snap.New(cfg.ServerKey, env)
	m.core.New(cfg.ServerKey, env)
	m.iris.New(cfg.IrisKey, env)
	m.lookupPayout = m.iris.GetPayoutDetails
	return m
}

func (m *Midtrans) Provider() string { return ProviderMidtrans }

func (m *Midtrans) CreateInvoice(ctx context.Context, req InvoiceRequest) (*InvoiceResult, error) {
	if req.Amount <= 0 {
		return nil, errors.New("invalid amount")
	}
	sreq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.ExternalID,
			GrossAmt: req.Amount,
		},
		CustomerDetail: customerDetails(req.Customer),
		Items: &[]midtrans.ItemDetails{
			{
				ID:       req.ExternalID,
				Name:     truncate(defaultString(req.Description, "Donasi"), 50),
				Price:    req.Amount,
				Qty:      1,
				Category: "DONATION",
			},
		},
	}
	if mins := expiryMinutes(req.Expiry); mins > 0 {
		sreq.Expiry = &snap.ExpiryDetails{Unit: "minute", Duration: mins}
	}

	resp, mErr := m.snap.CreateTransaction(sreq)
	if mErr != nil {
		return nil, wrapMidtransErr("snap create transaction", mErr)
	}
	raw, _ := sonic.Marshal(resp)
	return &InvoiceResult{
		GatewayID:  resp.Token,
		PaymentURL: resp.RedirectURL,
		Raw:        raw,
	}, nil
}

func (m *Midtrans) CreateVirtualAccount(ctx context.Context, req VirtualAccountRequest) (*VirtualAccountResult, error) {
	code := NormalizeCode(req.BankCode)
	if !IsSupportedBank(code) {
		return nil, fmt.Errorf("unsupported bank code %q", req.BankCode)
	}
	creq := &coreapi.ChargeReq{
		PaymentType: "bank_transfer",
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.ExternalID,
			GrossAmt: req.Amount,
		},
		BankTransfer:    &coreapi.BankTransferDetails{},
		CustomerDetails: customerDetails(req.Customer),
	}
	switch code {
	case "BCA":
		creq.BankTransfer.Bank = "bca"
	case "BNI":
		creq.BankTransfer.Bank = "bni"
	case "BRI":
		creq.BankTransfer.Bank = "bri"
	case "PERMATA":
		creq.BankTransfer.Bank = "permata"
	case "CIMB":
		creq.BankTransfer.Bank = "cimb"
	}
	if mins := expiryMinutes(req.Expiry); mins > 0 {
		creq.CustomExpiry = &coreapi.CustomExpiry{ExpiryDuration: int(mins), Unit: "minute"}
	}

	resp, mErr := m.core.ChargeTransaction(creq)
	if mErr != nil {
		return nil, wrapMidtransErr("core charge bank_transfer", mErr)
	}
	account := resp.PermataVaNumber
	if len(resp.VaNumbers) > 0 && resp.VaNumbers[0].VANumber != "" {
		account = resp.VaNumbers[0].VANumber
	}
	if account == "" {
		return nil, errors.New("midtrans: empty virtual account number")
	}
	raw, _ := sonic.Marshal(resp)
	return &VirtualAccountResult{
		GatewayID:     resp.TransactionID,
		BankCode:      code,
		AccountNumber: account,
		Raw:           raw,
	}, nil
}

func (m *Midtrans) CreateEwalletCharge(ctx context.Context, req EwalletRequest) (*EwalletResult, error) {
	t := NormalizeCode(req.EwalletType)
	creq := &coreapi.ChargeReq{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.ExternalID,
			GrossAmt: req.Amount,
		},
		CustomerDetails: customerDetails(req.Customer),
	}
	switch t {
	case "GOPAY":
		creq.PaymentType = "gopay"
	case "SHOPEEPAY":
		creq.PaymentType = "shopeepay"
	default:
		return nil, fmt.Errorf("unsupported ewallet type %q", req.EwalletType)
	}
	if mins := expiryMinutes(req.Expiry); mins > 0 {
		creq.CustomExpiry = &coreapi.CustomExpiry{ExpiryDuration: int(mins), Unit: "minute"}
	}

	resp, mErr := m.core.ChargeTransaction(creq)
	if mErr != nil {
		return nil, wrapMidtransErr("core charge ewallet", mErr)
	}

	// deeplink dulu (mobile), fallback QR, fallback action pertama
	var checkout string
	for _, name := range []string{"deeplink-redirect", "generate-qr-code"} {
		for _, a := range resp.Actions {
			if a.Name == name && a.URL != "" {
				checkout = a.URL
				break
			}
		}
		if checkout != "" {
			break
		}
	}
	if checkout == "" && len(resp.Actions) > 0 {
		checkout = resp.Actions[0].URL
	}
	raw, _ := sonic.Marshal(resp)
	return &EwalletResult{
		GatewayID:   resp.TransactionID,
		CheckoutURL: checkout,
		Raw:         raw,
	}, nil
}

func (m *Midtrans) GetPaymentStatus(ctx context.Context, externalID string) (*PaymentStatusResult, error) {
	resp, mErr := m.core.CheckTransaction(externalID)
	if mErr != nil {
		// snap token yang belum dipilih metodenya belum tercatat di midtrans
		if mErr.StatusCode == http.StatusNotFound {
			return &PaymentStatusResult{ExternalID: externalID, Status: StatusPending, RawStatus: "not_found"}, nil
		}
		return nil, wrapMidtransErr("core check transaction", mErr)
	}
	raw, _ := sonic.Marshal(resp)
	out := &PaymentStatusResult{
		GatewayID:  resp.TransactionID,
		ExternalID: externalID,
		Status:     MapMidtransStatus(resp.TransactionStatus, resp.FraudStatus),
		RawStatus:  resp.TransactionStatus,
		Amount:     parseGrossAmount(resp.GrossAmount),
		Raw:        raw,
	}
	if out.Status == StatusPaid || out.Status == StatusSettled {
		out.PaidAt = parseMidtransTime(resp.SettlementTime)
		if out.PaidAt == nil {
			out.PaidAt = parseMidtransTime(resp.TransactionTime)
		}
	}
	return out, nil
}

func (m *Midtrans) CancelPayment(ctx context.Context, externalID string) error {
	if _, mErr := m.core.CancelTransaction(externalID); mErr != nil {
		if mErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return wrapMidtransErr("core cancel transaction", mErr)
	}
	return nil
}

// CreateDisbursement: payout via Iris. Approval payout dilakukan di dashboard Iris.
func (m *Midtrans) CreateDisbursement(ctx context.Context, req DisbursementRequest) (*DisbursementResult, error) {
	if req.Amount <= 0 {
		return nil, errors.New("invalid amount")
	}
	preq := iris.CreatePayoutReq{
		Payouts: []iris.CreatePayoutDetailReq{
			{
				BeneficiaryName:    truncate(req.AccountHolderName, 100),
				BeneficiaryAccount: req.AccountNumber,
				BeneficiaryBank:    strings.ToLower(NormalizeCode(req.BankCode)),
				Amount:             decimal.NewFromInt(req.Amount).StringFixed(2),
				Notes:              req.ExternalID,
			},
		},
	}
	resp, mErr := m.iris.CreatePayout(preq)
	if mErr != nil {
		return nil, wrapMidtransErr("iris create payout", mErr)
	}
	if len(resp.Payouts) == 0 || resp.Payouts[0].ReferenceNo == "" {
		return nil, errors.New("iris: empty payout response")
	}
	raw, _ := sonic.Marshal(resp)
	p := resp.Payouts[0]
	return &DisbursementResult{
		ID:         p.ReferenceNo,
		ExternalID: req.ExternalID,
		Status:     MapIrisStatus(p.Status),
		RawStatus:  p.Status,
		Raw:        raw,
	}, nil
}

func (m *Midtrans) GetDisbursement(ctx context.Context, id string) (*DisbursementResult, error) {
	resp, mErr := m.lookupPayout(id)
	if mErr != nil {
		if mErr.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, wrapMidtransErr("iris payout details", mErr)
	}
	raw, _ := sonic.Marshal(resp)
	return &DisbursementResult{
		ID:         resp.ReferenceNo,
		ExternalID: resp.Notes,
		Status:     MapIrisStatus(resp.Status),
		RawStatus:  resp.Status,
		Raw:        raw,
	}, nil
}

type midtransNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	TransactionTime   string `json:"transaction_time"`
	SettlementTime    string `json:"settlement_time"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
}

func (m *Midtrans) ParsePaymentNotification(raw []byte, header HeaderFunc) (*PaymentNotification, error) {
	var n midtransNotification
	if err := sonic.Unmarshal(raw, &n); err != nil {
		return nil, ErrInvalidPayload
	}
	if n.OrderID == "" || n.TransactionStatus == "" {
		return nil, ErrInvalidPayload
	}
	if !VerifyMidtransSignature(n.OrderID, n.StatusCode, n.GrossAmount, m.cfg.ServerKey, n.SignatureKey) {
		return nil, ErrInvalidSignature
	}

	out := &PaymentNotification{
		ID:         n.TransactionID,
		ExternalID: n.OrderID,
		Status:     MapMidtransStatus(n.TransactionStatus, n.FraudStatus),
		RawStatus:  n.TransactionStatus,
		Amount:     parseGrossAmount(n.GrossAmount),
		Raw:        append([]byte(nil), raw...),
	}
	if out.Status == StatusPaid || out.Status == StatusSettled {
		out.PaidAt = parseMidtransTime(n.SettlementTime)
		if out.PaidAt == nil {
			out.PaidAt = parseMidtransTime(n.TransactionTime)
		}
	}
	return out, nil
}

type irisNotification struct {
	ReferenceNo  string `json:"reference_no"`
	Amount       string `json:"amount"`
	Status       string `json:"status"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// ParseDisbursementNotification: external id tidak ada di body Iris, diambil dari notes payout.
func (m *Midtrans) ParseDisbursementNotification(ctx context.Context, raw []byte, header HeaderFunc) (*DisbursementNotification, error) {
	if !VerifyIrisSignature(m.cfg.MerchantKey, raw, header(HeaderIrisSignature)) {
		return nil, ErrInvalidSignature
	}
	var n irisNotification
	if err := sonic.Unmarshal(raw, &n); err != nil || n.ReferenceNo == "" {
		return nil, ErrInvalidPayload
	}

	detail, mErr := m.lookupPayout(n.ReferenceNo)
	if mErr != nil {
		return nil, wrapMidtransErr("iris payout details", mErr)
	}

	failure := n.ErrorCode
	if failure == "" {
		failure = n.ErrorMessage
	}
	return &DisbursementNotification{
		ID:          n.ReferenceNo,
		ExternalID:  strings.TrimSpace(detail.Notes),
		Status:      MapIrisStatus(n.Status),
		RawStatus:   n.Status,
		FailureCode: failure,
		Raw:         append([]byte(nil), raw...),
	}, nil
}

/* =========================================================
   Status mapping
========================================================= */

// MapMidtransStatus memetakan transaction_status (+fraud_status) Midtrans ke status netral.
func MapMidtransStatus(txStatus, fraudStatus string) Status {
	switch strings.ToLower(txStatus) {
	case "capture":
		switch strings.ToLower(fraudStatus) {
		case "accept", "":
			return StatusPaid
		case "challenge":
			return StatusPending
		default:
			return StatusFailed
		}
	case "settlement":
		return StatusSettled
	case "pending":
		return StatusPending
	case "deny", "failure":
		return StatusFailed
	case "cancel":
		return StatusCancelled
	case "expire":
		return StatusExpired
	case "refund", "partial_refund":
		return StatusRefunded
	default:
		return StatusPending
	}
}

func MapIrisStatus(s string) DisbursementStatus {
	switch strings.ToLower(s) {
	case "completed":
		return DisbursementCompleted
	case "failed", "rejected":
		return DisbursementFailed
	default:
		return DisbursementPending
	}
}

/* =========================================================
   Utils
========================================================= */

func wrapMidtransErr(op string, e *midtrans.Error) error {
	if e == nil {
		return nil
	}
	return fmt.Errorf("midtrans %s (status %d): %s", op, e.StatusCode, e.Message)
}

func customerDetails(c Customer) *midtrans.CustomerDetails {
	if c.Name == "" && c.Email == "" && c.Phone == "" {
		return nil
	}
	return &midtrans.CustomerDetails{
		FName: truncate(c.Name, 50),
		Email: c.Email,
		Phone: c.Phone,
	}
}

func expiryMinutes(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	m := int64(d / time.Minute)
	if m < 1 {
		m = 1
	}
	return m
}

func parseGrossAmount(s string) int64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return d.IntPart()
}

var jakarta = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}()

func parseMidtransTime(s string) *time.Time {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, jakarta)
	if err != nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
