// Package gateway membungkus payment gateway eksternal (charge, status, disbursement, callback).
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"
)

const (
	ProviderMock     = "mock"
	ProviderMidtrans = "midtrans"
)

// Status netral dari gateway, dipetakan ke enum internal oleh service.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusSettled   Status = "SETTLED"
	StatusExpired   Status = "EXPIRED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

type DisbursementStatus string

const (
	DisbursementPending   DisbursementStatus = "PENDING"
	DisbursementCompleted DisbursementStatus = "COMPLETED"
	DisbursementFailed    DisbursementStatus = "FAILED"
)

var (
	ErrInvalidSignature = errors.New("invalid callback signature")
	ErrInvalidPayload   = errors.New("invalid callback payload")
	ErrNotFound         = errors.New("transaction not found at gateway")
)

var supportedBanks = map[string]struct{}{
	"BCA": {}, "BNI": {}, "BRI": {}, "PERMATA": {}, "CIMB": {},
}

var supportedEwallets = map[string]struct{}{
	"GOPAY": {}, "SHOPEEPAY": {},
}

func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func IsSupportedBank(code string) bool {
	_, ok := supportedBanks[NormalizeCode(code)]
	return ok
}

func IsSupportedEwallet(t string) bool {
	_, ok := supportedEwallets[NormalizeCode(t)]
	return ok
}

func SupportedBanks() []string    { return sortedKeys(supportedBanks) }
func SupportedEwallets() []string { return sortedKeys(supportedEwallets) }

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type Customer struct {
	Name  string
	Email string
	Phone string
}

type InvoiceRequest struct {
	ExternalID  string
	Amount      int64
	Description string
	Customer    Customer
	Expiry      time.Duration
}

type InvoiceResult struct {
	GatewayID  string
	PaymentURL string
	Raw        json.RawMessage
}

type VirtualAccountRequest struct {
	ExternalID string
	Amount     int64
	BankCode   string
	Customer   Customer
	Expiry     time.Duration
}

type VirtualAccountResult struct {
	GatewayID     string
	BankCode      string
	AccountNumber string
	Raw           json.RawMessage
}

type EwalletRequest struct {
	ExternalID  string
	Amount      int64
	EwalletType string
	Customer    Customer
	Expiry      time.Duration
}

type EwalletResult struct {
	GatewayID   string
	CheckoutURL string
	Raw         json.RawMessage
}

type PaymentStatusResult struct {
	GatewayID  string
	ExternalID string
	Status     Status
	RawStatus  string
	Amount     int64
	PaidAt     *time.Time
	Raw        json.RawMessage
}

type DisbursementRequest struct {
	ExternalID        string
	Amount            int64
	BankCode          string
	AccountNumber     string
	AccountHolderName string
	Description       string
}

type DisbursementResult struct {
	ID          string
	ExternalID  string
	Status      DisbursementStatus
	RawStatus   string
	FailureCode string
	Raw         json.RawMessage
}

// PaymentNotification: callback pembayaran yang sudah terverifikasi & dinormalisasi.
type PaymentNotification struct {
	ID         string
	ExternalID string
	Status     Status
	RawStatus  string
	Amount     int64
	PaidAt     *time.Time
	Raw        json.RawMessage
}

type DisbursementNotification struct {
	ID          string
	ExternalID  string
	Status      DisbursementStatus
	RawStatus   string
	FailureCode string
	Raw         json.RawMessage
}

// HeaderFunc membaca header request (fiber: c.Get).
type HeaderFunc func(key string) string

type Gateway interface {
	Provider() string

	CreateInvoice(ctx context.Context, req InvoiceRequest) (*InvoiceResult, error)
	CreateVirtualAccount(ctx context.Context, req VirtualAccountRequest) (*VirtualAccountResult, error)
	CreateEwalletCharge(ctx context.Context, req EwalletRequest) (*EwalletResult, error)
	GetPaymentStatus(ctx context.Context, externalID string) (*PaymentStatusResult, error)
	CancelPayment(ctx context.Context, externalID string) error

	CreateDisbursement(ctx context.Context, req DisbursementRequest) (*DisbursementResult, error)
	GetDisbursement(ctx context.Context, id string) (*DisbursementResult, error)

	ParsePaymentNotification(raw []byte, header HeaderFunc) (*PaymentNotification, error)
	ParseDisbursementNotification(ctx context.Context, raw []byte, header HeaderFunc) (*DisbursementNotification, error)
}
