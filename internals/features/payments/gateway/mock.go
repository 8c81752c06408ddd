package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

/*
	Mock gateway: in-memory, dipakai untuk development & test.
	Callback ditandatangani HMAC-SHA256(body, callback secret) di header X-Callback-Signature.
*/

type mockPayment struct {
	GatewayID  string     `json:"id"`
	ExternalID string     `json:"external_id"`
	Amount     int64      `json:"amount"`
	Method     string     `json:"method"`
	Status     Status     `json:"status"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
}

type mockDisbursement struct {
	ID            string             `json:"id"`
	ExternalID    string             `json:"external_id"`
	Amount        int64              `json:"amount"`
	BankCode      string             `json:"bank_code"`
	AccountNumber string             `json:"account_number"`
	Status        DisbursementStatus `json:"status"`
	FailureCode   string             `json:"failure_code,omitempty"`
}

type Mock struct {
	mu     sync.Mutex
	secret string
	seq    int64
	now    func() time.Time

	payments      map[string]*mockPayment      // by external id
	disbursements map[string]*mockDisbursement // by id
	disbByExt     map[string]string

	failNext          error
	disbursementCalls int
}

func NewMock(secret string) *Mock {
	return &Mock{
		secret:        secret,
		now:           time.Now,
		payments:      make(map[string]*mockPayment),
		disbursements: make(map[string]*mockDisbursement),
		disbByExt:     make(map[string]string),
	}
}

func (m *Mock) Provider() string { return ProviderMock }

// FailNext membuat panggilan create berikutnya gagal dengan err.
func (m *Mock) FailNext(err error) {
	m.mu.Lock()
	m.failNext = err
	m.mu.Unlock()
}

func (m *Mock) SetPaymentStatus(externalID string, st Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[externalID]
	if !ok {
		p = &mockPayment{ExternalID: externalID, GatewayID: m.nextID("pay")}
		m.payments[externalID] = p
	}
	p.Status = st
	if st == StatusPaid || st == StatusSettled {
		t := m.now().UTC()
		p.PaidAt = &t
	}
}

func (m *Mock) SetDisbursementStatus(id string, st DisbursementStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.disbursements[id]; ok {
		d.Status = st
	}
}

func (m *Mock) DisbursementCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disbursementCalls
}

// SignPayload menghasilkan signature callback untuk body.
func (m *Mock) SignPayload(body []byte) string {
	return SignBody(m.secret, body)
}

func (m *Mock) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("mock-%s-%06d", prefix, m.seq)
}

func (m *Mock) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *Mock) register(externalID string, amount int64, method string) *mockPayment {
	p := &mockPayment{
		GatewayID:  m.nextID("pay"),
		ExternalID: externalID,
		Amount:     amount,
		Method:     method,
		Status:     StatusPending,
	}
	m.payments[externalID] = p
	return p
}

func (m *Mock) CreateInvoice(ctx context.Context, req InvoiceRequest) (*InvoiceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	p := m.register(req.ExternalID, req.Amount, "INVOICE")
	raw, _ := sonic.Marshal(p)
	return &InvoiceResult{
		GatewayID:  p.GatewayID,
		PaymentURL: "https://checkout.mock.local/invoice/" + req.ExternalID,
		Raw:        raw,
	}, nil
}

func (m *Mock) CreateVirtualAccount(ctx context.Context, req VirtualAccountRequest) (*VirtualAccountResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	code := NormalizeCode(req.BankCode)
	if !IsSupportedBank(code) {
		return nil, fmt.Errorf("unsupported bank code %q", req.BankCode)
	}
	p := m.register(req.ExternalID, req.Amount, "VIRTUAL_ACCOUNT")
	raw, _ := sonic.Marshal(p)
	return &VirtualAccountResult{
		GatewayID:     p.GatewayID,
		BankCode:      code,
		AccountNumber: fmt.Sprintf("8808%012d", m.seq),
		Raw:           raw,
	}, nil
}

func (m *Mock) CreateEwalletCharge(ctx context.Context, req EwalletRequest) (*EwalletResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	t := NormalizeCode(req.EwalletType)
	if !IsSupportedEwallet(t) {
		return nil, fmt.Errorf("unsupported ewallet type %q", req.EwalletType)
	}
	p := m.register(req.ExternalID, req.Amount, "EWALLET")
	raw, _ := sonic.Marshal(p)
	return &EwalletResult{
		GatewayID:   p.GatewayID,
		CheckoutURL: "https://checkout.mock.local/" + strings.ToLower(t) + "/" + req.ExternalID,
		Raw:         raw,
	}, nil
}

func (m *Mock) GetPaymentStatus(ctx context.Context, externalID string) (*PaymentStatusResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[externalID]
	if !ok {
		return &PaymentStatusResult{ExternalID: externalID, Status: StatusPending, RawStatus: "not_found"}, nil
	}
	raw, _ := sonic.Marshal(p)
	return &PaymentStatusResult{
		GatewayID:  p.GatewayID,
		ExternalID: p.ExternalID,
		Status:     p.Status,
		RawStatus:  string(p.Status),
		Amount:     p.Amount,
		PaidAt:     p.PaidAt,
		Raw:        raw,
	}, nil
}

func (m *Mock) CancelPayment(ctx context.Context, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[externalID]; ok && p.Status == StatusPending {
		p.Status = StatusCancelled
	}
	return nil
}

// CreateDisbursement idempoten per external id.
func (m *Mock) CreateDisbursement(ctx context.Context, req DisbursementRequest) (*DisbursementResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disbursementCalls++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	if id, ok := m.disbByExt[req.ExternalID]; ok {
		return m.disbursementResult(m.disbursements[id]), nil
	}
	d := &mockDisbursement{
		ID:            m.nextID("disb"),
		ExternalID:    req.ExternalID,
		Amount:        req.Amount,
		BankCode:      NormalizeCode(req.BankCode),
		AccountNumber: req.AccountNumber,
		Status:        DisbursementPending,
	}
	m.disbursements[d.ID] = d
	m.disbByExt[req.ExternalID] = d.ID
	return m.disbursementResult(d), nil
}

func (m *Mock) GetDisbursement(ctx context.Context, id string) (*DisbursementResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.disbursements[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.disbursementResult(d), nil
}

func (m *Mock) disbursementResult(d *mockDisbursement) *DisbursementResult {
	raw, _ := sonic.Marshal(d)
	return &DisbursementResult{
		ID:          d.ID,
		ExternalID:  d.ExternalID,
		Status:      d.Status,
		RawStatus:   string(d.Status),
		FailureCode: d.FailureCode,
		Raw:         raw,
	}
}

// MockPaymentCallback: bentuk body callback pembayaran gateway mock.
type MockPaymentCallback struct {
	ID         string     `json:"id"`
	ExternalID string     `json:"external_id"`
	Status     string     `json:"status"`
	Amount     int64      `json:"amount"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
}

type MockDisbursementCallback struct {
	ID          string `json:"id"`
	ExternalID  string `json:"external_id"`
	Status      string `json:"status"`
	FailureCode string `json:"failure_code,omitempty"`
}

func (m *Mock) ParsePaymentNotification(raw []byte, header HeaderFunc) (*PaymentNotification, error) {
	if !VerifyBodySignature(m.secret, raw, header(HeaderCallbackSignature)) {
		return nil, ErrInvalidSignature
	}
	var cb MockPaymentCallback
	if err := sonic.Unmarshal(raw, &cb); err != nil || cb.ExternalID == "" || cb.Status == "" {
		return nil, ErrInvalidPayload
	}
	st := Status(NormalizeCode(cb.Status))
	n := &PaymentNotification{
		ID:         cb.ID,
		ExternalID: cb.ExternalID,
		Status:     st,
		RawStatus:  cb.Status,
		Amount:     cb.Amount,
		PaidAt:     cb.PaidAt,
		Raw:        append([]byte(nil), raw...),
	}
	if n.PaidAt == nil && (st == StatusPaid || st == StatusSettled) {
		t := m.now().UTC()
		n.PaidAt = &t
	}
	return n, nil
}

func (m *Mock) ParseDisbursementNotification(ctx context.Context, raw []byte, header HeaderFunc) (*DisbursementNotification, error) {
	if !VerifyBodySignature(m.secret, raw, header(HeaderCallbackSignature)) {
		return nil, ErrInvalidSignature
	}
	var cb MockDisbursementCallback
	if err := sonic.Unmarshal(raw, &cb); err != nil || cb.ExternalID == "" || cb.Status == "" {
		return nil, ErrInvalidPayload
	}
	var st DisbursementStatus
	switch NormalizeCode(cb.Status) {
	case "COMPLETED":
		st = DisbursementCompleted
	case "FAILED":
		st = DisbursementFailed
	default:
		st = DisbursementPending
	}
	return &DisbursementNotification{
		ID:          cb.ID,
		ExternalID:  cb.ExternalID,
		Status:      st,
		RawStatus:   cb.Status,
		FailureCode: cb.FailureCode,
		Raw:         append([]byte(nil), raw...),
	}, nil
}
