package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"

	"galangdana_backend/internals/features/payments/payments/model"
	paymentService "galangdana_backend/internals/features/payments/payments/service"
	withdrawalService "galangdana_backend/internals/features/withdrawals/withdrawals/service"
	"galangdana_backend/internals/logger"
)

const (
	TypeFull          = "full"
	TypeIncremental   = "incremental"
	TypeExpire        = "expire"
	TypeDisbursements = "disbursements"

	fullWindow = 30 * 24 * time.Hour

	// kunci pg_advisory_lock untuk job rekonsiliasi
	advisoryLockKey int64 = 0x6761_6c61_6e67 // "galang"
)

var ErrAlreadyRunning = fiber.NewError(fiber.StatusConflict, "reconciliation already running")

type PaymentSyncer interface {
	SyncPayment(ctx context.Context, id uint64) (*model.PaymentModel, error)
	ExpireDuePayments(ctx context.Context, now time.Time) (*paymentService.ExpireResult, error)
}

type DisbursementSyncer interface {
	ProcessingWithDisbursement(ctx context.Context) ([]uint64, error)
	SyncDisbursement(ctx context.Context, id uint64) (*withdrawalService.DisbursementUpdate, error)
}

// Locker: lock lintas instance (pg advisory lock). Opsional.
type Locker interface {
	TryLock(ctx context.Context, key int64) (unlock func(), ok bool, err error)
}

type Report struct {
	Type          string         `json:"type"`
	TotalChecked  int            `json:"total_checked"`
	TotalUpdated  int            `json:"total_updated"`
	StatusUpdates map[string]int `json:"status_updates"`
	Errors        []string       `json:"errors"`
	ExecutionTime string         `json:"execution_time"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
}

type Status struct {
	Running    bool    `json:"running"`
	LastReport *Report `json:"last_report,omitempty"`
}

type ReconciliationService struct {
	db          *gorm.DB
	payments    PaymentSyncer
	withdrawals DisbursementSyncer
	locker      Locker
	workers     int
	now         func() time.Time

	running atomic.Bool
	mu      sync.Mutex
	last    *Report
}

func NewReconciliationService(db *gorm.DB, payments PaymentSyncer, withdrawals DisbursementSyncer, workers int) *ReconciliationService {
	if workers <= 0 {
		workers = 1
	}
	return &ReconciliationService{
		db:          db,
		payments:    payments,
		withdrawals: withdrawals,
		workers:     workers,
		now:         time.Now,
	}
}

func (s *ReconciliationService) WithClock(now func() time.Time) *ReconciliationService {
	s.now = now
	return s
}

func (s *ReconciliationService) WithLocker(l Locker) *ReconciliationService {
	s.locker = l
	return s
}

func (s *ReconciliationService) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Running: s.running.Load(), LastReport: s.last}
}

// run menjaga satu job per proses (atomic flag) dan, bila ada locker, satu job per cluster.
func (s *ReconciliationService) run(ctx context.Context, typ string, fn func(ctx context.Context, r *Report) error) (*Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	if s.locker != nil {
		unlock, ok, err := s.locker.TryLock(ctx, advisoryLockKey)
		if err != nil {
			return nil, fmt.Errorf("advisory lock: %w", err)
		}
		if !ok {
			logger.Warn("[WARN] reconcile %s dilewati: lock dipegang instance lain", typ)
			return nil, ErrAlreadyRunning
		}
		defer unlock()
	}

	started := time.Now()
	r := &Report{
		Type:          typ,
		StatusUpdates: map[string]int{},
		Errors:        []string{},
		StartedAt:     s.now(),
	}
	if err := fn(ctx, r); err != nil {
		logger.Error("[ERROR] reconcile %s gagal: %v", typ, err)
		return nil, err
	}
	r.FinishedAt = s.now()
	r.ExecutionTime = time.Since(started).Round(time.Millisecond).String()

	s.mu.Lock()
	s.last = r
	s.mu.Unlock()

	logger.Info("[INFO] reconcile %s selesai: checked=%d updated=%d errors=%d (%s)",
		typ, r.TotalChecked, r.TotalUpdated, len(r.Errors), r.ExecutionTime)
	return r, nil
}

/* =========================================================
   PAYMENTS
========================================================= */

// FullReconciliation: semua payment PENDING/FAILED 30 hari terakhir.
func (s *ReconciliationService) FullReconciliation(ctx context.Context) (*Report, error) {
	return s.run(ctx, TypeFull, func(ctx context.Context, r *Report) error {
		since := s.now().Add(-fullWindow)
		var ids []uint64
		if err := s.db.WithContext(ctx).Model(&model.PaymentModel{}).
			Where("payment_status IN ? AND created_at >= ?",
				[]model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusFailed}, since).
			Order("payment_id ASC").
			Pluck("payment_id", &ids).Error; err != nil {
			return fmt.Errorf("select payments: %w", err)
		}
		return s.recheckPayments(ctx, ids, r)
	})
}

// IncrementalReconciliation: PENDING yang dibuat, PENDING/FAILED yang diubah,
// dan payment yang expired_at-nya lewat dalam hoursBack jam terakhir.
func (s *ReconciliationService) IncrementalReconciliation(ctx context.Context, hoursBack int) (*Report, error) {
	if hoursBack <= 0 {
		hoursBack = 1
	}
	return s.run(ctx, TypeIncremental, func(ctx context.Context, r *Report) error {
		now := s.now()
		since := now.Add(-time.Duration(hoursBack) * time.Hour)
		q := s.db.WithContext(ctx).Model(&model.PaymentModel{})

		var created, updated, expired []uint64
		if err := q.Session(&gorm.Session{}).
			Where("payment_status = ? AND created_at >= ?", model.PaymentStatusPending, since).
			Pluck("payment_id", &created).Error; err != nil {
			return fmt.Errorf("select created: %w", err)
		}
		if err := q.Session(&gorm.Session{}).
			Where("payment_status IN ? AND updated_at >= ?",
				[]model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusFailed}, since).
			Pluck("payment_id", &updated).Error; err != nil {
			return fmt.Errorf("select updated: %w", err)
		}
		if err := q.Session(&gorm.Session{}).
			Where("payment_status <> ? AND payment_expired_at IS NOT NULL AND payment_expired_at >= ? AND payment_expired_at <= ?",
				model.PaymentStatusPaid, since, now).
			Pluck("payment_id", &expired).Error; err != nil {
			return fmt.Errorf("select expired: %w", err)
		}
		return s.recheckPayments(ctx, unionIDs(created, updated, expired), r)
	})
}

// ExpireSweep: PENDING yang lewat expired_at → EXPIRED, tanpa memanggil gateway.
func (s *ReconciliationService) ExpireSweep(ctx context.Context) (*Report, error) {
	return s.run(ctx, TypeExpire, func(ctx context.Context, r *Report) error {
		res, err := s.payments.ExpireDuePayments(ctx, s.now())
		if err != nil {
			return err
		}
		r.TotalChecked = res.Checked
		r.TotalUpdated = res.Expired
		if res.Expired > 0 {
			r.StatusUpdates[string(model.PaymentStatusExpired)] = res.Expired
		}
		r.Errors = append(r.Errors, res.Errors...)
		return nil
	})
}

func (s *ReconciliationService) recheckPayments(ctx context.Context, ids []uint64, r *Report) error {
	r.TotalChecked = len(ids)
	if len(ids) == 0 {
		return nil
	}
	before, err := s.paymentStatuses(ctx, ids)
	if err != nil {
		return err
	}

	var errMu sync.Mutex
	s.fanOut(ids, func(id uint64) {
		if _, err := s.payments.SyncPayment(ctx, id); err != nil {
			errMu.Lock()
			r.Errors = append(r.Errors, fmt.Sprintf("payment %d: %v", id, err))
			errMu.Unlock()
		}
	})

	after, err := s.paymentStatuses(ctx, ids)
	if err != nil {
		return err
	}
	for id, st := range after {
		if before[id] != st {
			r.TotalUpdated++
			r.StatusUpdates[string(st)]++
		}
	}
	sort.Strings(r.Errors)
	return nil
}

func (s *ReconciliationService) paymentStatuses(ctx context.Context, ids []uint64) (map[uint64]model.PaymentStatus, error) {
	var rows []model.PaymentModel
	if err := s.db.WithContext(ctx).
		Select("payment_id", "payment_status").
		Where("payment_id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load payment statuses: %w", err)
	}
	out := make(map[uint64]model.PaymentStatus, len(rows))
	for _, p := range rows {
		out[p.PaymentID] = p.PaymentStatus
	}
	return out, nil
}

/* =========================================================
   DISBURSEMENTS
========================================================= */

// ReconcileDisbursements menanyakan ulang payout untuk withdrawal PROCESSING.
func (s *ReconciliationService) ReconcileDisbursements(ctx context.Context) (*Report, error) {
	return s.run(ctx, TypeDisbursements, func(ctx context.Context, r *Report) error {
		ids, err := s.withdrawals.ProcessingWithDisbursement(ctx)
		if err != nil {
			return err
		}
		r.TotalChecked = len(ids)

		var mu sync.Mutex
		s.fanOut(ids, func(id uint64) {
			res, err := s.withdrawals.SyncDisbursement(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.Errors = append(r.Errors, fmt.Sprintf("withdrawal %d: %v", id, err))
				return
			}
			if res.Changed {
				r.TotalUpdated++
				r.StatusUpdates[string(res.Status)]++
			}
		})
		sort.Strings(r.Errors)
		return nil
	})
}

// fanOut menjalankan fn untuk tiap id di pool ants dan menunggu semuanya selesai.
func (s *ReconciliationService) fanOut(ids []uint64, fn func(id uint64)) {
	size := s.workers
	if size > len(ids) {
		size = len(ids)
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		logger.Warn("[WARN] ants pool gagal dibuat (%v), jalan serial", err)
		for _, id := range ids {
			fn(id)
		}
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, id := range ids {
		id := id
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			fn(id)
		}); err != nil {
			wg.Done()
			logger.Error("[ERROR] submit ke pool gagal id=%d: %v", id, err)
			fn(id)
		}
	}
	wg.Wait()
}

func unionIDs(groups ...[]uint64) []uint64 {
	seen := map[uint64]struct{}{}
	var out []uint64
	for _, g := range groups {
		for _, id := range g {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
