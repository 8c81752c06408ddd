// Package scheduler menjalankan job periodik: expire sweep, rekonsiliasi, sync disbursement, sweep status project.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"galangdana_backend/internals/configs"
	projectService "galangdana_backend/internals/features/projects/projects/service"
	reconService "galangdana_backend/internals/features/payments/reconciliation/service"
	"galangdana_backend/internals/logger"
)

const jobTimeout = 10 * time.Minute

type Reconciler interface {
	FullReconciliation(ctx context.Context) (*reconService.Report, error)
	IncrementalReconciliation(ctx context.Context, hoursBack int) (*reconService.Report, error)
	ExpireSweep(ctx context.Context) (*reconService.Report, error)
	ReconcileDisbursements(ctx context.Context) (*reconService.Report, error)
}

type ProjectSweeper interface {
	SweepStatuses(ctx context.Context) (*projectService.SweepResult, error)
}

// Job: satu tugas periodik. Interval <= 0 berarti job tidak didaftarkan.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Manager struct {
	scheduler gocron.Scheduler
	jobs      []Job
}

func NewManager(cfg configs.ReconcileConfig, recon Reconciler, projects ProjectSweeper) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Manager{scheduler: s, jobs: BuildJobs(cfg, recon, projects)}, nil
}

// BuildJobs menyusun daftar job dari konfigurasi.
func BuildJobs(cfg configs.ReconcileConfig, recon Reconciler, projects ProjectSweeper) []Job {
	var jobs []Job
	if cfg.Enabled {
		jobs = append(jobs,
			Job{Name: "payment_expire_sweep", Interval: cfg.ExpireInterval, Run: func(ctx context.Context) error {
				_, err := recon.ExpireSweep(ctx)
				return err
			}},
			Job{Name: "reconcile_incremental", Interval: cfg.IncrementalInterval, Run: func(ctx context.Context) error {
				_, err := recon.IncrementalReconciliation(ctx, cfg.IncrementalHoursBack)
				return err
			}},
			Job{Name: "reconcile_full", Interval: cfg.FullInterval, Run: func(ctx context.Context) error {
				_, err := recon.FullReconciliation(ctx)
				return err
			}},
			Job{Name: "reconcile_disbursements", Interval: cfg.DisbursementInterval, Run: func(ctx context.Context) error {
				_, err := recon.ReconcileDisbursements(ctx)
				return err
			}},
		)
	}
	jobs = append(jobs, Job{Name: "project_status_sweep", Interval: cfg.ProjectSweepInterval, Run: func(ctx context.Context) error {
		_, err := projects.SweepStatuses(ctx)
		return err
	}})

	out := jobs[:0]
	for _, j := range jobs {
		if j.Interval > 0 {
			out = append(out, j)
		}
	}
	return out
}

// Execute menjalankan satu job dengan timeout. Job yang bentrok dengan run lain hanya dilewati.
func Execute(j Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	err := j.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, reconService.ErrAlreadyRunning):
		logger.Info("[INFO] job %s dilewati: masih ada run lain", j.Name)
	default:
		logger.Error("[ERROR] job %s gagal: %v", j.Name, err)
	}
}

func (m *Manager) Jobs() []Job { return m.jobs }

func (m *Manager) Start() error {
	for _, j := range m.jobs {
		j := j
		if _, err := m.scheduler.NewJob(
			gocron.DurationJob(j.Interval),
			gocron.NewTask(func() { Execute(j) }),
			gocron.WithName(j.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return fmt.Errorf("register job %s: %w", j.Name, err)
		}
		logger.Info("[INFO] job %s terdaftar tiap %s", j.Name, j.Interval)
	}
	m.scheduler.Start()
	logger.Info("[INFO] scheduler jalan dengan %d job", len(m.jobs))
	return nil
}

func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Warn("[WARN] gagal shutdown scheduler: %v", err)
	}
	logger.Info("[INFO] scheduler berhenti")
}
