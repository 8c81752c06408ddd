package cli

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

// reconcileCmd: jalankan satu kali dari terminal / cron eksternal, hasil dicetak sebagai JSON.
func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Rekonsiliasi manual status payment / disbursement dengan gateway",
	}

	run := func(fn func(ctx context.Context, c *container) (any, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer c.close()
			out, err := fn(cmd.Context(), c)
			if err != nil {
				return err
			}
			b, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
	}

	full := &cobra.Command{
		Use:   "full",
		Short: "Cek ulang payment PENDING/FAILED 30 hari terakhir",
		RunE: run(func(ctx context.Context, c *container) (any, error) {
			return c.reconciliation.FullReconciliation(ctx)
		}),
	}

	var hours int
	incremental := &cobra.Command{
		Use:   "incremental",
		Short: "Cek ulang payment yang berubah dalam N jam terakhir",
		RunE: run(func(ctx context.Context, c *container) (any, error) {
			h := hours
			if h <= 0 {
				h = c.cfg.Reconcile.IncrementalHoursBack
			}
			return c.reconciliation.IncrementalReconciliation(ctx, h)
		}),
	}
	incremental.Flags().IntVar(&hours, "hours", 0, "jendela waktu dalam jam (default dari RECONCILE_INCREMENTAL_HOURS)")

	expire := &cobra.Command{
		Use:   "expire",
		Short: "Tandai EXPIRED payment PENDING yang sudah lewat batas waktu",
		RunE: run(func(ctx context.Context, c *container) (any, error) {
			return c.reconciliation.ExpireSweep(ctx)
		}),
	}

	disbursements := &cobra.Command{
		Use:   "disbursements",
		Short: "Sinkronkan withdrawal PROCESSING dengan status payout di gateway",
		RunE: run(func(ctx context.Context, c *container) (any, error) {
			return c.reconciliation.ReconcileDisbursements(ctx)
		}),
	}

	projects := &cobra.Command{
		Use:   "projects",
		Short: "Tutup project ACTIVE yang targetnya tercapai atau sudah lewat end date",
		RunE: run(func(ctx context.Context, c *container) (any, error) {
			return c.projects.SweepStatuses(ctx)
		}),
	}

	cmd.AddCommand(full, incremental, expire, disbursements, projects)
	return cmd
}
