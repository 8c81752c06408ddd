package cli

import (
	"github.com/spf13/cobra"

	database "galangdana_backend/internals/databases"
	"galangdana_backend/internals/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "AutoMigrate semua tabel (projects, donations, payments, withdrawals, gateway events)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer c.close()
			if err := database.AutoMigrate(c.db); err != nil {
				return err
			}
			logger.Info("[INFO] migrasi selesai")
			return nil
		},
	}
}
