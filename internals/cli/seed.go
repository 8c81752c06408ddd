package cli

import (
	"github.com/spf13/cobra"

	"galangdana_backend/internals/logger"
	"galangdana_backend/internals/seeds"
)

func seedCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Isi data contoh (project) dari file JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer c.close()
			if err := seeds.RunAllSeeds(c.db, dir); err != nil {
				return err
			}
			logger.Info("[INFO] seed selesai")
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "internals/seeds", "direktori file seed")
	return cmd
}
