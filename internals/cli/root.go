// Package cli berisi command cobra: serve, migrate, reconcile, seed.
package cli

import (
	"github.com/spf13/cobra"
)

var Version = "dev"

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "galangdana",
		Short:         "Galang Dana - crowdfunding backend (donasi, pembayaran, penarikan dana)",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// tanpa subcommand = serve
		RunE: runServe,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(reconcileCmd())
	root.AddCommand(seedCmd())
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}
