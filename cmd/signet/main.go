package main

import (
	"os"

	"github.com/spf13/cobra"

	"signet/internal/interfaces/cli/migrate"
	"signet/internal/interfaces/cli/worker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "signet",
		Short: "Signet - third-party sign-in service",
		Long:  `Signet resolves Apple and Twitter sign-ins to platform accounts and runs the supporting background jobs.`,
	}

	rootCmd.AddCommand(
		worker.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
