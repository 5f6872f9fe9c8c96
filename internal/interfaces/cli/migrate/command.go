package migrate

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"signet/internal/infrastructure/config"
	"signet/internal/infrastructure/database"
	"signet/internal/infrastructure/migration"
	"signet/internal/shared/logger"
)

var (
	env   string
	steps int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage database migrations: apply pending migrations, roll back, and check status.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE:  runStatus,
	}
}

func initEnv() (*migration.Runner, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	scriptsPath, err := filepath.Abs("./internal/infrastructure/migration/scripts")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scripts path: %w", err)
	}

	return migration.NewRunner(scriptsPath), nil
}

func runUp(cmd *cobra.Command, args []string) error {
	runner, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	return runner.Up(database.Get())
}

func runDown(cmd *cobra.Command, args []string) error {
	runner, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	return runner.Down(database.Get(), steps)
}

func runStatus(cmd *cobra.Command, args []string) error {
	runner, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	version, err := runner.Version(database.Get())
	if err != nil {
		return err
	}

	fmt.Printf("current schema version: %d\n", version)
	return nil
}
