package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"signet/internal/application/identity/usecases"
	"signet/internal/infrastructure/auth"
	"signet/internal/infrastructure/config"
	"signet/internal/infrastructure/database"
	"signet/internal/infrastructure/repository"
	"signet/internal/shared/logger"
)

var (
	env        string
	status     string
	accountIDs []uint
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Post a tweet on behalf of linked accounts",
		Long: `Post the given status on behalf of each listed account through the
tweet queue, one provider call at a time, then exit. Accounts without a
linked Twitter identity are skipped. A hosting service embeds the same
queue for request-driven posting; this command feeds it a fixed batch.`,
		RunE: run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Status text to post")
	cmd.Flags().UintSliceVarP(&accountIDs, "accounts", "a", nil, "Account ids to post on behalf of")
	_ = cmd.MarkFlagRequired("status")
	_ = cmd.MarkFlagRequired("accounts")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log := logger.NewLogger()
	log.Infow("starting tweet worker", "environment", env)

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	identities := repository.NewExternalIdentityRepository(database.Get())
	tokens := repository.NewProviderTokenRepository(database.Get())
	twitter := auth.NewTwitterClient(cfg.Twitter, log)

	size := cfg.Worker.QueueSize
	if size < len(accountIDs) {
		size = len(accountIDs)
	}
	queue := usecases.NewTweetQueue(size, identities, tokens, twitter, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue.EnqueueBatch(accountIDs, status)
	queue.Close()
	queue.Start(ctx)
	log.Infow("tweet worker started", "accounts", len(accountIDs))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Infow("received signal, shutting down", "signal", sig.String())
		cancel()
		<-queue.Done()
	case <-queue.Done():
	}

	log.Infow("tweet worker stopped")
	return nil
}
