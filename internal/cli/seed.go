package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"arith-quiz-service/internal/bank"
	"arith-quiz-service/internal/config"
	"arith-quiz-service/internal/domain"
	"arith-quiz-service/internal/infra/postgres"
	redisrepo "arith-quiz-service/internal/infra/redis"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewSeedCmd stores a question bank in Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Store the question bank in Postgres",
		Long:  "Upserts the built-in bank, or the bank read from --file, and drops any cached copy in Redis.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg, file, newLogger(cfg.Log))
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "bank document (YAML or JSON); defaults to the built-in bank")
	return cmd
}

func readBank(path string) (domain.QuestionBank, error) {
	if path == "" {
		return bank.Builtin(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("read bank: %w", err)
	}
	return bank.Parse(data)
}

func runSeed(ctx context.Context, cfg config.Config, file string, logger *slog.Logger) error {
	if cfg.Postgres.URL == "" {
		return errNoPostgres
	}
	b, err := readBank(file)
	if err != nil {
		return err
	}

	db := openBun(cfg.Postgres.URL)
	defer db.Close()
	if err := Migrate(ctx, db, logger); err != nil {
		return err
	}
	if err := postgres.SaveBank(ctx, db, b); err != nil {
		return err
	}
	logger.Info("bank seeded", slog.String("bank", b.ID))

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer client.Close()
		if err := redisrepo.NewBankRepository(client, nil, 0).Invalidate(ctx, b.ID); err != nil {
			logger.Warn("cache invalidation failed", slog.String("bank", b.ID), slog.String("error", err.Error()))
		}
	}
	return nil
}
