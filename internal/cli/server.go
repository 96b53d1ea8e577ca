package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"arith-quiz-service/internal/app"
	"arith-quiz-service/internal/config"
	"arith-quiz-service/internal/infra/memory"
	"arith-quiz-service/internal/infra/postgres"
	redisrepo "arith-quiz-service/internal/infra/redis"
	"arith-quiz-service/internal/infra/sqlite"
	transport "arith-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// backends holds the connections opened for one server run.
type backends struct {
	redis   *redis.Client
	pool    *pgxpool.Pool
	closers []func() error
}

func (b *backends) close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := b.redis.Ping(ctx).Err(); err != nil {
			_ = b.redis.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		b.closers = append(b.closers, b.redis.Close)
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			_ = b.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
		b.closers = append(b.closers, func() error { pool.Close(); return nil })
	}
	return b, nil
}

// bankLoader prefers an explicit bank file. Otherwise Postgres is asked first
// and the built-in bank covers an unseeded database.
func (b *backends) bankLoader(cfg config.QuizConfig) memory.BankLoader {
	switch {
	case cfg.BankFile != "":
		return memory.NewFileBankLoader(cfg.BankFile)
	case b.pool != nil:
		return memory.ChainBankLoader{postgres.NewBankLoader(b.pool), memory.NewStaticBankLoader()}
	default:
		return memory.NewStaticBankLoader()
	}
}

func (b *backends) bankRepository(cfg config.Config) app.BankRepository {
	loader := b.bankLoader(cfg.Quiz)
	if b.redis != nil {
		return redisrepo.NewBankRepository(b.redis, loader, cfg.Quiz.CacheTTL)
	}
	return memory.NewBankRepository(loader, cfg.Quiz.CacheTTL)
}

func (b *backends) sessionRepository(cfg config.Config) app.SessionRepository {
	if b.redis != nil {
		return redisrepo.NewSessionStore(b.redis, cfg.Redis.TTL)
	}
	return memory.NewSessionStore()
}

func (b *backends) historyStore(ctx context.Context, cfg config.Config) (app.HistoryStore, error) {
	switch strings.ToLower(cfg.History.Driver) {
	case config.HistorySQLite:
		store, err := sqlite.Open(ctx, cfg.History.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, store.Close)
		return store, nil
	case config.HistoryPostgres:
		if b.pool == nil {
			return nil, errNoPostgres
		}
		return postgres.NewHistoryStore(b.pool), nil
	case config.HistoryRedis:
		if b.redis == nil {
			return nil, errors.New("redis addr not configured")
		}
		return redisrepo.NewHistoryStore(b.redis), nil
	default:
		return memory.NewHistoryStore(), nil
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
	}

	deps, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.close(); err != nil {
			logger.Warn("closing backends", slog.String("error", err.Error()))
		}
	}()

	history, err := deps.historyStore(ctx, cfg)
	if err != nil {
		return err
	}
	service := app.NewQuizService(deps.sessionRepository(cfg), deps.bankRepository(cfg), history, app.Options{
		BankID:        cfg.Quiz.BankID,
		QuestionCount: cfg.Quiz.QuestionCount,
		TimeLimit:     cfg.Quiz.TimeLimit,
		Logger:        logger,
	})

	// Fail fast on a bank that cannot be loaded or does not validate.
	if _, err := service.Bank(ctx); err != nil {
		return err
	}

	handler := transport.NewRouter(service, transport.NewWSHandler(service, logger), logger, transport.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.WriteTimeout,
	})

	addr := portFlag
	if addr == "" {
		addr = cfg.Server.Port
	}
	server := &http.Server{
		Addr:         ":" + addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting quiz service",
			slog.String("addr", server.Addr),
			slog.String("history", cfg.History.Driver),
			slog.Bool("redis", deps.redis != nil),
			slog.Bool("postgres", deps.pool != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
